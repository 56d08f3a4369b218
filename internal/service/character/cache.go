package character

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gigglechat/internal/models"
	"gigglechat/internal/redis"
)

const (
	cacheKeyAll    = "characters:all"
	cacheKeyPrefix = "characters:id:"
)

// CachedStore is a redis read-through cache in front of another Store.
// Characters never change through the API, so entries only expire by TTL.
type CachedStore struct {
	next  Store
	cache *redis.Client
	ttl   time.Duration
}

// NewCachedStore wraps next. A nil cache client disables caching.
func NewCachedStore(next Store, cache *redis.Client, ttl time.Duration) *CachedStore {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedStore{next: next, cache: cache, ttl: ttl}
}

func (s *CachedStore) List(ctx context.Context) ([]models.Character, error) {
	if s.cache != nil {
		var cached []models.Character
		err := s.cache.GetJSON(ctx, cacheKeyAll, &cached)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, redis.ErrCacheMiss) {
			log.Printf("[character] cache read %s failed: %v", cacheKeyAll, err)
		}
	}

	characters, err := s.next.List(ctx)
	if err != nil {
		return nil, err
	}
	s.store(ctx, cacheKeyAll, characters)
	return characters, nil
}

func (s *CachedStore) Get(ctx context.Context, id int64) (*models.Character, error) {
	key := fmt.Sprintf("%s%d", cacheKeyPrefix, id)
	if s.cache != nil {
		var cached models.Character
		err := s.cache.GetJSON(ctx, key, &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, redis.ErrCacheMiss) {
			log.Printf("[character] cache read %s failed: %v", key, err)
		}
	}

	c, err := s.next.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, c)
	return c, nil
}

// Invalidate drops cached entries, e.g. after seeding or administrative edits.
func (s *CachedStore) Invalidate(ctx context.Context, ids ...int64) error {
	if s.cache == nil {
		return nil
	}
	keys := []string{cacheKeyAll}
	for _, id := range ids {
		keys = append(keys, fmt.Sprintf("%s%d", cacheKeyPrefix, id))
	}
	return s.cache.Del(ctx, keys...)
}

func (s *CachedStore) store(ctx context.Context, key string, value any) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetJSON(ctx, key, value, s.ttl); err != nil {
		log.Printf("[character] cache write %s failed: %v", key, err)
	}
}
