package character

import (
	"context"
	"encoding/json"
	"net"
	"os"
	"strconv"
	"testing"
	"time"

	"gigglechat/internal/apperr"
	"gigglechat/internal/config"
	"gigglechat/internal/models"
	"gigglechat/internal/redis"
	"gigglechat/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *SQLStore {
	t.Helper()
	cfg := &config.Config{
		Databases: map[string]config.DatabaseConfig{
			"sqlite3": {DSN: ":memory:"},
		},
	}
	db, err := storage.Open("sqlite3", cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, storage.Migrate(db))
	return NewSQLStore(db)
}

func TestSeedIsIdempotentAndOrdered(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	added, err := Seed(ctx, store, DefaultRoster())
	require.NoError(t, err)
	assert.Equal(t, 4, added)

	added, err = Seed(ctx, store, DefaultRoster())
	require.NoError(t, err)
	assert.Zero(t, added)

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 4)
	for i, c := range list {
		assert.Equal(t, int64(i+1), c.ID)
	}
	assert.Equal(t, "Luna", list[0].Name)
	assert.NotEmpty(t, list[0].PersonalityPrompt)
}

func TestGetAndOptionalFields(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, models.Character{Name: "Plain", PersonalityPrompt: "You are plain."})
	require.NoError(t, err)

	got, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "You are plain.", got.PersonalityPrompt)
	assert.Nil(t, got.Avatar)
	assert.Nil(t, got.Description)

	body, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"name":"Plain","personality_prompt":"You are plain.","avatar":null,"description":null}`, string(body))

	_, err = store.Get(ctx, 999)
	require.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = store.Get(ctx, 0)
	require.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = store.Create(ctx, models.Character{Name: "  "})
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestListEmpty(t *testing.T) {
	store := openTestStore(t)
	list, err := store.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestCachedStoreWithoutRedisDelegates(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	_, err := Seed(ctx, store, DefaultRoster())
	require.NoError(t, err)

	cached := NewCachedStore(store, nil, time.Minute)
	list, err := cached.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 4)

	_, err = cached.Get(ctx, 42)
	require.ErrorIs(t, err, apperr.ErrNotFound)
	require.NoError(t, cached.Invalidate(ctx, 1))
}

func TestCachedStoreUsesRedis(t *testing.T) {
	client := newRedisCacheClient(t)
	store := openTestStore(t)
	ctx := context.Background()
	_, err := Seed(ctx, store, DefaultRoster())
	require.NoError(t, err)

	cached := NewCachedStore(store, client, time.Minute)
	first, err := cached.Get(ctx, 2)
	require.NoError(t, err)

	raw, err := client.Raw().Get(ctx, "characters:id:2").Result()
	require.NoError(t, err)
	assert.Contains(t, raw, `"name":"Zorg"`)

	// served from cache even after the row disappears
	_, err = store.db.Exec(`DELETE FROM characters WHERE id = 2`)
	require.NoError(t, err)
	again, err := cached.Get(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, first, again)

	require.NoError(t, cached.Invalidate(ctx, 2))
	_, err = cached.Get(ctx, 2)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func newRedisCacheClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set TEST_REDIS_ADDR to run redis-backed cache tests")
	}
	host, portStr, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	cfg := &config.Config{Redis: config.RedisConfig{Enabled: true, Host: host, Port: port}}
	client, err := redis.NewRedisClient(cfg)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, client.Raw().FlushDB(ctx).Err())
	t.Cleanup(func() { client.Close() })
	return client
}
