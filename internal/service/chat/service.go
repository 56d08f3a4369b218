package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"gigglechat/internal/apperr"
	"gigglechat/internal/config"
	"gigglechat/internal/models"
	"gigglechat/internal/service/ai"
)

// Request is one inbound chat turn. Nil fields were absent from the payload.
type Request struct {
	Message     *string
	CharacterID *string
}

// Caller identifies who is chatting. AccountID is zero for anonymous callers.
type Caller struct {
	AccountID int64
}

func (c Caller) Authenticated() bool {
	return c.AccountID > 0
}

// Source tells where a reply came from.
type Source int

const (
	SourceModel Source = iota
	SourceFallback
)

func (s Source) String() string {
	if s == SourceFallback {
		return "fallback"
	}
	return "model"
}

// Result is a successful turn.
type Result struct {
	Reply     string
	Source    Source
	Character *models.Character
}

// CharacterStore resolves characters by id.
type CharacterStore interface {
	Get(ctx context.Context, id int64) (*models.Character, error)
}

// Gateway is the single-call completion provider.
type Gateway interface {
	Configured() bool
	Complete(ctx context.Context, p ai.Prompt) (string, error)
}

// Options carries the fixed per-deployment turn settings.
type Options struct {
	Model          string
	MaxTokens      int
	FailurePolicy  string
	AllowAnonymous bool
}

// OptionsFromConfig derives turn settings from process configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Model:          cfg.LLM.Model,
		MaxTokens:      cfg.LLM.MaxTokens,
		FailurePolicy:  cfg.LLM.FailurePolicy,
		AllowAnonymous: cfg.Chat.AllowAnonymous,
	}
}

// Validation messages returned to clients.
const (
	MsgMissingFields = "message and character_id are required."
	MsgBlankFields   = "message and character_id cannot be blank."
)

// Service orchestrates a chat turn. It holds no per-turn state, so one
// instance serves concurrent requests.
type Service struct {
	characters CharacterStore
	gateway    Gateway
	opts       Options
}

// NewService wires the orchestrator.
func NewService(characters CharacterStore, gateway Gateway, opts Options) *Service {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 256
	}
	if opts.FailurePolicy == "" {
		opts.FailurePolicy = config.PolicyFallback
	}
	return &Service{characters: characters, gateway: gateway, opts: opts}
}

// HandleTurn validates the request, resolves the character and produces a
// reply from the model, or the fallback reply when no credential is
// configured or the provider call fails.
func (s *Service) HandleTurn(ctx context.Context, caller Caller, req Request) (*Result, error) {
	if req.Message == nil || req.CharacterID == nil {
		return nil, apperr.Validation(MsgMissingFields)
	}
	text := strings.TrimSpace(*req.Message)
	rawID := strings.TrimSpace(*req.CharacterID)
	if text == "" || rawID == "" {
		return nil, apperr.Validation(MsgBlankFields)
	}
	if !caller.Authenticated() && !s.opts.AllowAnonymous {
		return nil, apperr.Auth("Authentication credentials were not provided.")
	}

	character, err := s.resolve(ctx, rawID)
	if err != nil {
		return nil, err
	}

	if !s.gateway.Configured() {
		return s.fallback(*req.Message, character), nil
	}

	reply, err := s.gateway.Complete(ctx, ai.Prompt{
		System:    character.PersonalityPrompt,
		User:      text,
		Model:     s.opts.Model,
		MaxTokens: s.opts.MaxTokens,
	})
	if err != nil {
		log.Printf("[chat] completion failed account=%d character=%d: %v", caller.AccountID, character.ID, err)
		if s.opts.FailurePolicy == config.PolicySurface {
			return nil, apperr.Upstream("AI service is currently unavailable.", err)
		}
		return s.fallback(*req.Message, character), nil
	}
	return &Result{Reply: reply, Source: SourceModel, Character: character}, nil
}

func (s *Service) resolve(ctx context.Context, rawID string) (*models.Character, error) {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return nil, apperr.NotFound("Character not found.")
	}
	character, err := s.characters.Get(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.NotFound("Character not found.")
		}
		return nil, fmt.Errorf("resolve character %d: %w", id, err)
	}
	return character, nil
}

func (s *Service) fallback(message string, character *models.Character) *Result {
	return &Result{Reply: FallbackReply(message), Source: SourceFallback, Character: character}
}

// FallbackReply is the deterministic non-model reply.
func FallbackReply(message string) string {
	return fmt.Sprintf("You said: %s 🤖 [Mock AI]", message)
}
