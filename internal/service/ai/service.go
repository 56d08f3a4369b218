package ai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gigglechat/internal/config"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"
)

// ErrEmptyCompletion is returned when the provider answers without content.
var ErrEmptyCompletion = errors.New("provider returned no completion")

// Prompt is one stateless exchange: a system instruction and a user message.
type Prompt struct {
	System    string
	User      string
	Model     string
	MaxTokens int
}

// Gateway performs a single chat completion against the configured provider.
// It never retries or streams. Whether a credential exists is exposed through
// Configured so callers can decide before calling.
type Gateway struct {
	chatModel model.BaseChatModel
	timeout   time.Duration
}

// NewGateway builds the provider client from cfg. Without an API key the
// gateway is returned unconfigured and Complete must not be called.
func NewGateway(ctx context.Context, cfg config.LLMConfig) (*Gateway, error) {
	if !cfg.HasCredential() {
		return &Gateway{timeout: cfg.Timeout()}, nil
	}
	chatModel, err := newChatModel(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewGatewayWithModel(chatModel, cfg.Timeout()), nil
}

// NewGatewayWithModel wraps an existing eino chat model.
func NewGatewayWithModel(chatModel model.BaseChatModel, timeout time.Duration) *Gateway {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Gateway{chatModel: chatModel, timeout: timeout}
}

// Configured reports whether a provider client is available.
func (g *Gateway) Configured() bool {
	return g != nil && g.chatModel != nil
}

// Complete sends the prompt and returns the completion text unmodified.
func (g *Gateway) Complete(ctx context.Context, p Prompt) (string, error) {
	if !g.Configured() {
		return "", errors.New("llm gateway not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	messages := []*schema.Message{
		schema.SystemMessage(p.System),
		schema.UserMessage(p.User),
	}
	var opts []model.Option
	if p.Model != "" {
		opts = append(opts, model.WithModel(p.Model))
	}
	if p.MaxTokens > 0 {
		opts = append(opts, model.WithMaxTokens(p.MaxTokens))
	}

	started := time.Now()
	resp, err := g.chatModel.Generate(ctx, messages, opts...)
	if err != nil {
		return "", fmt.Errorf("generate completion: %w", err)
	}
	if resp == nil || resp.Content == "" {
		return "", ErrEmptyCompletion
	}
	log.Printf("[ai] completion model=%s length=%d elapsed=%s", p.Model, len(resp.Content), time.Since(started).Round(time.Millisecond))
	return resp.Content, nil
}

func newChatModel(ctx context.Context, cfg config.LLMConfig) (model.BaseChatModel, error) {
	maxTokens := cfg.MaxTokens
	switch cfg.Provider {
	case "openai":
		chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL:   cfg.BaseURL,
			Model:     cfg.Model,
			APIKey:    cfg.APIKey,
			MaxTokens: &maxTokens,
			Timeout:   cfg.Timeout(),
		})
		if err != nil {
			return nil, fmt.Errorf("init openai model: %w", err)
		}
		return chatModel, nil
	case "claude":
		var baseURL *string
		if cfg.BaseURL != "" {
			baseURL = &cfg.BaseURL
		}
		chatModel, err := claude.NewChatModel(ctx, &claude.Config{
			APIKey:    cfg.APIKey,
			Model:     cfg.Model,
			BaseURL:   baseURL,
			MaxTokens: maxTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("init claude model: %w", err)
		}
		return chatModel, nil
	case "gemini":
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cfg.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("init gemini client: %w", err)
		}
		chatModel, err := gemini.NewChatModel(ctx, &gemini.Config{
			Client:    client,
			Model:     cfg.Model,
			MaxTokens: &maxTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("init gemini model: %w", err)
		}
		return chatModel, nil
	default:
		return nil, fmt.Errorf("invalid provider: %s", cfg.Provider)
	}
}
