package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config represents runtime configuration for the service.
type Config struct {
	BasicConfig BasicConfig               `json:"basic_config"`
	Databases   map[string]DatabaseConfig `json:"databases"`
	Redis       RedisConfig               `json:"redis"`
	LLM         LLMConfig                 `json:"llm"`
	Auth        AuthConfig                `json:"auth"`
	Chat        ChatConfig                `json:"chat"`
}

type BasicConfig struct {
	ServerAddress            string `json:"server_address"`
	Database                 string `json:"database"`
	CharacterCacheTTLSeconds int    `json:"character_cache_ttl_seconds"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	Params   string `json:"params"`
}

type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

// Failure policies for provider errors during a chat turn.
const (
	PolicyFallback = "fallback"
	PolicySurface  = "surface"
)

// LLMConfig holds the single provider used for every chat turn.
type LLMConfig struct {
	Provider       string `json:"provider"`
	BaseURL        string `json:"base_url"`
	Model          string `json:"model"`
	APIKey         string `json:"api_key"`
	MaxTokens      int    `json:"max_tokens"`
	TimeoutSeconds int    `json:"timeout_seconds"`
	FailurePolicy  string `json:"failure_policy"`
}

// HasCredential reports whether an API key is present.
func (c LLMConfig) HasCredential() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

// Timeout returns the per-call ceiling for provider requests.
func (c LLMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type AuthConfig struct {
	Secret           string `json:"secret"`
	AccessTTLMinutes int    `json:"access_ttl_minutes"`
	RefreshTTLHours  int    `json:"refresh_ttl_hours"`
	BcryptCost       int    `json:"bcrypt_cost"`
}

func (c AuthConfig) AccessTTL() time.Duration {
	return time.Duration(c.AccessTTLMinutes) * time.Minute
}

func (c AuthConfig) RefreshTTL() time.Duration {
	return time.Duration(c.RefreshTTLHours) * time.Hour
}

type ChatConfig struct {
	AllowAnonymous bool `json:"allow_anonymous"`
}

// Load reads configuration from the provided path (defaults to config.json).
// A missing default file is not an error; built-in defaults are used instead.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if path == "" {
		path = "config.json"
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	var cfg Config
	file, err := os.Open(absPath)
	switch {
	case err == nil:
		defer file.Close()
		if err := json.NewDecoder(file).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("decode config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("open config %s: %w", absPath, err)
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	for name, db := range cfg.Databases {
		if isSQLite(name) && db.DSN != "" && !isMemoryDSN(db.DSN) && !filepath.IsAbs(db.DSN) {
			db.DSN = filepath.Join(filepath.Dir(absPath), db.DSN)
			cfg.Databases[name] = db
		}
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := firstEnv("LLM_API_KEY", "OPENAI_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := firstEnv("LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := firstEnv("LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := firstEnv("JWT_SECRET"); v != "" {
		cfg.Auth.Secret = v
	}
	if v := firstEnv("GIGGLECHAT_DB"); v != "" {
		cfg.BasicConfig.Database = v
	}
	if v := firstEnv("GIGGLECHAT_ADDR"); v != "" {
		cfg.BasicConfig.ServerAddress = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.BasicConfig.ServerAddress == "" {
		cfg.BasicConfig.ServerAddress = ":8000"
	}
	if cfg.BasicConfig.Database == "" {
		cfg.BasicConfig.Database = "sqlite3"
	}
	if cfg.BasicConfig.CharacterCacheTTLSeconds <= 0 {
		cfg.BasicConfig.CharacterCacheTTLSeconds = 300
	}
	if cfg.Databases == nil {
		cfg.Databases = make(map[string]DatabaseConfig)
	}
	if _, ok := cfg.Databases["sqlite3"]; !ok {
		cfg.Databases["sqlite3"] = DatabaseConfig{DSN: "gigglechat.db"}
	}

	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "openai"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gpt-3.5-turbo"
	}
	if cfg.LLM.MaxTokens <= 0 {
		cfg.LLM.MaxTokens = 256
	}
	if cfg.LLM.TimeoutSeconds <= 0 {
		cfg.LLM.TimeoutSeconds = 30
	}
	cfg.LLM.FailurePolicy = strings.ToLower(strings.TrimSpace(cfg.LLM.FailurePolicy))
	if cfg.LLM.FailurePolicy == "" {
		cfg.LLM.FailurePolicy = PolicyFallback
	}

	if cfg.Auth.AccessTTLMinutes <= 0 {
		cfg.Auth.AccessTTLMinutes = 5
	}
	if cfg.Auth.RefreshTTLHours <= 0 {
		cfg.Auth.RefreshTTLHours = 24
	}
}

func (c *Config) validate() error {
	switch c.LLM.FailurePolicy {
	case PolicyFallback, PolicySurface:
	default:
		return fmt.Errorf("llm.failure_policy must be %q or %q, got %q", PolicyFallback, PolicySurface, c.LLM.FailurePolicy)
	}
	switch c.LLM.Provider {
	case "openai", "claude", "gemini":
	default:
		return fmt.Errorf("unknown llm provider: %s", c.LLM.Provider)
	}
	if _, ok := c.Databases[c.BasicConfig.Database]; !ok {
		return fmt.Errorf("database config for %s not found", c.BasicConfig.Database)
	}
	return nil
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	return ""
}

func isSQLite(name string) bool {
	name = strings.ToLower(name)
	return name == "sqlite" || name == "sqlite3"
}

func isMemoryDSN(dsn string) bool {
	return dsn == ":memory:" || strings.HasPrefix(dsn, "file:")
}
