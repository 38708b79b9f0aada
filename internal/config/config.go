// Package config holds the process-wide summarizer configuration. It is
// built once at startup from defaults, an optional JSON file and the
// environment, and is read-only afterwards.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
)

// Metadata and completion provider names.
const (
	MetadataYouTube = "youtube"
	MetadataPage    = "page"

	LLMGemini = "gemini"
	LLMOpenAI = "openai"
)

// Config represents the service configuration. Every field can come from a
// JSON file; environment variables override the file.
type Config struct {
	Port int `json:"port,omitempty" validate:"min=0,max=65535"`

	// Metadata provider
	MetadataProvider string `json:"metadata_provider,omitempty" validate:"omitempty,oneof=youtube page"`
	YouTubeAPIKey    string `json:"youtube_api_key,omitempty"`
	YouTubeEndpoint  string `json:"youtube_endpoint,omitempty" validate:"omitempty,url"`

	// Completion provider
	LLMProvider  string `json:"llm_provider,omitempty" validate:"omitempty,oneof=gemini openai"`
	GeminiAPIKey string `json:"gemini_api_key,omitempty"`
	OpenAIAPIKey string `json:"openai_api_key,omitempty"`
	LLMModel     string `json:"llm_model,omitempty"`
	LLMBaseURL   string `json:"llm_base_url,omitempty" validate:"omitempty,url"`

	// Upstream call policy. Nil means unset; an explicit 0 disables the
	// per-attempt timeout or retries.
	UpstreamTimeout *Duration `json:"upstream_timeout,omitempty" validate:"omitempty,min=0"`
	MaxRetries      *int      `json:"max_retries,omitempty" validate:"omitempty,min=0,max=10"`

	// Inbound rate limiting, per client IP
	RateLimitDisabled bool    `json:"rate_limit_disabled,omitempty"`
	RateLimitRPS      float64 `json:"rate_limit_rps,omitempty" validate:"min=0"`
	RateLimitBurst    int     `json:"rate_limit_burst,omitempty" validate:"min=0"`

	// Optional bearer authentication; disabled when the secret is empty
	JWTSecret          string `json:"jwt_secret,omitempty"`
	JWTExpirationHours int    `json:"jwt_expiration_hours,omitempty" validate:"min=0"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Port:               3000,
		MetadataProvider:   MetadataYouTube,
		UpstreamTimeout:    durationPtr(30 * time.Second),
		MaxRetries:         intPtr(2),
		RateLimitRPS:       5,
		RateLimitBurst:     10,
		JWTExpirationHours: 24,
	}
}

// Load builds the configuration: defaults, then the JSON file at path (if
// any), then environment variables. The result is validated.
func Load(path string) (*Config, error) {
	base := Default()

	if path != "" {
		fileCfg, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		base = fileCfg.MergeWithDefaults(base)
	}

	cfg := FromEnv().MergeWithDefaults(base)
	cfg.LLMProvider = cfg.Provider()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// FromEnv reads the configuration from environment variables only. Unset
// variables leave their fields zero so they can be merged with defaults.
func FromEnv() Config {
	return Config{
		Port:               getEnvInt("PORT", 0),
		MetadataProvider:   getEnvString("METADATA_PROVIDER", ""),
		YouTubeAPIKey:      getEnvString("YOUTUBE_API_KEY", ""),
		YouTubeEndpoint:    getEnvString("YOUTUBE_API_ENDPOINT", ""),
		LLMProvider:        getEnvString("LLM_PROVIDER", ""),
		GeminiAPIKey:       getEnvString("GEMINI_API_KEY", ""),
		OpenAIAPIKey:       getEnvString("OPENAI_API_KEY", ""),
		LLMModel:           getEnvString("LLM_MODEL", ""),
		LLMBaseURL:         getEnvString("LLM_BASE_URL", ""),
		UpstreamTimeout:    lookupEnvDuration("UPSTREAM_TIMEOUT"),
		MaxRetries:         lookupEnvInt("UPSTREAM_MAX_RETRIES"),
		RateLimitDisabled:  !getEnvBool("RATE_LIMIT_ENABLED", true),
		RateLimitRPS:       getEnvFloat("RATE_LIMIT_RPS", 0),
		RateLimitBurst:     getEnvInt("RATE_LIMIT_BURST", 0),
		JWTSecret:          getEnvString("JWT_SECRET", ""),
		JWTExpirationHours: getEnvInt("JWT_EXPIRATION_HOURS", 0),
	}
}

// Validate checks that the configuration has valid values.
// Credentials are checked separately by RequireCredentials, since a pure
// HTTP client needs none.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	return nil
}

// RequireCredentials checks that the selected providers have API keys.
func (c *Config) RequireCredentials() error {
	if c.MetadataProvider == MetadataYouTube && c.YouTubeAPIKey == "" {
		return fmt.Errorf("config error: YOUTUBE_API_KEY is required for the %s metadata provider", MetadataYouTube)
	}
	if c.CompletionAPIKey() == "" {
		return fmt.Errorf("config error: an API key is required for the %s completion provider", c.Provider())
	}
	return nil
}

// Provider returns the configured completion provider or, when none
// is set, the one whose API key is present. Gemini wins when both or neither
// key is set.
func (c *Config) Provider() string {
	if c.LLMProvider != "" {
		return c.LLMProvider
	}
	if c.GeminiAPIKey == "" && c.OpenAIAPIKey != "" {
		return LLMOpenAI
	}
	return LLMGemini
}

// Timeout returns the per-attempt upstream timeout. Zero means unbounded.
func (c *Config) Timeout() time.Duration {
	if c.UpstreamTimeout == nil {
		return 0
	}
	return c.UpstreamTimeout.Std()
}

// Retries returns the number of retries after a failed upstream attempt.
func (c *Config) Retries() int {
	if c.MaxRetries == nil {
		return 0
	}
	return *c.MaxRetries
}

// CompletionAPIKey returns the API key of the selected completion provider.
func (c *Config) CompletionAPIKey() string {
	switch c.Provider() {
	case LLMOpenAI:
		return c.OpenAIAPIKey
	default:
		return c.GeminiAPIKey
	}
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
func (c Config) MergeWithDefaults(defaults Config) Config {
	result := c

	// String fields: use default if empty
	if result.MetadataProvider == "" {
		result.MetadataProvider = defaults.MetadataProvider
	}
	if result.YouTubeAPIKey == "" {
		result.YouTubeAPIKey = defaults.YouTubeAPIKey
	}
	if result.YouTubeEndpoint == "" {
		result.YouTubeEndpoint = defaults.YouTubeEndpoint
	}
	if result.LLMProvider == "" {
		result.LLMProvider = defaults.LLMProvider
	}
	if result.GeminiAPIKey == "" {
		result.GeminiAPIKey = defaults.GeminiAPIKey
	}
	if result.OpenAIAPIKey == "" {
		result.OpenAIAPIKey = defaults.OpenAIAPIKey
	}
	if result.LLMModel == "" {
		result.LLMModel = defaults.LLMModel
	}
	if result.LLMBaseURL == "" {
		result.LLMBaseURL = defaults.LLMBaseURL
	}
	if result.JWTSecret == "" {
		result.JWTSecret = defaults.JWTSecret
	}

	// Numeric fields: use default if zero, or nil for the upstream policy
	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.UpstreamTimeout == nil {
		result.UpstreamTimeout = defaults.UpstreamTimeout
	}
	if result.MaxRetries == nil {
		result.MaxRetries = defaults.MaxRetries
	}
	if result.RateLimitRPS == 0 {
		result.RateLimitRPS = defaults.RateLimitRPS
	}
	if result.RateLimitBurst == 0 {
		result.RateLimitBurst = defaults.RateLimitBurst
	}
	if result.JWTExpirationHours == 0 {
		result.JWTExpirationHours = defaults.JWTExpirationHours
	}

	// Disabling is sticky: either layer can turn the limiter off
	result.RateLimitDisabled = result.RateLimitDisabled || defaults.RateLimitDisabled

	return result
}
