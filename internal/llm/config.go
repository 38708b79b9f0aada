// Package llm provides chat completion clients for the summary stage.
// Providers are selected by configuration; all of them accept an ordered
// list of role-tagged messages and return the first candidate's text.
package llm

import "time"

// Provider represents an LLM provider
type Provider string

// Provider constants define supported LLM providers
const (
	// ProviderGemini is the Google Gemini provider
	ProviderGemini Provider = "gemini"
	// ProviderOpenAI is any OpenAI-compatible chat completions endpoint
	ProviderOpenAI Provider = "openai"
)

// Role tags a chat message.
type Role string

// Chat roles.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of a chat request.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Config holds the model configuration for the application
type Config struct {
	Provider    Provider
	Model       string
	BaseURL     string // only used by ProviderOpenAI
	Temperature float32
	// Timeout bounds one HTTP exchange with ProviderOpenAI. Zero leaves the
	// bound to the request context.
	Timeout time.Duration
}

// DefaultConfig returns the default configuration (currently Gemini)
func DefaultConfig() *Config {
	return DefaultGeminiConfig()
}

// DefaultGeminiConfig returns the default Gemini configuration
func DefaultGeminiConfig() *Config {
	return &Config{
		Provider:    ProviderGemini,
		Model:       "gemini-2.5-flash",
		Temperature: 0.3,
	}
}

// DefaultOpenAIConfig returns the default OpenAI configuration
func DefaultOpenAIConfig() *Config {
	return &Config{
		Provider:    ProviderOpenAI,
		Model:       "gpt-3.5-turbo",
		BaseURL:     "https://api.openai.com/v1",
		Temperature: 0.3,
	}
}

// ConfigFor returns the default configuration of a provider. Unknown
// providers fall back to Gemini.
func ConfigFor(p Provider) *Config {
	if p == ProviderOpenAI {
		return DefaultOpenAIConfig()
	}
	return DefaultGeminiConfig()
}

// WithModel returns a new Config with a specific model. An empty model
// leaves the current one in place.
func (c *Config) WithModel(model string) *Config {
	newConfig := *c
	if model != "" {
		newConfig.Model = model
	}
	return &newConfig
}

// WithBaseURL returns a new Config with a specific endpoint base. An empty
// URL leaves the current one in place.
func (c *Config) WithBaseURL(baseURL string) *Config {
	newConfig := *c
	if baseURL != "" {
		newConfig.BaseURL = baseURL
	}
	return &newConfig
}

// WithTimeout returns a new Config with a specific HTTP timeout.
func (c *Config) WithTimeout(d time.Duration) *Config {
	newConfig := *c
	newConfig.Timeout = d
	return &newConfig
}
