package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// ErrNoUserMessage is returned when a chat request has nothing to send.
var ErrNoUserMessage = errors.New("chat request has no user message")

// Client is an abstraction over LLM providers
type Client interface {
	// Chat sends the messages in order and returns the first completion's text
	Chat(ctx context.Context, messages []Message) (string, error)
	// Model returns the provider model name in use
	Model() string
	// Close releases any resources held by the client
	Close() error
}

// NewClient creates a new LLM client based on configuration
func NewClient(ctx context.Context, config *Config, apiKey string) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Provider {
	case ProviderOpenAI:
		return NewOpenAIClient(config, apiKey, WithHTTPClient(&http.Client{Timeout: config.Timeout}))
	default:
		return NewGeminiClient(ctx, config, apiKey)
	}
}

// GeminiClient implements Client for Google Gemini
type GeminiClient struct {
	client *genai.Client
	config *Config
}

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(ctx context.Context, config *Config, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client: client,
		config: config,
	}, nil
}

// Chat maps system messages to the system instruction, earlier turns to chat
// history and sends the final user turn.
func (c *GeminiClient) Chat(ctx context.Context, messages []Message) (string, error) {
	if c.config.Model == "" {
		return "", fmt.Errorf("no model configured")
	}

	system, history, last, err := toGeminiContents(messages)
	if err != nil {
		return "", err
	}

	model := c.client.GenerativeModel(c.config.Model)
	model.SetTemperature(c.config.Temperature)
	model.SystemInstruction = system

	session := model.StartChat()
	session.History = history

	resp, err := session.SendMessage(ctx, last)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	return extractTextFromResponse(resp)
}

// Model returns the configured model name
func (c *GeminiClient) Model() string {
	return c.config.Model
}

// Close releases resources held by the client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// toGeminiContents splits a chat into Gemini's system instruction, history
// and the final user part. Empty messages are dropped. When no user turn is
// left to send, the system directive itself becomes the final user part.
func toGeminiContents(messages []Message) (*genai.Content, []*genai.Content, genai.Part, error) {
	var systemTexts []string
	var turns []*genai.Content

	for _, m := range messages {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		switch m.Role {
		case RoleSystem:
			systemTexts = append(systemTexts, m.Content)
		case RoleAssistant:
			turns = append(turns, &genai.Content{Role: "model", Parts: []genai.Part{genai.Text(m.Content)}})
		default:
			turns = append(turns, &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(m.Content)}})
		}
	}

	if len(turns) == 0 || turns[len(turns)-1].Role != "user" {
		if len(systemTexts) == 0 {
			return nil, nil, nil, ErrNoUserMessage
		}
		return nil, turns, genai.Text(strings.Join(systemTexts, "\n")), nil
	}

	var system *genai.Content
	if len(systemTexts) > 0 {
		parts := make([]genai.Part, len(systemTexts))
		for i, text := range systemTexts {
			parts[i] = genai.Text(text)
		}
		system = &genai.Content{Parts: parts}
	}

	last := turns[len(turns)-1]
	return system, turns[:len(turns)-1], last.Parts[0], nil
}

// extractTextFromResponse extracts text from Gemini API response
func extractTextFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}

	if len(parts) == 0 {
		return "", fmt.Errorf("no text parts in response")
	}

	return strings.Join(parts, ""), nil
}
