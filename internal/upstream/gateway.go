package upstream

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jonathan/video-summarizer/internal/config"
	"github.com/jonathan/video-summarizer/internal/llm"
	"github.com/jonathan/video-summarizer/internal/prompts"
	"github.com/jonathan/video-summarizer/internal/types"
	"github.com/jonathan/video-summarizer/internal/videoid"
)

// MetadataProvider looks up a video by identifier.
type MetadataProvider interface {
	Videos(ctx context.Context, id videoid.VideoID) (*types.TranscriptResponse, error)
}

// Gateway proxies the two provider calls. It holds only long-lived clients
// built at startup and is safe for concurrent use.
type Gateway struct {
	metadata   MetadataProvider
	completion llm.Client
	timeout    time.Duration
	retry      RetryConfig
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithTimeout bounds every provider attempt. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(g *Gateway) {
		g.timeout = d
	}
}

// WithRetry replaces the retry policy.
func WithRetry(rc RetryConfig) Option {
	return func(g *Gateway) {
		g.retry = rc
	}
}

// New creates a gateway over the given providers.
func New(metadata MetadataProvider, completion llm.Client, opts ...Option) *Gateway {
	g := &Gateway{
		metadata:   metadata,
		completion: completion,
		timeout:    30 * time.Second,
		retry:      DefaultRetryConfig,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// NewFromConfig builds the providers selected by cfg. Call once per process.
func NewFromConfig(ctx context.Context, cfg *config.Config) (*Gateway, error) {
	if err := cfg.RequireCredentials(); err != nil {
		return nil, err
	}

	var metadata MetadataProvider
	switch cfg.MetadataProvider {
	case config.MetadataPage:
		metadata = NewPageProvider()
	default:
		yt, err := NewYouTubeProvider(ctx, cfg.YouTubeAPIKey, cfg.YouTubeEndpoint)
		if err != nil {
			return nil, err
		}
		metadata = yt
	}

	llmCfg := llm.ConfigFor(llm.Provider(cfg.Provider())).
		WithModel(cfg.LLMModel).
		WithBaseURL(cfg.LLMBaseURL).
		WithTimeout(cfg.Timeout())
	completion, err := llm.NewClient(ctx, llmCfg, cfg.CompletionAPIKey())
	if err != nil {
		return nil, fmt.Errorf("failed to create completion client: %w", err)
	}
	slog.Info("upstream gateway ready",
		slog.String("metadata_provider", cfg.MetadataProvider),
		slog.String("completion_provider", string(llmCfg.Provider)),
		slog.String("model", completion.Model()),
		slog.Duration("timeout", cfg.Timeout()),
		slog.Int("max_retries", cfg.Retries()))

	rc := DefaultRetryConfig
	rc.MaxRetries = cfg.Retries()

	return New(metadata, completion,
		WithTimeout(cfg.Timeout()),
		WithRetry(rc),
	), nil
}

// FetchVideo returns the provider payload for id. A payload without items
// is an upstream failure.
func (g *Gateway) FetchVideo(ctx context.Context, id videoid.VideoID) (*types.TranscriptResponse, error) {
	if id == "" {
		return nil, &Error{Service: ServiceMetadata, Cause: ErrEmptyVideoID}
	}

	resp, err := retryDo(ctx, g.retry, g.timeout, func(ctx context.Context) (*types.TranscriptResponse, error) {
		return g.metadata.Videos(ctx, id)
	})
	if err != nil {
		return nil, wrap(ServiceMetadata, err)
	}
	if resp == nil || len(resp.Items) == 0 {
		return nil, &Error{Service: ServiceMetadata, Cause: types.ErrNoItems}
	}
	return resp, nil
}

// FetchDescription returns the description of the first video item.
func (g *Gateway) FetchDescription(ctx context.Context, id videoid.VideoID) (string, error) {
	resp, err := g.FetchVideo(ctx, id)
	if err != nil {
		return "", err
	}
	desc, err := resp.Description()
	if err != nil {
		return "", wrap(ServiceMetadata, err)
	}
	return desc, nil
}

// FetchSummary asks the completion provider to summarize description
// following instruction.
func (g *Gateway) FetchSummary(ctx context.Context, description, instruction string) (string, error) {
	messages := SummaryMessages(description, instruction)

	text, err := retryDo(ctx, g.retry, g.timeout, func(ctx context.Context) (string, error) {
		return g.completion.Chat(ctx, messages)
	})
	if err != nil {
		return "", wrap(ServiceCompletion, err)
	}
	if strings.TrimSpace(text) == "" {
		return "", &Error{Service: ServiceCompletion, Cause: ErrEmptyCompletion}
	}
	return text, nil
}

// Close releases the completion client.
func (g *Gateway) Close() error {
	if g.completion != nil {
		return g.completion.Close()
	}
	return nil
}

// directive is the system message template; {{.Instruction}} is the caller text.
var directive = prompts.MustGet(prompts.Summary, "directive")

// SummaryMessages builds the two-message chat: the description as user
// content followed by the summarize directive.
func SummaryMessages(description, instruction string) []llm.Message {
	return []llm.Message{
		{Role: llm.RoleUser, Content: description},
		{Role: llm.RoleSystem, Content: prompts.Format(directive, map[string]string{"Instruction": instruction})},
	}
}
