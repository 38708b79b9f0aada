// Package client calls a running summarizer server. It implements the
// pipeline backend over POST /fetchTranscript and POST /fetchSummary.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jonathan/video-summarizer/internal/schemas"
	"github.com/jonathan/video-summarizer/internal/types"
	"github.com/jonathan/video-summarizer/internal/upstream"
	"github.com/jonathan/video-summarizer/internal/videoid"
)

// maxBodyBytes bounds how much of a response is read.
const maxBodyBytes = 4 << 20

// Client is a remote pipeline backend.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithHTTPClient replaces the underlying *http.Client entirely.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithToken sends token as a bearer credential on every call.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// New creates a client for the server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 90 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchDescription returns the description of the first video item.
func (c *Client) FetchDescription(ctx context.Context, id videoid.VideoID) (string, error) {
	if id == "" {
		return "", &upstream.Error{Service: upstream.ServiceMetadata, Cause: upstream.ErrEmptyVideoID}
	}

	body, err := c.post(ctx, "/fetchTranscript", types.TranscriptRequest{VideoID: string(id)}, schemas.TranscriptResponse)
	if err != nil {
		return "", &upstream.Error{Service: upstream.ServiceMetadata, StatusCode: statusOf(err), Cause: err}
	}

	var resp types.TranscriptResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", &upstream.Error{Service: upstream.ServiceMetadata, Cause: fmt.Errorf("failed to decode response: %w", err)}
	}
	desc, err := resp.Description()
	if err != nil {
		return "", &upstream.Error{Service: upstream.ServiceMetadata, Cause: err}
	}
	return desc, nil
}

// FetchSummary asks the server to summarize description following instruction.
func (c *Client) FetchSummary(ctx context.Context, description, instruction string) (string, error) {
	req := types.SummaryRequest{Transcript: description, Prompt: instruction}

	body, err := c.post(ctx, "/fetchSummary", req, schemas.SummaryResponse)
	if err != nil {
		return "", &upstream.Error{Service: upstream.ServiceCompletion, StatusCode: statusOf(err), Cause: err}
	}

	var summary string
	if err := json.Unmarshal(body, &summary); err != nil {
		return "", &upstream.Error{Service: upstream.ServiceCompletion, Cause: fmt.Errorf("failed to decode response: %w", err)}
	}
	return summary, nil
}

// post sends payload as JSON and returns the response body once it passes
// the named schema.
func (c *Client) post(ctx context.Context, path string, payload any, schema string) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ResponseError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := schemas.Validate(schema, body); err != nil {
		return nil, err
	}
	return body, nil
}

// ResponseError is a non-2xx answer from the server.
type ResponseError struct {
	StatusCode int
	Body       string
}

func (e *ResponseError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("server returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("server returned status %d: %s", e.StatusCode, e.Body)
}

func statusOf(err error) int {
	var rErr *ResponseError
	if errors.As(err, &rErr) {
		return rErr.StatusCode
	}
	return 0
}
