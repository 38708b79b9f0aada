package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/video-summarizer/internal/config"
	"github.com/jonathan/video-summarizer/internal/types"
	"github.com/jonathan/video-summarizer/internal/upstream"
	"github.com/jonathan/video-summarizer/internal/videoid"
)

// fakeGateway answers with canned values and counts calls.
type fakeGateway struct {
	videoErr   error
	summaryErr error
	videoCalls atomic.Int32
	sumCalls   atomic.Int32
}

func (g *fakeGateway) FetchVideo(_ context.Context, id videoid.VideoID) (*types.TranscriptResponse, error) {
	g.videoCalls.Add(1)
	if g.videoErr != nil {
		return nil, g.videoErr
	}
	return &types.TranscriptResponse{
		Kind:  "youtube#videoListResponse",
		Items: []types.VideoItem{{ID: string(id), Snippet: types.Snippet{Title: "T", Description: "Hello world"}}},
	}, nil
}

func (g *fakeGateway) FetchDescription(ctx context.Context, id videoid.VideoID) (string, error) {
	resp, err := g.FetchVideo(ctx, id)
	if err != nil {
		return "", err
	}
	return resp.Description()
}

func (g *fakeGateway) FetchSummary(_ context.Context, description, instruction string) (string, error) {
	g.sumCalls.Add(1)
	if g.summaryErr != nil {
		return "", g.summaryErr
	}
	return "Brief summary", nil
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.RateLimitDisabled = true
	return &cfg
}

func newTestServer(t *testing.T, cfg *config.Config, gw Gateway) *Server {
	t.Helper()
	s, err := New(cfg, gw)
	require.NoError(t, err)
	t.Cleanup(s.rateLimiter.Stop)
	return s
}

func serve(s *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t, testConfig(), &fakeGateway{})

	w := serve(s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestHandleFetchTranscript(t *testing.T) {
	gw := &fakeGateway{}
	s := newTestServer(t, testConfig(), gw)

	w := serve(s, http.MethodPost, "/fetchTranscript", `{"videoId":"abc123"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp types.TranscriptResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "abc123", resp.Items[0].ID)
	assert.Equal(t, "Hello world", resp.Items[0].Snippet.Description)
}

func TestHandleFetchTranscript_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `videoId=abc123`},
		{"missing id", `{}`},
		{"empty id", `{"videoId":""}`},
		{"wrong type", `{"videoId":42}`},
		{"id too long", `{"videoId":"` + strings.Repeat("a", 65) + `"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &fakeGateway{}
			s := newTestServer(t, testConfig(), gw)

			w := serve(s, http.MethodPost, "/fetchTranscript", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
			assert.Zero(t, gw.videoCalls.Load())
		})
	}
}

func TestHandleFetchTranscript_UpstreamFailure(t *testing.T) {
	gw := &fakeGateway{videoErr: &upstream.Error{Service: upstream.ServiceMetadata, StatusCode: 403, Cause: errors.New("quotaExceeded")}}
	s := newTestServer(t, testConfig(), gw)

	w := serve(s, http.MethodPost, "/fetchTranscript", `{"videoId":"abc123"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Error fetching transcript", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
}

func TestHandleFetchSummary(t *testing.T) {
	gw := &fakeGateway{}
	s := newTestServer(t, testConfig(), gw)

	w := serve(s, http.MethodPost, "/fetchSummary", `{"transcript":"Hello world","prompt":"short"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var summary string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, "Brief summary", summary)
}

func TestHandleFetchSummary_EmptyTranscriptAllowed(t *testing.T) {
	s := newTestServer(t, testConfig(), &fakeGateway{})

	w := serve(s, http.MethodPost, "/fetchSummary", `{"transcript":"","prompt":"short"}`)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandleFetchSummary_Failures(t *testing.T) {
	gw := &fakeGateway{summaryErr: &upstream.Error{Service: upstream.ServiceCompletion, StatusCode: 401}}
	s := newTestServer(t, testConfig(), gw)

	w := serve(s, http.MethodPost, "/fetchSummary", `{"transcript":"Hello world","prompt":"short"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Error fetching summary", w.Body.String())

	w = serve(s, http.MethodPost, "/fetchSummary", `{"transcript":"Hello world"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, int32(1), gw.sumCalls.Load())
}

func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(t, testConfig(), &fakeGateway{})

	w := serve(s, http.MethodGet, "/fetchTranscript", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestWithCORS_Preflight(t *testing.T) {
	s := newTestServer(t, testConfig(), &fakeGateway{})

	w := serve(s, http.MethodOptions, "/fetchSummary", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestWithRateLimit(t *testing.T) {
	cfg := config.Default()
	cfg.RateLimitRPS = 0.001
	cfg.RateLimitBurst = 1
	s := newTestServer(t, &cfg, &fakeGateway{})

	w := serve(s, http.MethodPost, "/fetchTranscript", `{"videoId":"abc123"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))

	w = serve(s, http.MethodPost, "/fetchTranscript", `{"videoId":"abc123"}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "rate_limit_exceeded", body["error"])

	w = serve(s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuth(t *testing.T) {
	cfg := testConfig()
	cfg.JWTSecret = testSecret
	s := newTestServer(t, cfg, &fakeGateway{})

	w := serve(s, http.MethodPost, "/fetchTranscript", `{"videoId":"abc123"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	token, err := s.jwtService.GenerateToken("cli")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/fetchTranscript", strings.NewReader(`{"videoId":"abc123"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

// captureLogs routes the default slog logger into a buffer for the test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestUpstreamFailure_LogsSubject(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		subject string
	}{
		{"authenticated", testSecret, "subject=cli"},
		{"auth disabled", "", "subject=anonymous"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs := captureLogs(t)
			cfg := testConfig()
			cfg.JWTSecret = tt.secret
			s := newTestServer(t, cfg, &fakeGateway{videoErr: &upstream.Error{Service: upstream.ServiceMetadata, StatusCode: 503}})

			req := httptest.NewRequest(http.MethodPost, "/fetchTranscript", strings.NewReader(`{"videoId":"abc123"}`))
			if tt.secret != "" {
				token, err := s.jwtService.GenerateToken("cli")
				require.NoError(t, err)
				req.Header.Set("Authorization", "Bearer "+token)
			}
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, req)

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.Contains(t, logs.String(), "upstream call failed")
			assert.Contains(t, logs.String(), tt.subject)
		})
	}
}

// readEvents collects the event names and data lines of an SSE stream.
func readEvents(t *testing.T, resp *http.Response) ([]string, []string) {
	t.Helper()
	var names, data []string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			names = append(names, strings.TrimPrefix(line, "event: "))
		case strings.HasPrefix(line, "data: "):
			data = append(data, strings.TrimPrefix(line, "data: "))
		}
	}
	require.NoError(t, scanner.Err())
	return names, data
}

func postSummarize(t *testing.T, s *Server, body string) *http.Response {
	t.Helper()
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	resp, err := http.Post(srv.URL+"/summarize", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestHandleSummarize(t *testing.T) {
	s := newTestServer(t, testConfig(), &fakeGateway{})

	resp := postSummarize(t, s, `{"videoUrl":"https://www.youtube.com/watch?v=abc123","prompt":"short"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	names, data := readEvents(t, resp)
	require.NotEmpty(t, names)
	assert.Equal(t, "summary", names[len(names)-1])
	assert.Equal(t, 7, len(names), "six transitions plus the summary")

	var snap struct {
		State   string `json:"state"`
		Summary string `json:"summary"`
		VideoID string `json:"videoId"`
		Loading bool   `json:"loading"`
	}
	require.NoError(t, json.Unmarshal([]byte(data[len(data)-1]), &snap))
	assert.Equal(t, "summary_ready", snap.State)
	assert.Equal(t, "Brief summary", snap.Summary)
	assert.Equal(t, "abc123", snap.VideoID)
	assert.False(t, snap.Loading)
}

func TestHandleSummarize_InvalidURL(t *testing.T) {
	gw := &fakeGateway{}
	s := newTestServer(t, testConfig(), gw)

	resp := postSummarize(t, s, `{"videoUrl":"https://youtu.be/abc123","prompt":"short"}`)
	names, data := readEvents(t, resp)
	require.NotEmpty(t, names)
	assert.Equal(t, "error", names[len(names)-1])
	assert.JSONEq(t, `{"error":"Invalid video URL"}`, data[len(data)-1])
	assert.Zero(t, gw.videoCalls.Load())
}

func TestHandleSummarize_UpstreamFailure(t *testing.T) {
	gw := &fakeGateway{summaryErr: &upstream.Error{Service: upstream.ServiceCompletion, StatusCode: 503}}
	s := newTestServer(t, testConfig(), gw)

	resp := postSummarize(t, s, `{"videoUrl":"https://www.youtube.com/watch?v=abc123","prompt":"short"}`)
	names, data := readEvents(t, resp)
	assert.Equal(t, "error", names[len(names)-1])
	assert.JSONEq(t, `{"error":"Error fetching summary"}`, data[len(data)-1])
}

func TestHandleSummarize_BadBody(t *testing.T) {
	s := newTestServer(t, testConfig(), &fakeGateway{})

	w := serve(s, http.MethodPost, "/summarize", `{"prompt":"short"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStart_ShutsDownOnCancel(t *testing.T) {
	cfg := testConfig()
	cfg.Port = 0
	s := newTestServer(t, cfg, &fakeGateway{})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Start(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
