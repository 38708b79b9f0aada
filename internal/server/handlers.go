package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/video-summarizer/internal/pipeline"
	"github.com/jonathan/video-summarizer/internal/schemas"
	"github.com/jonathan/video-summarizer/internal/server/middleware"
	"github.com/jonathan/video-summarizer/internal/types"
	"github.com/jonathan/video-summarizer/internal/upstream"
	"github.com/jonathan/video-summarizer/internal/videoid"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// validatable is a request body with struct-level validation.
type validatable interface {
	Validate() error
}

// handleFetchTranscript returns the metadata provider payload for a video.
func (s *Server) handleFetchTranscript(w http.ResponseWriter, r *http.Request) {
	var req types.TranscriptRequest
	if err := decodeRequest(w, r, schemas.TranscriptRequest, &req); err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	resp, err := s.gateway.FetchVideo(r.Context(), videoid.VideoID(req.VideoID))
	if err != nil {
		s.upstreamFailure(w, r, err, pipeline.MsgTranscript)
		return
	}

	s.jsonResponse(w, http.StatusOK, resp)
}

// handleFetchSummary returns the completion text as a JSON string.
func (s *Server) handleFetchSummary(w http.ResponseWriter, r *http.Request) {
	var req types.SummaryRequest
	if err := decodeRequest(w, r, schemas.SummaryRequest, &req); err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	summary, err := s.gateway.FetchSummary(r.Context(), req.Transcript, req.Prompt)
	if err != nil {
		s.upstreamFailure(w, r, err, pipeline.MsgSummary)
		return
	}

	s.jsonResponse(w, http.StatusOK, summary)
}

// handleSummarize runs the whole pipeline and streams its transitions.
func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	var req types.SummarizeRequest
	if err := decodeRequest(w, r, schemas.SummarizeRequest, &req); err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer sse.Close()

	ctrl := pipeline.NewController(s.gateway, pipeline.WithObserver(func(ev pipeline.Event) {
		if err := sse.WriteEvent("state", ev); err != nil {
			slog.Debug("failed to write state event", slog.Any("error", err))
		}
	}))
	defer ctrl.Close()

	runID := ctrl.Submit(r.Context(), pipeline.Request{VideoURL: req.VideoURL, Instruction: req.Prompt})
	snap, err := ctrl.Wait(r.Context())
	if err != nil {
		slog.Info("summarize stream closed by client", slog.String("run_id", runID))
		return
	}

	if snap.State != pipeline.SummaryReady {
		slog.Error("summarize run failed",
			slog.String("run_id", runID),
			subjectAttr(r),
			slog.String("state", snap.State.String()),
			slog.Any("error", snap.Err))
		sse.WriteError(snap.ErrorMessage)
		return
	}
	if err := sse.WriteEvent("summary", snap); err != nil {
		slog.Debug("failed to write summary event", slog.Any("error", err))
	}
}

// upstreamFailure logs the structured cause and replies with the fixed
// user-facing message.
func (s *Server) upstreamFailure(w http.ResponseWriter, r *http.Request, err error, message string) {
	attrs := []any{
		slog.String("path", r.URL.Path),
		subjectAttr(r),
		slog.Any("error", err),
	}
	var upErr *upstream.Error
	if errors.As(err, &upErr) {
		attrs = append(attrs,
			slog.String("service", upErr.Service),
			slog.Int("upstream_status", upErr.StatusCode))
	}
	slog.Error("upstream call failed", attrs...)

	s.textResponse(w, http.StatusInternalServerError, message)
}

// subjectAttr names the authenticated caller, or "anonymous" when auth is off.
func subjectAttr(r *http.Request) slog.Attr {
	subject, err := middleware.GetSubject(r)
	if err != nil {
		subject = "anonymous"
	}
	return slog.String("subject", subject)
}

// decodeRequest reads the body, checks it against schema, and decodes and
// validates it into dst.
func decodeRequest(w http.ResponseWriter, r *http.Request, schema string, dst validatable) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return err
	}

	if err := schemas.Validate(schema, body); err != nil {
		return err
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return &ErrValidation{Message: "invalid JSON body"}
	}

	if err := dst.Validate(); err != nil {
		var ves validator.ValidationErrors
		if errors.As(err, &ves) && len(ves) > 0 {
			return &ErrValidation{Field: ves[0].Field(), Message: "failed " + ves[0].Tag() + " check"}
		}
		return &ErrValidation{Message: err.Error()}
	}
	return nil
}
