// Package types provides the request and response payloads exchanged at the
// summarizer's HTTP boundary.
package types

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// ErrNoItems is returned when a metadata payload carries no video items.
var ErrNoItems = errors.New("metadata response contains no items")

var validate = validator.New()

// TranscriptRequest is the body of POST /fetchTranscript.
// The endpoint name is historical: only the video description is fetched.
type TranscriptRequest struct {
	VideoID string `json:"videoId" validate:"required,max=64"`
}

// TranscriptResponse mirrors the metadata provider's video list payload.
type TranscriptResponse struct {
	Kind     string      `json:"kind,omitempty"`
	Items    []VideoItem `json:"items"`
	PageInfo *PageInfo   `json:"pageInfo,omitempty"`
}

// VideoItem is one video returned by the metadata provider.
type VideoItem struct {
	ID      string  `json:"id,omitempty"`
	Snippet Snippet `json:"snippet"`
}

// Snippet holds the descriptive fields of a video.
type Snippet struct {
	Title        string `json:"title,omitempty"`
	Description  string `json:"description"`
	ChannelTitle string `json:"channelTitle,omitempty"`
	PublishedAt  string `json:"publishedAt,omitempty"`
}

// PageInfo is the provider's paging block, passed through untouched.
type PageInfo struct {
	TotalResults   int64 `json:"totalResults"`
	ResultsPerPage int64 `json:"resultsPerPage"`
}

// Description returns the description of the first item.
func (r *TranscriptResponse) Description() (string, error) {
	if r == nil || len(r.Items) == 0 {
		return "", ErrNoItems
	}
	return r.Items[0].Snippet.Description, nil
}

// SummaryRequest is the body of POST /fetchSummary.
// Transcript carries the video description and may be empty.
type SummaryRequest struct {
	Transcript string `json:"transcript" validate:"max=50000"`
	Prompt     string `json:"prompt" validate:"max=2000"`
}

// SummarizeRequest is the body of POST /summarize, which runs the whole
// pipeline server-side and streams its progress.
type SummarizeRequest struct {
	VideoURL string `json:"videoUrl" validate:"required,max=2048"`
	Prompt   string `json:"prompt" validate:"max=2000"`
}

// Validate validates the TranscriptRequest using the validator.
func (r *TranscriptRequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the SummaryRequest using the validator.
func (r *SummaryRequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the SummarizeRequest using the validator.
func (r *SummarizeRequest) Validate() error {
	return validate.Struct(r)
}
