package upstream

import (
	"context"
	"net/http"

	"github.com/jonathan/video-summarizer/internal/fetch"
	"github.com/jonathan/video-summarizer/internal/types"
	"github.com/jonathan/video-summarizer/internal/videoid"
)

// PageProvider reads a video's title and description from the meta tags of
// its public watch page. It needs no API key; the page description may be
// shorter than the one served by the Data API.
type PageProvider struct {
	opts     *fetch.Options
	watchURL func(videoid.VideoID) string
}

// PageOption configures a PageProvider.
type PageOption func(*PageProvider)

// WithPageHTTPClient replaces the underlying *http.Client.
func WithPageHTTPClient(hc *http.Client) PageOption {
	return func(p *PageProvider) {
		p.opts.Client = hc
	}
}

// WithWatchURL replaces the function that maps an id to its page URL.
func WithWatchURL(fn func(videoid.VideoID) string) PageOption {
	return func(p *PageProvider) {
		p.watchURL = fn
	}
}

// NewPageProvider creates a watch-page provider.
func NewPageProvider(opts ...PageOption) *PageProvider {
	fo := fetch.DefaultOptions()
	fo.Headers = map[string]string{"Accept-Language": "en"}

	p := &PageProvider{
		opts:     fo,
		watchURL: videoid.WatchURL,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Videos fetches the watch page of id. A page without any video metadata
// yields a payload with no items.
func (p *PageProvider) Videos(ctx context.Context, id videoid.VideoID) (*types.TranscriptResponse, error) {
	doc, err := fetch.Document(ctx, p.watchURL(id), p.opts)
	if err != nil {
		return nil, err
	}

	out := &types.TranscriptResponse{Kind: "page#videoListResponse", Items: []types.VideoItem{}}

	title, _ := fetch.MetaContent(doc, `meta[property="og:title"]`, `meta[name="title"]`)
	desc, hasDesc := fetch.MetaContent(doc, `meta[property="og:description"]`, `meta[name="description"]`)
	if title == "" && !hasDesc {
		return out, nil
	}

	channel, _ := fetch.MetaContent(doc, `link[itemprop="name"]`, `meta[itemprop="author"]`)
	out.Items = append(out.Items, types.VideoItem{
		ID: string(id),
		Snippet: types.Snippet{
			Title:        title,
			Description:  desc,
			ChannelTitle: channel,
		},
	})
	out.PageInfo = &types.PageInfo{TotalResults: 1, ResultsPerPage: 1}
	return out, nil
}
