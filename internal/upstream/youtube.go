package upstream

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/jonathan/video-summarizer/internal/types"
	"github.com/jonathan/video-summarizer/internal/videoid"
)

// YouTubeProvider reads video snippets from the YouTube Data API v3.
type YouTubeProvider struct {
	svc *youtube.Service
}

// NewYouTubeProvider creates a provider authenticated by apiKey. A non-empty
// endpoint overrides the API base URL.
func NewYouTubeProvider(ctx context.Context, apiKey, endpoint string, opts ...option.ClientOption) (*YouTubeProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("YouTube API key is required")
	}

	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}

	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}
	return &YouTubeProvider{svc: svc}, nil
}

// Videos lists the snippet of id.
func (p *YouTubeProvider) Videos(ctx context.Context, id videoid.VideoID) (*types.TranscriptResponse, error) {
	resp, err := p.svc.Videos.List([]string{"snippet"}).Id(string(id)).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return fromYouTube(resp), nil
}

func fromYouTube(resp *youtube.VideoListResponse) *types.TranscriptResponse {
	out := &types.TranscriptResponse{
		Kind:  resp.Kind,
		Items: make([]types.VideoItem, 0, len(resp.Items)),
	}
	for _, v := range resp.Items {
		if v == nil {
			continue
		}
		item := types.VideoItem{ID: v.Id}
		if v.Snippet != nil {
			item.Snippet = types.Snippet{
				Title:        v.Snippet.Title,
				Description:  v.Snippet.Description,
				ChannelTitle: v.Snippet.ChannelTitle,
				PublishedAt:  v.Snippet.PublishedAt,
			}
		}
		out.Items = append(out.Items, item)
	}
	if resp.PageInfo != nil {
		out.PageInfo = &types.PageInfo{
			TotalResults:   resp.PageInfo.TotalResults,
			ResultsPerPage: resp.PageInfo.ResultsPerPage,
		}
	}
	return out
}
