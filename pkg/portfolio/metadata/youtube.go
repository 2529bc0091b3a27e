package metadata

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/dustin/go-humanize"

	"github.com/tendant/portfolio-content/pkg/portfolio"
)

type youtubeThumbnail struct {
	URL string `json:"url"`
}

type youtubeVideosResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title       string                      `json:"title"`
			Description string                      `json:"description"`
			Thumbnails  map[string]youtubeThumbnail `json:"thumbnails"`
		} `json:"snippet"`
		Statistics struct {
			ViewCount string `json:"viewCount"`
		} `json:"statistics"`
	} `json:"items"`
}

// thumbnailPreference lists YouTube thumbnail sizes from largest to smallest
var thumbnailPreference = []string{"maxres", "standard", "high", "medium", "default"}

// ResolveVideo fetches title, description, thumbnail and view count for a video id.
func (r *Resolver) ResolveVideo(ctx context.Context, videoID string) (*portfolio.VideoMetadata, error) {
	if r.youtubeKey == "" {
		return nil, fmt.Errorf("%w: youtube api key is not configured", portfolio.ErrExternalServiceUnavailable)
	}

	q := url.Values{}
	q.Set("part", "snippet,statistics")
	q.Set("id", videoID)
	q.Set("key", r.youtubeKey)

	var resp youtubeVideosResponse
	if err := r.getJSON(ctx, r.youtubeURL+"/videos?"+q.Encode(), &resp); err != nil {
		return nil, err
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("%w: video %s", portfolio.ErrExternalServiceNoResult, videoID)
	}

	item := resp.Items[0]
	meta := &portfolio.VideoMetadata{
		VideoID:     videoID,
		Title:       item.Snippet.Title,
		Description: item.Snippet.Description,
		ViewCount:   formatViewCount(item.Statistics.ViewCount),
	}
	for _, size := range thumbnailPreference {
		if thumb, ok := item.Snippet.Thumbnails[size]; ok && thumb.URL != "" {
			meta.ThumbnailURL = thumb.URL
			break
		}
	}
	return meta, nil
}

// formatViewCount renders a raw count with thousands separators. Values that
// are not integers are returned unchanged.
func formatViewCount(raw string) string {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return raw
	}
	return humanize.Comma(n)
}
