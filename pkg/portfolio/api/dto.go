package api

import (
	"strings"
	"time"

	"github.com/tendant/portfolio-content/pkg/portfolio"
)

// TrackResponse is the response body for a track
type TrackResponse struct {
	ID          string                `json:"id"`
	Title       string                `json:"title"`
	Category    string                `json:"category"`
	Description string                `json:"description"`
	AudioURL    string                `json:"audio_url"`
	AudioOrigin portfolio.AssetOrigin `json:"audio_origin"`
	CoverURL    string                `json:"cover_url,omitempty"`
	CoverOrigin portfolio.AssetOrigin `json:"cover_origin,omitempty"`
	FileSize    string                `json:"file_size"`
	Published   bool                  `json:"published"`
	Featured    bool                  `json:"featured"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// VideoResponse is the response body for a video
type VideoResponse struct {
	ID              string                `json:"id"`
	Title           string                `json:"title"`
	VideoID         string                `json:"video_id,omitempty"`
	VideoFileURL    string                `json:"video_file_url,omitempty"`
	ThumbnailURL    string                `json:"thumbnail_url,omitempty"`
	ThumbnailOrigin portfolio.AssetOrigin `json:"thumbnail_origin,omitempty"`
	Category        string                `json:"category"`
	Description     string                `json:"description"`
	ViewCount       string                `json:"view_count"`
	Published       bool                  `json:"published"`
	Featured        bool                  `json:"featured"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// assetURL turns a ref into something a browser can fetch. Local keys are
// served under prefix; external refs are returned as stored.
func assetURL(prefix string, ref portfolio.AssetRef) string {
	switch {
	case ref.IsLocal():
		return strings.TrimRight(prefix, "/") + "/" + ref.Ref
	case ref.IsExternal():
		return ref.Ref
	}
	return ""
}

func (h *Handler) trackResponse(t *portfolio.Track) TrackResponse {
	return TrackResponse{
		ID:          t.ID.String(),
		Title:       t.Title,
		Category:    t.Category,
		Description: t.Description,
		AudioURL:    assetURL(h.publicPrefix, t.Audio),
		AudioOrigin: t.Audio.Origin,
		CoverURL:    assetURL(h.publicPrefix, t.Cover),
		CoverOrigin: t.Cover.Origin,
		FileSize:    t.FileSize,
		Published:   t.Published,
		Featured:    t.Featured,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func (h *Handler) videoResponse(v *portfolio.Video) VideoResponse {
	return VideoResponse{
		ID:              v.ID.String(),
		Title:           v.Title,
		VideoID:         v.VideoID,
		VideoFileURL:    assetURL(h.publicPrefix, v.VideoFile),
		ThumbnailURL:    assetURL(h.publicPrefix, v.Thumbnail),
		ThumbnailOrigin: v.Thumbnail.Origin,
		Category:        v.Category,
		Description:     v.Description,
		ViewCount:       v.ViewCount,
		Published:       v.Published,
		Featured:        v.Featured,
		CreatedAt:       v.CreatedAt,
		UpdatedAt:       v.UpdatedAt,
	}
}
