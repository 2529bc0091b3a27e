package api

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/tendant/portfolio-content/pkg/portfolio"
)

// defaultMaxUploadBytes caps write request bodies when no limit is configured
const defaultMaxUploadBytes = 200 << 20

// Config holds handler settings
type Config struct {
	// PublicPathPrefix is where local assets are served, e.g. "/uploads"
	PublicPathPrefix string
	MaxUploadBytes   int64
	Logger           *slog.Logger
}

// Handler serves tracks, videos and locally-owned assets over HTTP
type Handler struct {
	service        portfolio.Service
	publicPrefix   string
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewHandler creates a new handler
func NewHandler(service portfolio.Service, cfg Config) *Handler {
	h := &Handler{
		service:        service,
		publicPrefix:   cfg.PublicPathPrefix,
		maxUploadBytes: cfg.MaxUploadBytes,
		logger:         cfg.Logger,
	}
	if h.publicPrefix == "" {
		h.publicPrefix = "/uploads"
	}
	if h.maxUploadBytes <= 0 {
		h.maxUploadBytes = defaultMaxUploadBytes
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	return h
}

// Routes returns the API routes, to be mounted under /api/v1
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/tracks", func(r chi.Router) {
		r.Get("/", h.listTracks(portfolio.PublishedOnly))
		r.Post("/", h.CreateTrack)
		r.Get("/{id}", h.GetTrack)
		r.Put("/{id}", h.UpdateTrack)
		r.Delete("/{id}", h.DeleteTrack)
	})

	r.Route("/videos", func(r chi.Router) {
		r.Get("/", h.listVideos(portfolio.PublishedOnly))
		r.Post("/", h.CreateVideo)
		r.Get("/details/{videoID}", h.FetchVideoDetails)
		r.Get("/{id}", h.GetVideo)
		r.Put("/{id}", h.UpdateVideo)
		r.Delete("/{id}", h.DeleteVideo)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Get("/tracks", h.listTracks(portfolio.PublishedAll))
		r.Get("/videos", h.listVideos(portfolio.PublishedAll))
	})

	return r
}

// Mount registers the API, asset and health routes on r
func (h *Handler) Mount(r chi.Router) {
	r.Mount("/api/v1", h.Routes())
	r.Get(h.publicPrefix+"/*", h.ServeAsset)
	r.Get("/health", h.Health)
}

// Health reports liveness
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}

// Tracks

// CreateTrack creates a track from a multipart or urlencoded form
func (h *Handler) CreateTrack(w http.ResponseWriter, r *http.Request) {
	f, err := parseForm(w, r, h.maxUploadBytes)
	if err != nil {
		h.writeError(w, r, "Failed to parse track form", err)
		return
	}
	defer f.close()

	req := portfolio.CreateTrackRequest{
		Title:       f.str("title"),
		Category:    f.str("category"),
		Description: f.str("description"),
		FileSize:    f.str("fileSize"),
		AudioURL:    f.str("audioUrl"),
		CoverURL:    f.str("coverUrl"),
	}
	if req.Published, err = f.boolean("published"); err == nil {
		req.Featured, err = f.boolean("featured")
	}
	if err == nil {
		req.AudioUpload, err = f.file("audioFile")
	}
	if err == nil {
		req.CoverUpload, err = f.file("coverImage")
	}
	if err != nil {
		h.writeError(w, r, "Invalid track form", err)
		return
	}

	track, err := h.service.CreateTrack(r.Context(), req)
	if err != nil {
		h.writeError(w, r, "Failed to create track", err)
		return
	}

	h.logger.InfoContext(r.Context(), "Track created", "track_id", track.ID)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, h.trackResponse(track))
}

// GetTrack returns one track
func (h *Handler) GetTrack(w http.ResponseWriter, r *http.Request) {
	id, ok := h.recordID(w, r)
	if !ok {
		return
	}
	track, err := h.service.GetTrack(r.Context(), id)
	if err != nil {
		h.writeError(w, r, "Failed to get track", err)
		return
	}
	render.JSON(w, r, h.trackResponse(track))
}

// UpdateTrack applies a partial update. Fields left out of the form are kept.
func (h *Handler) UpdateTrack(w http.ResponseWriter, r *http.Request) {
	id, ok := h.recordID(w, r)
	if !ok {
		return
	}
	f, err := parseForm(w, r, h.maxUploadBytes)
	if err != nil {
		h.writeError(w, r, "Failed to parse track form", err)
		return
	}
	defer f.close()

	req := portfolio.UpdateTrackRequest{
		Title:       f.optional("title"),
		Category:    f.optional("category"),
		Description: f.optional("description"),
		FileSize:    f.optional("fileSize"),
	}
	if req.Published, err = f.flag("published"); err == nil {
		req.Featured, err = f.flag("featured")
	}
	if err == nil {
		req.Audio, err = f.change("audioFile", "audioUrl", "")
	}
	if err == nil {
		req.Cover, err = f.change("coverImage", "coverUrl", "removeCover")
	}
	if err != nil {
		h.writeError(w, r, "Invalid track form", err)
		return
	}

	track, err := h.service.UpdateTrack(r.Context(), id, req)
	if err != nil {
		h.writeError(w, r, "Failed to update track", err)
		return
	}
	render.JSON(w, r, h.trackResponse(track))
}

// DeleteTrack deletes a track and its local files
func (h *Handler) DeleteTrack(w http.ResponseWriter, r *http.Request) {
	id, ok := h.recordID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteTrack(r.Context(), id); err != nil {
		h.writeError(w, r, "Failed to delete track", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listTracks(def portfolio.PublishedFilter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := listFilter(r, def)
		if err != nil {
			h.writeError(w, r, "Invalid listing filter", err)
			return
		}
		tracks, err := h.service.ListTracks(r.Context(), filter)
		if err != nil {
			h.writeError(w, r, "Failed to list tracks", err)
			return
		}
		resp := make([]TrackResponse, 0, len(tracks))
		for _, t := range tracks {
			resp = append(resp, h.trackResponse(t))
		}
		render.JSON(w, r, resp)
	}
}

// Videos

// CreateVideo creates a video from a multipart or urlencoded form
func (h *Handler) CreateVideo(w http.ResponseWriter, r *http.Request) {
	f, err := parseForm(w, r, h.maxUploadBytes)
	if err != nil {
		h.writeError(w, r, "Failed to parse video form", err)
		return
	}
	defer f.close()

	req := portfolio.CreateVideoRequest{
		Title:        f.str("title"),
		VideoID:      f.str("videoId"),
		Category:     f.str("category"),
		Description:  f.str("description"),
		ViewCount:    f.str("viewCount"),
		ThumbnailURL: f.str("thumbnailUrl"),
	}
	if req.Published, err = f.boolean("published"); err == nil {
		req.Featured, err = f.boolean("featured")
	}
	if err == nil {
		req.VideoUpload, err = f.file("videoFile")
	}
	if err == nil {
		req.ThumbnailUpload, err = f.file("thumbnailFile")
	}
	if err != nil {
		h.writeError(w, r, "Invalid video form", err)
		return
	}

	video, err := h.service.CreateVideo(r.Context(), req)
	if err != nil {
		h.writeError(w, r, "Failed to create video", err)
		return
	}

	h.logger.InfoContext(r.Context(), "Video created", "video_id", video.ID)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, h.videoResponse(video))
}

// GetVideo returns one video
func (h *Handler) GetVideo(w http.ResponseWriter, r *http.Request) {
	id, ok := h.recordID(w, r)
	if !ok {
		return
	}
	video, err := h.service.GetVideo(r.Context(), id)
	if err != nil {
		h.writeError(w, r, "Failed to get video", err)
		return
	}
	render.JSON(w, r, h.videoResponse(video))
}

// UpdateVideo applies a partial update
func (h *Handler) UpdateVideo(w http.ResponseWriter, r *http.Request) {
	id, ok := h.recordID(w, r)
	if !ok {
		return
	}
	f, err := parseForm(w, r, h.maxUploadBytes)
	if err != nil {
		h.writeError(w, r, "Failed to parse video form", err)
		return
	}
	defer f.close()

	req := portfolio.UpdateVideoRequest{
		Title:       f.optional("title"),
		Category:    f.optional("category"),
		Description: f.optional("description"),
		ViewCount:   f.optional("viewCount"),
		VideoID:     f.optional("videoId"),
	}
	if req.Published, err = f.flag("published"); err == nil {
		req.Featured, err = f.flag("featured")
	}
	if err == nil {
		req.VideoFile, err = f.change("videoFile", "", "removeVideoFile")
	}
	if err == nil {
		req.Thumbnail, err = f.change("thumbnailFile", "thumbnailUrl", "removeThumbnail")
	}
	if err != nil {
		h.writeError(w, r, "Invalid video form", err)
		return
	}

	video, err := h.service.UpdateVideo(r.Context(), id, req)
	if err != nil {
		h.writeError(w, r, "Failed to update video", err)
		return
	}
	render.JSON(w, r, h.videoResponse(video))
}

// DeleteVideo deletes a video and its local files
func (h *Handler) DeleteVideo(w http.ResponseWriter, r *http.Request) {
	id, ok := h.recordID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteVideo(r.Context(), id); err != nil {
		h.writeError(w, r, "Failed to delete video", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listVideos(def portfolio.PublishedFilter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := listFilter(r, def)
		if err != nil {
			h.writeError(w, r, "Invalid listing filter", err)
			return
		}
		videos, err := h.service.ListVideos(r.Context(), filter)
		if err != nil {
			h.writeError(w, r, "Failed to list videos", err)
			return
		}
		resp := make([]VideoResponse, 0, len(videos))
		for _, v := range videos {
			resp = append(resp, h.videoResponse(v))
		}
		render.JSON(w, r, resp)
	}
}

// FetchVideoDetails looks up platform metadata for a video id
func (h *Handler) FetchVideoDetails(w http.ResponseWriter, r *http.Request) {
	meta, err := h.service.FetchVideoDetails(r.Context(), chi.URLParam(r, "videoID"))
	if err != nil {
		h.writeError(w, r, "Failed to fetch video details", err)
		return
	}
	render.JSON(w, r, meta)
}

// Assets

// ServeAsset streams a locally-owned blob
func (h *Handler) ServeAsset(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	reader, meta, err := h.service.OpenAsset(r.Context(), key)
	if err != nil {
		h.writeError(w, r, "Failed to open asset", err)
		return
	}
	defer reader.Close()

	if meta.ContentType != "" {
		w.Header().Set("Content-Type", meta.ContentType)
	}

	// Seekable readers get Range and conditional request support
	if rs, ok := reader.(io.ReadSeeker); ok {
		http.ServeContent(w, r, path.Base(key), meta.UpdatedAt, rs)
		return
	}

	if meta.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(meta.Size, 10))
	}
	if !meta.UpdatedAt.IsZero() {
		w.Header().Set("Last-Modified", meta.UpdatedAt.UTC().Format(http.TimeFormat))
	}
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, reader); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to stream asset", "key", key, "error", err)
	}
}

// Helpers

func (h *Handler) recordID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		h.writeError(w, r, "Invalid record ID", fmt.Errorf("%w: invalid id %q", portfolio.ErrInvalidInput, raw))
		return uuid.Nil, false
	}
	return id, true
}

func listFilter(r *http.Request, def portfolio.PublishedFilter) (portfolio.ListFilter, error) {
	q := r.URL.Query()
	published, err := portfolio.ParsePublishedFilter(q.Get("published"), def)
	if err != nil {
		return portfolio.ListFilter{}, err
	}
	featured, err := portfolio.ParseFeaturedFilter(q.Get("featured"))
	if err != nil {
		return portfolio.ListFilter{}, err
	}
	return portfolio.ListFilter{Published: published, Featured: featured}, nil
}
