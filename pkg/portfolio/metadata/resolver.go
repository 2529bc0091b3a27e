// Package metadata resolves third-party metadata for external media: cover
// artwork for SoundCloud tracks and video details from the YouTube Data API.
package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tendant/portfolio-content/pkg/portfolio"
)

const (
	DefaultSoundCloudOEmbedURL = "https://soundcloud.com/oembed"
	DefaultYouTubeAPIURL       = "https://www.googleapis.com/youtube/v3"

	// maxBodyBytes caps how much of a third-party response is read
	maxBodyBytes = 2 << 20
)

// Config holds resolver settings
type Config struct {
	SoundCloudOEmbedURL string
	YouTubeAPIURL       string
	YouTubeAPIKey       string
	Timeout             time.Duration

	// HTTPClient overrides the default bounded client
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Resolver implements portfolio.MetadataResolver over HTTP
type Resolver struct {
	oembedURL  string
	youtubeURL string
	youtubeKey string
	timeout    time.Duration
	client     *http.Client
	logger     *slog.Logger
}

// New creates a resolver. A missing YouTube key is not an error here; every
// ResolveVideo call reports the service as unavailable instead.
func New(cfg Config) *Resolver {
	r := &Resolver{
		oembedURL:  strings.TrimRight(cfg.SoundCloudOEmbedURL, "/"),
		youtubeURL: strings.TrimRight(cfg.YouTubeAPIURL, "/"),
		youtubeKey: strings.TrimSpace(cfg.YouTubeAPIKey),
		timeout:    cfg.Timeout,
		client:     cfg.HTTPClient,
		logger:     cfg.Logger,
	}
	if r.oembedURL == "" {
		r.oembedURL = DefaultSoundCloudOEmbedURL
	}
	if r.youtubeURL == "" {
		r.youtubeURL = DefaultYouTubeAPIURL
	}
	if r.timeout <= 0 {
		r.timeout = defaultTimeout
	}
	if r.client == nil {
		r.client = NewHTTPClient(r.timeout)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// HasYouTubeKey reports whether video lookups are configured
func (r *Resolver) HasYouTubeKey() bool {
	return r.youtubeKey != ""
}

// get performs a bounded GET and returns the body of a 200 response.
func (r *Resolver) get(ctx context.Context, rawURL, accept string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", portfolio.ErrExternalServiceUnavailable, err)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", portfolio.ErrExternalServiceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", portfolio.ErrExternalServiceUnavailable, err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s returned 404", portfolio.ErrExternalServiceNoResult, req.URL.Host)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned status %d", portfolio.ErrExternalServiceUnavailable, req.URL.Host, resp.StatusCode)
	}
	return body, nil
}

func (r *Resolver) getJSON(ctx context.Context, rawURL string, v interface{}) error {
	body, err := r.get(ctx, rawURL, "application/json")
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: decode response: %v", portfolio.ErrExternalServiceUnavailable, err)
	}
	return nil
}

var _ portfolio.MetadataResolver = (*Resolver)(nil)
