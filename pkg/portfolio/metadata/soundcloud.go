package metadata

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/tendant/portfolio-content/pkg/portfolio"
)

type oembedResponse struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// ResolveArtwork asks the oEmbed endpoint for the track's thumbnail and falls
// back to the og:image tag of the track page.
func (r *Resolver) ResolveArtwork(ctx context.Context, audioURL string) (string, error) {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("url", audioURL)

	var resp oembedResponse
	oembedErr := r.getJSON(ctx, r.oembedURL+"?"+q.Encode(), &resp)
	if oembedErr == nil {
		if thumb := strings.TrimSpace(resp.ThumbnailURL); thumb != "" {
			return thumb, nil
		}
	}

	image, err := r.pageImage(ctx, audioURL)
	if err == nil {
		return image, nil
	}
	r.logger.DebugContext(ctx, "Artwork fallback failed", "audio_url", audioURL, "error", err)

	if oembedErr != nil {
		return "", oembedErr
	}
	return "", err
}

// pageImage reads the og:image (or twitter:image) meta tag of a page
func (r *Resolver) pageImage(ctx context.Context, pageURL string) (string, error) {
	body, err := r.get(ctx, pageURL, "text/html")
	if err != nil {
		return "", err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: parse page: %v", portfolio.ErrExternalServiceUnavailable, err)
	}

	for _, sel := range []string{`meta[property="og:image"]`, `meta[name="twitter:image"]`} {
		if content, ok := doc.Find(sel).First().Attr("content"); ok {
			if content = strings.TrimSpace(content); content != "" {
				return absoluteURL(pageURL, content), nil
			}
		}
	}
	return "", fmt.Errorf("%w: no artwork on %s", portfolio.ErrExternalServiceNoResult, pageURL)
}

func absoluteURL(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	u, err := b.Parse(ref)
	if err != nil {
		return ref
	}
	return u.String()
}
