package metadata

import (
	"errors"
	"net/http"
	"time"
)

const (
	defaultTimeout   = 5 * time.Second
	defaultRetryMax  = 1
	defaultUserAgent = "portfolio-content/1.0 (+metadata)"
)

// Transport adds a User-Agent and a bounded retry to idempotent requests.
// Transport errors and 5xx responses are retried.
type Transport struct {
	Base http.RoundTripper

	// RetryMax is the number of retries after the first attempt
	RetryMax int

	UserAgent string
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	// Only GET/HEAD without a body can be replayed
	canRetry := (req.Method == http.MethodGet || req.Method == http.MethodHead) && req.Body == nil
	max := t.RetryMax
	if max < 0 || !canRetry {
		max = 0
	}

	var lastErr error
	for attempt := 0; attempt <= max; attempt++ {
		r := req.Clone(req.Context())
		if r.Header.Get("User-Agent") == "" && t.UserAgent != "" {
			r.Header.Set("User-Agent", t.UserAgent)
		}

		resp, err := base.RoundTrip(r)
		if err == nil {
			// The last 5xx is handed back so the caller can classify it
			if resp.StatusCode < http.StatusInternalServerError || attempt == max {
				return resp, nil
			}
			resp.Body.Close()
			continue
		}
		lastErr = err
		if req.Context().Err() != nil {
			return nil, lastErr
		}
	}
	return nil, lastErr
}

// NewHTTPClient builds the client used for every third-party lookup. The
// total timeout bounds retries as well.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	base := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       90 * time.Second,
	}
	return &http.Client{
		Transport: &Transport{
			Base:      base,
			RetryMax:  defaultRetryMax,
			UserAgent: defaultUserAgent,
		},
		Timeout: timeout,
	}
}
