package portfolio

import (
	"fmt"
	"strings"
)

// ParsePublishedFilter parses the published query parameter. An empty value
// yields def, which each listing endpoint chooses for itself.
func ParsePublishedFilter(raw string, def PublishedFilter) (PublishedFilter, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return def, nil
	case "true":
		return PublishedOnly, nil
	case "false":
		return UnpublishedOnly, nil
	case "all":
		return PublishedAll, nil
	}
	return "", fmt.Errorf("%w: published must be true, false or all, got %q", ErrInvalidInput, raw)
}

// ParseFeaturedFilter parses the featured query parameter. Empty means no filter.
func ParseFeaturedFilter(raw string) (*bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return nil, nil
	case "true":
		v := true
		return &v, nil
	case "false":
		v := false
		return &v, nil
	}
	return nil, fmt.Errorf("%w: featured must be true or false, got %q", ErrInvalidInput, raw)
}

// Match reports whether a record with the given flags passes the filter.
func (f ListFilter) Match(published, featured bool) bool {
	switch f.Published {
	case PublishedOnly:
		if !published {
			return false
		}
	case UnpublishedOnly:
		if published {
			return false
		}
	}
	if f.Featured != nil && *f.Featured != featured {
		return false
	}
	return true
}

// PublishedValue returns the published flag to filter on, or nil for all.
func (f ListFilter) PublishedValue() *bool {
	switch f.Published {
	case PublishedOnly:
		v := true
		return &v
	case UnpublishedOnly:
		v := false
		return &v
	}
	return nil
}
