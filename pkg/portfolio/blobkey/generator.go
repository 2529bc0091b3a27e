package blobkey

import (
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Generator defines the interface for blob key generation strategies
type Generator interface {
	// GenerateKey creates a blob key under the directory for kind
	GenerateKey(kind, fileName string) string
}

const (
	maxBaseLength = 40
	maxExtLength  = 10
	suffixLength  = 8
)

// TimestampGenerator builds keys of the form
//
//	{kind}/{unix-millis}-{random}-{sanitized-name}{.ext}
//
// The timestamp keeps keys sortable by upload time and the random segment
// keeps two uploads of the same file in the same millisecond apart.
type TimestampGenerator struct {
	mu  sync.Mutex
	Now func() time.Time
}

// NewTimestampGenerator returns the default generator.
func NewTimestampGenerator() *TimestampGenerator {
	return &TimestampGenerator{Now: time.Now}
}

func (g *TimestampGenerator) GenerateKey(kind, fileName string) string {
	g.mu.Lock()
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	ts := now().UTC().UnixMilli()
	g.mu.Unlock()

	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:suffixLength]
	base, ext := SanitizeFilename(fileName)
	return fmt.Sprintf("%s/%d-%s-%s%s", sanitizePathComponent(kind), ts, suffix, base, ext)
}

// SanitizeFilename reduces an uploaded file name to a safe base name and a
// lower-case extension (with its dot, or empty).
func SanitizeFilename(name string) (string, string) {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(strings.TrimSpace(name))
	if name == "." || name == "/" {
		name = ""
	}

	ext := strings.ToLower(path.Ext(name))
	base := strings.TrimSuffix(name, path.Ext(name))
	if !isSafeExt(ext) {
		ext = ""
	}

	base = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '_'
	}, base)
	if len(base) > maxBaseLength {
		base = base[:maxBaseLength]
	}
	if strings.Trim(base, "_") == "" {
		base = "file"
	}
	return base, ext
}

// Extension returns the lower-case extension of name without the dot.
func Extension(name string) string {
	_, ext := SanitizeFilename(name)
	return strings.TrimPrefix(ext, ".")
}

// ValidKey reports whether key is a relative, traversal-free blob key.
func ValidKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return false
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return false
		}
	}
	return true
}

func isSafeExt(ext string) bool {
	if len(ext) < 2 || len(ext) > maxExtLength+1 || ext[0] != '.' {
		return false
	}
	for _, r := range ext[1:] {
		if !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')) {
			return false
		}
	}
	return true
}

func sanitizePathComponent(component string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "_",
		"..", "_",
	)
	return strings.ToLower(replacer.Replace(component))
}
