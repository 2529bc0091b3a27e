package portfolio

import (
	"fmt"
	"strings"

	"github.com/tendant/portfolio-content/pkg/portfolio/blobkey"
)

// allowedExtensions defines which upload types are accepted per asset kind
var allowedExtensions = map[AssetKind]map[string]bool{
	AssetKindAudio: {
		"mp3": true, "wav": true, "ogg": true, "oga": true, "flac": true,
		"m4a": true, "aac": true, "opus": true, "aiff": true, "aif": true,
	},
	AssetKindImage: {
		"jpg": true, "jpeg": true, "png": true, "gif": true, "webp": true, "avif": true,
	},
	AssetKindVideo: {
		"mp4": true, "webm": true, "mov": true, "m4v": true, "ogv": true, "mkv": true,
	},
}

// mimePrefixes lets an upload without a usable extension through on its declared type
var mimePrefixes = map[AssetKind]string{
	AssetKindAudio: "audio/",
	AssetKindImage: "image/",
	AssetKindVideo: "video/",
}

// ValidateUpload checks that u is acceptable for kind.
func ValidateUpload(kind AssetKind, u *Upload) error {
	if u == nil || u.Reader == nil {
		return fmt.Errorf("%w: empty upload", ErrInvalidInput)
	}
	if ext := blobkey.Extension(u.FileName); ext != "" {
		if allowedExtensions[kind][ext] {
			return nil
		}
		return fmt.Errorf("%w: .%s is not accepted for %s", ErrUnsupportedMedia, ext, kind)
	}
	mime := strings.ToLower(strings.TrimSpace(strings.Split(u.ContentType, ";")[0]))
	if prefix, ok := mimePrefixes[kind]; ok && strings.HasPrefix(mime, prefix) {
		return nil
	}
	return fmt.Errorf("%w: %q is not accepted for %s", ErrUnsupportedMedia, u.FileName, kind)
}
