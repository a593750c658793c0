package objectstore

import (
	"context"
	"net/url"
	"path"
	"strings"

	"go-channel-identity/internal/model"
)

// ObjectStore is a remote home for uploaded media. Upload never removes
// localPath; the caller owns that file.
type ObjectStore interface {
	Upload(ctx context.Context, localPath string) (model.MediaRef, error)
	Delete(ctx context.Context, publicID string) error
}

// PublicIDFromURL derives the deletable id from a stored media URL: the last
// path segment up to its first dot. ok is false when no id can be derived,
// which callers treat as nothing to delete.
func PublicIDFromURL(rawURL string) (string, bool) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return "", false
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", false
	}

	p := strings.TrimRight(parsed.Path, "/")
	if p == "" {
		return "", false
	}

	segment := path.Base(p)
	if idx := strings.Index(segment, "."); idx >= 0 {
		segment = segment[:idx]
	}

	if segment == "" || segment == "/" {
		return "", false
	}

	return segment, true
}
