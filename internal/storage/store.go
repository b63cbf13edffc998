// Package storage keeps product image binaries outside the database.
package storage

import (
	"context"
	"errors"
	"path"
	"strings"
	"time"
)

var (
	ErrInvalidKey     = errors.New("invalid object key")
	ErrObjectNotFound = errors.New("object not found")
)

// ObjectStore defines the interface for image storage operations.
// Keys are slash-separated paths such as "products/<id>/<file>".
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (*ObjectInfo, error)
	Get(ctx context.Context, key string) ([]byte, *ObjectInfo, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]*ObjectInfo, error)
	URL(key string) string
}

// ObjectInfo represents metadata about a stored object.
type ObjectInfo struct {
	Key         string
	Size        uint64
	ContentType string
	ModTime     time.Time
}

// cleanKey rejects absolute keys and parent traversal.
func cleanKey(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return "", ErrInvalidKey
	}
	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}

// SanitizeFilename removes path separators and dangerous characters from a client filename.
func SanitizeFilename(filename string) string {
	clean := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	clean = strings.ReplaceAll(clean, "/", "_")
	clean = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		if r == ' ' {
			return '_'
		}
		return r
	}, clean)
	if clean == "." || clean == ".." || clean == "" {
		return "unnamed"
	}
	return clean
}

func publicURL(baseURL, key string) string {
	if baseURL == "" {
		return "/" + key
	}
	return strings.TrimRight(baseURL, "/") + "/" + key
}
