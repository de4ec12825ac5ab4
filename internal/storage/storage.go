// Package storage is the object store for uploaded images. Objects live under
// a small set of named prefixes and are served by public URL.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/maxcyking/ngo-library-sub001/internal/config"
)

// Driver identifies a concrete storage backend.
type Driver string

const (
	DriverFilesystem Driver = "fs"
	DriverS3         Driver = "s3"
	DriverMemory     Driver = "memory"
)

// Prefixes for the kinds of object the application stores.
const (
	PrefixBookCovers = "book-covers/"
	PrefixEvents     = "events/"
	PrefixGallery    = "gallery/"
)

var (
	ErrNotFound   = errors.New("storage: object not found")
	ErrInvalidKey = errors.New("storage: invalid key")
)

// PutOptions specifies optional parameters for Put.
type PutOptions struct {
	ContentType string
	Metadata    map[string]string
}

// Info describes a stored object.
type Info struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size_bytes"`
	ContentType  string    `json:"content_type,omitempty"`
	LastModified time.Time `json:"last_modified"`
	URL          string    `json:"url"`
}

// Store is implemented by every backend.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
	// KeyFromURL reverses URL for objects this store owns.
	KeyFromURL(url string) (string, bool)
	Driver() Driver
}

// Open selects a backend from configuration.
func Open(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch Driver(cfg.Driver) {
	case DriverFilesystem, "":
		return NewFilesystem(cfg.BaseDir, cfg.BaseURL)
	case DriverMemory:
		return NewMemory(cfg.BaseURL), nil
	case DriverS3:
		return NewS3(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown storage driver %s", cfg.Driver)
	}
}

// sanitizeKey rejects keys that could escape the store root.
func sanitizeKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("%w: empty key", ErrInvalidKey)
	}
	if strings.Contains(key, "..") {
		return "", fmt.Errorf("%w: contains '..'", ErrInvalidKey)
	}
	if strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("%w: absolute key", ErrInvalidKey)
	}
	return path.Clean(key), nil
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}

func trimURL(base, url string) (string, bool) {
	prefix := strings.TrimRight(base, "/") + "/"
	if base == "" || !strings.HasPrefix(url, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(url, prefix)
	if _, err := sanitizeKey(key); err != nil {
		return "", false
	}
	return key, true
}
