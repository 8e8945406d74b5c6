package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"time"

	"github.com/emodiary/apiserver/config"
)

// ErrNotConfigured is returned by New when no storage backend is selected.
var ErrNotConfigured = errors.New("object storage not configured")

// PrivateCacheControl keeps shared caches from storing an object.
const PrivateCacheControl = "private, no-store"

// Object is an upload. Diary exports are health data, so every object is written with
// PrivateCacheControl.
type Object struct {
	Key         string
	Body        io.Reader
	Size        int64
	ContentType string
	// DownloadName, when set, is offered to browsers as the saved file name.
	DownloadName string
}

// ContentDisposition returns the attachment header for obj, or "" without a download name.
func (obj Object) ContentDisposition() string {
	if obj.DownloadName == "" {
		return ""
	}
	return mime.FormatMediaType("attachment", map[string]string{"filename": obj.DownloadName})
}

// ObjectStorage is the bucket-scoped surface the exporter needs.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, obj Object) error
	Delete(ctx context.Context, key string) error
	// SignedURL returns a time-limited download link for key.
	SignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
	Bucket() string
	Close() error
}

// New opens the backend selected by cfg.Backend and makes sure its bucket exists.
func New(ctx context.Context, cfg config.StorageConfig) (ObjectStorage, error) {
	var (
		backend ObjectStorage
		err     error
	)
	switch cfg.Backend {
	case config.StorageBackendNone, "":
		return nil, ErrNotConfigured
	case config.StorageBackendMinio:
		backend, err = NewMinioClient(cfg.Minio)
	case config.StorageBackendGCS:
		backend, err = NewGCSClient(ctx, cfg.GCS)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	if err := backend.EnsureBucket(ctx); err != nil {
		_ = backend.Close()
		return nil, fmt.Errorf("ensure bucket %s: %w", backend.Bucket(), err)
	}
	return backend, nil
}
