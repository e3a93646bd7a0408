package storage

import (
	"context"
	"errors"
	"io"
)

var ErrNotFound = errors.New("object not found")

// Backend stores uploaded assets under flat keys.
type Backend interface {
	// Name is used in logs and metric labels ("local", "minio").
	Name() string
	UploadFile(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	DownloadFile(ctx context.Context, key string) (io.ReadCloser, error)
}
