package repository

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("content document not found")
)

// Repository persists the raw bytes of one named JSON document. Parsing and
// merging live in the service; repositories only move bytes.
type Repository interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, raw []byte) error
}
