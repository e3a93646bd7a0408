package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/edugate/sitecms/internal/content"
	"github.com/edugate/sitecms/internal/content/repository"
	"github.com/edugate/sitecms/pkg/logger"
	"github.com/edugate/sitecms/pkg/metrics"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrSaveFailed = errors.New("save failed")
)

// Service defines the content operations used by the handler layer.
type Service interface {
	// Name identifies the document ("content", "navbar").
	Name() string
	// Get returns the stored document; any read or parse failure yields an
	// empty document.
	Get(ctx context.Context) content.Document
	// Merge shallow-merges partial into the stored document and persists the
	// result, returning the merged document.
	Merge(ctx context.Context, partial content.Document) (content.Document, error)
}

// NewFileService returns a Service backed by a JSON file on disk.
func NewFileService(name, path string) Service {
	return New(name, repository.NewFileRepo(path))
}

// NewMemoryService returns a Service backed by the in-memory repository.
func NewMemoryService(name string) Service {
	return New(name, repository.NewMemoryRepo())
}

// NewMongoService returns a Service named name whose document is the record
// with _id id in col. Caller owns the client behind col.
func NewMongoService(name, id string, col *mongo.Collection) Service {
	return New(name, repository.NewMongoRepo(col, id))
}

// New wraps any repository.
func New(name string, repo repository.Repository) Service {
	return &documentService{name: name, repo: repo}
}

type documentService struct {
	name string
	repo repository.Repository
	// serializes read-merge-write so concurrent merges cannot drop keys
	mu sync.Mutex
}

func (s *documentService) Name() string { return s.name }

func (s *documentService) Get(ctx context.Context) content.Document {
	return s.load(ctx)
}

func (s *documentService) load(ctx context.Context) content.Document {
	raw, err := s.repo.Load(ctx)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			logger.Warnf("%s: read failed, using empty document: %v", s.name, err)
		}
		return content.Document{}
	}
	doc, err := content.Decode(raw)
	if err != nil {
		logger.Warnf("%s: stored document unreadable, using empty document: %v", s.name, err)
		return content.Document{}
	}
	return doc
}

func (s *documentService) Merge(ctx context.Context, partial content.Document) (content.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated := s.load(ctx).Merge(partial)
	raw, err := content.Encode(updated)
	if err != nil {
		metrics.ContentWrites.WithLabelValues(s.name, "error").Inc()
		return nil, fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}
	if err := s.repo.Save(ctx, raw); err != nil {
		metrics.ContentWrites.WithLabelValues(s.name, "error").Inc()
		logger.Errorf("%s: write failed: %v", s.name, err)
		return nil, fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}
	metrics.ContentWrites.WithLabelValues(s.name, "ok").Inc()
	logger.Debugf("%s: merged %d key(s), document now has %d", s.name, len(partial), len(updated))
	return updated, nil
}
