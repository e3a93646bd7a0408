package upload

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"regexp"
	"strconv"
	"time"

	"github.com/edugate/sitecms/internal/storage"
	"github.com/edugate/sitecms/pkg/logger"
	"github.com/edugate/sitecms/pkg/metrics"
)

var ErrNoFile = errors.New("no file uploaded")

// unsafeChars matches everything the stored name may not contain.
var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9.\-_]`)

// SanitizeName drops every character outside [A-Za-z0-9.-_]. It filters, it
// does not transliterate: "ünï.png" becomes "n.png".
func SanitizeName(name string) string {
	return unsafeChars.ReplaceAllString(name, "")
}

// StoredName is "<unix millis>-<sanitized original>".
func StoredName(t time.Time, original string) string {
	return strconv.FormatInt(t.UnixMilli(), 10) + "-" + SanitizeName(original)
}

// Asset describes a stored upload.
type Asset struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
}

// Service stores uploaded files without validating type, size or content.
type Service struct {
	backend   storage.Backend
	urlPrefix string
	now       func() time.Time
}

// NewService returns a Service writing to backend and building URLs under
// urlPrefix (e.g. /assets/uploads).
func NewService(backend storage.Backend, urlPrefix string) *Service {
	return &Service{backend: backend, urlPrefix: urlPrefix, now: time.Now}
}

// Backend exposes the storage the service writes to.
func (s *Service) Backend() storage.Backend { return s.backend }

// Store saves the file and returns its public URL.
func (s *Service) Store(ctx context.Context, fh *multipart.FileHeader) (*Asset, error) {
	if fh == nil {
		return nil, ErrNoFile
	}
	f, err := fh.Open()
	if err != nil {
		metrics.Uploads.WithLabelValues(s.backend.Name(), "error").Inc()
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	name := StoredName(s.now(), fh.Filename)
	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if err := s.backend.UploadFile(ctx, name, f, fh.Size, contentType); err != nil {
		metrics.Uploads.WithLabelValues(s.backend.Name(), "error").Inc()
		return nil, fmt.Errorf("store %s: %w", name, err)
	}
	metrics.Uploads.WithLabelValues(s.backend.Name(), "ok").Inc()
	metrics.UploadBytes.Add(float64(fh.Size))
	logger.Infof("upload stored: %s (%d bytes, %s)", name, fh.Size, s.backend.Name())
	return &Asset{Name: name, URL: s.urlPrefix + "/" + name, Size: fh.Size}, nil
}
