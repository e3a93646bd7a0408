package sections

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"strings"
)

// Fetcher retrieves a fragment by its site path. ok=false means the fetch
// completed but did not succeed (a non-2xx response, a missing file); err is
// reserved for transport failures.
type Fetcher interface {
	Fetch(ctx context.Context, path string) (body []byte, ok bool, err error)
}

// HTTPFetcher fetches fragments from a running site.
type HTTPFetcher struct {
	Base   *url.URL
	Client *http.Client
}

// NewHTTPFetcher parses base (e.g. http://localhost:6985).
func NewHTTPFetcher(base string, client *http.Client) (*HTTPFetcher, error) {
	u, err := url.Parse(base)
	if err != nil || !u.IsAbs() {
		return nil, fmt.Errorf("invalid base url %q", base)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{Base: u, Client: client}, nil
}

func (f *HTTPFetcher) Fetch(ctx context.Context, path string) ([]byte, bool, error) {
	target := f.Base.ResolveReference(&url.URL{Path: path})
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, false, err
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, false, nil
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", target, err)
	}
	return b, true, nil
}

// FSFetcher reads fragments from a file system rooted at the site root.
type FSFetcher struct {
	FS fs.FS
}

func (f FSFetcher) Fetch(ctx context.Context, path string) ([]byte, bool, error) {
	name := strings.TrimPrefix(path, "/")
	if !fs.ValidPath(name) {
		return nil, false, nil
	}
	b, err := fs.ReadFile(f.FS, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrInvalid) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return b, true, nil
}
