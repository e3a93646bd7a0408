package handlers

import (
	"context"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/edugate/sitecms/internal/i18n"
	"github.com/edugate/sitecms/internal/sections"
	"github.com/edugate/sitecms/pkg/logger"
	"github.com/gin-gonic/gin"
	"golang.org/x/net/html"
)

// Site serves the static tree and falls back to the shell page for
// navigational paths.
type Site struct {
	root      string
	shellPage string
	prerender bool
	targets   []sections.Target
	i18n      i18n.Config
}

// SiteOption customises a Site.
type SiteOption func(*Site)

// WithPrerender serves the shell page with fragments already injected and,
// when the request carries ?lang=, translated.
func WithPrerender(targets []sections.Target, cfg i18n.Config) SiteOption {
	return func(s *Site) {
		s.prerender = true
		s.targets = targets
		s.i18n = cfg
	}
}

func NewSite(root, shellPage string, opts ...SiteOption) *Site {
	if shellPage == "" {
		shellPage = "index.html"
	}
	s := &Site{root: root, shellPage: shellPage}
	for _, o := range opts {
		o(s)
	}
	return s
}

// RegisterSiteRoutes installs the site as the engine's fallback handler, so
// it only sees requests no API route matched.
func RegisterSiteRoutes(r *gin.Engine, s *Site) {
	r.NoRoute(s.Handle)
}

func (s *Site) Handle(c *gin.Context) {
	p := c.Request.URL.Path
	method := c.Request.Method
	if method == http.MethodGet || method == http.MethodHead {
		if s.serveStatic(c, p) {
			return
		}
	}

	if strings.HasPrefix(p, "/api") {
		c.JSON(http.StatusNotFound, gin.H{"error": "API Not Found"})
		return
	}
	if ext := path.Ext(p); ext != "" && ext != ".html" {
		c.String(http.StatusNotFound, "Not Found")
		return
	}
	s.serveShell(c)
}

// serveStatic resolves p below root: the file itself, a directory's
// index.html, or p + ".html". Dot-segments are never served.
func (s *Site) serveStatic(c *gin.Context, p string) bool {
	clean := path.Clean("/" + p)
	for _, seg := range strings.Split(clean, "/") {
		if strings.HasPrefix(seg, ".") {
			return false
		}
	}
	fp := filepath.Join(s.root, filepath.FromSlash(clean))

	if info, err := os.Stat(fp); err == nil {
		if !info.IsDir() {
			s.serve(c, fp)
			return true
		}
		if !strings.HasSuffix(p, "/") {
			c.Redirect(http.StatusMovedPermanently, p+"/")
			return true
		}
		idx := filepath.Join(fp, "index.html")
		if fileExists(idx) {
			s.serve(c, idx)
			return true
		}
		return false
	}
	if path.Ext(clean) == "" && !strings.HasSuffix(p, "/") {
		if withExt := fp + ".html"; fileExists(withExt) {
			s.serve(c, withExt)
			return true
		}
	}
	return false
}

// serve writes a static file, routing the shell page through serveShell so
// prerendering applies to it wherever it is requested from.
func (s *Site) serve(c *gin.Context, fp string) {
	if s.prerender && filepath.Clean(fp) == filepath.Clean(filepath.Join(s.root, s.shellPage)) {
		s.serveShell(c)
		return
	}
	serveFile(c, fp)
}

func (s *Site) serveShell(c *gin.Context) {
	shellPath := filepath.Join(s.root, s.shellPage)
	if !s.prerender {
		if !fileExists(shellPath) {
			c.String(http.StatusNotFound, "Not Found")
			return
		}
		serveFile(c, shellPath)
		return
	}

	raw, err := os.ReadFile(shellPath)
	if err != nil {
		c.String(http.StatusNotFound, "Not Found")
		return
	}
	out, err := s.assemble(c.Request.Context(), raw, c.Query("lang"))
	if err != nil {
		// degrade to the bare shell page; the browser-side loader still works
		logger.Warnf("prerender %s: %v", c.Request.URL.Path, err)
		out = raw
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", out)
}

func (s *Site) assemble(ctx context.Context, shell []byte, lang string) ([]byte, error) {
	fetcher := sections.FSFetcher{FS: os.DirFS(s.root)}
	loader := sections.NewLoader(fetcher, s.targets)
	var ready sections.ReadyFunc
	if lang != "" {
		tr := i18n.New(s.i18n, fetcher)
		ready = func(ctx context.Context, doc *html.Node) error {
			tr.SetLanguage(ctx, doc, lang)
			return nil
		}
	}
	out, _, err := loader.Assemble(ctx, shell, ready)
	return out, err
}

func serveFile(c *gin.Context, fp string) {
	f, err := os.Open(fp)
	if err != nil {
		c.String(http.StatusNotFound, "Not Found")
		return
	}
	defer f.Close()
	modTime := time.Time{}
	if info, err := f.Stat(); err == nil {
		modTime = info.ModTime()
	}
	http.ServeContent(c.Writer, c.Request, filepath.Base(fp), modTime, f)
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}
