package handlers

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/edugate/sitecms/pkg/logger"
	"github.com/edugate/sitecms/pkg/metrics"
	"github.com/gin-gonic/gin"
)

// Proxy fetches operator-supplied https URLs and streams the upstream
// response back unchanged. There is no host allow-list unless one is
// configured; any reachable TLS endpoint, internal ones included, can be
// fetched.
type Proxy struct {
	client  *http.Client
	allowed map[string]bool
}

// NewProxy builds a Proxy over transport (nil means a clone of
// http.DefaultTransport). Redirects are returned to the caller rather than
// followed, and the body is never transparently decompressed.
func NewProxy(transport http.RoundTripper, allowedHosts []string) *Proxy {
	if transport == nil {
		tr := http.DefaultTransport.(*http.Transport).Clone()
		tr.DisableCompression = true
		transport = tr
	}
	p := &Proxy{
		client: &http.Client{
			Transport: transport,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
	if len(allowedHosts) > 0 {
		p.allowed = make(map[string]bool, len(allowedHosts))
		for _, h := range allowedHosts {
			p.allowed[strings.ToLower(h)] = true
		}
	}
	return p
}

// RegisterProxyRoutes mounts GET /cdn.
func RegisterProxyRoutes(r gin.IRouter, p *Proxy) {
	r.GET("/cdn", p.Handle)
}

// Handle serves GET /cdn?url=<absolute https url>.
func (p *Proxy) Handle(c *gin.Context) {
	target := c.Query("url")
	if target == "" {
		metrics.ProxyRequests.WithLabelValues("missing_url").Inc()
		c.String(http.StatusBadRequest, "Missing url")
		return
	}
	u, err := parseTarget(target)
	if err != nil {
		metrics.ProxyRequests.WithLabelValues("invalid_url").Inc()
		c.String(http.StatusBadRequest, "Invalid URL")
		return
	}
	if p.allowed != nil && !p.allowed[strings.ToLower(u.Hostname())] {
		metrics.ProxyRequests.WithLabelValues("forbidden").Inc()
		c.String(http.StatusForbidden, "Host not allowed")
		return
	}

	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodGet, u.String(), nil)
	if err != nil {
		metrics.ProxyRequests.WithLabelValues("invalid_url").Inc()
		c.String(http.StatusBadRequest, "Invalid URL")
		return
	}
	resp, err := p.client.Do(req)
	if err != nil {
		metrics.ProxyRequests.WithLabelValues("upstream_error").Inc()
		logger.Warnf("cdn: %s: %v", u.Host, err)
		c.String(http.StatusBadGateway, "Gateway Error")
		return
	}
	defer resp.Body.Close()

	h := c.Writer.Header()
	for k, vs := range resp.Header {
		h.Del(k)
		for _, v := range vs {
			h.Add(k, v)
		}
	}
	c.Writer.WriteHeader(resp.StatusCode)
	if err := streamBody(c.Writer, resp.Body); err != nil {
		logger.Debugf("cdn: stream from %s ended early: %v", u.Host, err)
	}
	metrics.ProxyRequests.WithLabelValues("ok").Inc()
}

var errNotHTTPS = errors.New("only https targets are supported")

func parseTarget(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, errors.New("url must be absolute")
	}
	if !strings.EqualFold(u.Scheme, "https") {
		return nil, errNotHTTPS
	}
	return u, nil
}

// streamBody copies chunk by chunk, flushing after each write so the client
// sees data as it arrives.
func streamBody(w gin.ResponseWriter, body io.Reader) error {
	buf := make([]byte, 32*1024)
	for {
		n, rerr := body.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return werr
			}
			w.Flush()
		}
		if rerr == io.EOF {
			return nil
		}
		if rerr != nil {
			return rerr
		}
	}
}
