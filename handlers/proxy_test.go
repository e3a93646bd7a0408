package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// tlsUpstream starts an https test server and returns a transport that trusts it.
func tlsUpstream(t *testing.T, h http.HandlerFunc) (*httptest.Server, *http.Transport) {
	t.Helper()
	ts := httptest.NewTLSServer(h)
	t.Cleanup(ts.Close)
	tr := ts.Client().Transport.(*http.Transport).Clone()
	tr.DisableCompression = true
	return ts, tr
}

func cdnRequest(g *gin.Engine, target string) *httptest.ResponseRecorder {
	path := "/cdn"
	if target != "" {
		path += "?url=" + url.QueryEscape(target)
	}
	w := httptest.NewRecorder()
	g.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func proxyEngine(tr http.RoundTripper, allowed []string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	g := gin.New()
	RegisterProxyRoutes(g, NewProxy(tr, allowed))
	return g
}

func TestProxy_Passthrough(t *testing.T) {
	ts, tr := tlsUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/x" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		w.Header().Set("X-Upstream", "yes")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("hi"))
	})
	g := proxyEngine(tr, nil)

	w := cdnRequest(g, ts.URL+"/x")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "text/plain", w.Header().Get("Content-Type"))
	require.Equal(t, "yes", w.Header().Get("X-Upstream"))
	require.Equal(t, "hi", w.Body.String())
}

func TestProxy_MirrorsErrorStatusAndRedirects(t *testing.T) {
	ts, tr := tlsUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/gone":
			http.Error(w, "gone", http.StatusGone)
		case "/moved":
			http.Redirect(w, r, "/elsewhere", http.StatusFound)
		}
	})
	g := proxyEngine(tr, nil)

	w := cdnRequest(g, ts.URL+"/gone")
	require.Equal(t, http.StatusGone, w.Code)
	require.Equal(t, "gone\n", w.Body.String())

	w = cdnRequest(g, ts.URL+"/moved")
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/elsewhere", w.Header().Get("Location"))
}

func TestProxy_DoesNotDecompress(t *testing.T) {
	ts, tr := tlsUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		_, _ = w.Write([]byte("not-really-gzip"))
	})
	g := proxyEngine(tr, nil)

	w := cdnRequest(g, ts.URL)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
	require.Equal(t, "not-really-gzip", w.Body.String())
}

func TestProxy_Validation(t *testing.T) {
	g := proxyEngine(nil, nil)

	w := cdnRequest(g, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "Missing url", w.Body.String())

	for _, target := range []string{"not-a-url", "/relative/path", "http://example.com/x", "ftp://example.com/x", "https://"} {
		w = cdnRequest(g, target)
		require.Equal(t, http.StatusBadRequest, w.Code, "target %q", target)
		require.Equal(t, "Invalid URL", w.Body.String())
	}
}

func TestProxy_UpstreamFailure(t *testing.T) {
	ts, tr := tlsUpstream(t, func(w http.ResponseWriter, r *http.Request) {})
	target := ts.URL
	ts.Close()
	g := proxyEngine(tr, nil)

	w := cdnRequest(g, target)
	require.Equal(t, http.StatusBadGateway, w.Code)
	require.Equal(t, "Gateway Error", w.Body.String())
}

func TestProxy_AllowList(t *testing.T) {
	ts, tr := tlsUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	u, err := url.Parse(ts.URL)
	require.NoError(t, err)

	g := proxyEngine(tr, []string{"cdn.example.com"})
	w := cdnRequest(g, ts.URL)
	require.Equal(t, http.StatusForbidden, w.Code)

	g = proxyEngine(tr, []string{u.Hostname()})
	w = cdnRequest(g, ts.URL)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "ok", w.Body.String())
}
