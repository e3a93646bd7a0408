package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/edugate/sitecms/internal/storage"
	"github.com/edugate/sitecms/internal/upload"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

type part struct {
	field, name, data string
}

func multipartRequest(t *testing.T, parts ...part) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, p := range parts {
		fw, err := mw.CreateFormFile(p.field, p.name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(p.data))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func newUploadEngine(t *testing.T) (*gin.Engine, string) {
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()
	g := gin.New()
	RegisterUploadRoutes(g, upload.NewService(storage.NewLocalStorage(dir), "/assets/uploads"), "/assets/uploads")
	return g, dir
}

func TestUpload_StoresSanitizedName(t *testing.T) {
	g, dir := newUploadEngine(t)

	w := httptest.NewRecorder()
	g.ServeHTTP(w, multipartRequest(t, part{"file", "a b?.png", "pngdata"}))
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Regexp(t, `^/assets/uploads/\d+-ab\.png$`, resp["url"])

	name := strings.TrimPrefix(resp["url"], "/assets/uploads/")
	require.Regexp(t, `^\d+-ab.png$`, name)
	b, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	require.Equal(t, "pngdata", string(b))

	// and the public URL serves it back
	w = httptest.NewRecorder()
	g.ServeHTTP(w, httptest.NewRequest(http.MethodGet, resp["url"], nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "pngdata", w.Body.String())
}

func TestUpload_NoFile(t *testing.T) {
	g, _ := newUploadEngine(t)

	// multipart without any file
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("title", "x"))
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	g.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.JSONEq(t, `{"error":"No file uploaded"}`, w.Body.String())

	// not multipart at all
	req = httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	g.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.JSONEq(t, `{"error":"No file uploaded"}`, w.Body.String())
}

func TestUpload_RejectsExtraFiles(t *testing.T) {
	g, dir := newUploadEngine(t)

	w := httptest.NewRecorder()
	g.ServeHTTP(w, multipartRequest(t, part{"file", "a.txt", "a"}, part{"file", "b.txt", "b"}))
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	g.ServeHTTP(w, multipartRequest(t, part{"other", "a.txt", "a"}))
	require.Equal(t, http.StatusBadRequest, w.Code)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestUpload_ServeMissing(t *testing.T) {
	g, _ := newUploadEngine(t)
	w := httptest.NewRecorder()
	g.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/assets/uploads/nope.png", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
}
