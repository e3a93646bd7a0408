package handlers

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path"
	"path/filepath"

	"github.com/edugate/sitecms/internal/storage"
	"github.com/edugate/sitecms/internal/upload"
	"github.com/edugate/sitecms/pkg/logger"
	"github.com/gin-gonic/gin"
)

// UploadField is the multipart field carrying the file.
const UploadField = "file"

// RegisterUploadRoutes mounts POST /api/upload and GET <urlPrefix>/:name.
// guards run before the POST handler only.
func RegisterUploadRoutes(r gin.IRouter, svc *upload.Service, urlPrefix string, guards ...gin.HandlerFunc) {
	post := append(append([]gin.HandlerFunc{}, guards...), func(c *gin.Context) { handleUpload(c, svc) })
	r.POST("/api/upload", post...)
	r.GET(urlPrefix+"/:name", func(c *gin.Context) { serveUpload(c, svc.Backend()) })
}

func handleUpload(c *gin.Context, svc *upload.Service) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	for field, files := range form.File {
		if field != UploadField && len(files) > 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unexpected field: " + field})
			return
		}
	}
	files := form.File[UploadField]
	switch {
	case len(files) == 0:
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	case len(files) > 1:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only one file may be uploaded"})
		return
	}

	asset, err := svc.Store(c.Request.Context(), files[0])
	if err != nil {
		if errors.Is(err, upload.ErrNoFile) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
			return
		}
		logger.Errorf("upload failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Upload failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": asset.URL})
}

func serveUpload(c *gin.Context, backend storage.Backend) {
	name := c.Param("name")
	if local, ok := backend.(*storage.LocalStorage); ok {
		p := filepath.Join(local.Dir(), filepath.Base(name))
		if name != filepath.Base(name) || !fileExists(p) {
			c.String(http.StatusNotFound, "Not Found")
			return
		}
		c.File(p)
		return
	}

	rc, err := backend.DownloadFile(c.Request.Context(), name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.String(http.StatusNotFound, "Not Found")
			return
		}
		logger.Errorf("upload download %s: %v", name, err)
		c.String(http.StatusBadGateway, "Gateway Error")
		return
	}
	defer rc.Close()
	ct := mime.TypeByExtension(path.Ext(name))
	if ct == "" {
		ct = "application/octet-stream"
	}
	c.Header("Content-Type", ct)
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, rc); err != nil {
		logger.Warnf("upload download %s interrupted: %v", name, err)
	}
}
