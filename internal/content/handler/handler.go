package handler

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/edugate/sitecms/internal/content"
	"github.com/edugate/sitecms/internal/content/service"
	"github.com/gin-gonic/gin"
)

// RegisterContentRoutes mounts GET and POST for one document at path
// (e.g. /api/content). guards run before the POST handler only.
func RegisterContentRoutes(r gin.IRouter, path string, svc service.Service, guards ...gin.HandlerFunc) {
	r.GET(path, func(c *gin.Context) {
		c.JSON(http.StatusOK, svc.Get(c.Request.Context()))
	})

	post := append(append([]gin.HandlerFunc{}, guards...), func(c *gin.Context) {
		partial, err := readPartial(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if _, err := svc.Merge(c.Request.Context(), partial); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Save failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
	r.POST(path, post...)
}

// readPartial parses the request body as a JSON object. An empty body is an
// empty partial; a body that is not JSON is only parsed when it claims to be.
func readPartial(c *gin.Context) (content.Document, error) {
	if c.ContentType() != gin.MIMEJSON {
		return content.Document{}, nil
	}
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, errors.New("could not read request body")
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return content.Document{}, nil
	}
	// a stored file may read null as {}, a request body may not
	if bytes.Equal(trimmed, []byte("null")) {
		return nil, content.ErrNotObject
	}
	doc, err := content.Decode(raw)
	if err != nil {
		if errors.Is(err, content.ErrNotObject) {
			return nil, err
		}
		return nil, errors.New("invalid JSON body")
	}
	return doc, nil
}
