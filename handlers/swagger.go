package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger serves the API description:
// - GET /swagger/index.html  -> Swagger UI loading the document below
// - GET /swagger/doc.json    -> OpenAPI JSON
func RegisterSwagger(rg gin.IRouter) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(swaggerHTML))
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>sitecms API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "sitecms", "version": "v1.0.0" },
  "components": {
    "securitySchemes": { "editor": { "type": "http", "scheme": "bearer", "bearerFormat": "JWT" } },
    "schemas": {
      "Document": { "type": "object", "additionalProperties": true },
      "Error": { "type": "object", "properties": { "error": { "type": "string" } } }
    }
  },
  "paths": {
    "/api/content": {
      "get": { "summary": "Read the content document", "responses": { "200": { "description": "document, {} when missing or unreadable" } } },
      "post": {
        "summary": "Shallow-merge a partial document into the content document",
        "security": [ { "editor": [] } ],
        "requestBody": { "content": { "application/json": { "schema": { "$ref": "#/components/schemas/Document" } } } },
        "responses": { "200": { "description": "{\"success\":true}" }, "400": { "description": "invalid JSON body" }, "401": { "description": "editor token required" }, "500": { "description": "Save failed" } }
      }
    },
    "/api/navbar": {
      "get": { "summary": "Read the navbar document", "responses": { "200": { "description": "document" } } },
      "post": {
        "summary": "Shallow-merge a partial document into the navbar document",
        "security": [ { "editor": [] } ],
        "requestBody": { "content": { "application/json": { "schema": { "$ref": "#/components/schemas/Document" } } } },
        "responses": { "200": { "description": "{\"success\":true}" }, "400": { "description": "invalid JSON body" }, "401": { "description": "editor token required" }, "500": { "description": "Save failed" } }
      }
    },
    "/api/upload": {
      "post": {
        "summary": "Store one file sent as multipart field \"file\"",
        "security": [ { "editor": [] } ],
        "requestBody": { "content": { "multipart/form-data": { "schema": { "type": "object", "properties": { "file": { "type": "string", "format": "binary" } } } } } },
        "responses": { "200": { "description": "{\"url\":\"/assets/uploads/<ms>-<name>\"}" }, "400": { "description": "No file uploaded" }, "401": { "description": "editor token required" }, "500": { "description": "Upload failed" } }
      }
    },
    "/cdn": {
      "get": {
        "summary": "Stream an https resource through the server",
        "parameters": [ { "name": "url", "in": "query", "required": true, "schema": { "type": "string" } } ],
        "responses": { "200": { "description": "upstream response mirrored" }, "400": { "description": "Missing url / Invalid URL" }, "403": { "description": "host not allowed" }, "502": { "description": "Gateway Error" } }
      }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } },
    "/metrics": { "get": { "summary": "Prometheus metrics", "responses": { "200": { "description": "text exposition" } } } }
  }
}`
