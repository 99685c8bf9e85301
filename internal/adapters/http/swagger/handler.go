// Package swagger serves the OpenAPI document and a ReDoc viewer for it.
package swagger

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"time"
)

// RedocScriptURL is the ReDoc bundle the viewer page loads.
const RedocScriptURL = "https://cdn.redoc.ly/redoc/v2.1.5/bundles/redoc.standalone.js"

// Register attaches the API docs routes to mux.
// Routes:
//
//	GET /api-docs      -> ReDoc HTML
//	GET /openapi.yaml  -> Embedded OpenAPI document
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.Handle("/api-docs", newDocument("text/html; charset=utf-8", []byte(indexHTML)))
	mux.Handle("/openapi.yaml", newDocument("application/yaml; charset=utf-8", OpenAPI))
}

// document serves a fixed body with a content-derived ETag.
type document struct {
	contentType string
	etag        string
	body        []byte
}

func newDocument(contentType string, body []byte) *document {
	sum := sha256.Sum256(body)
	return &document{
		contentType: contentType,
		etag:        `"` + hex.EncodeToString(sum[:8]) + `"`,
		body:        body,
	}
}

func (d *document) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", d.contentType)
	w.Header().Set("ETag", d.etag)
	w.Header().Set("Cache-Control", "no-cache")
	// ServeContent answers If-None-Match and HEAD for us.
	http.ServeContent(w, r, "", time.Time{}, bytes.NewReader(d.body))
}

const indexHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8">
    <title>userstats API Docs</title>
    <style>body{margin:0;padding:0}</style>
  </head>
  <body>
    <redoc id="redoc-container"></redoc>
    <script src="` + RedocScriptURL + `"></script>
    <script>Redoc.init('/openapi.yaml', { suppressWarnings: true }, document.getElementById('redoc-container'));</script>
  </body>
</html>`
