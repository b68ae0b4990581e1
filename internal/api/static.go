package api

import (
	"net/http"
	"os"
	"path/filepath"
)

// docs assets and the CDN copy used when ./static does not carry them
var staticAssets = map[string]string{
	"redoc.standalone.js":             "https://cdn.jsdelivr.net/npm/redoc@2/bundles/redoc.standalone.js",
	"swagger-ui-bundle.js":            "https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui-bundle.js",
	"swagger-ui-standalone-preset.js": "https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui-standalone-preset.js",
	"swagger-ui.css":                  "https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui.css",
}

// StaticHandler serves docs assets from ./static when present (offline
// deployments) and redirects to the CDN otherwise.
func (s *Server) StaticHandler(w http.ResponseWriter, r *http.Request) {
	name := filepath.Base(r.URL.Path)
	cdn, ok := staticAssets[name]
	if !ok {
		http.NotFound(w, r)
		return
	}
	p := filepath.Join("static", name)
	if _, err := os.Stat(p); err == nil {
		http.ServeFile(w, r, p)
		return
	}
	http.Redirect(w, r, cdn, http.StatusFound)
}
