package handler

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// SPA serves static files from dir, falling back to index.html for unmatched
// paths so client-side routing works. Unknown /api/ paths still get a JSON
// 404 instead of the index page.
func SPA(dir string) http.HandlerFunc {
	fs := http.FileServer(http.Dir(dir))
	index := filepath.Join(dir, "index.html")

	return func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			writeJSON(w, http.StatusNotFound, errorResponse("not found"))
			return
		}

		path := filepath.Join(dir, filepath.Clean("/"+r.URL.Path))
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			fs.ServeHTTP(w, r)
			return
		}

		http.ServeFile(w, r, index)
	}
}
