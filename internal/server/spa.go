package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// handleSPA serves static files from dir, falling back to index.html for any
// path that doesn't match a real file (SPA client-side routing).
// Unauthenticated loads of /admin pages are redirected to the login page;
// API calls under /api/admin get a 401 from the middleware instead.
func handleSPA(dir, adminSecret string) http.HandlerFunc {
	fs := http.Dir(dir)
	fileServer := http.FileServer(fs)

	return func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/admin") && !strings.HasPrefix(r.URL.Path, "/admin/login") {
			if !isAdminRequest(r, adminSecret) {
				http.Redirect(w, r, "/admin/login", http.StatusFound)
				return
			}
		}

		// Try to serve the exact file.
		path := filepath.Join(dir, filepath.Clean(r.URL.Path))
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			fileServer.ServeHTTP(w, r)
			return
		}

		// Fall back to index.html for SPA routes.
		http.ServeFile(w, r, filepath.Join(dir, "index.html"))
	}
}
