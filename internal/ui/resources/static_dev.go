//go:build dev

package resources

import (
	"net/http"
	"os"
	"path/filepath"
	"runtime"
)

// getStaticDir derives the absolute path to the static directory
// relative to this source file, regardless of where the binary runs.
func getStaticDir() string {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return StaticDirectoryPath
	}
	return filepath.Join(filepath.Dir(filename), "static")
}

// Handler returns an HTTP handler for serving static files. In dev
// mode, files are served from the filesystem for hot reloading.
func Handler() http.Handler {
	staticDir := getStaticDir()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.StripPrefix("/static/", http.FileServer(http.FS(os.DirFS(staticDir)))).ServeHTTP(w, r)
	})
}

// StaticPath returns the URL path for a static asset.
func StaticPath(path string) string {
	return "/static/" + path
}
