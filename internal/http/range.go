package httpx

import (
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// ServeFileRange serves a clip with HTTP range support so browsers can seek.
// The file's own modtime drives caching; a missing clip on disk is a plain
// 404 even when the database still references it.
func ServeFileRange(w http.ResponseWriter, r *http.Request, path string) {
	f, err := os.Open(path)
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	defer f.Close()

	modTime := time.Now()
	if info, err := f.Stat(); err == nil {
		modTime = info.ModTime()
	}
	http.ServeContent(w, r, filepath.Base(path), modTime, f)
}
