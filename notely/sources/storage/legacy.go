package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// LegacyPrefix marks image rows written when uploads lived on local disk.
const LegacyPrefix = "/uploads/"

var errBadLegacyPath = errors.New("invalid legacy upload path")

// LegacyUploads serves and removes files from the old local upload directory.
type LegacyUploads struct {
	Dir string
}

func (l LegacyUploads) Owns(rawURL string) bool {
	return strings.HasPrefix(rawURL, LegacyPrefix)
}

// resolve maps a /uploads/<name> URL to a file inside Dir. Only plain file
// names are accepted.
func (l LegacyUploads) resolve(rawURL string) (string, error) {
	name := strings.TrimPrefix(rawURL, LegacyPrefix)
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %q", errBadLegacyPath, rawURL)
	}
	return filepath.Join(l.Dir, name), nil
}

// Remove deletes the file. A file that is already gone is not an error.
func (l LegacyUploads) Remove(_ context.Context, rawURL string) error {
	path, err := l.resolve(rawURL)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove legacy upload: %w", err)
	}
	return nil
}

// Handler serves GET /uploads/<name>.
func (l LegacyUploads) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path, err := l.resolve(r.URL.Path)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, path)
	})
}
