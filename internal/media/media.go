// Package media keeps processed photos on disk and serves them.
package media

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/natefinch/atomic"
)

const ext = ".jpg"

// Store writes photos into one flat directory under random names.
type Store struct {
	dir string
}

// New returns a store rooted at dir, creating the directory if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating media directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Save writes data under a new name and returns that name.
func (s *Store) Save(data []byte) (string, error) {
	name := uuid.NewString() + ext
	if err := atomic.WriteFile(filepath.Join(s.dir, name), bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("writing media file: %w", err)
	}
	return name, nil
}

// Remove deletes stored files. Failures are logged, not returned: the
// records pointing at them are already gone.
func (s *Store) Remove(names ...string) {
	for _, name := range names {
		if name == "" {
			continue
		}
		if !Valid(name) {
			slog.Warn("refusing to remove media file", "name", name)
			continue
		}
		err := os.Remove(filepath.Join(s.dir, name))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("removing media file", "name", name, "error", err)
		}
	}
}

// Valid reports whether name is one Save could have produced.
func Valid(name string) bool {
	id, ok := strings.CutSuffix(name, ext)
	if !ok {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil && len(id) == 36
}

// Handler serves stored files by name. Anything else is a 404, so no path
// outside the directory is reachable.
func (s *Store) Handler() http.Handler {
	files := http.FileServer(http.Dir(s.dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/")
		if !Valid(name) {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		files.ServeHTTP(w, r)
	})
}
