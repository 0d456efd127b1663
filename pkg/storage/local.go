package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore removes image files from a directory on the local disk.
type LocalStore struct {
	dir string
}

// NewLocalStore creates a LocalStore rooted at dir.
func NewLocalStore(dir string) *LocalStore {
	return &LocalStore{dir: dir}
}

// Remove deletes the named file from the upload directory. Filenames are
// stored basename-only; anything with a path separator is rejected so a
// crafted row cannot reach outside the directory.
func (s *LocalStore) Remove(_ context.Context, filename string) error {
	if filename == "" || strings.ContainsAny(filename, `/\`) || filename != filepath.Base(filename) {
		return fmt.Errorf("invalid image filename %q", filename)
	}

	err := os.Remove(filepath.Join(s.dir, filename))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove image file: %w", err)
	}
	return nil
}
