package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrDestinationExists is returned by Move when something already occupies dst.
var ErrDestinationExists = errors.New("destination already exists")

// Store defines the filesystem operations the batch variant needs.
type Store interface {
	ListPDFs(root string) ([]string, error)
	ReadFile(path string) ([]byte, error)
	Exists(path string) (bool, error)
	Move(src, dst string) error
}

// LocalStore implements Store using the local filesystem.
type LocalStore struct {
	skipHidden bool
}

// NewLocalStore creates a new LocalStore. Hidden files and directories are
// skipped during enumeration when skipHidden is set.
func NewLocalStore(skipHidden bool) *LocalStore {
	return &LocalStore{skipHidden: skipHidden}
}

// ListPDFs recursively collects files under root whose extension is .pdf in any
// case. Results are sorted for a stable processing order.
func (s *LocalStore) ListPDFs(root string) ([]string, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("root path is required")
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root is not a directory: %s", root)
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			// unreadable subtree: keep walking
			return nil
		}
		if s.skipHidden && path != root && isHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		if IsPDFName(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk: %w", err)
	}

	sort.Strings(paths)
	return paths, nil
}

// ReadFile returns the content of path.
func (s *LocalStore) ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return data, nil
}

// Exists reports whether any filesystem entry (file, directory, symlink) is at path.
func (s *LocalStore) Exists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat destination: %w", err)
}

// Move renames src to dst with a single os.Rename. It never overwrites and never
// falls back to copy+delete, so a cross-device move is reported as an error.
func (s *LocalStore) Move(src, dst string) error {
	exists, err := s.Exists(dst)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrDestinationExists, dst)
	}
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("moving file: %w", err)
	}
	return nil
}

// IsPDFName reports whether name has a .pdf extension in any case.
func IsPDFName(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
