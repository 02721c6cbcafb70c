// mock_storage.go - In-memory storage implementation for testing
package testutil

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/statement-renamer/backend/internal/storage"
)

// MockStorage implements storage.Store over an in-memory path -> content map.
type MockStorage struct {
	files     map[string][]byte
	moveErrs  map[string]error
	existsErr map[string]error
	moves     [][2]string
	mu        sync.RWMutex
}

var _ storage.Store = (*MockStorage)(nil)

// NewMockStorage creates an empty mock storage.
func NewMockStorage() *MockStorage {
	return &MockStorage{
		files:     make(map[string][]byte),
		moveErrs:  make(map[string]error),
		existsErr: make(map[string]error),
	}
}

// AddFile stores content at path.
func (m *MockStorage) AddFile(path string, content []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[filepath.Clean(path)] = content
}

// FailMove makes Move from src return err.
func (m *MockStorage) FailMove(src string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.moveErrs[filepath.Clean(src)] = err
}

// FailExists makes Exists on path return err.
func (m *MockStorage) FailExists(path string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.existsErr[filepath.Clean(path)] = err
}

// HasFile reports whether a file is stored at path.
func (m *MockStorage) HasFile(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.files[filepath.Clean(path)]
	return ok
}

// Moves returns every successful move as (src, dst) pairs, in order.
func (m *MockStorage) Moves() [][2]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([][2]string, len(m.moves))
	copy(out, m.moves)
	return out
}

func (m *MockStorage) ListPDFs(root string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	root = filepath.Clean(root)
	var paths []string
	for path := range m.files {
		if !strings.HasPrefix(path, root+string(filepath.Separator)) {
			continue
		}
		if storage.IsPDFName(path) {
			paths = append(paths, path)
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("root is not a directory: %s", root)
	}
	sort.Strings(paths)
	return paths, nil
}

func (m *MockStorage) ReadFile(path string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.files[filepath.Clean(path)]
	if !ok {
		return nil, errors.New("file not found")
	}
	return data, nil
}

func (m *MockStorage) Exists(path string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	path = filepath.Clean(path)
	if err, ok := m.existsErr[path]; ok {
		return false, err
	}
	_, ok := m.files[path]
	return ok, nil
}

func (m *MockStorage) Move(src, dst string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	src, dst = filepath.Clean(src), filepath.Clean(dst)
	if err, ok := m.moveErrs[src]; ok {
		return err
	}
	data, ok := m.files[src]
	if !ok {
		return errors.New("file not found")
	}
	if _, exists := m.files[dst]; exists {
		return fmt.Errorf("%w: %s", storage.ErrDestinationExists, dst)
	}
	delete(m.files, src)
	m.files[dst] = data
	m.moves = append(m.moves, [2]string{src, dst})
	return nil
}
