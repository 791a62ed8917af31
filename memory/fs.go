package memory

import (
	"context"
	iofs "io/fs"
	"path/filepath"
	"strings"
	"sync"
	"testing/fstest"

	"github.com/fwojciec/critical"
)

// Ensure FS implements critical.FileSystem at compile time.
var _ critical.FileSystem = (*FS)(nil)

// FS is a critical.FileSystem held in memory. Absolute paths are mapped to
// the unrooted names of an fstest.MapFS.
type FS struct {
	mu    sync.RWMutex
	files fstest.MapFS
}

// NewFS creates an FS holding files, keyed by path.
func NewFS(files map[string]string) *FS {
	f := &FS{files: make(fstest.MapFS)}
	for name, content := range files {
		f.files[key(name)] = &fstest.MapFile{Data: []byte(content), Mode: 0644}
	}
	return f
}

func key(name string) string {
	k := strings.TrimPrefix(filepath.ToSlash(filepath.Clean(name)), "/")
	if k == "" {
		return "."
	}
	return k
}

func (f *FS) ReadFile(ctx context.Context, name string) ([]byte, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return iofs.ReadFile(f.files, key(name))
}

func (f *FS) WriteFile(ctx context.Context, name string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[key(name)] = &fstest.MapFile{Data: append([]byte(nil), data...), Mode: 0644}
	return nil
}

func (f *FS) Remove(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := key(name)
	if _, ok := f.files[k]; !ok {
		return &iofs.PathError{Op: "remove", Path: name, Err: iofs.ErrNotExist}
	}
	delete(f.files, k)
	return nil
}

func (f *FS) ReadDir(ctx context.Context, name string) ([]iofs.DirEntry, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return iofs.ReadDir(f.files, key(name))
}

func (f *FS) Stat(ctx context.Context, name string) (iofs.FileInfo, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return iofs.Stat(f.files, key(name))
}

// Content returns the content of name and whether it exists.
func (f *FS) Content(name string) (string, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	file, ok := f.files[key(name)]
	if !ok {
		return "", false
	}
	return string(file.Data), true
}
