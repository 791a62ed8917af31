// Package fs provides the os backed file system and the glob used to
// discover additional stylesheets.
package fs

import (
	"context"
	iofs "io/fs"
	"os"
	"path/filepath"

	"github.com/fwojciec/critical"
)

// Ensure FileSystem implements critical.FileSystem at compile time.
var _ critical.FileSystem = (*FileSystem)(nil)

// FileSystem implements critical.FileSystem on the local disk.
type FileSystem struct{}

// NewFileSystem creates a new FileSystem.
func NewFileSystem() *FileSystem {
	return &FileSystem{}
}

func (f *FileSystem) ReadFile(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.ReadFile(name)
}

// WriteFile replaces name atomically: data is written to a temporary file
// in the same directory, then renamed over name. Parent directories are
// created as needed.
func (f *FileSystem) WriteFile(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(name)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), name)
}

func (f *FileSystem) Remove(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return os.Remove(name)
}

func (f *FileSystem) ReadDir(ctx context.Context, name string) ([]iofs.DirEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.ReadDir(name)
}

func (f *FileSystem) Stat(ctx context.Context, name string) (iofs.FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.Stat(name)
}
