package mock

import (
	"context"
	"io/fs"

	"github.com/fwojciec/critical"
)

var _ critical.FileSystem = (*FileSystem)(nil)

// FileSystem is a mock implementation of critical.FileSystem.
type FileSystem struct {
	ReadFileFn  func(ctx context.Context, name string) ([]byte, error)
	WriteFileFn func(ctx context.Context, name string, data []byte) error
	RemoveFn    func(ctx context.Context, name string) error
	ReadDirFn   func(ctx context.Context, name string) ([]fs.DirEntry, error)
	StatFn      func(ctx context.Context, name string) (fs.FileInfo, error)
}

func (f *FileSystem) ReadFile(ctx context.Context, name string) ([]byte, error) {
	return f.ReadFileFn(ctx, name)
}

func (f *FileSystem) WriteFile(ctx context.Context, name string, data []byte) error {
	return f.WriteFileFn(ctx, name, data)
}

func (f *FileSystem) Remove(ctx context.Context, name string) error {
	return f.RemoveFn(ctx, name)
}

func (f *FileSystem) ReadDir(ctx context.Context, name string) ([]fs.DirEntry, error) {
	return f.ReadDirFn(ctx, name)
}

func (f *FileSystem) Stat(ctx context.Context, name string) (fs.FileInfo, error) {
	return f.StatFn(ctx, name)
}
