// Package memory provides in-memory implementations of the asset store and
// file system, for hosts that hold build output in memory and for tests.
package memory

import (
	"context"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/fwojciec/critical"
	"go.uber.org/multierr"
)

// Ensure Store implements critical.AssetStore at compile time.
var _ critical.AssetStore = (*Store)(nil)

// Store is an asset store that remembers which assets were updated or
// deleted since they were added, so the changes can be flushed to disk.
type Store struct {
	mu      sync.Mutex
	assets  map[string][]byte
	updated map[string]bool
	deleted map[string]bool
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		assets:  make(map[string][]byte),
		updated: make(map[string]bool),
		deleted: make(map[string]bool),
	}
}

// Add stores an asset as it exists on disk. It is not reported as changed.
func (s *Store) Add(name string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assets[name] = data
}

func (s *Store) Asset(name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.assets[name]
	return data, ok
}

func (s *Store) UpdateAsset(name string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assets[name] = data
	s.updated[name] = true
	delete(s.deleted, name)
}

func (s *Store) DeleteAsset(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.assets[name]; !ok {
		return
	}
	delete(s.assets, name)
	delete(s.updated, name)
	s.deleted[name] = true
}

// AssetNames returns the names of all assets in lexical order.
func (s *Store) AssetNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.assets))
	for name := range s.assets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// HTMLAssets returns the names of the .html assets in lexical order.
func (s *Store) HTMLAssets() []string {
	var names []string
	for _, name := range s.AssetNames() {
		if strings.HasSuffix(name, ".html") {
			names = append(names, name)
		}
	}
	return names
}

// Changes returns the names of the assets updated and deleted since they
// were added.
func (s *Store) Changes() (updated, deleted []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name := range s.updated {
		updated = append(updated, name)
	}
	for name := range s.deleted {
		deleted = append(deleted, name)
	}
	slices.Sort(updated)
	slices.Sort(deleted)
	return updated, deleted
}

// Flush writes updated assets to fsys below root and removes deleted ones.
// Every change is attempted; failures are returned together. Flushed
// changes are forgotten.
func (s *Store) Flush(ctx context.Context, fsys critical.FileSystem, root string) error {
	updated, deleted := s.Changes()
	var err error
	for _, name := range updated {
		data, _ := s.Asset(name)
		if werr := fsys.WriteFile(ctx, filepath.Join(root, filepath.FromSlash(name)), data); werr != nil {
			err = multierr.Append(err, werr)
			continue
		}
		s.forget(name)
	}
	for _, name := range deleted {
		if rerr := fsys.Remove(ctx, filepath.Join(root, filepath.FromSlash(name))); rerr != nil {
			err = multierr.Append(err, rerr)
			continue
		}
		s.forget(name)
	}
	return err
}

func (s *Store) forget(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.updated, name)
	delete(s.deleted, name)
}
