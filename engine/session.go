package engine

import (
	"sync"

	"github.com/fwojciec/critical"
	"golang.org/x/sync/singleflight"
)

// Session holds the state an engine shares between documents: loaded
// stylesheet sources, the selectors inlined so far and the stylesheets
// waiting to be pruned. Reset must not run while the engine is busy.
type Session struct {
	loads singleflight.Group

	mu        sync.Mutex
	sources   map[string]*critical.Source
	selectors map[string]struct{}
	tracked   []string
}

// NewSession returns an empty session.
func NewSession() *Session {
	s := &Session{}
	s.Reset()
	return s
}

// Reset forgets every cached source, selector and tracked path.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources = make(map[string]*critical.Source)
	s.selectors = make(map[string]struct{})
	s.tracked = nil
}

// Load returns the source cached for path, calling read on first use.
// Concurrent first calls for one path share a single read. A nil source
// records that the path could not be read; it is cached like any other
// result.
func (s *Session) Load(path string, read func() *critical.Source) *critical.Source {
	if src, ok := s.cached(path); ok {
		return src
	}
	v, _, _ := s.loads.Do(path, func() (any, error) {
		if src, ok := s.cached(path); ok {
			return src, nil
		}
		src := read()
		s.mu.Lock()
		s.sources[path] = src
		s.mu.Unlock()
		return src, nil
	})
	return v.(*critical.Source)
}

func (s *Session) cached(path string) (*critical.Source, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	src, ok := s.sources[path]
	return src, ok
}

// AddSelectors records selectors as inlined.
func (s *Session) AddSelectors(selectors []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sel := range selectors {
		s.selectors[sel] = struct{}{}
	}
}

// HasSelector reports whether sel was inlined since the last Reset.
func (s *Session) HasSelector(sel string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.selectors[sel]
	return ok
}

// Track adds path to the stylesheets to prune. Paths are kept in the order
// they were first tracked.
func (s *Session) Track(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.tracked {
		if p == path {
			return
		}
	}
	s.tracked = append(s.tracked, path)
}

// Tracked returns the paths to prune.
func (s *Session) Tracked() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.tracked...)
}
