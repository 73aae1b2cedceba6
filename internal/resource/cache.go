// Package resource memoizes the external resources a document engine asks
// for while decoding text: built-in character maps and standard font data.
package resource

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Kind identifies the family a resource belongs to. Each kind has its own
// name space and its own cache mapping.
type Kind string

const (
	// KindCMap is a predefined (built-in) character map, e.g. "UniGB-UCS2-H".
	KindCMap Kind = "FetchBuiltInCMap"
	// KindStandardFont is the font program substituted for a non-embedded
	// standard font, e.g. "FoxitSerif.pfb".
	KindStandardFont Kind = "FetchStandardFontData"
)

// ErrNotFound is returned by fetchers that have no payload for a name.
var ErrNotFound = errors.New("resource not found")

// ErrNilFetcher is returned when a Cache is created without a fetcher.
var ErrNilFetcher = errors.New("resource fetcher is nil")

// ErrUnknownKind is returned for kinds other than KindCMap and KindStandardFont.
var ErrUnknownKind = errors.New("unknown resource kind")

// Fetcher loads a resource that is not cached yet.
type Fetcher interface {
	Fetch(ctx context.Context, kind Kind, name string) ([]byte, error)
}

// FetchError reports a failed fetch for one resource.
type FetchError struct {
	Kind Kind
	Name string
	Err  error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s %q: %v", e.Kind, e.Name, e.Err)
}

// Unwrap returns the underlying error.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// ErrorFields exposes the failing resource for error serialization.
func (e *FetchError) ErrorFields() map[string]any {
	return map[string]any{"kind": string(e.Kind), "resource": e.Name}
}

// store is the process-wide backing of every Cache view.
type store struct {
	mu    sync.RWMutex
	cmaps map[string][]byte
	fonts map[string][]byte
}

func newStore() *store {
	return &store{
		cmaps: make(map[string][]byte),
		fonts: make(map[string][]byte),
	}
}

func (s *store) table(kind Kind) (map[string][]byte, error) {
	switch kind {
	case KindCMap:
		return s.cmaps, nil
	case KindStandardFont:
		return s.fonts, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// Cache answers resource lookups from memory and falls back to its Fetcher
// on a miss. Entries never expire. In-flight fetches are collapsed per view
// only, so one connection never waits on another connection's host.
type Cache struct {
	store   *store
	fetcher Fetcher
	flight  *singleflight.Group
}

// NewCache creates a Cache with an empty store.
func NewCache(f Fetcher) (*Cache, error) {
	if f == nil {
		return nil, ErrNilFetcher
	}
	return &Cache{store: newStore(), fetcher: f, flight: new(singleflight.Group)}, nil
}

// WithFetcher returns a view sharing this cache's entries but fetching misses
// through f. Worker connections use it to reach their own host.
func (c *Cache) WithFetcher(f Fetcher) (*Cache, error) {
	if f == nil {
		return nil, ErrNilFetcher
	}
	return &Cache{store: c.store, fetcher: f, flight: new(singleflight.Group)}, nil
}

// Get returns the payload for (kind, name), fetching and storing it on a miss.
// Concurrent misses for the same key on this view share one fetch, which runs
// detached from any single caller's cancellation. Failures are not cached.
func (c *Cache) Get(ctx context.Context, kind Kind, name string) ([]byte, error) {
	table, err := c.store.table(kind)
	if err != nil {
		return nil, err
	}

	c.store.mu.RLock()
	data, ok := table[name]
	c.store.mu.RUnlock()
	if ok {
		return data, nil
	}

	key := string(kind) + "\x00" + name
	ch := c.flight.DoChan(key, func() (any, error) {
		c.store.mu.RLock()
		data, ok := table[name]
		c.store.mu.RUnlock()
		if ok {
			return data, nil
		}

		data, err := c.fetcher.Fetch(context.WithoutCancel(ctx), kind, name)
		if err != nil {
			return nil, &FetchError{Kind: kind, Name: name, Err: err}
		}

		c.store.mu.Lock()
		table[name] = data
		c.store.mu.Unlock()
		return data, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	case <-ctx.Done():
		return nil, &FetchError{Kind: kind, Name: name, Err: ctx.Err()}
	}
}

// Len returns the number of cached entries of the given kind.
func (c *Cache) Len(kind Kind) int {
	table, err := c.store.table(kind)
	if err != nil {
		return 0
	}
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()
	return len(table)
}
