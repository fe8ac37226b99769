package feedpage

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"
	"sync"

	"github.com/mmcdole/gofeed"
)

// entry pairs a record with the lock that serializes all access to it.
// rec stays nil until the first successful load.
type entry struct {
	mu  sync.Mutex
	rec *Record
}

// Manager owns the loaded records. Its own lock guards only the map;
// record state is guarded by each entry's lock, so sources never block
// each other and same-source operations are strictly serialized.
type Manager struct {
	store *Store

	mu      sync.Mutex
	entries map[string]*entry
}

func NewManager(store *Store) *Manager {
	return &Manager{store: store, entries: map[string]*entry{}}
}

// Handle is exclusive access to one source's record. Release it when
// done mutating.
type Handle struct {
	e *entry
}

func (h *Handle) Record() *Record { return h.e.rec }
func (h *Handle) Release()        { h.e.mu.Unlock() }

// Acquire returns exclusive access to the record for name, loading it
// from the store (or creating it empty) on first access. The placeholder
// is inserted under the map lock and the load happens under the entry
// lock, so two concurrent first accesses do exactly one load between them.
func (m *Manager) Acquire(name string) (*Handle, error) {
	m.mu.Lock()
	e, ok := m.entries[name]
	if !ok {
		e = &entry{}
		m.entries[name] = e
	}
	m.mu.Unlock()

	e.mu.Lock()
	if e.rec == nil {
		rec, err := m.store.Load(name)
		if err != nil {
			e.mu.Unlock()
			return nil, err
		}
		e.rec = rec
	}
	return &Handle{e: e}, nil
}

// ParseFunc turns a cached body into a structured feed. Production code
// passes gofeed's Parse; tests pass stubs.
type ParseFunc func(r io.Reader) (*gofeed.Feed, error)

// FeedResult is one source's parse attempt. A parse failure is a value
// here, not an abort.
type FeedResult struct {
	Feed *gofeed.Feed
	Err  error
}

// Feeds yields the parse result of every loaded record that has a body.
// Sources that never fetched successfully are omitted. Each record's lock
// is held only long enough to read the body.
func (m *Manager) Feeds(parse ParseFunc) iter.Seq2[string, FeedResult] {
	return func(yield func(string, FeedResult) bool) {
		for name, e := range m.snapshot() {
			e.mu.Lock()
			var body *string
			if e.rec != nil {
				body = e.rec.LastBody
			}
			e.mu.Unlock()
			if body == nil {
				continue
			}
			feed, err := parse(strings.NewReader(*body))
			if !yield(name, FeedResult{Feed: feed, Err: err}) {
				return
			}
		}
	}
}

// SaveAll persists every loaded record. One source's failure does not
// stop the others; all failures come back joined, each naming its source.
func (m *Manager) SaveAll() error {
	var errs []error
	for name, e := range m.snapshot() {
		e.mu.Lock()
		if e.rec != nil {
			if err := m.store.Save(name, e.rec); err != nil {
				errs = append(errs, fmt.Errorf("save cache for %s: %w", name, err))
			}
		}
		e.mu.Unlock()
	}
	return errors.Join(errs...)
}

func (m *Manager) snapshot() map[string]*entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]*entry, len(m.entries))
	for k, v := range m.entries {
		out[k] = v
	}
	return out
}
