// Package refindex answers "how many times is this target linked elsewhere in
// the workspace?" from a time-aware in-memory cache, falling back to a search
// backend when an entry is missing or stale.
//
// Counts are advisory: a query never fails, backend errors degrade to 0 and
// leave the cache untouched so that the next query retries.
//
// Entries are never evicted, only overwritten on refresh. The map therefore
// grows with the number of distinct targets queried, which is bounded by the
// number of documents in a workspace.
package refindex

import (
	"context"
	"sync"
	"time"

	"gnosis/internal/search"

	"github.com/tliron/commonlog"
	"golang.org/x/sync/singleflight"
)

const DefaultTimeout = 10 * time.Second

var log = commonlog.GetLogger("gnosis.refindex")

// entry is replaced as a whole; count and observedAt are never updated apart.
type entry struct {
	count      int
	observedAt time.Time
}

// Index is safe for concurrent use.
type Index struct {
	root      string
	freshness time.Duration
	timeout   time.Duration
	backend   search.Backend
	now       func() time.Time

	mu      sync.RWMutex
	entries map[string]entry

	coalesce bool
	flight   singleflight.Group
}

// Option configures an Index at construction.
type Option func(*Index)

// WithTimeout bounds every backend call. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(ix *Index) {
		if d > 0 {
			ix.timeout = d
		}
	}
}

// WithClock replaces time.Now. The returned times should carry a monotonic
// reading, as time.Now does, so that wall-clock jumps do not affect freshness.
func WithClock(now func() time.Time) Option {
	return func(ix *Index) {
		ix.now = now
	}
}

// WithCoalescing shares one in-flight search between concurrent refreshes of
// the same target instead of letting each of them search.
func WithCoalescing() Option {
	return func(ix *Index) {
		ix.coalesce = true
	}
}

// New creates an empty index for the workspace at root. freshness is the
// maximum age of a cached count.
func New(root string, freshness time.Duration, backend search.Backend, opts ...Option) *Index {
	ix := &Index{
		root:      root,
		freshness: freshness,
		timeout:   DefaultTimeout,
		backend:   backend,
		now:       time.Now,
		entries:   make(map[string]entry),
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Root returns the workspace root searched by the index.
func (ix *Index) Root() string {
	return ix.root
}

// Freshness returns the configured freshness window.
func (ix *Index) Freshness() time.Duration {
	return ix.freshness
}

// Count returns the number of links to target. Fresh cached counts are
// returned without I/O; otherwise the backend is searched and the result
// stored. Never blocks other targets and never returns an error.
func (ix *Index) Count(ctx context.Context, target string) int {
	now := ix.now()
	if count, ok := ix.lookup(target, now); ok {
		return count
	}

	count, err := ix.refresh(ctx, target, now)
	if err != nil {
		log.Warningf("reference search for %q failed: %v", target, err)
		return 0
	}
	return count
}

func (ix *Index) lookup(target string, now time.Time) (int, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	e, ok := ix.entries[target]
	if !ok || now.Sub(e.observedAt) >= ix.freshness {
		return 0, false
	}
	return e.count, true
}

// refresh searches outside of any lock and then stores the result.
// Concurrent refreshes of one target may both write; the last one wins.
func (ix *Index) refresh(ctx context.Context, target string, started time.Time) (int, error) {
	if !ix.coalesce {
		count, err := ix.search(ctx, target)
		if err != nil {
			return 0, err
		}
		ix.store(target, entry{count: count, observedAt: started})
		return count, nil
	}

	v, err, _ := ix.flight.Do(target, func() (any, error) {
		count, err := ix.search(ctx, target)
		if err != nil {
			return 0, err
		}
		ix.store(target, entry{count: count, observedAt: started})
		return count, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

func (ix *Index) search(ctx context.Context, target string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, ix.timeout)
	defer cancel()

	count, err := ix.backend.Count(ctx, ix.root, target)
	if err != nil {
		return 0, err
	}
	if count < 0 {
		count = 0
	}
	log.Debugf("searched %q: %d references", target, count)
	return count, nil
}

func (ix *Index) store(target string, e entry) {
	ix.mu.Lock()
	ix.entries[target] = e
	ix.mu.Unlock()
}

// Len returns the number of cached targets, fresh or stale.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}
