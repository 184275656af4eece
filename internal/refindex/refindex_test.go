package refindex_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"gnosis/internal/refindex"
	"gnosis/internal/search"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend returns counts from a table and records its calls.
type fakeBackend struct {
	mu     sync.Mutex
	counts map[string]int
	err    error
	calls  map[string]int
	delay  time.Duration
	roots  []string
}

func newFakeBackend(counts map[string]int) *fakeBackend {
	return &fakeBackend{counts: counts, calls: map[string]int{}}
}

func (f *fakeBackend) Count(ctx context.Context, root, target string) (int, error) {
	f.mu.Lock()
	f.calls[target]++
	f.roots = append(f.roots, root)
	delay, err, count := f.delay, f.err, f.counts[target]
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (f *fakeBackend) set(target string, count int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[target] = count
}

func (f *fakeBackend) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeBackend) callsFor(target string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[target]
}

// clock is a manually advanced time source.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock { return &clock{now: time.Now()} }

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

const window = time.Minute

func TestColdStartSearchesOnce(t *testing.T) {
	backend := newFakeBackend(map[string]int{"a/b": 3})
	ix := refindex.New("/ws", window, backend)

	assert.Equal(t, 3, ix.Count(context.Background(), "a/b"))
	assert.Equal(t, 1, backend.callsFor("a/b"))
	assert.Equal(t, []string{"/ws"}, backend.roots)
	assert.Equal(t, 1, ix.Len())
}

func TestFreshEntryIsServedFromCache(t *testing.T) {
	backend := newFakeBackend(map[string]int{"a/b": 3})
	clk := newClock()
	ix := refindex.New("/ws", window, backend, refindex.WithClock(clk.Now))

	first := ix.Count(context.Background(), "a/b")
	backend.set("a/b", 10)
	clk.Advance(window - time.Nanosecond)
	second := ix.Count(context.Background(), "a/b")

	assert.Equal(t, first, second)
	assert.Equal(t, 1, backend.callsFor("a/b"))
}

func TestStaleEntryIsRefreshed(t *testing.T) {
	backend := newFakeBackend(map[string]int{"a/b": 3})
	clk := newClock()
	ix := refindex.New("/ws", window, backend, refindex.WithClock(clk.Now))

	require.Equal(t, 3, ix.Count(context.Background(), "a/b"))

	backend.set("a/b", 7)
	clk.Advance(window)
	assert.Equal(t, 7, ix.Count(context.Background(), "a/b"))
	assert.Equal(t, 2, backend.callsFor("a/b"))

	// The refreshed count is cached again.
	clk.Advance(window / 2)
	assert.Equal(t, 7, ix.Count(context.Background(), "a/b"))
	assert.Equal(t, 2, backend.callsFor("a/b"))
}

func TestTargetsAreIndependent(t *testing.T) {
	backend := newFakeBackend(map[string]int{"a": 1, "b": 2})
	ix := refindex.New("/ws", window, backend)

	assert.Equal(t, 1, ix.Count(context.Background(), "a"))
	assert.Equal(t, 2, ix.Count(context.Background(), "b"))
	assert.Equal(t, 0, ix.Count(context.Background(), "c"))
	assert.Equal(t, 3, ix.Len())
}

func TestFailureDegradesToZeroWithoutPoisoning(t *testing.T) {
	backend := newFakeBackend(map[string]int{"a/b": 5})
	ix := refindex.New("/ws", window, backend)

	backend.fail(search.ErrUnavailable)
	assert.Equal(t, 0, ix.Count(context.Background(), "a/b"))
	assert.Equal(t, 0, ix.Len())

	backend.fail(nil)
	assert.Equal(t, 5, ix.Count(context.Background(), "a/b"))
	assert.Equal(t, 2, backend.callsFor("a/b"))
}

func TestFailedRefreshKeepsOldEntryStale(t *testing.T) {
	backend := newFakeBackend(map[string]int{"a/b": 5})
	clk := newClock()
	ix := refindex.New("/ws", window, backend, refindex.WithClock(clk.Now))

	require.Equal(t, 5, ix.Count(context.Background(), "a/b"))
	clk.Advance(2 * window)

	backend.fail(errors.New("rg exited with 2"))
	assert.Equal(t, 0, ix.Count(context.Background(), "a/b"))

	backend.fail(nil)
	backend.set("a/b", 6)
	assert.Equal(t, 6, ix.Count(context.Background(), "a/b"))
	assert.Equal(t, 3, backend.callsFor("a/b"))
}

func TestTimeoutDegradesToZero(t *testing.T) {
	backend := newFakeBackend(map[string]int{"slow": 9})
	backend.delay = time.Second
	ix := refindex.New("/ws", window, backend, refindex.WithTimeout(20*time.Millisecond))

	start := time.Now()
	assert.Equal(t, 0, ix.Count(context.Background(), "slow"))
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, 0, ix.Len())
}

func TestSlowTargetDoesNotBlockOthers(t *testing.T) {
	backend := &blockingBackend{release: make(chan struct{}), started: make(chan struct{})}
	ix := refindex.New("/ws", window, backend)

	done := make(chan int)
	go func() { done <- ix.Count(context.Background(), "slow") }()
	<-backend.started

	// A cached target and a new one both answer while "slow" is in flight.
	assert.Equal(t, 1, ix.Count(context.Background(), "fast"))
	assert.Equal(t, 1, ix.Count(context.Background(), "fast"))

	close(backend.release)
	assert.Equal(t, 42, <-done)
}

type blockingBackend struct {
	release chan struct{}
	started chan struct{}
	once    sync.Once
}

func (b *blockingBackend) Count(ctx context.Context, root, target string) (int, error) {
	if target != "slow" {
		return 1, nil
	}
	b.once.Do(func() { close(b.started) })
	select {
	case <-b.release:
		return 42, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func TestConcurrentQueries(t *testing.T) {
	backend := newFakeBackend(map[string]int{"a": 1, "b": 2, "c": 3})
	backend.delay = 5 * time.Millisecond
	ix := refindex.New("/ws", window, backend)

	var wg sync.WaitGroup
	var wrong atomic.Int32
	want := map[string]int{"a": 1, "b": 2, "c": 3}
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			target := []string{"a", "b", "c"}[i%3]
			if ix.Count(context.Background(), target) != want[target] {
				wrong.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.Zero(t, wrong.Load())
	assert.Equal(t, 3, ix.Len())
	for target := range want {
		assert.GreaterOrEqual(t, backend.callsFor(target), 1)
	}
}

func TestCoalescingSharesOneSearch(t *testing.T) {
	backend := newFakeBackend(map[string]int{"a": 4})
	backend.delay = 50 * time.Millisecond
	ix := refindex.New("/ws", window, backend, refindex.WithCoalescing())

	var wg sync.WaitGroup
	results := make([]int, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = ix.Count(context.Background(), "a")
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, 4, r)
	}
	assert.Less(t, backend.callsFor("a"), len(results))
}

func TestAccessors(t *testing.T) {
	ix := refindex.New("/ws", window, newFakeBackend(nil))
	assert.Equal(t, "/ws", ix.Root())
	assert.Equal(t, window, ix.Freshness())
}
