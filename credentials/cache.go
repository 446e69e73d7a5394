package credentials

import (
	"context"
	"sync"
	"time"
)

// DefaultExpiryGuard is how long before expiry cached credentials are
// considered stale and refreshed.
const DefaultExpiryGuard = 180 * time.Second

type fetch struct {
	done  chan struct{}
	creds Credentials
	err   error
}

// Cache wraps a Provider with expiry-aware caching and a single shared
// refresh. At most one upstream fetch is in flight at any instant;
// concurrent callers all receive its result. A caller abandoning the
// wait does not cancel the shared fetch.
type Cache struct {
	provider Provider
	guard    time.Duration

	mu       sync.Mutex
	current  Credentials
	valid    bool
	inflight *fetch
}

// NewCache wraps p. A zero guard means DefaultExpiryGuard.
func NewCache(p Provider, guard time.Duration) *Cache {
	if guard <= 0 {
		guard = DefaultExpiryGuard
	}
	return &Cache{provider: p, guard: guard}
}

func (c *Cache) Fetch(ctx context.Context) (Credentials, error) {
	c.mu.Lock()
	if c.valid && !c.current.ExpiringWithin(c.guard) {
		creds := c.current
		c.mu.Unlock()
		return creds, nil
	}
	f := c.inflight
	if f == nil {
		f = &fetch{done: make(chan struct{})}
		c.inflight = f
		go c.run(f)
	}
	c.mu.Unlock()

	select {
	case <-f.done:
		return f.creds, f.err
	case <-ctx.Done():
		return Credentials{}, ctx.Err()
	}
}

func (c *Cache) run(f *fetch) {
	// The fetch deliberately ignores caller deadlines: a second
	// caller may still be waiting on it after the first gave up.
	f.creds, f.err = c.provider.Fetch(context.Background())

	c.mu.Lock()
	c.inflight = nil
	if f.err == nil {
		c.current = f.creds
		c.valid = true
	}
	c.mu.Unlock()

	close(f.done)
}
