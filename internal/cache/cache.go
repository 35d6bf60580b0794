package cache

import (
	"context"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/tengfone/clockblocker/internal/metrics"
	"golang.org/x/sync/singleflight"
)

// Key identifies one of the fixed prompts whose responses are cached.
type Key string

const (
	PhilosophicalDiscussion Key = "philosophical_discussion"
	AbsurdGuess             Key = "absurd_guess"
)

// Keys is the closed set of keys the cache is seeded with.
var Keys = []Key{PhilosophicalDiscussion, AbsurdGuess}

const DefaultTTL = 30 * time.Minute

// Entry is the last response stored for a key. A zero StoredAt means the
// entry was never populated.
type Entry struct {
	Text     string
	StoredAt time.Time
}

func (e Entry) empty() bool {
	return e.StoredAt.IsZero()
}

// ResponseCache memoizes one response per key for a fixed window.
// Concurrent misses on the same key share a single producer call.
type ResponseCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[Key]Entry
	group   singleflight.Group
}

func New(ttl time.Duration, now func() time.Time) *ResponseCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = time.Now
	}
	entries := lo.SliceToMap(Keys, func(k Key) (Key, Entry) {
		return k, Entry{}
	})
	return &ResponseCache{
		ttl:     ttl,
		now:     now,
		entries: entries,
	}
}

// Lookup returns the stored entry for key and whether it is still fresh.
func (c *ResponseCache) Lookup(key Key) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lookupLocked(key)
}

func (c *ResponseCache) lookupLocked(key Key) (Entry, bool) {
	e := c.entries[key]
	if e.empty() {
		return e, false
	}
	return e, c.now().Sub(e.StoredAt) < c.ttl
}

// GetOrCompute returns the fresh text stored for key, or runs produce, stores
// its result under key and returns it. Whatever produce returns is stored.
func (c *ResponseCache) GetOrCompute(ctx context.Context, key Key, produce func(context.Context) string) string {
	if e, ok := c.Lookup(key); ok {
		metrics.CacheLookupsTotal.WithLabelValues(string(key), "hit").Inc()
		return e.Text
	}

	v, _, _ := c.group.Do(string(key), func() (any, error) {
		// Another flight may have filled the entry between Lookup and Do.
		if e, ok := c.Lookup(key); ok {
			metrics.CacheLookupsTotal.WithLabelValues(string(key), "hit").Inc()
			return e.Text, nil
		}
		metrics.CacheLookupsTotal.WithLabelValues(string(key), "miss").Inc()

		text := produce(ctx)

		c.mu.Lock()
		c.entries[key] = Entry{Text: text, StoredAt: c.now()}
		c.mu.Unlock()
		return text, nil
	})
	return v.(string)
}
