// internal/app/system/cache/cache.go
//
// Package cache is a small read-through cache with time-based expiry, per-key
// subscriber callbacks, and an optional periodic re-fetch standing in for real
// change notifications. The member data-access layer keeps its list and
// per-member reads here so independent screens observe the same live value.
//
// The cache is an explicitly constructed component, not a package-level
// singleton; the composition root owns one instance and injects it.
//
// Concurrent misses on the same key are NOT deduplicated: two goroutines that
// both observe an expired entry will both run the fetcher. Mutating calls are
// coalesced elsewhere (see the batch package); reads are allowed to race.
package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Defaults for Options zero values.
const (
	DefaultExpiry          = 5 * time.Minute
	DefaultRefreshInterval = 60 * time.Second
	DefaultMaxEntries      = 256
)

// ErrClosed is returned by Get after Close.
var ErrClosed = errors.New("cache: closed")

// Fetcher loads the authoritative value for a key from the record store.
type Fetcher func(ctx context.Context) (any, error)

// Options configures a Cache.
type Options struct {
	Expiry          time.Duration // entry age after which a read re-fetches
	RefreshInterval time.Duration // period for live-update re-fetching
	MaxEntries      int           // bound on stored entries
	FetchTimeout    time.Duration // deadline for background re-fetches
	Logger          *zap.Logger
}

type entry struct {
	value       any
	hasValue    bool
	refreshedAt time.Time
	subs        map[int]func(any)
}

type refresher struct {
	stop chan struct{}
	done chan struct{}
}

// Cache is a key→value store with expiry, subscribers, and optional periodic
// refresh. Safe for concurrent use.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]*entry
	refreshers map[string]*refresher
	nextSubID  int
	closed     bool

	expiry          time.Duration
	refreshInterval time.Duration
	maxEntries      int
	fetchTimeout    time.Duration
	log             *zap.Logger
}

// New constructs a Cache. Zero option fields take the package defaults.
func New(opts Options) *Cache {
	if opts.Expiry <= 0 {
		opts.Expiry = DefaultExpiry
	}
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = DefaultRefreshInterval
	}
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = DefaultMaxEntries
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 10 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Cache{
		entries:         make(map[string]*entry),
		refreshers:      make(map[string]*refresher),
		expiry:          opts.Expiry,
		refreshInterval: opts.RefreshInterval,
		maxEntries:      opts.MaxEntries,
		fetchTimeout:    opts.FetchTimeout,
		log:             opts.Logger,
	}
}

// Get returns the cached value for key if it is younger than the expiry
// window. Otherwise it runs fetch, stores the result (notifying subscribers)
// and returns it. If fetch fails and a previous value exists, the stale value
// is returned and the error is only logged; with no previous value the error
// propagates.
//
// When liveUpdates is set, a periodic re-fetch is registered for the key
// (once) and runs until Delete, Clear, or Close tears it down.
func (c *Cache) Get(ctx context.Context, key string, fetch Fetcher, liveUpdates bool) (any, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	if e, ok := c.entries[key]; ok && e.hasValue && time.Since(e.refreshedAt) < c.expiry {
		v := e.value
		c.mu.Unlock()
		if liveUpdates {
			c.ensureRefresher(key, fetch)
		}
		return v, nil
	}
	c.mu.Unlock()

	v, err := fetch(ctx)
	if err != nil {
		c.mu.Lock()
		e, ok := c.entries[key]
		if ok && e.hasValue {
			stale := e.value
			c.mu.Unlock()
			c.log.Warn("cache refresh failed, serving stale value",
				zap.String("key", key), zap.Error(err))
			return stale, nil
		}
		c.mu.Unlock()
		return nil, err
	}

	c.Set(key, v)
	if liveUpdates {
		c.ensureRefresher(key, fetch)
	}
	return v, nil
}

// Set unconditionally stores value under key with a fresh timestamp and
// invokes every current subscriber exactly once. A panicking subscriber does
// not prevent the remaining subscribers from running.
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	e, ok := c.entries[key]
	if !ok {
		e = &entry{subs: make(map[int]func(any))}
		c.entries[key] = e
	}
	e.value = value
	e.hasValue = true
	e.refreshedAt = time.Now()

	subs := make([]func(any), 0, len(e.subs))
	for _, fn := range e.subs {
		subs = append(subs, fn)
	}
	c.evictLocked(key)
	c.mu.Unlock()

	for _, fn := range subs {
		c.notify(key, fn, value)
	}
}

func (c *Cache) notify(key string, fn func(any), value any) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("cache subscriber panicked",
				zap.String("key", key), zap.Any("panic", r))
		}
	}()
	fn(value)
}

// evictLocked enforces the entry bound by dropping the least-recently-
// refreshed populated entry. keep is never evicted, and neither are entries
// with live subscribers (a heavily subscribed cache may briefly exceed the
// bound). Caller holds c.mu.
func (c *Cache) evictLocked(keep string) {
	for len(c.entries) > c.maxEntries {
		oldestKey := ""
		var oldest time.Time
		for k, e := range c.entries {
			if k == keep || !e.hasValue || len(e.subs) > 0 {
				continue
			}
			if oldestKey == "" || e.refreshedAt.Before(oldest) {
				oldestKey = k
				oldest = e.refreshedAt
			}
		}
		if oldestKey == "" {
			return
		}
		delete(c.entries, oldestKey)
		c.stopRefresherLocked(oldestKey)
	}
}

// Subscribe registers fn to run on every future Set for key and returns an
// unsubscribe function. Subscribing to an unknown key creates a placeholder
// entry so the subscription is live before first population.
func (c *Cache) Subscribe(key string, fn func(any)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		e = &entry{subs: make(map[int]func(any))}
		c.entries[key] = e
	}
	c.nextSubID++
	id := c.nextSubID
	e.subs[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if e, ok := c.entries[key]; ok {
			delete(e.subs, id)
		}
	}
}

// Delete removes the entry's value and tears down its periodic refresh
// without notifying subscribers: this is an invalidation, not an update.
// Subscriptions survive so the next Get repopulates and then notifies.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	c.deleteLocked(key)
	c.mu.Unlock()
}

// Clear is Delete for every key. Exposed for the admin "flush everything"
// action and for tests.
func (c *Cache) Clear() {
	c.mu.Lock()
	for key := range c.entries {
		c.deleteLocked(key)
	}
	c.mu.Unlock()
}

func (c *Cache) deleteLocked(key string) {
	if e, ok := c.entries[key]; ok {
		if len(e.subs) > 0 {
			// Keep the placeholder so listeners hear the repopulation.
			e.value = nil
			e.hasValue = false
			e.refreshedAt = time.Time{}
		} else {
			delete(c.entries, key)
		}
	}
	c.stopRefresherLocked(key)
}

// Stats reports the entry count and the number of live subscriber callbacks.
type Stats struct {
	Size                int `json:"size"`
	ActiveListenerCount int `json:"active_listener_count"`
}

// GetStats returns current cache statistics.
func (c *Cache) GetStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	listeners := 0
	for _, e := range c.entries {
		listeners += len(e.subs)
	}
	return Stats{Size: len(c.entries), ActiveListenerCount: listeners}
}

// Close stops all periodic refreshers and rejects further reads. Called from
// the application shutdown hook.
func (c *Cache) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.entries = make(map[string]*entry)
	stopping := make([]*refresher, 0, len(c.refreshers))
	for key, r := range c.refreshers {
		close(r.stop)
		delete(c.refreshers, key)
		stopping = append(stopping, r)
	}
	c.mu.Unlock()

	for _, r := range stopping {
		<-r.done
	}
}

// ensureRefresher schedules a periodic re-fetch for key unless one is already
// registered. The fetcher captured at registration is reused for every tick.
func (c *Cache) ensureRefresher(key string, fetch Fetcher) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if _, ok := c.refreshers[key]; ok {
		c.mu.Unlock()
		return
	}
	r := &refresher{stop: make(chan struct{}), done: make(chan struct{})}
	c.refreshers[key] = r
	c.mu.Unlock()

	go c.refreshLoop(key, fetch, r)
}

func (c *Cache) refreshLoop(key string, fetch Fetcher, r *refresher) {
	defer close(r.done)
	ticker := time.NewTicker(c.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), c.fetchTimeout)
			v, err := fetch(ctx)
			cancel()
			if err != nil {
				c.log.Warn("cache periodic refresh failed",
					zap.String("key", key), zap.Error(err))
				continue
			}
			c.Set(key, v)
		}
	}
}

// stopRefresherLocked signals the key's refresh goroutine. Caller holds c.mu;
// the goroutine exits on its own, so there is nothing to wait for here.
func (c *Cache) stopRefresherLocked(key string) {
	if r, ok := c.refreshers[key]; ok {
		close(r.stop)
		delete(c.refreshers, key)
	}
}

// GetAs is a typed wrapper over Get for callers that know the value type.
func GetAs[T any](ctx context.Context, c *Cache, key string, fetch func(ctx context.Context) (T, error), liveUpdates bool) (T, error) {
	v, err := c.Get(ctx, key, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	}, liveUpdates)
	if err != nil {
		var zero T
		return zero, err
	}
	out, ok := v.(T)
	if !ok {
		var zero T
		return zero, errors.New("cache: unexpected value type for key " + key)
	}
	return out, nil
}
