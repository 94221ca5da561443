package inventory

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultTTL           = 2 * time.Minute
	DefaultMaxConcurrent = 8
)

type Options struct {
	TTL           time.Duration
	MaxConcurrent int
	Now           func() time.Time
	Logger        *slog.Logger
}

type LookupOption func(*lookup)

type lookup struct {
	handle string
}

// WithProductHandle fetches every variant of the product in one request
// instead of querying variants one by one.
func WithProductHandle(handle string) LookupOption {
	return func(l *lookup) { l.handle = strings.TrimSpace(handle) }
}

type entry struct {
	record  Record
	written time.Time
}

// Cache is a TTL cache of variant availability shared by all carts of a
// process.
type Cache struct {
	fetcher       Fetcher
	ttl           time.Duration
	maxConcurrent int
	now           func() time.Time
	log           *slog.Logger

	mu      sync.RWMutex
	entries map[string]entry

	group singleflight.Group

	subMu   sync.Mutex
	subs    map[int]func(Snapshot)
	nextSub int
}

func NewCache(fetcher Fetcher, opts Options) *Cache {
	c := &Cache{
		fetcher:       fetcher,
		ttl:           opts.TTL,
		maxConcurrent: opts.MaxConcurrent,
		now:           opts.Now,
		log:           opts.Logger,
		entries:       make(map[string]entry),
		subs:          make(map[int]func(Snapshot)),
	}
	if c.ttl <= 0 {
		c.ttl = DefaultTTL
	}
	if c.maxConcurrent <= 0 {
		c.maxConcurrent = DefaultMaxConcurrent
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.log == nil {
		c.log = slog.Default()
	}
	return c
}

// Get returns availability for variantIDs, fetching ids that are missing or
// older than the TTL. Ids whose availability could not be determined are
// absent from the result.
//
// If ctx ends first Get returns ctx.Err(), but the fetch keeps running and
// still fills the cache.
func (c *Cache) Get(ctx context.Context, variantIDs []string, opts ...LookupOption) (Snapshot, error) {
	var l lookup
	for _, opt := range opts {
		opt(&l)
	}

	ids := NormalizeIDs(variantIDs)
	if len(ids) == 0 {
		return Snapshot{}, nil
	}

	out, stale := c.partition(ids)
	if len(stale) == 0 {
		return out, nil
	}

	key := l.handle + "|" + strings.Join(stale, ",")
	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		return c.fetch(detached, stale, l.handle), nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		fetched, _ := res.Val.(Snapshot)
		for _, id := range ids {
			if r, ok := fetched[id]; ok {
				out[id] = r
			}
		}
		return out, nil
	}
}

// Peek returns the fresh cached records for variantIDs without fetching.
func (c *Cache) Peek(variantIDs []string) Snapshot {
	out, _ := c.partition(NormalizeIDs(variantIDs))
	return out
}

// Invalidate drops the given ids, or every entry when called without ids.
func (c *Cache) Invalidate(variantIDs ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(variantIDs) == 0 {
		c.entries = make(map[string]entry)
		return
	}
	for _, id := range variantIDs {
		delete(c.entries, id)
	}
}

// Subscribe registers fn to receive the records written by every completed
// fetch. The returned func removes the subscription.
func (c *Cache) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.subMu.Lock()
			delete(c.subs, id)
			c.subMu.Unlock()
		})
	}
}

func (c *Cache) partition(ids []string) (Snapshot, []string) {
	now := c.now()
	out := make(Snapshot, len(ids))
	var stale []string

	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, id := range ids {
		e, ok := c.entries[id]
		if ok && now.Sub(e.written) < c.ttl {
			out[id] = e.record
			continue
		}
		stale = append(stale, id)
	}
	return out, stale
}

func (c *Cache) fetch(ctx context.Context, ids []string, handle string) Snapshot {
	var fetched Snapshot
	if handle != "" {
		fetched = c.fetchProduct(ctx, handle)
	} else {
		fetched = c.fetchVariants(ctx, ids)
	}
	if len(fetched) == 0 {
		return fetched
	}

	c.store(fetched)
	c.notify(fetched)
	return fetched
}

func (c *Cache) fetchProduct(ctx context.Context, handle string) Snapshot {
	recs, err := c.fetcher.ProductVariantAvailability(ctx, handle)
	if err != nil {
		c.log.Error("product availability fetch failed", "handle", handle, "err", err)
		return nil
	}
	return Snapshot(recs)
}

func (c *Cache) fetchVariants(ctx context.Context, ids []string) Snapshot {
	var (
		mu  sync.Mutex
		out = make(Snapshot, len(ids))
		g   errgroup.Group
	)
	g.SetLimit(c.maxConcurrent)

	for _, id := range ids {
		id := id
		g.Go(func() error {
			rec, err := c.fetcher.VariantAvailability(ctx, id)
			if err != nil {
				c.log.Warn("variant availability fetch failed", "variant_id", id, "err", err)
				return nil
			}
			mu.Lock()
			out[id] = rec
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (c *Cache) store(recs Snapshot) {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, r := range recs {
		c.entries[id] = entry{record: r, written: now}
	}
}

func (c *Cache) notify(recs Snapshot) {
	c.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subMu.Unlock()

	for _, fn := range fns {
		cp := make(Snapshot, len(recs))
		for k, v := range recs {
			cp[k] = v
		}
		fn(cp)
	}
}

// NormalizeIDs drops empty ids and returns the rest sorted and deduplicated.
func NormalizeIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
