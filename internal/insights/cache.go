package insights

import (
	"container/list"
	"context"
	"strings"
	"sync"
	"time"

	"wingman/internal/domain"
)

const summaryCacheMaxEntries = 1024

type SummaryCache interface {
	Get(ctx context.Context, key string) (domain.Summary, bool)
	Set(ctx context.Context, key string, summary domain.Summary, ttl time.Duration)
}

func CacheKey(project string, platform domain.Platform) string {
	project = strings.ToLower(strings.TrimSpace(project))
	if project == "" {
		return ""
	}
	return string(platform) + ":" + project
}

type memoryCache struct {
	mu         sync.Mutex
	entries    map[string]*list.Element
	order      *list.List
	maxEntries int
	now        func() time.Time
}

type memoryCacheEntry struct {
	key       string
	summary   domain.Summary
	expiresAt time.Time
}

func NewMemoryCache(maxEntries int) SummaryCache {
	if maxEntries <= 0 {
		maxEntries = summaryCacheMaxEntries
	}

	return &memoryCache{
		entries:    make(map[string]*list.Element, maxEntries),
		order:      list.New(),
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

func (c *memoryCache) Get(_ context.Context, key string) (domain.Summary, bool) {
	if key == "" {
		return domain.Summary{}, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return domain.Summary{}, false
	}

	entry, ok := elem.Value.(*memoryCacheEntry)
	if !ok {
		return domain.Summary{}, false
	}

	if c.now().After(entry.expiresAt) {
		c.removeElement(elem)

		return domain.Summary{}, false
	}

	c.order.MoveToFront(elem)

	return entry.summary, true
}

func (c *memoryCache) Set(_ context.Context, key string, summary domain.Summary, ttl time.Duration) {
	if key == "" || ttl <= 0 {
		return
	}

	now := c.now()
	expiresAt := now.Add(ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		entry, castOk := elem.Value.(*memoryCacheEntry)
		if !castOk {
			return
		}

		entry.summary = summary
		entry.expiresAt = expiresAt
		c.order.MoveToFront(elem)

		return
	}

	elem := c.order.PushFront(&memoryCacheEntry{
		key:       key,
		summary:   summary,
		expiresAt: expiresAt,
	})
	c.entries[key] = elem

	c.evictExpiredLocked(now)
	c.enforceSizeLimitLocked()
}

func (c *memoryCache) evictExpiredLocked(now time.Time) {
	for elem := c.order.Back(); elem != nil; {
		prev := elem.Prev()

		entry, ok := elem.Value.(*memoryCacheEntry)
		if ok && now.After(entry.expiresAt) {
			c.removeElement(elem)
		}
		elem = prev
	}
}

func (c *memoryCache) enforceSizeLimitLocked() {
	for len(c.entries) > c.maxEntries {
		elem := c.order.Back()
		if elem == nil {
			return
		}
		c.removeElement(elem)
	}
}

func (c *memoryCache) removeElement(elem *list.Element) {
	entry, ok := elem.Value.(*memoryCacheEntry)
	if !ok {
		return
	}

	delete(c.entries, entry.key)
	c.order.Remove(elem)
}
