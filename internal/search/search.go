// Package search provides optional web search for the planning conversation.
// Failures here are never fatal to chat or generation.
package search

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

var (
	ErrNoResults   = errors.New("no results found")
	ErrRateLimited = errors.New("search rate limited")
)

// Result is a single ranked search hit.
type Result struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
}

// Provider executes a search query and returns ranked results.
type Provider interface {
	Search(ctx context.Context, query string) ([]Result, error)
}

const (
	cacheTTL        = 45 * time.Second
	cacheMaxEntries = 64
)

type cacheEntry struct {
	insertedAt time.Time
	results    []Result
}

// Cache wraps a Provider with a small TTL cache so repeated queries within a
// conversation don't hammer the upstream.
type Cache struct {
	provider Provider

	mu      sync.Mutex
	entries map[string]cacheEntry
}

func NewCache(p Provider) *Cache {
	return &Cache{
		provider: p,
		entries:  make(map[string]cacheEntry),
	}
}

func (c *Cache) Search(ctx context.Context, query string) ([]Result, error) {
	key := strings.ToLower(strings.TrimSpace(query))
	if key == "" {
		return nil, nil
	}

	c.mu.Lock()
	c.evictExpired()
	if entry, ok := c.entries[key]; ok {
		results := entry.results
		c.mu.Unlock()
		return results, nil
	}
	c.mu.Unlock()

	results, err := c.provider.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if len(c.entries) >= cacheMaxEntries {
		c.evictOldest()
	}
	c.entries[key] = cacheEntry{insertedAt: time.Now(), results: results}
	c.mu.Unlock()

	return results, nil
}

// evictExpired must be called with mu held.
func (c *Cache) evictExpired() {
	for key, entry := range c.entries {
		if time.Since(entry.insertedAt) >= cacheTTL {
			delete(c.entries, key)
		}
	}
}

// evictOldest must be called with mu held.
func (c *Cache) evictOldest() {
	var oldestKey string
	var oldestAt time.Time
	for key, entry := range c.entries {
		if oldestKey == "" || entry.insertedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = entry.insertedAt
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}
