package search

import (
	"context"
	"errors"
	"testing"
)

type countingProvider struct {
	calls   int
	results []Result
	err     error
}

func (p *countingProvider) Search(ctx context.Context, query string) ([]Result, error) {
	p.calls++
	return p.results, p.err
}

func TestCache_HitWithinTTL(t *testing.T) {
	upstream := &countingProvider{results: []Result{{Title: "Go", URL: "https://go.dev"}}}
	cache := NewCache(upstream)

	for i := 0; i < 3; i++ {
		results, err := cache.Search(context.Background(), "golang runtime")
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		if len(results) != 1 {
			t.Fatalf("got %d results", len(results))
		}
	}
	if upstream.calls != 1 {
		t.Errorf("upstream called %d times, want 1", upstream.calls)
	}
}

func TestCache_KeyNormalization(t *testing.T) {
	upstream := &countingProvider{results: []Result{{Title: "x"}}}
	cache := NewCache(upstream)

	cache.Search(context.Background(), "React VS Vue")
	cache.Search(context.Background(), "  react vs vue  ")
	if upstream.calls != 1 {
		t.Errorf("case/whitespace variants missed the cache: %d calls", upstream.calls)
	}
}

func TestCache_ErrorsNotCached(t *testing.T) {
	upstream := &countingProvider{err: ErrRateLimited}
	cache := NewCache(upstream)

	cache.Search(context.Background(), "query")
	_, err := cache.Search(context.Background(), "query")
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("err = %v", err)
	}
	if upstream.calls != 2 {
		t.Errorf("failed lookups should retry upstream, got %d calls", upstream.calls)
	}
}

func TestCache_EmptyQuery(t *testing.T) {
	upstream := &countingProvider{}
	cache := NewCache(upstream)

	results, err := cache.Search(context.Background(), "   ")
	if err != nil || results != nil {
		t.Errorf("blank query: results=%v err=%v, want nil/nil", results, err)
	}
	if upstream.calls != 0 {
		t.Error("blank query reached upstream")
	}
}

func TestCache_EvictsOldestAtCapacity(t *testing.T) {
	upstream := &countingProvider{results: []Result{{Title: "x"}}}
	cache := NewCache(upstream)

	for i := 0; i < cacheMaxEntries; i++ {
		cache.Search(context.Background(), string(rune('a'+i%26))+string(rune('0'+i/26)))
	}
	if len(cache.entries) != cacheMaxEntries {
		t.Fatalf("entries = %d, want %d", len(cache.entries), cacheMaxEntries)
	}

	cache.Search(context.Background(), "one more")
	if len(cache.entries) != cacheMaxEntries {
		t.Errorf("entries = %d after overflow, want capacity held at %d", len(cache.entries), cacheMaxEntries)
	}
}
