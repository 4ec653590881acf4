package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testDuckDuckGo(baseURL string) *DuckDuckGo {
	return &DuckDuckGo{
		client:  &http.Client{Timeout: time.Second},
		baseURL: baseURL,
	}
}

func TestDuckDuckGo_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("q") != "react vs vue comparison" {
			t.Errorf("q = %q", q.Get("q"))
		}
		if q.Get("format") != "json" || q.Get("no_html") != "1" || q.Get("skip_disambig") != "1" {
			t.Errorf("query params = %v", q)
		}
		fmt.Fprint(w, `{
			"Heading": "React vs Vue",
			"AbstractText": "A comparison of two frontend frameworks.",
			"AbstractURL": "https://example.com/react-vs-vue",
			"RelatedTopics": [
				{"Text": "React - A JavaScript library", "FirstURL": "https://react.dev"},
				{"Text": "", "FirstURL": "https://skipped.example.com"},
				{"Text": "Vue - The progressive framework", "FirstURL": "https://vuejs.org"}
			]
		}`)
	}))
	defer srv.Close()

	results, err := testDuckDuckGo(srv.URL).Search(context.Background(), "react vs vue comparison")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3 (empty topic skipped)", len(results))
	}
	if results[0].Title != "React vs Vue" || results[0].Score != 1.0 {
		t.Errorf("abstract result = %+v", results[0])
	}
	if results[1].Title != "React" {
		t.Errorf("topic title = %q, want leading clause", results[1].Title)
	}
	if results[1].Score >= results[0].Score || results[2].Score >= results[1].Score {
		t.Error("scores should decrease by position")
	}
}

func TestDuckDuckGo_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"Heading":"","AbstractText":"","RelatedTopics":[]}`)
	}))
	defer srv.Close()

	_, err := testDuckDuckGo(srv.URL).Search(context.Background(), "gibberish query")
	if !errors.Is(err, ErrNoResults) {
		t.Errorf("err = %v, want ErrNoResults", err)
	}
}

func TestDuckDuckGo_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := testDuckDuckGo(srv.URL).Search(context.Background(), "anything")
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("err = %v, want ErrRateLimited", err)
	}
}

func TestDuckDuckGo_CapsResultCount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"AbstractText":"abstract","AbstractURL":"https://a.example.com","Heading":"H","RelatedTopics":[`)
		for i := 0; i < 10; i++ {
			if i > 0 {
				fmt.Fprint(w, ",")
			}
			fmt.Fprintf(w, `{"Text":"Topic %d - detail","FirstURL":"https://t%d.example.com"}`, i, i)
		}
		fmt.Fprint(w, `]}`)
	}))
	defer srv.Close()

	results, err := testDuckDuckGo(srv.URL).Search(context.Background(), "popular topic")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != maxResults {
		t.Errorf("got %d results, want capped at %d", len(results), maxResults)
	}
}
