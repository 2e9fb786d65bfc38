package adzuna

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"frontoffice-engine/internal/config"
	"frontoffice-engine/internal/scrape/util"
)

func resultsJSON(start, count int) string {
	results := make([]map[string]any, count)
	for i := range results {
		n := start + i
		results[i] = map[string]any{
			"id":           fmt.Sprintf("%d", n),
			"title":        fmt.Sprintf("Equity Sales Trader %d", n),
			"description":  "Institutional equity sales.",
			"redirect_url": fmt.Sprintf("https://example.com/land/%d", n),
			"created":      "2026-08-29T08:00:00Z",
			"company":      map[string]string{"display_name": "Acme Capital"},
			"location":     map[string]string{"display_name": "New York"},
		}
	}
	b, _ := json.Marshal(map[string]any{"results": results})
	return string(b)
}

func testScraper(t *testing.T, handler http.HandlerFunc, queries []config.Query) *Scraper {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	s := New("id-123", "key-456", "us", queries, util.NewHostLimiter(100, 10), zap.NewNop().Sugar())
	s.SetBaseURL(srv.URL)
	return s
}

func TestFetchPagesUntilShortPage(t *testing.T) {
	var pages []string
	s := testScraper(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "id-123", r.URL.Query().Get("app_id"))
		assert.Equal(t, "key-456", r.URL.Query().Get("app_key"))
		assert.Equal(t, "equity sales trader", r.URL.Query().Get("what"))

		pages = append(pages, r.URL.Path)
		switch r.URL.Path {
		case "/us/search/1":
			fmt.Fprint(w, resultsJSON(0, resultsPerPage))
		case "/us/search/2":
			fmt.Fprint(w, resultsJSON(resultsPerPage, 3))
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
		}
	}, []config.Query{{What: "equity sales trader", Where: "New York"}})

	postings, err := s.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, postings, resultsPerPage+3)
	assert.Equal(t, []string{"/us/search/1", "/us/search/2"}, pages,
		"a short page ends the query")

	first := postings[0]
	assert.Equal(t, "adzuna-0", first.SourceID)
	assert.Equal(t, "Equity Sales Trader 0", first.Title)
	assert.Equal(t, "Acme Capital", first.Firm)
	assert.Equal(t, "New York", first.Location)
	assert.Equal(t, "Adzuna", first.Source)
	assert.Equal(t, 2026, first.PostedAt.Year())
}

func TestFetchSkipsFailedQuery(t *testing.T) {
	s := testScraper(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("what") == "broken" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, resultsJSON(0, 2))
	}, []config.Query{
		{What: "broken", Where: "New York"},
		{What: "private equity associate", Where: "New York"},
	})

	postings, err := s.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, postings, 2)
}

func TestFetchDropsInvalidResults(t *testing.T) {
	s := testScraper(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results":[
			{"id": "", "title": "No id", "redirect_url": "https://example.com/x"},
			{"id": "7", "title": " ", "redirect_url": "https://example.com/y"},
			{"id": "8", "title": "Equities Trader", "redirect_url": "https://example.com/z"}
		]}`)
	}, []config.Query{{What: "trader", Where: ""}})

	postings, err := s.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, postings, 1)
	assert.Equal(t, "adzuna-8", postings[0].SourceID)
	assert.Equal(t, "Unknown", postings[0].Firm)
}
