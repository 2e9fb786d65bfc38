package efc

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"frontoffice-engine/internal/config"
	"frontoffice-engine/internal/scrape/util"
)

const feedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:dc="http://purl.org/dc/elements/1.1/">
  <channel>
    <title>eFinancialCareers US</title>
    <item>
      <title>VP, Equity Derivatives Sales</title>
      <link>https://example.com/jobs/eds-vp?utm_source=rss</link>
      <description>&lt;p&gt;Cover institutional clients.&lt;/p&gt;</description>
      <dc:creator>Acme Capital</dc:creator>
      <category>Acme Capital</category>
      <pubDate>Sun, 30 Aug 2026 08:00:00 GMT</pubDate>
    </item>
    <item>
      <title>Credit Research Associate</title>
      <link>https://example.com/jobs/cra-1</link>
      <description>High yield coverage.</description>
      <category>Beta Partners</category>
      <pubDate>Sat, 29 Aug 2026 10:30:00 GMT</pubDate>
    </item>
    <item>
      <title></title>
      <link>https://example.com/jobs/untitled</link>
    </item>
  </channel>
</rss>`

func TestFetchParsesFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, feedXML)
	}))
	defer srv.Close()

	s := New([]config.Feed{{Name: "eFinancialCareers US", URL: srv.URL}},
		util.NewHostLimiter(100, 10), zap.NewNop().Sugar())

	postings, err := s.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, postings, 2) // the untitled item is dropped

	first := postings[0]
	assert.Equal(t, "VP, Equity Derivatives Sales", first.Title)
	assert.Equal(t, "Acme Capital", first.Firm)
	assert.Equal(t, "Cover institutional clients.", first.Description)
	assert.Equal(t, "eFinancialCareers", first.Source)
	assert.Equal(t, 2026, first.PostedAt.Year())
	assert.True(t, strings.HasPrefix(first.SourceID, "efc-"))

	// the id ignores tracking params, so re-polling the feed is stable
	assert.Equal(t, util.LinkSourceID("efc", "https://example.com/jobs/eds-vp"), first.SourceID)

	assert.Equal(t, "Beta Partners", postings[1].Firm)
	assert.NotEqual(t, first.SourceID, postings[1].SourceID,
		"same-host links must never share an id")
}

func TestFetchSkipsDeadFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s := New([]config.Feed{
		{Name: "dead", URL: srv.URL},
	}, util.NewHostLimiter(100, 10), zap.NewNop().Sugar())

	postings, err := s.Fetch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, postings)
}
