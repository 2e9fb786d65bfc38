package taleo

import (
	"context"
	"encoding/json"
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

func sectionJSON(total int, reqs ...requisition) string {
	b, _ := json.Marshal(map[string]any{
		"response": map[string]any{
			"totalRecordsCount": total,
			"requisitionList":   reqs,
		},
	})
	return string(b)
}

func testScraper(t *testing.T, handler http.HandlerFunc) (*Scraper, string) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	s := New(nil, util.NewHostLimiter(100, 10), zap.NewNop().Sugar())
	s.UseScheme("http")
	return s, strings.TrimPrefix(srv.URL, "http://")
}

func TestFetchMapsRequisitionColumns(t *testing.T) {
	var calls int
	s, host := testScraper(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/careersection/rest/jobboard/searchjobs", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("portal"))

		switch calls {
		case 1:
			fmt.Fprint(w, sectionJSON(3,
				requisition{ContestNo: "REQ-1", Column: []string{"FX Options Trader", "London", "2026-08-28"}},
				requisition{ContestNo: "", JobID: "J-2", Column: []string{"DCM Associate"}},
				requisition{ContestNo: "REQ-3", Column: []string{"", "Toronto", "2026-08-28"}},
			))
		default:
			fmt.Fprint(w, sectionJSON(3))
		}
	})
	s.firms = []config.TaleoFirm{{Name: "Acme Bank", Host: host, Portal: 1}}

	postings, err := s.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, postings, 2) // the untitled requisition is dropped

	first := postings[0]
	assert.Equal(t, "FX Options Trader", first.Title)
	assert.Equal(t, "London", first.Location)
	assert.Equal(t, "Acme Bank", first.Firm)
	assert.Equal(t, "Taleo", first.Source)
	assert.Equal(t, 2026, first.PostedAt.Year())
	assert.True(t, strings.HasSuffix(first.SourceID, "-REQ-1"))
	assert.Contains(t, first.ApplyURL, "jobdetail.ftl?job=REQ-1")

	// contestNo missing falls back to jobId; short rows default fields
	second := postings[1]
	assert.True(t, strings.HasSuffix(second.SourceID, "-J-2"))
	assert.Empty(t, second.Location)
	assert.False(t, second.PostedAt.IsZero())

	// dropped rows keep the count short of the total, so the empty
	// follow-up page is what terminates paging
	assert.Equal(t, 2, calls)
}

func TestFetchStopsAtReportedTotal(t *testing.T) {
	var calls int
	s, host := testScraper(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, sectionJSON(1,
			requisition{ContestNo: "REQ-1", Column: []string{"Equities Trader", "NY", "2026-08-28"}},
		))
	})
	s.firms = []config.TaleoFirm{{Name: "Acme Bank", Host: host, Portal: 1}}

	postings, err := s.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, postings, 1)
	assert.Equal(t, 1, calls)
}

func TestFetchSkipsBrokenSection(t *testing.T) {
	s, host := testScraper(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	s.firms = []config.TaleoFirm{{Name: "Acme Bank", Host: host, Portal: 1}}

	postings, err := s.Fetch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, postings)
}

func TestTenantKey(t *testing.T) {
	assert.Equal(t, "acme", tenantKey("acme.taleo.net"))
	assert.Equal(t, "localhost:9999", tenantKey("localhost:9999"))
}
