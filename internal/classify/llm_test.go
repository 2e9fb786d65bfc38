package classify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"frontoffice-engine/internal/domain"
)

func testLLM(t *testing.T, handler http.HandlerFunc) *LLM {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewLLM("test-key", "test-model", zap.NewNop().Sugar())
	c.apiURL = srv.URL
	return c
}

func messagesReply(text string) string {
	b, _ := json.Marshal(map[string]any{
		"content": []map[string]string{{"type": "text", "text": text}},
	})
	return string(b)
}

func TestLLMParsesWellFormedBatch(t *testing.T) {
	c := testLLM(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		w.Write([]byte(messagesReply(
			`{"index": 0, "is_front_office": true, "function": "S&T", "level": "VP"}
{"index": 1, "is_front_office": false, "function": null, "level": null}`)))
	})

	results := c.Classify(context.Background(), []domain.Posting{
		{Title: "FX Sales VP", Firm: "Acme Capital"},
		{Title: "Payroll Specialist", Firm: "Acme Capital"},
	})
	require.Len(t, results, 2)
	assert.Equal(t, Result{FrontOffice: true, Function: domain.SalesTrading, Level: domain.VP}, results[0])
	assert.Equal(t, Result{}, results[1])
}

func TestLLMToleratesGarbageLines(t *testing.T) {
	// valid lines interleaved with junk: junk is dropped, unanswered
	// indices default to rejection, nothing panics
	c := testLLM(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(messagesReply(
			`here are your classifications:
{"index": 0, "is_front_office": true, "function": "IBD", "level": "Associate"}
{not json at all
{"index": 17, "is_front_office": true, "function": "PE", "level": null}
{"index": 2, "is_front_office": true, "function": "Sales", "level": "Junior"}`)))
	})

	results := c.Classify(context.Background(), []domain.Posting{
		{Title: "M&A Associate"},
		{Title: "Unanswered"},
		{Title: "Unknown enums"},
	})
	require.Len(t, results, 3)

	assert.Equal(t, Result{FrontOffice: true, Function: domain.InvestmentBank, Level: domain.Associate}, results[0])
	// index 1 never answered
	assert.Equal(t, Result{}, results[1])
	// unknown enum strings coerce to null, the boolean still applies
	assert.Equal(t, Result{FrontOffice: true}, results[2])
}

func TestLLMTotalFailureRejectsBatch(t *testing.T) {
	c := testLLM(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	postings := []domain.Posting{
		{Title: "Equities Trader"},
		{Title: "Portfolio Manager"},
		{Title: "Head of M&A"},
	}
	results := c.Classify(context.Background(), postings)
	require.Len(t, results, len(postings))
	for i, r := range results {
		assert.False(t, r.FrontOffice, "index %d", i)
	}
}

func TestParseBatchResponseIgnoresOutOfRangeIndex(t *testing.T) {
	out := parseBatchResponse(`{"index": -1, "is_front_office": true}
{"index": 5, "is_front_office": true}
{"is_front_office": true}`, 2)
	require.Len(t, out, 2)
	assert.Equal(t, Result{}, out[0])
	assert.Equal(t, Result{}, out[1])
}

func TestLLMBatchesLargeInput(t *testing.T) {
	var calls int
	c := testLLM(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(messagesReply(`{"index": 0, "is_front_office": true, "function": null, "level": null}`)))
	})

	postings := make([]domain.Posting, 45)
	for i := range postings {
		postings[i] = domain.Posting{Title: "Trader"}
	}
	results := c.Classify(context.Background(), postings)
	require.Len(t, results, 45)
	assert.Equal(t, 3, calls) // 20 + 20 + 5

	// only the first item of each batch was answered
	assert.True(t, results[0].FrontOffice)
	assert.True(t, results[20].FrontOffice)
	assert.True(t, results[40].FrontOffice)
	assert.False(t, results[1].FrontOffice)
}
