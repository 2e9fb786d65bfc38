package types

import (
	"context"

	"frontoffice-engine/internal/domain"
)

// Strategy names the classifier a source's postings go through.
type Strategy string

const (
	StrategyHeuristic Strategy = "heuristic"
	StrategyLLM       Strategy = "llm"
)

// Source is one upstream system (ATS board, RSS feed, aggregator).
// Fetch returns partially-populated postings: classification fields are
// always zero. A source fails soft per firm/page/query; the returned
// error is reserved for the case where the whole source produced nothing.
type Source interface {
	Name() string
	Strategy() Strategy
	Fetch(ctx context.Context) ([]domain.Posting, error)
}
