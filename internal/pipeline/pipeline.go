package pipeline

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"frontoffice-engine/internal/classify"
	"frontoffice-engine/internal/domain"
	"frontoffice-engine/internal/scrape/types"
	"frontoffice-engine/internal/store"
)

// RetentionWindow is the age past which non-featured rows are purged.
const RetentionWindow = 60 * 24 * time.Hour

// Stats counts one source's trip through the pipeline.
type Stats struct {
	Fetched int // postings the adapter produced
	New     int // survived the dedup gate
	Added   int // rows actually inserted
	Skipped int // already known or rejected by the classifier
	Failed  int // postings lost to write failures
}

// Engine drives the configured sources sequentially through
// dedup → classify → persist and then expires stale rows. All
// per-source and per-item failures are contained; Run only errors on
// store-level breakage during expiry.
type Engine struct {
	db        *store.DB
	heuristic classify.Classifier
	llm       classify.Classifier
	log       *zap.SugaredLogger
}

func NewEngine(db *store.DB, heuristic, llm classify.Classifier, log *zap.SugaredLogger) *Engine {
	return &Engine{db: db, heuristic: heuristic, llm: llm, log: log}
}

// Run processes sources in list order, honoring the allow-list
// (lower-cased source names; nil means all), and finishes with one
// expiry pass. Returns the aggregate stats.
func (e *Engine) Run(ctx context.Context, sources []types.Source, allow []string) Stats {
	var total Stats
	for _, src := range sources {
		if !allowed(src.Name(), allow) {
			e.log.Infow("source disabled by allow-list", "source", src.Name())
			continue
		}
		st := e.runSource(ctx, src)
		e.log.Infow("source done",
			"source", src.Name(),
			"fetched", st.Fetched,
			"added", st.Added,
			"skipped", st.Skipped,
		)
		total.Fetched += st.Fetched
		total.New += st.New
		total.Added += st.Added
		total.Skipped += st.Skipped
		total.Failed += st.Failed
	}

	removed, err := e.db.DeleteExpired(ctx, time.Now().Add(-RetentionWindow))
	if err != nil {
		e.log.Errorw("expiry failed", "err", err)
	} else {
		e.log.Infow("expired listings removed", "count", removed)
	}

	e.log.Infow("sync complete",
		"fetched", total.Fetched,
		"added", total.Added,
		"skipped", total.Skipped,
	)
	return total
}

// runSource is the classify-and-upsert pipeline for one source:
// fetch → dedup gate → classify → persist survivors.
func (e *Engine) runSource(ctx context.Context, src types.Source) Stats {
	var st Stats

	postings, err := src.Fetch(ctx)
	if err != nil {
		e.log.Warnw("source fetch failed", "source", src.Name(), "err", err)
		return st
	}

	// empty titles are dropped before anything else sees them
	valid := postings[:0:0]
	for _, p := range postings {
		if strings.TrimSpace(p.Title) != "" {
			valid = append(valid, p)
		}
	}
	st.Fetched = len(valid)
	if st.Fetched == 0 {
		return st
	}

	fresh, known := e.dedup(ctx, valid)
	st.Skipped += known
	st.New = len(fresh)
	if st.New == 0 {
		return st
	}

	accepted := e.classifySurvivors(ctx, src, fresh)
	st.Skipped += st.New - len(accepted)
	if len(accepted) == 0 {
		return st
	}

	added, failed, err := e.db.InsertBatch(ctx, accepted)
	if err != nil {
		e.log.Warnw("some inserts failed", "source", src.Name(), "failed", failed, "err", err)
	}
	st.Added = added
	st.Failed = failed
	return st
}

// dedup filters out postings whose source_id the store already knows.
// On a gate failure the whole batch is treated as known: better to add
// nothing than to re-classify and re-insert the world.
func (e *Engine) dedup(ctx context.Context, postings []domain.Posting) ([]domain.Posting, int) {
	ids := make([]string, len(postings))
	for i, p := range postings {
		ids[i] = p.SourceID
	}
	existing, err := e.db.ExistingIDs(ctx, ids)
	if err != nil {
		e.log.Warnw("dedup lookup failed, skipping batch", "err", err)
		return nil, len(postings)
	}

	fresh := postings[:0:0]
	for _, p := range postings {
		if !existing[p.SourceID] {
			fresh = append(fresh, p)
		}
	}
	return fresh, len(postings) - len(fresh)
}

// classifySurvivors runs the source's strategy and keeps only front
// office postings, fully populated for persistence. Rejected postings
// are never persisted in any form.
func (e *Engine) classifySurvivors(ctx context.Context, src types.Source, fresh []domain.Posting) []domain.Posting {
	cls := e.llm
	if src.Strategy() == types.StrategyHeuristic {
		cls = e.heuristic
	}
	results := cls.Classify(ctx, fresh)

	var accepted []domain.Posting
	for i, r := range results {
		if !r.FrontOffice {
			continue
		}
		p := fresh[i]
		p.Function = r.Function
		p.Level = r.Level
		p.FrontOffice = true
		p.Approved = true
		accepted = append(accepted, p)
	}
	return accepted
}

func allowed(name string, allow []string) bool {
	if len(allow) == 0 {
		return true
	}
	for _, a := range allow {
		if strings.EqualFold(a, name) {
			return true
		}
	}
	return false
}
