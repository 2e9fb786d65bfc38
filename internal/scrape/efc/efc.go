package efc

import (
	"context"
	"time"

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"

	"frontoffice-engine/internal/config"
	"frontoffice-engine/internal/domain"
	"frontoffice-engine/internal/scrape/types"
	"frontoffice-engine/internal/scrape/util"
)

// Scraper reads eFinancialCareers RSS feeds. The feed is finance-only,
// so postings go through the heuristic classifier: the front-office
// call is about rejecting support roles and tagging, not about whether
// this is a finance posting at all.
type Scraper struct {
	feeds   []config.Feed
	parser  *gofeed.Parser
	limiter *util.HostLimiter
	log     *zap.SugaredLogger
}

func New(feeds []config.Feed, limiter *util.HostLimiter, log *zap.SugaredLogger) *Scraper {
	return &Scraper{
		feeds:   feeds,
		parser:  gofeed.NewParser(),
		limiter: limiter,
		log:     log,
	}
}

func (s *Scraper) Name() string             { return "efinancialcareers" }
func (s *Scraper) Strategy() types.Strategy { return types.StrategyHeuristic }

func (s *Scraper) Fetch(ctx context.Context) ([]domain.Posting, error) {
	var out []domain.Posting
	for _, feed := range s.feeds {
		postings, err := s.fetchFeed(ctx, feed)
		if err != nil {
			s.log.Warnw("feed skipped", "feed", feed.Name, "err", err)
			continue
		}
		s.log.Infow("feed fetched", "feed", feed.Name, "postings", len(postings))
		out = append(out, postings...)
	}
	return out, nil
}

func (s *Scraper) fetchFeed(ctx context.Context, feed config.Feed) ([]domain.Posting, error) {
	if err := s.limiter.WaitURL(ctx, feed.URL); err != nil {
		return nil, err
	}
	fctx, cancel := context.WithTimeout(ctx, 12*time.Second)
	defer cancel()

	parsed, err := s.parser.ParseURLWithContext(feed.URL, fctx)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Posting, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		// a missing single field defaults, only title+link are mandatory
		if item.Title == "" || item.Link == "" {
			continue
		}
		posted := time.Now()
		if item.PublishedParsed != nil {
			posted = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			posted = *item.UpdatedParsed
		}

		firm := feed.Name
		if len(item.Categories) > 0 && item.Categories[0] != "" {
			firm = util.CleanText(item.Categories[0])
		}
		if item.Author != nil && item.Author.Name != "" {
			firm = util.CleanText(item.Author.Name)
		}

		out = append(out, domain.Posting{
			SourceID:    util.LinkSourceID("efc", item.Link),
			Title:       util.CleanText(item.Title),
			Firm:        firm,
			Description: util.Description(item.Description),
			ApplyURL:    item.Link,
			Source:      "eFinancialCareers",
			PostedAt:    posted,
		})
	}
	return out, nil
}
