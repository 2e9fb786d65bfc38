package greenhouse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"frontoffice-engine/internal/config"
	"frontoffice-engine/internal/domain"
	"frontoffice-engine/internal/scrape/types"
	"frontoffice-engine/internal/scrape/util"
)

const defaultBaseURL = "https://boards-api.greenhouse.io/v1/boards"

type Scraper struct {
	firms   []config.Firm
	baseURL string
	hc      *http.Client
	limiter *util.HostLimiter
	log     *zap.SugaredLogger
}

func New(firms []config.Firm, limiter *util.HostLimiter, log *zap.SugaredLogger) *Scraper {
	return &Scraper{
		firms:   firms,
		baseURL: defaultBaseURL,
		hc:      &http.Client{Timeout: 10 * time.Second},
		limiter: limiter,
		log:     log,
	}
}

func (s *Scraper) Name() string             { return "greenhouse" }
func (s *Scraper) Strategy() types.Strategy { return types.StrategyLLM }
func (s *Scraper) SetBaseURL(u string)      { s.baseURL = strings.TrimRight(u, "/") }

type boardResponse struct {
	Jobs []boardJob `json:"jobs"`
}

type boardJob struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	AbsoluteURL string `json:"absolute_url"`
	UpdatedAt   string `json:"updated_at"`
	Content     string `json:"content"`
	Location    struct {
		Name string `json:"name"`
	} `json:"location"`
}

func (s *Scraper) Fetch(ctx context.Context) ([]domain.Posting, error) {
	var out []domain.Posting
	for _, firm := range s.firms {
		postings := s.fetchFirm(ctx, firm)
		out = append(out, postings...)
	}
	return out, nil
}

// fetchFirm tries the firm's slugs in order and stops at the first one
// that yields postings, so a firm known under two board identifiers is
// never double-counted. A board that is down produces zero postings.
func (s *Scraper) fetchFirm(ctx context.Context, firm config.Firm) []domain.Posting {
	for _, slug := range firm.Slugs {
		postings, err := s.fetchBoard(ctx, slug, firm.Name)
		if err != nil {
			s.log.Debugw("greenhouse board skipped", "firm", firm.Name, "slug", slug, "err", err)
			continue
		}
		if len(postings) > 0 {
			s.log.Infow("greenhouse board fetched", "firm", firm.Name, "slug", slug, "postings", len(postings))
			return postings
		}
	}
	return nil
}

func (s *Scraper) fetchBoard(ctx context.Context, slug, firmName string) ([]domain.Posting, error) {
	u := fmt.Sprintf("%s/%s/jobs?content=true", s.baseURL, slug)

	if err := s.limiter.WaitURL(ctx, u); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	res, err := s.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("greenhouse get: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("greenhouse status %d", res.StatusCode)
	}

	var board boardResponse
	if err := json.NewDecoder(res.Body).Decode(&board); err != nil {
		return nil, fmt.Errorf("greenhouse decode: %w", err)
	}

	out := make([]domain.Posting, 0, len(board.Jobs))
	for _, j := range board.Jobs {
		if strings.TrimSpace(j.Title) == "" || j.AbsoluteURL == "" {
			continue
		}
		posted := time.Now()
		if t, err := time.Parse(time.RFC3339, j.UpdatedAt); err == nil {
			posted = t
		}
		out = append(out, domain.Posting{
			SourceID:    fmt.Sprintf("greenhouse-%d", j.ID),
			Title:       util.CleanText(j.Title),
			Firm:        firmName,
			Location:    util.CleanText(j.Location.Name),
			Description: util.Description(j.Content),
			ApplyURL:    j.AbsoluteURL,
			Source:      "Greenhouse",
			PostedAt:    posted,
		})
	}
	return out, nil
}
