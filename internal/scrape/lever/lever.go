package lever

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

const defaultBaseURL = "https://api.lever.co/v0/postings"

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

func (s *Scraper) Name() string             { return "lever" }
func (s *Scraper) Strategy() types.Strategy { return types.StrategyLLM }
func (s *Scraper) SetBaseURL(u string)      { s.baseURL = strings.TrimRight(u, "/") }

type posting struct {
	ID         string `json:"id"`
	Text       string `json:"text"` // title
	HostedURL  string `json:"hostedUrl"`
	CreatedAt  int64  `json:"createdAt"` // ms epoch
	Categories struct {
		Location string `json:"location"`
	} `json:"categories"`
	Description string `json:"description"` // html
}

func (s *Scraper) Fetch(ctx context.Context) ([]domain.Posting, error) {
	var out []domain.Posting
	for _, firm := range s.firms {
		out = append(out, s.fetchFirm(ctx, firm)...)
	}
	return out, nil
}

// fetchFirm walks the firm's slug aliases in order, keeping the first
// one that returns postings.
func (s *Scraper) fetchFirm(ctx context.Context, firm config.Firm) []domain.Posting {
	for _, slug := range firm.Slugs {
		postings, err := s.fetchSlug(ctx, slug, firm.Name)
		if err != nil {
			s.log.Debugw("lever board skipped", "firm", firm.Name, "slug", slug, "err", err)
			continue
		}
		if len(postings) > 0 {
			s.log.Infow("lever board fetched", "firm", firm.Name, "slug", slug, "postings", len(postings))
			return postings
		}
	}
	return nil
}

func (s *Scraper) fetchSlug(ctx context.Context, slug, firmName string) ([]domain.Posting, error) {
	u := fmt.Sprintf("%s/%s?mode=json", s.baseURL, slug)

	if err := s.limiter.WaitURL(ctx, u); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	res, err := s.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lever get: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("lever status %d", res.StatusCode)
	}

	var postings []posting
	if err := json.NewDecoder(res.Body).Decode(&postings); err != nil {
		return nil, fmt.Errorf("lever decode: %w", err)
	}

	out := make([]domain.Posting, 0, len(postings))
	for _, p := range postings {
		if p.ID == "" || p.HostedURL == "" || strings.TrimSpace(p.Text) == "" {
			continue
		}
		posted := time.Now()
		if p.CreatedAt > 0 {
			posted = time.UnixMilli(p.CreatedAt)
		}
		out = append(out, domain.Posting{
			SourceID:    "lever-" + p.ID,
			Title:       util.CleanText(p.Text),
			Firm:        firmName,
			Location:    util.CleanText(p.Categories.Location),
			Description: util.Description(p.Description),
			ApplyURL:    p.HostedURL,
			Source:      "Lever",
			PostedAt:    posted,
		})
	}
	return out, nil
}
