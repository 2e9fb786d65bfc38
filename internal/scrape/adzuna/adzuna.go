package adzuna

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"frontoffice-engine/internal/config"
	"frontoffice-engine/internal/domain"
	"frontoffice-engine/internal/scrape/types"
	"frontoffice-engine/internal/scrape/util"
)

const (
	defaultBaseURL = "https://api.adzuna.com/v1/api/jobs"
	resultsPerPage = 50
	maxPages       = 3
)

// Scraper queries the Adzuna search API, one call per configured query.
// Requires an app id/key pair; the engine disables this source when the
// credentials are absent.
type Scraper struct {
	appID   string
	appKey  string
	country string
	queries []config.Query
	baseURL string
	hc      *http.Client
	limiter *util.HostLimiter
	log     *zap.SugaredLogger
}

func New(appID, appKey, country string, queries []config.Query, limiter *util.HostLimiter, log *zap.SugaredLogger) *Scraper {
	if country == "" {
		country = "us"
	}
	return &Scraper{
		appID:   appID,
		appKey:  appKey,
		country: country,
		queries: queries,
		baseURL: defaultBaseURL,
		hc:      &http.Client{Timeout: 10 * time.Second},
		limiter: limiter,
		log:     log,
	}
}

func (s *Scraper) Name() string             { return "adzuna" }
func (s *Scraper) Strategy() types.Strategy { return types.StrategyLLM }
func (s *Scraper) SetBaseURL(u string)      { s.baseURL = strings.TrimRight(u, "/") }

type searchResponse struct {
	Results []result `json:"results"`
}

type result struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	RedirectURL string  `json:"redirect_url"`
	Created     string  `json:"created"`
	Company     struct {
		DisplayName string `json:"display_name"`
	} `json:"company"`
	Location struct {
		DisplayName string `json:"display_name"`
	} `json:"location"`
}

func (s *Scraper) Fetch(ctx context.Context) ([]domain.Posting, error) {
	var out []domain.Posting
	for _, q := range s.queries {
		postings, err := s.search(ctx, q)
		if err != nil {
			s.log.Warnw("adzuna query skipped", "what", q.What, "err", err)
			continue
		}
		s.log.Infow("adzuna query fetched", "what", q.What, "postings", len(postings))
		out = append(out, postings...)
	}
	return out, nil
}

// search pages through one query, stopping at the first short page.
func (s *Scraper) search(ctx context.Context, q config.Query) ([]domain.Posting, error) {
	var out []domain.Posting
	for page := 1; page <= maxPages; page++ {
		results, err := s.fetchPage(ctx, q, page)
		if err != nil {
			if page == 1 {
				return nil, err
			}
			s.log.Debugw("adzuna page skipped", "what", q.What, "page", page, "err", err)
			break
		}
		for _, r := range results {
			if r.ID == "" || strings.TrimSpace(r.Title) == "" || r.RedirectURL == "" {
				continue
			}
			firm := util.CleanText(r.Company.DisplayName)
			if firm == "" {
				firm = "Unknown"
			}
			posted := time.Now()
			if t, err := time.Parse(time.RFC3339, r.Created); err == nil {
				posted = t
			}
			out = append(out, domain.Posting{
				SourceID:    "adzuna-" + r.ID,
				Title:       util.CleanText(r.Title),
				Firm:        firm,
				Location:    util.CleanText(r.Location.DisplayName),
				Description: util.Description(r.Description),
				ApplyURL:    r.RedirectURL,
				Source:      "Adzuna",
				PostedAt:    posted,
			})
		}
		if len(results) < resultsPerPage {
			break
		}
	}
	return out, nil
}

func (s *Scraper) fetchPage(ctx context.Context, q config.Query, page int) ([]result, error) {
	params := url.Values{}
	params.Set("app_id", s.appID)
	params.Set("app_key", s.appKey)
	params.Set("what", q.What)
	params.Set("where", q.Where)
	params.Set("results_per_page", fmt.Sprint(resultsPerPage))
	params.Set("sort_by", "date")
	u := fmt.Sprintf("%s/%s/search/%d?%s", s.baseURL, s.country, page, params.Encode())

	if err := s.limiter.WaitURL(ctx, u); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	res, err := s.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("adzuna get: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("adzuna status %d", res.StatusCode)
	}

	var sr searchResponse
	if err := json.NewDecoder(res.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("adzuna decode: %w", err)
	}
	return sr.Results, nil
}
