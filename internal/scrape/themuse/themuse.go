package themuse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"frontoffice-engine/internal/domain"
	"frontoffice-engine/internal/scrape/types"
	"frontoffice-engine/internal/scrape/util"
)

const defaultBaseURL = "https://www.themuse.com/api/public/jobs"

// Scraper pages through The Muse public jobs API for the configured
// categories. No credential required.
type Scraper struct {
	categories []string
	maxPages   int
	baseURL    string
	hc         *http.Client
	limiter    *util.HostLimiter
	log        *zap.SugaredLogger
}

func New(categories []string, maxPages int, limiter *util.HostLimiter, log *zap.SugaredLogger) *Scraper {
	if maxPages <= 0 {
		maxPages = 3
	}
	return &Scraper{
		categories: categories,
		maxPages:   maxPages,
		baseURL:    defaultBaseURL,
		hc:         &http.Client{Timeout: 10 * time.Second},
		limiter:    limiter,
		log:        log,
	}
}

func (s *Scraper) Name() string             { return "themuse" }
func (s *Scraper) Strategy() types.Strategy { return types.StrategyLLM }
func (s *Scraper) SetBaseURL(u string)      { s.baseURL = strings.TrimRight(u, "/") }

type pageResponse struct {
	Page      int      `json:"page"`
	PageCount int      `json:"page_count"`
	Results   []result `json:"results"`
}

type result struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	Contents        string `json:"contents"`
	PublicationDate string `json:"publication_date"`
	Company         struct {
		Name string `json:"name"`
	} `json:"company"`
	Locations []struct {
		Name string `json:"name"`
	} `json:"locations"`
	Refs struct {
		LandingPage string `json:"landing_page"`
	} `json:"refs"`
}

func (s *Scraper) Fetch(ctx context.Context) ([]domain.Posting, error) {
	var out []domain.Posting
	for page := 1; page <= s.maxPages; page++ {
		resp, err := s.fetchPage(ctx, page)
		if err != nil {
			s.log.Warnw("themuse page skipped", "page", page, "err", err)
			break
		}
		for _, r := range resp.Results {
			p, ok := postingFromResult(r)
			if ok {
				out = append(out, p)
			}
		}
		if page >= resp.PageCount {
			break
		}
	}
	s.log.Infow("themuse fetched", "postings", len(out))
	return out, nil
}

func postingFromResult(r result) (domain.Posting, bool) {
	if r.ID == 0 || strings.TrimSpace(r.Name) == "" || r.Refs.LandingPage == "" {
		return domain.Posting{}, false
	}
	firm := util.CleanText(r.Company.Name)
	if firm == "" {
		firm = "Unknown"
	}
	location := ""
	if len(r.Locations) > 0 {
		location = util.CleanText(r.Locations[0].Name)
	}
	posted := time.Now()
	if t, err := time.Parse(time.RFC3339, r.PublicationDate); err == nil {
		posted = t
	}
	return domain.Posting{
		SourceID:    fmt.Sprintf("themuse-%d", r.ID),
		Title:       util.CleanText(r.Name),
		Firm:        firm,
		Location:    location,
		Description: util.Description(r.Contents),
		ApplyURL:    r.Refs.LandingPage,
		Source:      "The Muse",
		PostedAt:    posted,
	}, true
}

func (s *Scraper) fetchPage(ctx context.Context, page int) (*pageResponse, error) {
	params := url.Values{}
	params.Set("page", fmt.Sprint(page))
	for _, c := range s.categories {
		params.Add("category", c)
	}
	u := s.baseURL + "?" + params.Encode()

	if err := s.limiter.WaitURL(ctx, u); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	res, err := s.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("themuse get: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("themuse status %d", res.StatusCode)
	}

	var pr pageResponse
	if err := json.NewDecoder(res.Body).Decode(&pr); err != nil {
		return nil, fmt.Errorf("themuse decode: %w", err)
	}
	return &pr, nil
}
