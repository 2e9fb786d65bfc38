package workday

import (
	"bytes"
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

const (
	pageSize = 20
	maxPages = 25 // safety stop for boards reporting bogus totals
)

type Scraper struct {
	firms   []config.WorkdayFirm
	scheme  string
	hc      *http.Client
	limiter *util.HostLimiter
	log     *zap.SugaredLogger
}

func New(firms []config.WorkdayFirm, limiter *util.HostLimiter, log *zap.SugaredLogger) *Scraper {
	return &Scraper{
		firms:   firms,
		scheme:  "https",
		hc:      &http.Client{Timeout: 12 * time.Second},
		limiter: limiter,
		log:     log,
	}
}

func (s *Scraper) Name() string             { return "workday" }
func (s *Scraper) Strategy() types.Strategy { return types.StrategyLLM }

// UseScheme switches the URL scheme, for tests against httptest hosts.
func (s *Scraper) UseScheme(scheme string) { s.scheme = scheme }

type listRequest struct {
	AppliedFacets map[string]any `json:"appliedFacets"`
	Limit         int            `json:"limit"`
	Offset        int            `json:"offset"`
	SearchText    string         `json:"searchText"`
}

type listResponse struct {
	Total       int          `json:"total"`
	JobPostings []jobPosting `json:"jobPostings"`
}

type jobPosting struct {
	Title         string `json:"title"`
	ExternalPath  string `json:"externalPath"`
	LocationsText string `json:"locationsText"`
	PostedOnDate  string `json:"postedOnDate"`
}

func (s *Scraper) Fetch(ctx context.Context) ([]domain.Posting, error) {
	var out []domain.Posting
	for _, firm := range s.firms {
		postings, err := s.fetchTenant(ctx, firm)
		if err != nil {
			s.log.Warnw("workday tenant skipped", "firm", firm.Name, "tenant", firm.Tenant, "err", err)
			continue
		}
		s.log.Infow("workday tenant fetched", "firm", firm.Name, "postings", len(postings))
		out = append(out, postings...)
	}
	return out, nil
}

// fetchTenant pages through the tenant's jobs endpoint until a page
// comes back empty or the reported total is reached.
func (s *Scraper) fetchTenant(ctx context.Context, firm config.WorkdayFirm) ([]domain.Posting, error) {
	endpoint := fmt.Sprintf("%s://%s/wday/cxs/%s/%s/jobs", s.scheme, firm.Host, firm.Tenant, firm.Site)

	var out []domain.Posting
	for page := 0; page < maxPages; page++ {
		offset := page * pageSize
		resp, err := s.fetchPage(ctx, endpoint, offset)
		if err != nil {
			if page == 0 {
				return nil, err
			}
			// keep what earlier pages yielded
			s.log.Debugw("workday page skipped", "firm", firm.Name, "offset", offset, "err", err)
			break
		}
		if len(resp.JobPostings) == 0 {
			break
		}
		for _, j := range resp.JobPostings {
			if strings.TrimSpace(j.Title) == "" || j.ExternalPath == "" {
				continue
			}
			applyURL := fmt.Sprintf("%s://%s/%s%s", s.scheme, firm.Host, firm.Site, j.ExternalPath)
			posted := time.Now()
			if t, err := time.Parse("2006-01-02", j.PostedOnDate); err == nil {
				posted = t
			}
			out = append(out, domain.Posting{
				SourceID: util.LinkSourceID("workday-"+firm.Tenant, j.ExternalPath),
				Title:    util.CleanText(j.Title),
				Firm:     firm.Name,
				Location: util.CleanText(j.LocationsText),
				ApplyURL: applyURL,
				Source:   "Workday",
				PostedAt: posted,
			})
		}
		if offset+pageSize >= resp.Total {
			break
		}
	}
	return out, nil
}

func (s *Scraper) fetchPage(ctx context.Context, endpoint string, offset int) (*listResponse, error) {
	if err := s.limiter.WaitURL(ctx, endpoint); err != nil {
		return nil, err
	}

	body, _ := json.Marshal(listRequest{
		AppliedFacets: map[string]any{},
		Limit:         pageSize,
		Offset:        offset,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	res, err := s.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("workday post: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("workday status %d", res.StatusCode)
	}

	var lr listResponse
	if err := json.NewDecoder(res.Body).Decode(&lr); err != nil {
		return nil, fmt.Errorf("workday decode: %w", err)
	}
	return &lr, nil
}
