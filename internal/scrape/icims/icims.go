package icims

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"frontoffice-engine/internal/config"
	"frontoffice-engine/internal/domain"
	"frontoffice-engine/internal/scrape/types"
	"frontoffice-engine/internal/scrape/util"
)

// Scraper reads iCIMS career portals, which expose no public JSON API;
// the search page HTML is parsed instead. Field extraction failures for
// one anchor default the field, they never abort the page.
type Scraper struct {
	firms   []config.Firm
	scheme  string
	baseURL string // test override; replaces the portal search URL
	hc      *http.Client
	limiter *util.HostLimiter
	log     *zap.SugaredLogger
}

func New(firms []config.Firm, limiter *util.HostLimiter, log *zap.SugaredLogger) *Scraper {
	return &Scraper{
		firms:   firms,
		scheme:  "https",
		hc:      &http.Client{Timeout: 12 * time.Second},
		limiter: limiter,
		log:     log,
	}
}

func (s *Scraper) Name() string             { return "icims" }
func (s *Scraper) Strategy() types.Strategy { return types.StrategyLLM }
func (s *Scraper) UseScheme(scheme string)  { s.scheme = scheme }
func (s *Scraper) SetBaseURL(u string)      { s.baseURL = u }

func (s *Scraper) Fetch(ctx context.Context) ([]domain.Posting, error) {
	var out []domain.Posting
	for _, firm := range s.firms {
		postings := s.fetchFirm(ctx, firm)
		out = append(out, postings...)
	}
	return out, nil
}

// fetchFirm tries each portal alias in order and stops at the first one
// returning postings.
func (s *Scraper) fetchFirm(ctx context.Context, firm config.Firm) []domain.Posting {
	for _, slug := range firm.Slugs {
		postings, err := s.fetchPortal(ctx, slug, firm.Name)
		if err != nil {
			s.log.Debugw("icims portal skipped", "firm", firm.Name, "portal", slug, "err", err)
			continue
		}
		if len(postings) > 0 {
			s.log.Infow("icims portal fetched", "firm", firm.Name, "portal", slug, "postings", len(postings))
			return postings
		}
	}
	return nil
}

func (s *Scraper) fetchPortal(ctx context.Context, slug, firmName string) ([]domain.Posting, error) {
	u := fmt.Sprintf("%s://careers-%s.icims.com/jobs/search?ss=1&in_iframe=1", s.scheme, slug)
	if s.baseURL != "" {
		u = s.baseURL
	}

	if err := s.limiter.WaitURL(ctx, u); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	res, err := s.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("icims get: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("icims status %d", res.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return nil, fmt.Errorf("icims parse: %w", err)
	}

	var out []domain.Posting
	seen := map[string]bool{}
	doc.Find("a[href*='/jobs/']").Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok {
			return
		}
		href = strings.TrimSpace(href)
		if href == "" || !strings.Contains(href, "/jobs/") || strings.Contains(href, "/jobs/search") {
			return
		}
		if strings.HasPrefix(href, "/") {
			href = fmt.Sprintf("%s://careers-%s.icims.com%s", s.scheme, slug, href)
		}

		title := util.CleanText(a.Find(".title, h2, h3").First().Text())
		if title == "" {
			title = util.CleanText(a.Text())
		}
		if title == "" || looksLikeNavText(title) {
			return
		}

		id := util.LinkSourceID("icims-"+slug, href)
		if seen[id] {
			return
		}
		seen[id] = true

		location := util.CleanText(a.Find(".location, .additionalFields").First().Text())

		out = append(out, domain.Posting{
			SourceID: id,
			Title:    title,
			Firm:     firmName,
			Location: location,
			ApplyURL: href,
			Source:   "iCIMS",
			PostedAt: time.Now(),
		})
	})
	return out, nil
}

func looksLikeNavText(t string) bool {
	l := strings.ToLower(t)
	return strings.Contains(l, "view all") || strings.Contains(l, "apply") ||
		strings.Contains(l, "search") || strings.Contains(l, "next") ||
		strings.Contains(l, "previous")
}
