package taleo

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

const maxPages = 10

// Scraper reads Taleo career sections through the jobboard search REST
// endpoint. Requisition rows come back as positional column arrays
// matching the fields requested, so mapping is by index.
type Scraper struct {
	firms   []config.TaleoFirm
	scheme  string
	hc      *http.Client
	limiter *util.HostLimiter
	log     *zap.SugaredLogger
}

func New(firms []config.TaleoFirm, limiter *util.HostLimiter, log *zap.SugaredLogger) *Scraper {
	return &Scraper{
		firms:   firms,
		scheme:  "https",
		hc:      &http.Client{Timeout: 12 * time.Second},
		limiter: limiter,
		log:     log,
	}
}

func (s *Scraper) Name() string             { return "taleo" }
func (s *Scraper) Strategy() types.Strategy { return types.StrategyLLM }
func (s *Scraper) UseScheme(scheme string)  { s.scheme = scheme }

type searchRequest struct {
	MultilineEnabled bool     `json:"multilineEnabled"`
	PageNo           int      `json:"pageNo"`
	SortingSelection struct {
		Sortby string `json:"sortBySelection"`
	} `json:"sortingSelection"`
	FieldData struct {
		Fields []string `json:"fields"`
	} `json:"fieldData"`
}

type searchResponse struct {
	Response struct {
		TotalRecordsCount int           `json:"totalRecordsCount"`
		RequisitionList   []requisition `json:"requisitionList"`
	} `json:"response"`
}

type requisition struct {
	ContestNo string   `json:"contestNo"`
	JobID     string   `json:"jobId"`
	Column    []string `json:"column"` // [title, location, posted date]
}

func (s *Scraper) Fetch(ctx context.Context) ([]domain.Posting, error) {
	var out []domain.Posting
	for _, firm := range s.firms {
		postings, err := s.fetchSection(ctx, firm)
		if err != nil {
			s.log.Warnw("taleo section skipped", "firm", firm.Name, "host", firm.Host, "err", err)
			continue
		}
		s.log.Infow("taleo section fetched", "firm", firm.Name, "postings", len(postings))
		out = append(out, postings...)
	}
	return out, nil
}

func (s *Scraper) fetchSection(ctx context.Context, firm config.TaleoFirm) ([]domain.Posting, error) {
	endpoint := fmt.Sprintf("%s://%s/careersection/rest/jobboard/searchjobs?lang=en&portal=%d",
		s.scheme, firm.Host, firm.Portal)

	var out []domain.Posting
	for page := 1; page <= maxPages; page++ {
		resp, err := s.fetchPage(ctx, endpoint, page)
		if err != nil {
			if page == 1 {
				return nil, err
			}
			s.log.Debugw("taleo page skipped", "firm", firm.Name, "page", page, "err", err)
			break
		}
		if len(resp.Response.RequisitionList) == 0 {
			break
		}
		for _, r := range resp.Response.RequisitionList {
			p, ok := s.postingFromRequisition(r, firm)
			if ok {
				out = append(out, p)
			}
		}
		if len(out) >= resp.Response.TotalRecordsCount {
			break
		}
	}
	return out, nil
}

// postingFromRequisition maps one positional row; a missing column
// defaults the field rather than dropping the requisition, except the
// title, which is mandatory.
func (s *Scraper) postingFromRequisition(r requisition, firm config.TaleoFirm) (domain.Posting, bool) {
	col := func(i int) string {
		if i < len(r.Column) {
			return util.CleanText(r.Column[i])
		}
		return ""
	}
	title := col(0)
	if title == "" {
		return domain.Posting{}, false
	}
	id := r.ContestNo
	if id == "" {
		id = r.JobID
	}
	if id == "" {
		return domain.Posting{}, false
	}

	posted := time.Now()
	if t, err := time.Parse("2006-01-02", col(2)); err == nil {
		posted = t
	}

	applyURL := fmt.Sprintf("%s://%s/careersection/%d/jobdetail.ftl?job=%s",
		s.scheme, firm.Host, firm.Portal, id)

	return domain.Posting{
		SourceID: fmt.Sprintf("taleo-%s-%s", tenantKey(firm.Host), id),
		Title:    title,
		Firm:     firm.Name,
		Location: col(1),
		ApplyURL: applyURL,
		Source:   "Taleo",
		PostedAt: posted,
	}, true
}

func (s *Scraper) fetchPage(ctx context.Context, endpoint string, page int) (*searchResponse, error) {
	if err := s.limiter.WaitURL(ctx, endpoint); err != nil {
		return nil, err
	}

	var sr searchRequest
	sr.PageNo = page
	sr.SortingSelection.Sortby = "3" // most recent first
	sr.FieldData.Fields = []string{"TITLE", "LOCATION", "POSTINGDATE"}
	body, _ := json.Marshal(sr)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := s.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("taleo post: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("taleo status %d", res.StatusCode)
	}

	var out searchResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("taleo decode: %w", err)
	}
	return &out, nil
}

// tenantKey reduces a host like acme.taleo.net to its tenant label.
func tenantKey(host string) string {
	if i := strings.IndexByte(host, '.'); i > 0 {
		return host[:i]
	}
	return host
}
