package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"frontoffice-engine/internal/domain"
)

const (
	defaultModel    = "claude-haiku-4-5-20251001"
	llmBatchSize    = 20
	anthropicAPIURL = "https://api.anthropic.com/v1/messages"
)

const taskPrompt = `You are classifying finance job postings for a front office jobs board.

FRONT OFFICE (revenue-generating) roles include:
- Sales & Trading (equities, fixed income, FX, commodities, derivatives, structured products)
- Investment Banking (M&A advisory, ECM, DCM, leveraged finance, coverage)
- Asset Management (portfolio management, fund management, hedge fund strategies)
- Private Equity / Venture Capital / Infrastructure investing
- Equity Research / Credit Research / Market Strategy
- Private Banking / Wealth Management (client-facing coverage)
- Quantitative Research (strategy and alpha research, not quant dev)

NOT front office (reject these):
- Operations, middle office, back office
- Technology / Software Engineering / Quant Dev
- Compliance, Legal, Risk Management (non-trading)
- HR, Finance, Accounting, Admin
- Data Science (unless clearly investment-focused)

For each numbered posting below, respond with one JSON object per line, nothing else:
{"index": <n>, "is_front_office": true/false, "function": "S&T"|"IBD"|"AM"|"PE"|"RM"|"PB"|"QR"|null, "level": "Analyst"|"Associate"|"VP"|"Director"|"MD"|"Partner"|null}

Postings:
`

// LLM classifies batches of postings through the Anthropic messages API.
// The failure policy is reject-on-uncertainty: any posting the service
// does not answer for, and any batch whose call fails outright, defaults
// to not front office.
type LLM struct {
	apiKey string
	model  string
	apiURL string
	hc     *http.Client
	log    *zap.SugaredLogger
}

func NewLLM(apiKey, model string, log *zap.SugaredLogger) *LLM {
	if model == "" {
		model = defaultModel
	}
	return &LLM{
		apiKey: apiKey,
		model:  model,
		apiURL: anthropicAPIURL,
		hc:     &http.Client{Timeout: 30 * time.Second},
		log:    log,
	}
}

func (c *LLM) Classify(ctx context.Context, postings []domain.Posting) []Result {
	out := make([]Result, len(postings))
	for start := 0; start < len(postings); start += llmBatchSize {
		end := start + llmBatchSize
		if end > len(postings) {
			end = len(postings)
		}
		batch := postings[start:end]

		results, err := c.classifyBatch(ctx, batch)
		if err != nil {
			// whole batch stays at the reject default
			c.log.Warnw("classification call failed, rejecting batch",
				"batch_size", len(batch), "err", err)
			continue
		}
		copy(out[start:end], results)
	}
	return out
}

func (c *LLM) classifyBatch(ctx context.Context, batch []domain.Posting) ([]Result, error) {
	var b strings.Builder
	b.WriteString(taskPrompt)
	for i, p := range batch {
		fmt.Fprintf(&b, "%d: %q at %s\n", i, p.Title, p.Firm)
	}

	text, err := c.call(ctx, b.String())
	if err != nil {
		return nil, err
	}
	return parseBatchResponse(text, len(batch)), nil
}

// lineResult mirrors one response line from the classification service.
type lineResult struct {
	Index         *int    `json:"index"`
	IsFrontOffice bool    `json:"is_front_office"`
	Function      *string `json:"function"`
	Level         *string `json:"level"`
}

// parseBatchResponse reads one JSON object per line. Malformed lines and
// out-of-range indices are dropped; indices never answered keep the
// reject default. A garbage line can never invalidate the batch.
func parseBatchResponse(text string, n int) []Result {
	out := make([]Result, n)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var lr lineResult
		if err := json.Unmarshal([]byte(line), &lr); err != nil {
			continue
		}
		if lr.Index == nil || *lr.Index < 0 || *lr.Index >= n {
			continue
		}
		r := Result{FrontOffice: lr.IsFrontOffice}
		if lr.Function != nil {
			r.Function = domain.ParseFunction(*lr.Function)
		}
		if lr.Level != nil {
			r.Level = domain.ParseLevel(*lr.Level)
		}
		out[*lr.Index] = r
	}
	return out
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

func (c *LLM) call(ctx context.Context, prompt string) (string, error) {
	body, _ := json.Marshal(messagesRequest{
		Model:     c.model,
		MaxTokens: 2048,
		Messages:  []message{{Role: "user", Content: prompt}},
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("classification API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("classification API %d: %s", resp.StatusCode, string(b))
	}

	var mr messagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return "", err
	}
	if len(mr.Content) == 0 {
		return "", fmt.Errorf("empty classification response")
	}
	return mr.Content[0].Text, nil
}
