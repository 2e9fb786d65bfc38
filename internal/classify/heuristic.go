package classify

import (
	"context"
	"strings"

	"frontoffice-engine/internal/domain"
)

// Heuristic classifies by ordered title pattern matching. It is used for
// sources already known to carry finance postings, where the real work
// is rejecting support functions and tagging desk/seniority. Pure and
// deterministic; never does I/O.
type Heuristic struct{}

// excludeKeywords reject support functions even at finance firms.
// "quant" is handled separately before this list applies.
var excludeKeywords = []string{
	"software", "engineer", "engineering", "developer", "devops", " sre ",
	"technology", "infrastructure", "data scientist", "data engineer",
	"machine learning", "security analyst", " it ",
	"operations", "middle office", "back office", "settlement",
	"compliance", "kyc", "aml", "regulatory",
	"legal", "counsel", "paralegal",
	"human resources", " hr ", "recruiter", "recruiting", "talent",
	"accounting", "accountant", "controller", "audit", "tax", "payroll",
	"administrative", "executive assistant", "receptionist",
	"marketing", "communications", "facilities", "helpdesk",
	"risk management", "risk analyst", "model validation",
}

// functionPatterns is ordered; the first matching desk wins.
var functionPatterns = []struct {
	fn       domain.Function
	keywords []string
}{
	{domain.PrivateEquity, []string{
		"private equity", "venture capital", "buyout", "growth equity",
		"infrastructure invest", "private credit",
	}},
	{domain.PrivateBanking, []string{
		"private bank", "wealth management", "private client",
		"relationship manager",
	}},
	{domain.Research, []string{
		"equity research", "credit research", "research analyst",
		"market strategist", "macro strategist", "strategist",
	}},
	{domain.InvestmentBank, []string{
		"investment banking", "m&a", "mergers", "ecm", "dcm",
		"leveraged finance", "capital markets", "corporate finance",
		"coverage banker", "syndicate",
	}},
	{domain.SalesTrading, []string{
		"trader", "trading", "sales & trading", "equities sales",
		"fixed income", "fx sales", "derivatives", "structured products",
		"commodities", "market making", "execution",
	}},
	{domain.AssetMgmt, []string{
		"portfolio manager", "portfolio management", "asset management",
		"fund manager", "hedge fund", "investment management",
		"investment analyst",
	}},
}

// levelPatterns is ordered so compound titles resolve to the senior
// reading ("managing director" before "director"). Matching is on word
// boundaries so "vp" never fires inside "svp".
var levelPatterns = []struct {
	lvl      domain.Level
	keywords []string
}{
	{domain.MD, []string{"managing director", "md"}},
	{domain.Partner, []string{"partner"}},
	{domain.Director, []string{"director"}},
	{domain.VP, []string{"vice president", "vp"}},
	{domain.Associate, []string{"associate"}},
	{domain.Analyst, []string{"analyst", "intern", "graduate"}},
}

func (Heuristic) Classify(_ context.Context, postings []domain.Posting) []Result {
	out := make([]Result, len(postings))
	for i, p := range postings {
		out[i] = classifyTitle(p.Title)
	}
	return out
}

func classifyTitle(title string) Result {
	t := " " + strings.ToLower(title) + " "

	// Quant roles split on research vs build: researchers are front
	// office, developers and engineers are not.
	if strings.Contains(t, "quant") {
		if strings.Contains(t, "developer") || strings.Contains(t, "engineer") || strings.Contains(t, " dev") {
			return Result{}
		}
		if strings.Contains(t, "research") {
			return Result{FrontOffice: true, Function: domain.QuantResearch, Level: matchLevel(t)}
		}
	}

	for _, kw := range excludeKeywords {
		if strings.Contains(t, kw) {
			return Result{}
		}
	}

	// Ambiguous titles at finance firms lean toward inclusion: anything
	// not excluded above is front office, tagged where a desk matches.
	return Result{FrontOffice: true, Function: matchFunction(t), Level: matchLevel(t)}
}

func matchFunction(t string) domain.Function {
	for _, fp := range functionPatterns {
		for _, kw := range fp.keywords {
			if strings.Contains(t, kw) {
				return fp.fn
			}
		}
	}
	return ""
}

func matchLevel(t string) domain.Level {
	for _, lp := range levelPatterns {
		for _, kw := range lp.keywords {
			if containsToken(t, kw) {
				return lp.lvl
			}
		}
	}
	return ""
}

// containsToken reports whether kw occurs in t bounded by non-letter
// characters on both sides.
func containsToken(t, kw string) bool {
	for i := 0; ; {
		j := strings.Index(t[i:], kw)
		if j < 0 {
			return false
		}
		j += i
		before := j == 0 || !isLetter(t[j-1])
		after := j+len(kw) == len(t) || !isLetter(t[j+len(kw)])
		if before && after {
			return true
		}
		i = j + 1
	}
}

func isLetter(b byte) bool { return b >= 'a' && b <= 'z' }
