package domain

import "time"

// Function is the front office desk a posting belongs to.
// Empty string means unclassified.
type Function string

const (
	SalesTrading   Function = "S&T"
	InvestmentBank Function = "IBD"
	AssetMgmt      Function = "AM"
	PrivateEquity  Function = "PE"
	Research       Function = "RM"
	PrivateBanking Function = "PB"
	QuantResearch  Function = "QR"
)

// Level is the seniority of a posting. Empty string means unclassified.
type Level string

const (
	Analyst   Level = "Analyst"
	Associate Level = "Associate"
	VP        Level = "VP"
	Director  Level = "Director"
	MD        Level = "MD"
	Partner   Level = "Partner"
)

// Posting is the canonical record every source adapter emits and the
// pipeline persists. SourceID is the sole dedup/upsert key.
type Posting struct {
	SourceID    string
	Title       string
	Firm        string
	Location    string
	Description string
	ApplyURL    string
	Source      string
	PostedAt    time.Time

	// Assigned by the classifier, never by an adapter.
	Function    Function
	Level       Level
	FrontOffice bool
	Approved    bool

	// Set outside the pipeline; exempts a row from expiry.
	Featured bool
}

// ParseFunction coerces a raw classifier value to a known Function,
// returning "" for anything outside the closed set.
func ParseFunction(s string) Function {
	switch Function(s) {
	case SalesTrading, InvestmentBank, AssetMgmt, PrivateEquity, Research, PrivateBanking, QuantResearch:
		return Function(s)
	}
	return ""
}

// ParseLevel coerces a raw classifier value to a known Level,
// returning "" for anything outside the closed set.
func ParseLevel(s string) Level {
	switch Level(s) {
	case Analyst, Associate, VP, Director, MD, Partner:
		return Level(s)
	}
	return ""
}
