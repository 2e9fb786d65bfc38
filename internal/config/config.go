package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Env holds process configuration, read from environment variables only.
// Store and classifier credentials are mandatory; aggregator credentials
// are optional and merely disable that source when absent.
type Env struct {
	DatabaseURL  string
	AnthropicKey string
	Model        string

	AdzunaAppID  string
	AdzunaAppKey string

	// Sources is the allow-list from the SOURCES variable; empty means
	// all configured sources.
	Sources []string

	SourcesFile string
	LogLevel    string
	LogFormat   string
}

// FromEnv reads and validates environment configuration. Missing
// mandatory variables return an error naming the variable.
func FromEnv() (Env, error) {
	e := Env{
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		AnthropicKey: os.Getenv("ANTHROPIC_API_KEY"),
		Model:        os.Getenv("ANTHROPIC_MODEL"),
		AdzunaAppID:  os.Getenv("ADZUNA_APP_ID"),
		AdzunaAppKey: os.Getenv("ADZUNA_APP_KEY"),
		Sources:      SplitSources(os.Getenv("SOURCES")),
		SourcesFile:  os.Getenv("SOURCES_FILE"),
		LogLevel:     os.Getenv("LOG_LEVEL"),
		LogFormat:    os.Getenv("LOG_FORMAT"),
	}
	if e.DatabaseURL == "" {
		return e, fmt.Errorf("missing required environment variable DATABASE_URL")
	}
	if e.AnthropicKey == "" {
		return e, fmt.Errorf("missing required environment variable ANTHROPIC_API_KEY")
	}
	if e.SourcesFile == "" {
		e.SourcesFile = "config/sources.yml"
	}
	return e, nil
}

// SplitSources parses the comma-separated SOURCES allow-list.
func SplitSources(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []string
	for _, s := range strings.Split(raw, ",") {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Firm describes one employer on an ATS board. Slugs are tried in order
// and the first one returning postings wins, so a firm listed under two
// historical identifiers is never counted twice.
type Firm struct {
	Name  string   `yaml:"name"`
	Slugs []string `yaml:"slugs"`
}

// WorkdayFirm carries the extra routing a Workday tenant needs.
type WorkdayFirm struct {
	Name   string `yaml:"name"`
	Host   string `yaml:"host"`
	Tenant string `yaml:"tenant"`
	Site   string `yaml:"site"`
}

// TaleoFirm routes one Taleo career section.
type TaleoFirm struct {
	Name   string `yaml:"name"`
	Host   string `yaml:"host"`
	Portal int    `yaml:"portal"`
}

// Feed is one RSS endpoint.
type Feed struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// Query is one aggregator search.
type Query struct {
	What  string `yaml:"what"`
	Where string `yaml:"where"`
}

// Sources is the externally loaded source descriptor table. Firm lists
// and queries are data, not code; the engine is parametrized over this.
type Sources struct {
	Pacing struct {
		RequestsPerSecond float64 `yaml:"requests_per_second"`
		Burst             int     `yaml:"burst"`
	} `yaml:"pacing"`

	Greenhouse struct {
		Firms []Firm `yaml:"firms"`
	} `yaml:"greenhouse"`

	Lever struct {
		Firms []Firm `yaml:"firms"`
	} `yaml:"lever"`

	Workday struct {
		Firms []WorkdayFirm `yaml:"firms"`
	} `yaml:"workday"`

	Taleo struct {
		Firms []TaleoFirm `yaml:"firms"`
	} `yaml:"taleo"`

	ICIMS struct {
		Firms []Firm `yaml:"firms"`
	} `yaml:"icims"`

	EFinancialCareers struct {
		Feeds []Feed `yaml:"feeds"`
	} `yaml:"efinancialcareers"`

	Adzuna struct {
		Country string  `yaml:"country"`
		Queries []Query `yaml:"queries"`
	} `yaml:"adzuna"`

	TheMuse struct {
		Categories []string `yaml:"categories"`
		MaxPages   int      `yaml:"max_pages"`
	} `yaml:"themuse"`
}

// LoadSources reads the YAML source descriptor file.
func LoadSources(path string) (Sources, error) {
	var s Sources
	b, err := os.ReadFile(path)
	if err != nil {
		return s, err
	}
	if err := yaml.Unmarshal(b, &s); err != nil {
		return s, fmt.Errorf("parse %s: %w", path, err)
	}
	if s.Pacing.RequestsPerSecond == 0 {
		s.Pacing.RequestsPerSecond = 2
	}
	if s.Pacing.Burst == 0 {
		s.Pacing.Burst = 1
	}
	return s, nil
}
