package model

import (
	"time"

	"github.com/route07/riskcore/pkg/domain/types"
)

// WebIntelFinding is one normalized public-web intelligence finding
type WebIntelFinding struct {
	Title    string
	Snippet  string
	URL      string
	Severity types.RiskLevel
	Category types.FactorType
}

// WebIntelResult is the normalized output of the web-intelligence adapter
type WebIntelResult struct {
	Findings []WebIntelFinding
	Outcome  types.FetchOutcome
}

// SanctionsHit is one match against a sanctions or watch list
type SanctionsHit struct {
	ListName    string
	MatchedName string
	ExactMatch  bool
	Details     string
}

// SanctionsResult is the normalized output of the sanctions adapter
type SanctionsResult struct {
	Hits    []SanctionsHit
	Outcome types.FetchOutcome
}

// BreachHit is one data breach occurrence tied to the subject
type BreachHit struct {
	Name       string
	Domain     string
	Confirmed  bool
	BreachDate time.Time
}

// BreachResult is the normalized output of the breach adapter
type BreachResult struct {
	Breaches []BreachHit
	Outcome  types.FetchOutcome
}

// WebIntelScore holds the two independently computed web-intelligence
// signals. Score feeds factor derivation; Confidence is advisory metadata
// carried into the audit event, never combined with Score.
type WebIntelScore struct {
	Score      int
	Level      types.RiskLevel
	Confidence int
	Sources    []string
}

// IntelBundle is the ephemeral per-assessment container of all normalized
// provider outputs. It exists for the duration of one run only; what persists
// are the factors derived from it.
type IntelBundle struct {
	WebIntel  WebIntelResult
	Sanctions SanctionsResult
	Breaches  BreachResult
	Documents []DocumentFinding
}

// SourcesAvailable lists the provider sources that returned usable data
func (b *IntelBundle) SourcesAvailable() []string {
	var sources []string
	if b.WebIntel.Outcome == types.OutcomeHit {
		sources = append(sources, types.ProviderWebIntel.String())
	}
	if b.Sanctions.Outcome == types.OutcomeHit {
		sources = append(sources, types.ProviderSanctions.String())
	}
	if b.Breaches.Outcome == types.OutcomeHit {
		sources = append(sources, types.ProviderBreach.String())
	}
	return sources
}
