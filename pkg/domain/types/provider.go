package types

// ProviderClass identifies one class of external provider for rate limiting
// and metrics. All calls within a class share the same outbound budget.
type ProviderClass string

const (
	ProviderWebIntel    ProviderClass = "web_intelligence"
	ProviderSanctions   ProviderClass = "sanctions"
	ProviderBreach      ProviderClass = "breach"
	ProviderDocAnalysis ProviderClass = "document_analysis"
	ProviderAIScoring   ProviderClass = "ai_scoring"
	ProviderLedger      ProviderClass = "ledger"
)

// String returns the string representation of the provider class
func (p ProviderClass) String() string {
	return string(p)
}

// FetchOutcome distinguishes a genuinely empty finding from a degraded fetch.
// Both carry the same zero-value result shape for scoring, but they must stay
// distinguishable in logs and metrics.
type FetchOutcome string

const (
	OutcomeHit      FetchOutcome = "hit"
	OutcomeEmpty    FetchOutcome = "empty"
	OutcomeDegraded FetchOutcome = "degraded"
)

// String returns the string representation of the fetch outcome
func (o FetchOutcome) String() string {
	return string(o)
}
