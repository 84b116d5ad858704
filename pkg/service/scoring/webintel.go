package scoring

import (
	"math"

	"github.com/route07/riskcore/pkg/domain/model"
	"github.com/route07/riskcore/pkg/domain/types"
)

// Severity-weighted contributions per web-intelligence finding.
const (
	weightCritical = 25
	weightHigh     = 15
	weightMedium   = 10
	weightLow      = 5

	weightSanctionsExact  = 50
	weightConfirmedBreach = 20
)

// Confidence points per source with data present. Normalized against the
// sources that actually responded this run.
const (
	confidenceWebIntel  = 30
	confidenceSanctions = 25
	confidenceBreach    = 25
)

func severityWeight(level types.RiskLevel) int {
	switch level {
	case types.RiskLevelCritical:
		return weightCritical
	case types.RiskLevelHigh:
		return weightHigh
	case types.RiskLevelMedium:
		return weightMedium
	default:
		return weightLow
	}
}

// ScoreWebIntel computes the web-intelligence-derived risk score and
// confidence from the gathered bundle. The two values are independent: the
// score feeds factor derivation, the confidence is advisory metadata.
func ScoreWebIntel(bundle *model.IntelBundle) model.WebIntelScore {
	score := 0
	for _, f := range bundle.WebIntel.Findings {
		score += severityWeight(f.Severity)
	}
	for _, h := range bundle.Sanctions.Hits {
		if h.ExactMatch {
			score += weightSanctionsExact
		} else {
			score += severityWeight(types.RiskLevelHigh)
		}
	}
	for _, b := range bundle.Breaches.Breaches {
		if b.Confirmed {
			score += weightConfirmedBreach
		} else {
			score += severityWeight(types.RiskLevelLow)
		}
	}

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}

	return model.WebIntelScore{
		Score:      score,
		Level:      types.LevelForScore(score),
		Confidence: confidence(bundle),
		Sources:    bundle.SourcesAvailable(),
	}
}

// confidence sums per-source points for sources that returned data and
// normalizes against the sources that were reachable at all. A degraded
// source neither contributes nor counts toward the denominator; zero
// reachable sources means zero confidence.
func confidence(bundle *model.IntelBundle) int {
	points, max := 0, 0

	add := func(outcome types.FetchOutcome, weight int) {
		if outcome == types.OutcomeDegraded {
			return
		}
		max += weight
		if outcome == types.OutcomeHit {
			points += weight
		}
	}

	add(bundle.WebIntel.Outcome, confidenceWebIntel)
	add(bundle.Sanctions.Outcome, confidenceSanctions)
	add(bundle.Breaches.Outcome, confidenceBreach)

	if max == 0 {
		return 0
	}
	return int(math.Round(float64(points) * 100 / float64(max)))
}
