package model

import (
	"time"

	"github.com/route07/riskcore/pkg/domain/types"
)

// AssessmentResult is the outcome of one complete orchestration run
type AssessmentResult struct {
	SubjectID types.SubjectID

	Dimensions     []DimensionScore
	AggregateScore int
	AggregateLevel types.RiskLevel

	WebIntel WebIntelScore
	Factors  []RiskFactor

	AssessedAt time.Time
}

// Dimension returns the score for the named dimension, if present
func (r *AssessmentResult) Dimension(d types.Dimension) (DimensionScore, bool) {
	for _, score := range r.Dimensions {
		if score.Dimension == d {
			return score, true
		}
	}
	return DimensionScore{}, false
}
