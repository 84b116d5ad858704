package model

import (
	"time"

	"github.com/route07/riskcore/pkg/domain/types"
)

// DimensionScore is one dimensional risk score. Level must always be
// consistent with Score under the fixed thresholds; Normalize enforces that
// together with the [0,100] clamp.
type DimensionScore struct {
	Dimension types.Dimension
	Score     int
	Level     types.RiskLevel
	Factors   []string
	Reasoning string
}

// Normalize clamps the score into [0,100] and re-derives the level
func (d *DimensionScore) Normalize() {
	if d.Score < 0 {
		d.Score = 0
	}
	if d.Score > 100 {
		d.Score = 100
	}
	d.Level = types.LevelForScore(d.Score)
}

// RiskFactor is one immutable, attributed, timestamped contributor to a
// subject's risk history. Factors are appended and never mutated or deleted.
type RiskFactor struct {
	ID          types.FactorID
	Type        types.FactorType
	Description string
	Severity    types.RiskLevel
	Source      types.FactorSource
	CreatedAt   time.Time
}

// RiskProfile is the one-per-subject aggregate of the latest assessment plus
// the append-only factor history.
type RiskProfile struct {
	SubjectID types.SubjectID

	Identity DimensionScore
	Industry DimensionScore
	Network  DimensionScore
	Security DimensionScore

	AggregateScore int
	AggregateLevel types.RiskLevel

	Factors     []RiskFactor
	LastUpdated time.Time
}

// Dimensions returns the four dimensional scores in canonical order
func (p *RiskProfile) Dimensions() []DimensionScore {
	return []DimensionScore{p.Identity, p.Industry, p.Network, p.Security}
}

// SetDimension stores a dimensional score into its slot
func (p *RiskProfile) SetDimension(score DimensionScore) {
	switch score.Dimension {
	case types.DimensionIdentity:
		p.Identity = score
	case types.DimensionIndustry:
		p.Industry = score
	case types.DimensionNetwork:
		p.Network = score
	case types.DimensionSecurity:
		p.Security = score
	}
}
