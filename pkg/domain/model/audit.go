package model

import (
	"time"

	"github.com/route07/riskcore/pkg/domain/types"
)

// AuditEvent summarizes one completed assessment run. Events are write-once
// and append-only; the audit sink never updates or deletes them.
type AuditEvent struct {
	ID        types.EventID
	SubjectID types.SubjectID

	DimensionScores map[types.Dimension]int
	AggregateScore  int
	AggregateLevel  types.RiskLevel

	// Confidence and Sources describe the web-intelligence signal quality
	// for this run. Advisory only.
	Confidence int
	Sources    []string

	Severity  types.RiskLevel
	CreatedAt time.Time
}

// NewAuditEvent builds the audit record for a finished assessment
func NewAuditEvent(result *AssessmentResult, now time.Time) *AuditEvent {
	scores := make(map[types.Dimension]int, len(result.Dimensions))
	for _, d := range result.Dimensions {
		scores[d.Dimension] = d.Score
	}

	return &AuditEvent{
		ID:              types.NewEventID(),
		SubjectID:       result.SubjectID,
		DimensionScores: scores,
		AggregateScore:  result.AggregateScore,
		AggregateLevel:  result.AggregateLevel,
		Confidence:      result.WebIntel.Confidence,
		Sources:         result.WebIntel.Sources,
		Severity:        result.AggregateLevel,
		CreatedAt:       now.UTC(),
	}
}
