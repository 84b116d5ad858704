package interfaces

import (
	"context"

	"github.com/route07/riskcore/pkg/domain/model"
)

// WebIntelService fetches public-web intelligence about a subject.
// Implementations degrade on error: they log the failure and return a typed
// zero result with OutcomeDegraded instead of an error. The error return is
// reserved for context cancellation.
type WebIntelService interface {
	Search(ctx context.Context, subject *model.Subject) (model.WebIntelResult, error)
}

// SanctionsService checks a subject against sanctions and watch lists
type SanctionsService interface {
	Check(ctx context.Context, subject *model.Subject) (model.SanctionsResult, error)
}

// BreachService checks a subject's identifiers against breach corpora
type BreachService interface {
	Check(ctx context.Context, subject *model.Subject) (model.BreachResult, error)
}

// DocumentAnalyzer produces an AI analysis of a single document. Unlike the
// other adapters it returns its error: per-document failures are collected
// into fan-out slots by the orchestrator, not absorbed here.
type DocumentAnalyzer interface {
	Analyze(ctx context.Context, doc *model.Document) (*model.DocumentAnalysis, error)
}

// DimensionScorer produces the four dimensional scores plus aggregate from
// the gathered intelligence. A malformed provider response is fatal and
// must surface as an error; it is never coerced into a partial result.
type DimensionScorer interface {
	AssessDimensions(ctx context.Context, subject *model.Subject, bundle *model.IntelBundle) ([]model.DimensionScore, error)
}
