package interfaces

import (
	"context"

	"github.com/route07/riskcore/pkg/domain/model"
	"github.com/route07/riskcore/pkg/domain/types"
)

type ProfileRepository interface {
	// Get retrieves the risk profile for a subject
	Get(ctx context.Context, subjectID types.SubjectID) (*model.RiskProfile, error)

	// Upsert overwrites the dimensional and aggregate scores of the
	// subject's profile and appends the given new factors to its history.
	// The factor history is never truncated or rewritten. Two concurrent
	// upserts for the same subject must not interleave their appends.
	Upsert(ctx context.Context, profile *model.RiskProfile, newFactors []model.RiskFactor) (*model.RiskProfile, error)

	// ListHighRisk retrieves profiles whose aggregate score is at least
	// minScore, ordered by score descending
	ListHighRisk(ctx context.Context, minScore int) ([]*model.RiskProfile, error)
}
