package interfaces

import (
	"context"
	"time"

	"github.com/route07/riskcore/pkg/domain/model"
	"github.com/route07/riskcore/pkg/domain/types"
)

type SubjectRepository interface {
	// Get retrieves a subject by ID
	Get(ctx context.Context, id types.SubjectID) (*model.Subject, error)

	// Put stores a subject record
	Put(ctx context.Context, subject *model.Subject) error

	// ListPending retrieves subjects that have never been assessed,
	// up to limit
	ListPending(ctx context.Context, limit int) ([]*model.Subject, error)

	// UpdateRiskScore updates the cached aggregate score fields only
	UpdateRiskScore(ctx context.Context, id types.SubjectID, score int, level types.RiskLevel, assessedAt time.Time) error
}
