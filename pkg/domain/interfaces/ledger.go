package interfaces

import (
	"context"

	"github.com/route07/riskcore/pkg/domain/model"
	"github.com/route07/riskcore/pkg/domain/types"
)

// LedgerMirror mirrors an aggregate score to an external ledger. Best-effort:
// a mirror failure is logged by the caller and never fails the assessment.
type LedgerMirror interface {
	MirrorScore(ctx context.Context, walletAddress string, score int, level types.RiskLevel) error
}

// Notifier delivers out-of-band alerts for completed assessments
type Notifier interface {
	NotifyHighRisk(ctx context.Context, subject *model.Subject, result *model.AssessmentResult) error
}
