package interfaces

import (
	"context"

	"github.com/route07/riskcore/pkg/domain/model"
)

// AuditPublisher fans a completed audit event out to an external stream.
// Best-effort like the ledger mirror: publish failures are logged by the
// caller and never fail the assessment.
type AuditPublisher interface {
	Publish(ctx context.Context, event *model.AuditEvent) error
	Close()
}
