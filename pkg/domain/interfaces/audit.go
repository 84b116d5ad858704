package interfaces

import (
	"context"

	"github.com/route07/riskcore/pkg/domain/model"
	"github.com/route07/riskcore/pkg/domain/types"
)

type AuditRepository interface {
	// Append stores one assessment event. Events are never updated or
	// deleted after append.
	Append(ctx context.Context, event *model.AuditEvent) error

	// ListBySubject retrieves audit events for a subject in append order
	ListBySubject(ctx context.Context, subjectID types.SubjectID) ([]*model.AuditEvent, error)
}
