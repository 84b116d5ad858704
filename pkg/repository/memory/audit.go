package memory

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/route07/riskcore/pkg/domain/model"
	"github.com/route07/riskcore/pkg/domain/types"
)

type auditRepository struct {
	mu     sync.RWMutex
	events []*model.AuditEvent
}

func newAuditRepository() *auditRepository {
	return &auditRepository{}
}

func copyEvent(e *model.AuditEvent) *model.AuditEvent {
	copied := *e
	copied.DimensionScores = make(map[types.Dimension]int, len(e.DimensionScores))
	for k, v := range e.DimensionScores {
		copied.DimensionScores[k] = v
	}
	copied.Sources = append([]string(nil), e.Sources...)
	return &copied
}

func (r *auditRepository) Append(ctx context.Context, event *model.AuditEvent) error {
	if event.ID == "" {
		return goerr.New("audit event ID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, copyEvent(event))
	return nil
}

func (r *auditRepository) ListBySubject(ctx context.Context, subjectID types.SubjectID) ([]*model.AuditEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var events []*model.AuditEvent
	for _, event := range r.events {
		if event.SubjectID == subjectID {
			events = append(events, copyEvent(event))
		}
	}

	return events, nil
}
