package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/route07/riskcore/pkg/domain/model"
	"github.com/route07/riskcore/pkg/domain/types"
)

type subjectRepository struct {
	mu       sync.RWMutex
	subjects map[types.SubjectID]*model.Subject
}

func newSubjectRepository() *subjectRepository {
	return &subjectRepository{
		subjects: make(map[types.SubjectID]*model.Subject),
	}
}

func (r *subjectRepository) Get(ctx context.Context, id types.SubjectID) (*model.Subject, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	subject, exists := r.subjects[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "subject not found", goerr.V("id", id))
	}

	// Return a copy to prevent external modification
	copied := *subject
	return &copied, nil
}

func (r *subjectRepository) Put(ctx context.Context, subject *model.Subject) error {
	if err := subject.ID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid subject ID")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *subject
	r.subjects[subject.ID] = &copied
	return nil
}

func (r *subjectRepository) ListPending(ctx context.Context, limit int) ([]*model.Subject, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var pending []*model.Subject
	for _, subject := range r.subjects {
		if subject.Pending() {
			copied := *subject
			pending = append(pending, &copied)
		}
	}

	sort.Slice(pending, func(i, j int) bool {
		return pending[i].ID < pending[j].ID
	})

	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

func (r *subjectRepository) UpdateRiskScore(ctx context.Context, id types.SubjectID, score int, level types.RiskLevel, assessedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	subject, exists := r.subjects[id]
	if !exists {
		return goerr.Wrap(ErrNotFound, "subject not found", goerr.V("id", id))
	}

	subject.RiskScore = score
	subject.RiskLevel = level
	subject.LastAssessed = assessedAt.UTC()
	return nil
}
