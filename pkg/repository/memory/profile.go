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

type profileRepository struct {
	mu       sync.Mutex
	profiles map[types.SubjectID]*model.RiskProfile
}

func newProfileRepository() *profileRepository {
	return &profileRepository{
		profiles: make(map[types.SubjectID]*model.RiskProfile),
	}
}

func copyProfile(p *model.RiskProfile) *model.RiskProfile {
	copied := *p
	copied.Factors = make([]model.RiskFactor, len(p.Factors))
	copy(copied.Factors, p.Factors)
	return &copied
}

func (r *profileRepository) Get(ctx context.Context, subjectID types.SubjectID) (*model.RiskProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	profile, exists := r.profiles[subjectID]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "risk profile not found", goerr.V("subjectID", subjectID))
	}

	return copyProfile(profile), nil
}

// Upsert replaces the score fields and appends the new factors under the
// repository lock, so two concurrent assessments of the same subject cannot
// interleave their appends. The existing factor history is never rewritten.
func (r *profileRepository) Upsert(ctx context.Context, profile *model.RiskProfile, newFactors []model.RiskFactor) (*model.RiskProfile, error) {
	if err := profile.SubjectID.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid subject ID")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.profiles[profile.SubjectID]
	if !exists {
		existing = &model.RiskProfile{SubjectID: profile.SubjectID}
		r.profiles[profile.SubjectID] = existing
	}

	existing.Identity = profile.Identity
	existing.Industry = profile.Industry
	existing.Network = profile.Network
	existing.Security = profile.Security
	existing.AggregateScore = profile.AggregateScore
	existing.AggregateLevel = profile.AggregateLevel
	existing.Factors = append(existing.Factors, newFactors...)
	existing.LastUpdated = time.Now().UTC()
	if !profile.LastUpdated.IsZero() {
		existing.LastUpdated = profile.LastUpdated.UTC()
	}

	return copyProfile(existing), nil
}

func (r *profileRepository) ListHighRisk(ctx context.Context, minScore int) ([]*model.RiskProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []*model.RiskProfile
	for _, profile := range r.profiles {
		if profile.AggregateScore >= minScore {
			matched = append(matched, copyProfile(profile))
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].AggregateScore != matched[j].AggregateScore {
			return matched[i].AggregateScore > matched[j].AggregateScore
		}
		return matched[i].SubjectID < matched[j].SubjectID
	})

	return matched, nil
}
