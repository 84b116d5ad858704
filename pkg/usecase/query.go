package usecase

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/route07/riskcore/pkg/domain/model"
	"github.com/route07/riskcore/pkg/domain/types"
)

// ListHighRisk retrieves risk profiles with aggregate score of at least
// minScore, highest first
func (uc *UseCases) ListHighRisk(ctx context.Context, minScore int) ([]*model.RiskProfile, error) {
	if minScore < 0 || minScore > 100 {
		return nil, goerr.New("minScore must be within [0,100]", goerr.V("minScore", minScore))
	}

	profiles, err := uc.repo.Profile().ListHighRisk(ctx, minScore)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list high risk profiles")
	}
	return profiles, nil
}

// GetProfile retrieves the risk profile for one subject
func (uc *UseCases) GetProfile(ctx context.Context, subjectID types.SubjectID) (*model.RiskProfile, error) {
	if err := subjectID.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid subject ID")
	}

	profile, err := uc.repo.Profile().Get(ctx, subjectID)
	if err != nil {
		if errors.Is(err, types.ErrRecordNotFound) {
			return nil, goerr.Wrap(ErrSubjectNotFound, "no risk profile for subject",
				goerr.V(SubjectIDKey, subjectID))
		}
		return nil, goerr.Wrap(err, "failed to get risk profile", goerr.V(SubjectIDKey, subjectID))
	}
	return profile, nil
}

// ListAuditEvents retrieves the assessment history for one subject in
// append order
func (uc *UseCases) ListAuditEvents(ctx context.Context, subjectID types.SubjectID) ([]*model.AuditEvent, error) {
	if err := subjectID.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid subject ID")
	}

	events, err := uc.repo.Audit().ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list audit events", goerr.V(SubjectIDKey, subjectID))
	}
	return events, nil
}
