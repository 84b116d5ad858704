package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/route07/riskcore/pkg/domain/model"
	"github.com/route07/riskcore/pkg/domain/types"
	"github.com/route07/riskcore/pkg/service/scoring"
	"github.com/route07/riskcore/pkg/utils/errutil"
	"github.com/route07/riskcore/pkg/utils/logging"
	"golang.org/x/sync/errgroup"
)

// Assess runs one complete assessment for the subject: gather intelligence,
// score, derive factors, persist, then fan out best-effort mirrors. Provider
// degradation never aborts a run; a malformed AI scoring response does, with
// zero writes.
func (uc *UseCases) Assess(ctx context.Context, subjectID types.SubjectID) (*model.AssessmentResult, error) {
	if err := subjectID.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid subject ID")
	}

	start := uc.now()
	result, err := uc.assess(ctx, subjectID)
	uc.metrics.ObserveAssessmentLatency(time.Since(start))
	if err != nil {
		uc.metrics.CountAssessment("failed")
		return nil, err
	}
	uc.metrics.CountAssessment("succeeded")
	return result, nil
}

func (uc *UseCases) assess(ctx context.Context, subjectID types.SubjectID) (*model.AssessmentResult, error) {
	subject, err := uc.repo.Subject().Get(ctx, subjectID)
	if err != nil {
		if errors.Is(err, types.ErrRecordNotFound) {
			return nil, goerr.Wrap(ErrSubjectNotFound, "cannot assess unknown subject",
				goerr.V(SubjectIDKey, subjectID))
		}
		return nil, goerr.Wrap(err, "failed to load subject", goerr.V(SubjectIDKey, subjectID))
	}

	bundle, err := uc.gather(ctx, subject)
	if err != nil {
		return nil, err
	}

	dimensions, err := uc.scorer.AssessDimensions(ctx, subject, bundle)
	if err != nil {
		return nil, goerr.Wrap(err, "AI scoring failed", goerr.V(SubjectIDKey, subjectID))
	}

	aggregate, level := scoring.Aggregate(dimensions)
	now := uc.now()

	result := &model.AssessmentResult{
		SubjectID:      subjectID,
		Dimensions:     dimensions,
		AggregateScore: aggregate,
		AggregateLevel: level,
		WebIntel:       scoring.ScoreWebIntel(bundle),
		Factors:        scoring.DeriveFactors(dimensions, bundle, now),
		AssessedAt:     now,
	}

	// All intelligence is gathered and scored; refuse to persist a result
	// for a run whose context has already been cancelled.
	if err := ctx.Err(); err != nil {
		return nil, goerr.Wrap(err, "assessment cancelled before persistence",
			goerr.V(SubjectIDKey, subjectID))
	}

	if err := uc.persist(ctx, subject, result, bundle); err != nil {
		return nil, err
	}

	uc.fanOut(ctx, subject, result)

	return result, nil
}

// gather runs all intelligence adapters concurrently and joins their
// results. Adapters degrade internally; the only errors that propagate out
// of this stage are context cancellations.
func (uc *UseCases) gather(ctx context.Context, subject *model.Subject) (*model.IntelBundle, error) {
	bundle := &model.IntelBundle{
		WebIntel:  model.WebIntelResult{Outcome: types.OutcomeDegraded},
		Sanctions: model.SanctionsResult{Outcome: types.OutcomeDegraded},
		Breaches:  model.BreachResult{Outcome: types.OutcomeDegraded},
	}

	eg, ctx := errgroup.WithContext(ctx)

	if uc.webIntel != nil {
		eg.Go(func() error {
			result, err := uc.webIntel.Search(ctx, subject)
			if err != nil {
				return err
			}
			bundle.WebIntel = result
			return nil
		})
	}

	if uc.sanctions != nil {
		eg.Go(func() error {
			result, err := uc.sanctions.Check(ctx, subject)
			if err != nil {
				return err
			}
			bundle.Sanctions = result
			return nil
		})
	}

	if uc.breach != nil {
		eg.Go(func() error {
			result, err := uc.breach.Check(ctx, subject)
			if err != nil {
				return err
			}
			bundle.Breaches = result
			return nil
		})
	}

	eg.Go(func() error {
		findings, err := uc.analyzeDocuments(ctx, subject)
		if err != nil {
			return err
		}
		bundle.Documents = findings
		return nil
	})

	if err := eg.Wait(); err != nil {
		return nil, goerr.Wrap(err, "intelligence gathering aborted",
			goerr.V(SubjectIDKey, subject.ID))
	}

	return bundle, nil
}

// analyzeDocuments fans out one analysis per document and joins all of them.
// Every document gets a result slot holding either the analysis or that
// document's failure; one bad document never hides the others.
func (uc *UseCases) analyzeDocuments(ctx context.Context, subject *model.Subject) ([]model.DocumentFinding, error) {
	docs, err := uc.repo.Document().ListBySubject(ctx, subject.ID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list documents", goerr.V(SubjectIDKey, subject.ID))
	}
	if len(docs) == 0 {
		return nil, nil
	}

	findings := make([]model.DocumentFinding, len(docs))

	if uc.docAnalyzer == nil {
		for i, doc := range docs {
			findings[i] = model.DocumentFinding{DocumentID: doc.ID, Err: ErrNoDocumentAnalyzer}
		}
		return findings, nil
	}

	eg, ctx := errgroup.WithContext(ctx)
	for i, doc := range docs {
		eg.Go(func() error {
			analysis, err := uc.docAnalyzer.Analyze(ctx, doc)
			if err != nil {
				if ctx.Err() != nil {
					return err
				}
				logging.From(ctx).Warn("document analysis failed",
					"documentID", doc.ID,
					"error", err)
				findings[i] = model.DocumentFinding{DocumentID: doc.ID, Err: err}
				return nil
			}
			findings[i] = model.DocumentFinding{DocumentID: doc.ID, Analysis: analysis}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return findings, nil
}

// persist writes the three primary records. The writes are independent:
// each is attempted even when an earlier one failed, and all failures are
// reported together.
func (uc *UseCases) persist(ctx context.Context, subject *model.Subject, result *model.AssessmentResult, bundle *model.IntelBundle) error {
	var errs []error

	profile := &model.RiskProfile{
		SubjectID:      subject.ID,
		AggregateScore: result.AggregateScore,
		AggregateLevel: result.AggregateLevel,
		LastUpdated:    result.AssessedAt,
	}
	for _, dim := range result.Dimensions {
		profile.SetDimension(dim)
	}

	if _, err := uc.repo.Profile().Upsert(ctx, profile, result.Factors); err != nil {
		errs = append(errs, errutil.Handle(ctx, err, "failed to upsert risk profile"))
	}

	event := model.NewAuditEvent(result, result.AssessedAt)
	if err := uc.repo.Audit().Append(ctx, event); err != nil {
		errs = append(errs, errutil.Handle(ctx, err, "failed to append audit event"))
	} else {
		uc.publishAudit(ctx, event)
	}

	if err := uc.repo.Subject().UpdateRiskScore(ctx, subject.ID, result.AggregateScore, result.AggregateLevel, result.AssessedAt); err != nil {
		errs = append(errs, errutil.Handle(ctx, err, "failed to update cached risk score"))
	}

	// Document annotations are secondary: a failed attach is logged and
	// never fails the run.
	for _, finding := range bundle.Documents {
		if finding.Analysis == nil {
			continue
		}
		if err := uc.repo.Document().AttachAnalysis(ctx, finding.DocumentID, finding.Analysis); err != nil {
			_ = errutil.Handle(ctx, err, "failed to attach document analysis")
		}
	}

	if len(errs) > 0 {
		return goerr.Wrap(errors.Join(errs...), "assessment persistence incomplete",
			goerr.V(SubjectIDKey, subject.ID))
	}
	return nil
}

// fanOut runs the best-effort post-persistence stages. Failures here are
// logged and never surface to the caller.
func (uc *UseCases) fanOut(ctx context.Context, subject *model.Subject, result *model.AssessmentResult) {
	if uc.ledger != nil && subject.WalletAddress != "" {
		if err := uc.ledger.MirrorScore(ctx, subject.WalletAddress, result.AggregateScore, result.AggregateLevel); err != nil {
			_ = errutil.Handle(ctx, err, "failed to mirror score to ledger")
		}
	}

	if uc.notifier != nil {
		if err := uc.notifier.NotifyHighRisk(ctx, subject, result); err != nil {
			_ = errutil.Handle(ctx, err, "failed to send risk notification")
		}
	}
}

func (uc *UseCases) publishAudit(ctx context.Context, event *model.AuditEvent) {
	if uc.publisher == nil {
		return
	}
	if err := uc.publisher.Publish(ctx, event); err != nil {
		_ = errutil.Handle(ctx, err, "failed to publish audit event")
	}
}
