package usecase

import (
	"context"
	"sync/atomic"

	"github.com/m-mizutani/goerr/v2"
	"github.com/route07/riskcore/pkg/domain/types"
	"github.com/route07/riskcore/pkg/utils/errutil"
	"github.com/route07/riskcore/pkg/utils/logging"
	"golang.org/x/sync/errgroup"
)

// SweepSummary reports the outcome of one batch sweep
type SweepSummary struct {
	Processed int
	Succeeded int
	Failed    int
}

// Sweep assesses every never-assessed subject, up to limit, with bounded
// concurrency. A failed subject is counted and skipped; it never aborts the
// rest of the batch.
func (uc *UseCases) Sweep(ctx context.Context, limit int) (*SweepSummary, error) {
	subjects, err := uc.repo.Subject().ListPending(ctx, limit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list pending subjects")
	}

	var succeeded, failed atomic.Int64

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(uc.sweepConcurrency)

	for _, subject := range subjects {
		eg.Go(func() error {
			if _, err := uc.Assess(ctx, subject.ID); err != nil {
				if ctx.Err() != nil {
					return err
				}
				failed.Add(1)
				uc.metrics.CountSweep("failed")
				_ = errutil.Handle(ctx, goerr.Wrap(err, "sweep assessment failed",
					goerr.V(SubjectIDKey, subject.ID)), "sweep assessment failed")
				return nil
			}
			succeeded.Add(1)
			uc.metrics.CountSweep("succeeded")
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, goerr.Wrap(err, "sweep aborted")
	}

	summary := &SweepSummary{
		Processed: len(subjects),
		Succeeded: int(succeeded.Load()),
		Failed:    int(failed.Load()),
	}
	logging.From(ctx).Info("sweep finished",
		"processed", summary.Processed,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed)

	return summary, nil
}

// ListPending exposes the sweep candidate list, used by the admin surface
func (uc *UseCases) ListPending(ctx context.Context, limit int) ([]types.SubjectID, error) {
	subjects, err := uc.repo.Subject().ListPending(ctx, limit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list pending subjects")
	}
	ids := make([]types.SubjectID, len(subjects))
	for i, s := range subjects {
		ids[i] = s.ID
	}
	return ids, nil
}
