package worker

import (
	"context"
	"time"

	"github.com/route07/riskcore/pkg/usecase"
	"github.com/route07/riskcore/pkg/utils/logging"
)

// SweepWorker periodically assesses the never-assessed backlog
//
// Architecture assumptions:
// - Single server instance (no distributed locking)
// - For future horizontal scaling, implement distributed locking or leader election
type SweepWorker struct {
	uc       *usecase.UseCases
	interval time.Duration
	limit    int
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewSweepWorker creates a worker that sweeps up to limit subjects every interval
func NewSweepWorker(uc *usecase.UseCases, interval time.Duration, limit int) *SweepWorker {
	return &SweepWorker{
		uc:       uc,
		interval: interval,
		limit:    limit,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background sweep loop without blocking server startup
func (w *SweepWorker) Start(ctx context.Context) {
	logging.Default().Info("sweep worker starting",
		"interval", w.interval.String(),
		"limit", w.limit)

	go w.run(ctx)
}

// Stop signals the worker to stop and waits for completion
func (w *SweepWorker) Stop() {
	logging.Default().Info("sweep worker stopping")
	close(w.stopCh)
	<-w.doneCh
	logging.Default().Info("sweep worker stopped")
}

func (w *SweepWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			summary, err := w.uc.Sweep(ctx, w.limit)
			if err != nil {
				// Log error but continue worker
				logging.Default().Error("background sweep failed (will retry next interval)",
					"error", err.Error())
				continue
			}
			if summary.Processed > 0 {
				logging.Default().Info("background sweep completed",
					"processed", summary.Processed,
					"succeeded", summary.Succeeded,
					"failed", summary.Failed)
			}

		case <-w.stopCh:
			logging.Default().Info("sweep worker received stop signal")
			return

		case <-ctx.Done():
			logging.Default().Info("sweep worker context cancelled")
			return
		}
	}
}
