package worker_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/route07/riskcore/pkg/domain/model"
	"github.com/route07/riskcore/pkg/domain/types"
	"github.com/route07/riskcore/pkg/repository/memory"
	"github.com/route07/riskcore/pkg/service/worker"
	"github.com/route07/riskcore/pkg/usecase"
)

type stubScorer struct {
	calls atomic.Int64
}

func (s *stubScorer) AssessDimensions(ctx context.Context, subject *model.Subject, bundle *model.IntelBundle) ([]model.DimensionScore, error) {
	s.calls.Add(1)

	var dims []model.DimensionScore
	for _, d := range types.AllDimensions() {
		dims = append(dims, model.DimensionScore{
			Dimension: d,
			Score:     10,
			Level:     types.RiskLevelLow,
		})
	}
	return dims, nil
}

func TestSweepWorkerProcessesBacklog(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	scorer := &stubScorer{}

	for _, id := range []types.SubjectID{"subject-1", "subject-2"} {
		if err := repo.Subject().Put(ctx, &model.Subject{ID: id, Name: string(id)}); err != nil {
			t.Fatalf("failed to put subject: %v", err)
		}
	}

	uc := usecase.New(repo, scorer)

	w := worker.NewSweepWorker(uc, 20*time.Millisecond, 10)
	w.Start(ctx)

	// Wait for at least one tick to fire
	deadline := time.Now().Add(2 * time.Second)
	for scorer.calls.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	w.Stop()

	if got := scorer.calls.Load(); got < 2 {
		t.Fatalf("expected at least 2 assessments, got %d", got)
	}

	pending, err := repo.Subject().ListPending(ctx, 10)
	if err != nil {
		t.Fatalf("failed to list pending: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("expected empty backlog after sweep, got %d pending", len(pending))
	}
}

func TestSweepWorkerStopsCleanly(t *testing.T) {
	ctx := context.Background()
	uc := usecase.New(memory.New(), &stubScorer{})

	w := worker.NewSweepWorker(uc, time.Hour, 10)
	w.Start(ctx)

	done := make(chan struct{})
	go func() {
		w.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop within timeout")
	}
}
