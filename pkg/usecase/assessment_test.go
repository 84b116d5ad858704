package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/route07/riskcore/pkg/domain/model"
	"github.com/route07/riskcore/pkg/domain/types"
	"github.com/route07/riskcore/pkg/repository/memory"
	"github.com/route07/riskcore/pkg/service/scoring"
	"github.com/route07/riskcore/pkg/usecase"
)

type testScorer struct {
	assessFn func(ctx context.Context, subject *model.Subject, bundle *model.IntelBundle) ([]model.DimensionScore, error)
	calls    atomic.Int64
}

func (s *testScorer) AssessDimensions(ctx context.Context, subject *model.Subject, bundle *model.IntelBundle) ([]model.DimensionScore, error) {
	s.calls.Add(1)
	return s.assessFn(ctx, subject, bundle)
}

type testWebIntel struct {
	searchFn func(ctx context.Context, subject *model.Subject) (model.WebIntelResult, error)
}

func (s *testWebIntel) Search(ctx context.Context, subject *model.Subject) (model.WebIntelResult, error) {
	return s.searchFn(ctx, subject)
}

type testSanctions struct {
	checkFn func(ctx context.Context, subject *model.Subject) (model.SanctionsResult, error)
}

func (s *testSanctions) Check(ctx context.Context, subject *model.Subject) (model.SanctionsResult, error) {
	return s.checkFn(ctx, subject)
}

type testBreach struct {
	checkFn func(ctx context.Context, subject *model.Subject) (model.BreachResult, error)
}

func (s *testBreach) Check(ctx context.Context, subject *model.Subject) (model.BreachResult, error) {
	return s.checkFn(ctx, subject)
}

type testAnalyzer struct {
	analyzeFn func(ctx context.Context, doc *model.Document) (*model.DocumentAnalysis, error)
}

func (s *testAnalyzer) Analyze(ctx context.Context, doc *model.Document) (*model.DocumentAnalysis, error) {
	return s.analyzeFn(ctx, doc)
}

type testLedger struct {
	mirrored []string
}

func (s *testLedger) MirrorScore(ctx context.Context, walletAddress string, score int, level types.RiskLevel) error {
	s.mirrored = append(s.mirrored, walletAddress)
	return nil
}

type testNotifier struct {
	notified []types.SubjectID
}

func (s *testNotifier) NotifyHighRisk(ctx context.Context, subject *model.Subject, result *model.AssessmentResult) error {
	s.notified = append(s.notified, subject.ID)
	return nil
}

func flatDimensions(score int) []model.DimensionScore {
	dims := make([]model.DimensionScore, 0, 4)
	for _, d := range types.AllDimensions() {
		ds := model.DimensionScore{Dimension: d, Score: score, Reasoning: "test"}
		ds.Normalize()
		dims = append(dims, ds)
	}
	return dims
}

func emptyIntel() (*testWebIntel, *testSanctions, *testBreach) {
	web := &testWebIntel{searchFn: func(ctx context.Context, subject *model.Subject) (model.WebIntelResult, error) {
		return model.WebIntelResult{Outcome: types.OutcomeEmpty}, nil
	}}
	sanc := &testSanctions{checkFn: func(ctx context.Context, subject *model.Subject) (model.SanctionsResult, error) {
		return model.SanctionsResult{Outcome: types.OutcomeEmpty}, nil
	}}
	breach := &testBreach{checkFn: func(ctx context.Context, subject *model.Subject) (model.BreachResult, error) {
		return model.BreachResult{Outcome: types.OutcomeEmpty}, nil
	}}
	return web, sanc, breach
}

func TestAssess(t *testing.T) {
	ctx := context.Background()

	t.Run("clean subject scores low and persists everything", func(t *testing.T) {
		repo := memory.New()
		subject := &model.Subject{ID: "subj-low", Name: "Alice Chen"}
		gt.NoError(t, repo.Subject().Put(ctx, subject)).Required()

		scorer := &testScorer{assessFn: func(ctx context.Context, subject *model.Subject, bundle *model.IntelBundle) ([]model.DimensionScore, error) {
			return flatDimensions(10), nil
		}}
		web, sanc, breach := emptyIntel()
		notifier := &testNotifier{}

		uc := usecase.New(repo, scorer,
			usecase.WithWebIntel(web),
			usecase.WithSanctions(sanc),
			usecase.WithBreach(breach),
			usecase.WithNotifier(notifier),
		)

		result, err := uc.Assess(ctx, subject.ID)
		gt.NoError(t, err).Required()
		gt.Number(t, result.AggregateScore).Equal(10)
		gt.Value(t, result.AggregateLevel).Equal(types.RiskLevelLow)
		gt.Number(t, len(result.Factors)).Equal(0)

		stored, err := repo.Subject().Get(ctx, subject.ID)
		gt.NoError(t, err).Required()
		gt.Number(t, stored.RiskScore).Equal(10)
		gt.Value(t, stored.RiskLevel).Equal(types.RiskLevelLow)
		gt.Value(t, stored.Pending()).Equal(false)

		profile, err := repo.Profile().Get(ctx, subject.ID)
		gt.NoError(t, err).Required()
		gt.Number(t, profile.AggregateScore).Equal(10)
		gt.Number(t, profile.Identity.Score).Equal(10)

		events, err := repo.Audit().ListBySubject(ctx, subject.ID)
		gt.NoError(t, err).Required()
		gt.Number(t, len(events)).Equal(1)
		gt.Number(t, events[0].AggregateScore).Equal(10)

		// Below the alert threshold: the notifier is still invoked and
		// decides internally, so delivery is recorded here.
		gt.Number(t, len(notifier.notified)).Equal(1)
	})

	t.Run("scoring validation failure writes nothing", func(t *testing.T) {
		repo := memory.New()
		subject := &model.Subject{ID: "subj-badai", Name: "Bob Okafor"}
		gt.NoError(t, repo.Subject().Put(ctx, subject)).Required()

		scorer := &testScorer{assessFn: func(ctx context.Context, subject *model.Subject, bundle *model.IntelBundle) ([]model.DimensionScore, error) {
			return nil, scoring.ErrValidation
		}}
		web, sanc, breach := emptyIntel()

		uc := usecase.New(repo, scorer,
			usecase.WithWebIntel(web),
			usecase.WithSanctions(sanc),
			usecase.WithBreach(breach),
		)

		_, err := uc.Assess(ctx, subject.ID)
		gt.Error(t, err).Is(scoring.ErrValidation)

		stored, err := repo.Subject().Get(ctx, subject.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, stored.Pending()).Equal(true)
		gt.Number(t, stored.RiskScore).Equal(0)

		_, err = repo.Profile().Get(ctx, subject.ID)
		gt.Error(t, err)

		events, err := repo.Audit().ListBySubject(ctx, subject.ID)
		gt.NoError(t, err).Required()
		gt.Number(t, len(events)).Equal(0)
	})

	t.Run("cancellation before persistence writes nothing", func(t *testing.T) {
		repo := memory.New()
		subject := &model.Subject{ID: "subj-cancelled", Name: "Hana Sato"}
		gt.NoError(t, repo.Subject().Put(ctx, subject)).Required()

		runCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		// The adapter succeeds but the run's context is cancelled while
		// gathering; the result must not be persisted.
		_, sanc, breach := emptyIntel()
		web := &testWebIntel{searchFn: func(ctx context.Context, subject *model.Subject) (model.WebIntelResult, error) {
			cancel()
			return model.WebIntelResult{Outcome: types.OutcomeEmpty}, nil
		}}
		scorer := &testScorer{assessFn: func(ctx context.Context, subject *model.Subject, bundle *model.IntelBundle) ([]model.DimensionScore, error) {
			return flatDimensions(30), nil
		}}

		uc := usecase.New(repo, scorer,
			usecase.WithWebIntel(web),
			usecase.WithSanctions(sanc),
			usecase.WithBreach(breach),
		)

		_, err := uc.Assess(runCtx, subject.ID)
		gt.Error(t, err).Is(context.Canceled)

		stored, err := repo.Subject().Get(ctx, subject.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, stored.Pending()).Equal(true)
		gt.Number(t, stored.RiskScore).Equal(0)

		_, err = repo.Profile().Get(ctx, subject.ID)
		gt.Error(t, err)

		events, err := repo.Audit().ListBySubject(ctx, subject.ID)
		gt.NoError(t, err).Required()
		gt.Number(t, len(events)).Equal(0)
	})

	t.Run("unknown subject", func(t *testing.T) {
		repo := memory.New()
		scorer := &testScorer{assessFn: func(ctx context.Context, subject *model.Subject, bundle *model.IntelBundle) ([]model.DimensionScore, error) {
			return flatDimensions(10), nil
		}}

		uc := usecase.New(repo, scorer)
		_, err := uc.Assess(ctx, "subj-ghost")
		gt.Error(t, err).Is(usecase.ErrSubjectNotFound)
	})

	t.Run("document failures keep their slot and never hide the rest", func(t *testing.T) {
		repo := memory.New()
		subject := &model.Subject{ID: "subj-docs", Name: "Carol Díaz"}
		gt.NoError(t, repo.Subject().Put(ctx, subject)).Required()

		for i := 0; i < 4; i++ {
			doc := &model.Document{
				ID:        types.DocumentID(fmt.Sprintf("doc-%d", i)),
				SubjectID: subject.ID,
				Type:      types.DocumentTypePassport,
				OCRData:   "PASSPORT",
			}
			gt.NoError(t, repo.Document().Put(ctx, doc)).Required()
		}

		analyzer := &testAnalyzer{analyzeFn: func(ctx context.Context, doc *model.Document) (*model.DocumentAnalysis, error) {
			if doc.ID == "doc-1" || doc.ID == "doc-3" {
				return nil, errors.New("unreadable scan")
			}
			return &model.DocumentAnalysis{
				DocumentID:      doc.ID,
				Summary:         "passport page",
				FraudIndicators: []string{"font inconsistency"},
				ExtractedName:   "Carol Díaz",
				Confidence:      0.4,
			}, nil
		}}

		var seenSlots int
		scorer := &testScorer{assessFn: func(ctx context.Context, subject *model.Subject, bundle *model.IntelBundle) ([]model.DimensionScore, error) {
			seenSlots = len(bundle.Documents)
			failures := 0
			for _, f := range bundle.Documents {
				if f.Err != nil {
					failures++
				}
			}
			gt.Number(t, failures).Equal(2)
			return flatDimensions(40), nil
		}}
		web, sanc, breach := emptyIntel()

		uc := usecase.New(repo, scorer,
			usecase.WithWebIntel(web),
			usecase.WithSanctions(sanc),
			usecase.WithBreach(breach),
			usecase.WithDocumentAnalyzer(analyzer),
		)

		result, err := uc.Assess(ctx, subject.ID)
		gt.NoError(t, err).Required()
		gt.Number(t, seenSlots).Equal(4)

		// One fraud-indicator factor per successfully analyzed document.
		fraudFactors := 0
		for _, f := range result.Factors {
			if f.Type == types.FactorTypeDocumentFraud {
				fraudFactors++
			}
		}
		gt.Number(t, fraudFactors).Equal(2)

		docs, err := repo.Document().ListBySubject(ctx, subject.ID)
		gt.NoError(t, err).Required()
		attached := 0
		for _, d := range docs {
			if d.AIAnalysis != nil {
				attached++
			}
		}
		gt.Number(t, attached).Equal(2)
	})

	t.Run("sanctions exact hit produces critical factor and alert", func(t *testing.T) {
		repo := memory.New()
		subject := &model.Subject{ID: "subj-sanctioned", Name: "Dmitri Volkov", WalletAddress: "0xabc123"}
		gt.NoError(t, repo.Subject().Put(ctx, subject)).Required()

		web, _, breach := emptyIntel()
		sanc := &testSanctions{checkFn: func(ctx context.Context, subject *model.Subject) (model.SanctionsResult, error) {
			return model.SanctionsResult{
				Hits: []model.SanctionsHit{
					{ListName: "OFAC SDN", MatchedName: "Dmitri Volkov", ExactMatch: true},
				},
				Outcome: types.OutcomeHit,
			}, nil
		}}
		scorer := &testScorer{assessFn: func(ctx context.Context, subject *model.Subject, bundle *model.IntelBundle) ([]model.DimensionScore, error) {
			return flatDimensions(85), nil
		}}
		ledger := &testLedger{}
		notifier := &testNotifier{}

		uc := usecase.New(repo, scorer,
			usecase.WithWebIntel(web),
			usecase.WithSanctions(sanc),
			usecase.WithBreach(breach),
			usecase.WithLedger(ledger),
			usecase.WithNotifier(notifier),
		)

		result, err := uc.Assess(ctx, subject.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, result.AggregateLevel).Equal(types.RiskLevelCritical)
		gt.Number(t, result.WebIntel.Score).GreaterOrEqual(50)

		var sanctionFactor *model.RiskFactor
		for i, f := range result.Factors {
			if f.Source == types.FactorSourceSanctionsMatch {
				sanctionFactor = &result.Factors[i]
			}
		}
		if sanctionFactor == nil {
			t.Fatal("no sanctions factor derived")
		}
		gt.Value(t, sanctionFactor.Severity).Equal(types.RiskLevelCritical)

		gt.Array(t, ledger.mirrored).Length(1)
		gt.Value(t, ledger.mirrored[0]).Equal("0xabc123")
		gt.Number(t, len(notifier.notified)).Equal(1)
	})

	t.Run("unconfigured adapters degrade but the run completes", func(t *testing.T) {
		repo := memory.New()
		subject := &model.Subject{ID: "subj-bare", Name: "Eve Martin"}
		gt.NoError(t, repo.Subject().Put(ctx, subject)).Required()

		scorer := &testScorer{assessFn: func(ctx context.Context, subject *model.Subject, bundle *model.IntelBundle) ([]model.DimensionScore, error) {
			gt.Value(t, bundle.WebIntel.Outcome).Equal(types.OutcomeDegraded)
			gt.Value(t, bundle.Sanctions.Outcome).Equal(types.OutcomeDegraded)
			gt.Value(t, bundle.Breaches.Outcome).Equal(types.OutcomeDegraded)
			return flatDimensions(20), nil
		}}

		uc := usecase.New(repo, scorer)
		result, err := uc.Assess(ctx, subject.ID)
		gt.NoError(t, err).Required()
		gt.Number(t, result.WebIntel.Confidence).Equal(0)
	})

	t.Run("factor history grows across runs", func(t *testing.T) {
		repo := memory.New()
		subject := &model.Subject{ID: "subj-history", Name: "Frank Osei"}
		gt.NoError(t, repo.Subject().Put(ctx, subject)).Required()

		web, _, breach := emptyIntel()
		sanc := &testSanctions{checkFn: func(ctx context.Context, subject *model.Subject) (model.SanctionsResult, error) {
			return model.SanctionsResult{
				Hits:    []model.SanctionsHit{{ListName: "EU Consolidated", MatchedName: "F. Osei"}},
				Outcome: types.OutcomeHit,
			}, nil
		}}
		scorer := &testScorer{assessFn: func(ctx context.Context, subject *model.Subject, bundle *model.IntelBundle) ([]model.DimensionScore, error) {
			return flatDimensions(50), nil
		}}

		uc := usecase.New(repo, scorer,
			usecase.WithWebIntel(web),
			usecase.WithSanctions(sanc),
			usecase.WithBreach(breach),
		)

		_, err := uc.Assess(ctx, subject.ID)
		gt.NoError(t, err).Required()
		_, err = uc.Assess(ctx, subject.ID)
		gt.NoError(t, err).Required()

		profile, err := repo.Profile().Get(ctx, subject.ID)
		gt.NoError(t, err).Required()
		gt.Number(t, len(profile.Factors)).Equal(2)

		events, err := repo.Audit().ListBySubject(ctx, subject.ID)
		gt.NoError(t, err).Required()
		gt.Number(t, len(events)).Equal(2)
	})
}

func TestSweep(t *testing.T) {
	ctx := context.Background()

	t.Run("failed subjects are counted and skipped", func(t *testing.T) {
		repo := memory.New()
		for i := 0; i < 10; i++ {
			subject := &model.Subject{
				ID:   types.SubjectID(fmt.Sprintf("subj-%02d", i)),
				Name: fmt.Sprintf("Subject %02d", i),
			}
			gt.NoError(t, repo.Subject().Put(ctx, subject)).Required()
		}

		scorer := &testScorer{assessFn: func(ctx context.Context, subject *model.Subject, bundle *model.IntelBundle) ([]model.DimensionScore, error) {
			switch subject.ID {
			case "subj-02", "subj-05", "subj-08":
				return nil, scoring.ErrValidation
			}
			return flatDimensions(15), nil
		}}

		uc := usecase.New(repo, scorer)
		summary, err := uc.Sweep(ctx, 100)
		gt.NoError(t, err).Required()
		gt.Number(t, summary.Processed).Equal(10)
		gt.Number(t, summary.Succeeded).Equal(7)
		gt.Number(t, summary.Failed).Equal(3)

		// Failed subjects stay pending and get picked up next sweep.
		pending, err := uc.ListPending(ctx, 100)
		gt.NoError(t, err).Required()
		gt.Number(t, len(pending)).Equal(3)
	})

	t.Run("limit bounds the batch", func(t *testing.T) {
		repo := memory.New()
		for i := 0; i < 5; i++ {
			subject := &model.Subject{ID: types.SubjectID(fmt.Sprintf("subj-%d", i)), Name: "S"}
			gt.NoError(t, repo.Subject().Put(ctx, subject)).Required()
		}

		scorer := &testScorer{assessFn: func(ctx context.Context, subject *model.Subject, bundle *model.IntelBundle) ([]model.DimensionScore, error) {
			return flatDimensions(15), nil
		}}

		uc := usecase.New(repo, scorer)
		summary, err := uc.Sweep(ctx, 2)
		gt.NoError(t, err).Required()
		gt.Number(t, summary.Processed).Equal(2)
		gt.Number(t, int(scorer.calls.Load())).Equal(2)
	})

	t.Run("empty backlog", func(t *testing.T) {
		repo := memory.New()
		scorer := &testScorer{assessFn: func(ctx context.Context, subject *model.Subject, bundle *model.IntelBundle) ([]model.DimensionScore, error) {
			return flatDimensions(15), nil
		}}

		uc := usecase.New(repo, scorer)
		summary, err := uc.Sweep(ctx, 10)
		gt.NoError(t, err).Required()
		gt.Number(t, summary.Processed).Equal(0)
	})
}

func TestAssessTimestamps(t *testing.T) {
	ctx := context.Background()

	t.Run("injected clock stamps every record", func(t *testing.T) {
		repo := memory.New()
		subject := &model.Subject{ID: "subj-clock", Name: "Grace Lee"}
		gt.NoError(t, repo.Subject().Put(ctx, subject)).Required()

		fixed := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
		scorer := &testScorer{assessFn: func(ctx context.Context, subject *model.Subject, bundle *model.IntelBundle) ([]model.DimensionScore, error) {
			return flatDimensions(10), nil
		}}

		uc := usecase.New(repo, scorer, usecase.WithNow(func() time.Time { return fixed }))
		result, err := uc.Assess(ctx, subject.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, result.AssessedAt).Equal(fixed)

		stored, err := repo.Subject().Get(ctx, subject.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, stored.LastAssessed.Equal(fixed)).Equal(true)
	})
}
