package usecase

import (
	"time"

	"github.com/route07/riskcore/pkg/domain/interfaces"
	"github.com/route07/riskcore/pkg/metrics"
)

// DefaultSweepConcurrency bounds how many subjects a sweep assesses at once
const DefaultSweepConcurrency = 10

type UseCases struct {
	repo   interfaces.Repository
	scorer interfaces.DimensionScorer

	webIntel    interfaces.WebIntelService
	sanctions   interfaces.SanctionsService
	breach      interfaces.BreachService
	docAnalyzer interfaces.DocumentAnalyzer

	ledger    interfaces.LedgerMirror
	notifier  interfaces.Notifier
	publisher interfaces.AuditPublisher

	metrics          *metrics.Metrics
	sweepConcurrency int
	now              func() time.Time
}

type Option func(*UseCases)

// WithWebIntel sets the web intelligence adapter. Without one the source is
// treated as degraded on every run.
func WithWebIntel(svc interfaces.WebIntelService) Option {
	return func(uc *UseCases) {
		uc.webIntel = svc
	}
}

// WithSanctions sets the sanctions screening adapter
func WithSanctions(svc interfaces.SanctionsService) Option {
	return func(uc *UseCases) {
		uc.sanctions = svc
	}
}

// WithBreach sets the breach lookup adapter
func WithBreach(svc interfaces.BreachService) Option {
	return func(uc *UseCases) {
		uc.breach = svc
	}
}

// WithDocumentAnalyzer sets the per-document AI analyzer
func WithDocumentAnalyzer(svc interfaces.DocumentAnalyzer) Option {
	return func(uc *UseCases) {
		uc.docAnalyzer = svc
	}
}

// WithLedger sets the best-effort ledger score mirror
func WithLedger(svc interfaces.LedgerMirror) Option {
	return func(uc *UseCases) {
		uc.ledger = svc
	}
}

// WithNotifier sets the high-risk alert notifier
func WithNotifier(svc interfaces.Notifier) Option {
	return func(uc *UseCases) {
		uc.notifier = svc
	}
}

// WithAuditPublisher sets the audit stream fan-out
func WithAuditPublisher(pub interfaces.AuditPublisher) Option {
	return func(uc *UseCases) {
		uc.publisher = pub
	}
}

// WithMetrics records assessment and sweep outcomes
func WithMetrics(m *metrics.Metrics) Option {
	return func(uc *UseCases) {
		uc.metrics = m
	}
}

// WithSweepConcurrency overrides the sweep concurrency bound
func WithSweepConcurrency(n int) Option {
	return func(uc *UseCases) {
		if n > 0 {
			uc.sweepConcurrency = n
		}
	}
}

// WithNow replaces the clock, used by tests
func WithNow(now func() time.Time) Option {
	return func(uc *UseCases) {
		uc.now = now
	}
}

func New(repo interfaces.Repository, scorer interfaces.DimensionScorer, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:             repo,
		scorer:           scorer,
		sweepConcurrency: DefaultSweepConcurrency,
		now:              time.Now,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}
