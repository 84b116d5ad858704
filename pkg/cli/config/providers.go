package config

import (
	"context"
	"log/slog"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/route07/riskcore/pkg/domain/interfaces"
	"github.com/route07/riskcore/pkg/metrics"
	"github.com/route07/riskcore/pkg/service/breach"
	"github.com/route07/riskcore/pkg/service/docanalysis"
	"github.com/route07/riskcore/pkg/service/ledger"
	"github.com/route07/riskcore/pkg/service/ratelimit"
	"github.com/route07/riskcore/pkg/service/sanctions"
	"github.com/route07/riskcore/pkg/service/webintel"
	"github.com/route07/riskcore/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Providers holds CLI flags for the external intelligence providers. Every
// provider is optional: an unconfigured one is absent from the use case
// wiring and degrades at assessment time.
type Providers struct {
	webIntelURL string
	webIntelKey string

	sanctionsURL  string
	sanctionsKey  string
	notionToken   string
	notionWatchDB string

	breachURL string
	breachKey string

	docBucket string

	ledgerURL string
	ledgerKey string
}

// Flags returns CLI flags for provider configuration
func (p *Providers) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "webintel-url",
			Usage:       "Web intelligence provider base URL",
			Category:    "Providers",
			Sources:     cli.EnvVars("RISKCORE_WEBINTEL_URL"),
			Destination: &p.webIntelURL,
		},
		&cli.StringFlag{
			Name:        "webintel-api-key",
			Usage:       "Web intelligence provider API key",
			Category:    "Providers",
			Sources:     cli.EnvVars("RISKCORE_WEBINTEL_API_KEY"),
			Destination: &p.webIntelKey,
		},
		&cli.StringFlag{
			Name:        "sanctions-url",
			Usage:       "Sanctions list provider base URL",
			Category:    "Providers",
			Sources:     cli.EnvVars("RISKCORE_SANCTIONS_URL"),
			Destination: &p.sanctionsURL,
		},
		&cli.StringFlag{
			Name:        "sanctions-api-key",
			Usage:       "Sanctions list provider API key",
			Category:    "Providers",
			Sources:     cli.EnvVars("RISKCORE_SANCTIONS_API_KEY"),
			Destination: &p.sanctionsKey,
		},
		&cli.StringFlag{
			Name:        "notion-api-token",
			Usage:       "Notion API token for the internal watchlist database",
			Category:    "Providers",
			Sources:     cli.EnvVars("RISKCORE_NOTION_API_TOKEN"),
			Destination: &p.notionToken,
		},
		&cli.StringFlag{
			Name:        "notion-watchlist-db",
			Usage:       "Notion database ID holding the internal watchlist",
			Category:    "Providers",
			Sources:     cli.EnvVars("RISKCORE_NOTION_WATCHLIST_DB"),
			Destination: &p.notionWatchDB,
		},
		&cli.StringFlag{
			Name:        "breach-url",
			Usage:       "Breach corpus provider base URL",
			Category:    "Providers",
			Sources:     cli.EnvVars("RISKCORE_BREACH_URL"),
			Destination: &p.breachURL,
		},
		&cli.StringFlag{
			Name:        "breach-api-key",
			Usage:       "Breach corpus provider API key",
			Category:    "Providers",
			Sources:     cli.EnvVars("RISKCORE_BREACH_API_KEY"),
			Destination: &p.breachKey,
		},
		&cli.StringFlag{
			Name:        "document-bucket",
			Usage:       "GCS bucket holding uploaded documents without OCR text",
			Category:    "Providers",
			Sources:     cli.EnvVars("RISKCORE_DOCUMENT_BUCKET"),
			Destination: &p.docBucket,
		},
		&cli.StringFlag{
			Name:        "ledger-url",
			Usage:       "Ledger gateway base URL for score mirroring",
			Category:    "Providers",
			Sources:     cli.EnvVars("RISKCORE_LEDGER_URL"),
			Destination: &p.ledgerURL,
		},
		&cli.StringFlag{
			Name:        "ledger-api-key",
			Usage:       "Ledger gateway API key",
			Category:    "Providers",
			Sources:     cli.EnvVars("RISKCORE_LEDGER_API_KEY"),
			Destination: &p.ledgerKey,
		},
	}
}

// LogValue returns log attributes for the provider configuration
func (p Providers) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Bool("webintel", p.webIntelURL != ""),
		slog.Bool("sanctions", p.sanctionsURL != ""),
		slog.Bool("watchlist", p.notionToken != "" && p.notionWatchDB != ""),
		slog.Bool("breach", p.breachURL != ""),
		slog.Bool("documents", p.docBucket != ""),
		slog.Bool("ledger", p.ledgerURL != ""),
	)
}

// Services groups the configured provider adapters. A nil field means that
// provider is not configured.
type Services struct {
	WebIntel    interfaces.WebIntelService
	Sanctions   interfaces.SanctionsService
	Breach      interfaces.BreachService
	DocAnalyzer interfaces.DocumentAnalyzer
	Ledger      interfaces.LedgerMirror
}

// Configure builds the adapters for every configured provider
func (p *Providers) Configure(ctx context.Context, llmClient gollem.LLMClient, limiter *ratelimit.Limiter, m *metrics.Metrics) (*Services, error) {
	svcs := &Services{}

	if p.webIntelURL != "" {
		svc, err := webintel.New(p.webIntelURL, p.webIntelKey, limiter, webintel.WithMetrics(m))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize web intelligence provider")
		}
		svcs.WebIntel = svc
	} else {
		logging.Default().Warn("web intelligence provider not configured, source will be degraded")
	}

	if p.sanctionsURL != "" {
		opts := []sanctions.Option{sanctions.WithMetrics(m)}
		if p.notionToken != "" && p.notionWatchDB != "" {
			opts = append(opts, sanctions.WithNotionWatchlist(p.notionToken, p.notionWatchDB))
			logging.Default().Info("internal watchlist screening enabled")
		}
		svc, err := sanctions.New(p.sanctionsURL, p.sanctionsKey, limiter, opts...)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize sanctions provider")
		}
		svcs.Sanctions = svc
	} else {
		logging.Default().Warn("sanctions provider not configured, source will be degraded")
	}

	if p.breachURL != "" {
		svc, err := breach.New(p.breachURL, p.breachKey, limiter, breach.WithMetrics(m))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize breach provider")
		}
		svcs.Breach = svc
	} else {
		logging.Default().Warn("breach provider not configured, source will be degraded")
	}

	if llmClient != nil {
		opts := []docanalysis.Option{docanalysis.WithMetrics(m)}
		if p.docBucket != "" {
			gcs, err := storage.NewClient(ctx)
			if err != nil {
				return nil, goerr.Wrap(err, "failed to create GCS client")
			}
			opts = append(opts, docanalysis.WithBucket(gcs.Bucket(p.docBucket)))
		}
		analyzer, err := docanalysis.New(llmClient, limiter, opts...)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize document analyzer")
		}
		svcs.DocAnalyzer = analyzer
	}

	if p.ledgerURL != "" {
		svc, err := ledger.New(p.ledgerURL, p.ledgerKey, limiter, ledger.WithMetrics(m))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize ledger mirror")
		}
		svcs.Ledger = svc
	}

	return svcs, nil
}
