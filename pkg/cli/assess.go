package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"

	"github.com/route07/riskcore/pkg/cli/config"
	"github.com/route07/riskcore/pkg/domain/types"
	"github.com/route07/riskcore/pkg/metrics"
	"github.com/route07/riskcore/pkg/service/scoring"
	"github.com/route07/riskcore/pkg/usecase"
	"github.com/route07/riskcore/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func levelPrinter(level types.RiskLevel) *color.Color {
	switch level {
	case types.RiskLevelCritical:
		return color.New(color.FgRed, color.Bold)
	case types.RiskLevelHigh:
		return color.New(color.FgRed)
	case types.RiskLevelMedium:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgGreen)
	}
}

func cmdAssess() *cli.Command {
	var repoCfg config.Repository
	var geminiCfg config.Gemini
	var providersCfg config.Providers
	var tuningCfg config.Tuning

	flags := repoCfg.Flags()
	flags = append(flags, geminiCfg.Flags()...)
	flags = append(flags, providersCfg.Flags()...)
	flags = append(flags, tuningCfg.Flags()...)

	return &cli.Command{
		Name:      "assess",
		Aliases:   []string{"a"},
		Usage:     "Run one assessment for a subject",
		ArgsUsage: "<subject-id>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() != 1 {
				return goerr.New("exactly one subject ID is required")
			}
			subjectID := types.SubjectID(c.Args().First())

			uc, cleanup, err := buildUseCases(ctx, &repoCfg, &geminiCfg, &providersCfg, &tuningCfg)
			if err != nil {
				return err
			}
			defer cleanup()

			result, err := uc.Assess(ctx, subjectID)
			if err != nil {
				return goerr.Wrap(err, "assessment failed", goerr.V("subjectID", subjectID))
			}

			fmt.Printf("Subject: %s\n", result.SubjectID)
			levelPrinter(result.AggregateLevel).Printf("Aggregate: %d / 100 (%s)\n", result.AggregateScore, result.AggregateLevel)
			for _, dim := range result.Dimensions {
				fmt.Printf("  %-10s %3d (%s)\n", dim.Dimension, dim.Score, dim.Level)
			}
			if len(result.Factors) > 0 {
				fmt.Printf("Factors:\n")
				for _, f := range result.Factors {
					levelPrinter(f.Severity).Printf("  [%s] ", f.Severity)
					fmt.Printf("%s (%s)\n", f.Description, f.Source)
				}
			}
			fmt.Printf("Intelligence confidence: %d%%\n", result.WebIntel.Confidence)

			return nil
		},
	}
}

// buildUseCases wires the one-shot command dependencies. The returned
// cleanup closes the repository.
func buildUseCases(ctx context.Context, repoCfg *config.Repository, geminiCfg *config.Gemini, providersCfg *config.Providers, tuningCfg *config.Tuning) (*usecase.UseCases, func(), error) {
	if err := tuningCfg.Load(); err != nil {
		return nil, nil, goerr.Wrap(err, "failed to load tuning file")
	}

	repo, err := repoCfg.Configure(ctx)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to initialize repository")
	}
	cleanup := func() {
		if err := repo.Close(); err != nil {
			logging.Default().Error("failed to close repository", "error", err.Error())
		}
	}

	m := metrics.New()
	limiter := tuningCfg.Limiter(m)

	llmClient, err := geminiCfg.Configure(ctx)
	if err != nil {
		cleanup()
		return nil, nil, goerr.Wrap(err, "failed to configure Gemini client")
	}
	scorer, err := scoring.New(llmClient, limiter, scoring.WithMetrics(m))
	if err != nil {
		cleanup()
		return nil, nil, goerr.Wrap(err, "failed to initialize AI scorer")
	}

	svcs, err := providersCfg.Configure(ctx, llmClient, limiter, m)
	if err != nil {
		cleanup()
		return nil, nil, goerr.Wrap(err, "failed to configure providers")
	}

	opts := []usecase.Option{
		usecase.WithMetrics(m),
		usecase.WithSweepConcurrency(tuningCfg.SweepConcurrency(usecase.DefaultSweepConcurrency)),
	}
	if svcs.WebIntel != nil {
		opts = append(opts, usecase.WithWebIntel(svcs.WebIntel))
	}
	if svcs.Sanctions != nil {
		opts = append(opts, usecase.WithSanctions(svcs.Sanctions))
	}
	if svcs.Breach != nil {
		opts = append(opts, usecase.WithBreach(svcs.Breach))
	}
	if svcs.DocAnalyzer != nil {
		opts = append(opts, usecase.WithDocumentAnalyzer(svcs.DocAnalyzer))
	}
	if svcs.Ledger != nil {
		opts = append(opts, usecase.WithLedger(svcs.Ledger))
	}

	return usecase.New(repo, scorer, opts...), cleanup, nil
}
