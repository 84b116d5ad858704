package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/route07/riskcore/pkg/cli/config"
	httpctrl "github.com/route07/riskcore/pkg/controller/http"
	"github.com/route07/riskcore/pkg/domain/types"
	"github.com/route07/riskcore/pkg/metrics"
	"github.com/route07/riskcore/pkg/service/scoring"
	"github.com/route07/riskcore/pkg/service/worker"
	"github.com/route07/riskcore/pkg/usecase"
	"github.com/route07/riskcore/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var addr string
	var authSecret string
	var sweepInterval time.Duration
	var sweepLimit int
	var repoCfg config.Repository
	var geminiCfg config.Gemini
	var providersCfg config.Providers
	var tuningCfg config.Tuning
	var notifyCfg config.Notify
	var kafkaCfg config.Kafka

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("RISKCORE_ADDR"),
			Destination: &addr,
		},
		&cli.StringFlag{
			Name:        "api-auth-secret",
			Usage:       "HS256 secret for API bearer tokens (API is open when empty)",
			Sources:     cli.EnvVars("RISKCORE_API_AUTH_SECRET"),
			Destination: &authSecret,
		},
		&cli.DurationFlag{
			Name:        "sweep-interval",
			Usage:       "Background sweep interval (disabled when 0)",
			Sources:     cli.EnvVars("RISKCORE_SWEEP_INTERVAL"),
			Destination: &sweepInterval,
		},
		&cli.IntFlag{
			Name:        "sweep-limit",
			Usage:       "Maximum subjects per sweep batch",
			Value:       100,
			Sources:     cli.EnvVars("RISKCORE_SWEEP_LIMIT"),
			Destination: &sweepLimit,
		},
	}

	// Add shared config flags
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, geminiCfg.Flags()...)
	flags = append(flags, providersCfg.Flags()...)
	flags = append(flags, tuningCfg.Flags()...)
	flags = append(flags, notifyCfg.Flags()...)
	flags = append(flags, kafkaCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := tuningCfg.Load(); err != nil {
				return goerr.Wrap(err, "failed to load tuning file")
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			m := metrics.New()
			limiter := tuningCfg.Limiter(m)

			llmClient, err := geminiCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to configure Gemini client")
			}
			scorer, err := scoring.New(llmClient, limiter, scoring.WithMetrics(m))
			if err != nil {
				return goerr.Wrap(err, "failed to initialize AI scorer")
			}

			svcs, err := providersCfg.Configure(ctx, llmClient, limiter, m)
			if err != nil {
				return goerr.Wrap(err, "failed to configure providers")
			}
			logging.Default().Info("providers configured", "providers", providersCfg)

			notifier, err := notifyCfg.Configure(tuningCfg.AlertMinLevel(types.RiskLevelHigh))
			if err != nil {
				return goerr.Wrap(err, "failed to configure Slack notifier")
			}

			publisher, err := kafkaCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to configure audit stream")
			}
			if publisher != nil {
				defer publisher.Close()
			}

			ucOpts := []usecase.Option{
				usecase.WithMetrics(m),
				usecase.WithSweepConcurrency(tuningCfg.SweepConcurrency(usecase.DefaultSweepConcurrency)),
			}
			if svcs.WebIntel != nil {
				ucOpts = append(ucOpts, usecase.WithWebIntel(svcs.WebIntel))
			}
			if svcs.Sanctions != nil {
				ucOpts = append(ucOpts, usecase.WithSanctions(svcs.Sanctions))
			}
			if svcs.Breach != nil {
				ucOpts = append(ucOpts, usecase.WithBreach(svcs.Breach))
			}
			if svcs.DocAnalyzer != nil {
				ucOpts = append(ucOpts, usecase.WithDocumentAnalyzer(svcs.DocAnalyzer))
			}
			if svcs.Ledger != nil {
				ucOpts = append(ucOpts, usecase.WithLedger(svcs.Ledger))
			}
			if notifier != nil {
				ucOpts = append(ucOpts, usecase.WithNotifier(notifier))
			}
			if publisher != nil {
				ucOpts = append(ucOpts, usecase.WithAuditPublisher(publisher))
			}

			uc := usecase.New(repo, scorer, ucOpts...)

			var sweepWorker *worker.SweepWorker
			if sweepInterval > 0 {
				sweepWorker = worker.NewSweepWorker(uc, sweepInterval, sweepLimit)
				sweepWorker.Start(ctx)
			}

			httpOpts := []httpctrl.Options{
				httpctrl.WithSweepLimit(sweepLimit),
			}
			if authSecret != "" {
				httpOpts = append(httpOpts, httpctrl.WithAuthSecret([]byte(authSecret)))
			} else {
				logging.Default().Warn("API authentication disabled, only use behind a trusted proxy")
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           httpctrl.New(uc, httpOpts...),
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				if sweepWorker != nil {
					sweepWorker.Stop()
				}

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}
