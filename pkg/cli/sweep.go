package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"

	"github.com/route07/riskcore/pkg/cli/config"
	"github.com/urfave/cli/v3"
)

func cmdSweep() *cli.Command {
	var limit int
	var repoCfg config.Repository
	var geminiCfg config.Gemini
	var providersCfg config.Providers
	var tuningCfg config.Tuning

	flags := []cli.Flag{
		&cli.IntFlag{
			Name:        "limit",
			Usage:       "Maximum subjects to assess in this sweep",
			Value:       100,
			Sources:     cli.EnvVars("RISKCORE_SWEEP_LIMIT"),
			Destination: &limit,
		},
	}
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, geminiCfg.Flags()...)
	flags = append(flags, providersCfg.Flags()...)
	flags = append(flags, tuningCfg.Flags()...)

	return &cli.Command{
		Name:  "sweep",
		Usage: "Assess every never-assessed subject in the backlog",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if limit <= 0 {
				return goerr.New("limit must be positive", goerr.V("limit", limit))
			}

			uc, cleanup, err := buildUseCases(ctx, &repoCfg, &geminiCfg, &providersCfg, &tuningCfg)
			if err != nil {
				return err
			}
			defer cleanup()

			summary, err := uc.Sweep(ctx, limit)
			if err != nil {
				return goerr.Wrap(err, "sweep failed")
			}

			fmt.Printf("Processed: %d\n", summary.Processed)
			color.New(color.FgGreen).Printf("Succeeded: %d\n", summary.Succeeded)
			if summary.Failed > 0 {
				color.New(color.FgRed).Printf("Failed:    %d\n", summary.Failed)
			} else {
				fmt.Printf("Failed:    0\n")
			}

			return nil
		},
	}
}
