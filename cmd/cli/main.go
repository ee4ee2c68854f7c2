package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"promohypo/adapters/stats/logit"
	"promohypo/app"
	"promohypo/internal"
	"promohypo/internal/config"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// cli carries state shared by all subcommands
type cli struct {
	cfg      *config.Config
	logLevel string
}

func main() {
	// .env is optional; system environment wins for keys it already sets
	_ = godotenv.Load()

	c := &cli{}
	rootCmd := &cobra.Command{
		Use:   "promohypo-cli",
		Short: "Does performance level explain promotion beyond sales and customer rate?",
		Long: `promohypo fits nested logistic regressions of promotion on sales, customer rate
and an ordinal performance rating, and reports odds ratios, collinearity and
linearity diagnostics, and likelihood-ratio tests between the models.

Configuration is read from the environment (and a .env file when present):
  DATABASE_URL, DB_DRIVER, ANALYSIS_WORKERS, CONFIDENCE_LEVEL,
  IRLS_MAX_ITERATIONS, IRLS_TOLERANCE, VIF_THRESHOLD, ALLOW_SEPARATION,
  DATA_FILE, DATA_SHEET, LOG_LEVEL`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.logLevel != "" {
				level, err := internal.ParseLogLevel(c.logLevel)
				if err != nil {
					return err
				}
				internal.DefaultLogger.SetLevel(level)
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			c.cfg = cfg
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "Log level: error|warn|info|debug|trace (default from LOG_LEVEL)")

	rootCmd.AddCommand(
		newAnalyzeCmd(c),
		newSimulateCmd(),
		newHistoryCmd(c),
		newShowCmd(c),
		newMigrateCmd(c),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// serviceOptions maps configuration onto the analysis service
func serviceOptions(cfg *config.Config) app.ServiceOptions {
	opts := app.DefaultServiceOptions()
	opts.Workers = cfg.Analysis.Workers
	opts.ConfidenceLevel = cfg.Analysis.ConfidenceLevel
	opts.VIFThreshold = cfg.Analysis.VIFThreshold
	opts.Estimation = logit.Options{
		MaxIterations:    cfg.Analysis.MaxIterations,
		Tolerance:        cfg.Analysis.Tolerance,
		SeparationPolicy: logit.SeparationFail,
	}
	if cfg.Analysis.AllowSeparation {
		opts.Estimation.SeparationPolicy = logit.SeparationWarn
	}
	return opts
}
