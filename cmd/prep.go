package main

import (
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/litreview-cli/internal/prep"
	"github.com/sells-group/litreview-cli/internal/quality"
	"github.com/sells-group/litreview-cli/internal/resilience"
)

var prepForce bool

var prepCmd = &cobra.Command{
	Use:   "prep",
	Short: "Prepare imported records: enrich, quality-check, advance",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		records, err := s.LoadAll(ctx)
		if err != nil {
			return err
		}

		allow := quality.DefaultAllowlists()
		if cfg.Quality.AllowlistPath != "" {
			allow, err = quality.LoadAllowlists(cfg.Quality.AllowlistPath)
			if err != nil {
				return err
			}
		}
		var toc quality.TOCLookup
		if cfg.Quality.TOCCheck {
			toc = s
		}
		qm := quality.NewModel(allow, toc)

		retry := resilience.DefaultRetryConfig()
		retry.MaxAttempts = cfg.Prep.Retries

		runner := prep.NewRunner(prep.Config{
			Concurrency: cfg.Prep.Concurrency,
			Timeout:     time.Duration(cfg.Prep.TimeoutSecs) * time.Second,
			Retry:       retry,
			Force:       prepForce || cfg.Prep.Force,
		}, enrichers(), qm)

		res, err := runner.Run(ctx, records)
		if err != nil {
			return err
		}
		if err := s.SaveAll(ctx, res.Records); err != nil {
			return err
		}

		counts := res.Counts()
		zap.L().Info("prep complete",
			zap.Int("prepared", counts[prep.OutcomePrepared]),
			zap.Int("needs_manual", counts[prep.OutcomeNeedsManual]),
			zap.Int("skipped", counts[prep.OutcomeSkipped]),
		)
		return nil
	},
}

// enrichers returns the configured lookup providers, each behind the shared
// rate limit. Network providers register here; the default build runs with
// local quality checks only.
func enrichers() []prep.Enricher {
	var list []prep.Enricher
	for _, e := range registeredEnrichers {
		list = append(list, prep.NewRateLimited(e, cfg.Prep.LookupRPS, cfg.Prep.LookupBurst))
	}
	return list
}

var registeredEnrichers []prep.Enricher

func init() {
	prepCmd.Flags().BoolVar(&prepForce, "force", false, "degrade a downed enrichment service to a warning")
	rootCmd.AddCommand(prepCmd)
}
