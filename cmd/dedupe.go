package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/litreview-cli/internal/dedupe"
	"github.com/sells-group/litreview-cli/internal/identity"
	"github.com/sells-group/litreview-cli/internal/model"
	"github.com/sells-group/litreview-cli/internal/process"
)

var dedupeCmd = &cobra.Command{
	Use:   "dedupe",
	Short: "Detect and merge duplicate records",
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
		known, err := s.NonDuplicates(ctx)
		if err != nil {
			return err
		}

		counts := make(map[model.Status]int)
		for _, r := range records {
			counts[r.Status]++
		}
		if err := process.CheckPrecondition(process.OpDedupe, counts); err != nil {
			return err
		}

		engine := dedupe.New(dedupe.Config{
			MinSimilarity:      cfg.Dedupe.MinSimilarity,
			AutoMergeThreshold: cfg.Dedupe.AutoMergeThreshold,
			PreventSameSource:  cfg.Dedupe.PreventSameSource,
			Concurrency:        cfg.Dedupe.Concurrency,
			Weights:            cfg.Dedupe.Weights,
		})
		res, err := engine.Run(ctx, records, known)
		if err != nil {
			return err
		}

		// Survivors of a completed dedupe pass move on to md_processed.
		for _, r := range res.Records {
			if r.Status != model.StatusPrepared {
				continue
			}
			if err := process.Apply(r, process.OpDedupe, model.StatusProcessed); err != nil {
				return err
			}
		}

		if err := s.SaveAll(ctx, res.Records); err != nil {
			return err
		}

		// Vetted records feed the local TOC index used by quality checks.
		var tocKeys []string
		for _, r := range res.Records {
			if r.Status != model.StatusProcessed {
				continue
			}
			key, err := identity.TOCKey(r)
			if err != nil {
				continue
			}
			tocKeys = append(tocKeys, key)
		}
		if len(tocKeys) > 0 {
			if err := s.AddTOCKeys(ctx, tocKeys); err != nil {
				return err
			}
		}

		dedupe.SortWorklist(res.Worklist)
		if err := s.SaveWorklist(ctx, res.BatchID, res.Worklist); err != nil {
			return err
		}

		zap.L().Info("dedupe complete",
			zap.String("batch_id", res.BatchID),
			zap.Int("records", len(res.Records)),
			zap.Int("applied", len(res.Applied)),
			zap.Int("worklist", len(res.Worklist)),
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dedupeCmd)
}
