package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/litreview-cli/internal/load"
)

var loadCmd = &cobra.Command{
	Use:   "load <file.jsonl> [more files...]",
	Short: "Import search-result files into the dataset",
	Args:  cobra.MinimumNArgs(1),
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

		imported, skipped := 0, 0
		for _, path := range args {
			res, err := load.File(path, records)
			if err != nil {
				return eris.Wrapf(err, "load %s", path)
			}
			records = append(records, res.Imported...)
			imported += len(res.Imported)
			skipped += res.Skipped
		}

		if err := s.SaveAll(ctx, records); err != nil {
			return err
		}

		zap.L().Info("load complete",
			zap.Int("files", len(args)),
			zap.Int("imported", imported),
			zap.Int("skipped", skipped),
			zap.Int("total", len(records)),
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loadCmd)
}
