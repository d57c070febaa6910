package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/litreview-cli/internal/model"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <id-a> <id-b>",
	Short: "Mark a worklist pair as distinct records",
	Long:  "Records a reviewer decision that two records are not duplicates. Every origin pair of the two records enters the decision log, so later dedupe batches never surface the pair again.",
	Args:  cobra.ExactArgs(2),
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
		byID := make(map[string]*model.Record, len(records))
		for _, r := range records {
			byID[r.ID] = r
		}

		a, ok := byID[args[0]]
		if !ok {
			return eris.Errorf("record not found: %s", args[0])
		}
		b, ok := byID[args[1]]
		if !ok {
			return eris.Errorf("record not found: %s", args[1])
		}

		pairs := 0
		for _, oa := range a.Origins {
			for _, ob := range b.Origins {
				if err := s.AddNonDuplicate(ctx, oa, ob); err != nil {
					return err
				}
				pairs++
			}
		}

		zap.L().Info("pair marked as distinct",
			zap.String("id_a", a.ID),
			zap.String("id_b", b.ID),
			zap.Int("origin_pairs", pairs),
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}
