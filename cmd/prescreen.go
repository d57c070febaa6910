package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/litreview-cli/internal/model"
	"github.com/sells-group/litreview-cli/internal/process"
)

var (
	prescreenExclude bool
	prescreenReason  string
)

var prescreenCmd = &cobra.Command{
	Use:   "prescreen <record-id>...",
	Short: "Record prescreen decisions on processed records",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if prescreenExclude && prescreenReason == "" {
			return eris.New("prescreen exclusion requires --reason")
		}

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

		dest := model.StatusPrescreenIncl
		if prescreenExclude {
			dest = model.StatusPrescreenExcl
		}

		for _, id := range args {
			r, ok := byID[id]
			if !ok {
				return eris.Errorf("record not found: %s", id)
			}
			if err := process.Apply(r, process.OpPrescreen, dest); err != nil {
				return err
			}
			if prescreenExclude {
				r.PrescreenExclude(prescreenReason)
			}
		}

		if err := s.SaveAll(ctx, records); err != nil {
			return err
		}

		zap.L().Info("prescreen decisions recorded",
			zap.Int("records", len(args)),
			zap.String("decision", string(dest)),
		)
		return nil
	},
}

func init() {
	prescreenCmd.Flags().BoolVar(&prescreenExclude, "exclude", false, "exclude instead of include")
	prescreenCmd.Flags().StringVar(&prescreenReason, "reason", "", "exclusion reason (required with --exclude)")
	rootCmd.AddCommand(prescreenCmd)
}
