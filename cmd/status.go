package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/litreview-cli/internal/model"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show record counts per pipeline state",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		counts, err := s.CountByStatus(ctx)
		if err != nil {
			return err
		}

		total := 0
		for _, status := range model.AllStatuses {
			n := counts[status]
			total += n
			if n == 0 {
				continue
			}
			fmt.Printf("%-30s %6d\n", status, n)
		}
		fmt.Printf("%-30s %6d\n", "total", total)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
