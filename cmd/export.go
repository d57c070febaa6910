package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"
)

var (
	exportBatch string
	exportOut   string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a dedupe worklist to XLSX for manual review",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		batch := exportBatch
		if batch == "" {
			batch, err = s.LatestBatch(ctx)
			if err != nil {
				return err
			}
			if batch == "" {
				return eris.New("no dedupe batches recorded yet")
			}
		}

		pairs, err := s.Worklist(ctx, batch)
		if err != nil {
			return err
		}

		f := xlsx.NewFile()
		sheet, err := f.AddSheet("worklist")
		if err != nil {
			return eris.Wrap(err, "export: add sheet")
		}

		header := sheet.AddRow()
		for _, col := range []string{"id_a", "id_b", "similarity", "outcome"} {
			header.AddCell().SetString(col)
		}
		for _, p := range pairs {
			row := sheet.AddRow()
			row.AddCell().SetString(p.IDA)
			row.AddCell().SetString(p.IDB)
			row.AddCell().SetFloatWithFormat(p.Similarity, "0.0000")
			row.AddCell().SetString(string(p.Outcome))
		}

		if err := f.Save(exportOut); err != nil {
			return eris.Wrapf(err, "export: save %s", exportOut)
		}

		zap.L().Info("worklist exported",
			zap.String("batch_id", batch),
			zap.Int("pairs", len(pairs)),
			zap.String("file", exportOut),
		)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportBatch, "batch", "", "batch ID (default: latest)")
	exportCmd.Flags().StringVar(&exportOut, "out", "worklist.xlsx", "output file")
	rootCmd.AddCommand(exportCmd)
}
