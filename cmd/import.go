package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/buyer-dedupe/internal/buyer"
	"github.com/sells-group/buyer-dedupe/internal/importer"
)

var (
	importSheet    string
	importSkipDups bool
	importFormat   string
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import buyers from a CSV or XLSX file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireOwner(); err != nil {
			return err
		}

		sheet := cfg.Import.Sheet
		if cmd.Flags().Changed("sheet") {
			sheet = importSheet
		}
		skip := cfg.Import.SkipDuplicates
		if cmd.Flags().Changed("skip-duplicates") {
			skip = importSkipDups
		}

		rows, err := importer.Read(args[0], importer.Options{Sheet: sheet})
		if err != nil {
			return eris.Wrap(err, "import")
		}
		zap.L().Info("read import file", zap.String("file", args[0]), zap.Int("rows", len(rows)))

		return withService(cmd.Context(), func(svc *buyer.Service) error {
			report, err := svc.Import(cmd.Context(), ownerID, rows, skip)
			if err != nil {
				return eris.Wrap(err, "import")
			}
			return writeOutput(cmd.OutOrStdout(), importFormat, report, func(w *tableWriter) {
				formatImportReport(w, report)
			})
		})
	},
}

func init() {
	importCmd.Flags().StringVar(&importSheet, "sheet", "", "XLSX sheet name (default from config, else first sheet)")
	importCmd.Flags().BoolVar(&importSkipDups, "skip-duplicates", true, "skip rows that duplicate existing buyers")
	importCmd.Flags().StringVar(&importFormat, "format", "table", "output format: table, json or yaml")
	rootCmd.AddCommand(importCmd)
}
