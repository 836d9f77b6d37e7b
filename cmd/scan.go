package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/buyer-dedupe/internal/buyer"
	"github.com/sells-group/buyer-dedupe/internal/dedupe"
)

var scanFormat string

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Group an owner's buyers into duplicate clusters",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := requireOwner(); err != nil {
			return err
		}

		return withService(cmd.Context(), func(svc *buyer.Service) error {
			clusters, err := svc.Scan(cmd.Context(), ownerID)
			if err != nil {
				return eris.Wrap(err, "scan")
			}
			if clusters == nil {
				clusters = []dedupe.Cluster{}
			}
			return writeOutput(cmd.OutOrStdout(), scanFormat, clusters, func(w *tableWriter) {
				formatClusters(w, clusters)
			})
		})
	},
}

func init() {
	scanCmd.Flags().StringVar(&scanFormat, "format", "table", "output format: table, json or yaml")
	rootCmd.AddCommand(scanCmd)
}
