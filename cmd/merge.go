package main

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/buyer-dedupe/internal/buyer"
	"github.com/sells-group/buyer-dedupe/internal/dedupe"
	"github.com/sells-group/buyer-dedupe/internal/model"
)

var (
	mergePrimary   string
	mergeSecondary string
	mergeChoices   []string
	mergeFormat    string
)

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge a secondary buyer into a primary buyer",
	Example: "  buyer-dedupe merge --owner acme --primary b1 --secondary b2 \\\n" +
		"    --choice markets=both --choice email=secondary",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := requireOwner(); err != nil {
			return err
		}
		choices, err := parseChoiceFlags(mergeChoices)
		if err != nil {
			return err
		}

		return withService(cmd.Context(), func(svc *buyer.Service) error {
			merged, err := svc.Merge(cmd.Context(), ownerID, mergePrimary, mergeSecondary, choices)
			if err != nil {
				return eris.Wrap(err, "merge")
			}
			return writeOutput(cmd.OutOrStdout(), mergeFormat, merged, func(w *tableWriter) {
				formatBuyer(w, *merged)
			})
		})
	},
}

// parseChoiceFlags turns field=mode pairs into merge choices.
func parseChoiceFlags(pairs []string) (dedupe.MergeChoices, error) {
	raw := make(map[string]string, len(pairs))
	for _, p := range pairs {
		field, mode, ok := strings.Cut(p, "=")
		if !ok {
			return nil, eris.Errorf("invalid --choice %q, want field=mode", p)
		}
		raw[field] = mode
	}
	return dedupe.ParseMergeChoices(raw)
}

func init() {
	f := mergeCmd.Flags()
	f.StringVar(&mergePrimary, "primary", "", "ID of the buyer to keep (required)")
	f.StringVar(&mergeSecondary, "secondary", "", "ID of the buyer to fold in and delete (required)")
	f.StringArrayVar(&mergeChoices, "choice", nil,
		"field=mode, mode is primary, secondary or both; fields: "+fieldList())
	f.StringVar(&mergeFormat, "format", "table", "output format: table, json or yaml")
	_ = mergeCmd.MarkFlagRequired("primary")
	_ = mergeCmd.MarkFlagRequired("secondary")
	rootCmd.AddCommand(mergeCmd)
}

func fieldList() string {
	names := make([]string, len(model.MergeableFields))
	for i, f := range model.MergeableFields {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}
