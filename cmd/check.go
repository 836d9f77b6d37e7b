package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/buyer-dedupe/internal/buyer"
	"github.com/sells-group/buyer-dedupe/internal/model"
)

var (
	checkCandidate model.Buyer
	checkIgnore    []string
	checkFormat    string
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Score a candidate buyer against an owner's list",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := requireOwner(); err != nil {
			return err
		}

		return withService(cmd.Context(), func(svc *buyer.Service) error {
			result, err := svc.Check(cmd.Context(), ownerID, checkCandidate, checkIgnore)
			if err != nil {
				return eris.Wrap(err, "check")
			}
			return writeOutput(cmd.OutOrStdout(), checkFormat, result, func(w *tableWriter) {
				formatMatches(w, result.Matches)
			})
		})
	},
}

func init() {
	f := checkCmd.Flags()
	f.StringVar(&checkCandidate.Name, "name", "", "candidate name")
	f.StringVar(&checkCandidate.Email, "email", "", "candidate email")
	f.StringVar(&checkCandidate.Phone, "phone", "", "candidate phone")
	f.StringVar(&checkCandidate.CompanyName, "company", "", "candidate company name")
	f.StringVar(&checkCandidate.City, "city", "", "candidate city")
	f.StringVar(&checkCandidate.State, "state", "", "candidate state")
	f.StringSliceVar(&checkIgnore, "ignore", nil, "buyer IDs to leave out of the result")
	f.StringVar(&checkFormat, "format", "table", "output format: table, json or yaml")
	rootCmd.AddCommand(checkCmd)
}
