package main

import (
	"encoding/json"

	"github.com/JonMunkholm/roster/internal/core"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Diagnose the spreadsheet connection",
	Long: `Check prints the masked configuration, then either runs the step-by-step
connection test or, with --source, a single fetch reporting where records
would come from. It exits non-zero when the test fails.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

var checkSourceOnly bool

func init() {
	checkCmd.Flags().BoolVar(&checkSourceOnly, "source", false, "only report the data source of one fetch")
}

func runCheck(cmd *cobra.Command, _ []string) error {
	service := newService(nil)
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")

	if err := enc.Encode(core.NewConfigStatus(cfg.Sheets)); err != nil {
		return err
	}

	if checkSourceOnly {
		st := service.SourceStatus(cmd.Context())
		if err := enc.Encode(st); err != nil {
			return err
		}
		if st.Source != core.SourceLive {
			return errors.New(st.Error)
		}
		return nil
	}

	report := service.TestConnection(cmd.Context())
	if err := enc.Encode(report); err != nil {
		return err
	}
	if !report.Success {
		return errors.New(report.Error)
	}
	return nil
}
