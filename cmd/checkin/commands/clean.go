package commands

import (
	"fmt"

	"acgfun-checkin/internal/components/telemetry"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	cleanDir    *string
	cleanDryRun *bool
)

func init() {
	cleanDir = cleanLogsCmd.Flags().String("dir", "", "The log directory, defaults to the configured one.")
	cleanDryRun = cleanLogsCmd.Flags().Bool("dry-run", false, "Only show what would be removed.")
	rootCmd.AddCommand(cleanLogsCmd)
}

var cleanLogsCmd = &cobra.Command{
	Use:   "clean-logs [--dir <logs>] [--dry-run]",
	Short: "Removes expired and empty log files.",
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := newCleaner(*cleanDir, telemetry.SlogAPI{}).Run(*cleanDryRun)
		if err != nil {
			return err
		}

		t := newTable()
		t.AppendHeader([]any{"File", "Age (days)", "Size", "Reason"})
		for _, f := range report.Removed {
			reason := "expired"
			if f.Empty {
				reason = "empty"
			}
			t.AppendRow([]any{f.Name, f.AgeDays, humanize.Bytes(uint64(f.Size)), reason})
		}
		t.Render()

		for _, err := range report.Errors {
			fmt.Println("error:", err)
		}
		fmt.Println(report.Summary())
		return nil
	},
}
