package commands

import (
	"errors"
	"strconv"

	"acgfun-checkin/internal/components/chrono"
	"acgfun-checkin/internal/history"

	"github.com/spf13/cobra"
)

var historyLimit *int

func init() {
	historyLimit = historyCmd.Flags().Int("limit", 20, "The maximum amount of runs to show.")
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history [--limit <n>]",
	Short: "Lists recorded runs, history_db must be set in the config.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.HistoryDb == "" {
			return errors.New("history_db is not configured")
		}

		store, err := history.Open(cfg.HistoryDb)
		if err != nil {
			return err
		}
		defer store.Close()

		runs, err := store.List(cmd.Context(), *historyLimit)
		if err != nil {
			return err
		}

		t := newTable()
		t.AppendHeader([]any{"Time", "User", "Result", "State", "Via", "Notification", "Balance"})
		for _, r := range runs {
			result := "✅"
			if !r.Success {
				result = "❌"
			}
			balance := "-"
			if r.Balance != nil {
				balance = strconv.Itoa(*r.Balance)
			}
			t.AppendRow([]any{
				r.StartedAt.In(chrono.Shanghai()).Format("2006-01-02 15:04:05"),
				r.User,
				result,
				r.State,
				r.Via,
				r.Notification,
				balance,
			})
		}
		t.Render()
		return nil
	},
}
