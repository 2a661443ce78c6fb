package commands

import (
	"fmt"
	"log/slog"

	"acgfun-checkin/internal/checkin"
	"acgfun-checkin/internal/components/chrono"
	"acgfun-checkin/internal/components/telemetry"
	"acgfun-checkin/internal/history"
	"acgfun-checkin/internal/notify"

	"github.com/spf13/cobra"
)

var runCleanLogs *bool

func init() {
	addCookieFlags(runCmd)
	runCleanLogs = runCmd.Flags().Bool("clean-logs", false, "Remove expired logs after a successful check-in.")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run (--file <cookies.txt> | --cookie <cookie string>) [--clean-logs]",
	Short: "Checks in for today if that hasn't been done yet and sends a notification.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		tel := telemetry.SlogAPI{}

		s, err := newSite(tel)
		if err != nil {
			return err
		}

		opts := checkin.Options{
			PointName:   cfg.PointName,
			LoadSession: func() error { return loadCookies(s.session) },
		}
		if cfg.HistoryDb != "" {
			store, err := history.Open(cfg.HistoryDb)
			if err != nil {
				slog.Warn("history disabled", "err", err)
			} else {
				defer store.Close()
				opts.History = store
			}
		}

		clock := chrono.NewStandardTime()
		runner := checkin.NewRunner(
			s.client,
			newNotifier(tel),
			notify.NewMessages(cfg.SiteName, clock),
			clock,
			tel,
			opts,
		)
		result := runner.Run(ctx)
		slog.Info(
			"run finished",
			"success", result.Success,
			"user", result.Identity.Name,
			"state", result.State.String(),
			"notification", string(result.Notification),
			"delivered", result.Delivered,
		)

		if !result.Success {
			fmt.Println("❌ 签到失败！")
			exitCode = 1
			return nil
		}
		fmt.Println("✅ 签到成功！")

		if *runCleanLogs {
			report, err := newCleaner("", tel).Run(false)
			if err != nil {
				slog.Warn("failed to clean logs", "err", err)
				return nil
			}
			slog.Info("cleaned logs", "summary", report.Summary())
		}
		return nil
	},
}
