package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"acgfun-checkin/internal/components/telemetry"
	"acgfun-checkin/internal/notify"

	"github.com/spf13/cobra"
)

var (
	configPath *string
	debug      *bool
	dumpHttp   *string
)

// state shared by every command, set up by rootCmd before a command runs
var (
	cfg      Config
	exitCode int
	cleanups []func()
)

var rootCmd = &cobra.Command{
	Use:   "checkin",
	Short: "checkin performs the daily check-in of a Discuz forum using a saved session cookie.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		err := notify.LoadDotEnv()
		if err != nil {
			return fmt.Errorf("load .env: %w", err)
		}

		cfg, err = loadConfig(*configPath)
		if err != nil {
			return fmt.Errorf("read config: %w", err)
		}

		logs, err := telemetry.InitSlog(*debug, cfg.Logs.File)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		cleanups = append(cleanups, func() { closeQuietly(logs) })

		shutdown, err := telemetry.SetupTracing(cmd.Context(), "acgfun-checkin", cfg.Otlp)
		if err != nil {
			slog.Warn("failed to setup tracing", "err", err)
			return nil
		}
		cleanups = append(cleanups, func() {
			err := shutdown(context.Background())
			if err != nil {
				slog.Warn("failed to flush traces", "err", err)
			}
		})
		return nil
	},
}

func init() {
	configPath = rootCmd.PersistentFlags().String("config", "checkin.json5", "The config file, a checkin.local.json5 next to it overrides it.")
	debug = rootCmd.PersistentFlags().Bool("debug", false, "Log debug information.")
	dumpHttp = rootCmd.PersistentFlags().String("dump-http", "", "A directory to dump every HTTP exchange to.")
}

func closeQuietly(c io.Closer) {
	_ = c.Close()
}

func ExecuteContext(ctx context.Context) {
	err := rootCmd.ExecuteContext(ctx)
	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(exitCode)
}
