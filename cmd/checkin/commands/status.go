package commands

import (
	"errors"
	"fmt"

	"acgfun-checkin/internal/components/telemetry"
	"acgfun-checkin/internal/scrapers/discuz"

	"github.com/spf13/cobra"
)

func init() {
	addCookieFlags(statusCmd)
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status (--file <cookies.txt> | --cookie <cookie string>)",
	Short: "Shows who the cookie belongs to and whether today's check-in is done, without checking in.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		s, err := newSite(telemetry.SlogAPI{})
		if err != nil {
			return err
		}
		err = loadCookies(s.session)
		if err != nil {
			return err
		}

		identity, err := s.client.VerifyIdentity(ctx)
		if errors.Is(err, discuz.ErrNotAuthenticated) {
			fmt.Println("🚨 Cookie已失效")
			exitCode = 1
			return nil
		}
		if err != nil {
			return err
		}

		state, err := s.client.Classify(ctx)
		if err != nil {
			return err
		}

		t := newTable()
		t.AppendHeader([]any{"User", "State"})
		t.AppendRow([]any{identity.Name, state.String()})
		t.Render()
		return nil
	},
}
