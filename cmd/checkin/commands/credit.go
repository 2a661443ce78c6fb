package commands

import (
	"fmt"

	"acgfun-checkin/internal/components/telemetry"

	"github.com/spf13/cobra"
)

var creditPointName *string

func init() {
	addCookieFlags(creditCmd)
	creditPointName = creditCmd.Flags().String("point", "", "The credit to read, defaults to the configured point name.")
	rootCmd.AddCommand(creditCmd)
}

var creditCmd = &cobra.Command{
	Use:   "credit (--file <cookies.txt> | --cookie <cookie string>) [--point <name>]",
	Short: "Shows the current balance of a credit.",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSite(telemetry.SlogAPI{})
		if err != nil {
			return err
		}
		err = loadCookies(s.session)
		if err != nil {
			return err
		}

		pointName := *creditPointName
		if pointName == "" {
			pointName = s.client.PointName()
		}
		info, err := s.client.ReadCredits(cmd.Context(), pointName)
		if err != nil {
			return err
		}

		t := newTable()
		t.AppendHeader([]any{"Credit", "Balance", "Earned today"})
		for name, balance := range info.Balances {
			earned := "-"
			if n, ok := info.EarnedToday[name]; ok {
				earned = fmt.Sprintf("+%d", n)
			}
			t.AppendRow([]any{name, balance, earned})
		}
		t.Render()
		return nil
	},
}
