package commands

import (
	"fmt"
	"log/slog"

	"acgfun-checkin/internal/components/chrono"
	"acgfun-checkin/internal/components/telemetry"
	"acgfun-checkin/internal/logclean"
	"acgfun-checkin/internal/notify"
	"acgfun-checkin/internal/scrapers/discuz"
	"acgfun-checkin/internal/session"
	"acgfun-checkin/internal/transport"
	"acgfun-checkin/lib/restyutil"

	"github.com/spf13/cobra"
)

var (
	cookieFile   string
	cookieString string
)

// addCookieFlags adds the flags that tell where the session cookie comes from.
func addCookieFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&cookieFile, "file", "", "A file containing the cookie string (document.cookie).")
	cmd.Flags().StringVar(&cookieString, "cookie", "", "The cookie string (document.cookie).")
	cmd.MarkFlagsOneRequired("file", "cookie")
	cmd.MarkFlagsMutuallyExclusive("file", "cookie")
}

func loadCookies(s *session.Session) error {
	var n int
	var err error
	if cookieFile != "" {
		n, err = s.LoadFile(cookieFile)
	} else {
		n, err = s.LoadString(cookieString)
	}
	if err != nil {
		return err
	}
	slog.Info("loaded cookies", "count", n)
	return nil
}

type site struct {
	session *session.Session
	client  *discuz.Client
}

func newSite(tel telemetry.API) (site, error) {
	s, err := session.New(cfg.BaseUrl)
	if err != nil {
		return site{}, err
	}

	opts := transport.Options{
		Session:            s,
		Attempts:           cfg.Retry.Attempts,
		Delay:              seconds(cfg.Retry.DelaySeconds),
		Timeout:            seconds(cfg.Retry.TimeoutSeconds),
		InsecureSkipVerify: cfg.InsecureSkipVerify != nil && *cfg.InsecureSkipVerify,
	}
	if *dumpHttp != "" {
		output, err := restyutil.NewFilesystemOutput(*dumpHttp)
		if err != nil {
			return site{}, fmt.Errorf("prepare http dump dir: %w", err)
		}
		opts.DumpOutput = output
	}

	sleep := chrono.NewStandardSleep()
	client := discuz.NewClient(
		transport.New(opts, sleep, tel),
		discuz.Options{
			PointName:              cfg.PointName,
			ConfirmDelay:           seconds(cfg.Confirm.DelaySeconds),
			OptimisticConfirmation: cfg.Confirm.Optimistic == nil || *cfg.Confirm.Optimistic,
		},
		sleep,
		tel,
	)
	return site{session: s, client: client}, nil
}

func newNotifier(tel telemetry.API) notify.Notifier {
	sendkey := notify.ResolveSendKey(cfg.Notify.Sendkey, cfg.Notify.SendkeyFile)
	notifiers := notify.Multi{
		notify.NewServerChan(sendkey, cfg.Notify.ServerChanUrl, tel),
	}
	if cfg.Notify.Smtp.Configured() {
		notifiers = append(notifiers, notify.NewEmail(cfg.Notify.Smtp, cfg.SiteName, tel))
	}
	return notifiers
}

func newCleaner(dir string, tel telemetry.API) logclean.Cleaner {
	if dir == "" {
		dir = cfg.Logs.Dir
	}
	return logclean.NewCleaner(dir, cfg.Logs.Rules, chrono.NewStandardTime(), tel)
}
