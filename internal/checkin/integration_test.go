package checkin

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"acgfun-checkin/internal/components/chrono"
	"acgfun-checkin/internal/components/telemetry"
	"acgfun-checkin/internal/notify"
	"acgfun-checkin/internal/scrapers/discuz"
	"acgfun-checkin/internal/session"
	"acgfun-checkin/internal/transport"

	"github.com/stretchr/testify/require"
)

func TestRunAgainstForum(t *testing.T) {
	testCases := []struct {
		name        string
		signPage    string
		checkinHits int
		detail      string
	}{
		{
			name:        "already signed",
			signPage:    `<div class="qdleft">您今天已经签到过了</div>`,
			checkinHits: 0,
			detail:      "今日签到已完成\n\n当前天空石数量: 77",
		},
		{
			name:        "not signed",
			signPage:    `<a href="plugin.php?id=k_misign:sign&operation=qiandao&formhash=1">签到</a>`,
			checkinHits: 1,
			detail:      "今日签到任务已完成\n\n当前天空石数量: 77",
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			checkinHits := 0
			mux := http.NewServeMux()
			mux.HandleFunc("/home.php", func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Query().Get("mod") == "spacecp" {
					w.Write([]byte(`<li class="xi1 cl">天空石: 77</li>`))
					return
				}
				w.Write([]byte(`<h2 class="mbn">Alice(1)</h2>`))
			})
			mux.HandleFunc("/plugin.php", func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Query().Get("operation") == "qiandao" {
					checkinHits++
					w.Write([]byte(`恭喜您签到成功`))
					return
				}
				w.Write([]byte(test.signPage))
			})
			srv := httptest.NewServer(mux)
			t.Cleanup(srv.Close)

			s, err := session.New(srv.URL)
			require.NoError(t, err)

			sleep := &chrono.FakeSleep{}
			tel := &telemetry.Recorder{}
			clock := chrono.FixedTime{Time: now}
			site := discuz.NewClient(transport.New(transport.Options{Session: s}, sleep, tel), discuz.Options{}, sleep, tel)
			notifier := &notify.Recorder{Delivered: true}

			runner := NewRunner(site, notifier, notify.NewMessages("", clock), clock, tel, Options{
				LoadSession: func() error {
					_, err := s.LoadString("cQWy_2132_auth=token")
					return err
				},
			})

			result := runner.Run(context.Background())
			require.True(t, result.Success, tel.String())
			require.Equal(t, "Alice", result.Identity.Name)
			require.Equal(t, test.detail, result.Detail)
			require.Equal(t, test.checkinHits, checkinHits)
			require.Len(t, notifier.Messages, 1)
			require.Empty(t, sleep.Calls)
		})
	}
}
