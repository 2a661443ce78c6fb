package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"acgfun-checkin/internal/components/chrono"
	"acgfun-checkin/internal/components/telemetry"
	"acgfun-checkin/internal/session"
	"acgfun-checkin/lib/restyutil"

	"github.com/stretchr/testify/require"
)

func setupClient(t testing.TB, baseUrl string) (*Client, *chrono.FakeSleep, *telemetry.Recorder) {
	s, err := session.New(baseUrl)
	require.NoError(t, err)
	_, err = s.LoadString("cQWy_2132_auth=token; cQWy_2132_saltkey=salt")
	require.NoError(t, err)

	sleep := &chrono.FakeSleep{}
	rec := &telemetry.Recorder{}
	client := New(Options{Session: s}, sleep, rec)
	return client, sleep, rec
}

func TestRequestGivesUpAfterThreeAttempts(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	client, sleep, rec := setupClient(t, srv.URL)

	_, err := client.Get(context.Background(), "/plugin.php?id=k_misign:sign")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrTransport)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	require.Equal(t, http.StatusBadGateway, statusErr.Code)

	var transportErr *Error
	require.True(t, errors.As(err, &transportErr))
	require.Equal(t, 3, transportErr.Attempts)

	require.EqualValues(t, 3, hits.Load())
	require.Equal(t, []time.Duration{DefaultDelay, DefaultDelay}, sleep.Calls)
	require.Equal(t, 2, rec.Count("warning", report_client_request))
	require.Equal(t, 1, rec.Count("broken", report_client_request))
}

func TestRequestConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	baseUrl := srv.URL
	srv.Close()

	client, sleep, _ := setupClient(t, baseUrl)

	_, err := client.Get(context.Background(), "/home.php?mod=space&do=profile")
	require.ErrorIs(t, err, ErrTransport)
	require.Len(t, sleep.Calls, 2)
}

func TestRequestRecoversAfterFailures(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	t.Cleanup(srv.Close)

	client, sleep, _ := setupClient(t, srv.URL)

	res, err := client.Get(context.Background(), "/")
	require.NoError(t, err)
	require.Equal(t, "ok", res.String())
	require.EqualValues(t, 3, hits.Load())
	require.Len(t, sleep.Calls, 2)
}

func TestRequestSendsSessionCookiesAndHeaders(t *testing.T) {
	var cookie, userAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie("cQWy_2132_auth")
		if err == nil {
			cookie = c.Value
		}
		userAgent = r.Header.Get("User-Agent")
	}))
	t.Cleanup(srv.Close)

	client, sleep, _ := setupClient(t, srv.URL)

	_, err := client.Get(context.Background(), "/")
	require.NoError(t, err)
	require.Equal(t, "token", cookie)
	require.NotEmpty(t, userAgent)
	require.Empty(t, sleep.Calls)
}

func TestRequestStopsWhenCancelled(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	client, _, _ := setupClient(t, srv.URL)
	ctx, cancel := context.WithCancel(context.Background())
	client.sleep = cancelSleep{cancel: cancel}

	_, err := client.Get(ctx, "/")
	require.ErrorIs(t, err, context.Canceled)
	require.ErrorIs(t, err, ErrTransport)
	require.EqualValues(t, 1, hits.Load())
}

type cancelSleep struct {
	cancel context.CancelFunc
}

func (s cancelSleep) Sleep(ctx context.Context, d time.Duration) error {
	s.cancel()
	return ctx.Err()
}

func TestRequestWithHttpDump(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<p>您今天还没有签到</p>"))
	}))
	t.Cleanup(srv.Close)

	s, err := session.New(srv.URL)
	require.NoError(t, err)
	dir := filepath.Join(t.TempDir(), "dump")
	output, err := restyutil.NewFilesystemOutput(dir)
	require.NoError(t, err)

	client := New(Options{Session: s, DumpOutput: output}, &chrono.FakeSleep{}, &telemetry.Recorder{})
	res, err := client.Get(context.Background(), "/plugin.php?id=k_misign:sign")
	require.NoError(t, err)
	require.Contains(t, res.String(), "您今天还没有签到")

	dump, err := os.ReadFile(filepath.Join(dir, "1.http"))
	require.NoError(t, err)
	require.Contains(t, string(dump), "您今天还没有签到")
}

func TestSameSite(t *testing.T) {
	testCases := []struct {
		base, host string
		same       bool
	}{
		{"acgfun.art", "acgfun.art", true},
		{"acgfun.art", "www.acgfun.art", true},
		{"www.acgfun.art", "bbs.acgfun.art", true},
		{"acgfun.art", "ACGFUN.art", true},
		{"127.0.0.1", "127.0.0.1", true},
		{"acgfun.art", "evil.com", false},
		{"acgfun.art", "acgfun.art.evil.com", false},
		{"127.0.0.1", "127.0.0.2", false},
		{"10.0.0.1", "192.0.0.1", false},
	}
	for _, test := range testCases {
		require.Equal(t, test.same, sameSite(test.base, test.host), "%s -> %s", test.base, test.host)
	}
}

func TestRequestFollowsSameSiteRedirect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/forum.php" {
			http.Redirect(w, r, "/home.php", http.StatusFound)
			return
		}
		w.Write([]byte(r.URL.Path))
	}))
	t.Cleanup(srv.Close)

	client, _, _ := setupClient(t, srv.URL)

	res, err := client.Get(context.Background(), "/forum.php")
	require.NoError(t, err)
	require.Equal(t, "/home.php", res.String())
}

func TestRequestRejectsOffsiteRedirect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "http://evil.example/collect", http.StatusFound)
	}))
	t.Cleanup(srv.Close)

	client, _, _ := setupClient(t, srv.URL)

	_, err := client.Get(context.Background(), "/forum.php")
	require.ErrorIs(t, err, ErrTransport)
	require.ErrorContains(t, err, "redirect to evil.example leaves 127.0.0.1")
}
