package restyutil

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

func TestInstrumentClientDumpsExchanges(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<p>您今天已经签到过了</p>"))
	}))
	t.Cleanup(srv.Close)

	dir := filepath.Join(t.TempDir(), "dump")
	out, err := NewFilesystemOutput(dir)
	require.NoError(t, err)

	client := resty.New()
	InstrumentClient(client, nil, out)

	_, err = client.R().
		SetHeader("Cookie", "cQWy_2132_auth=secret").
		Get(srv.URL + "/plugin.php?id=k_misign:sign")
	require.NoError(t, err)

	contents, err := os.ReadFile(filepath.Join(dir, "1.http"))
	require.NoError(t, err)
	require.Contains(t, string(contents), "> GET "+srv.URL)
	require.Contains(t, string(contents), "< 200 ")
	require.Contains(t, string(contents), "您今天已经签到过了")
	require.Contains(t, string(contents), "Cookie: <redacted>")
	require.NotContains(t, string(contents), "secret")
}

func TestInstrumentClientDumpsRequestBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":0}`))
	}))
	t.Cleanup(srv.Close)

	dir := filepath.Join(t.TempDir(), "dump")
	out, err := NewFilesystemOutput(dir)
	require.NoError(t, err)

	client := resty.New()
	InstrumentClient(client, nil, out)

	_, err = client.R().
		SetFormData(map[string]string{"title": "签到成功"}).
		Post(srv.URL + "/SCTkey.send")
	require.NoError(t, err)
	_, err = client.R().Get(srv.URL + "/home.php?mod=space&do=profile")
	require.NoError(t, err)

	post, err := os.ReadFile(filepath.Join(dir, "1.http"))
	require.NoError(t, err)
	require.Contains(t, string(post), "> POST "+srv.URL)
	require.Contains(t, string(post), "title=")

	get, err := os.ReadFile(filepath.Join(dir, "2.http"))
	require.NoError(t, err)
	require.Contains(t, string(get), "<no body>")
}
