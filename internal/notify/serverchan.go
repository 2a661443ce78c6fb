package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"acgfun-checkin/internal/assert"
	"acgfun-checkin/internal/components/telemetry"

	"github.com/go-resty/resty/v2"
)

const (
	report_serverchan_send = "serverchan.send"
)

const (
	ServerChanBaseUrl = "https://sctapi.ftqq.com"
	serverChanTimeout = 10 * time.Second
)

// ServerChan pushes messages to WeChat through the Server酱 service.
type ServerChan struct {
	sendkey string
	http    *resty.Client
	tel     telemetry.API
}

// NewServerChan creates a ServerChan notifier, `baseUrl` defaults to ServerChanBaseUrl.
func NewServerChan(sendkey, baseUrl string, tel telemetry.API) ServerChan {
	assert.NotNil(tel)
	if baseUrl == "" {
		baseUrl = ServerChanBaseUrl
	}

	client := resty.New()
	client.SetBaseURL(baseUrl)
	client.SetTimeout(serverChanTimeout)

	return ServerChan{
		sendkey: sendkey,
		http:    client,
		tel:     telemetry.NewScopedAPI("notify", tel),
	}
}

type serverChanResult struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (s ServerChan) Send(ctx context.Context, title, body string) bool {
	if s.sendkey == "" {
		s.tel.ReportWarning(report_serverchan_send, fmt.Errorf("no sendkey configured, skipping"))
		return false
	}

	res, err := s.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"title": title,
			"desp":  body,
		}).
		Post(fmt.Sprintf("/%s.send", s.sendkey))
	if err != nil {
		s.tel.ReportBroken(report_serverchan_send, fmt.Errorf("request: %w", err))
		return false
	}
	if res.StatusCode() != http.StatusOK {
		s.tel.ReportBroken(report_serverchan_send, fmt.Errorf("unexpected status: %s", res.Status()))
		return false
	}

	var result serverChanResult
	err = json.Unmarshal(res.Body(), &result)
	if err != nil {
		s.tel.ReportBroken(report_serverchan_send, fmt.Errorf("unmarshal response: %w", err))
		return false
	}
	if result.Code != 0 {
		s.tel.ReportBroken(
			report_serverchan_send,
			fmt.Errorf("rejected (code %d): %s", result.Code, result.Message),
		)
		return false
	}

	s.tel.ReportDebug("serverchan notification sent", title)
	return true
}
