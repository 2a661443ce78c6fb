package commands

import (
	"time"

	"acgfun-checkin/internal/components/telemetry"
	"acgfun-checkin/internal/logclean"
	"acgfun-checkin/internal/notify"
	"acgfun-checkin/internal/scrapers/discuz"
	"acgfun-checkin/internal/transport"
	"acgfun-checkin/lib/configutil"
)

type RetryConfig struct {
	Attempts       int     `json:"attempts"`
	DelaySeconds   float64 `json:"delay_seconds"`
	TimeoutSeconds float64 `json:"timeout_seconds"`
}

type ConfirmConfig struct {
	DelaySeconds float64 `json:"delay_seconds"`
	// pointer so an explicit false survives merging with the defaults
	Optimistic *bool `json:"optimistic"`
}

type NotifyConfig struct {
	Sendkey     string `json:"sendkey"`
	SendkeyFile string `json:"sendkey_file"`
	// ServerChanUrl overrides the Server酱 api base url.
	ServerChanUrl string            `json:"serverchan_url"`
	Smtp          notify.SmtpConfig `json:"smtp"`
}

type LogsConfig struct {
	Dir   string          `json:"dir"`
	File  string          `json:"file"`
	Rules []logclean.Rule `json:"rules"`
}

type Config struct {
	BaseUrl            string               `json:"base_url"`
	SiteName           string               `json:"site_name"`
	PointName          string               `json:"point_name"`
	InsecureSkipVerify *bool                `json:"insecure_skip_verify"`
	Retry              RetryConfig          `json:"retry"`
	Confirm            ConfirmConfig        `json:"confirm"`
	Notify             NotifyConfig         `json:"notify"`
	Logs               LogsConfig           `json:"logs"`
	HistoryDb          string               `json:"history_db"`
	Otlp               telemetry.OtlpConfig `json:"otlp"`
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func boolPtr(b bool) *bool {
	return &b
}

func defaultConfig() Config {
	return Config{
		BaseUrl:            "https://acgfun.art",
		SiteName:           notify.DefaultSiteName,
		PointName:          discuz.DefaultPointName,
		InsecureSkipVerify: boolPtr(true),
		Retry: RetryConfig{
			Attempts:       transport.DefaultAttempts,
			DelaySeconds:   transport.DefaultDelay.Seconds(),
			TimeoutSeconds: transport.DefaultTimeout.Seconds(),
		},
		Confirm: ConfirmConfig{
			DelaySeconds: discuz.DefaultConfirmDelay.Seconds(),
			Optimistic:   boolPtr(true),
		},
		Notify: NotifyConfig{
			SendkeyFile: notify.DefaultSendKeyFile,
		},
		Logs: LogsConfig{
			Dir:   "logs",
			File:  "logs/cookie_signin.log",
			Rules: logclean.DefaultRules,
		},
	}
}

func loadConfig(path string) (Config, error) {
	return configutil.ReadConfigWithDefaults(path, defaultConfig())
}
