// Package transport is a resty client that retries every failed request a
// bounded amount of times, the forum's infrastructure fails often and rarely
// says why.
package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"acgfun-checkin/internal/assert"
	"acgfun-checkin/internal/components/chrono"
	"acgfun-checkin/internal/components/telemetry"
	"acgfun-checkin/internal/session"
	"acgfun-checkin/lib/restyutil"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"golang.org/x/net/publicsuffix"
)

const (
	report_client_request = "client.request"
)

const (
	DefaultAttempts = 3
	DefaultDelay    = 2 * time.Second
	DefaultTimeout  = 30 * time.Second
)

var tracer = otel.Tracer("acgfun-checkin/internal/transport")

// ErrTransport is matched (errors.Is) by every error returned once all attempts failed.
var ErrTransport = errors.New("transport failed")

// Error is returned when a request failed on every attempt.
type Error struct {
	Method   string
	Url      string
	Attempts int
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %d attempts: %v", e.Method, e.Url, e.Attempts, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return target == ErrTransport
}

// StatusError is the error of a single attempt that got a 4xx or 5xx response.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %s", e.Status)
}

type Options struct {
	Session *session.Session
	// Attempts is the total amount of tries per request, it defaults to DefaultAttempts.
	Attempts int
	// Delay is how long the caller is blocked between two attempts, it defaults to DefaultDelay.
	Delay time.Duration
	// Timeout caps a single attempt, it defaults to DefaultTimeout.
	Timeout            time.Duration
	InsecureSkipVerify bool
	// DumpOutput, if not nil, receives every HTTP exchange.
	DumpOutput restyutil.InstrumentOutput
}

type Client struct {
	http     *resty.Client
	session  *session.Session
	sleep    chrono.SleepAPI
	tel      telemetry.API
	attempts int
	delay    time.Duration
}

func New(opts Options, sleep chrono.SleepAPI, tel telemetry.API) *Client {
	assert.NotNil(opts.Session)
	assert.NotNil(sleep)
	assert.NotNil(tel)

	tel = telemetry.NewScopedAPI("transport", tel)

	if opts.Attempts <= 0 {
		opts.Attempts = DefaultAttempts
	}
	if opts.Delay <= 0 {
		opts.Delay = DefaultDelay
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	inner := http.DefaultTransport.(*http.Transport).Clone()
	roundTripper := cloudflarebp.AddCloudFlareByPass(inner)
	if opts.InsecureSkipVerify {
		// set after the bypass since it replaces the transport's tls config
		if inner.TLSClientConfig == nil {
			inner.TLSClientConfig = &tls.Config{}
		}
		inner.TLSClientConfig.InsecureSkipVerify = true
	}

	httpClient := resty.New()
	httpClient.SetTransport(roundTripper)
	httpClient.SetBaseURL(opts.Session.BaseUrl.String())
	httpClient.SetCookieJar(opts.Session.Jar)
	for key, values := range opts.Session.Headers {
		for _, v := range values {
			httpClient.Header.Add(key, v)
		}
	}
	httpClient.SetRedirectPolicy(
		resty.FlexibleRedirectPolicy(maxRedirects),
		sameSiteRedirectPolicy(opts.Session.BaseUrl.Hostname()),
	)
	httpClient.SetTimeout(opts.Timeout)

	restyutil.InstrumentClient(httpClient, tracer, opts.DumpOutput)

	return &Client{
		http:     httpClient,
		session:  opts.Session,
		sleep:    sleep,
		tel:      tel,
		attempts: opts.Attempts,
		delay:    opts.Delay,
	}
}

// Session returns the session the client sends with every request.
func (c *Client) Session() *session.Session {
	return c.session
}

// Request performs a request, retrying it on any failure (tls, connection,
// timeout, 4xx/5xx status or anything else) until the attempts are exhausted.
// `configure`, if not nil, is applied to every attempt's request.
func (c *Client) Request(ctx context.Context, method, url string, configure func(*resty.Request)) (*resty.Response, error) {
	var lastErr error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		res, err := c.attempt(ctx, method, url, configure)
		if err == nil {
			return res, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			break
		}
		if attempt == c.attempts {
			break
		}

		c.tel.ReportWarning(
			report_client_request,
			fmt.Errorf("attempt %d/%d: %w", attempt, c.attempts, err),
			method,
			url,
		)
		err = c.sleep.Sleep(ctx, c.delay)
		if err != nil {
			lastErr = err
			break
		}
	}

	err := &Error{
		Method:   method,
		Url:      url,
		Attempts: c.attempts,
		Err:      lastErr,
	}
	c.tel.ReportBroken(report_client_request, err)
	return nil, err
}

func (c *Client) attempt(ctx context.Context, method, url string, configure func(*resty.Request)) (*resty.Response, error) {
	req := c.http.R().SetContext(ctx)
	if configure != nil {
		configure(req)
	}
	res, err := req.Execute(method, url)
	if err != nil {
		return nil, err
	}
	if res.IsError() {
		return nil, &StatusError{Code: res.StatusCode(), Status: res.Status()}
	}
	return res, nil
}

// Get is Request with the GET method.
func (c *Client) Get(ctx context.Context, url string) (*resty.Response, error) {
	return c.Request(ctx, http.MethodGet, url, nil)
}

const maxRedirects = 10

// sameSite reports whether host belongs to the same registrable domain as
// base, so www. and mirror subdomains of the forum are allowed.
func sameSite(base, host string) bool {
	if strings.EqualFold(base, host) {
		return true
	}
	if net.ParseIP(base) != nil || net.ParseIP(host) != nil {
		return false
	}
	baseDomain, err := publicsuffix.EffectiveTLDPlusOne(base)
	if err != nil {
		return false
	}
	hostDomain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return false
	}
	return strings.EqualFold(baseDomain, hostDomain)
}

func sameSiteRedirectPolicy(base string) resty.RedirectPolicy {
	return resty.RedirectPolicyFunc(func(req *http.Request, via []*http.Request) error {
		if !sameSite(base, req.URL.Hostname()) {
			return fmt.Errorf("redirect to %s leaves %s", req.URL.Hostname(), base)
		}
		return nil
	})
}
