// Package discuz scrapes a Discuz forum running the k_misign sign plugin: who
// the session belongs to, whether today's check-in is done, the check-in itself
// and the user's credit balance.
package discuz

import (
	"context"
	"fmt"
	"time"

	"acgfun-checkin/internal/assert"
	"acgfun-checkin/internal/components/chrono"
	"acgfun-checkin/internal/components/telemetry"
	"acgfun-checkin/internal/transport"
	"acgfun-checkin/lib/htmlutil"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	report_client_verify_identity = "client.verify-identity"
	report_client_classify        = "client.classify"
	report_client_execute         = "client.execute"
	report_client_confirm         = "client.confirm"
	report_client_read_credits    = "client.read-credits"
)

var tracer = otel.Tracer("acgfun-checkin/internal/scrapers/discuz")

type Options struct {
	// PointName is the credit the balance is read for, it is also a success
	// keyword of the check-in response.
	PointName    string
	ConfirmDelay time.Duration
	// OptimisticConfirmation decides the outcome when the state can't be
	// fetched again after an ambiguous check-in response.
	OptimisticConfirmation bool
}

type Client struct {
	http  *transport.Client
	sleep chrono.SleepAPI
	tel   telemetry.API
	opts  Options
}

func NewClient(http *transport.Client, opts Options, sleep chrono.SleepAPI, tel telemetry.API) *Client {
	assert.NotNil(http)
	assert.NotNil(sleep)
	assert.NotNil(tel)

	if opts.PointName == "" {
		opts.PointName = DefaultPointName
	}
	if opts.ConfirmDelay <= 0 {
		opts.ConfirmDelay = DefaultConfirmDelay
	}

	return &Client{
		http:  http,
		sleep: sleep,
		tel:   telemetry.NewScopedAPI("discuz", tel),
		opts:  opts,
	}
}

func (c *Client) PointName() string {
	return c.opts.PointName
}

func (c *Client) fetch(ctx context.Context, path string) (page, error) {
	res, err := c.http.Get(ctx, path)
	if err != nil {
		return page{}, err
	}
	return newPage(string(res.Body())), nil
}

// VerifyIdentity checks that the session is logged in and returns the user's
// display name. Any failure (including an unreachable profile page) wraps
// ErrNotAuthenticated.
func (c *Client) VerifyIdentity(ctx context.Context) (Identity, error) {
	ctx, span := tracer.Start(ctx, "VerifyIdentity")
	defer span.End()

	p, err := c.fetch(ctx, ProfilePath)
	if err != nil {
		c.tel.ReportBroken(report_client_verify_identity, fmt.Errorf("fetch profile: %w", err))
		span.SetStatus(codes.Error, err.Error())
		return Identity{Name: UnknownUser}, fmt.Errorf("%w: %w", ErrNotAuthenticated, err)
	}

	identity, rule := identifyPage(p)
	span.SetAttributes(
		attribute.String("rule", rule),
		attribute.Bool("authenticated", identity.Authenticated),
	)
	if !identity.Authenticated {
		c.tel.ReportWarning(report_client_verify_identity, fmt.Errorf("login form shown instead of profile"))
		return identity, ErrNotAuthenticated
	}

	c.tel.ReportDebug("verified identity", identity.Name, rule)
	return identity, nil
}

// Classify fetches the sign page and returns today's check-in state, it never
// reuses a previous result.
func (c *Client) Classify(ctx context.Context) (CheckinState, error) {
	ctx, span := tracer.Start(ctx, "Classify")
	defer span.End()

	p, err := c.fetch(ctx, SignPath)
	if err != nil {
		c.tel.ReportBroken(report_client_classify, fmt.Errorf("fetch sign page: %w", err))
		span.SetStatus(codes.Error, err.Error())
		return Unknown, err
	}

	state, rule := classifyPage(p)
	span.SetAttributes(
		attribute.String("state", state.String()),
		attribute.String("rule", rule),
	)
	c.tel.ReportDebug("classified sign page", state.String(), rule)
	return state, nil
}

// Execute follows the check-in link of the sign page and classifies the
// response, ambiguous responses are settled by checking the state again.
func (c *Client) Execute(ctx context.Context) (CheckinOutcome, error) {
	ctx, span := tracer.Start(ctx, "Execute")
	defer span.End()

	p, err := c.fetch(ctx, SignPath)
	if err != nil {
		c.tel.ReportBroken(report_client_execute, fmt.Errorf("fetch sign page: %w", err))
		span.SetStatus(codes.Error, err.Error())
		return CheckinOutcome{Reason: "sign page unreachable"}, err
	}

	anchors := htmlutil.GetAnchors(c.http.Session().BaseUrl, p.doc.Find(checkinAnchor))
	if len(anchors) == 0 {
		c.tel.ReportWarning(report_client_execute, fmt.Errorf("could not find check-in link"))
		return CheckinOutcome{Reason: "check-in link not found"}, nil
	}
	link := anchors[0].Url.String()
	span.SetAttributes(attribute.String("link", link))
	c.tel.ReportDebug("following check-in link", link)

	res, err := c.http.Get(ctx, link)
	if err != nil {
		c.tel.ReportBroken(report_client_execute, fmt.Errorf("check-in request: %w", err), link)
		span.SetStatus(codes.Error, err.Error())
		return CheckinOutcome{Reason: "check-in request failed"}, err
	}

	body := string(res.Body())
	class := ClassifyResult(body, c.opts.PointName)
	span.SetAttributes(
		attribute.String("verdict", class.Verdict.String()),
		attribute.String("rule", class.Rule),
	)
	c.tel.ReportDebug("classified check-in response", class.Verdict.String(), class.Rule, class.Keyword)

	switch class.Verdict {
	case VerdictSuccess:
		return CheckinOutcome{Success: true, Via: class.Via, Keyword: class.Keyword}, nil
	case VerdictAmbiguous:
		return c.confirm(ctx), nil
	}

	reason := truncate(body, maxReasonRunes)
	c.tel.ReportWarning(report_client_execute, fmt.Errorf("check-in response not recognized"), reason)
	return CheckinOutcome{Reason: reason}, nil
}

// confirm waits for the forum to settle and checks the state again.
func (c *Client) confirm(ctx context.Context) CheckinOutcome {
	ctx, span := tracer.Start(ctx, "confirm")
	defer span.End()

	err := c.sleep.Sleep(ctx, c.opts.ConfirmDelay)
	if err != nil {
		c.tel.ReportBroken(report_client_confirm, fmt.Errorf("wait: %w", err))
		return CheckinOutcome{Via: ViaConfirmation, Reason: err.Error()}
	}

	state, err := c.Classify(ctx)
	if err != nil {
		c.tel.ReportWarning(
			report_client_confirm,
			fmt.Errorf("state unavailable, optimistic=%v: %w", c.opts.OptimisticConfirmation, err),
		)
		return CheckinOutcome{
			Success: c.opts.OptimisticConfirmation,
			Via:     ViaOptimistic,
			Reason:  err.Error(),
		}
	}

	if state == AlreadySigned {
		return CheckinOutcome{Success: true, Via: ViaConfirmation}
	}
	return CheckinOutcome{
		Via:    ViaConfirmation,
		Reason: fmt.Sprintf("state after check-in: %s", state),
	}
}
