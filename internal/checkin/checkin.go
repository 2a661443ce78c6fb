// Package checkin runs one daily check-in: it verifies the session, checks
// today's state, checks in if needed, reads the balance and sends exactly one
// notification about the outcome.
package checkin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"acgfun-checkin/internal/assert"
	"acgfun-checkin/internal/components/chrono"
	"acgfun-checkin/internal/components/telemetry"
	"acgfun-checkin/internal/history"
	"acgfun-checkin/internal/notify"
	"acgfun-checkin/internal/scrapers/discuz"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const (
	report_runner_load_session = "runner.load-session"
	report_runner_verify       = "runner.verify"
	report_runner_classify     = "runner.classify"
	report_runner_execute      = "runner.execute"
	report_runner_balance      = "runner.balance"
	report_runner_notify       = "runner.notify"
	report_runner_record       = "runner.record"
)

var tracer = otel.Tracer("acgfun-checkin/internal/checkin")

// Site is the part of the forum scraper a run depends on.
type Site interface {
	VerifyIdentity(ctx context.Context) (discuz.Identity, error)
	Classify(ctx context.Context) (discuz.CheckinState, error)
	Execute(ctx context.Context) (discuz.CheckinOutcome, error)
	ReadBalance(ctx context.Context, pointName string) (int, error)
}

// Recorder stores a summary of every run.
type Recorder interface {
	Record(ctx context.Context, run history.Run) (int64, error)
}

type Phase string

const (
	PhaseInit          Phase = "init"
	PhaseVerifying     Phase = "verifying"
	PhaseCheckingState Phase = "checking-state"
	PhaseExecuting     Phase = "executing"
	PhaseReporting     Phase = "reporting"
	PhaseSuccess       Phase = "success"
	PhaseFailure       Phase = "failure"
)

type Notification string

const (
	NotificationSuccess       Notification = "success"
	NotificationFailure       Notification = "failure"
	NotificationCookieExpired Notification = "cookie-expired"
)

const (
	detailLoadFailed    = "Cookie加载失败"
	detailCookieExpired = "Cookie已失效"
	detailExecuteFailed = "签到执行失败"
	detailAlreadyDone   = "今日签到已完成"
	detailExecuted      = "今日签到任务已完成"
)

type Result struct {
	Success  bool
	Phase    Phase
	Identity discuz.Identity
	State    discuz.CheckinState
	// Outcome is nil when the check-in action was not performed.
	Outcome      *discuz.CheckinOutcome
	Balance      *int
	Notification Notification
	Delivered    bool
	Detail       string
}

type Options struct {
	PointName string
	// LoadSession fills the session's cookie jar, it runs before anything is
	// fetched. It can be nil if the session is loaded beforehand.
	LoadSession func() error
	// History can be nil.
	History Recorder
}

type Runner struct {
	site     Site
	notifier notify.Notifier
	messages notify.Messages
	time     chrono.TimeAPI
	tel      telemetry.API
	opts     Options
}

func NewRunner(
	site Site,
	notifier notify.Notifier,
	messages notify.Messages,
	time chrono.TimeAPI,
	tel telemetry.API,
	opts Options,
) Runner {
	assert.NotNil(site)
	assert.NotNil(notifier)
	assert.NotNil(time)
	assert.NotNil(tel)

	if opts.PointName == "" {
		opts.PointName = discuz.DefaultPointName
	}

	return Runner{
		site:     site,
		notifier: notifier,
		messages: messages,
		time:     time,
		tel:      telemetry.NewScopedAPI("checkin", tel),
		opts:     opts,
	}
}

// Run performs one check-in attempt, it never returns an error: every failure
// ends up as a failed Result with a matching notification.
func (r Runner) Run(ctx context.Context) Result {
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()

	startedAt := r.time.Now()
	result := r.run(ctx)

	span.SetAttributes(
		attribute.Bool("success", result.Success),
		attribute.String("phase", string(result.Phase)),
		attribute.String("notification", string(result.Notification)),
	)

	if r.opts.History != nil {
		r.record(ctx, startedAt, result)
	}
	return result
}

func (r Runner) run(ctx context.Context) Result {
	result := Result{
		Phase:    PhaseInit,
		Identity: discuz.Identity{Name: discuz.UnknownUser},
		State:    discuz.Unknown,
	}

	if r.opts.LoadSession != nil {
		err := r.opts.LoadSession()
		if err != nil {
			r.tel.ReportBroken(report_runner_load_session, err)
			return r.fail(ctx, result, NotificationFailure, detailLoadFailed)
		}
	}

	result.Phase = PhaseVerifying
	identity, err := r.site.VerifyIdentity(ctx)
	if err != nil {
		r.tel.ReportWarning(report_runner_verify, err)
		result.Identity = identity
		return r.fail(ctx, result, NotificationCookieExpired, detailCookieExpired)
	}
	result.Identity = identity

	result.Phase = PhaseCheckingState
	state, err := r.site.Classify(ctx)
	if err != nil {
		// an unknown state is handled by attempting the check-in
		r.tel.ReportWarning(report_runner_classify, err)
		state = discuz.Unknown
	}
	result.State = state
	r.tel.ReportDebug("check-in state", state.String())

	if state == discuz.AlreadySigned {
		return r.report(ctx, result, detailAlreadyDone)
	}

	result.Phase = PhaseExecuting
	outcome, err := r.site.Execute(ctx)
	result.Outcome = &outcome
	if err != nil {
		r.tel.ReportWarning(report_runner_execute, err)
	}
	if err != nil || !outcome.Success {
		if outcome.Reason != "" {
			r.tel.ReportDebug("check-in failure reason", outcome.Reason)
		}
		return r.fail(ctx, result, NotificationFailure, detailExecuteFailed)
	}

	return r.report(ctx, result, detailExecuted)
}

func (r Runner) report(ctx context.Context, result Result, detail string) Result {
	result.Phase = PhaseReporting

	balance, err := r.site.ReadBalance(ctx, r.opts.PointName)
	if err == nil {
		result.Balance = &balance
		detail = fmt.Sprintf("%s\n\n当前%s数量: %d", detail, r.opts.PointName, balance)
	} else {
		if !errors.Is(err, discuz.ErrCreditNotFound) {
			r.tel.ReportWarning(report_runner_balance, err)
		}
		detail = fmt.Sprintf("%s\n\n%s信息获取失败", detail, r.opts.PointName)
	}

	result.Success = true
	result.Phase = PhaseSuccess
	result.Detail = detail
	result.Notification = NotificationSuccess
	result.Delivered = r.send(ctx, r.messages.SigninSuccess(result.Identity.Name, detail))
	return result
}

func (r Runner) fail(ctx context.Context, result Result, kind Notification, detail string) Result {
	result.Success = false
	result.Phase = PhaseFailure
	result.Detail = detail
	result.Notification = kind

	var msg notify.Message
	switch kind {
	case NotificationCookieExpired:
		msg = r.messages.CookieExpired(result.Identity.Name)
	default:
		msg = r.messages.SigninFailed(result.Identity.Name, detail)
	}
	result.Delivered = r.send(ctx, msg)
	return result
}

func (r Runner) send(ctx context.Context, msg notify.Message) bool {
	delivered := r.notifier.Send(ctx, msg.Title, msg.Body)
	if !delivered {
		r.tel.ReportWarning(report_runner_notify, fmt.Errorf("notification not delivered"), msg.Title)
	}
	return delivered
}

func (r Runner) record(ctx context.Context, startedAt time.Time, result Result) {
	run := history.Run{
		StartedAt:    startedAt,
		User:         result.Identity.Name,
		Success:      result.Success,
		State:        result.State.String(),
		Notification: string(result.Notification),
		Balance:      result.Balance,
		Detail:       result.Detail,
	}
	if result.Outcome != nil {
		run.Via = string(result.Outcome.Via)
	}

	_, err := r.opts.History.Record(ctx, run)
	if err != nil {
		r.tel.ReportBroken(report_runner_record, err)
	}
}
