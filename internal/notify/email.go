package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"acgfun-checkin/internal/assert"
	"acgfun-checkin/internal/components/telemetry"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

const (
	report_email_send = "email.send"
)

var tracer = otel.Tracer("acgfun-checkin/internal/notify")

type SmtpConfig struct {
	Server       string   `json:"server"`
	Port         int      `json:"port"`
	EmailAddress string   `json:"email_address"`
	Password     string   `json:"password"`
	To           []string `json:"to"`
}

func (c SmtpConfig) Configured() bool {
	return c.Server != "" && c.Port > 0 && c.EmailAddress != "" && len(c.To) > 0
}

// Email sends messages over SMTP, the markdown body is sent as plain text.
type Email struct {
	config   SmtpConfig
	siteName string
	tel      telemetry.API
	// send is swapped in tests.
	send func(mail *email.Email, addr string, auth smtp.Auth) error
}

func NewEmail(config SmtpConfig, siteName string, tel telemetry.API) Email {
	assert.NotNil(tel)
	if siteName == "" {
		siteName = DefaultSiteName
	}
	return Email{
		config:   config,
		siteName: siteName,
		tel:      telemetry.NewScopedAPI("notify", tel),
		send: func(mail *email.Email, addr string, auth smtp.Auth) error {
			return mail.Send(addr, auth)
		},
	}
}

func (e Email) Send(ctx context.Context, title, body string) bool {
	_, span := tracer.Start(ctx, "Email.Send")
	defer span.End()

	mail := email.NewEmail()
	mail.From = fmt.Sprintf("%s Check-in <%s>", e.siteName, e.config.EmailAddress)
	mail.To = e.config.To
	mail.Subject = title
	mail.Text = []byte(body)

	addr := fmt.Sprintf("%s:%d", e.config.Server, e.config.Port)
	err := e.send(mail, addr, smtp.PlainAuth("", e.config.EmailAddress, e.config.Password, e.config.Server))
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = e.send(mail, addr, nil)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send email")
		e.tel.ReportBroken(report_email_send, err, addr)
		return false
	}

	e.tel.ReportDebug("email notification sent", title)
	return true
}
