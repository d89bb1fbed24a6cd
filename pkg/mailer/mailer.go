package mailer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

var ErrNoRecipient = errors.New("no recipient specified")

// Message is a single outgoing email.
type Message struct {
	To       string
	Subject  string
	Body     string
	HTMLBody string
}

// Sender delivers a Message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// SMTPMailer sends through an SMTP relay.
type SMTPMailer struct {
	from   string
	dialer *gomail.Dialer
	log    *zap.Logger
}

func NewSMTPMailer(config Config, log *zap.Logger) *SMTPMailer {
	return &SMTPMailer{
		from:   config.From,
		dialer: gomail.NewDialer(config.Host, config.Port, config.User, config.Password),
		log:    log.With(zap.String("mailer", "smtp")),
	}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return ErrNoRecipient
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := m.dialer.DialAndSend(m.build(msg)); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	m.log.Debug("email sent", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}

func (m *SMTPMailer) build(msg Message) *gomail.Message {
	out := gomail.NewMessage()
	out.SetHeader("From", m.from)
	out.SetHeader("To", msg.To)
	out.SetHeader("Subject", msg.Subject)

	if msg.HTMLBody != "" {
		out.SetBody("text/html", msg.HTMLBody)
		if msg.Body != "" {
			out.AddAlternative("text/plain", msg.Body)
		}
	} else {
		out.SetBody("text/plain", msg.Body)
	}

	return out
}

// LogMailer writes messages to the log instead of sending them. The body,
// which may hold a code, is only logged when showBody is set.
type LogMailer struct {
	log      *zap.Logger
	showBody bool
}

func NewLogMailer(log *zap.Logger, showBody bool) *LogMailer {
	return &LogMailer{log: log.With(zap.String("mailer", "log")), showBody: showBody}
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	if msg.To == "" {
		return ErrNoRecipient
	}

	fields := []zap.Field{zap.String("to", msg.To), zap.String("subject", msg.Subject)}
	if m.showBody {
		fields = append(fields, zap.String("body", msg.Body))
	}

	m.log.Info("email not delivered, SMTP disabled", fields...)
	return nil
}

// PasswordResetOTP renders the email that carries a reset code.
func PasswordResetOTP(to, code string, validity time.Duration) Message {
	minutes := int(validity.Minutes())

	return Message{
		To:      to,
		Subject: "Your Disable Help password reset code",
		Body: fmt.Sprintf(
			"Your password reset code is %s.\n\nIt expires in %d minutes. If you did not request a reset, ignore this email.",
			code, minutes,
		),
		HTMLBody: fmt.Sprintf(
			"<p>Your password reset code is <strong>%s</strong>.</p><p>It expires in %d minutes. If you did not request a reset, ignore this email.</p>",
			code, minutes,
		),
	}
}
