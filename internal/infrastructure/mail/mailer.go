// Package mail delivers account notification emails.
package mail

import (
	"context"
	"fmt"
	"strings"
	"time"

	gomail "github.com/wneessen/go-mail"

	"github.com/rs/zerolog"
)

// Message is a plain-text email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// SMTPConfig captures the settings for an authenticated SMTP relay.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*gomail.Msg) error
}

// SMTPMailer sends messages through an SMTP relay. Each Send dials the relay,
// so a dropped connection only affects one message.
type SMTPMailer struct {
	from   string
	client sender
}

func NewSMTPMailer(cfg SMTPConfig) (*SMTPMailer, error) {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}

	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(cfg.Timeout),
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}
	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &SMTPMailer{from: cfg.From, client: client}, nil
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	out, err := m.compose(msg)
	if err != nil {
		return err
	}
	if err := m.client.DialAndSendWithContext(ctx, out); err != nil {
		return fmt.Errorf("smtp send to %s: %w", msg.To, err)
	}
	return nil
}

func (m *SMTPMailer) compose(msg Message) (*gomail.Msg, error) {
	out := gomail.NewMsg()
	if err := out.From(m.from); err != nil {
		return nil, fmt.Errorf("sender address %q: %w", m.from, err)
	}
	if err := out.To(msg.To); err != nil {
		return nil, fmt.Errorf("recipient address %q: %w", msg.To, err)
	}
	out.Subject(sanitizeHeader(msg.Subject))
	out.SetBodyString(gomail.TypeTextPlain, msg.Body)
	return out, nil
}

func sanitizeHeader(v string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(v)
}

// LogMailer writes messages to the log instead of sending them. It is used
// when no SMTP relay is configured.
type LogMailer struct {
	log zerolog.Logger
}

func NewLogMailer(log zerolog.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.log.Info().Str("to", msg.To).Str("subject", msg.Subject).Msg("email (not sent, no smtp relay configured)")
	return nil
}
