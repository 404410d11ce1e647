// Package mailer dispatches the status-transition emails. Sending is
// retried with exponential backoff and never surfaces to the operator
// who triggered the transition.
package mailer

import (
	"context"
	"time"

	"dishdash/config"
	"dishdash/pkg/lifecycle"
	"dishdash/pkg/logger"

	gomail "github.com/wneessen/go-mail"
)

const maxAttempts = 3

var backoffBase = time.Second

// ISender is the raw single-shot delivery; IMailer adds templating and
// the retry policy on top.
type ISender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

type IMailer interface {
	// DispatchStatusEmail renders the template for the status and sends
	// it with up to 3 attempts (1s, 2s, 4s backoff). The returned error
	// reports final failure only.
	DispatchStatusEmail(ctx context.Context, to string, status lifecycle.Status, data TemplateData) error
}

type smtpSender struct {
	client *gomail.Client
	from   string
}

func NewSMTPSender(cfg config.Config) (ISender, error) {
	opts := []gomail.Option{
		gomail.WithPort(cfg.SMTPPort),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if cfg.SMTPUser != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.SMTPUser),
			gomail.WithPassword(cfg.SMTPPassword),
		)
	}
	client, err := gomail.NewClient(cfg.SMTPHost, opts...)
	if err != nil {
		return nil, err
	}
	return &smtpSender{client: client, from: cfg.SMTPFrom}, nil
}

func (s *smtpSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	msg := gomail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlBody)
	return s.client.DialAndSendWithContext(ctx, msg)
}

type mailer struct {
	sender ISender
	log    logger.ILogger
}

func New(sender ISender, log logger.ILogger) IMailer {
	return &mailer{sender: sender, log: log}
}

func (m *mailer) DispatchStatusEmail(ctx context.Context, to string, status lifecycle.Status, data TemplateData) error {
	subject, body, err := Render(status, data)
	if err != nil {
		return err
	}

	var lastErr error
	backoff := backoffBase
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = m.sender.Send(ctx, to, subject, body)
		if lastErr == nil {
			return nil
		}
		m.log.Warning("email delivery attempt failed",
			logger.String("to", to),
			logger.Int("attempt", attempt),
			logger.Error(lastErr),
		)
		if attempt == maxAttempts {
			break
		}
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
		backoff *= 2
	}
	return lastErr
}
