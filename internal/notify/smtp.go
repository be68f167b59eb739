package notify

import (
	"context"
	"fmt"

	gomail "github.com/wneessen/go-mail"
)

// SMTPMailer submits messages over authenticated SMTP.
type SMTPMailer struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

var _ Mailer = (*SMTPMailer)(nil)

// Send delivers one plain-text message to all recipients.
func (m *SMTPMailer) Send(ctx context.Context, to []string, subject, body string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(m.FromName, m.From); err != nil {
		return fmt.Errorf("from address: %w", err)
	}
	if err := msg.To(to...); err != nil {
		return fmt.Errorf("recipients: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, body)

	opts := []gomail.Option{
		gomail.WithPort(m.Port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if m.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(m.Username),
			gomail.WithPassword(m.Password),
		)
	}
	client, err := gomail.NewClient(m.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	return client.DialAndSendWithContext(ctx, msg)
}
