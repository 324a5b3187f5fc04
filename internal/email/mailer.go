package email

import (
	"fmt"
	"log/slog"

	"github.com/wneessen/go-mail"
)

// Mailer delivers a single HTML email.
type Mailer interface {
	Send(to, subject, html string) error
}

// SMTPMailer sends through a configured SMTP relay.
type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
	from     string
}

func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	return &SMTPMailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

func (m *SMTPMailer) Send(to, subject, html string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, html)

	opts := []mail.Option{
		mail.WithPort(m.port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if m.username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.username),
			mail.WithPassword(m.password),
		)
	}

	client, err := mail.NewClient(m.host, opts...)
	if err != nil {
		return fmt.Errorf("failed to create mail client: %w", err)
	}
	return client.DialAndSend(msg)
}

// SendAsync fires off delivery in the background. Failures are logged
// and never reach the caller; email must not affect the primary outcome.
func SendAsync(m Mailer, to, subject, html string) {
	go func() {
		if err := m.Send(to, subject, html); err != nil {
			slog.Error("email delivery failed", "to", to, "subject", subject, "error", err)
		}
	}()
}
