// Package mailer sends approved campaign emails over SMTP, used for test
// sends from the review screen.
package mailer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"gopkg.in/gomail.v2"

	"github.com/campaignly/campaignly/internal/models"
)

type Mailer struct {
	host     string
	port     int
	username string
	password string
	from     string
}

func New(host string, port int, username, password, from string) *Mailer {
	return &Mailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

// SendTest delivers one approved email to the given recipient as HTML.
func (m *Mailer) SendTest(email models.ApprovedEmail, to string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", email.Subject)
	msg.SetBody("text/html", htmlBody(email.Content))

	d := gomail.NewDialer(m.host, m.port, m.username, m.password)
	if err := d.DialAndSend(msg); err != nil {
		return fmt.Errorf("smtp send error: %w", err)
	}
	return nil
}

// SendTestWithRetry retries transient SMTP failures with exponential backoff
// until the context is cancelled or the elapsed budget runs out.
func (m *Mailer) SendTestWithRetry(ctx context.Context, email models.ApprovedEmail, to string) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(func() error {
		return m.SendTest(email, to)
	}, backoff.WithContext(b, ctx))
}

func htmlBody(content string) string {
	return "<html><body style=\"font-family: sans-serif; max-width: 600px; margin: 0 auto;\">" +
		strings.ReplaceAll(content, "\n", "<br>") + "</body></html>"
}
