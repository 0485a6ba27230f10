package mailer

import (
	"fmt"
	"mime"
	"net/smtp"
	"strings"

	"github.com/watchtowerhq/watchtower/internal/config"
	"github.com/watchtowerhq/watchtower/internal/queue"
)

// Transport dispatches one rendered email.
type Transport interface {
	Send(job queue.EmailJob) error
}

// SMTP sends mail through a plain SMTP relay.
type SMTP struct {
	cfg config.SMTPConfig
}

// NewSMTP creates an SMTP transport.
func NewSMTP(cfg config.SMTPConfig) *SMTP {
	return &SMTP{cfg: cfg}
}

// Send delivers one email. Jobs carrying both a text and an HTML body
// go out as multipart/alternative.
func (s *SMTP) Send(job queue.EmailJob) error {
	if s.cfg.Host == "" || s.cfg.From == "" {
		return fmt.Errorf("smtp transport not configured")
	}
	if job.To == "" {
		return fmt.Errorf("email job has no recipient")
	}

	msg := buildMessage(s.cfg.From, job)

	recipients := strings.Split(job.To, ",")
	for i, r := range recipients {
		recipients[i] = strings.TrimSpace(r)
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	var auth smtp.Auth
	if s.cfg.Username != "" && s.cfg.Password != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	if err := smtp.SendMail(addr, auth, s.cfg.From, recipients, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

func buildMessage(from string, job queue.EmailJob) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", job.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", job.Subject))
	b.WriteString("MIME-Version: 1.0\r\n")

	switch {
	case job.HTML != "" && job.Text != "":
		const boundary = "watchtower-alt"
		fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary)
		fmt.Fprintf(&b, "--%s\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s\r\n", boundary, job.Text)
		fmt.Fprintf(&b, "--%s\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s\r\n", boundary, job.HTML)
		fmt.Fprintf(&b, "--%s--\r\n", boundary)
	case job.HTML != "":
		b.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
		b.WriteString(job.HTML)
	default:
		b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
		b.WriteString(job.Text)
	}

	return []byte(b.String())
}
