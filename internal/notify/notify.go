// Package notify sends transactional email over SMTP: training
// outcomes, password resets, and email verification.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/lexicognize/lexicognize/internal/model"
)

// Mailer sends email notifications. A nil *SMTPMailer is a no-op, so
// callers never need to branch on whether SMTP is configured.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPMailer sends via a configured SMTP relay using PLAIN auth.
type SMTPMailer struct {
	addr   string // host:port
	host   string
	user   string
	pass   string
	from   string
	logger *slog.Logger
}

// NewSMTPMailer creates a mailer, or nil when host is unset.
func NewSMTPMailer(host string, port int, user, pass, from string, logger *slog.Logger) *SMTPMailer {
	if host == "" {
		return nil
	}
	return &SMTPMailer{
		addr:   fmt.Sprintf("%s:%d", host, port),
		host:   host,
		user:   user,
		pass:   pass,
		from:   from,
		logger: logger.With("component", "notify"),
	}
}

// Send delivers one message. Header injection via recipient or subject
// is blocked by rejecting CR/LF.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if m == nil {
		return nil
	}
	if strings.ContainsAny(to, "\r\n") || strings.ContainsAny(subject, "\r\n") {
		return fmt.Errorf("invalid header content")
	}

	msg := strings.Join([]string{
		"From: " + m.from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		body,
	}, "\r\n")

	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.pass, m.host)
	}

	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(m.addr, auth, m.from, []string{to}, []byte(msg))
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send mail: %w", err)
		}
		return nil
	}
}

// TrainingCompletedBody renders the training success notification.
func TrainingCompletedBody(job *model.TrainingJob) (subject, body string) {
	subject = fmt.Sprintf("Training complete: %s", job.Name)
	body = fmt.Sprintf(
		"Your fine-tuning job %q has finished.\n\nTask: %s\nModel: %s\nJob ID: %s\n\nThe model is now available for inference.",
		job.Name, job.Task, job.ModelType, job.JobID,
	)
	return subject, body
}

// TrainingFailedBody renders the training failure notification.
func TrainingFailedBody(job *model.TrainingJob, reason string) (subject, body string) {
	subject = fmt.Sprintf("Training failed: %s", job.Name)
	body = fmt.Sprintf(
		"Your fine-tuning job %q failed.\n\nTask: %s\nModel: %s\nJob ID: %s\nError: %s",
		job.Name, job.Task, job.ModelType, job.JobID, reason,
	)
	return subject, body
}

// PasswordResetBody renders the password reset email.
func PasswordResetBody(token string) (subject, body string) {
	subject = "Password reset requested"
	body = fmt.Sprintf(
		"A password reset was requested for your account.\n\nReset token: %s\n\nIf you did not request this, ignore this email.",
		token,
	)
	return subject, body
}

// VerifyEmailBody renders the email verification message.
func VerifyEmailBody(token string) (subject, body string) {
	subject = "Verify your email address"
	body = fmt.Sprintf(
		"Welcome! Confirm your email address with this token:\n\n%s",
		token,
	)
	return subject, body
}
