package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

// SMTPConfig holds SMTP transport settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type smtpService struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPService creates an email service backed by gomail.
func NewSMTPService(cfg SMTPConfig) Service {
	return &smtpService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *smtpService) SendWelcome(ctx context.Context, to string, name string) error {
	body := fmt.Sprintf("Hello %s,\n\nYour account has been created. Welcome aboard.\n", name)
	return s.send(ctx, to, "Welcome", body)
}

func (s *smtpService) SendPasswordReset(ctx context.Context, to string, token string) error {
	body := fmt.Sprintf("A password reset was requested for your account.\n\nReset token: %s\n\nIf you did not request this, ignore this email.\n", token)
	return s.send(ctx, to, "Password reset", body)
}

func (s *smtpService) SendManagerCredentials(ctx context.Context, to string, hospitalName string, tempPassword string) error {
	body := fmt.Sprintf(
		"Your hospital %q has been approved as a partner.\n\n"+
			"A manager account has been created for this address.\n"+
			"Temporary password: %s\n\n"+
			"You will be asked to change it on first login.\n",
		hospitalName, tempPassword)
	return s.send(ctx, to, "Partnership approved", body)
}

func (s *smtpService) SendVerificationDecision(ctx context.Context, to string, hospitalName string, status string, reason string) error {
	body := fmt.Sprintf("Your hospital %q verification status is now: %s.\n", hospitalName, status)
	if reason != "" {
		body += fmt.Sprintf("Reason: %s\n", reason)
	}
	return s.send(ctx, to, "Verification update", body)
}

// send dispatches one message, honoring ctx cancellation. gomail has
// no context support of its own, so the dial-and-send runs in a
// goroutine and the caller's deadline wins.
func (s *smtpService) send(ctx context.Context, to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	done := make(chan error, 1)
	go func() {
		done <- s.dialer.DialAndSend(m)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send email: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
