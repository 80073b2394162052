// Package mailer delivers account-lifecycle emails over SMTP. The token a
// message carries is embedded in the link body only; it is never logged.
package mailer

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"net/url"
	"strings"

	"github.com/Gspeed-bit/invoica-backend/auth"
)

// Config carries the SMTP and link settings the mailer needs.
type Config interface {
	GetSMTPAddr() string
	GetEmailSender() string
	GetEmailPassword() string
	GetWebAppLink() string
}

// sendFunc matches smtp.SendMail, swapped out in tests.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type Mailer struct {
	addr     string
	sender   string
	password string
	appLink  string
	logger   auth.Logger
	send     sendFunc
}

var _ auth.Notifier = (*Mailer)(nil)

func New(cfg Config) *Mailer {
	return &Mailer{
		addr:     cfg.GetSMTPAddr(),
		sender:   cfg.GetEmailSender(),
		password: cfg.GetEmailPassword(),
		appLink:  strings.TrimRight(cfg.GetWebAppLink(), "/"),
		send:     smtp.SendMail,
	}
}

func (m *Mailer) WithLogger(logger auth.Logger) *Mailer {
	if logger != nil {
		m.logger = logger
	}
	return m
}

// SendVerificationEmail delivers the email verification link.
func (m *Mailer) SendVerificationEmail(ctx context.Context, email, token string) error {
	link := fmt.Sprintf("%s/verify-email?token=%s", m.appLink, url.QueryEscape(token))
	body := "Welcome to Invoica!\n\n" +
		"Please verify your email address by clicking the link below:\n" +
		link + "\n\n" +
		"This link will expire in 1 hour.\n\n" +
		"If you did not create an account, you can ignore this email."

	return m.deliver(ctx, email, "Verify your email", body)
}

// SendPasswordResetEmail delivers the password reset link.
func (m *Mailer) SendPasswordResetEmail(ctx context.Context, email, token string) error {
	link := fmt.Sprintf("%s/reset-password?token=%s", m.appLink, url.QueryEscape(token))
	body := "You requested a password reset.\n\n" +
		"Use the link below to choose a new password:\n" +
		link + "\n\n" +
		"This link will expire in 1 hour.\n\n" +
		"If you did not request a reset, you can ignore this email."

	return m.deliver(ctx, email, "Password Reset Request", body)
}

func (m *Mailer) deliver(ctx context.Context, recipient, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if m.addr == "" || m.sender == "" {
		return fmt.Errorf("mailer is not configured")
	}

	host, _, err := net.SplitHostPort(m.addr)
	if err != nil {
		return fmt.Errorf("invalid SMTP address (expected host:port): %w", err)
	}

	var a smtp.Auth
	if m.password != "" {
		a = smtp.PlainAuth("", m.sender, m.password, host)
	}

	msg := []byte("From: " + m.sender + "\r\n" +
		"To: " + recipient + "\r\n" +
		"Subject: " + subject + "\r\n\r\n" +
		body + "\r\n")

	if err := m.send(m.addr, a, m.sender, []string{recipient}, msg); err != nil {
		return fmt.Errorf("failed to send email via %s: %w", host, err)
	}

	if m.logger != nil {
		m.logger.Info("email delivered", "subject", subject, "recipient", recipient)
	}

	return nil
}
