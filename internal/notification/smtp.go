package notification

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/atplgurukul/gurukul-auth/internal/config"
	"github.com/atplgurukul/gurukul-auth/internal/logger"
	"github.com/atplgurukul/gurukul-auth/internal/model"
)

var _ model.Notifier = (*SMTP)(nil)

// SMTP delivers account emails over plain SMTP with AUTH PLAIN.
type SMTP struct {
	host     string
	port     int
	username string
	password string
	from     string
	logger   *logger.Logger

	// send is swappable for tests.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTP creates a notifier from SMTP configuration.
func NewSMTP(cfg config.SMTP, logger *logger.Logger) *SMTP {
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	return &SMTP{
		host:     cfg.Host,
		port:     cfg.Port,
		username: cfg.Username,
		password: cfg.Password,
		from:     from,
		logger:   logger,
		send:     smtp.SendMail,
	}
}

// SendOtp delivers a one-time passcode. The subject and body depend on
// the purpose the code was issued for.
func (n *SMTP) SendOtp(ctx context.Context, email, code string, purpose model.OtpPurpose) error {
	subject := "Email Verification OTP"
	action := "verify your email address and complete your registration"
	if purpose == model.PurposePasswordReset {
		subject = "Password Reset OTP"
		action = "reset your password and regain access to your account"
	}

	body := fmt.Sprintf(
		"Your OTP code is: %s\r\n\r\nPlease use this code to %s.\r\nThis code will expire in 10 minutes.\r\n\r\nFor security reasons, do not share this code with anyone.\r\nIf you didn't request this, please ignore this email.\r\n",
		code, action)

	return n.deliver(email, subject, body)
}

// SendWelcome delivers the post-verification welcome email.
func (n *SMTP) SendWelcome(ctx context.Context, email, name string) error {
	body := fmt.Sprintf(
		"Hello %s! Thank you for joining ATPL Gurukul.\r\n\r\nWe're thrilled to have you on board and can't wait to see what you'll learn with us.\r\n",
		name)

	return n.deliver(email, "Welcome to ATPL Gurukul!", body)
}

func (n *SMTP) deliver(to, subject, body string) error {
	msg := buildMessage(n.from, to, subject, body)

	var auth smtp.Auth
	if n.username != "" {
		auth = smtp.PlainAuth("", n.username, n.password, n.host)
	}

	addr := fmt.Sprintf("%s:%d", n.host, n.port)
	if err := n.send(addr, auth, n.from, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", to, err)
	}

	n.logger.Info("Notification: email sent", "to", to, "subject", subject)

	return nil
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}
