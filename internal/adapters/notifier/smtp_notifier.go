package notifier

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"github.com/lewiswilliams7/refrr-sub000/internal/core/ports"
)

// Config carries the SMTP settings. It is injected at construction time;
// the notifier never reads the environment itself.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type SMTPNotifier struct {
	cfg    Config
	logger *zap.Logger
}

func NewSMTP(cfg Config, logger *zap.Logger) ports.Notifier {
	return &SMTPNotifier{cfg: cfg, logger: logger}
}

func (n *SMTPNotifier) Send(ctx context.Context, email ports.Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", n.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", email.To)
	fmt.Fprintf(&msg, "Subject: %s\r\n", email.Subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	msg.WriteString(email.Body)

	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)
	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}

	if err := smtp.SendMail(addr, auth, n.cfg.From, []string{email.To}, []byte(msg.String())); err != nil {
		return fmt.Errorf("smtp send to %s: %w", email.To, err)
	}

	n.logger.Debug("email sent", zap.String("to", email.To), zap.String("subject", email.Subject))
	return nil
}

// Noop is used when SMTP is not configured: every send is logged and
// dropped, which keeps local development from needing a mail server.
type Noop struct {
	logger *zap.Logger
}

func NewNoop(logger *zap.Logger) ports.Notifier {
	return &Noop{logger: logger}
}

func (n *Noop) Send(_ context.Context, email ports.Email) error {
	n.logger.Info("email suppressed (smtp not configured)",
		zap.String("to", email.To), zap.String("subject", email.Subject))
	return nil
}
