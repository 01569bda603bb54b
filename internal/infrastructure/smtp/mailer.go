package smtp

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strings"
	"time"

	"github.com/go-otp-nosql/internal/config"
	"github.com/go-otp-nosql/internal/domain"
)

// Mailer delivers one-time codes by email.
type Mailer interface {
	SendOTP(ctx context.Context, msg domain.OtpMessage) error
}

type mailer struct {
	host     string
	port     string
	from     mail.Address
	username string
	password string
	appName  string
	appURL   string
}

func NewMailer(cfg *config.Config) Mailer {
	return &mailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		from:     mail.Address{Name: cfg.SMTPFromName, Address: cfg.SMTPFrom},
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		appName:  cfg.AppName,
		appURL:   cfg.AppURL,
	}
}

func (m *mailer) SendOTP(ctx context.Context, msg domain.OtpMessage) error {
	subject, body := m.compose(msg)
	return m.send(ctx, msg.To, subject, body)
}

func (m *mailer) compose(msg domain.OtpMessage) (subject, body string) {
	var b strings.Builder
	switch msg.Purpose {
	case domain.PurposeReset:
		subject = m.appName + " password reset code"
		fmt.Fprintf(&b, "Your code to reset your %s password is %s\r\n", m.appName, msg.Code)
	default:
		subject = "OTP Verification"
		fmt.Fprintf(&b, "Your OTP for %s %s is %s\r\n", m.appName, m.appURL, msg.Code)
	}
	if !msg.ExpiresAt.IsZero() {
		fmt.Fprintf(&b, "It expires at %s.\r\n", msg.ExpiresAt.UTC().Format(time.RFC1123))
	}
	b.WriteString("If you did not ask for it, ignore this email.\r\n")
	return subject, b.String()
}

func (m *mailer) message(to, subject, body string) []byte {
	var sb strings.Builder
	sb.WriteString("From: " + m.from.String() + "\r\n")
	sb.WriteString("To: " + to + "\r\n")
	sb.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", subject) + "\r\n")
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(body)
	return []byte(sb.String())
}

// send speaks SMTP over a connection dialled with ctx, so a caller's deadline
// bounds the whole exchange.
func (m *mailer) send(ctx context.Context, to, subject, body string) error {
	dialer := &net.Dialer{Timeout: 5 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(m.host, m.port))
	if err != nil {
		return fmt.Errorf("dial smtp: %w", err)
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, m.host)
	if err != nil {
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: m.host}); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}
	if m.username != "" {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(smtp.PlainAuth("", m.username, m.password, m.host)); err != nil {
				return fmt.Errorf("smtp auth: %w", err)
			}
		}
	}
	if err := c.Mail(m.from.Address); err != nil {
		return err
	}
	if err := c.Rcpt(to); err != nil {
		return err
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(m.message(to, subject, body)); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}
