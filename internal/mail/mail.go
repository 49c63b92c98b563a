// Package mail delivers the account emails (confirmation and password reset).
package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"
	"mime"
	netmail "net/mail"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// Message is a single outgoing HTML email.
type Message struct {
	ToName  string
	ToEmail string
	Subject string
	Body    string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPConfig holds the SMTP connection settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

// smtpSender implements Sender over net/smtp.
type smtpSender struct {
	cfg    SMTPConfig
	logger zerolog.Logger
}

// NewSMTPSender creates an SMTP-backed sender.
func NewSMTPSender(cfg SMTPConfig, logger zerolog.Logger) Sender {
	return &smtpSender{
		cfg:    cfg,
		logger: logger.With().Str("component", "smtp-mailer").Logger(),
	}
}

// Send delivers msg. Port 465 uses implicit TLS, other ports use SendMail's STARTTLS negotiation.
func (s *smtpSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	addr := s.cfg.Host + ":" + strconv.Itoa(s.cfg.Port)
	raw := buildRaw(s.cfg, msg)

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	var err error
	if s.cfg.Port == 465 {
		err = s.sendTLS(addr, auth, msg.ToEmail, raw)
	} else {
		err = smtp.SendMail(addr, auth, s.cfg.From, []string{msg.ToEmail}, raw)
	}
	if err != nil {
		s.logger.Error().Err(err).Str("to", msg.ToEmail).Str("subject", msg.Subject).Msg("failed to send email")
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info().Str("to", msg.ToEmail).Str("subject", msg.Subject).Msg("email sent")
	return nil
}

func (s *smtpSender) sendTLS(addr string, auth smtp.Auth, to string, raw []byte) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: s.cfg.Host})
	if err != nil {
		return fmt.Errorf("TLS dial: %w", err)
	}
	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		return err
	}
	defer client.Quit()

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return err
		}
	}
	if err := client.Mail(s.cfg.From); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(raw); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func buildRaw(cfg SMTPConfig, msg Message) []byte {
	from := &netmail.Address{Name: cfg.FromName, Address: cfg.From}
	to := &netmail.Address{Name: msg.ToName, Address: msg.ToEmail}

	var b strings.Builder
	b.WriteString("From: " + from.String() + "\r\n")
	b.WriteString("To: " + to.String() + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", msg.Subject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.Body)
	return []byte(b.String())
}

// logSender writes messages to the log instead of sending them.
type logSender struct {
	logger zerolog.Logger
}

// NewLogSender creates a sender for environments without SMTP.
func NewLogSender(logger zerolog.Logger) Sender {
	return &logSender{logger: logger.With().Str("component", "log-mailer").Logger()}
}

func (s *logSender) Send(_ context.Context, msg Message) error {
	s.logger.Info().
		Str("to", msg.ToEmail).
		Str("subject", msg.Subject).
		Str("body", msg.Body).
		Msg("email not sent, mail delivery disabled")
	return nil
}

var (
	confirmationTemplate = template.Must(template.New("confirm").Parse(
		`<h1>Orders - Account confirmation</h1>` +
			`<p>Hello {{.Name}}, to enable your account please click the link below:</p>` +
			`<p><a href="{{.Link}}">Confirm email</a></p>`))

	resetTemplate = template.Must(template.New("reset").Parse(
		`<h1>Orders - Password recovery</h1>` +
			`<p>Hello {{.Name}}, to set a new password please click the link below:</p>` +
			`<p><a href="{{.Link}}">Reset password</a></p>`))
)

type linkData struct {
	Name string
	Link string
}

// ConfirmationMessage renders the account confirmation email.
func ConfirmationMessage(name, email, link string) (Message, error) {
	return render(confirmationTemplate, "Orders - Account confirmation", name, email, link)
}

// PasswordResetMessage renders the password recovery email.
func PasswordResetMessage(name, email, link string) (Message, error) {
	return render(resetTemplate, "Orders - Password recovery", name, email, link)
}

func render(t *template.Template, subject, name, email, link string) (Message, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, linkData{Name: name, Link: link}); err != nil {
		return Message{}, fmt.Errorf("failed to render %s email: %w", t.Name(), err)
	}
	return Message{ToName: name, ToEmail: email, Subject: subject, Body: buf.String()}, nil
}
