package email

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/wneessen/go-mail"
)

type SMTPSender struct {
	lg zerolog.Logger

	host     string
	port     int
	user     string
	pass     string
	from     string
	insecure bool

	timeout time.Duration
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
	Insecure bool
}

func NewSMTPSender(cfg SMTPConfig, lg zerolog.Logger) *SMTPSender {
	return &SMTPSender{
		lg:       lg.With().Str("component", "smtp_sender").Logger(),
		host:     cfg.Host,
		port:     cfg.Port,
		user:     cfg.Username,
		pass:     cfg.Password,
		from:     cfg.From,
		insecure: cfg.Insecure,
		timeout:  cfg.Timeout,
	}
}

func (s *SMTPSender) SendActivation(ctx context.Context, to, name, code string) error {
	subject := "Activate your account"
	text := fmt.Sprintf("Hi %s,\n\nYour activation code is: %s\n\nIt expires in 15 minutes.\n", name, code)
	htmlBody := renderCodeHTML(
		"Activate your account",
		"Use the code below to activate your account. It expires in 15 minutes.",
		code,
	)
	return s.send(ctx, to, subject, text, htmlBody)
}

func (s *SMTPSender) SendPasswordReset(ctx context.Context, to, name, code string) error {
	subject := "Reset your password"
	text := fmt.Sprintf("Hi %s,\n\nYour password reset code is: %s\n\nIt expires in 15 minutes.\n", name, code)
	htmlBody := renderCodeHTML(
		"Reset your password",
		"Use the code below to reset your password. It expires in 15 minutes.",
		code,
	)
	return s.send(ctx, to, subject, text, htmlBody)
}

func (s *SMTPSender) SendSetPassword(ctx context.Context, to, name, code string) error {
	subject := "Set your password"
	text := fmt.Sprintf("Hi %s,\n\nAn account was created for you. Your set-password code is: %s\n\nIt expires in 15 minutes.\n", name, code)
	htmlBody := renderCodeHTML(
		"Set your password",
		"An account was created for you. Use the code below to choose a password. It expires in 15 minutes.",
		code,
	)
	return s.send(ctx, to, subject, text, htmlBody)
}

func (s *SMTPSender) send(ctx context.Context, to, subject, textBody, htmlBody string) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	m := mail.NewMsg()
	if err := m.From(s.from); err != nil {
		return PermanentError{msg: "invalid from address: " + err.Error()}
	}
	if err := m.To(to); err != nil {
		return PermanentError{msg: "invalid to address: " + err.Error()}
	}
	m.Subject(subject)

	// Text fallback + HTML alternative
	m.SetBodyString(mail.TypeTextPlain, textBody)
	m.AddAlternativeString(mail.TypeTextHTML, htmlBody)

	tlsPolicy := mail.TLSMandatory
	if s.insecure {
		tlsPolicy = mail.TLSOpportunistic
	}

	opts := []mail.Option{
		mail.WithPort(s.port),
		mail.WithTLSPolicy(tlsPolicy),
	}
	if s.user != "" {
		opts = append(opts, mail.WithSMTPAuth(mail.SMTPAuthPlain), mail.WithUsername(s.user), mail.WithPassword(s.pass))
	}

	c, err := mail.NewClient(s.host, opts...)
	if err != nil {
		return PermanentError{msg: "smtp client init failed: " + err.Error()}
	}

	s.lg.Info().Str("host", s.host).Int("port", s.port).Str("to", to).Str("subject", subject).Msg("attempting smtp send")
	if err := c.DialAndSendWithContext(ctx, m); err != nil {
		s.lg.Error().Err(err).Str("to", to).Msg("smtp send failed")

		msg := err.Error()
		if containsAny(msg, "535", "5.7.8", "authentication", "Username and Password not accepted") {
			return PermanentError{msg: "smtp auth failed: " + msg}
		}
		return TemporaryError{msg: "smtp transient failure: " + msg}
	}

	s.lg.Info().Str("to", to).Msg("smtp send ok")
	return nil
}

func renderCodeHTML(title, intro, code string) string {
	escTitle := html.EscapeString(title)
	escIntro := html.EscapeString(intro)
	escCode := html.EscapeString(code)

	// very simple inline HTML (works in Gmail)
	return `<!doctype html>
<html>
  <body style="font-family:Arial,Helvetica,sans-serif; line-height:1.4;">
    <h2>` + escTitle + `</h2>
    <p>` + escIntro + `</p>

    <p style="font-size:28px; letter-spacing:6px; font-weight:bold; font-family:monospace;">
      ` + escCode + `
    </p>

    <p style="color:#555; font-size:12px;">
      If you did not request this, you can ignore this email.
    </p>
  </body>
</html>`
}

func containsAny(s string, subs ...string) bool {
	for _, x := range subs {
		if x != "" && strings.Contains(s, x) {
			return true
		}
	}
	return false
}
