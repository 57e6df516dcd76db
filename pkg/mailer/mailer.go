package mailer

import (
	"bytes"
	"fmt"
	"net/smtp"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/Stockline-Systems/inventory/config"
	"github.com/Stockline-Systems/inventory/pkg/logger"
)

// Mailer delivers transactional mail. Implementations must be safe for
// concurrent use; callers fire sends from goroutines.
type Mailer interface {
	SendOTP(to, firstName, otp string) error
	SendPasswordReset(to, firstName, resetURL string) error
	SendInvite(to, orgName, role, inviteURL string) error
}

// NewMailer returns the SMTP mailer when mail is enabled, otherwise a
// logging stub so flows keep working in development.
func NewMailer(cfg *config.Config) Mailer {
	if cfg.Mail.Enabled {
		return newSMTPMailer(cfg)
	}
	return &logMailer{}
}

var mailTemplates = template.Must(
	template.New("mail").Funcs(sprig.FuncMap()).Parse(`
{{- define "otp" -}}
Subject: Verify your email

Hi {{ .FirstName | default "there" }},

Your verification code is {{ .OTP }}. It expires in 10 minutes.

If you did not sign up, ignore this message.
{{- end -}}

{{- define "reset" -}}
Subject: Reset your password

Hi {{ .FirstName | default "there" }},

We received a request to reset your password. Use the link below within
15 minutes:

{{ .ResetURL }}

If you did not request this, your account is still secure.
{{- end -}}

{{- define "invite" -}}
Subject: You have been invited to {{ .OrgName }}

You have been invited to join {{ .OrgName }} as {{ .Role | title }}.
Accept the invitation here:

{{ .InviteURL }}

The invitation expires in 72 hours.
{{- end -}}
`))

type smtpMailer struct {
	addr string
	auth smtp.Auth
	from string
}

func newSMTPMailer(cfg *config.Config) *smtpMailer {
	var auth smtp.Auth
	if cfg.Mail.Username != "" {
		auth = smtp.PlainAuth("", cfg.Mail.Username, cfg.Mail.Password, cfg.Mail.Host)
	}
	return &smtpMailer{
		addr: fmt.Sprintf("%s:%d", cfg.Mail.Host, cfg.Mail.Port),
		auth: auth,
		from: cfg.Mail.From,
	}
}

func (m *smtpMailer) send(to, tmpl string, data any) error {
	var body bytes.Buffer
	fmt.Fprintf(&body, "From: %s\r\nTo: %s\r\n", m.from, to)
	if err := mailTemplates.ExecuteTemplate(&body, tmpl, data); err != nil {
		return fmt.Errorf("render %s mail: %w", tmpl, err)
	}
	if err := smtp.SendMail(m.addr, m.auth, m.from, []string{to}, body.Bytes()); err != nil {
		return fmt.Errorf("send %s mail: %w", tmpl, err)
	}
	return nil
}

func (m *smtpMailer) SendOTP(to, firstName, otp string) error {
	return m.send(to, "otp", map[string]string{"FirstName": firstName, "OTP": otp})
}

func (m *smtpMailer) SendPasswordReset(to, firstName, resetURL string) error {
	return m.send(to, "reset", map[string]string{"FirstName": firstName, "ResetURL": resetURL})
}

func (m *smtpMailer) SendInvite(to, orgName, role, inviteURL string) error {
	return m.send(to, "invite", map[string]string{"OrgName": orgName, "Role": role, "InviteURL": inviteURL})
}

// logMailer records the mail contents instead of sending them
type logMailer struct{}

func (l *logMailer) SendOTP(to, firstName, otp string) error {
	logger.GetLogger().Sugar().Infow("mail disabled, otp not sent", "to", to, "otp", otp)
	return nil
}

func (l *logMailer) SendPasswordReset(to, firstName, resetURL string) error {
	logger.GetLogger().Sugar().Infow("mail disabled, reset link not sent", "to", to, "reset_url", resetURL)
	return nil
}

func (l *logMailer) SendInvite(to, orgName, role, inviteURL string) error {
	logger.GetLogger().Sugar().Infow("mail disabled, invite not sent", "to", to, "org", orgName, "invite_url", inviteURL)
	return nil
}
