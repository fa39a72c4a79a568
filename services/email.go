package services

import (
	"fmt"

	"chirp/config"

	mail "gopkg.in/mail.v2"
)

// Mailer is the outbound-email capability. Delivery is consumed, not
// reimplemented: the service only formats and hands off messages.
type Mailer interface {
	SendVerificationEmail(to, username, token string) error
}

// Mail is the process-wide mailer. It stays nil when SMTP is not
// configured; callers treat a nil mailer as "sending disabled".
var Mail Mailer

type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
	from     string
	baseURL  string
}

func InitMailer() {
	if config.AppConfig == nil || config.AppConfig.SMTP.Host == "" {
		return
	}
	smtp := config.AppConfig.SMTP
	Mail = &SMTPMailer{
		host:     smtp.Host,
		port:     smtp.Port,
		username: smtp.Username,
		password: smtp.Password,
		from:     smtp.From,
		baseURL:  smtp.BaseURL,
	}
}

func (m *SMTPMailer) SendVerificationEmail(to, username, token string) error {
	link := fmt.Sprintf("%s/api/auth/verify-email/%s", m.baseURL, token)
	body := fmt.Sprintf(
		"<h1>Email Verification</h1><p>Hi %s, please click the link below to verify your email address:</p><a href=%q>Verify Email</a>",
		username, link,
	)

	msg := mail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Verify your email")
	msg.SetBody("text/html", body)

	d := mail.NewDialer(m.host, m.port, m.username, m.password)
	return d.DialAndSend(msg)
}
