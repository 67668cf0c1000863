package auth

import (
	"fmt"
	"html"

	"gopkg.in/gomail.v2"
)

type Mailer interface {
	SendConfirmation(to, name, link string) error
}

// SMTPMailer sends mail through an SMTP relay.
type SMTPMailer struct {
	from string
	send func(m ...*gomail.Message) error
}

func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	dialer := gomail.NewDialer(host, port, username, password)
	return &SMTPMailer{from: from, send: dialer.DialAndSend}
}

func (m *SMTPMailer) SendConfirmation(to, name, link string) error {
	if name == "" {
		name = "there"
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Confirm your Discover Udupi account")
	msg.SetBody("text/plain", fmt.Sprintf("Hi %s,\n\nConfirm your email address to start saving places:\n%s\n\nThe link expires in 24 hours.\n", name, link))
	msg.AddAlternative("text/html", fmt.Sprintf(`<p>Hi %s,</p><p><a href="%s">Confirm your email address</a> to start saving places.</p><p>The link expires in 24 hours.</p>`,
		html.EscapeString(name), html.EscapeString(link)))
	return m.send(msg)
}
