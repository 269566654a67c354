package email

import (
	"fmt"
	"net/smtp"
)

// Sender delivers plain-text mail over authenticated SMTP. License delivery
// is optional; a Sender missing any credential reports itself disabled and
// refuses to send.
type Sender struct {
	host string
	port string
	user string
	pass string
}

func NewSender(host, port, user, pass string) *Sender {
	return &Sender{
		host: host,
		port: port,
		user: user,
		pass: pass,
	}
}

func (s *Sender) Enabled() bool {
	return s.host != "" && s.port != "" && s.user != "" && s.pass != ""
}

func (s *Sender) Send(to, subject, body string) error {
	if !s.Enabled() {
		return fmt.Errorf("smtp not configured")
	}

	auth := smtp.PlainAuth("", s.user, s.pass, s.host)

	msg := []byte(fmt.Sprintf("From: %s\r\n"+
		"To: %s\r\n"+
		"Subject: %s\r\n"+
		"\r\n"+
		"%s\r\n", s.user, to, subject, body))

	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	return smtp.SendMail(addr, auth, s.user, []string{to}, msg)
}
