package mail

import (
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Sender delivers a single mail. Implementations must be safe for
// concurrent use.
type Sender interface {
	Send(to, subject, htmlBody string) error
}

// SMTPSender sends through a plain SMTP relay via gomail.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPSender(host string, port int, username, password, from string) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

func (s *SMTPSender) Send(to, subject, htmlBody string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)
	return s.dialer.DialAndSend(m)
}

// NopSender is used when SMTP is not configured; it logs instead of sending.
type NopSender struct {
	logger *zap.Logger
}

func NewNopSender(logger *zap.Logger) *NopSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NopSender{logger: logger}
}

func (s *NopSender) Send(to, subject, _ string) error {
	s.logger.Info("mail suppressed, smtp not configured",
		zap.String("to", to), zap.String("subject", subject))
	return nil
}
