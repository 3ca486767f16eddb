package mail

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"net"
	netmail "net/mail"
	"net/smtp"
	"strconv"
	"strings"
	"time"
)

// SMTPSender delivers through an SMTP relay with optional PLAIN auth.
type SMTPSender struct {
	addr     string
	host     string
	from     string
	auth     smtp.Auth
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPSender builds a sender for host:port. Auth is only used when
// username is set.
func NewSMTPSender(host string, port int, username, password, from string) *SMTPSender {
	s := &SMTPSender{
		addr:     net.JoinHostPort(host, strconv.Itoa(port)),
		host:     host,
		from:     from,
		sendMail: smtp.SendMail,
	}
	if username != "" {
		s.auth = smtp.PlainAuth("", username, password, host)
	}
	return s
}

func (s *SMTPSender) Deliver(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	envelopeFrom := s.from
	if addr, err := netmail.ParseAddress(s.from); err == nil {
		envelopeFrom = addr.Address
	}
	if err := s.sendMail(s.addr, s.auth, envelopeFrom, []string{msg.To}, s.compose(msg, time.Now())); err != nil {
		return fmt.Errorf("smtp send to %s: %w", s.addr, err)
	}
	return nil
}

func (s *SMTPSender) compose(msg Message, now time.Time) []byte {
	var b strings.Builder
	b.WriteString("From: " + s.from + "\r\n")
	b.WriteString("To: " + msg.To + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", msg.Subject) + "\r\n")
	b.WriteString("Date: " + now.Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.HTML)
	return []byte(b.String())
}

// LogSender stands in when no SMTP relay is configured. It records that a
// message would have been sent but never logs the body.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Deliver(_ context.Context, msg Message) error {
	s.logger.Warn("no SMTP relay configured; email not sent",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
	)
	return nil
}
