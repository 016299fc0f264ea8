// Package email delivers transactional mail. Delivery always happens through
// the job queue; request handlers never block on SMTP.
package email

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"golang.org/x/time/rate"
)

// Message is one transactional email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers a message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPSender delivers through a plain SMTP relay.
type SMTPSender struct {
	addr string
	from string
	auth smtp.Auth
}

// NewSMTPSender constructs an SMTPSender. Auth may be nil for unauthenticated
// relays (local dev).
func NewSMTPSender(addr, from string, auth smtp.Auth) *SMTPSender {
	return &SMTPSender{addr: addr, from: from, auth: auth}
}

// Send delivers one message.
func (s *SMTPSender) Send(_ context.Context, msg Message) error {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(msg.Body)

	if err := smtp.SendMail(s.addr, s.auth, s.from, []string{msg.To}, []byte(b.String())); err != nil {
		return fmt.Errorf("email: send to %s: %w", msg.To, err)
	}
	return nil
}

// Throttled wraps a Sender with a token-bucket rate limit so a burst of
// signups cannot trip the relay's outbound caps.
type Throttled struct {
	next    Sender
	limiter *rate.Limiter
}

// NewThrottled constructs a Throttled sender allowing perSecond sends with the
// given burst.
func NewThrottled(next Sender, perSecond float64, burst int) *Throttled {
	return &Throttled{next: next, limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// Send waits for limiter capacity, then delivers.
func (t *Throttled) Send(ctx context.Context, msg Message) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("email: throttle: %w", err)
	}
	return t.next.Send(ctx, msg)
}

// LogSender writes messages to the log instead of delivering them. Used when
// no relay is configured.
type LogSender struct {
	Logger *slog.Logger
}

// Send logs the message.
func (l LogSender) Send(_ context.Context, msg Message) error {
	l.Logger.Info("email (not delivered)",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject))
	return nil
}
