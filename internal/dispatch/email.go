package dispatch

import (
	"context"
	"fmt"
	"strings"

	"github.com/wneessen/go-mail"

	"firewatch/internal/events"
	"firewatch/internal/registry"
	logx "firewatch/pkg/logx"
)

// EmailConfig enables real SMTP delivery. With an empty Host the sender runs
// in record-only mode: the intended recipient and event count are logged and
// nothing is transmitted.
type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type emailSender struct {
	cfg EmailConfig
	log logx.Logger
}

func newEmailSender(cfg EmailConfig, log logx.Logger) *emailSender {
	return &emailSender{cfg: cfg, log: log}
}

func (s *emailSender) Send(ctx context.Context, ep registry.Endpoint, evs []events.SecurityEvent) error {
	if strings.TrimSpace(s.cfg.Host) == "" {
		s.log.Info("email notification recorded (no SMTP configured)",
			logx.String("recipient", ep.Email),
			logx.Int("events", len(evs)))
		return nil
	}

	opts := []mail.Option{mail.WithTLSPolicy(mail.TLSOpportunistic)}
	if s.cfg.Port > 0 {
		opts = append(opts, mail.WithPort(s.cfg.Port))
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password))
	}
	client, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	msg := mail.NewMsg()
	if err := msg.From(s.cfg.From); err != nil {
		return fmt.Errorf("from address: %w", err)
	}
	if err := msg.To(ep.Email); err != nil {
		return fmt.Errorf("to address: %w", err)
	}
	msg.Subject(fmt.Sprintf("[firewatch] %d security events", len(evs)))
	msg.SetBodyString(mail.TypeTextPlain, emailBody(evs))

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func emailBody(evs []events.SecurityEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d security events detected:\n\n", len(evs))
	for _, ev := range evs {
		fmt.Fprintf(&b, "- [%s] %s %s%s (%s, rule %q) at %s\n",
			strings.ToUpper(ev.Action), ev.ClientIP, ev.Host, ev.URI, ev.Country, ev.RuleName, ev.Timestamp)
	}
	return b.String()
}
