package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"

	"bizkit/pkg/config"
)

// SMTPTransport sends through one SMTP relay. Port 465 uses implicit TLS,
// anything else requires STARTTLS.
type SMTPTransport struct {
	host string
	from string
	opts []mail.Option
}

// NewSMTPTransport returns ErrNotConfigured without credentials.
func NewSMTPTransport(cfg config.SMTPConfig) (*SMTPTransport, error) {
	if cfg.User == "" || cfg.Password == "" {
		return nil, ErrNotConfigured
	}
	from := cfg.From
	if from == "" {
		from = cfg.User
	}

	opts := []mail.Option{
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.User),
		mail.WithPassword(cfg.Password),
		mail.WithTimeout(30 * time.Second),
	}
	if cfg.Port == 465 || cfg.Port == 0 {
		opts = append(opts, mail.WithSSLPort(false))
	} else {
		opts = append(opts, mail.WithPort(cfg.Port), mail.WithTLSPortPolicy(mail.TLSMandatory))
	}

	return &SMTPTransport{host: cfg.Host, from: from, opts: opts}, nil
}

func (t *SMTPTransport) client() (*mail.Client, error) {
	c, err := mail.NewClient(t.host, t.opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create mail client: %w", err)
	}
	return c, nil
}

func (t *SMTPTransport) build(msg Message) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(t.from); err != nil {
		return nil, fmt.Errorf("invalid sender: %w", err)
	}
	if err := m.To(msg.To...); err != nil {
		return nil, &SendError{Kind: KindInvalidRecipient, Err: err}
	}
	m.Subject(msg.Subject)
	m.SetDate()
	m.SetMessageID()

	switch {
	case msg.HTML != "" && msg.Text != "":
		m.SetBodyString(mail.TypeTextHTML, msg.HTML)
		m.AddAlternativeString(mail.TypeTextPlain, msg.Text)
	case msg.HTML != "":
		m.SetBodyString(mail.TypeTextHTML, msg.HTML)
	default:
		m.SetBodyString(mail.TypeTextPlain, msg.Text)
	}
	return m, nil
}

// Send delivers msg and returns its Message-ID header.
func (t *SMTPTransport) Send(ctx context.Context, msg Message) (string, error) {
	m, err := t.build(msg)
	if err != nil {
		return "", Classify(err)
	}
	c, err := t.client()
	if err != nil {
		return "", Classify(err)
	}
	if err := c.DialAndSendWithContext(ctx, m); err != nil {
		return "", Classify(err)
	}

	ids := m.GetGenHeader(mail.HeaderMessageID)
	if len(ids) == 0 {
		return "", nil
	}
	return ids[0], nil
}

// Verify dials and authenticates without sending.
func (t *SMTPTransport) Verify(ctx context.Context) error {
	c, err := t.client()
	if err != nil {
		return Classify(err)
	}
	if err := c.DialWithContext(ctx); err != nil {
		return Classify(err)
	}
	return c.Close()
}
