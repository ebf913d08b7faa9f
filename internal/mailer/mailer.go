// Package mailer delivers generated email over SMTP and classifies
// transport failures.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/textproto"
	"regexp"
	"strconv"
	"strings"

	"github.com/wneessen/go-mail"
)

// Message is what the delivery path hands to a Transport.
type Message struct {
	To      []string
	Subject string
	HTML    string
	Text    string
}

// Transport sends a message and returns the transport-assigned message id.
type Transport interface {
	Send(ctx context.Context, msg Message) (string, error)
	Verify(ctx context.Context) error
}

type Kind string

const (
	KindAuthFailed       Kind = "auth_failed"
	KindHostUnreachable  Kind = "host_unreachable"
	KindInvalidRecipient Kind = "invalid_recipient"
	KindUnknown          Kind = "unknown"
)

var ErrNotConfigured = errors.New("email transport not configured")

// SendError is a classified transport failure. Code is the SMTP reply code
// when one was seen.
type SendError struct {
	Kind Kind
	Code int
	Err  error
}

func (e *SendError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("mail %s (%d): %v", e.Kind, e.Code, e.Err)
	}
	return fmt.Sprintf("mail %s: %v", e.Kind, e.Err)
}

func (e *SendError) Unwrap() error { return e.Err }

// Message returns the user-facing text for the failure class.
func (e *SendError) Message() string {
	switch e.Kind {
	case KindAuthFailed:
		return "Email authentication failed. Check your email credentials"
	case KindHostUnreachable:
		return "Email service not found. Check your internet connection"
	case KindInvalidRecipient:
		return "Invalid recipient email address"
	default:
		return "Failed to send email"
	}
}

// replyCode matches an SMTP reply at the start of a line or right after a
// "prefix: ". Ports in "host:465" and durations like "450ms" do not match.
var replyCode = regexp.MustCompile(`(?m)(?:^|:\s+)([45]\d\d)[ -]`)

// Classify wraps err in a *SendError. Already classified errors pass through.
func Classify(err error) *SendError {
	if err == nil {
		return nil
	}
	var se *SendError
	if errors.As(err, &se) {
		return se
	}

	code := 0
	var tpErr *textproto.Error
	if errors.As(err, &tpErr) {
		code = tpErr.Code
	} else if m := replyCode.FindStringSubmatch(err.Error()); m != nil {
		code, _ = strconv.Atoi(m[1])
	}

	switch code {
	case 530, 534, 535:
		return &SendError{Kind: KindAuthFailed, Code: code, Err: err}
	case 550, 551, 553:
		return &SendError{Kind: KindInvalidRecipient, Code: code, Err: err}
	}

	var mailErr *mail.SendError
	if errors.As(err, &mailErr) && mailErr.Reason == mail.ErrSMTPRcptTo {
		return &SendError{Kind: KindInvalidRecipient, Code: code, Err: err}
	}

	var dnsErr *net.DNSError
	var opErr *net.OpError
	if errors.As(err, &dnsErr) || errors.As(err, &opErr) {
		return &SendError{Kind: KindHostUnreachable, Code: code, Err: err}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "auth"):
		return &SendError{Kind: KindAuthFailed, Code: code, Err: err}
	case strings.Contains(msg, "no such host"), strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "i/o timeout"), strings.Contains(msg, "dial"):
		return &SendError{Kind: KindHostUnreachable, Code: code, Err: err}
	}
	return &SendError{Kind: KindUnknown, Code: code, Err: err}
}
