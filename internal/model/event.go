package model

import "time"

const (
	RoutingEmailSent   = "email.sent"
	RoutingEmailFailed = "email.failed"
)

// EmailDeliveryEvent 邮件投递事件的 payload
type EmailDeliveryEvent struct {
	MessageID  string    `json:"message_id,omitempty"`
	Recipients []string  `json:"recipients"`
	Subject    string    `json:"subject"`
	ErrorKind  string    `json:"error_kind,omitempty"`
	Error      string    `json:"error,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
