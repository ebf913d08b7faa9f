package model

import "time"

// GeneratedEmail is returned to the caller and never stored.
type GeneratedEmail struct {
	Subject   string `json:"subject"`
	HTML      string `json:"html"`
	PlainText string `json:"plainText"`
}

type Recipient struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// GeneratedWebsite is the {html, css} pair returned by /generate.
type GeneratedWebsite struct {
	HTML string `json:"html"`
	CSS  string `json:"css"`
}

const (
	EmailStatusSent   = "sent"
	EmailStatusFailed = "failed"
)

// EmailLog is written by the worker from delivery events.
type EmailLog struct {
	ID         int       `json:"id"`
	MessageID  string    `json:"messageId,omitempty"`
	Recipients []string  `json:"recipients"`
	Subject    string    `json:"subject"`
	Status     string    `json:"status"`
	ErrorKind  string    `json:"errorKind,omitempty"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}
