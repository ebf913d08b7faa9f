package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"bizkit/internal/apperr"
	"bizkit/internal/llm"
	"bizkit/internal/model"
	"bizkit/internal/normalize"
	"bizkit/internal/prompt"
	"bizkit/pkg/logger"
	"bizkit/pkg/metrics"
)

const (
	MaxBulkTopics = 20

	minSubjectLen = 5
	minHTMLLen    = 50
)

type ContentValidation struct {
	IsValid bool     `json:"isValid"`
	Issues  []string `json:"issues"`
}

type EmailContent struct {
	model.GeneratedEmail
	Validation ContentValidation `json:"validation"`
}

type BulkResult struct {
	Topic   string        `json:"topic"`
	Success bool          `json:"success"`
	Content *EmailContent `json:"content,omitempty"`
	Error   string        `json:"error,omitempty"`
	Kind    apperr.Kind   `json:"kind,omitempty"`
}

type EmailService struct {
	gen    llm.Generator
	model  string
	delay  time.Duration
	logger *zap.Logger
}

// NewEmailService builds the email generator. delay is the pause between
// consecutive calls in GenerateBulk.
func NewEmailService(gen llm.Generator, model string, delay time.Duration, logger *zap.Logger) *EmailService {
	return &EmailService{gen: gen, model: model, delay: delay, logger: logger}
}

// Generate asks the model for {subject, html, plainText}.
func (s *EmailService) Generate(ctx context.Context, req prompt.EmailRequest) (content *EmailContent, err error) {
	defer func() { metrics.IncrementGeneration("email", generationStatus(err)) }()

	req = req.Normalize()
	text, err := prompt.BuildEmailPrompt(req)
	if errors.Is(err, prompt.ErrTopicRequired) {
		return nil, apperr.Wrap(apperr.KindValidation, "Prompt is required",
			errors.New("Please provide a prompt for email generation"))
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, "Invalid email request", err)
	}
	if s.gen == nil {
		return nil, upstreamErr(llm.ErrNotConfigured)
	}

	log := logger.WithTrace(ctx, s.logger).With(zap.String("email_type", req.Type), zap.String("tone", req.Tone))
	raw, err := s.gen.Generate(ctx, llm.Request{
		Prompt:  text,
		Options: llm.Options{Model: s.model},
	})
	if err != nil {
		log.Error("Email generation failed", zap.String("kind", string(llm.KindOf(err))), zap.Error(err))
		return nil, upstreamErr(err)
	}

	var email model.GeneratedEmail
	if err := normalize.ExtractJSON(raw, &email); err != nil {
		log.Warn("Email model returned invalid JSON", zap.Error(err))
		return nil, upstreamErr(err)
	}
	if strings.TrimSpace(email.Subject) == "" {
		email.Subject = fmt.Sprintf("%s - %s", req.Topic, req.Type)
	}
	if strings.TrimSpace(email.PlainText) == "" {
		email.PlainText = normalize.StripHTML(email.HTML)
	}

	log.Info("Email content generated", zap.String("subject", email.Subject))
	return &EmailContent{GeneratedEmail: email, Validation: Validate(email)}, nil
}

// GenerateBulk generates one email per topic, strictly one at a time, with
// s.delay between calls. A failed topic does not stop the batch; a
// cancelled ctx does, and the results so far are returned with ctx.Err().
func (s *EmailService) GenerateBulk(ctx context.Context, topics []string, emailType, tone string) ([]BulkResult, error) {
	if len(topics) == 0 {
		return nil, apperr.Validation("At least one topic is required")
	}
	if len(topics) > MaxBulkTopics {
		return nil, apperr.Validation(fmt.Sprintf("At most %d topics per request", MaxBulkTopics))
	}

	results := make([]BulkResult, 0, len(topics))
	for i, topic := range topics {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		content, err := s.Generate(ctx, prompt.EmailRequest{Topic: topic, Type: emailType, Tone: tone})
		if err != nil {
			results = append(results, BulkResult{
				Topic: topic,
				Error: errorMessage(err),
				Kind:  apperr.KindOf(err),
			})
		} else {
			results = append(results, BulkResult{Topic: topic, Success: true, Content: content})
		}

		if i < len(topics)-1 && s.delay > 0 {
			timer := time.NewTimer(s.delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return results, ctx.Err()
			case <-timer.C:
			}
		}
	}
	return results, nil
}

// Validate checks generated content before it is shown or sent.
func Validate(email model.GeneratedEmail) ContentValidation {
	issues := []string{}
	if utf8.RuneCountInString(strings.TrimSpace(email.Subject)) < minSubjectLen {
		issues = append(issues, "Subject line is too short")
	}
	if utf8.RuneCountInString(strings.TrimSpace(email.HTML)) < minHTMLLen {
		issues = append(issues, "HTML content is too short")
	}
	if strings.Contains(strings.ToLower(email.HTML), "<script") {
		issues = append(issues, "HTML contains script tags")
	}
	return ContentValidation{IsValid: len(issues) == 0, Issues: issues}
}

// Fallback renders a static email for when generation is unavailable.
func Fallback(req prompt.EmailRequest) model.GeneratedEmail {
	req = req.Normalize()
	topic := req.Topic
	if utf8.RuneCountInString(topic) > 50 {
		topic = string([]rune(topic)[:50]) + "..."
	}
	subject := strings.ToUpper(req.Type[:1]) + req.Type[1:] + ": " + topic

	body := fmt.Sprintf(fallbackHTML,
		html.EscapeString(subject),
		html.EscapeString(subject),
		html.EscapeString(req.Topic),
		html.EscapeString(req.Type),
		html.EscapeString(req.Tone),
	)
	return model.GeneratedEmail{
		Subject:   subject,
		HTML:      body,
		PlainText: normalize.StripHTML(body),
	}
}

func errorMessage(err error) string {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return ae.Message
	}
	return err.Error()
}

const fallbackHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>%s</title>
</head>
<body style="margin:0;padding:0;font-family:'Segoe UI',Arial,sans-serif;background-color:#f8f9fa;line-height:1.6;">
<div style="max-width:600px;margin:0 auto;background-color:#ffffff;box-shadow:0 4px 6px rgba(0,0,0,0.1);">
<div style="background:linear-gradient(135deg,#667eea 0%%,#764ba2 100%%);padding:40px 30px;text-align:center;">
<h1 style="color:white;margin:0;font-size:28px;font-weight:600;">%s</h1>
</div>
<div style="padding:40px 30px;color:#333;">
<h2 style="color:#4A90E2;margin:0 0 20px 0;">Hello!</h2>
<p style="font-size:16px;margin-bottom:20px;">We're excited to share this important update with you regarding: <strong>%s</strong></p>
<div style="background:#f8f9fa;padding:20px;border-radius:8px;margin:20px 0;border-left:4px solid #4A90E2;">
<p style="margin:0;font-size:16px;color:#555;">This %s email was generated to address your specific needs. We've crafted this message with a %s tone to ensure it resonates with you and provides valuable information.</p>
</div>
<p style="font-size:16px;margin-bottom:30px;">Thank you for your continued interest and support. We look forward to connecting with you soon!</p>
<div style="text-align:center;margin:30px 0;">
<a href="#" style="display:inline-block;background:linear-gradient(135deg,#667eea 0%%,#764ba2 100%%);color:white;padding:15px 30px;text-decoration:none;border-radius:25px;font-weight:600;font-size:16px;">Learn More</a>
</div>
</div>
<div style="background-color:#f8f9fa;padding:30px;text-align:center;border-top:1px solid #e5e7eb;">
<p style="margin:0 0 10px 0;color:#6b7280;font-size:14px;">Thank you for choosing our services</p>
<p style="margin:0;color:#9ca3af;font-size:12px;">This email was generated with AI assistance</p>
</div>
</div>
</body>
</html>`
