package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"bizkit/internal/apperr"
	"bizkit/internal/mailer"
	"bizkit/internal/model"
	"bizkit/internal/normalize"
	"bizkit/pkg/logger"
	"bizkit/pkg/metrics"
)

const dedupScope = "send-email"

// EventPublisher is satisfied by *mq.Publisher.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// Deduper is satisfied by *util.Deduper.
type Deduper interface {
	AcquireOnce(ctx context.Context, scope, id string) bool
	Release(ctx context.Context, scope, id string)
}

type SendRequest struct {
	To             []string
	Subject        string
	HTML           string
	Text           string
	IdempotencyKey string
}

type SendResult struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	MessageID string `json:"messageId,omitempty"`
	Recipient string `json:"recipient"`
	Duplicate bool   `json:"duplicate,omitempty"`
}

type DeliveryService struct {
	transport mailer.Transport
	publisher EventPublisher
	dedup     Deduper
	logger    *zap.Logger
	now       func() time.Time
}

// NewDeliveryService wires the send path. transport, publisher and dedup are
// each optional.
func NewDeliveryService(transport mailer.Transport, publisher EventPublisher, dedup Deduper, logger *zap.Logger) *DeliveryService {
	return &DeliveryService{
		transport: transport,
		publisher: publisher,
		dedup:     dedup,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *DeliveryService) Configured() bool { return s.transport != nil }

// Send delivers one message to every recipient in req.To.
func (s *DeliveryService) Send(ctx context.Context, req SendRequest) (*SendResult, error) {
	to := make([]string, 0, len(req.To))
	for _, addr := range req.To {
		if a := strings.TrimSpace(addr); a != "" {
			to = append(to, a)
		}
	}
	subject := strings.TrimSpace(req.Subject)
	if len(to) == 0 || subject == "" || (req.HTML == "" && req.Text == "") {
		return nil, apperr.Wrap(apperr.KindValidation, "Missing required fields",
			errors.New("Email address, subject, and content are required"))
	}
	if res := mailer.ValidateAddresses(to); len(res.Invalid) > 0 {
		return nil, apperr.Wrap(apperr.KindValidation, "Invalid recipient email address",
			errors.New(strings.Join(res.Invalid, ", ")))
	}
	if s.transport == nil {
		return nil, &apperr.Error{
			Kind:    apperr.KindMailTransport,
			Message: "Email service not configured",
			Err:     mailer.ErrNotConfigured,
		}
	}

	log := logger.WithTrace(ctx, s.logger).With(zap.Strings("to", to))
	recipient := strings.Join(to, ", ")

	if req.IdempotencyKey != "" && s.dedup != nil {
		if !s.dedup.AcquireOnce(ctx, dedupScope, req.IdempotencyKey) {
			log.Info("Duplicate send ignored", zap.String("idempotency_key", req.IdempotencyKey))
			return &SendResult{
				Success:   true,
				Message:   "Duplicate request ignored",
				Recipient: recipient,
				Duplicate: true,
			}, nil
		}
	}

	text := req.Text
	if text == "" {
		text = normalize.StripHTML(req.HTML)
	}

	log.Info("Sending email", zap.String("subject", subject))
	messageID, err := s.transport.Send(ctx, mailer.Message{To: to, Subject: subject, HTML: req.HTML, Text: text})
	if err != nil {
		se := mailer.Classify(err)
		metrics.IncrementEmailSent(string(se.Kind))
		log.Error("Email sending failed", zap.String("kind", string(se.Kind)), zap.Int("code", se.Code), zap.Error(err))

		// let the caller retry with the same key
		if req.IdempotencyKey != "" && s.dedup != nil {
			s.dedup.Release(ctx, dedupScope, req.IdempotencyKey)
		}
		s.publish(ctx, log, model.RoutingEmailFailed, model.EmailDeliveryEvent{
			Recipients: to,
			Subject:    subject,
			ErrorKind:  string(se.Kind),
			Error:      err.Error(),
			OccurredAt: s.now(),
		})
		return nil, &apperr.Error{
			Kind:    apperr.KindMailTransport,
			Message: se.Message(),
			Err:     err,
			Detail:  string(se.Kind),
		}
	}

	metrics.IncrementEmailSent("sent")
	log.Info("Email sent", zap.String("message_id", messageID))
	s.publish(ctx, log, model.RoutingEmailSent, model.EmailDeliveryEvent{
		MessageID:  messageID,
		Recipients: to,
		Subject:    subject,
		OccurredAt: s.now(),
	})

	return &SendResult{
		Success:   true,
		Message:   "Email sent successfully",
		MessageID: messageID,
		Recipient: recipient,
	}, nil
}

// Verify checks that the transport accepts our credentials.
func (s *DeliveryService) Verify(ctx context.Context) error {
	if s.transport == nil {
		return apperr.New(apperr.KindMailTransport, "Email service not configured")
	}
	if err := s.transport.Verify(ctx); err != nil {
		se := mailer.Classify(err)
		return &apperr.Error{
			Kind:    apperr.KindMailTransport,
			Message: "Email service test failed",
			Err:     err,
			Detail:  string(se.Kind),
		}
	}
	return nil
}

// publish is best effort: the send already happened.
func (s *DeliveryService) publish(ctx context.Context, log *zap.Logger, routingKey string, ev model.EmailDeliveryEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, routingKey, ev); err != nil {
		log.Warn("Failed to publish delivery event", zap.String("routing_key", routingKey), zap.Error(err))
	}
}
