package mqhandler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"bizkit/internal/model"
	"bizkit/internal/repository"
	"bizkit/pkg/logger"
)

var errEmptyRecipients = errors.New("delivery event has no recipients")

// EmailDeliveryLogHandler 把 email.sent / email.failed 事件写入 email_logs
type EmailDeliveryLogHandler struct {
	store  repository.EmailLogStore
	logger *zap.Logger
}

func NewEmailDeliveryLogHandler(store repository.EmailLogStore, logger *zap.Logger) *EmailDeliveryLogHandler {
	return &EmailDeliveryLogHandler{
		store:  store,
		logger: logger,
	}
}

// HandleSent consumes email.sent. Redelivery is a no-op because inserts are
// keyed on message_id.
func (h *EmailDeliveryLogHandler) HandleSent(ctx context.Context, raw json.RawMessage) error {
	return h.handle(ctx, raw, model.EmailStatusSent)
}

// HandleFailed consumes email.failed.
func (h *EmailDeliveryLogHandler) HandleFailed(ctx context.Context, raw json.RawMessage) error {
	return h.handle(ctx, raw, model.EmailStatusFailed)
}

func (h *EmailDeliveryLogHandler) handle(ctx context.Context, raw json.RawMessage, status string) error {
	log := logger.WithTrace(ctx, h.logger)

	var ev model.EmailDeliveryEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		log.Error("Failed to unmarshal email delivery payload", zap.Error(err))
		return fmt.Errorf("json: decode delivery event: %w", err)
	}
	if len(ev.Recipients) == 0 {
		log.Warn("Dropping delivery event without recipients", zap.String("status", status))
		return errEmptyRecipients
	}

	createdAt := ev.OccurredAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	entry := &model.EmailLog{
		MessageID:  ev.MessageID,
		Recipients: ev.Recipients,
		Subject:    ev.Subject,
		Status:     status,
		ErrorKind:  ev.ErrorKind,
		Error:      ev.Error,
		CreatedAt:  createdAt,
	}
	if err := h.store.Insert(ctx, entry); err != nil {
		log.Error("Failed to insert email log",
			zap.String("message_id", ev.MessageID),
			zap.String("status", status),
			zap.Error(err),
		)
		return err
	}

	log.Info("Email log recorded",
		zap.String("message_id", ev.MessageID),
		zap.String("status", status),
		zap.Int("recipients", len(ev.Recipients)),
	)
	return nil
}
