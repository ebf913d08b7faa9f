package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"bizkit/internal/apperr"
	"bizkit/internal/llm"
	"bizkit/internal/model"
	"bizkit/internal/normalize"
	"bizkit/internal/prompt"
	"bizkit/internal/repository"
	"bizkit/pkg/logger"
	"bizkit/pkg/metrics"
)

// ChatFallbackReply is shown when the consultant cannot answer.
const ChatFallbackReply = "I'm having trouble analyzing that business query right now."

// ChatService answers one question per call. Earlier turns are logged but
// never sent upstream, so the bot has no memory of the conversation.
type ChatService struct {
	gen     llm.Generator
	history repository.ChatStore
	model   string
	logger  *zap.Logger
	now     func() time.Time
}

// NewChatService wires the chat bot. history may be nil when no database is
// configured; turns are then simply not recorded.
func NewChatService(gen llm.Generator, history repository.ChatStore, model string, logger *zap.Logger) *ChatService {
	return &ChatService{gen: gen, history: history, model: model, logger: logger, now: time.Now}
}

func (s *ChatService) Reply(ctx context.Context, message string) (reply string, err error) {
	defer func() { metrics.IncrementGeneration("chat", generationStatus(err)) }()

	text, err := prompt.BuildChatPrompt(message)
	if errors.Is(err, prompt.ErrMessageRequired) {
		return "", apperr.Validation("Message is required")
	}
	if err != nil {
		return "", apperr.Wrap(apperr.KindValidation, "Invalid message", err)
	}
	if s.gen == nil {
		return "", upstreamErr(llm.ErrNotConfigured)
	}

	log := logger.WithTrace(ctx, s.logger)
	s.record(ctx, log, model.SenderUser, message)

	raw, err := s.gen.Generate(ctx, llm.Request{
		Prompt:  text,
		Options: llm.Options{Model: s.model},
	})
	if err != nil {
		log.Error("Chat generation failed", zap.String("kind", string(llm.KindOf(err))), zap.Error(err))
		return "", upstreamErr(err)
	}

	reply = normalize.CleanChatReply(raw)
	s.record(ctx, log, model.SenderBot, reply)
	return reply, nil
}

// History returns up to limit recent turns, oldest first.
func (s *ChatService) History(ctx context.Context, limit int) ([]model.ChatMessage, error) {
	if s.history == nil {
		return nil, apperr.New(apperr.KindDatabaseUnavailable, "Chat history is not available")
	}
	msgs, err := s.history.List(ctx, limit)
	if err != nil {
		return nil, dbErr(err)
	}
	return msgs, nil
}

// record appends to the chat log. Failures are logged, never returned.
func (s *ChatService) record(ctx context.Context, log *zap.Logger, sender model.Sender, text string) {
	if s.history == nil {
		return
	}
	msg := &model.ChatMessage{Sender: sender, Text: text, Timestamp: s.now()}
	if err := s.history.Append(ctx, msg); err != nil {
		log.Warn("Failed to record chat message", zap.String("sender", string(sender)), zap.Error(err))
	}
}
