package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"bizkit/pkg/metrics"
	"bizkit/pkg/trace"
	"bizkit/pkg/util"
)

type MessageHandler func(ctx context.Context, data json.RawMessage) error

type deadLetterFunc func(ctx context.Context, routingKey string, body []byte, errType, reason string) error

type Consumer struct {
	channel    *amqp091.Channel
	queue      amqp091.Queue
	routingKey string
	handler    MessageHandler
	conn       *amqp091.Connection
	logger     *zap.Logger
	deadLetter deadLetterFunc
}

// NewConsumer creates a consumer for a specific routing key, bound to
// QueueName(routingKey) with a matching dead letter queue.
func NewConsumer(url, routingKey string, logger *zap.Logger) (*Consumer, error) {
	conn, err := NewConnection(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	fail := func(err error) (*Consumer, error) {
		ch.Close()
		conn.Close()
		return nil, err
	}

	if err := DeclareExchange(ch); err != nil {
		return fail(fmt.Errorf("failed to declare exchange: %w", err))
	}
	if err := DeclareDLQ(ch, routingKey); err != nil {
		return fail(err)
	}

	q, err := ch.QueueDeclare(
		QueueName(routingKey),
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fail(fmt.Errorf("failed to declare queue: %w", err))
	}

	if err := ch.QueueBind(q.Name, routingKey, ExchangeName, false, nil); err != nil {
		return fail(fmt.Errorf("failed to bind queue: %w", err))
	}

	logger.Info("Consumer initialized",
		zap.String("routing_key", routingKey),
		zap.String("queue", q.Name),
		zap.String("exchange", ExchangeName),
	)

	c := &Consumer{
		conn:       conn,
		channel:    ch,
		queue:      q,
		routingKey: routingKey,
		logger:     logger,
	}
	c.deadLetter = func(ctx context.Context, rk string, body []byte, errType, reason string) error {
		return publishToDLQ(ctx, ch, rk, body, errType, reason)
	}
	return c, nil
}

func (c *Consumer) SetHandler(h MessageHandler) {
	c.handler = h
}

func (c *Consumer) Close() {
	if c.channel != nil {
		_ = c.channel.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

// StartConsuming consumes until ctx is cancelled or the channel closes.
func (c *Consumer) StartConsuming(ctx context.Context) error {
	if c.handler == nil {
		return fmt.Errorf("consumer handler not set")
	}

	deliveries, err := c.channel.ConsumeWithContext(ctx,
		c.queue.Name,
		"worker-"+c.routingKey,
		false, // 手动ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.logger.Info("Consumer started consuming messages",
		zap.String("routing_key", c.routingKey),
		zap.String("queue", c.queue.Name),
	)

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-deliveries:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("delivery channel closed for %s", c.queue.Name)
			}
			c.handleDelivery(ctx, msg)
		}
	}
}

// handleDelivery 保证每条消息都会被 ack 或 nack
func (c *Consumer) handleDelivery(parent context.Context, msg amqp091.Delivery) {
	start := time.Now()
	ctx := parent
	if traceID, ok := msg.Headers[trace.HeaderName].(string); ok && traceID != "" {
		ctx = trace.WithContext(ctx, traceID)
	}
	defer func() {
		metrics.RecordMQConsumeLatency(c.routingKey, c.queue.Name, time.Since(start))
	}()

	// Panic 恢复：确保即使 handler panic 也能正确处理消息
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Handler panic recovered",
				zap.String("routing_key", c.routingKey),
				zap.Any("panic", r),
			)
			c.reject(ctx, msg, "handler_panic", fmt.Sprint(r))
		}
	}()

	err := c.handler(ctx, msg.Body)
	if err == nil {
		if ackErr := msg.Ack(false); ackErr != nil {
			c.logger.Error("Failed to ack message", zap.String("routing_key", c.routingKey), zap.Error(ackErr))
		}
		return
	}

	retryable, errType := util.IsRetryableError(err)
	c.logger.Error("Handler error",
		zap.String("routing_key", c.routingKey),
		zap.String("queue", c.queue.Name),
		zap.Bool("retryable", retryable),
		zap.String("error_type", errType),
		zap.Error(err),
	)

	if retryable && !msg.Redelivered {
		// 可重试 → 重新入队，让 MQ 重试一次
		if nackErr := msg.Nack(false, true); nackErr != nil {
			c.logger.Error("Failed to nack message", zap.String("routing_key", c.routingKey), zap.Error(nackErr))
		}
		return
	}
	c.reject(ctx, msg, errType, err.Error())
}

// reject parks the message in the DLQ and drops it from the work queue.
func (c *Consumer) reject(ctx context.Context, msg amqp091.Delivery, errType, reason string) {
	if c.deadLetter != nil {
		if err := c.deadLetter(ctx, c.routingKey, msg.Body, errType, reason); err != nil {
			c.logger.Error("Failed to publish to DLQ", zap.String("routing_key", c.routingKey), zap.Error(err))
		}
	}
	if err := msg.Nack(false, false); err != nil {
		c.logger.Error("Failed to nack message", zap.String("routing_key", c.routingKey), zap.Error(err))
	}
}
