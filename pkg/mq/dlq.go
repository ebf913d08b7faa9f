package mq

import (
	"context"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

const (
	DLQExchangeName = "events.dlq"
)

// DLQName is the dead letter queue for a routing key.
func DLQName(routingKey string) string {
	return routingKey + ".dlq"
}

// DeclareDLQ declares the dead letter exchange and the queue for routingKey.
func DeclareDLQ(ch *amqp091.Channel, routingKey string) error {
	if err := ch.ExchangeDeclare(
		DLQExchangeName,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("failed to declare DLQ exchange: %w", err)
	}

	q, err := ch.QueueDeclare(
		DLQName(routingKey),
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare DLQ queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, routingKey, DLQExchangeName, false, nil); err != nil {
		return fmt.Errorf("failed to bind DLQ queue: %w", err)
	}
	return nil
}

// publishToDLQ parks a message that will never succeed, with the failure reason in headers.
func publishToDLQ(ctx context.Context, ch *amqp091.Channel, routingKey string, body []byte, errType, originalError string) error {
	return ch.PublishWithContext(ctx,
		DLQExchangeName,
		routingKey,
		false,
		false,
		amqp091.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Headers: amqp091.Table{
				"x-original-error": originalError,
				"x-error-type":     errType,
			},
		},
	)
}
