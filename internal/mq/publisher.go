package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher публикует сообщения в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// Publish публикует сообщение и ждёт подтверждения брокера.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	err = p.conn.Publish(ctx, string(exchange), string(routingKey), amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.ID,
		Type:         string(msg.Type),
		Timestamp:    msg.Timestamp,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
	}

	p.logger.Debug("published message",
		"exchange", exchange,
		"routing_key", routingKey,
		"message_id", msg.ID,
		"type", msg.Type,
	)
	return nil
}

// PublishTaskReady ставит шаг в очередь tasks.ready.
// Возвращает ID сообщения.
func (p *Publisher) PublishTaskReady(ctx context.Context, payload TaskReadyPayload) (string, error) {
	msg, err := NewMessage(MessageTypeTaskReady, payload)
	if err != nil {
		return "", err
	}
	if err := p.Publish(ctx, ExchangeTasks, RoutingKeyReady, msg); err != nil {
		return "", err
	}
	return msg.ID, nil
}

// PublishTaskCompleted публикует результат шага в tasks.completed.
func (p *Publisher) PublishTaskCompleted(ctx context.Context, payload TaskCompletedPayload) error {
	msg, err := NewMessage(MessageTypeTaskCompleted, payload)
	if err != nil {
		return err
	}
	return p.Publish(ctx, ExchangeTasks, RoutingKeyCompleted, msg)
}
