package mq

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ErrDeliveriesClosed — брокер закрыл канал доставки.
var ErrDeliveriesClosed = errors.New("deliveries channel closed")

// Handler — обработчик сообщения.
//
// nil — сообщение подтверждается. Любая ошибка отправляет сообщение
// в DLQ без повторной доставки: шаг не должен выполняться дважды.
type Handler func(ctx context.Context, msg *Message) error

// ConsumerConfig — конфигурация consumer.
type ConsumerConfig struct {
	Queue   Queue
	Handler Handler

	// Prefetch — сколько сообщений обрабатывается одновременно.
	Prefetch int
}

// Consumer потребляет сообщения из очереди RabbitMQ.
type Consumer struct {
	conn     *Connection
	logger   *slog.Logger
	queue    Queue
	handler  Handler
	prefetch int

	wg sync.WaitGroup
}

// NewConsumer создаёт новый Consumer.
func NewConsumer(conn *Connection, logger *slog.Logger, cfg ConsumerConfig) *Consumer {
	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = 1
	}

	return &Consumer{
		conn:     conn,
		logger:   logger.With("queue", cfg.Queue),
		queue:    cfg.Queue,
		handler:  cfg.Handler,
		prefetch: prefetch,
	}
}

// Run потребляет сообщения до отмены ctx.
// Перед возвратом дожидается обработки уже полученных сообщений.
func (c *Consumer) Run(ctx context.Context) error {
	defer c.wg.Wait()

	for {
		deliveries, err := c.subscribe()
		if err != nil {
			c.logger.Error("failed to subscribe", "error", err)
		} else {
			c.logger.Info("consumer started", "prefetch", c.prefetch)
			err = c.dispatch(ctx, deliveries)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Warn("consumer interrupted, waiting for reconnect", "error", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.conn.ReconnectNotify():
		}
	}
}

func (c *Consumer) subscribe() (<-chan amqp.Delivery, error) {
	ch := c.conn.Channel()
	if ch == nil {
		return nil, ErrNoChannel
	}
	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return nil, err
	}
	return ch.Consume(string(c.queue), "", false, false, false, false, nil)
}

// dispatch раздаёт сообщения обработчикам, не больше prefetch одновременно.
func (c *Consumer) dispatch(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	sem := make(chan struct{}, c.prefetch)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case raw, ok := <-deliveries:
			if !ok {
				return ErrDeliveriesClosed
			}

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				_ = raw.Nack(false, true)
				return ctx.Err()
			}

			c.wg.Add(1)
			go func() {
				defer func() {
					<-sem
					c.wg.Done()
				}()
				c.handle(ctx, raw)
			}()
		}
	}
}

func (c *Consumer) handle(ctx context.Context, raw amqp.Delivery) {
	msg, err := DecodeMessage(raw.Body)
	if err != nil {
		c.logger.Error("dropping malformed message", "error", err, "body", string(raw.Body))
		_ = raw.Nack(false, false)
		return
	}

	logger := c.logger.With("message_id", msg.ID, "type", msg.Type)
	logger.Debug("received message")

	if err := c.handler(ctx, msg); err != nil {
		logger.Error("handler failed, dead-lettering message", "error", err)
		_ = raw.Nack(false, false)
		return
	}

	if err := raw.Ack(false); err != nil {
		logger.Warn("ack failed", "error", err)
	}
}
