package mq

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// Exchanges.
const (
	ExchangeTasks Exchange = "appo.tasks"
	ExchangeDLQ   Exchange = "appo.dlq"
)

// Queues.
const (
	QueueTasksReady     Queue = "tasks.ready"
	QueueTasksCompleted Queue = "tasks.completed"
	QueueDLQTasks       Queue = "dlq.tasks"
)

// Routing keys.
const (
	RoutingKeyReady     RoutingKey = "ready"
	RoutingKeyCompleted RoutingKey = "completed"
	RoutingKeyDLQTasks  RoutingKey = "tasks"
)

// binding — очередь, привязанная к обменнику.
type binding struct {
	queue      Queue
	exchange   Exchange
	routingKey RoutingKey
	args       amqp.Table
}

// topology описывает все очереди Appo.
//
//	appo.tasks (direct)
//	├── tasks.ready      [ready]      → appo-worker, отказ → dlq.tasks
//	└── tasks.completed  [completed]  → внешний sequencer
//	appo.dlq (direct)
//	└── dlq.tasks        [tasks]      → ручной разбор
var topology = []binding{
	{
		queue:      QueueTasksReady,
		exchange:   ExchangeTasks,
		routingKey: RoutingKeyReady,
		args: amqp.Table{
			"x-dead-letter-exchange":    string(ExchangeDLQ),
			"x-dead-letter-routing-key": string(RoutingKeyDLQTasks),
		},
	},
	{queue: QueueTasksCompleted, exchange: ExchangeTasks, routingKey: RoutingKeyCompleted},
	{queue: QueueDLQTasks, exchange: ExchangeDLQ, routingKey: RoutingKeyDLQTasks},
}

// SetupTopology объявляет exchanges, queues и bindings. Идемпотентна.
func SetupTopology(conn *Connection) error {
	ch := conn.Channel()
	if ch == nil {
		return ErrNoChannel
	}

	for _, ex := range []Exchange{ExchangeTasks, ExchangeDLQ} {
		if err := ch.ExchangeDeclare(string(ex), "direct", true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare exchange %s: %w", ex, err)
		}
	}

	for _, b := range topology {
		if _, err := ch.QueueDeclare(string(b.queue), true, false, false, false, b.args); err != nil {
			return fmt.Errorf("declare queue %s: %w", b.queue, err)
		}
		if err := ch.QueueBind(string(b.queue), string(b.routingKey), string(b.exchange), false, nil); err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
		}
	}
	return nil
}
