package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shaiso/Appo/internal/mq"
	"github.com/shaiso/Appo/internal/protocol"
	"github.com/shaiso/Appo/internal/tasks"
	"github.com/shaiso/Appo/internal/telemetry"
)

const (
	defaultPrefetch = 5

	// resultPublishTimeout ограничивает ожидание confirm для task.completed.
	resultPublishTimeout = 30 * time.Second
)

// ResultPublisher публикует результаты шагов.
// Реализуется *mq.Publisher.
type ResultPublisher interface {
	PublishTaskCompleted(ctx context.Context, payload mq.TaskCompletedPayload) error
}

// Config — конфигурация Worker.
type Config struct {
	Registry  *tasks.Registry
	Runner    *tasks.Runner
	Publisher ResultPublisher

	// Conn — соединение для consumer'а tasks.ready.
	// Не нужен, если сообщения подаются в HandleTaskReady напрямую.
	Conn *mq.Connection

	// Prefetch — сколько шагов выполняется одновременно (default: 5).
	Prefetch int

	Logger *slog.Logger
}

// Worker выполняет шаги из очереди tasks.ready.
//
// На каждое сообщение: находит шаг по task_type, выполняет его через
// Runner над присланным контекстом и публикует task.completed
// с результатом и обновлённым контекстом. Шаг выполняется ровно один раз:
// сообщения, которые не удалось обработать, уходят в DLQ.
type Worker struct {
	registry  *tasks.Registry
	runner    *tasks.Runner
	publisher ResultPublisher
	conn      *mq.Connection
	prefetch  int
	logger    *slog.Logger
}

// New создаёт новый Worker.
func New(cfg Config) *Worker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = defaultPrefetch
	}

	runner := cfg.Runner
	if runner == nil {
		runner = tasks.NewRunner(tasks.RunnerConfig{Logger: logger})
	}

	return &Worker{
		registry:  cfg.Registry,
		runner:    runner,
		publisher: cfg.Publisher,
		conn:      cfg.Conn,
		prefetch:  prefetch,
		logger:    logger,
	}
}

// Run потребляет tasks.ready до отмены ctx.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("starting worker", "prefetch", w.prefetch, "task_types", w.registry.Types())

	consumer := mq.NewConsumer(w.conn, w.logger, mq.ConsumerConfig{
		Queue:    mq.QueueTasksReady,
		Handler:  w.HandleTaskReady,
		Prefetch: w.prefetch,
	})

	err := consumer.Run(ctx)
	if errors.Is(err, context.Canceled) {
		w.logger.Info("worker stopped")
		return nil
	}
	return err
}

// HandleTaskReady выполняет шаг из сообщения task.ready.
//
// Начатый шаг не прерывается отменой ctx: шаг и публикация результата
// идут под контекстом без отмены, чтобы sequencer получил outcome шага,
// побочные эффекты которого уже могли произойти.
func (w *Worker) HandleTaskReady(ctx context.Context, msg *mq.Message) error {
	if msg.Type != mq.MessageTypeTaskReady {
		return fmt.Errorf("%w: %s", ErrUnexpectedMessage, msg.Type)
	}

	payload, err := mq.ParsePayload[mq.TaskReadyPayload](msg)
	if err != nil {
		return err
	}
	if payload.Context == nil {
		return ErrMissingContext
	}

	task, err := w.registry.Get(payload.TaskType)
	if err != nil {
		return err
	}

	logger := telemetry.WithRunID(w.logger, payload.RunID)
	logger.Debug("executing task", "task_type", payload.TaskType, "message_id", msg.ID)

	result := mq.TaskCompletedPayload{
		RunID:    payload.RunID,
		TaskType: payload.TaskType,
		Context:  payload.Context,
	}
	runCtx := context.WithoutCancel(ctx)
	if err := w.runner.Run(runCtx, payload.RunID, task, payload.Context); err != nil {
		result.Error = err.Error()
	}
	result.Outcome = protocol.Current(payload.Context)

	pubCtx, cancel := context.WithTimeout(runCtx, resultPublishTimeout)
	defer cancel()

	if err := w.publisher.PublishTaskCompleted(pubCtx, result); err != nil {
		logger.Error("failed to publish task result",
			"task_type", payload.TaskType,
			"code", result.Outcome.Code,
			"error", err,
		)
		return fmt.Errorf("%w: %w", ErrPublishResult, err)
	}
	return nil
}
