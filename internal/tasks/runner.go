package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/shaiso/Appo/internal/execution"
	"github.com/shaiso/Appo/internal/protocol"
	"github.com/shaiso/Appo/internal/telemetry"
)

// RunnerConfig — конфигурация Runner.
type RunnerConfig struct {
	Logger *slog.Logger

	// Tracer — если nil, берётся из глобального провайдера.
	Tracer trace.Tracer
}

// Runner — обёртка выполнения одного шага.
//
// Гарантирует, что после Run в контексте есть результат шага:
// паника превращается в Failure(500, "internal error"), а шаг,
// вернувший управление без результата, получает Failure(500).
// Повторов нет.
type Runner struct {
	logger *slog.Logger
	tracer trace.Tracer
}

// NewRunner создаёт новый Runner.
func NewRunner(cfg RunnerConfig) *Runner {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		logger: logger,
		tracer: cfg.Tracer,
	}
}

// Run выполняет шаг над контекстом run.
// Возвращает ошибку шага (или панику), результат к этому моменту уже записан.
func (r *Runner) Run(ctx context.Context, runID string, task Task, ec *execution.Context) error {
	ec.BeginStep()

	logger := telemetry.WithTaskType(telemetry.WithRunID(r.logger, runID), task.Type())
	ctx = telemetry.WithLogger(ctx, logger)

	tracer := r.tracer
	if tracer == nil {
		tracer = telemetry.Tracer()
	}
	ctx, span := tracer.Start(ctx, "task "+task.Type(), trace.WithAttributes(
		attribute.String("appo.run_id", runID),
		attribute.String("appo.task_type", task.Type()),
	))
	defer span.End()

	start := time.Now()
	err := r.execute(ctx, logger, task, ec)
	elapsed := time.Since(start)

	if !ec.HasOutcome() {
		logger.Error("task finished without outcome")
		protocol.Failure(ec, protocol.CodeFlowError, protocol.MsgNoOutcome)
	}

	outcome := protocol.Current(ec)
	telemetry.ObserveTask(task.Type(), outcome.Code, elapsed)

	span.SetAttributes(attribute.String("appo.outcome_code", outcome.Code))
	if err != nil {
		span.RecordError(err)
	}
	if !outcome.IsSuccess() {
		span.SetStatus(codes.Error, outcome.Message)
	}

	logger.Info("task finished",
		"code", outcome.Code,
		"message", outcome.Message,
		"duration_ms", elapsed.Milliseconds(),
		"fault", err != nil,
	)
	return err
}

func (r *Runner) execute(ctx context.Context, logger *slog.Logger, task Task, ec *execution.Context) (err error) {
	defer func() {
		if p := recover(); p != nil {
			logger.Error("task panicked", "panic", p, "stack", string(debug.Stack()))
			protocol.Failure(ec, protocol.CodeFlowError, protocol.MsgInternalError)
			err = fmt.Errorf("%w: %v", ErrTaskPanic, p)
		}
	}()
	return task.Execute(ctx, ec)
}
