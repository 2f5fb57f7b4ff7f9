package tasks

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/shaiso/Appo/internal/execution"
	"github.com/shaiso/Appo/internal/protocol"
)

// funcTask — шаг из функции для тестов.
type funcTask struct {
	typ string
	fn  func(ctx context.Context, ec *execution.Context) error
}

func (f *funcTask) Type() string { return f.typ }

func (f *funcTask) Execute(ctx context.Context, ec *execution.Context) error {
	return f.fn(ctx, ec)
}

func newTestRunner() (*Runner, *tracetest.SpanRecorder) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	return NewRunner(RunnerConfig{Tracer: tp.Tracer("test")}), sr
}

func TestRunner_Success(t *testing.T) {
	runner, sr := newTestRunner()
	task := &funcTask{typ: "ok", fn: func(_ context.Context, ec *execution.Context) error {
		protocol.Success(ec, "OK")
		return nil
	}}

	ec := execution.New()
	require.NoError(t, runner.Run(context.Background(), "run-1", task, ec))
	assert.Equal(t, protocol.Outcome{Code: "200", Message: "OK"}, protocol.Current(ec))

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "task ok", spans[0].Name())
	assert.NotEqual(t, codes.Error, spans[0].Status().Code)
}

func TestRunner_Panic(t *testing.T) {
	runner, sr := newTestRunner()
	task := &funcTask{typ: "boom", fn: func(context.Context, *execution.Context) error {
		panic("nil map")
	}}

	ec := execution.New()
	err := runner.Run(context.Background(), "run-1", task, ec)
	assert.ErrorIs(t, err, ErrTaskPanic)
	assert.Equal(t, protocol.Outcome{Code: "500", Message: "internal error"}, protocol.Current(ec))

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
}

func TestRunner_NoOutcome(t *testing.T) {
	runner, _ := newTestRunner()
	task := &funcTask{typ: "silent", fn: func(context.Context, *execution.Context) error {
		return nil
	}}

	ec := execution.New()

	// Результат предыдущего шага не считается результатом текущего
	protocol.Success(ec, "previous")

	require.NoError(t, runner.Run(context.Background(), "run-1", task, ec))
	assert.Equal(t, protocol.Outcome{Code: "500", Message: "task finished without outcome"}, protocol.Current(ec))
}

func TestRunner_FaultKeepsOutcome(t *testing.T) {
	runner, _ := newTestRunner()
	fault := errors.New("aborted")
	task := &funcTask{typ: "fault", fn: func(_ context.Context, ec *execution.Context) error {
		protocol.Failure(ec, protocol.CodeFlowError, "io exception")
		return fault
	}}

	ec := execution.New()
	err := runner.Run(context.Background(), "run-1", task, ec)
	assert.ErrorIs(t, err, fault)
	assert.Equal(t, "io exception", protocol.Current(ec).Message)
}

func TestRegistry(t *testing.T) {
	store := newFakeStore()
	r := DefaultRegistry(store, APMConfig{}, MEPMConfig{})

	assert.Equal(t, []string{"appo.apm", "appo.db", "appo.mepm"}, r.Types())

	task, err := r.Get(TypeMEPM)
	require.NoError(t, err)
	assert.Equal(t, TypeMEPM, task.Type())

	_, err = r.Get("appo.unknown")
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestParseOperations(t *testing.T) {
	op, ok := ParseDBOperation("getAppRuleTask")
	assert.True(t, ok)
	assert.Equal(t, DBGetAppRuleTask, op)

	_, ok = ParseDBOperation("GET")
	assert.False(t, ok)

	_, ok = ParseAPMOperation("download")
	assert.True(t, ok)

	mop, ok := ParseMEPMOperation("queryEdgeCapabilities")
	assert.True(t, ok)
	assert.Equal(t, MEPMQueryEdgeCapabilities, mop)

	_, ok = ParseMEPMOperation("")
	assert.False(t, ok)
}
