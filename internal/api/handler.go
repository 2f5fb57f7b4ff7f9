package api

import (
	"context"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/shaiso/Appo/internal/domain"
	"github.com/shaiso/Appo/internal/mq"
	"github.com/shaiso/Appo/internal/tasks"
)

// RecordReader — чтение записей реестра для операторских endpoint'ов.
// Реализуется *repo.Registry.
type RecordReader interface {
	GetInstance(ctx context.Context, tenant, id string) (*domain.AppInstance, error)
	GetRuleTask(ctx context.Context, tenant, id string) (*domain.AppRuleTask, error)
}

// TaskEnqueuer ставит шаг в очередь tasks.ready.
// Реализуется *mq.Publisher.
type TaskEnqueuer interface {
	PublishTaskReady(ctx context.Context, payload mq.TaskReadyPayload) (string, error)
}

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	tasks     *tasks.Registry
	runner    *tasks.Runner
	records   RecordReader
	publisher TaskEnqueuer
	validate  *validator.Validate
	logger    *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	Tasks   *tasks.Registry
	Runner  *tasks.Runner
	Records RecordReader

	// Publisher — опционален. Без него enqueue отвечает 503.
	Publisher TaskEnqueuer

	Logger *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	runner := cfg.Runner
	if runner == nil {
		runner = tasks.NewRunner(tasks.RunnerConfig{Logger: logger})
	}

	return &Handler{
		tasks:     cfg.Tasks,
		runner:    runner,
		records:   cfg.Records,
		publisher: cfg.Publisher,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		logger:    logger,
	}
}
