package janitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/shaiso/Appo/internal/telemetry"
)

// ErrInvalidSchedule — выражение расписания не разбирается.
var ErrInvalidSchedule = errors.New("invalid janitor schedule")

// scheduleParser — стандартные 5 полей и дескрипторы (@hourly, @every 10m).
var scheduleParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Cleaner удаляет завершённые задачи правил.
// Реализуется *repo.RuleTaskRepo.
type Cleaner interface {
	DeleteCompletedBefore(ctx context.Context, before time.Time) (int64, error)
}

// Locker — выбор лидера среди нескольких janitor'ов.
// Реализуется *repo.AdvisoryLock.
type Locker interface {
	TryLock(ctx context.Context) (bool, error)
	Unlock(ctx context.Context) error
}

// Config — конфигурация Janitor.
type Config struct {
	Cleaner Cleaner

	// Locker — опционален. Без него каждый экземпляр чистит сам.
	Locker Locker

	// Schedule — cron-выражение или дескриптор.
	Schedule string

	// TTL — сколько хранится завершённая задача после последнего обновления.
	TTL time.Duration

	Logger *slog.Logger

	// Now — источник времени (для тестов).
	Now func() time.Time
}

// Janitor удаляет результаты задач правил, которые никто не забрал.
//
// Задача правил с непустым config_result старше TTL считается брошенной:
// sequencer её уже не опросит, а в реестре она осталась бы навсегда.
// Незавершённые задачи не трогаются.
type Janitor struct {
	cleaner  Cleaner
	locker   Locker
	spec     string
	schedule cron.Schedule
	ttl      time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// New создаёт Janitor и проверяет расписание.
func New(cfg Config) (*Janitor, error) {
	schedule, err := scheduleParser.Parse(cfg.Schedule)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidSchedule, cfg.Schedule, err)
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("janitor ttl must be positive, got %s", cfg.TTL)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Janitor{
		cleaner:  cfg.Cleaner,
		locker:   cfg.Locker,
		spec:     cfg.Schedule,
		schedule: schedule,
		ttl:      cfg.TTL,
		logger:   logger,
		now:      now,
	}, nil
}

// Next возвращает время следующего запуска после from.
func (j *Janitor) Next(from time.Time) time.Time {
	return j.schedule.Next(from)
}

// Sweep выполняет одну очистку.
// Возвращает 0 без ошибки, если этот экземпляр не лидер.
func (j *Janitor) Sweep(ctx context.Context) (int64, error) {
	if j.locker != nil {
		leader, err := j.locker.TryLock(ctx)
		if err != nil {
			return 0, err
		}
		if !leader {
			j.logger.Debug("not a leader, skipping sweep")
			return 0, nil
		}
	}

	before := j.now().Add(-j.ttl)
	deleted, err := j.cleaner.DeleteCompletedBefore(ctx, before)
	if err != nil {
		return 0, err
	}

	telemetry.ObserveJanitor(deleted)
	if deleted > 0 {
		j.logger.Info("removed completed app rule tasks", "count", deleted, "before", before)
	}
	return deleted, nil
}

// Run запускает очистку по расписанию до отмены ctx.
// Пропускает запуск, если предыдущий ещё не закончился.
func (j *Janitor) Run(ctx context.Context) error {
	c := cron.New(
		cron.WithParser(scheduleParser),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	if _, err := c.AddFunc(j.spec, func() {
		if _, err := j.Sweep(ctx); err != nil && ctx.Err() == nil {
			j.logger.Error("janitor sweep failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("%w %q: %w", ErrInvalidSchedule, j.spec, err)
	}

	j.logger.Info("janitor started", "schedule", j.spec, "ttl", j.ttl, "next", j.Next(j.now()))
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()

	if j.locker != nil {
		if err := j.locker.Unlock(context.Background()); err != nil {
			j.logger.Warn("failed to release janitor lock", "error", err)
		}
	}
	j.logger.Info("janitor stopped")
	return nil
}
