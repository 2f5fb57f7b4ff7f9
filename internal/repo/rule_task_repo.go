package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Appo/internal/domain"
)

// RuleTaskRepo — репозиторий задач применения правил.
type RuleTaskRepo struct {
	pool *pgxpool.Pool
}

// NewRuleTaskRepo создаёт новый RuleTaskRepo.
func NewRuleTaskRepo(pool *pgxpool.Pool) *RuleTaskRepo {
	return &RuleTaskRepo{pool: pool}
}

// Upsert создаёт или обновляет задачу.
//
// Пустые app_rules и app_instance_id в ответе платформы не затирают
// сохранённые при создании задачи значения.
func (r *RuleTaskRepo) Upsert(ctx context.Context, task *domain.AppRuleTask) error {
	query := `
		INSERT INTO app_rule_tasks (tenant, app_rule_task_id, app_instance_id, app_rules, config_result, detailed)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (tenant, app_rule_task_id) DO UPDATE
		SET app_instance_id = COALESCE(NULLIF(EXCLUDED.app_instance_id, ''), app_rule_tasks.app_instance_id),
		    app_rules       = COALESCE(NULLIF(EXCLUDED.app_rules, ''), app_rule_tasks.app_rules),
		    config_result   = EXCLUDED.config_result,
		    detailed        = EXCLUDED.detailed,
		    updated_at      = now()
	`
	_, err := r.pool.Exec(ctx, query,
		task.Tenant,
		task.AppRuleTaskID,
		task.AppInstanceID,
		task.AppRules,
		task.ConfigResult,
		task.Detailed,
	)
	if err != nil {
		return fmt.Errorf("upsert app rule task: %w", err)
	}
	return nil
}

// Get возвращает задачу по (tenant, id).
func (r *RuleTaskRepo) Get(ctx context.Context, tenant, id string) (*domain.AppRuleTask, error) {
	query := `
		SELECT tenant, app_rule_task_id, app_instance_id, app_rules, config_result,
		       detailed, created_at, updated_at
		FROM app_rule_tasks
		WHERE tenant = $1 AND app_rule_task_id = $2
	`
	var task domain.AppRuleTask
	err := r.pool.QueryRow(ctx, query, tenant, id).Scan(
		&task.Tenant,
		&task.AppRuleTaskID,
		&task.AppInstanceID,
		&task.AppRules,
		&task.ConfigResult,
		&task.Detailed,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan app rule task: %w", err)
	}
	return &task, nil
}

// Delete удаляет задачу. Возвращает ErrNotFound, если задачи нет.
func (r *RuleTaskRepo) Delete(ctx context.Context, tenant, id string) error {
	result, err := r.pool.Exec(ctx,
		`DELETE FROM app_rule_tasks WHERE tenant = $1 AND app_rule_task_id = $2`,
		tenant, id,
	)
	if err != nil {
		return fmt.Errorf("delete app rule task: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteCompletedBefore удаляет завершённые задачи, не обновлявшиеся с before.
// Возвращает количество удалённых записей.
func (r *RuleTaskRepo) DeleteCompletedBefore(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.pool.Exec(ctx,
		`DELETE FROM app_rule_tasks WHERE config_result <> '' AND updated_at < $1`,
		before,
	)
	if err != nil {
		return 0, fmt.Errorf("delete completed app rule tasks: %w", err)
	}
	return result.RowsAffected(), nil
}
