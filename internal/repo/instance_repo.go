package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Appo/internal/domain"
)

// InstanceRepo — репозиторий записей об инстансах приложений.
type InstanceRepo struct {
	pool *pgxpool.Pool
}

// NewInstanceRepo создаёт новый InstanceRepo.
func NewInstanceRepo(pool *pgxpool.Pool) *InstanceRepo {
	return &InstanceRepo{pool: pool}
}

const instanceColumns = `
	tenant, app_instance_id, mec_host, applcm_host, app_package_id, app_id,
	app_name, app_descriptor, operational_status, operation_info, created_at, updated_at`

// Create сохраняет новую запись.
// Возвращает ErrAlreadyExists, если инстанс с таким id у tenant'а уже есть.
func (r *InstanceRepo) Create(ctx context.Context, inst *domain.AppInstance) (*domain.AppInstance, error) {
	query := `
		INSERT INTO app_instance_infos (
			tenant, app_instance_id, mec_host, applcm_host, app_package_id, app_id,
			app_name, app_descriptor, operational_status, operation_info
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + instanceColumns

	created, err := r.scanInstance(r.pool.QueryRow(ctx, query,
		inst.Tenant,
		inst.AppInstanceID,
		inst.MecHost,
		nullString(inst.ApplcmHost),
		inst.AppPackageID,
		inst.AppID,
		inst.AppName,
		nullString(inst.AppDescriptor),
		inst.OperationalStatus,
		nullString(inst.OperationInfo),
	))
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("%w: app instance %s", ErrAlreadyExists, inst.AppInstanceID)
	}
	if err != nil {
		return nil, fmt.Errorf("insert app instance: %w", err)
	}
	return created, nil
}

// Get возвращает запись по (tenant, id).
func (r *InstanceRepo) Get(ctx context.Context, tenant, id string) (*domain.AppInstance, error) {
	query := `SELECT ` + instanceColumns + `
		FROM app_instance_infos
		WHERE tenant = $1 AND app_instance_id = $2
	`
	return r.scanInstance(r.pool.QueryRow(ctx, query, tenant, id))
}

// Update применяет patch. Статус пишется всегда, nil-поля не трогаются.
func (r *InstanceRepo) Update(ctx context.Context, tenant string, patch domain.InstancePatch) error {
	query := `
		UPDATE app_instance_infos
		SET operational_status = $3,
		    applcm_host        = COALESCE($4, applcm_host),
		    operation_info     = COALESCE($5, operation_info),
		    updated_at         = now()
		WHERE tenant = $1 AND app_instance_id = $2
	`
	result, err := r.pool.Exec(ctx, query,
		tenant,
		patch.AppInstanceID,
		patch.OperationalStatus,
		patch.ApplcmHost,
		patch.OperationInfo,
	)
	if err != nil {
		return fmt.Errorf("update app instance: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete удаляет запись. Возвращает ErrNotFound, если записи нет.
func (r *InstanceRepo) Delete(ctx context.Context, tenant, id string) error {
	result, err := r.pool.Exec(ctx,
		`DELETE FROM app_instance_infos WHERE tenant = $1 AND app_instance_id = $2`,
		tenant, id,
	)
	if err != nil {
		return fmt.Errorf("delete app instance: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// scanInstance сканирует одну строку в AppInstance.
func (r *InstanceRepo) scanInstance(row pgx.Row) (*domain.AppInstance, error) {
	var inst domain.AppInstance
	var applcmHost, descriptor, operationInfo *string

	err := row.Scan(
		&inst.Tenant,
		&inst.AppInstanceID,
		&inst.MecHost,
		&applcmHost,
		&inst.AppPackageID,
		&inst.AppID,
		&inst.AppName,
		&descriptor,
		&inst.OperationalStatus,
		&operationInfo,
		&inst.CreatedAt,
		&inst.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan app instance: %w", err)
	}

	inst.ApplcmHost = derefString(applcmHost)
	inst.AppDescriptor = derefString(descriptor)
	inst.OperationInfo = derefString(operationInfo)
	return &inst, nil
}
