package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/shaiso/Appo/internal/domain"
	"github.com/shaiso/Appo/internal/execution"
	"github.com/shaiso/Appo/internal/protocol"
	"github.com/shaiso/Appo/internal/repo"
	"github.com/shaiso/Appo/internal/telemetry"
)

// Store — реестр инстансов и задач правил, с которым работает DBTask.
//
// Промах возвращается как repo.ErrNotFound, конфликт уникальности
// как repo.ErrAlreadyExists.
type Store interface {
	CreateInstance(ctx context.Context, inst *domain.AppInstance) (*domain.AppInstance, error)
	GetInstance(ctx context.Context, tenant, id string) (*domain.AppInstance, error)
	UpdateInstance(ctx context.Context, tenant string, patch domain.InstancePatch) error
	DeleteInstance(ctx context.Context, tenant, id string) error

	UpsertRuleTask(ctx context.Context, task *domain.AppRuleTask) error
	GetRuleTask(ctx context.Context, tenant, id string) (*domain.AppRuleTask, error)
	DeleteRuleTask(ctx context.Context, tenant, id string) error
}

// Сообщения шага реестра.
const (
	msgInvalidDBAction      = "Invalid DB action"
	msgAddInstanceFailed    = "Failed to add app instance info record"
	msgGetInstanceFailed    = "Failed to get app instance info record"
	msgUpdateInstanceFailed = "Failed to update app instance info record"
	msgDeleteInstanceFailed = "Failed to delete app instance info record"
	msgUpdateRuleTaskFailed = "Failed to update app rule task info record"
	msgGetRuleTaskFailed    = "Failed to get app rule task info"
	msgRuleTaskNotFound     = "app rule task record not found"
	msgDeleteRuleTaskFailed = "Failed to delete app rule task info record"
)

// DBTask — шаг CRUD над реестром.
//
// Операция выбирается ключом operationType. Ошибки реестра не возвращаются
// как ошибка шага, а превращаются в результат протокола.
//
// Политика not-found:
//   - delete (инстанс и задача правил) идемпотентен: промах — успех;
//   - get инстанса: промах — общая ошибка 500;
//   - get задачи правил: промах — 404, чтобы sequencer отличал
//     "задача ещё не создана" от сбоя.
type DBTask struct {
	store Store
}

// NewDBTask создаёт новый DBTask.
func NewDBTask(store Store) *DBTask {
	return &DBTask{store: store}
}

// Type возвращает тип шага.
func (t *DBTask) Type() string {
	return TypeDB
}

// Execute выполняет операцию реестра из operationType.
func (t *DBTask) Execute(ctx context.Context, ec *execution.Context) error {
	logger := telemetry.WithTenant(telemetry.FromContext(ctx),
		optionalString(ec, execution.KeyTenantID),
		optionalString(ec, execution.KeyAppInstanceID),
	)
	ctx = telemetry.WithLogger(ctx, logger)

	raw, _ := ec.String(execution.KeyOperationType)
	op, ok := ParseDBOperation(raw)
	if !ok {
		logger.Info("invalid DB action", "operation", raw)
		protocol.Failure(ec, protocol.CodeFlowError, msgInvalidDBAction)
		return nil
	}

	switch op {
	case DBInsert:
		t.Insert(ctx, ec)
	case DBGet:
		t.getInstance(ctx, ec)
	case DBUpdate:
		t.updateInstance(ctx, ec)
	case DBDelete:
		t.deleteInstance(ctx, ec)
	case DBUpdateAppRuleTask:
		t.updateRuleTask(ctx, ec)
	case DBGetAppRuleTask:
		t.getRuleTask(ctx, ec)
	case DBDeleteAppRuleTask:
		t.deleteRuleTask(ctx, ec)
	default:
		protocol.Failure(ec, protocol.CodeFlowError, msgInvalidDBAction)
	}
	return nil
}

// Insert создаёт запись инстанса со статусом Creating.
//
// Возвращает запись, собранную из контекста (или сохранённую), даже если
// реестр вернул ошибку: она нужна вызывающему для диагностики.
func (t *DBTask) Insert(ctx context.Context, ec *execution.Context) *domain.AppInstance {
	logger := telemetry.FromContext(ctx)

	inst := &domain.AppInstance{
		Tenant:            optionalString(ec, execution.KeyTenantID),
		AppInstanceID:     optionalString(ec, execution.KeyAppInstanceID),
		MecHost:           optionalString(ec, execution.KeyMecHost),
		AppPackageID:      optionalString(ec, execution.KeyAppPackageID),
		AppID:             optionalString(ec, execution.KeyAppID),
		AppName:           optionalString(ec, execution.KeyAppName),
		AppDescriptor:     optionalString(ec, execution.KeyAppDescriptor),
		OperationalStatus: domain.StatusCreating,
	}
	if inst.Tenant == "" || inst.AppInstanceID == "" {
		logger.Info("failed to add app instance info record", "error", "tenant and app instance id are required")
		protocol.Failure(ec, protocol.CodeFlowError, msgAddInstanceFailed)
		return inst
	}

	created, err := t.store.CreateInstance(ctx, inst)
	if err != nil {
		logger.Info("failed to add app instance info record", "error", err)
		protocol.Failure(ec, protocol.CodeFlowError, msgAddInstanceFailed)
		return inst
	}

	logger.Info("app instance info record added", "app_instance_id", created.AppInstanceID)
	protocol.Success(ec, protocol.MsgSuccess)
	return created
}

func (t *DBTask) getInstance(ctx context.Context, ec *execution.Context) {
	logger := telemetry.FromContext(ctx)

	tenant := optionalString(ec, execution.KeyTenantID)
	id := optionalString(ec, execution.KeyAppInstanceID)
	logger.Info("get application instance info", "app_instance_id", id)

	inst, err := t.store.GetInstance(ctx, tenant, id)
	if err != nil {
		logger.Info("failed to get app instance info record", "error", err)
		protocol.Failure(ec, protocol.CodeFlowError, msgGetInstanceFailed)
		return
	}

	ec.Set(execution.KeyAppInstanceInfo, inst)
	protocol.Success(ec, protocol.MsgSuccess)
}

func (t *DBTask) updateInstance(ctx context.Context, ec *execution.Context) {
	logger := telemetry.FromContext(ctx)

	tenant := optionalString(ec, execution.KeyTenantID)
	id := optionalString(ec, execution.KeyAppInstanceID)
	logger.Info("update application instance info", "app_instance_id", id)

	rawStatus := optionalString(ec, execution.KeyOperationalStatus)
	if rawStatus == "" {
		logger.Info("failed to update app instance info record", "error", "operational status is required")
		protocol.Failure(ec, protocol.CodeFlowError, msgUpdateInstanceFailed)
		return
	}
	status, known := domain.ParseOperationalStatus(rawStatus)
	if !known {
		logger.Warn("unknown operational status, storing as given", "status", status)
	}

	patch := domain.InstancePatch{
		AppInstanceID:     id,
		OperationalStatus: status,
	}
	if host, ok := ec.String(execution.KeyApplcmIP); ok {
		patch.ApplcmHost = &host
	}

	// Код ответа необязателен: без него operation info не меняется.
	if code, ok := ec.Text(execution.KeyResponseCode); ok {
		isErr, err := isErrorCode(code)
		if err != nil {
			logger.Info("failed to update app instance info record", "error", err)
			protocol.Failure(ec, protocol.CodeFlowError, msgUpdateInstanceFailed)
			return
		}
		key := execution.KeyResponse
		if isErr {
			key = execution.KeyErrResponse
		}
		info := optionalString(ec, key)
		patch.OperationInfo = &info
	}

	if err := t.store.UpdateInstance(ctx, tenant, patch); err != nil {
		logger.Info("failed to update app instance info record", "error", err)
		protocol.Failure(ec, protocol.CodeFlowError, msgUpdateInstanceFailed)
		return
	}
	protocol.Success(ec, protocol.MsgSuccess)
}

func (t *DBTask) deleteInstance(ctx context.Context, ec *execution.Context) {
	logger := telemetry.FromContext(ctx)

	tenant := optionalString(ec, execution.KeyTenantID)
	id := optionalString(ec, execution.KeyAppInstanceID)
	logger.Info("delete application instance info", "app_instance_id", id)

	err := t.store.DeleteInstance(ctx, tenant, id)
	switch {
	case err == nil:
	case errors.Is(err, repo.ErrNotFound):
		logger.Info("app instance info record already absent", "app_instance_id", id)
	default:
		logger.Info("failed to delete app instance info record", "error", err)
		protocol.Failure(ec, protocol.CodeFlowError, msgDeleteInstanceFailed)
		return
	}
	protocol.Success(ec, protocol.MsgSuccess)
}

func (t *DBTask) updateRuleTask(ctx context.Context, ec *execution.Context) {
	logger := telemetry.FromContext(ctx)

	id := optionalString(ec, execution.KeyAppRuleTaskID)
	logger.Info("update application rule task", "apprule_task_id", id)

	var task *domain.AppRuleTask
	code, ok := ec.Text(execution.KeyResponseCode)
	if !ok || code == "" {
		// Новая задача: правила есть, результата ещё нет.
		task = &domain.AppRuleTask{AppRules: valueText(ec, execution.KeyAppRules)}
	} else {
		isErr, err := isErrorCode(code)
		if err != nil {
			logger.Info("failed to update app rule task info record", "error", err)
			protocol.Failure(ec, protocol.CodeFlowError, msgUpdateRuleTaskFailed)
			return
		}
		if isErr {
			task = domain.RuleTaskFromResponse(optionalString(ec, execution.KeyErrResponse), true)
		} else {
			task = domain.RuleTaskFromResponse(optionalString(ec, execution.KeyResponse), false)
		}
	}

	task.Tenant = optionalString(ec, execution.KeyTenantID)
	task.AppRuleTaskID = id
	if task.AppInstanceID == "" {
		task.AppInstanceID = optionalString(ec, execution.KeyAppInstanceID)
	}

	if err := t.store.UpsertRuleTask(ctx, task); err != nil {
		logger.Info("failed to update app rule task info record", "error", err)
		protocol.Failure(ec, protocol.CodeFlowError, msgUpdateRuleTaskFailed)
		return
	}
	protocol.Success(ec, protocol.MsgSuccess)
}

func (t *DBTask) getRuleTask(ctx context.Context, ec *execution.Context) {
	logger := telemetry.FromContext(ctx)

	tenant := optionalString(ec, execution.KeyTenantID)
	id := optionalString(ec, execution.KeyAppRuleTaskID)
	logger.Info("get application rule task", "apprule_task_id", id)

	task, err := t.store.GetRuleTask(ctx, tenant, id)
	switch {
	case err == nil:
	case errors.Is(err, repo.ErrNotFound):
		protocol.Failure(ec, protocol.CodeRecordNotFound, msgRuleTaskNotFound)
		return
	default:
		logger.Info("failed to get app rule task info", "error", err)
		protocol.Failure(ec, protocol.CodeFlowError, msgGetRuleTaskFailed)
		return
	}

	ec.Set(execution.KeyAppRules, task.AppRules)
	ec.Set(execution.KeyAppRuleConfigStatus, string(task.ConfigResult))
	protocol.Success(ec, protocol.MsgSuccess)
}

func (t *DBTask) deleteRuleTask(ctx context.Context, ec *execution.Context) {
	logger := telemetry.FromContext(ctx)

	tenant := optionalString(ec, execution.KeyTenantID)
	id := optionalString(ec, execution.KeyAppRuleTaskID)
	logger.Info("delete application rule task", "apprule_task_id", id)

	err := t.store.DeleteRuleTask(ctx, tenant, id)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		logger.Info("failed to delete app rule task info record", "error", err)
		protocol.Failure(ec, protocol.CodeFlowError, msgDeleteRuleTaskFailed)
		return
	}
	protocol.Success(ec, protocol.MsgSuccess)
}

// isErrorCode парсит код ответа и проверяет, что он вне [200,299].
func isErrorCode(code string) (bool, error) {
	n, err := strconv.Atoi(code)
	if err != nil {
		return false, fmt.Errorf("parse response code %q: %w", code, err)
	}
	return n < 200 || n > 299, nil
}

// valueText возвращает значение ключа как текст.
// Структурированные значения (пришедшие JSON-объектом) сериализуются обратно.
func valueText(ec *execution.Context, key execution.Key) string {
	if s, ok := ec.Text(key); ok {
		return s
	}
	v, ok := ec.Record(key)
	if !ok {
		return ""
	}
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
