package api

import (
	"time"

	"github.com/shaiso/Appo/internal/domain"
	"github.com/shaiso/Appo/internal/execution"
	"github.com/shaiso/Appo/internal/protocol"
)

// Task DTOs

// ExecuteTaskRequest — запрос на выполнение шага.
// Если RunID не задан, генерируется новый.
type ExecuteTaskRequest struct {
	RunID   string             `json:"run_id,omitempty" validate:"omitempty,uuid"`
	Context *execution.Context `json:"context" validate:"required"`
}

// ExecuteTaskResponse — результат шага и обновлённый контекст.
type ExecuteTaskResponse struct {
	RunID    string             `json:"run_id"`
	TaskType string             `json:"task_type"`
	Outcome  protocol.Outcome   `json:"outcome"`
	Context  *execution.Context `json:"context"`
	Error    string             `json:"error,omitempty"`
}

// EnqueueTaskResponse — ответ на постановку шага в очередь.
type EnqueueTaskResponse struct {
	RunID     string `json:"run_id"`
	TaskType  string `json:"task_type"`
	MessageID string `json:"message_id"`
}

// TaskTypesResponse — зарегистрированные типы шагов.
type TaskTypesResponse struct {
	Types []string `json:"types"`
}

// Registry DTOs

// AppInstanceResponse — ответ с записью инстанса.
type AppInstanceResponse struct {
	Tenant            string    `json:"tenant"`
	AppInstanceID     string    `json:"app_instance_id"`
	MecHost           string    `json:"mec_host"`
	ApplcmHost        string    `json:"applcm_host,omitempty"`
	AppPackageID      string    `json:"app_package_id"`
	AppID             string    `json:"app_id"`
	AppName           string    `json:"app_name"`
	AppDescriptor     string    `json:"app_descriptor,omitempty"`
	OperationalStatus string    `json:"operational_status"`
	OperationInfo     string    `json:"operation_info,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// AppInstanceFromDomain конвертирует domain.AppInstance в AppInstanceResponse.
func AppInstanceFromDomain(i *domain.AppInstance) AppInstanceResponse {
	return AppInstanceResponse{
		Tenant:            i.Tenant,
		AppInstanceID:     i.AppInstanceID,
		MecHost:           i.MecHost,
		ApplcmHost:        i.ApplcmHost,
		AppPackageID:      i.AppPackageID,
		AppID:             i.AppID,
		AppName:           i.AppName,
		AppDescriptor:     i.AppDescriptor,
		OperationalStatus: i.OperationalStatus.String(),
		OperationInfo:     i.OperationInfo,
		CreatedAt:         i.CreatedAt,
		UpdatedAt:         i.UpdatedAt,
	}
}

// AppRuleTaskResponse — ответ с записью задачи правил.
// Пустой ConfigResult отдаётся как "PENDING".
type AppRuleTaskResponse struct {
	Tenant        string    `json:"tenant"`
	AppRuleTaskID string    `json:"app_rule_task_id"`
	AppInstanceID string    `json:"app_instance_id,omitempty"`
	AppRules      string    `json:"app_rules,omitempty"`
	ConfigResult  string    `json:"config_result"`
	Detailed      string    `json:"detailed,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// AppRuleTaskFromDomain конвертирует domain.AppRuleTask в AppRuleTaskResponse.
func AppRuleTaskFromDomain(t *domain.AppRuleTask) AppRuleTaskResponse {
	result := string(t.ConfigResult)
	if !t.ConfigResult.IsDone() {
		result = "PENDING"
	}
	return AppRuleTaskResponse{
		Tenant:        t.Tenant,
		AppRuleTaskID: t.AppRuleTaskID,
		AppInstanceID: t.AppInstanceID,
		AppRules:      t.AppRules,
		ConfigResult:  result,
		Detailed:      t.Detailed,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}
