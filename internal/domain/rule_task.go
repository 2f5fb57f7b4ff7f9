package domain

import (
	"encoding/json"
	"time"
)

// ConfigResult — результат применения правил на edge-хосте.
type ConfigResult string

const (
	// ConfigResultPending — ответ от платформы ещё не получен.
	ConfigResultPending ConfigResult = ""

	// ConfigResultSuccess — правила применены.
	ConfigResultSuccess ConfigResult = "SUCCESS"

	// ConfigResultFailure — платформа вернула ошибку.
	ConfigResultFailure ConfigResult = "FAILURE"
)

// IsDone возвращает true, если результат уже получен.
func (r ConfigResult) IsDone() bool {
	return r != ConfigResultPending
}

// AppRuleTask — запрос на применение traffic/DNS правил к инстансу.
//
// Существует, пока задача не завершена или её результат ещё не прочитан.
// Пара (Tenant, AppRuleTaskID) уникальна.
type AppRuleTask struct {
	Tenant        string `json:"tenant"`
	AppRuleTaskID string `json:"app_rule_task_id"`
	AppInstanceID string `json:"app_instance_id,omitempty"`

	// AppRules — правила как непрозрачный JSON-текст.
	AppRules string `json:"app_rules,omitempty"`

	ConfigResult ConfigResult `json:"config_result"`

	// Detailed — подробности от платформы (или сырое тело ответа).
	Detailed string `json:"detailed,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ruleTaskPayload — тело ответа платформы по задаче правил.
type ruleTaskPayload struct {
	TaskID        string `json:"taskId"`
	AppInstanceID string `json:"appInstanceId"`
	Detailed      string `json:"detailed"`
	ConfigResult  string `json:"configResult"`
}

// RuleTaskFromResponse превращает ответ платформы в запись реестра.
//
// Тело, которое не удалось разобрать, целиком попадает в Detailed.
// ConfigResult всегда перезаписывается по флагу isErr. Ошибок не бывает.
func RuleTaskFromResponse(body string, isErr bool) *AppRuleTask {
	task := &AppRuleTask{}

	var payload ruleTaskPayload
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		task.Detailed = body
	} else {
		task.AppRuleTaskID = payload.TaskID
		task.AppInstanceID = payload.AppInstanceID
		task.Detailed = payload.Detailed
	}

	if isErr {
		task.ConfigResult = ConfigResultFailure
	} else {
		task.ConfigResult = ConfigResultSuccess
	}
	return task
}
