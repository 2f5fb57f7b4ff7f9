package execution

// Key — ключ в контексте выполнения.
//
// Набор ключей закрыт: значения, не перечисленные в allKeys,
// отклоняются при декодировании контекста из JSON.
// Имена на проводе совпадают с переменными процесса, которые
// использует внешний sequencer.
type Key string

// Входные параметры шагов.
const (
	// KeyOperationType — селектор операции для текущего шага.
	KeyOperationType Key = "operationType"

	KeyTenantID      Key = "tenant_id"
	KeyAppInstanceID Key = "app_instance_id"
	KeyMecHost       Key = "mec_host"
	KeyAppPackageID  Key = "app_package_id"
	KeyAppID         Key = "app_id"
	KeyAppName       Key = "app_name"
	KeyAppDescriptor Key = "app_descriptor"
	KeyAccessToken   Key = "access_token"
	KeyAppRuleTaskID Key = "apprule_task_id"
	KeyAppRules      Key = "app_rules"

	// KeyApplcmIP — адрес app LCM controller (MEPM) на edge-хосте.
	KeyApplcmIP Key = "applcm_ip"

	// KeyApplcmPort — порт app LCM controller.
	KeyApplcmPort Key = "applcm_port"

	// KeyOperationalStatus — новый operational status для update.
	KeyOperationalStatus Key = "operational_status"
)

// Выходные данные шагов.
const (
	// KeyAppInstanceInfo — запись инстанса, прочитанная из реестра.
	KeyAppInstanceInfo Key = "app_instance_info"

	// KeyAppRuleConfigStatus — результат применения правил (SUCCESS/FAILURE).
	KeyAppRuleConfigStatus Key = "app_rule_cfg_status"
)

// Ключи протокола ответа (см. пакет protocol).
//
// Удалённые шаги пишут сюда код и тело ответа, а следующий шаг
// реестра читает их как входные данные.
const (
	KeyResponseCode  Key = "ResponseCode"
	KeyResponse      Key = "Response"
	KeyErrResponse   Key = "ErrResponse"
	KeyFlowException Key = "ProcessFlowException"
)

var allKeys = map[Key]struct{}{
	KeyOperationType:       {},
	KeyTenantID:            {},
	KeyAppInstanceID:       {},
	KeyMecHost:             {},
	KeyAppPackageID:        {},
	KeyAppID:               {},
	KeyAppName:             {},
	KeyAppDescriptor:       {},
	KeyAccessToken:         {},
	KeyAppRuleTaskID:       {},
	KeyAppRules:            {},
	KeyApplcmIP:            {},
	KeyApplcmPort:          {},
	KeyOperationalStatus:   {},
	KeyAppInstanceInfo:     {},
	KeyAppRuleConfigStatus: {},
	KeyResponseCode:        {},
	KeyResponse:            {},
	KeyErrResponse:         {},
	KeyFlowException:       {},
}

// ParseKey проверяет, что строка — известный ключ контекста.
func ParseKey(s string) (Key, bool) {
	k := Key(s)
	_, ok := allKeys[k]
	return k, ok
}

// String возвращает имя ключа на проводе.
func (k Key) String() string {
	return string(k)
}
