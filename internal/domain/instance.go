package domain

import "time"

// AppInstance — запись о развёрнутом инстансе приложения в реестре.
//
// Создаётся шагом insert со статусом Creating, меняется каждым шагом,
// влияющим на статус, удаляется при терминации.
// Пара (Tenant, AppInstanceID) уникальна.
type AppInstance struct {
	// Tenant — идентификатор tenant'а.
	Tenant string `json:"tenant"`

	// AppInstanceID — идентификатор инстанса, уникален в пределах tenant'а.
	AppInstanceID string `json:"app_instance_id"`

	// MecHost — edge-хост, на котором развёрнут инстанс.
	MecHost string `json:"mec_host"`

	// ApplcmHost — адрес app LCM controller, через который шли вызовы.
	ApplcmHost string `json:"applcm_host,omitempty"`

	AppPackageID  string `json:"app_package_id"`
	AppID         string `json:"app_id"`
	AppName       string `json:"app_name"`
	AppDescriptor string `json:"app_descriptor,omitempty"`

	// OperationalStatus — текущий статус инстанса.
	OperationalStatus OperationalStatus `json:"operational_status"`

	// OperationInfo — текст последнего результата (для людей).
	OperationInfo string `json:"operation_info,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InstancePatch — изменения инстанса для update.
//
// Статус задаётся всегда. Nil-поля не трогаются.
type InstancePatch struct {
	AppInstanceID     string
	OperationalStatus OperationalStatus
	ApplcmHost        *string
	OperationInfo     *string
}

// Apply применяет patch к записи.
func (p InstancePatch) Apply(inst *AppInstance) {
	inst.OperationalStatus = p.OperationalStatus
	if p.ApplcmHost != nil {
		inst.ApplcmHost = *p.ApplcmHost
	}
	if p.OperationInfo != nil {
		inst.OperationInfo = *p.OperationInfo
	}
}
