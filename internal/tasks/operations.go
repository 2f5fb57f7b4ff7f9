package tasks

// DBOperation — операция шага реестра.
type DBOperation string

const (
	DBInsert            DBOperation = "insert"
	DBUpdate            DBOperation = "update"
	DBGet               DBOperation = "get"
	DBDelete            DBOperation = "delete"
	DBUpdateAppRuleTask DBOperation = "updateAppRuleTask"
	DBGetAppRuleTask    DBOperation = "getAppRuleTask"
	DBDeleteAppRuleTask DBOperation = "deleteAppRuleTask"
)

// ParseDBOperation парсит селектор операции реестра.
func ParseDBOperation(s string) (DBOperation, bool) {
	switch op := DBOperation(s); op {
	case DBInsert, DBUpdate, DBGet, DBDelete,
		DBUpdateAppRuleTask, DBGetAppRuleTask, DBDeleteAppRuleTask:
		return op, true
	default:
		return "", false
	}
}

// APMOperation — операция шага сервиса пакетов.
type APMOperation string

const (
	APMDownload APMOperation = "download"
)

// ParseAPMOperation парсит селектор операции сервиса пакетов.
func ParseAPMOperation(s string) (APMOperation, bool) {
	switch op := APMOperation(s); op {
	case APMDownload:
		return op, true
	default:
		return "", false
	}
}

// MEPMOperation — операция на платформе edge-хоста.
type MEPMOperation string

const (
	MEPMInstantiate           MEPMOperation = "instantiate"
	MEPMQuery                 MEPMOperation = "query"
	MEPMTerminate             MEPMOperation = "terminate"
	MEPMQueryKPI              MEPMOperation = "querykpi"
	MEPMQueryEdgeCapabilities MEPMOperation = "queryEdgeCapabilities"
	MEPMCreateAppRule         MEPMOperation = "createAppRule"
	MEPMUpdateAppRule         MEPMOperation = "updateAppRule"
	MEPMDeleteAppRule         MEPMOperation = "deleteAppRule"
)

// ParseMEPMOperation парсит селектор операции платформы.
func ParseMEPMOperation(s string) (MEPMOperation, bool) {
	switch op := MEPMOperation(s); op {
	case MEPMInstantiate, MEPMQuery, MEPMTerminate, MEPMQueryKPI,
		MEPMQueryEdgeCapabilities, MEPMCreateAppRule, MEPMUpdateAppRule, MEPMDeleteAppRule:
		return op, true
	default:
		return "", false
	}
}
