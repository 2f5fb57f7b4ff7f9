package domain

// OperationalStatus — статус инстанса приложения.
//
// Жизненный цикл:
//
//	Creating → Created → Instantiating → Instantiated → Running
//	                                   ↘ Failed
//	Running → Terminating → Terminated
type OperationalStatus string

const (
	// StatusCreating — запись создана, пакет ещё не загружен.
	StatusCreating OperationalStatus = "Creating"

	// StatusCreated — пакет загружен на edge-хост.
	StatusCreated OperationalStatus = "Created"

	// StatusInstantiating — идёт instantiate на платформе.
	StatusInstantiating OperationalStatus = "Instantiating"

	// StatusInstantiated — платформа приняла instantiate.
	StatusInstantiated OperationalStatus = "Instantiated"

	// StatusRunning — инстанс работает.
	StatusRunning OperationalStatus = "Running"

	// StatusFailed — операция над инстансом завершилась ошибкой.
	StatusFailed OperationalStatus = "Failed"

	// StatusTerminating — идёт терминация.
	StatusTerminating OperationalStatus = "Terminating"

	// StatusTerminated — инстанс остановлен.
	StatusTerminated OperationalStatus = "Terminated"
)

// String возвращает строковое представление статуса.
func (s OperationalStatus) String() string {
	return string(s)
}

// ParseOperationalStatus парсит строку в OperationalStatus.
//
// Для неизвестного значения возвращает его как есть и ok=false:
// реестр хранит статус, присланный sequencer'ом, без изменений.
func ParseOperationalStatus(s string) (OperationalStatus, bool) {
	switch s {
	case "Creating":
		return StatusCreating, true
	case "Created":
		return StatusCreated, true
	case "Instantiating":
		return StatusInstantiating, true
	case "Instantiated":
		return StatusInstantiated, true
	case "Running":
		return StatusRunning, true
	case "Failed":
		return StatusFailed, true
	case "Terminating":
		return StatusTerminating, true
	case "Terminated":
		return StatusTerminated, true
	default:
		return OperationalStatus(s), false
	}
}
