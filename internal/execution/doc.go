// Package execution содержит контекст выполнения run.
//
// # Обзор
//
// Context — изменяемый набор значений, общий для всех шагов одного run.
// Внешний sequencer создаёт его на каждый run и передаёт в каждый шаг.
// Шаг читает нужные ключи и записывает результат обратно.
//
//	ec := execution.New()
//	ec.Set(execution.KeyTenantID, "t1")
//	ec.Set(execution.KeyOperationType, "insert")
//
//	if tenant, ok := ec.String(execution.KeyTenantID); ok {
//	    // ...
//	}
//
// # Ключи
//
// Набор ключей закрыт (keys.go). Контекст, пришедший по сети с
// неизвестным ключом, отклоняется с ErrUnknownKey.
//
// # Результат шага
//
// BeginStep сбрасывает признак результата, MarkOutcome (через пакет protocol)
// его выставляет. Runner по HasOutcome проверяет, что шаг не вернул
// управление без результата.
package execution
