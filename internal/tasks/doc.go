// Package tasks содержит шаги жизненного цикла приложений на edge-хостах.
//
// # Обзор
//
// Внешний sequencer вызывает по одному шагу за раз и передаёт всем шагам
// run один и тот же execution.Context. Шаг читает нужные ключи, выполняет
// действие и последним действием пишет результат через пакет protocol.
// Шаги не вызывают друг друга.
//
// # Интерфейс Task
//
//	type Task interface {
//	    Type() string
//	    Execute(ctx context.Context, ec *execution.Context) error
//	}
//
// Ошибка из Execute — прерывание шага. Результат к этому моменту уже записан.
//
// # Типы шагов
//
//   - appo.db   (db_task.go)      — CRUD над реестром инстансов и задач правил
//   - appo.apm  (apm_task.go)     — скачивание пакета из APM
//   - appo.mepm (mepm_adapter.go) — операции на app LCM controller (mepm_task.go)
//
// Операция выбирается ключом operationType (operations.go).
// Неизвестная операция — ошибка "Invalid ... action" без обращения к ресурсам.
//
// # Runner
//
// Runner оборачивает выполнение шага: span, метрики, логирование,
// перехват паники и гарантия результата. Повторов нет: каждая ошибка
// сообщается sequencer'у один раз.
//
//	registry := tasks.DefaultRegistry(store, apmCfg, mepmCfg)
//	runner := tasks.NewRunner(tasks.RunnerConfig{Logger: logger})
//
//	task, err := registry.Get("appo.db")
//	err = runner.Run(ctx, runID, task, ec)
//	outcome := protocol.Current(ec)
package tasks
