// Package cli реализует инструмент командной строки appo.
//
// CLI работает через HTTP API и не импортирует внутренние пакеты
// системы. Используется операторами для ручного выполнения шагов
// и просмотра записей реестра.
//
//	client := cli.NewClient("http://localhost:8080")
//	resp, err := client.Execute(ctx, "appo.db", cli.ExecuteRequest{Context: values})
//
// Вывод: таблицы (text/tabwriter) по умолчанию, JSON с флагом --json.
// Данные идут в stdout, сообщения в stderr:
//
//	appo exec appo.db -c ctx.json --json | jq .outcome
//
// Команды:
//   - exec TASK_TYPE — выполнить шаг (или поставить в очередь с --async)
//   - instance show, ruletask show — записи реестра
//   - task-types — зарегистрированные типы шагов
//
// exec завершается ошибкой ErrTaskFailed, если код результата не 2xx.
package cli
