// Package api содержит HTTP API сервер appo-api.
//
// Структура:
//   - handler.go          — Handler с DI (реестр шагов, runner, записи, publisher)
//   - routes.go           — регистрация маршрутов
//   - middleware.go       — middleware (recovery, metrics, logging)
//   - response.go         — унифицированные JSON-ответы и обработка ошибок
//   - dto.go              — Data Transfer Objects (request/response)
//   - task_handler.go     — выполнение и постановка шагов в очередь
//   - registry_handler.go — чтение записей реестра
//
// Выполнение шага всегда отвечает 200, если шаг запускался: код
// результата лежит в outcome. HTTP ошибки означают, что шаг не запускался.
package api
