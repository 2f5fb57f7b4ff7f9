// Package mq предоставляет транспорт шагов поверх RabbitMQ.
//
// Внешний sequencer публикует task.ready с контекстом run, appo-worker
// выполняет шаг и отвечает task.completed с результатом и обновлённым
// контекстом. Сообщения, которые не удалось обработать, уходят в DLQ
// и повторно не доставляются.
//
// Exchanges:
//   - appo.tasks — tasks.ready, tasks.completed
//   - appo.dlq   — dlq.tasks
//
// Публикация идёт через отдельный канал с publisher confirms.
package mq
