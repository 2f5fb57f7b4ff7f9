// Package worker выполняет шаги run из очереди tasks.ready.
//
// Worker не хранит состояния: контекст run приходит в сообщении
// task.ready и возвращается в task.completed вместе с результатом шага.
// Экземпляры масштабируются горизонтально на одной очереди.
//
//	w := worker.New(worker.Config{
//	    Registry:  tasks.DefaultRegistry(store, apmCfg, mepmCfg),
//	    Publisher: publisher,
//	    Conn:      mqConn,
//	    Logger:    logger,
//	})
//	err := w.Run(ctx)
//
// Повторов нет. Сообщение уходит в DLQ, если его нельзя разобрать,
// task_type неизвестен или результат не удалось опубликовать.
// Ошибка самого шага не считается сбоем доставки: результат с кодом
// ошибки публикуется как обычно.
package worker
