package worker

import "errors"

// Ошибки воркера. Любая из них отправляет сообщение в DLQ.
var (
	// ErrUnexpectedMessage — в tasks.ready пришло сообщение другого типа.
	ErrUnexpectedMessage = errors.New("unexpected message type")

	// ErrMissingContext — в task.ready нет контекста run.
	ErrMissingContext = errors.New("task.ready without context")

	// ErrPublishResult — не удалось опубликовать task.completed.
	ErrPublishResult = errors.New("publish task result")
)
