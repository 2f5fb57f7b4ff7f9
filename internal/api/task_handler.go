package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/shaiso/Appo/internal/mq"
	"github.com/shaiso/Appo/internal/protocol"
	"github.com/shaiso/Appo/internal/tasks"
)

const maxRequestBody = 1 << 20

// ListTaskTypes обрабатывает GET /api/v1/task-types.
func (h *Handler) ListTaskTypes(w http.ResponseWriter, r *http.Request) {
	Success(w, TaskTypesResponse{Types: h.tasks.Types()})
}

// ExecuteTask обрабатывает POST /api/v1/tasks/{type}/execute.
//
// Шаг выполняется синхронно. Ошибка шага не меняет HTTP статус:
// результат передаётся в outcome, как и через очередь.
// Отключение клиента не прерывает начатый шаг.
func (h *Handler) ExecuteTask(w http.ResponseWriter, r *http.Request) {
	task, req, ok := h.decodeTaskRequest(w, r)
	if !ok {
		return
	}

	resp := ExecuteTaskResponse{
		RunID:    req.RunID,
		TaskType: task.Type(),
		Context:  req.Context,
	}
	if err := h.runner.Run(context.WithoutCancel(r.Context()), req.RunID, task, req.Context); err != nil {
		resp.Error = err.Error()
	}
	resp.Outcome = protocol.Current(req.Context)

	Success(w, resp)
}

// EnqueueTask обрабатывает POST /api/v1/tasks/{type}/enqueue.
// Ставит шаг в tasks.ready, результат придёт в tasks.completed.
func (h *Handler) EnqueueTask(w http.ResponseWriter, r *http.Request) {
	if h.publisher == nil {
		Unavailable(w, "task queue is not configured")
		return
	}

	task, req, ok := h.decodeTaskRequest(w, r)
	if !ok {
		return
	}

	msgID, err := h.publisher.PublishTaskReady(r.Context(), mq.TaskReadyPayload{
		RunID:    req.RunID,
		TaskType: task.Type(),
		Context:  req.Context,
	})
	if err != nil {
		InternalError(w, h.logger, fmt.Errorf("enqueue task: %w", err))
		return
	}

	h.logger.Info("task enqueued", "run_id", req.RunID, "task_type", task.Type(), "message_id", msgID)

	Accepted(w, EnqueueTaskResponse{
		RunID:     req.RunID,
		TaskType:  task.Type(),
		MessageID: msgID,
	})
}

// decodeTaskRequest находит шаг по {type} и разбирает тело запроса.
// При ошибке ответ уже отправлен.
func (h *Handler) decodeTaskRequest(w http.ResponseWriter, r *http.Request) (tasks.Task, *ExecuteTaskRequest, bool) {
	taskType := r.PathValue("type")
	task, err := h.tasks.Get(taskType)
	if err != nil {
		NotFound(w, fmt.Sprintf("unknown task type %q", taskType))
		return nil, nil, false
	}

	var req ExecuteTaskRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			Error(w, http.StatusRequestEntityTooLarge, ErrCodeBadRequest, "request body too large")
			return nil, nil, false
		}
		BadRequest(w, "invalid request body: "+err.Error())
		return nil, nil, false
	}

	if err := h.validate.Struct(req); err != nil {
		ValidationFailed(w, err)
		return nil, nil, false
	}

	if req.RunID == "" {
		req.RunID = uuid.NewString()
	}
	return task, &req, true
}
