package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	chain := Chain(
		Recovery(h.logger),
		Metrics(),
		Logging(h.logger),
	)

	// Tasks
	mux.Handle("GET /api/v1/task-types", chain(http.HandlerFunc(h.ListTaskTypes)))
	mux.Handle("POST /api/v1/tasks/{type}/execute", chain(http.HandlerFunc(h.ExecuteTask)))
	mux.Handle("POST /api/v1/tasks/{type}/enqueue", chain(http.HandlerFunc(h.EnqueueTask)))

	// Registry
	mux.Handle("GET /api/v1/tenants/{tenant}/app_instances/{id}", chain(http.HandlerFunc(h.GetAppInstance)))
	mux.Handle("GET /api/v1/tenants/{tenant}/app_rule_tasks/{id}", chain(http.HandlerFunc(h.GetAppRuleTask)))
}
