package api

import (
	"net/http"
)

// GetAppInstance обрабатывает GET /api/v1/tenants/{tenant}/app_instances/{id}.
func (h *Handler) GetAppInstance(w http.ResponseWriter, r *http.Request) {
	inst, err := h.records.GetInstance(r.Context(), r.PathValue("tenant"), r.PathValue("id"))
	if HandleRepoError(w, h.logger, err, "app instance not found") {
		return
	}
	Success(w, AppInstanceFromDomain(inst))
}

// GetAppRuleTask обрабатывает GET /api/v1/tenants/{tenant}/app_rule_tasks/{id}.
func (h *Handler) GetAppRuleTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.records.GetRuleTask(r.Context(), r.PathValue("tenant"), r.PathValue("id"))
	if HandleRepoError(w, h.logger, err, "app rule task not found") {
		return
	}
	Success(w, AppRuleTaskFromDomain(task))
}
