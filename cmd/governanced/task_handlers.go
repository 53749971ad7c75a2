package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/regulatory-governance/core/domain/governance"
	"github.com/regulatory-governance/core/services/metering"
)

// defaultTaskRetryPolicy mirrors services/scheduler's DefaultRetryConfig,
// generalized to the task-queue's RetryPolicy shape.
func defaultTaskRetryPolicy() governance.RetryPolicy {
	return governance.RetryPolicy{
		MaxRetries:   3,
		InitialDelay: time.Second,
		Multiplier:   2.0,
		MaxDelay:     5 * time.Minute,
	}
}

type sendTaskRequest struct {
	TaskType     string                  `json:"task_type"`
	Priority     governance.TaskPriority `json:"priority"`
	Payload      map[string]any          `json:"payload"`
	TenantID     string                  `json:"tenant_id"`
	DelaySeconds int                     `json:"delay_seconds"`
}

func (h *handlers) sendTask(w http.ResponseWriter, r *http.Request) {
	var req sendTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	msg := governance.TaskMessage{
		TaskType:     req.TaskType,
		Priority:     req.Priority,
		Payload:      req.Payload,
		TenantID:     req.TenantID,
		DelaySeconds: req.DelaySeconds,
		RetryPolicy:  defaultTaskRetryPolicy(),
	}

	taskID, err := h.deps.queue.SendTask(r.Context(), defaultQueueName, msg)
	if err != nil {
		writeError(w, err)
		return
	}

	if _, admitted := h.deps.metering.RecordEvent(r.Context(), metering.Event{
		Type:     metering.EventAPICall,
		TenantID: req.TenantID,
	}); !admitted && h.deps.logger != nil {
		h.deps.logger.WithField("tenant_id", req.TenantID).Warn("governanced: metering event dropped, rate limit exceeded")
	}

	writeJSON(w, http.StatusCreated, map[string]string{"task_id": taskID})
}

func (h *handlers) getTaskStatus(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")

	if result := h.deps.worker.GetTaskResult(taskID); result != nil {
		writeJSON(w, http.StatusOK, result)
		return
	}
	if progress := h.deps.worker.GetTaskProgress(taskID); progress != nil {
		writeJSON(w, http.StatusOK, progress)
		return
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "task not found"})
}

func (h *handlers) getQueueStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.deps.queue.GetStats(r.Context(), defaultQueueName)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
