package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/regulatory-governance/core/domain/governance"
)

type startCycleRequest struct {
	ReportID  string    `json:"report_id"`
	PeriodEnd time.Time `json:"period_end"`
	Initiator string    `json:"initiator"`
}

func (h *handlers) startCycle(w http.ResponseWriter, r *http.Request) {
	var req startCycleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	cycle, err := h.deps.workflow.StartCycle(r.Context(), req.ReportID, req.PeriodEnd, req.Initiator)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, cycle)
}

type pauseCycleRequest struct {
	Reason string `json:"reason"`
	Pauser string `json:"pauser"`
}

func (h *handlers) pauseCycle(w http.ResponseWriter, r *http.Request) {
	cycleID := chi.URLParam(r, "cycleID")
	var req pauseCycleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	cycle, err := h.deps.workflow.PauseCycle(r.Context(), cycleID, req.Reason, req.Pauser)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cycle)
}

type resumeCycleRequest struct {
	Resumer   string `json:"resumer"`
	Rationale string `json:"rationale"`
}

func (h *handlers) resumeCycle(w http.ResponseWriter, r *http.Request) {
	cycleID := chi.URLParam(r, "cycleID")
	var req resumeCycleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	cycle, err := h.deps.workflow.ResumeCycle(r.Context(), cycleID, req.Resumer, req.Rationale)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cycle)
}

type advancePhaseRequest struct {
	Advancer  string `json:"advancer"`
	Rationale string `json:"rationale"`
}

func (h *handlers) advancePhase(w http.ResponseWriter, r *http.Request) {
	cycleID := chi.URLParam(r, "cycleID")
	var req advancePhaseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	cycle, err := h.deps.workflow.AdvancePhase(r.Context(), cycleID, req.Advancer, req.Rationale)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cycle)
}

type triggerAgentRequest struct {
	AgentType string `json:"agent_type"`
	Triggerer string `json:"triggerer"`
}

func (h *handlers) triggerAgent(w http.ResponseWriter, r *http.Request) {
	cycleID := chi.URLParam(r, "cycleID")
	var req triggerAgentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	cycle, err := h.deps.workflow.TriggerAgent(r.Context(), cycleID, req.AgentType, req.Triggerer)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cycle)
}

func (h *handlers) createHumanTask(w http.ResponseWriter, r *http.Request) {
	cycleID := chi.URLParam(r, "cycleID")
	var task governance.HumanTask
	if err := decodeJSON(r, &task); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	task.CycleID = cycleID
	created, err := h.deps.workflow.CreateHumanTask(r.Context(), task)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

type completeHumanTaskRequest struct {
	Outcome     governance.TaskDecisionOutcome `json:"outcome"`
	Rationale   string                         `json:"rationale"`
	CompletedBy string                         `json:"completed_by"`
}

func (h *handlers) completeHumanTask(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")
	var req completeHumanTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	task, err := h.deps.workflow.CompleteHumanTask(r.Context(), taskID, req.Outcome, req.Rationale, req.CompletedBy)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}
