package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/regulatory-governance/core/domain/governance"
)

func (h *handlers) createIssue(w http.ResponseWriter, r *http.Request) {
	var in governance.Issue
	if err := decodeJSON(r, &in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	created, err := h.deps.issue.CreateIssue(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *handlers) updateIssue(w http.ResponseWriter, r *http.Request) {
	var in governance.Issue
	if err := decodeJSON(r, &in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	in.ID = chi.URLParam(r, "issueID")
	updated, err := h.deps.issue.UpdateIssue(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

type escalateIssueRequest struct {
	Escalator string `json:"escalator"`
	Reason    string `json:"reason"`
}

func (h *handlers) escalateIssue(w http.ResponseWriter, r *http.Request) {
	issueID := chi.URLParam(r, "issueID")
	var req escalateIssueRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	updated, err := h.deps.issue.EscalateIssue(r.Context(), issueID, req.Escalator, req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

type resolveIssueRequest struct {
	ResolutionType string `json:"resolution_type"`
	Description    string `json:"description"`
	ImplementedBy  string `json:"implemented_by"`
	VerifiedBy     string `json:"verified_by"`
}

func (h *handlers) resolveIssue(w http.ResponseWriter, r *http.Request) {
	issueID := chi.URLParam(r, "issueID")
	var req resolveIssueRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	updated, err := h.deps.issue.ResolveIssue(r.Context(), issueID, req.ResolutionType, req.Description, req.ImplementedBy, req.VerifiedBy)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *handlers) listIssues(w http.ResponseWriter, r *http.Request) {
	var filters governance.IssueFilters
	q := r.URL.Query()

	if severity := q.Get("severity"); severity != "" {
		s := governance.IssueSeverity(severity)
		filters.Severity = &s
	}
	if status := q.Get("status"); status != "" {
		s := governance.IssueStatus(status)
		filters.Status = &s
	}
	if reportID := q.Get("report_id"); reportID != "" {
		filters.ReportID = &reportID
	}
	if cdeID := q.Get("cde_id"); cdeID != "" {
		filters.CDEID = &cdeID
	}

	issues, err := h.deps.issue.ListIssues(r.Context(), filters)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, issues)
}

func (h *handlers) getIssueMetrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.deps.issue.Metrics(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, metrics)
}
