package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/regulatory-governance/core/domain/governance"
)

func (h *handlers) getControlMatrix(w http.ResponseWriter, r *http.Request) {
	reportID := chi.URLParam(r, "reportID")
	matrix, err := h.deps.control.GetControlMatrix(r.Context(), reportID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, matrix)
}

type updateControlRequest struct {
	Actor   string             `json:"actor"`
	Control governance.Control `json:"control"`
}

func (h *handlers) updateControl(w http.ResponseWriter, r *http.Request) {
	reportID := chi.URLParam(r, "reportID")
	controlID := chi.URLParam(r, "controlID")
	var req updateControlRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	req.Control.ID = controlID
	req.Control.ReportID = reportID

	control, err := h.deps.control.UpdateControl(r.Context(), req.Actor, req.Control)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, control)
}

type recordControlEvidenceRequest struct {
	Actor    string                     `json:"actor"`
	Evidence governance.ControlEvidence `json:"evidence"`
}

func (h *handlers) recordControlEvidence(w http.ResponseWriter, r *http.Request) {
	controlID := chi.URLParam(r, "controlID")
	var req recordControlEvidenceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	control, err := h.deps.control.RecordControlEvidence(r.Context(), req.Actor, controlID, req.Evidence)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, control)
}

func (h *handlers) getLineageGraph(w http.ResponseWriter, r *http.Request) {
	reportID := chi.URLParam(r, "reportID")
	graph, err := h.deps.control.GetLineageGraph(r.Context(), reportID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, graph)
}

type updateLineageRequest struct {
	Actor string                  `json:"actor"`
	Graph governance.LineageGraph `json:"graph"`
}

func (h *handlers) updateLineage(w http.ResponseWriter, r *http.Request) {
	reportID := chi.URLParam(r, "reportID")
	var req updateLineageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	graph, err := h.deps.control.UpdateLineage(r.Context(), req.Actor, reportID, req.Graph)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, graph)
}
