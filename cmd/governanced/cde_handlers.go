package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/regulatory-governance/core/domain/governance"
)

type scoreDataElementsRequest struct {
	Elements []governance.CandidateElement `json:"elements"`
	Weights  *governance.CDEWeights        `json:"weights"`
}

func (h *handlers) scoreDataElements(w http.ResponseWriter, r *http.Request) {
	var req scoreDataElementsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	scores := h.deps.cde.ScoreElements(req.Elements, req.Weights)
	writeJSON(w, http.StatusOK, scores)
}

type generateCDEInventoryRequest struct {
	ReportID          string                 `json:"report_id"`
	Scores            []governance.CDEScore `json:"scores"`
	Threshold         float64                `json:"threshold"`
	IncludeRationale  bool                   `json:"include_rationale"`
}

func (h *handlers) generateCDEInventory(w http.ResponseWriter, r *http.Request) {
	var req generateCDEInventoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	inventory, err := h.deps.cde.GenerateCDEInventory(r.Context(), req.ReportID, req.Scores, req.Threshold, req.IncludeRationale)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inventory)
}

type generateDQRulesRequest struct {
	CDEName           string                              `json:"cde_name"`
	Dimensions        []governance.DQDimension            `json:"dimensions"`
	CustomThresholds  map[governance.DQDimension]float64 `json:"custom_thresholds"`
	Owner             string                              `json:"owner"`
}

func (h *handlers) generateDQRules(w http.ResponseWriter, r *http.Request) {
	cdeID := chi.URLParam(r, "cdeID")
	var req generateDQRulesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	rules, err := h.deps.cde.GenerateDQRules(r.Context(), cdeID, req.CDEName, req.Dimensions, req.CustomThresholds, req.Owner)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rules)
}
