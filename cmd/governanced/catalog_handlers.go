package main

import (
	"net/http"

	"github.com/regulatory-governance/core/domain/governance"
	"github.com/regulatory-governance/core/services/workflow"
)

func (h *handlers) getCatalog(w http.ResponseWriter, r *http.Request) {
	catalog, err := h.deps.workflow.GetCatalog(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, catalog)
}

type scanSourcesRequest struct {
	Actor   string                       `json:"actor"`
	Reports []governance.RegulatoryReport `json:"reports"`
}

// scanSources ingests a scan result as a batch of add/update operations
// against the catalog (spec.md §6 "scanSources"). Source discovery itself
// is an external integration; this boundary only accepts its output.
func (h *handlers) scanSources(w http.ResponseWriter, r *http.Request) {
	var req scanSourcesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	ops := make([]workflow.CatalogChangeOp, 0, len(req.Reports))
	for _, report := range req.Reports {
		ops = append(ops, workflow.CatalogChangeOp{Op: "add", Report: report})
	}

	catalog, err := h.deps.workflow.UpdateCatalog(r.Context(), req.Actor, ops)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, catalog)
}

// detectChanges diffs a proposed report set against the current catalog
// without mutating it (spec.md §6 "detectChanges").
func (h *handlers) detectChanges(w http.ResponseWriter, r *http.Request) {
	var req scanSourcesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	catalog, err := h.deps.workflow.GetCatalog(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	added := []governance.RegulatoryReport{}
	changed := []governance.RegulatoryReport{}
	for _, report := range req.Reports {
		existing, ok := catalog.Reports[report.ID]
		switch {
		case !ok:
			added = append(added, report)
		case existing != report:
			changed = append(changed, report)
		}
	}

	removed := []string{}
	seen := make(map[string]struct{}, len(req.Reports))
	for _, report := range req.Reports {
		seen[report.ID] = struct{}{}
	}
	for id := range catalog.Reports {
		if _, ok := seen[id]; !ok {
			removed = append(removed, id)
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"added":   added,
		"changed": changed,
		"removed": removed,
	})
}

type updateCatalogRequest struct {
	Actor   string                           `json:"actor"`
	Changes []workflow.CatalogChangeOp `json:"changes"`
}

func (h *handlers) updateCatalog(w http.ResponseWriter, r *http.Request) {
	var req updateCatalogRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	catalog, err := h.deps.workflow.UpdateCatalog(r.Context(), req.Actor, req.Changes)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, catalog)
}

type submitForReviewRequest struct {
	Submitter string `json:"submitter"`
}

func (h *handlers) submitForReview(w http.ResponseWriter, r *http.Request) {
	var req submitForReviewRequest
	_ = decodeJSON(r, &req)
	catalog, err := h.deps.workflow.SubmitForReview(r.Context(), req.Submitter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, catalog)
}

type approveCatalogRequest struct {
	Approver    string `json:"approver"`
	Rationale   string `json:"rationale"`
	AccessToken string `json:"access_token"`
}

func (h *handlers) approveCatalog(w http.ResponseWriter, r *http.Request) {
	var req approveCatalogRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	catalog, err := h.deps.workflow.ApproveCatalog(r.Context(), req.Approver, req.Rationale, req.AccessToken)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, catalog)
}

type modifyCatalogRequest struct {
	Modifier string                           `json:"modifier"`
	Ops      []workflow.CatalogChangeOp `json:"ops"`
}

func (h *handlers) modifyCatalog(w http.ResponseWriter, r *http.Request) {
	var req modifyCatalogRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	catalog, err := h.deps.workflow.ModifyCatalog(r.Context(), req.Modifier, req.Ops)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, catalog)
}
