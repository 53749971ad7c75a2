package main

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/regulatory-governance/core/domain/governance"
	"github.com/regulatory-governance/core/internal/tenantctx"
)

func (h *handlers) appendAuditEntry(w http.ResponseWriter, r *http.Request) {
	var entry governance.AuditEntry
	if err := decodeJSON(r, &entry); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if entry.Actor == "" {
		entry.Actor = tenantctx.Actor(r.Context())
	}
	if entry.ActorType == "" {
		entry.ActorType = tenantctx.ActorType(r.Context())
	}

	store := h.deps.audit.For(tenantctx.ResolveTenantID(r.Context(), entry.TenantID))
	immutable, err := store.Append(r.Context(), entry)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, immutable)
}

func (h *handlers) listAuditEntries(w http.ResponseWriter, r *http.Request) {
	store := h.deps.audit.For(tenantctx.TenantID(r.Context()))
	q := r.URL.Query()

	var filters governance.AuditFilters
	if entityType := q.Get("entity_type"); entityType != "" {
		filters.EntityType = &entityType
	}
	if entityID := q.Get("entity_id"); entityID != "" {
		filters.EntityID = &entityID
	}
	if actor := q.Get("actor"); actor != "" {
		filters.Actor = &actor
	}
	if action := q.Get("action"); action != "" {
		filters.Action = &action
	}
	if limitStr := q.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filters.Limit = &limit
		}
	}

	entries := store.GetEntries(filters)
	writeJSON(w, http.StatusOK, entries)
}

func (h *handlers) verifyChain(w http.ResponseWriter, r *http.Request) {
	store := h.deps.audit.For(tenantctx.TenantID(r.Context()))
	result := store.VerifyChain(nil, nil)
	writeJSON(w, http.StatusOK, result)
}

func (h *handlers) exportChain(w http.ResponseWriter, r *http.Request) {
	store := h.deps.audit.For(tenantctx.TenantID(r.Context()))
	export := store.Export(nil, nil)
	writeJSON(w, http.StatusOK, export)
}

func (h *handlers) merkleProof(w http.ResponseWriter, r *http.Request) {
	entryID := chi.URLParam(r, "entryID")
	store := h.deps.audit.For(tenantctx.TenantID(r.Context()))
	proof := store.GenerateMerkleProof(entryID)
	if proof == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "entry not found"})
		return
	}
	writeJSON(w, http.StatusOK, proof)
}
