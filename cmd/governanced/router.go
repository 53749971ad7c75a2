package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// newRouter wires spec.md §6's command surface onto a chi router: one
// route per operation, grouped by the module that owns it.
func newRouter(deps routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(traceMiddleware)
	r.Use(tenantMiddleware(deps.tenantCfg.DefaultTenantID))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	h := &handlers{deps: deps}

	r.Route("/catalog", func(r chi.Router) {
		r.Get("/", h.getCatalog)
		r.Post("/scan", h.scanSources)
		r.Post("/changes", h.detectChanges)
		r.Put("/", h.updateCatalog)
		r.Post("/submit", h.submitForReview)
		r.Post("/approve", h.approveCatalog)
		r.Post("/modify", h.modifyCatalog)
	})

	r.Route("/cycles", func(r chi.Router) {
		r.Post("/", h.startCycle)
		r.Post("/{cycleID}/pause", h.pauseCycle)
		r.Post("/{cycleID}/resume", h.resumeCycle)
		r.Post("/{cycleID}/advance", h.advancePhase)
		r.Post("/{cycleID}/agent", h.triggerAgent)
		r.Post("/{cycleID}/tasks", h.createHumanTask)
		r.Post("/tasks/{taskID}/complete", h.completeHumanTask)
	})

	r.Route("/issues", func(r chi.Router) {
		r.Post("/", h.createIssue)
		r.Put("/{issueID}", h.updateIssue)
		r.Post("/{issueID}/escalate", h.escalateIssue)
		r.Post("/{issueID}/resolve", h.resolveIssue)
		r.Get("/", h.listIssues)
		r.Get("/metrics", h.getIssueMetrics)
	})

	r.Route("/cde", func(r chi.Router) {
		r.Post("/score", h.scoreDataElements)
		r.Post("/inventory", h.generateCDEInventory)
		r.Post("/{cdeID}/dq-rules", h.generateDQRules)
	})

	r.Route("/reports/{reportID}/controls", func(r chi.Router) {
		r.Get("/", h.getControlMatrix)
		r.Put("/{controlID}", h.updateControl)
		r.Post("/{controlID}/evidence", h.recordControlEvidence)
	})

	r.Route("/reports/{reportID}/lineage", func(r chi.Router) {
		r.Get("/", h.getLineageGraph)
		r.Put("/", h.updateLineage)
	})

	r.Route("/audit", func(r chi.Router) {
		r.Post("/", h.appendAuditEntry)
		r.Get("/", h.listAuditEntries)
		r.Get("/verify", h.verifyChain)
		r.Get("/export", h.exportChain)
		r.Get("/merkle-proof/{entryID}", h.merkleProof)
	})

	r.Route("/tasks", func(r chi.Router) {
		r.Post("/", h.sendTask)
		r.Get("/{taskID}", h.getTaskStatus)
		r.Get("/stats", h.getQueueStats)
	})

	return r
}
