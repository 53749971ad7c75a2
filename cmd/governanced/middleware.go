package main

import (
	"context"
	"net/http"

	"github.com/regulatory-governance/core/domain/governance"
	"github.com/regulatory-governance/core/infrastructure/logging"
	"github.com/regulatory-governance/core/internal/tenantctx"
)

// tenantMiddleware binds the ambient identity carried on a request's
// headers into context (spec.md §4.J), defaulting the tenant ID when the
// caller omits it. Mirrors applications/httpapi's header-to-context
// extraction, generalized from a single tenant key to the full Binding.
func tenantMiddleware(defaultTenantID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tenantID := r.Header.Get("X-Tenant-ID")
			if tenantID == "" {
				tenantID = defaultTenantID
			}

			actorType := governance.ActorType(r.Header.Get("X-Actor-Type"))
			if actorType == "" {
				actorType = governance.ActorTypeHuman
			}

			binding := tenantctx.Binding{
				TenantID:  tenantID,
				SessionID: r.Header.Get("X-Session-ID"),
				Actor:     r.Header.Get("X-Actor"),
				ActorType: actorType,
			}

			ctx := tenantctx.With(r.Context(), binding)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// traceMiddleware stamps every request with a trace ID used by structured
// logging downstream.
func traceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get("X-Trace-ID")
		if traceID == "" {
			traceID = logging.NewTraceID()
		}
		ctx := context.WithValue(r.Context(), logging.TraceIDKey, traceID)
		w.Header().Set("X-Trace-ID", traceID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
