// Package tenantctx carries the ambient tenant/session/actor binding
// required by spec.md §4.J and §5: a goroutine/task-scoped context
// carrier, never a package-level global, so concurrent tenants never
// cross-contaminate audit entries or metering.
package tenantctx

import (
	"context"

	"github.com/regulatory-governance/core/domain/governance"
)

type contextKey string

const (
	tenantIDKey  contextKey = "tenant_id"
	sessionIDKey contextKey = "session_id"
	actorKey     contextKey = "actor"
	actorTypeKey contextKey = "actor_type"
)

// Binding is the ambient identity carried by a request or task.
type Binding struct {
	TenantID  string
	SessionID string
	Actor     string
	ActorType governance.ActorType
}

// With returns a new context carrying the given binding.
func With(ctx context.Context, b Binding) context.Context {
	ctx = context.WithValue(ctx, tenantIDKey, b.TenantID)
	ctx = context.WithValue(ctx, sessionIDKey, b.SessionID)
	ctx = context.WithValue(ctx, actorKey, b.Actor)
	ctx = context.WithValue(ctx, actorTypeKey, b.ActorType)
	return ctx
}

// WithTenantID returns a new context with only the tenant ID set.
func WithTenantID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantIDKey, tenantID)
}

// TenantID extracts the ambient tenant ID, or "" if unset.
func TenantID(ctx context.Context) string {
	v, _ := ctx.Value(tenantIDKey).(string)
	return v
}

// SessionID extracts the ambient session ID, or "" if unset.
func SessionID(ctx context.Context) string {
	v, _ := ctx.Value(sessionIDKey).(string)
	return v
}

// Actor extracts the ambient actor identifier, or "" if unset.
func Actor(ctx context.Context) string {
	v, _ := ctx.Value(actorKey).(string)
	return v
}

// ActorType extracts the ambient actor type, or "" if unset.
func ActorType(ctx context.Context) governance.ActorType {
	v, _ := ctx.Value(actorTypeKey).(governance.ActorType)
	return v
}

// FromContext reconstructs the full Binding carried by ctx.
func FromContext(ctx context.Context) Binding {
	return Binding{
		TenantID:  TenantID(ctx),
		SessionID: SessionID(ctx),
		Actor:     Actor(ctx),
		ActorType: ActorType(ctx),
	}
}

// ResolveActor returns explicitActor if non-empty, otherwise the ambient
// actor from ctx. Explicit values always win over ambient ones (spec.md
// §4.J: "explicit values always win").
func ResolveActor(ctx context.Context, explicitActor string) string {
	if explicitActor != "" {
		return explicitActor
	}
	return Actor(ctx)
}

// ResolveTenantID returns explicitTenantID if non-empty, otherwise the
// ambient tenant ID from ctx.
func ResolveTenantID(ctx context.Context, explicitTenantID string) string {
	if explicitTenantID != "" {
		return explicitTenantID
	}
	return TenantID(ctx)
}
