package workflow

import (
	"context"
	"time"

	"github.com/regulatory-governance/core/domain/governance"
)

// recordAudit appends a state-changing command's effect to the tenant's
// audit chain (spec.md P2: "every state-changing command produces >=1
// audit entry with all required fields populated"). Failures are logged,
// not propagated — the command has already committed to the repository.
func (s *Service) recordAudit(ctx context.Context, tenantID, actor string, actorType governance.ActorType, action, entityType, entityID string, previousState, newState map[string]any, rationale string) {
	if s.audit == nil {
		return
	}
	entry := governance.AuditEntry{
		ID:            newID(),
		Timestamp:     time.Now().UTC(),
		TenantID:      tenantID,
		Actor:         actor,
		ActorType:     actorType,
		Action:        action,
		EntityType:    entityType,
		EntityID:      entityID,
		PreviousState: previousState,
		NewState:      newState,
		Rationale:     rationale,
	}
	if _, err := s.audit.For(tenantID).Append(ctx, entry); err != nil && s.logger != nil {
		s.logger.WithContext(ctx).WithError(err).Error("workflow: failed to append audit entry")
	}
}
