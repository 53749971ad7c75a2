package control

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/regulatory-governance/core/domain/governance"
)

func newID() string {
	return uuid.New().String()
}

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
		s.logger.WithContext(ctx).WithError(err).Error("control: failed to append audit entry")
	}
}
