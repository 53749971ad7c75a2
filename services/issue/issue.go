package issue

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/regulatory-governance/core/domain/governance"
	"github.com/regulatory-governance/core/infrastructure/errors"
	"github.com/regulatory-governance/core/internal/tenantctx"
)

func newID() string {
	return uuid.New().String()
}

// CreateIssue stores a copy of issue, generating an id when absent.
func (s *Service) CreateIssue(ctx context.Context, in governance.Issue) (*governance.Issue, error) {
	tenantID := tenantctx.ResolveTenantID(ctx, "")
	actor := tenantctx.Actor(ctx)

	if in.ID == "" {
		in.ID = newID()
	}
	if in.Status == "" {
		in.Status = governance.IssueStatusOpen
	}
	if in.CreatedAt.IsZero() {
		in.CreatedAt = time.Now().UTC()
	}

	created, err := s.repo.CreateIssue(ctx, in)
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, tenantID, actor, governance.ActorTypeHuman, "create_issue", "issue", created.ID,
		nil, map[string]any{"severity": string(created.Severity), "status": string(created.Status)}, "")

	return &created, nil
}

// UpdateIssue replaces the stored issue with in, keyed by in.ID.
func (s *Service) UpdateIssue(ctx context.Context, in governance.Issue) (*governance.Issue, error) {
	tenantID := tenantctx.ResolveTenantID(ctx, "")
	actor := tenantctx.Actor(ctx)

	existing, err := s.repo.GetIssue(ctx, in.ID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, errors.NotFound("issue", in.ID)
	}
	if err := s.repo.UpdateIssue(ctx, in); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, tenantID, actor, governance.ActorTypeHuman, "update_issue", "issue", in.ID,
		map[string]any{"status": string(existing.Status)}, map[string]any{"status": string(in.Status)}, "")

	return &in, nil
}

// EscalateIssue increments the issue's escalation level and records the
// escalation timestamp. Critical-severity issues additionally emit a
// notify_senior_management audit entry; non-critical severities never do.
func (s *Service) EscalateIssue(ctx context.Context, issueID, escalator, reason string) (*governance.Issue, error) {
	tenantID := tenantctx.ResolveTenantID(ctx, "")
	escalator = tenantctx.ResolveActor(ctx, escalator)

	iss, err := s.repo.GetIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if iss == nil {
		return nil, errors.NotFound("issue", issueID)
	}

	now := time.Now().UTC()
	iss.EscalationLevel++
	iss.EscalatedAt = &now

	if err := s.repo.UpdateIssue(ctx, *iss); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, tenantID, escalator, governance.ActorTypeHuman, "escalate_issue", "issue", issueID,
		nil, map[string]any{"escalation_level": iss.EscalationLevel}, reason)

	if iss.Severity == governance.SeverityCritical {
		s.recordAudit(ctx, tenantID, escalator, governance.ActorTypeSystem, "notify_senior_management", "issue", issueID,
			nil, map[string]any{
				"notification_type": "critical_issue_escalation",
				"escalation_level":  iss.EscalationLevel,
				"reason":            reason,
			}, reason)
	}

	return iss, nil
}

// ResolveIssue resolves issueID, failing with invariant_violation if
// implementedBy equals verifiedBy (G-four-eyes, spec.md §4.D/§4.E).
func (s *Service) ResolveIssue(ctx context.Context, issueID, resolutionType, description, implementedBy, verifiedBy string) (*governance.Issue, error) {
	tenantID := tenantctx.ResolveTenantID(ctx, "")

	if implementedBy == verifiedBy {
		return nil, errors.InvariantViolation("G-four-eyes", "implementedBy and verifiedBy must differ")
	}

	iss, err := s.repo.GetIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if iss == nil {
		return nil, errors.NotFound("issue", issueID)
	}

	now := time.Now().UTC()
	iss.Resolution = &governance.IssueResolution{
		Type:          resolutionType,
		ImplementedBy: implementedBy,
		ImplementedAt: now,
		VerifiedBy:    verifiedBy,
		VerifiedAt:    now,
	}
	iss.Status = governance.IssueStatusResolved

	if err := s.repo.UpdateIssue(ctx, *iss); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, tenantID, verifiedBy, governance.ActorTypeHuman, "resolve_issue", "issue", issueID,
		map[string]any{"status": "open_or_in_progress"},
		map[string]any{"status": "resolved", "resolution_type": resolutionType, "description": description}, description)

	return iss, nil
}

// ListIssues returns every issue matching filters, ordered by ID.
func (s *Service) ListIssues(ctx context.Context, filters governance.IssueFilters) ([]governance.Issue, error) {
	return s.repo.GetIssues(ctx, filters)
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
		s.logger.WithContext(ctx).WithError(err).Error("issue: failed to append audit entry")
	}
}
