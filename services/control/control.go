package control

import (
	"context"
	"time"

	"github.com/regulatory-governance/core/domain/governance"
	"github.com/regulatory-governance/core/infrastructure/errors"
	"github.com/regulatory-governance/core/internal/tenantctx"
)

var validControlStatuses = map[governance.ControlStatus]struct{}{
	governance.ControlStatusDesigned:    {},
	governance.ControlStatusImplemented: {},
	governance.ControlStatusOperating:   {},
	governance.ControlStatusRetired:     {},
}

// GetControlMatrix returns the control matrix tracked for reportID, or
// nil if none has been recorded yet.
func (s *Service) GetControlMatrix(ctx context.Context, reportID string) (*governance.ControlMatrix, error) {
	return s.repo.GetControlMatrix(ctx, reportID)
}

// GetControl returns a single control by id, or nil if not found.
func (s *Service) GetControl(ctx context.Context, controlID string) (*governance.Control, error) {
	return s.repo.GetControl(ctx, controlID)
}

// UpdateControl upserts a control into its report's matrix (SPEC_FULL.md
// §3: "queryable governance artifacts the repository stores and the
// audit chain records mutations of"). Unlike catalog/cycle mutations this
// never gates on any state machine; it only validates shape.
func (s *Service) UpdateControl(ctx context.Context, actor string, in governance.Control) (*governance.Control, error) {
	tenantID := tenantctx.ResolveTenantID(ctx, "")
	actor = tenantctx.ResolveActor(ctx, actor)

	if in.ID == "" {
		return nil, errors.InvariantViolation("control.id", "must not be empty")
	}
	if in.ReportID == "" {
		return nil, errors.InvariantViolation("control.reportId", "must not be empty")
	}
	if in.Status == "" {
		in.Status = governance.ControlStatusDesigned
	}
	if _, ok := validControlStatuses[in.Status]; !ok {
		return nil, errors.InvariantViolation("control.status", "unknown status "+string(in.Status))
	}

	existing, err := s.repo.GetControl(ctx, in.ID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateControl(ctx, in); err != nil {
		return nil, err
	}

	updated, err := s.repo.GetControl(ctx, in.ID)
	if err != nil {
		return nil, err
	}

	var previousState map[string]any
	if existing != nil {
		previousState = map[string]any{"status": string(existing.Status), "owner": existing.Owner}
	}
	s.recordAudit(ctx, tenantID, actor, governance.ActorTypeHuman, "update_control", "control", in.ID,
		previousState, map[string]any{"status": string(updated.Status), "owner": updated.Owner}, "")

	return updated, nil
}

// RecordControlEvidence attaches a new piece of evidence to an existing
// control and records the mutation to the audit chain.
func (s *Service) RecordControlEvidence(ctx context.Context, actor, controlID string, evidence governance.ControlEvidence) (*governance.Control, error) {
	tenantID := tenantctx.ResolveTenantID(ctx, "")
	actor = tenantctx.ResolveActor(ctx, actor)

	if controlID == "" {
		return nil, errors.InvariantViolation("control.id", "must not be empty")
	}
	if evidence.Description == "" {
		return nil, errors.InvariantViolation("controlEvidence.description", "must not be empty")
	}

	existing, err := s.repo.GetControl(ctx, controlID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, errors.NotFound("control", controlID)
	}

	if evidence.ID == "" {
		evidence.ID = newID()
	}
	if evidence.AttachedAt.IsZero() {
		evidence.AttachedAt = time.Now().UTC()
	}
	if evidence.AttachedBy == "" {
		evidence.AttachedBy = actor
	}

	if err := s.repo.AddControlEvidence(ctx, controlID, evidence); err != nil {
		return nil, err
	}

	updated, err := s.repo.GetControl(ctx, controlID)
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, tenantID, actor, governance.ActorTypeHuman, "attach_control_evidence", "control", controlID,
		map[string]any{"evidence_count": len(existing.Evidence)},
		map[string]any{"evidence_count": len(updated.Evidence), "evidence_id": evidence.ID}, evidence.Description)

	return updated, nil
}
