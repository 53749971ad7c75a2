package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/regulatory-governance/core/domain/governance"
	"github.com/regulatory-governance/core/infrastructure/errors"
	"github.com/regulatory-governance/core/internal/tenantctx"
)

// SubmitForReview moves the catalog draft -> pending_review (spec.md §4.D
// "Artifact review state"). Per SPEC_FULL.md Open Question #1, submission
// is also legal from rejected.
func (s *Service) SubmitForReview(ctx context.Context, submitter string) (*governance.ReportCatalog, error) {
	tenantID := tenantctx.ResolveTenantID(ctx, "")
	submitter = tenantctx.ResolveActor(ctx, submitter)

	catalog, err := s.repo.GetCatalog(ctx)
	if err != nil {
		return nil, err
	}
	if catalog == nil {
		return nil, errors.NotFound("catalog", tenantID)
	}
	if catalog.Status != governance.CatalogStatusDraft && catalog.Status != governance.CatalogStatusRejected {
		return nil, errors.InvalidState("submitForReview", string(catalog.Status))
	}

	previous := catalog.Status
	catalog.Status = governance.CatalogStatusPendingReview

	if err := s.repo.SetCatalog(ctx, *catalog); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, tenantID, submitter, governance.ActorTypeHuman, "submit_for_review", "catalog", tenantID,
		map[string]any{"status": string(previous)}, map[string]any{"status": string(catalog.Status)}, "")

	return catalog, nil
}

// ApproveCatalog moves the catalog pending_review -> approved. Fails from
// any other state (I1).
func (s *Service) ApproveCatalog(ctx context.Context, approver, rationale, accessToken string) (*governance.ReportCatalog, error) {
	tenantID := tenantctx.ResolveTenantID(ctx, "")

	resolvedApprover, auditUserInfo, err := s.resolveApprover(accessToken, approver)
	if err != nil {
		return nil, err
	}
	resolvedApprover = tenantctx.ResolveActor(ctx, resolvedApprover)

	catalog, err := s.repo.GetCatalog(ctx)
	if err != nil {
		return nil, err
	}
	if catalog == nil {
		return nil, errors.NotFound("catalog", tenantID)
	}
	if catalog.Status != governance.CatalogStatusPendingReview {
		return nil, errors.InvalidState("approveCatalog", string(catalog.Status))
	}

	now := time.Now().UTC()
	catalog.Status = governance.CatalogStatusApproved
	catalog.ApprovedBy = resolvedApprover
	catalog.ApprovedAt = &now
	catalog.AuditUserInfo = auditUserInfo

	if err := s.repo.SetCatalog(ctx, *catalog); err != nil {
		return nil, err
	}

	newState := map[string]any{
		"status":      string(catalog.Status),
		"approved_by": resolvedApprover,
		"rationale":   rationale,
	}
	if auditUserInfo != nil {
		newState["_audit_user_info"] = auditUserInfo
	}
	s.recordAudit(ctx, tenantID, resolvedApprover, governance.ActorTypeHuman, "approve_catalog", "catalog", tenantID,
		map[string]any{"status": "pending_review"}, newState, rationale)

	return catalog, nil
}

// CatalogChangeOp is one entry in a modifyCatalog call.
type CatalogChangeOp struct {
	Op     string // "add" | "update" | "remove"
	Report governance.RegulatoryReport
}

// ModifyCatalog applies add/update/remove operations to the catalog's
// report set. Any mutation of an approved catalog resets it to draft and
// clears approval metadata, and bumps version (I1).
func (s *Service) ModifyCatalog(ctx context.Context, modifier string, ops []CatalogChangeOp) (*governance.ReportCatalog, error) {
	tenantID := tenantctx.ResolveTenantID(ctx, "")
	modifier = tenantctx.ResolveActor(ctx, modifier)

	catalog, err := s.repo.GetCatalog(ctx)
	if err != nil {
		return nil, err
	}
	if catalog == nil {
		c := governance.NewReportCatalog()
		catalog = &c
	}

	wasApproved := catalog.Status == governance.CatalogStatusApproved

	var invalid *multierror.Error
	for i, op := range ops {
		switch op.Op {
		case "add", "update", "remove":
		default:
			invalid = multierror.Append(invalid, fmt.Errorf("op %d: unknown op %q", i, op.Op))
		}
	}
	if invalid.ErrorOrNil() != nil {
		return nil, errors.InvariantViolation("modifyCatalog", invalid.Error())
	}

	for _, op := range ops {
		switch op.Op {
		case "add", "update":
			catalog.Reports[op.Report.ID] = op.Report
		case "remove":
			delete(catalog.Reports, op.Report.ID)
		}
	}

	if wasApproved {
		catalog.Status = governance.CatalogStatusDraft
		catalog.ApprovedBy = ""
		catalog.ApprovedAt = nil
	}
	catalog.Version++

	if err := s.repo.SetCatalog(ctx, *catalog); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, tenantID, modifier, governance.ActorTypeHuman, "modify_catalog", "catalog", tenantID,
		nil, map[string]any{"version": catalog.Version, "op_count": len(ops), "reset_to_draft": wasApproved}, "")

	return catalog, nil
}

// GetCatalog returns the current catalog, or a freshly initialized one if
// none has been set yet.
func (s *Service) GetCatalog(ctx context.Context) (*governance.ReportCatalog, error) {
	catalog, err := s.repo.GetCatalog(ctx)
	if err != nil {
		return nil, err
	}
	if catalog == nil {
		c := governance.NewReportCatalog()
		return &c, nil
	}
	return catalog, nil
}

// UpdateCatalog applies a batch of scan-detected changes through
// ModifyCatalog, so an approved catalog is reset to draft like any other
// modification (used by the scanSources and updateCatalog commands,
// spec.md §6).
func (s *Service) UpdateCatalog(ctx context.Context, actor string, changes []CatalogChangeOp) (*governance.ReportCatalog, error) {
	return s.ModifyCatalog(ctx, actor, changes)
}
