package cde

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/regulatory-governance/core/domain/governance"
	"github.com/regulatory-governance/core/internal/tenantctx"
)

// GenerateCDEInventory produces the inventory of elements whose Overall
// score meets threshold (property P7: overall >= threshold iff element is
// included and carries a non-empty rationale). Setting includeRationale
// to false still requires a rationale per spec.md §4.F's invariant, so a
// generic rationale is generated regardless; the flag only controls
// whether the full factor breakdown is spelled out.
func (s *Service) GenerateCDEInventory(ctx context.Context, reportID string, scores []governance.CDEScore, threshold float64, includeRationale bool) (*governance.CDEInventory, error) {
	inv := governance.CDEInventory{
		ReportID:  reportID,
		Threshold: threshold,
	}

	for _, score := range scores {
		if score.Overall < threshold {
			continue
		}
		rationale := genericRationale(score, threshold)
		if includeRationale {
			rationale = detailedRationale(score, threshold)
		}
		inv.Elements = append(inv.Elements, governance.CDE{
			ID:                   uuid.New().String(),
			Name:                 score.ElementName,
			ReportID:             reportID,
			Score:                score,
			CriticalityRationale: rationale,
		})
	}

	if err := s.repo.SetCDEInventory(ctx, reportID, inv); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, "generate_cde_inventory", "cde_inventory", reportID,
		nil, map[string]any{"threshold": threshold, "included": len(inv.Elements)}, "")

	return &inv, nil
}

func genericRationale(score governance.CDEScore, threshold float64) string {
	return fmt.Sprintf("overall score %.3f meets inclusion threshold %.3f", score.Overall, threshold)
}

func detailedRationale(score governance.CDEScore, threshold float64) string {
	f := score.Factors
	return fmt.Sprintf(
		"overall score %.3f meets inclusion threshold %.3f (regulatory_impact=%.2f, business_impact=%.2f, data_sensitivity=%.2f, usage_frequency=%.2f)",
		score.Overall, threshold, f.RegulatoryImpact, f.BusinessImpact, f.DataSensitivity, f.UsageFrequency,
	)
}

func (s *Service) recordAudit(ctx context.Context, action, entityType, entityID string, previousState, newState map[string]any, rationale string) {
	if s.audit == nil {
		return
	}
	tenantID := tenantctx.ResolveTenantID(ctx, "")
	entry := governance.AuditEntry{
		ID:            uuid.New().String(),
		Timestamp:     time.Now().UTC(),
		TenantID:      tenantID,
		Actor:         tenantctx.Actor(ctx),
		ActorType:     governance.ActorTypeSystem,
		Action:        action,
		EntityType:    entityType,
		EntityID:      entityID,
		PreviousState: previousState,
		NewState:      newState,
		Rationale:     rationale,
	}
	if _, err := s.audit.For(tenantID).Append(ctx, entry); err != nil && s.logger != nil {
		s.logger.WithContext(ctx).WithError(err).Error("cde: failed to append audit entry")
	}
}
