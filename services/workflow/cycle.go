package workflow

import (
	"context"
	"time"

	"github.com/regulatory-governance/core/domain/governance"
	"github.com/regulatory-governance/core/infrastructure/errors"
	"github.com/regulatory-governance/core/internal/tenantctx"
)

// agentPhasePrerequisite names, per agent type, the checkpoint that must
// be completed before triggerAgent may dispatch it (spec.md §4.D).
var agentPhasePrerequisite = map[string]governance.CyclePhase{
	"regulatory_intelligence": "", // no prerequisite beyond data_gathering being reached
	"data_requirements":       "",
	"cde_identification":      "",
	"lineage_mapping":         "",
	"data_quality_rule":       governance.PhaseDataGathering,
	"issue_management":        governance.PhaseDataGathering,
	"documentation":           governance.PhaseValidation,
}

// blockingCriticalIssue reports whether any open critical issue impacts
// reportID — the shared gate predicate behind resumeCycle and
// triggerAgent (spec.md §4.D, property P9).
func (s *Service) blockingCriticalIssue(ctx context.Context, reportID string) (bool, error) {
	critical := governance.SeverityCritical
	issues, err := s.repo.GetIssues(ctx, governance.IssueFilters{Severity: &critical, ReportID: &reportID})
	if err != nil {
		return false, err
	}
	for _, issue := range issues {
		if issue.BlocksReport(reportID) {
			return true, nil
		}
	}
	return false, nil
}

// StartCycle creates a new active cycle for reportID. The report must
// exist and the catalog must be approved.
func (s *Service) StartCycle(ctx context.Context, reportID string, periodEnd time.Time, initiator string) (*governance.CycleInstance, error) {
	tenantID := tenantctx.ResolveTenantID(ctx, "")
	initiator = tenantctx.ResolveActor(ctx, initiator)

	report, err := s.repo.GetReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, errors.NotFound("report", reportID)
	}
	catalog, err := s.repo.GetCatalog(ctx)
	if err != nil {
		return nil, err
	}
	if catalog == nil || catalog.Status != governance.CatalogStatusApproved {
		return nil, errors.InvalidState("startCycle", "catalog not approved")
	}

	cycle := governance.NewCycleInstance(newID(), reportID, periodEnd, time.Now().UTC())
	created, err := s.repo.CreateCycleInstance(ctx, cycle)
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, tenantID, initiator, governance.ActorTypeHuman, "start_cycle", "cycle", created.ID,
		nil, map[string]any{"report_id": reportID, "phase": string(created.CurrentPhase)}, "")

	return &created, nil
}

// PauseCycle transitions an active cycle to paused, recording reason.
func (s *Service) PauseCycle(ctx context.Context, cycleID, reason, pauser string) (*governance.CycleInstance, error) {
	unlock := s.cycleLocks.lock(cycleID)
	defer unlock()

	tenantID := tenantctx.ResolveTenantID(ctx, "")
	pauser = tenantctx.ResolveActor(ctx, pauser)

	cycle, err := s.repo.GetCycleInstance(ctx, cycleID)
	if err != nil {
		return nil, err
	}
	if cycle == nil {
		return nil, errors.NotFound("cycle", cycleID)
	}
	if cycle.Status != governance.CycleStatusActive {
		return nil, errors.InvalidState("pauseCycle", string(cycle.Status))
	}

	cycle.Status = governance.CycleStatusPaused
	cycle.PauseReason = reason

	if err := s.repo.UpdateCycleInstance(ctx, *cycle); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, tenantID, pauser, governance.ActorTypeHuman, "pause_cycle", "cycle", cycleID,
		map[string]any{"status": "active"}, map[string]any{"status": "paused", "reason": reason}, reason)

	return cycle, nil
}

// ResumeCycle transitions a paused cycle back to active, failing with
// blocked_by_critical_issue if an open critical issue impacts the cycle's
// report.
func (s *Service) ResumeCycle(ctx context.Context, cycleID, resumer, rationale string) (*governance.CycleInstance, error) {
	unlock := s.cycleLocks.lock(cycleID)
	defer unlock()

	tenantID := tenantctx.ResolveTenantID(ctx, "")
	resumer = tenantctx.ResolveActor(ctx, resumer)

	cycle, err := s.repo.GetCycleInstance(ctx, cycleID)
	if err != nil {
		return nil, err
	}
	if cycle == nil {
		return nil, errors.NotFound("cycle", cycleID)
	}
	if cycle.Status != governance.CycleStatusPaused {
		return nil, errors.InvalidState("resumeCycle", string(cycle.Status))
	}

	blocked, err := s.blockingCriticalIssue(ctx, cycle.ReportID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, errors.BlockedByCriticalIssue(cycle.ReportID)
	}

	cycle.Status = governance.CycleStatusActive
	cycle.PauseReason = ""

	if err := s.repo.UpdateCycleInstance(ctx, *cycle); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, tenantID, resumer, governance.ActorTypeHuman, "resume_cycle", "cycle", cycleID,
		map[string]any{"status": "paused"}, map[string]any{"status": "active"}, rationale)

	return cycle, nil
}

// AdvancePhase moves the cycle to its next phase, or to completed if the
// current phase is the last. Fails unless the current phase's checkpoint
// is completed. Advancing past the last phase (submission) additionally
// requires G-attestation, checked here via HasAttestation.
func (s *Service) AdvancePhase(ctx context.Context, cycleID, advancer, rationale string) (*governance.CycleInstance, error) {
	unlock := s.cycleLocks.lock(cycleID)
	defer unlock()

	tenantID := tenantctx.ResolveTenantID(ctx, "")
	advancer = tenantctx.ResolveActor(ctx, advancer)

	cycle, err := s.repo.GetCycleInstance(ctx, cycleID)
	if err != nil {
		return nil, err
	}
	if cycle == nil {
		return nil, errors.NotFound("cycle", cycleID)
	}
	if cycle.Status != governance.CycleStatusActive {
		return nil, errors.InvalidState("advancePhase", string(cycle.Status))
	}
	if !cycle.CheckpointCompleted(cycle.CurrentPhase) {
		return nil, errors.CheckpointIncomplete(string(cycle.CurrentPhase))
	}

	previousPhase := cycle.CurrentPhase
	next, hasNext := governance.NextPhase(cycle.CurrentPhase)
	if !hasNext {
		// Last phase (submission) completing requires G-attestation.
		attested, err := s.HasAttestation(ctx, cycleID)
		if err != nil {
			return nil, err
		}
		if !attested {
			return nil, errors.InvariantViolation("G-attestation", "no completed attestation task with an approved decision")
		}
		cycle.Status = governance.CycleStatusCompleted
	} else {
		cycle.CurrentPhase = next
	}

	if err := s.repo.UpdateCycleInstance(ctx, *cycle); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, tenantID, advancer, governance.ActorTypeHuman, "advance_phase", "cycle", cycleID,
		map[string]any{"phase": string(previousPhase)},
		map[string]any{"phase": string(cycle.CurrentPhase), "status": string(cycle.Status)}, rationale)

	return cycle, nil
}

// TriggerAgent dispatches an agent of the given type against the cycle,
// subject to the cycle being active, no blocking critical issue, and the
// agent's phase prerequisite having been reached.
func (s *Service) TriggerAgent(ctx context.Context, cycleID, agentType, triggerer string) (*governance.CycleInstance, error) {
	tenantID := tenantctx.ResolveTenantID(ctx, "")
	triggerer = tenantctx.ResolveActor(ctx, triggerer)

	cycle, err := s.repo.GetCycleInstance(ctx, cycleID)
	if err != nil {
		return nil, err
	}
	if cycle == nil {
		return nil, errors.NotFound("cycle", cycleID)
	}
	if cycle.Status != governance.CycleStatusActive {
		return nil, errors.InvalidState("triggerAgent", string(cycle.Status))
	}

	blocked, err := s.blockingCriticalIssue(ctx, cycle.ReportID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, errors.BlockedByCriticalIssue(cycle.ReportID)
	}

	prerequisite, known := agentPhasePrerequisite[agentType]
	if !known {
		return nil, errors.InvariantViolation("triggerAgent", "unknown agent type "+agentType)
	}
	if prerequisite != "" && !cycle.CheckpointCompleted(prerequisite) {
		return nil, errors.CheckpointIncomplete(string(prerequisite))
	}

	s.recordAudit(ctx, tenantID, triggerer, governance.ActorTypeAgent, "trigger_agent", "cycle", cycleID,
		nil, map[string]any{"agent_type": agentType, "phase": string(cycle.CurrentPhase)}, "")

	return cycle, nil
}
