package workflow

import (
	"context"
	"time"

	"github.com/regulatory-governance/core/domain/governance"
	"github.com/regulatory-governance/core/infrastructure/errors"
	"github.com/regulatory-governance/core/internal/tenantctx"
)

// minRationaleLength is the floor enforced by completeHumanTask
// (spec.md §4.D: "rationale must be >= 20 characters").
const minRationaleLength = 20

// CreateHumanTask creates a task in the pending state.
func (s *Service) CreateHumanTask(ctx context.Context, task governance.HumanTask) (*governance.HumanTask, error) {
	tenantID := tenantctx.ResolveTenantID(ctx, "")

	if task.ID == "" {
		task.ID = newID()
	}
	task.Status = governance.HumanTaskStatusPending
	task.Decision = nil

	created, err := s.repo.CreateHumanTask(ctx, task)
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, tenantID, tenantctx.Actor(ctx), governance.ActorTypeSystem, "create_human_task", "human_task", created.ID,
		nil, map[string]any{"cycle_id": created.CycleID, "type": created.Type, "assigned_role": created.AssignedRole}, "")

	return &created, nil
}

// CompleteHumanTask records a decision against a task, enforcing the
// minimum rationale length, then — when the decision approves and the
// task is assigned to an approval role — contributes that role to its
// cycle's current-phase checkpoint.
func (s *Service) CompleteHumanTask(ctx context.Context, taskID string, outcome governance.TaskDecisionOutcome, rationale, completedBy string) (*governance.HumanTask, error) {
	tenantID := tenantctx.ResolveTenantID(ctx, "")
	completedBy = tenantctx.ResolveActor(ctx, completedBy)

	if len(rationale) < minRationaleLength {
		return nil, errors.InvariantViolation("completeHumanTask", "rationale must be at least 20 characters")
	}

	task, err := s.repo.GetHumanTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, errors.NotFound("human_task", taskID)
	}

	now := time.Now().UTC()
	task.Status = governance.HumanTaskStatusCompleted
	task.Decision = &governance.TaskDecision{
		Outcome:     outcome,
		Rationale:   rationale,
		CompletedBy: completedBy,
		CompletedAt: now,
	}

	if err := s.repo.UpdateHumanTask(ctx, *task); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, tenantID, completedBy, governance.ActorTypeHuman, "complete_human_task", "human_task", taskID,
		map[string]any{"status": "pending_or_in_progress"},
		map[string]any{"status": "completed", "outcome": string(outcome)}, rationale)

	if task.ContributesApproval() && task.AssignedRole != "" && task.CycleID != "" {
		if err := s.contributeApproval(ctx, task.CycleID, task.AssignedRole); err != nil {
			return nil, err
		}
	}

	return task, nil
}

// contributeApproval records assignedRole's approval on the cycle's
// current-phase checkpoint, completing the checkpoint once every required
// role has contributed.
func (s *Service) contributeApproval(ctx context.Context, cycleID, assignedRole string) error {
	unlock := s.cycleLocks.lock(cycleID)
	defer unlock()

	cycle, err := s.repo.GetCycleInstance(ctx, cycleID)
	if err != nil {
		return err
	}
	if cycle == nil {
		return errors.NotFound("cycle", cycleID)
	}

	checkpoint, ok := cycle.Checkpoints[cycle.CurrentPhase]
	if !ok {
		return nil
	}
	if checkpoint.CompletedApprovals == nil {
		checkpoint.CompletedApprovals = make(map[string]struct{})
	}
	checkpoint.CompletedApprovals[assignedRole] = struct{}{}
	if checkpoint.IsSatisfied() {
		checkpoint.Status = governance.CheckpointStatusCompleted
	}
	cycle.Checkpoints[cycle.CurrentPhase] = checkpoint

	return s.repo.UpdateCycleInstance(ctx, *cycle)
}

// HasAttestation reports whether G-attestation is satisfied for cycleID:
// at least one completed attestation-type task with an approved decision
// (spec.md §4.D "G-attestation").
func (s *Service) HasAttestation(ctx context.Context, cycleID string) (bool, error) {
	tasks, err := s.repo.GetTasksForCycle(ctx, cycleID)
	if err != nil {
		return false, err
	}
	for _, t := range tasks {
		if t.Type == governance.AttestationTaskType && t.ContributesApproval() {
			return true, nil
		}
	}
	return false, nil
}
