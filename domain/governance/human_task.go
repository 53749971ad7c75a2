package governance

import "time"

// HumanTaskStatus tracks the lifecycle of a human task.
type HumanTaskStatus string

const (
	HumanTaskStatusPending    HumanTaskStatus = "pending"
	HumanTaskStatusInProgress HumanTaskStatus = "in_progress"
	HumanTaskStatusCompleted  HumanTaskStatus = "completed"
)

// TaskDecisionOutcome is the result of a completed human task.
type TaskDecisionOutcome string

const (
	DecisionApproved             TaskDecisionOutcome = "approved"
	DecisionRejected             TaskDecisionOutcome = "rejected"
	DecisionApprovedWithChanges  TaskDecisionOutcome = "approved_with_changes"
)

// AttestationTaskType marks a human task as gating submission-phase
// finalization (G-attestation, spec.md §4.D).
const AttestationTaskType = "attestation"

// TaskDecision records the outcome of a completed human task.
//
// Invariant I3: HumanTask.Status == Completed implies Decision != nil.
type TaskDecision struct {
	Outcome     TaskDecisionOutcome
	Rationale   string
	CompletedBy string
	CompletedAt time.Time
}

// HumanTask is a unit of work assigned to a person within a cycle.
type HumanTask struct {
	ID           string
	CycleID      string
	Type         string
	Title        string
	AssignedTo   string
	AssignedRole string
	DueDate      time.Time
	Status       HumanTaskStatus
	Decision     *TaskDecision
}

// Clone returns an independent copy of the task.
func (t HumanTask) Clone() HumanTask {
	out := t
	if t.Decision != nil {
		d := *t.Decision
		out.Decision = &d
	}
	return out
}

// ContributesApproval reports whether a completed task's decision
// contributes the assigned role to its checkpoint's CompletedApprovals
// (spec.md §4.D: "contributes... iff outcome=approved").
func (t HumanTask) ContributesApproval() bool {
	return t.Status == HumanTaskStatusCompleted &&
		t.Decision != nil &&
		t.Decision.Outcome == DecisionApproved
}
