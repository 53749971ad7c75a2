package governance

import "time"

// CyclePhase is one step in the linear phase sequence within an active cycle.
type CyclePhase string

const (
	PhaseDataGathering CyclePhase = "data_gathering"
	PhaseValidation    CyclePhase = "validation"
	PhaseReview        CyclePhase = "review"
	PhaseApproval      CyclePhase = "approval"
	PhaseSubmission    CyclePhase = "submission"
)

// phaseOrder is the fixed linear ordering phases must advance through (I2).
var phaseOrder = []CyclePhase{
	PhaseDataGathering,
	PhaseValidation,
	PhaseReview,
	PhaseApproval,
	PhaseSubmission,
}

// PhaseIndex returns the position of a phase in the fixed ordering, or -1
// if the phase is not recognized.
func PhaseIndex(p CyclePhase) int {
	for i, v := range phaseOrder {
		if v == p {
			return i
		}
	}
	return -1
}

// NextPhase returns the phase following p, and false if p is the last phase.
func NextPhase(p CyclePhase) (CyclePhase, bool) {
	idx := PhaseIndex(p)
	if idx < 0 || idx+1 >= len(phaseOrder) {
		return "", false
	}
	return phaseOrder[idx+1], true
}

// CycleStatus is the overall lifecycle state of a CycleInstance.
type CycleStatus string

const (
	CycleStatusActive    CycleStatus = "active"
	CycleStatusPaused    CycleStatus = "paused"
	CycleStatusCompleted CycleStatus = "completed"
	CycleStatusFailed    CycleStatus = "failed"
)

// CheckpointStatus tracks whether a phase's approval set has closed.
type CheckpointStatus string

const (
	CheckpointStatusPending   CheckpointStatus = "pending"
	CheckpointStatusCompleted CheckpointStatus = "completed"
)

// Checkpoint is a per-phase approval-set whose closure is a precondition
// for advancing to the next phase.
type Checkpoint struct {
	Phase               CyclePhase
	RequiredApprovals   map[string]struct{}
	CompletedApprovals  map[string]struct{}
	Status              CheckpointStatus
}

// NewCheckpoint creates a pending checkpoint for the given phase with the
// given required approval roles.
func NewCheckpoint(phase CyclePhase, required ...string) Checkpoint {
	req := make(map[string]struct{}, len(required))
	for _, r := range required {
		req[r] = struct{}{}
	}
	return Checkpoint{
		Phase:              phase,
		RequiredApprovals:  req,
		CompletedApprovals: make(map[string]struct{}),
		Status:             CheckpointStatusPending,
	}
}

// IsSatisfied returns true when every required approval role has been
// completed, i.e. RequiredApprovals ⊆ CompletedApprovals.
func (c Checkpoint) IsSatisfied() bool {
	for role := range c.RequiredApprovals {
		if _, ok := c.CompletedApprovals[role]; !ok {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the checkpoint.
func (c Checkpoint) Clone() Checkpoint {
	out := c
	out.RequiredApprovals = cloneSet(c.RequiredApprovals)
	out.CompletedApprovals = cloneSet(c.CompletedApprovals)
	return out
}

func cloneSet(m map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(m))
	for k := range m {
		out[k] = struct{}{}
	}
	return out
}

// CycleInstance tracks a single multi-phase report cycle.
//
// Invariant I2: CurrentPhase may advance only in the fixed order and
// requires the current phase's checkpoint Status=Completed with all
// RequiredApprovals satisfied.
type CycleInstance struct {
	ID           string
	ReportID     string
	PeriodEnd    time.Time
	Status       CycleStatus
	CurrentPhase CyclePhase
	Checkpoints  map[CyclePhase]Checkpoint
	StartedAt    time.Time
	PauseReason  string
}

// NewCycleInstance creates a cycle in the active state starting at the
// first phase, with one pending checkpoint per phase.
func NewCycleInstance(id, reportID string, periodEnd, now time.Time) CycleInstance {
	checkpoints := make(map[CyclePhase]Checkpoint, len(phaseOrder))
	for _, p := range phaseOrder {
		checkpoints[p] = NewCheckpoint(p)
	}
	return CycleInstance{
		ID:           id,
		ReportID:     reportID,
		PeriodEnd:    periodEnd,
		Status:       CycleStatusActive,
		CurrentPhase: PhaseDataGathering,
		Checkpoints:  checkpoints,
		StartedAt:    now,
	}
}

// Clone returns a deep, independent copy of the cycle instance.
func (c CycleInstance) Clone() CycleInstance {
	out := c
	out.Checkpoints = make(map[CyclePhase]Checkpoint, len(c.Checkpoints))
	for k, v := range c.Checkpoints {
		out.Checkpoints[k] = v.Clone()
	}
	return out
}

// ReachedPhase reports whether the cycle has progressed at least as far
// as the given phase (current phase is greater-or-equal in the fixed
// ordering). Checkpoint status is not consulted.
func (c CycleInstance) ReachedPhase(p CyclePhase) bool {
	return PhaseIndex(c.CurrentPhase) >= PhaseIndex(p)
}

// CheckpointCompleted reports whether the checkpoint for the given phase
// has status Completed.
func (c CycleInstance) CheckpointCompleted(p CyclePhase) bool {
	cp, ok := c.Checkpoints[p]
	return ok && cp.Status == CheckpointStatusCompleted
}
