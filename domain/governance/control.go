package governance

import "time"

// ControlStatus tracks the operating status of a governance control.
type ControlStatus string

const (
	ControlStatusDesigned    ControlStatus = "designed"
	ControlStatusImplemented ControlStatus = "implemented"
	ControlStatusOperating   ControlStatus = "operating"
	ControlStatusRetired     ControlStatus = "retired"
)

// ControlEvidence is one piece of supporting evidence attached to a
// control (SPEC_FULL.md §3 supplement — queryable, not a cycle gate).
type ControlEvidence struct {
	ID          string
	Description string
	AttachedAt  time.Time
	AttachedBy  string
}

// Control is a governance control tracked against a report.
type Control struct {
	ID       string
	ReportID string
	Name     string
	Category string
	Owner    string
	Status   ControlStatus
	Evidence []ControlEvidence
}

// Clone returns an independent copy of the control.
func (c Control) Clone() Control {
	out := c
	out.Evidence = make([]ControlEvidence, len(c.Evidence))
	copy(out.Evidence, c.Evidence)
	return out
}

// ControlMatrix is the set of controls tracked for a report.
type ControlMatrix struct {
	ReportID string
	Controls map[string]Control
}

// Clone returns a deep, independent copy of the matrix.
func (m ControlMatrix) Clone() ControlMatrix {
	out := m
	out.Controls = make(map[string]Control, len(m.Controls))
	for k, v := range m.Controls {
		out.Controls[k] = v.Clone()
	}
	return out
}
