package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/regulatory-governance/core/domain/governance"
)

// InMemoryRepository is the in-memory reference implementation of
// Repository (spec.md §4.B). Safe for concurrent use; every operation is
// individually atomic, with no transactional semantics across families.
type InMemoryRepository struct {
	catalogMu sync.RWMutex
	catalog   *governance.ReportCatalog

	reports    *genericStore[governance.RegulatoryReport]
	inventories *genericStore[governance.CDEInventory] // keyed by reportID
	cdes       *genericStore[governance.CDE]
	dqRules    *genericStore[governance.DQRule]
	lineage    *genericStore[governance.LineageGraph] // keyed by reportID
	controls   *genericStore[governance.ControlMatrix] // keyed by reportID
	controlByID *genericStore[string]                   // controlID -> reportID
	issues     *genericStore[governance.Issue]
	cycles     *genericStore[governance.CycleInstance]
	tasks      *genericStore[governance.HumanTask]
}

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		reports:     newGenericStore[governance.RegulatoryReport](),
		inventories: newGenericStore[governance.CDEInventory](),
		cdes:        newGenericStore[governance.CDE](),
		dqRules:     newGenericStore[governance.DQRule](),
		lineage:     newGenericStore[governance.LineageGraph](),
		controls:    newGenericStore[governance.ControlMatrix](),
		controlByID: newGenericStore[string](),
		issues:      newGenericStore[governance.Issue](),
		cycles:      newGenericStore[governance.CycleInstance](),
		tasks:       newGenericStore[governance.HumanTask](),
	}
}

// SeedReport registers a report directly, used by callers that manage the
// report catalog outside of scanSources/updateCatalog (tests, bootstrap).
func (r *InMemoryRepository) SeedReport(report governance.RegulatoryReport) {
	r.reports.set(report.ID, report.Clone())
}

// ==================== Report Catalog ====================

func (r *InMemoryRepository) GetCatalog(ctx context.Context) (*governance.ReportCatalog, error) {
	r.catalogMu.RLock()
	defer r.catalogMu.RUnlock()
	if r.catalog == nil {
		return nil, nil
	}
	c := r.catalog.Clone()
	return &c, nil
}

func (r *InMemoryRepository) SetCatalog(ctx context.Context, catalog governance.ReportCatalog) error {
	r.catalogMu.Lock()
	defer r.catalogMu.Unlock()
	c := catalog.Clone()
	r.catalog = &c
	for _, rep := range catalog.Reports {
		r.reports.set(rep.ID, rep.Clone())
	}
	return nil
}

func (r *InMemoryRepository) GetReport(ctx context.Context, reportID string) (*governance.RegulatoryReport, error) {
	v, err := r.reports.get("report", reportID)
	if err != nil {
		return nil, nil //nolint:nilerr // absent optional per spec.md §4.B
	}
	out := v.Clone()
	return &out, nil
}

// ==================== CDE Inventory ====================

func (r *InMemoryRepository) GetCDEInventory(ctx context.Context, reportID string) (*governance.CDEInventory, error) {
	v, err := r.inventories.get("cde_inventory", reportID)
	if err != nil {
		return nil, nil
	}
	out := v.Clone()
	return &out, nil
}

func (r *InMemoryRepository) SetCDEInventory(ctx context.Context, reportID string, inventory governance.CDEInventory) error {
	r.inventories.set(reportID, inventory.Clone())
	for _, cde := range inventory.Elements {
		r.cdes.set(cde.ID, cde)
	}
	return nil
}

func (r *InMemoryRepository) GetCDE(ctx context.Context, cdeID string) (*governance.CDE, error) {
	v, err := r.cdes.get("cde", cdeID)
	if err != nil {
		return nil, nil
	}
	return &v, nil
}

func (r *InMemoryRepository) UpdateCDE(ctx context.Context, cde governance.CDE) error {
	r.cdes.set(cde.ID, cde)
	return nil
}

// ==================== DQ Rules ====================

func (r *InMemoryRepository) GetDQRules(ctx context.Context, cdeID string) ([]governance.DQRule, error) {
	rules := r.dqRules.list(func(rule governance.DQRule) bool {
		return cdeID == "" || rule.CDEID == cdeID
	})
	sort.Slice(rules, func(i, j int) bool { return rules[i].ID < rules[j].ID })
	return rules, nil
}

func (r *InMemoryRepository) GetDQRule(ctx context.Context, ruleID string) (*governance.DQRule, error) {
	v, err := r.dqRules.get("dq_rule", ruleID)
	if err != nil {
		return nil, nil
	}
	return &v, nil
}

func (r *InMemoryRepository) AddDQRule(ctx context.Context, rule governance.DQRule) error {
	r.dqRules.set(rule.ID, rule)
	return nil
}

func (r *InMemoryRepository) UpdateDQRule(ctx context.Context, rule governance.DQRule) error {
	return r.dqRules.update("dq_rule", rule.ID, rule)
}

func (r *InMemoryRepository) DeleteDQRule(ctx context.Context, ruleID string) (bool, error) {
	return r.dqRules.delete(ruleID), nil
}

// ==================== Lineage ====================

func (r *InMemoryRepository) GetLineageGraph(ctx context.Context, reportID string) (*governance.LineageGraph, error) {
	v, err := r.lineage.get("lineage_graph", reportID)
	if err != nil {
		return nil, nil
	}
	out := v.Clone()
	return &out, nil
}

func (r *InMemoryRepository) SetLineageGraph(ctx context.Context, reportID string, graph governance.LineageGraph) error {
	r.lineage.set(reportID, graph.Clone())
	return nil
}

// ==================== Controls ====================

func (r *InMemoryRepository) GetControlMatrix(ctx context.Context, reportID string) (*governance.ControlMatrix, error) {
	v, err := r.controls.get("control_matrix", reportID)
	if err != nil {
		return nil, nil
	}
	out := v.Clone()
	return &out, nil
}

func (r *InMemoryRepository) SetControlMatrix(ctx context.Context, reportID string, matrix governance.ControlMatrix) error {
	r.controls.set(reportID, matrix.Clone())
	for id := range matrix.Controls {
		r.controlByID.set(id, reportID)
	}
	return nil
}

func (r *InMemoryRepository) GetControl(ctx context.Context, controlID string) (*governance.Control, error) {
	reportID, err := r.controlByID.get("control", controlID)
	if err != nil {
		return nil, nil
	}
	matrix, err := r.controls.get("control_matrix", reportID)
	if err != nil {
		return nil, nil
	}
	c, ok := matrix.Controls[controlID]
	if !ok {
		return nil, nil
	}
	out := c.Clone()
	return &out, nil
}

func (r *InMemoryRepository) UpdateControl(ctx context.Context, control governance.Control) error {
	matrix, err := r.controls.get("control_matrix", control.ReportID)
	if err != nil {
		matrix = governance.ControlMatrix{ReportID: control.ReportID, Controls: make(map[string]governance.Control)}
	}
	matrix = matrix.Clone()
	if matrix.Controls == nil {
		matrix.Controls = make(map[string]governance.Control)
	}
	matrix.Controls[control.ID] = control.Clone()
	r.controls.set(control.ReportID, matrix)
	r.controlByID.set(control.ID, control.ReportID)
	return nil
}

func (r *InMemoryRepository) AddControlEvidence(ctx context.Context, controlID string, evidence governance.ControlEvidence) error {
	reportID, err := r.controlByID.get("control", controlID)
	if err != nil {
		return &NotFoundErr{Entity: "control", ID: controlID}
	}
	matrix, err := r.controls.get("control_matrix", reportID)
	if err != nil {
		return &NotFoundErr{Entity: "control_matrix", ID: reportID}
	}
	matrix = matrix.Clone()
	c, ok := matrix.Controls[controlID]
	if !ok {
		return &NotFoundErr{Entity: "control", ID: controlID}
	}
	c.Evidence = append(c.Evidence, evidence)
	matrix.Controls[controlID] = c
	r.controls.set(reportID, matrix)
	return nil
}

// ==================== Issues ====================

func (r *InMemoryRepository) GetIssues(ctx context.Context, filters governance.IssueFilters) ([]governance.Issue, error) {
	issues := r.issues.list(func(i governance.Issue) bool { return filters.Matches(i) })
	sort.Slice(issues, func(i, j int) bool { return issues[i].ID < issues[j].ID })
	return issues, nil
}

func (r *InMemoryRepository) GetIssue(ctx context.Context, issueID string) (*governance.Issue, error) {
	v, err := r.issues.get("issue", issueID)
	if err != nil {
		return nil, nil
	}
	out := v.Clone()
	return &out, nil
}

func (r *InMemoryRepository) CreateIssue(ctx context.Context, issue governance.Issue) (governance.Issue, error) {
	if err := r.issues.create("issue", issue.ID, issue.Clone()); err != nil {
		return governance.Issue{}, err
	}
	return issue.Clone(), nil
}

func (r *InMemoryRepository) UpdateIssue(ctx context.Context, issue governance.Issue) error {
	return r.issues.update("issue", issue.ID, issue.Clone())
}

func (r *InMemoryRepository) DeleteIssue(ctx context.Context, issueID string) (bool, error) {
	return r.issues.delete(issueID), nil
}

// ==================== Workflow ====================

func (r *InMemoryRepository) GetCycleInstance(ctx context.Context, cycleID string) (*governance.CycleInstance, error) {
	v, err := r.cycles.get("cycle", cycleID)
	if err != nil {
		return nil, nil
	}
	out := v.Clone()
	return &out, nil
}

func (r *InMemoryRepository) CreateCycleInstance(ctx context.Context, cycle governance.CycleInstance) (governance.CycleInstance, error) {
	if err := r.cycles.create("cycle", cycle.ID, cycle.Clone()); err != nil {
		return governance.CycleInstance{}, err
	}
	return cycle.Clone(), nil
}

func (r *InMemoryRepository) UpdateCycleInstance(ctx context.Context, cycle governance.CycleInstance) error {
	return r.cycles.update("cycle", cycle.ID, cycle.Clone())
}

func (r *InMemoryRepository) GetActiveCycles(ctx context.Context, reportID string) ([]governance.CycleInstance, error) {
	cycles := r.cycles.list(func(c governance.CycleInstance) bool {
		if c.Status != governance.CycleStatusActive {
			return false
		}
		return reportID == "" || c.ReportID == reportID
	})
	sort.Slice(cycles, func(i, j int) bool { return cycles[i].ID < cycles[j].ID })
	return cycles, nil
}

func (r *InMemoryRepository) GetHumanTask(ctx context.Context, taskID string) (*governance.HumanTask, error) {
	v, err := r.tasks.get("human_task", taskID)
	if err != nil {
		return nil, nil
	}
	out := v.Clone()
	return &out, nil
}

func (r *InMemoryRepository) CreateHumanTask(ctx context.Context, task governance.HumanTask) (governance.HumanTask, error) {
	if err := r.tasks.create("human_task", task.ID, task.Clone()); err != nil {
		return governance.HumanTask{}, err
	}
	return task.Clone(), nil
}

func (r *InMemoryRepository) UpdateHumanTask(ctx context.Context, task governance.HumanTask) error {
	return r.tasks.update("human_task", task.ID, task.Clone())
}

func (r *InMemoryRepository) GetTasksForCycle(ctx context.Context, cycleID string) ([]governance.HumanTask, error) {
	tasks := r.tasks.list(func(t governance.HumanTask) bool {
		return cycleID == "" || t.CycleID == cycleID
	})
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	return tasks, nil
}

func (r *InMemoryRepository) GetPendingTasks(ctx context.Context, assignedRole, cycleID string) ([]governance.HumanTask, error) {
	tasks := r.tasks.list(func(t governance.HumanTask) bool {
		if t.Status != governance.HumanTaskStatusPending {
			return false
		}
		if assignedRole != "" && t.AssignedRole != assignedRole {
			return false
		}
		if cycleID != "" && t.CycleID != cycleID {
			return false
		}
		return true
	})
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	return tasks, nil
}

var _ Repository = (*InMemoryRepository)(nil)
