// Package repository provides the abstract persistence surface for all
// governance entity families (spec.md §4.B) plus an in-memory reference
// implementation. Every returned value is an independent copy; mutating
// it never affects storage.
package repository

import (
	"context"
	"time"

	"github.com/regulatory-governance/core/domain/governance"
)

// ReportRepository stores regulatory reports and the singleton catalog.
type ReportRepository interface {
	GetCatalog(ctx context.Context) (*governance.ReportCatalog, error)
	SetCatalog(ctx context.Context, catalog governance.ReportCatalog) error
	GetReport(ctx context.Context, reportID string) (*governance.RegulatoryReport, error)
}

// CDERepository stores CDE inventories and individual CDEs.
type CDERepository interface {
	GetCDEInventory(ctx context.Context, reportID string) (*governance.CDEInventory, error)
	SetCDEInventory(ctx context.Context, reportID string, inventory governance.CDEInventory) error
	GetCDE(ctx context.Context, cdeID string) (*governance.CDE, error)
	UpdateCDE(ctx context.Context, cde governance.CDE) error
}

// DQRuleRepository stores data-quality rules.
type DQRuleRepository interface {
	GetDQRules(ctx context.Context, cdeID string) ([]governance.DQRule, error)
	GetDQRule(ctx context.Context, ruleID string) (*governance.DQRule, error)
	AddDQRule(ctx context.Context, rule governance.DQRule) error
	UpdateDQRule(ctx context.Context, rule governance.DQRule) error
	DeleteDQRule(ctx context.Context, ruleID string) (bool, error)
}

// LineageRepository stores per-report lineage graphs.
type LineageRepository interface {
	GetLineageGraph(ctx context.Context, reportID string) (*governance.LineageGraph, error)
	SetLineageGraph(ctx context.Context, reportID string, graph governance.LineageGraph) error
}

// ControlRepository stores per-report control matrices.
type ControlRepository interface {
	GetControlMatrix(ctx context.Context, reportID string) (*governance.ControlMatrix, error)
	SetControlMatrix(ctx context.Context, reportID string, matrix governance.ControlMatrix) error
	GetControl(ctx context.Context, controlID string) (*governance.Control, error)
	UpdateControl(ctx context.Context, control governance.Control) error
	AddControlEvidence(ctx context.Context, controlID string, evidence governance.ControlEvidence) error
}

// IssueRepository stores issues.
type IssueRepository interface {
	GetIssues(ctx context.Context, filters governance.IssueFilters) ([]governance.Issue, error)
	GetIssue(ctx context.Context, issueID string) (*governance.Issue, error)
	CreateIssue(ctx context.Context, issue governance.Issue) (governance.Issue, error)
	UpdateIssue(ctx context.Context, issue governance.Issue) error
	DeleteIssue(ctx context.Context, issueID string) (bool, error)
}

// WorkflowRepository stores cycle instances and human tasks.
// create is NOT idempotent on id collision: duplicate ids are rejected.
type WorkflowRepository interface {
	GetCycleInstance(ctx context.Context, cycleID string) (*governance.CycleInstance, error)
	CreateCycleInstance(ctx context.Context, cycle governance.CycleInstance) (governance.CycleInstance, error)
	UpdateCycleInstance(ctx context.Context, cycle governance.CycleInstance) error
	GetActiveCycles(ctx context.Context, reportID string) ([]governance.CycleInstance, error)

	GetHumanTask(ctx context.Context, taskID string) (*governance.HumanTask, error)
	CreateHumanTask(ctx context.Context, task governance.HumanTask) (governance.HumanTask, error)
	UpdateHumanTask(ctx context.Context, task governance.HumanTask) error
	GetPendingTasks(ctx context.Context, assignedRole, cycleID string) ([]governance.HumanTask, error)
	GetTasksForCycle(ctx context.Context, cycleID string) ([]governance.HumanTask, error)
}

// Repository composes every entity family's storage surface into one
// abstraction (spec.md §4.B).
type Repository interface {
	ReportRepository
	CDERepository
	DQRuleRepository
	LineageRepository
	ControlRepository
	IssueRepository
	WorkflowRepository
}

// NotFoundErr names the entity family/id that produced a not-found
// absence, used internally to build errors.NotFound at call sites.
type NotFoundErr struct {
	Entity string
	ID     string
}

func (e *NotFoundErr) Error() string {
	return e.Entity + " " + e.ID + " not found"
}

// clock is overridable in tests; defaults to time.Now.
var clock = time.Now
