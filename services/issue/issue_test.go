package issue

import (
	"context"
	"testing"

	"github.com/regulatory-governance/core/domain/governance"
	"github.com/regulatory-governance/core/infrastructure/audit"
	goverrors "github.com/regulatory-governance/core/infrastructure/errors"
	"github.com/regulatory-governance/core/infrastructure/repository"
)

func newTestService() (*Service, *repository.InMemoryRepository, *audit.Registry) {
	repo := repository.NewInMemoryRepository()
	reg := audit.NewRegistry()
	svc := New(Config{Repository: repo, Audit: reg})
	return svc, repo, reg
}

func TestCreateIssueGeneratesIDAndDefaultsOpen(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()

	created, err := svc.CreateIssue(ctx, governance.Issue{Title: "bad data", Severity: governance.SeverityHigh})
	if err != nil {
		t.Fatalf("create issue: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected generated id")
	}
	if created.Status != governance.IssueStatusOpen {
		t.Fatalf("expected open status, got %s", created.Status)
	}
}

func TestResolveIssueFourEyesViolation(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()

	created, err := svc.CreateIssue(ctx, governance.Issue{ID: "i1", Title: "t", Severity: governance.SeverityMedium})
	if err != nil {
		t.Fatalf("create issue: %v", err)
	}

	_, resolveErr := svc.ResolveIssue(ctx, created.ID, "data_correction", "desc", "u", "u")
	if goverrors.GetKind(resolveErr) != goverrors.KindInvariantViolation {
		t.Fatalf("expected invariant_violation, got %v", resolveErr)
	}

	after, err := svc.repo.GetIssue(ctx, created.ID)
	if err != nil {
		t.Fatalf("get issue: %v", err)
	}
	if after.Status != governance.IssueStatusOpen {
		t.Fatalf("expected issue to remain open, got %s", after.Status)
	}
	if after.Resolution != nil {
		t.Fatal("expected no resolution to be set")
	}
}

func TestResolveIssueSucceedsWithDistinctActors(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()

	created, err := svc.CreateIssue(ctx, governance.Issue{ID: "i2", Title: "t", Severity: governance.SeverityLow})
	if err != nil {
		t.Fatalf("create issue: %v", err)
	}

	resolved, err := svc.ResolveIssue(ctx, created.ID, "data_correction", "desc", "alice", "bob")
	if err != nil {
		t.Fatalf("resolve issue: %v", err)
	}
	if resolved.Status != governance.IssueStatusResolved {
		t.Fatalf("expected resolved, got %s", resolved.Status)
	}
	if resolved.Resolution == nil || resolved.Resolution.ImplementedBy == resolved.Resolution.VerifiedBy {
		t.Fatal("expected distinct implementedBy/verifiedBy")
	}
}

func TestEscalateIssueEmitsNotificationOnlyForCritical(t *testing.T) {
	ctx := context.Background()
	svc, _, reg := newTestService()

	critical, err := svc.CreateIssue(ctx, governance.Issue{ID: "crit", Severity: governance.SeverityCritical})
	if err != nil {
		t.Fatalf("create critical issue: %v", err)
	}
	medium, err := svc.CreateIssue(ctx, governance.Issue{ID: "med", Severity: governance.SeverityMedium})
	if err != nil {
		t.Fatalf("create medium issue: %v", err)
	}

	if _, err := svc.EscalateIssue(ctx, critical.ID, "carol", "regulatory deadline risk"); err != nil {
		t.Fatalf("escalate critical: %v", err)
	}
	if _, err := svc.EscalateIssue(ctx, medium.ID, "carol", "routine check-in"); err != nil {
		t.Fatalf("escalate medium: %v", err)
	}

	entries := reg.For("").GetEntries(governance.AuditFilters{})
	var notifications int
	for _, e := range entries {
		if e.Action == "notify_senior_management" {
			notifications++
			if e.EntityID != critical.ID {
				t.Fatalf("expected notification for critical issue only, got entity %s", e.EntityID)
			}
		}
	}
	if notifications != 1 {
		t.Fatalf("expected exactly 1 notification, got %d", notifications)
	}
}

func TestMetricsAggregatesOpenCountsAndResolutionTime(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()

	if _, err := svc.CreateIssue(ctx, governance.Issue{ID: "o1", Severity: governance.SeverityCritical}); err != nil {
		t.Fatalf("create o1: %v", err)
	}
	if _, err := svc.CreateIssue(ctx, governance.Issue{ID: "o2", Severity: governance.SeverityLow}); err != nil {
		t.Fatalf("create o2: %v", err)
	}
	resolvable, err := svc.CreateIssue(ctx, governance.Issue{ID: "r1", Severity: governance.SeverityHigh})
	if err != nil {
		t.Fatalf("create r1: %v", err)
	}
	if _, err := svc.ResolveIssue(ctx, resolvable.ID, "fix", "desc", "alice", "bob"); err != nil {
		t.Fatalf("resolve r1: %v", err)
	}

	metrics, err := svc.Metrics(ctx)
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	if metrics.OpenCount != 2 {
		t.Fatalf("expected 2 open issues, got %d", metrics.OpenCount)
	}
	if metrics.OpenBySeverity[governance.SeverityCritical] != 1 {
		t.Fatalf("expected 1 open critical issue, got %d", metrics.OpenBySeverity[governance.SeverityCritical])
	}
	if metrics.AvgResolutionTime < 0 {
		t.Fatalf("expected non-negative avg resolution time, got %v", metrics.AvgResolutionTime)
	}
}

func TestMetricsZeroWhenNoResolvedIssues(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()
	if _, err := svc.CreateIssue(ctx, governance.Issue{ID: "o1", Severity: governance.SeverityLow}); err != nil {
		t.Fatalf("create issue: %v", err)
	}

	metrics, err := svc.Metrics(ctx)
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	if metrics.AvgResolutionTime != 0 {
		t.Fatalf("expected zero avg resolution time, got %v", metrics.AvgResolutionTime)
	}
}
