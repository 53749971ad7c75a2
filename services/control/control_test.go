package control

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

func TestUpdateControlUpsertsAndRecordsAudit(t *testing.T) {
	ctx := context.Background()
	svc, _, reg := newTestService()

	created, err := svc.UpdateControl(ctx, "alice", governance.Control{
		ID:       "c1",
		ReportID: "r1",
		Name:     "Reconciliation review",
		Category: "reconciliation",
		Owner:    "finance-ops",
	})
	if err != nil {
		t.Fatalf("update control: %v", err)
	}
	if created.Status != governance.ControlStatusDesigned {
		t.Fatalf("expected default status designed, got %s", created.Status)
	}

	matrix, err := svc.GetControlMatrix(ctx, "r1")
	if err != nil {
		t.Fatalf("get control matrix: %v", err)
	}
	if _, ok := matrix.Controls["c1"]; !ok {
		t.Fatal("expected control to be present in matrix")
	}

	if reg.For("").EntryCount() != 1 {
		t.Fatalf("expected 1 audit entry, got %d", reg.For("").EntryCount())
	}

	updated, err := svc.UpdateControl(ctx, "alice", governance.Control{
		ID:       "c1",
		ReportID: "r1",
		Name:     "Reconciliation review",
		Category: "reconciliation",
		Owner:    "finance-ops",
		Status:   governance.ControlStatusOperating,
	})
	if err != nil {
		t.Fatalf("update control (status change): %v", err)
	}
	if updated.Status != governance.ControlStatusOperating {
		t.Fatalf("expected status operating, got %s", updated.Status)
	}
	if reg.For("").EntryCount() != 2 {
		t.Fatalf("expected 2 audit entries after second update, got %d", reg.For("").EntryCount())
	}
}

func TestUpdateControlRejectsUnknownStatus(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()

	_, err := svc.UpdateControl(ctx, "alice", governance.Control{
		ID:       "c1",
		ReportID: "r1",
		Status:   governance.ControlStatus("bogus"),
	})
	if goverrors.GetKind(err) != goverrors.KindInvariantViolation {
		t.Fatalf("expected invariant_violation error, got %v", err)
	}
}

func TestRecordControlEvidenceAppendsAndRecordsAudit(t *testing.T) {
	ctx := context.Background()
	svc, _, reg := newTestService()

	if _, err := svc.UpdateControl(ctx, "alice", governance.Control{ID: "c1", ReportID: "r1", Owner: "finance-ops"}); err != nil {
		t.Fatalf("update control: %v", err)
	}

	updated, err := svc.RecordControlEvidence(ctx, "bob", "c1", governance.ControlEvidence{
		Description: "signed reconciliation worksheet for Q2",
	})
	if err != nil {
		t.Fatalf("record control evidence: %v", err)
	}
	if len(updated.Evidence) != 1 {
		t.Fatalf("expected 1 evidence item, got %d", len(updated.Evidence))
	}
	if updated.Evidence[0].AttachedBy != "bob" {
		t.Fatalf("expected attachedBy bob, got %s", updated.Evidence[0].AttachedBy)
	}
	if updated.Evidence[0].ID == "" {
		t.Fatal("expected generated evidence id")
	}

	if reg.For("").EntryCount() != 2 {
		t.Fatalf("expected 2 audit entries (create + evidence), got %d", reg.For("").EntryCount())
	}
}

func TestRecordControlEvidenceUnknownControlFails(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()

	_, err := svc.RecordControlEvidence(ctx, "bob", "missing", governance.ControlEvidence{Description: "x"})
	if goverrors.GetKind(err) != goverrors.KindNotFound {
		t.Fatalf("expected not_found error, got %v", err)
	}
}
