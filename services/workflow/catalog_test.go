package workflow

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

func TestApprovalHappyPath(t *testing.T) {
	ctx := context.Background()
	svc, repo, reg := newTestService()

	if err := repo.SetCatalog(ctx, governance.NewReportCatalog()); err != nil {
		t.Fatalf("set catalog: %v", err)
	}

	if _, err := svc.SubmitForReview(ctx, "alice"); err != nil {
		t.Fatalf("submit for review: %v", err)
	}
	catalog, err := svc.ApproveCatalog(ctx, "bob", "ok", "")
	if err != nil {
		t.Fatalf("approve catalog: %v", err)
	}
	if catalog.Status != governance.CatalogStatusApproved {
		t.Fatalf("expected approved, got %s", catalog.Status)
	}
	if catalog.ApprovedBy != "bob" {
		t.Fatalf("expected approved_by bob, got %s", catalog.ApprovedBy)
	}

	entries := reg.For("").GetEntries(governance.AuditFilters{})
	if len(entries) != 2 {
		t.Fatalf("expected 2 audit entries, got %d", len(entries))
	}
	// Most recent first.
	if entries[0].Action != "approve_catalog" || entries[1].Action != "submit_for_review" {
		t.Fatalf("unexpected audit order: %s, %s", entries[0].Action, entries[1].Action)
	}
}

func TestApproveCatalogFailsFromDraft(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService()
	_ = repo.SetCatalog(ctx, governance.NewReportCatalog())

	_, err := svc.ApproveCatalog(ctx, "bob", "ok", "")
	if goverrors.GetKind(err) != goverrors.KindInvalidState {
		t.Fatalf("expected invalid_state, got %v", err)
	}
}

func TestSubmitForReviewAllowedFromRejected(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService()
	catalog := governance.NewReportCatalog()
	catalog.Status = governance.CatalogStatusRejected
	_ = repo.SetCatalog(ctx, catalog)

	result, err := svc.SubmitForReview(ctx, "alice")
	if err != nil {
		t.Fatalf("submit for review from rejected: %v", err)
	}
	if result.Status != governance.CatalogStatusPendingReview {
		t.Fatalf("expected pending_review, got %s", result.Status)
	}
}

func TestModifyCatalogResetsApprovedToDraft(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService()
	catalog := governance.NewReportCatalog()
	catalog.Status = governance.CatalogStatusApproved
	catalog.ApprovedBy = "bob"
	_ = repo.SetCatalog(ctx, catalog)

	result, err := svc.ModifyCatalog(ctx, "alice", []CatalogChangeOp{
		{Op: "add", Report: governance.RegulatoryReport{ID: "r1", Name: "Report 1"}},
	})
	if err != nil {
		t.Fatalf("modify catalog: %v", err)
	}
	if result.Status != governance.CatalogStatusDraft {
		t.Fatalf("expected reset to draft, got %s", result.Status)
	}
	if result.ApprovedBy != "" {
		t.Fatalf("expected approved_by cleared, got %s", result.ApprovedBy)
	}
	if result.Version != 2 {
		t.Fatalf("expected version bumped to 2, got %d", result.Version)
	}
}
