package control

import (
	"context"
	"testing"

	"github.com/regulatory-governance/core/domain/governance"
	goverrors "github.com/regulatory-governance/core/infrastructure/errors"
)

func TestUpdateLineageReplacesGraphAndRecordsAudit(t *testing.T) {
	ctx := context.Background()
	svc, _, reg := newTestService()

	graph, err := svc.UpdateLineage(ctx, "lineage-agent", "r1", governance.LineageGraph{
		Nodes: []governance.LineageNode{{ID: "n1", Type: "source", Name: "core banking feed"}, {ID: "n2", Type: "cde", Name: "customer balance"}},
		Edges: []governance.LineageEdge{{FromID: "n1", ToID: "n2", Label: "daily extract"}},
	})
	if err != nil {
		t.Fatalf("update lineage: %v", err)
	}
	if graph.ReportID != "r1" {
		t.Fatalf("expected reportID to be set to r1, got %s", graph.ReportID)
	}
	if reg.For("").EntryCount() != 1 {
		t.Fatalf("expected 1 audit entry, got %d", reg.For("").EntryCount())
	}

	stored, err := svc.GetLineageGraph(ctx, "r1")
	if err != nil {
		t.Fatalf("get lineage graph: %v", err)
	}
	if len(stored.Nodes) != 2 || len(stored.Edges) != 1 {
		t.Fatalf("expected stored graph to match replacement, got %+v", stored)
	}

	// A second call wholesale-replaces the graph rather than merging.
	if _, err := svc.UpdateLineage(ctx, "lineage-agent", "r1", governance.LineageGraph{
		Nodes: []governance.LineageNode{{ID: "n3", Type: "source", Name: "new feed"}},
	}); err != nil {
		t.Fatalf("update lineage (replace): %v", err)
	}
	stored, err = svc.GetLineageGraph(ctx, "r1")
	if err != nil {
		t.Fatalf("get lineage graph: %v", err)
	}
	if len(stored.Nodes) != 1 || len(stored.Edges) != 0 {
		t.Fatalf("expected replacement graph to drop prior nodes/edges, got %+v", stored)
	}
	if reg.For("").EntryCount() != 2 {
		t.Fatalf("expected 2 audit entries after replacement, got %d", reg.For("").EntryCount())
	}
}

func TestUpdateLineageRejectsDanglingEdge(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()

	_, err := svc.UpdateLineage(ctx, "lineage-agent", "r1", governance.LineageGraph{
		Edges: []governance.LineageEdge{{FromID: "", ToID: "n1"}},
	})
	if goverrors.GetKind(err) != goverrors.KindInvariantViolation {
		t.Fatalf("expected invariant_violation error, got %v", err)
	}
}
