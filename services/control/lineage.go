package control

import (
	"context"

	"github.com/regulatory-governance/core/domain/governance"
	"github.com/regulatory-governance/core/infrastructure/errors"
	"github.com/regulatory-governance/core/internal/tenantctx"
)

// GetLineageGraph returns reportID's lineage graph, or nil if none has
// been recorded yet.
func (s *Service) GetLineageGraph(ctx context.Context, reportID string) (*governance.LineageGraph, error) {
	return s.repo.GetLineageGraph(ctx, reportID)
}

// UpdateLineage replaces reportID's lineage graph wholesale (SPEC_FULL.md
// §3: "populated ... via updateCatalog-style calls") and records the
// replacement to the audit chain. The out-of-scope lineage-mapping agent
// is the expected caller; this only accepts its output.
func (s *Service) UpdateLineage(ctx context.Context, actor, reportID string, graph governance.LineageGraph) (*governance.LineageGraph, error) {
	tenantID := tenantctx.ResolveTenantID(ctx, "")
	actor = tenantctx.ResolveActor(ctx, actor)

	if reportID == "" {
		return nil, errors.InvariantViolation("lineageGraph.reportId", "must not be empty")
	}
	for _, edge := range graph.Edges {
		if edge.FromID == "" || edge.ToID == "" {
			return nil, errors.InvariantViolation("lineageGraph.edge", "fromId and toId must not be empty")
		}
	}
	graph.ReportID = reportID

	existing, err := s.repo.GetLineageGraph(ctx, reportID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.SetLineageGraph(ctx, reportID, graph); err != nil {
		return nil, err
	}

	var previousState map[string]any
	if existing != nil {
		previousState = map[string]any{"node_count": len(existing.Nodes), "edge_count": len(existing.Edges)}
	}
	s.recordAudit(ctx, tenantID, actor, governance.ActorTypeAgent, "update_lineage", "lineage_graph", reportID,
		previousState, map[string]any{"node_count": len(graph.Nodes), "edge_count": len(graph.Edges)}, "")

	return &graph, nil
}
