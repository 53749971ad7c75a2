package cde

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/regulatory-governance/core/domain/governance"
	"github.com/regulatory-governance/core/infrastructure/audit"
	"github.com/regulatory-governance/core/infrastructure/repository"
)

func newTestService() (*Service, *repository.InMemoryRepository, *audit.Registry) {
	repo := repository.NewInMemoryRepository()
	reg := audit.NewRegistry()
	svc := New(Config{Repository: repo, Audit: reg})
	return svc, repo, reg
}

func TestScoreElementsDeterministic(t *testing.T) {
	svc, _, _ := newTestService()

	factors := governance.CDEFactors{
		RegulatoryImpact: 0.8,
		BusinessImpact:   0.6,
		DataSensitivity:  0.9,
		UsageFrequency:   0.7,
	}
	elements := []governance.CandidateElement{
		{ID: "a", Name: "Element A", Factors: factors},
		{ID: "b", Name: "Element B", Factors: factors},
	}

	scores := svc.ScoreElements(elements, nil)
	require.Len(t, scores, 2)
	require.Equal(t, scores[0].Overall, scores[1].Overall, "identical factors should produce identical overall")
	require.InDelta(t, 0.75, scores[0].Overall, 1e-9)
}

func TestGenerateCDEInventoryThresholdInclusion(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService()

	scores := []governance.CDEScore{
		{ElementID: "a", ElementName: "A", Overall: 0.9},
		{ElementID: "b", ElementName: "B", Overall: 0.2},
	}

	inv, err := svc.GenerateCDEInventory(ctx, "r1", scores, 0.5, true)
	require.NoError(t, err)
	require.Len(t, inv.Elements, 1)
	require.Equal(t, "A", inv.Elements[0].Name)
	require.NotEmpty(t, inv.Elements[0].CriticalityRationale)

	stored, err := repo.GetCDEInventory(ctx, "r1")
	require.NoError(t, err)
	require.NotNil(t, stored)
}

func TestGenerateDQRulesDefaultsToAllSevenDimensions(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()

	rules, err := svc.GenerateDQRules(ctx, "cde-1", "Customer ID", nil, nil, "data-steward")
	if err != nil {
		t.Fatalf("generate dq rules: %v", err)
	}
	if len(rules) != len(governance.AllDQDimensions) {
		t.Fatalf("expected %d rules, got %d", len(governance.AllDQDimensions), len(rules))
	}

	seen := map[string]bool{}
	for _, r := range rules {
		if !r.Enabled {
			t.Fatalf("expected rule for %s to be enabled", r.Dimension)
		}
		if r.Name == "" || r.Description == "" {
			t.Fatalf("expected non-empty name/description for %s", r.Dimension)
		}
		if seen[r.ID] {
			t.Fatalf("expected unique rule ids, duplicate %s", r.ID)
		}
		seen[r.ID] = true
	}
}

func TestGenerateDQRulesCustomDimensionSubset(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()

	rules, err := svc.GenerateDQRules(ctx, "cde-2", "Account Balance",
		[]governance.DQDimension{governance.DimCompleteness, governance.DimAccuracy}, nil, "owner")
	if err != nil {
		t.Fatalf("generate dq rules: %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(rules))
	}
}
