package cde

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/regulatory-governance/core/domain/governance"
)

func TestLoadWeightsPolicyMissingFileIsNotError(t *testing.T) {
	policy, err := LoadWeightsPolicy(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.Nil(t, policy)
}

func TestLoadWeightsPolicyParsesOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weights.yaml")
	content := []byte(`
version: "1"
weights:
  regulatoryimpact: 0.4
  businessimpact: 0.3
  datasensitivity: 0.2
  usagefrequency: 0.1
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	policy, err := LoadWeightsPolicy(path)
	require.NoError(t, err)
	require.NotNil(t, policy)
	require.Equal(t, "1", policy.Version)
	require.InDelta(t, 0.4, policy.Weights.RegulatoryImpact, 1e-9)
	require.InDelta(t, 0.1, policy.Weights.UsageFrequency, 1e-9)
}

func TestScoreElementsFallsBackToServiceDefaultWeights(t *testing.T) {
	svc, _, _ := newTestService()
	svc.defaultWeights = &governance.CDEWeights{
		RegulatoryImpact: 0.4,
		BusinessImpact:   0.3,
		DataSensitivity:  0.2,
		UsageFrequency:   0.1,
	}

	elements := []governance.CandidateElement{
		{ID: "a", Name: "A", Factors: governance.CDEFactors{
			RegulatoryImpact: 1, BusinessImpact: 1, DataSensitivity: 1, UsageFrequency: 1,
		}},
	}

	scores := svc.ScoreElements(elements, nil)
	require.Len(t, scores, 1)
	require.InDelta(t, 1.0, scores[0].Overall, 1e-9)
	require.Equal(t, *svc.defaultWeights, scores[0].Weights)
}
