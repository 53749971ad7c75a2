package cde

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/regulatory-governance/core/domain/governance"
)

// WeightsPolicy is the YAML-defined override for the default CDE scoring
// weights (spec.md §4.F), grounded on the same file-backed policy-config
// pattern the teacher uses for sandbox capability policies: a versioned
// document with a fallback when absent, not a required deployment input.
type WeightsPolicy struct {
	Version string                `yaml:"version"`
	Weights governance.CDEWeights `yaml:"weights"`
}

// LoadWeightsPolicy reads a WeightsPolicy from path. A missing file is not
// an error; callers should fall back to governance.DefaultCDEWeights().
func LoadWeightsPolicy(path string) (*WeightsPolicy, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("cde: read weights policy: %w", err)
	}

	var policy WeightsPolicy
	if err := yaml.Unmarshal(raw, &policy); err != nil {
		return nil, fmt.Errorf("cde: parse weights policy: %w", err)
	}
	return &policy, nil
}
