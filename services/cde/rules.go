package cde

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/regulatory-governance/core/domain/governance"
)

// dimensionDefaults names the logic type, threshold shape, and default
// severity generated for each DQ dimension absent a customThreshold
// override (spec.md §4.F).
var dimensionDefaults = map[governance.DQDimension]struct {
	logicType   string
	thresholdTy string
	value       float64
	severity    governance.IssueSeverity
}{
	governance.DimCompleteness: {"null_check", "percentage", 0.98, governance.SeverityHigh},
	governance.DimAccuracy:     {"reference_match", "percentage", 0.95, governance.SeverityHigh},
	governance.DimValidity:     {"format_check", "percentage", 0.99, governance.SeverityMedium},
	governance.DimConsistency:  {"cross_field_check", "percentage", 0.97, governance.SeverityMedium},
	governance.DimTimeliness:   {"staleness_check", "percentage", 0.95, governance.SeverityMedium},
	governance.DimUniqueness:   {"duplicate_check", "percentage", 1.0, governance.SeverityHigh},
	governance.DimIntegrity:    {"referential_integrity", "percentage", 1.0, governance.SeverityCritical},
}

// GenerateDQRules emits exactly one enabled rule per requested dimension
// (default: all seven, property P8), each with a unique id and a
// non-empty name/description referencing cdeName.
func (s *Service) GenerateDQRules(ctx context.Context, cdeID, cdeName string, dimensions []governance.DQDimension, customThresholds map[governance.DQDimension]float64, owner string) ([]governance.DQRule, error) {
	if len(dimensions) == 0 {
		dimensions = governance.AllDQDimensions
	}

	rules := make([]governance.DQRule, 0, len(dimensions))
	for _, dim := range dimensions {
		defaults, ok := dimensionDefaults[dim]
		if !ok {
			defaults = dimensionDefaults[governance.DimCompleteness]
		}

		threshold := defaults.value
		if customThresholds != nil {
			if v, ok := customThresholds[dim]; ok {
				threshold = v
			}
		}

		rule := governance.DQRule{
			ID:          uuid.New().String(),
			CDEID:       cdeID,
			Dimension:   dim,
			Name:        fmt.Sprintf("%s %s rule", cdeName, dim),
			Description: fmt.Sprintf("Evaluates %s of %s against a %.2f threshold.", dim, cdeName, threshold),
			Logic: governance.DQRuleLogic{
				Type:       defaults.logicType,
				Expression: fmt.Sprintf("%s(%s) >= %.4f", defaults.logicType, cdeID, threshold),
			},
			Threshold: governance.DQThreshold{
				Type:  defaults.thresholdTy,
				Value: threshold,
			},
			Severity: defaults.severity,
			Owner:    owner,
			Enabled:  true,
		}

		if err := s.repo.AddDQRule(ctx, rule); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}

	s.recordAudit(ctx, "generate_dq_rules", "cde", cdeID,
		nil, map[string]any{"dimension_count": len(rules)}, "")

	return rules, nil
}
