package cde

import "github.com/regulatory-governance/core/domain/governance"

// ScoreElements computes a deterministic CDEScore for every candidate
// element. A nil weights pointer falls back to the service's configured
// default weights (a tenant weights policy if one was loaded, else the
// uniform 0.25-per-factor weighting, spec.md §4.F). Identical factors and
// weights always produce a bit-identical Overall (property P6) because
// ComputeOverall is a pure weighted sum with no nondeterministic or
// learned component.
func (s *Service) ScoreElements(elements []governance.CandidateElement, weights *governance.CDEWeights) []governance.CDEScore {
	w := governance.DefaultCDEWeights()
	if s.defaultWeights != nil {
		w = *s.defaultWeights
	}
	if weights != nil {
		w = *weights
	}

	scores := make([]governance.CDEScore, len(elements))
	for i, el := range elements {
		scores[i] = governance.CDEScore{
			ElementID:   el.ID,
			ElementName: el.Name,
			Factors:     el.Factors,
			Weights:     w,
			Overall:     governance.ComputeOverall(el.Factors, w),
		}
	}
	return scores
}
