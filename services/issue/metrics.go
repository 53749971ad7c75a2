package issue

import (
	"context"
	"time"

	"github.com/regulatory-governance/core/domain/governance"
)

// Metrics aggregates issue counts and resolution latency (spec.md §4.E
// metrics()).
type Metrics struct {
	OpenCount         int
	OpenBySeverity    map[governance.IssueSeverity]int
	AvgResolutionTime time.Duration
}

// Metrics computes the current issue metrics snapshot across every issue
// in the repository.
func (s *Service) Metrics(ctx context.Context) (Metrics, error) {
	all, err := s.repo.GetIssues(ctx, governance.IssueFilters{})
	if err != nil {
		return Metrics{}, err
	}

	m := Metrics{OpenBySeverity: make(map[governance.IssueSeverity]int)}

	var resolvedCount int
	var totalResolution time.Duration

	for _, i := range all {
		if i.Status.IsOpen() {
			m.OpenCount++
			m.OpenBySeverity[i.Severity]++
		}
		if (i.Status == governance.IssueStatusResolved || i.Status == governance.IssueStatusClosed) && i.Resolution != nil {
			resolvedCount++
			totalResolution += i.Resolution.VerifiedAt.Sub(i.CreatedAt)
		}
	}

	if resolvedCount > 0 {
		m.AvgResolutionTime = totalResolution / time.Duration(resolvedCount)
	}

	return m, nil
}
