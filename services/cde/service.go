// Package cde implements deterministic criticality scoring,
// threshold-based inventory inclusion, and per-dimension data-quality
// rule generation (spec.md §4.F).
package cde

import (
	"github.com/regulatory-governance/core/domain/governance"
	"github.com/regulatory-governance/core/infrastructure/audit"
	"github.com/regulatory-governance/core/infrastructure/logging"
	"github.com/regulatory-governance/core/infrastructure/repository"
)

// Service implements CDE scoring, inventory generation, and DQ rule
// generation. Scoring and rule generation are pure functions of their
// inputs (property P6); the Service only mediates persistence and audit.
type Service struct {
	repo           repository.Repository
	audit          *audit.Registry
	logger         *logging.Logger
	defaultWeights *governance.CDEWeights
}

// Config configures a cde Service.
type Config struct {
	Repository repository.Repository
	Audit      *audit.Registry
	Logger     *logging.Logger

	// DefaultWeights overrides the uniform 0.25-per-factor default, e.g.
	// from a tenant WeightsPolicy file. Nil keeps the spec default.
	DefaultWeights *governance.CDEWeights
}

// New creates a cde Service.
func New(cfg Config) *Service {
	return &Service{
		repo:           cfg.Repository,
		audit:          cfg.Audit,
		logger:         cfg.Logger,
		defaultWeights: cfg.DefaultWeights,
	}
}
