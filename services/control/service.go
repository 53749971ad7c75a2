// Package control implements the control-matrix and data-lineage
// supplements (SPEC_FULL.md §3): queryable governance artifacts the
// repository stores and the audit chain records mutations of. Neither
// gates the cycle state machine; both are populated and read out of
// band from it.
package control

import (
	"github.com/regulatory-governance/core/infrastructure/audit"
	"github.com/regulatory-governance/core/infrastructure/logging"
	"github.com/regulatory-governance/core/infrastructure/repository"
)

// Service implements control-matrix and lineage operations over a
// Repository, recording every mutation to the audit chain.
type Service struct {
	repo   repository.Repository
	audit  *audit.Registry
	logger *logging.Logger
}

// Config configures a control Service.
type Config struct {
	Repository repository.Repository
	Audit      *audit.Registry
	Logger     *logging.Logger
}

// New creates a control Service.
func New(cfg Config) *Service {
	return &Service{
		repo:   cfg.Repository,
		audit:  cfg.Audit,
		logger: cfg.Logger,
	}
}
