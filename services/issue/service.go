// Package issue implements the severity-indexed issue store, escalation
// ladder, and four-eyes resolution gate (spec.md §4.E).
package issue

import (
	"github.com/regulatory-governance/core/infrastructure/audit"
	"github.com/regulatory-governance/core/infrastructure/logging"
	"github.com/regulatory-governance/core/infrastructure/repository"
)

// Service implements issue lifecycle operations over a Repository,
// recording every state-changing command to the audit chain.
type Service struct {
	repo   repository.Repository
	audit  *audit.Registry
	logger *logging.Logger
}

// Config configures an issue Service.
type Config struct {
	Repository repository.Repository
	Audit      *audit.Registry
	Logger     *logging.Logger
}

// New creates an issue Service.
func New(cfg Config) *Service {
	return &Service{
		repo:   cfg.Repository,
		audit:  cfg.Audit,
		logger: cfg.Logger,
	}
}
