// Package workflow implements the cycle state machine, phase checkpoints,
// human-task lifecycle, and report-catalog review state (spec.md §4.D).
package workflow

import (
	"sync"

	"github.com/google/uuid"

	"github.com/regulatory-governance/core/infrastructure/audit"
	"github.com/regulatory-governance/core/infrastructure/errors"
	"github.com/regulatory-governance/core/infrastructure/identity"
	"github.com/regulatory-governance/core/infrastructure/logging"
	"github.com/regulatory-governance/core/infrastructure/repository"
)

// Service implements the cycle and catalog state machines over a
// Repository, recording every state-changing command to the audit chain.
type Service struct {
	repo   repository.Repository
	audit  *audit.Registry
	logger *logging.Logger
	idv    *identity.Verifier

	cycleLocks keyedMutex
}

// Config configures a workflow Service.
type Config struct {
	Repository repository.Repository
	Audit      *audit.Registry
	Logger     *logging.Logger
	Identity   *identity.Verifier // optional; nil disables token verification
}

// New creates a workflow Service.
func New(cfg Config) *Service {
	return &Service{
		repo:   cfg.Repository,
		audit:  cfg.Audit,
		logger: cfg.Logger,
		idv:    cfg.Identity,
	}
}

// keyedMutex lazily creates one mutex per key, used to serialize commands
// within a single cycle (spec.md §5: "a single cycle-level mutex
// suffices"; across cycles, no ordering guarantee is required).
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}

func newID() string {
	return uuid.New().String()
}

// resolveApprover applies spec.md §4.J: a verified token's subject
// supersedes the caller-supplied approver for audit recording.
func (s *Service) resolveApprover(accessToken, callerApprover string) (string, map[string]string, error) {
	if s.idv == nil || accessToken == "" {
		return callerApprover, nil, nil
	}
	approver, info, err := s.idv.ResolveApprover(accessToken, callerApprover)
	if err != nil {
		return "", nil, errors.Unauthorized(err.Error())
	}
	return approver, info, nil
}

