// Command governanced exposes the governance core's inbound command
// surface (spec.md §6) over HTTP. It is a thin boundary: every handler
// binds ambient tenant/actor context, calls exactly one service method,
// and maps the result or tagged error to a response.
package main

import (
	"context"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/regulatory-governance/core/domain/governance"
	"github.com/regulatory-governance/core/infrastructure/audit"
	goverconfig "github.com/regulatory-governance/core/infrastructure/config"
	"github.com/regulatory-governance/core/infrastructure/identity"
	"github.com/regulatory-governance/core/infrastructure/logging"
	"github.com/regulatory-governance/core/infrastructure/repository"
	"github.com/regulatory-governance/core/services/cde"
	"github.com/regulatory-governance/core/services/control"
	"github.com/regulatory-governance/core/services/issue"
	"github.com/regulatory-governance/core/services/metering"
	"github.com/regulatory-governance/core/services/scheduler"
	"github.com/regulatory-governance/core/services/taskqueue"
	"github.com/regulatory-governance/core/services/workflow"
)

func main() {
	cfg, err := goverconfig.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "governanced: load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New("governanced", cfg.LogLevel, cfg.LogFormat)

	repo := repository.NewInMemoryRepository()
	auditRegistry := audit.NewRegistry()

	var verifier *identity.Verifier
	if cfg.Identity.PublicKeyPath != "" {
		v, err := loadVerifier(cfg.Identity.PublicKeyPath)
		if err != nil {
			logger.WithError(err).Warn("governanced: identity verification disabled, failed to load public key")
		} else {
			verifier = v
		}
	}

	workflowSvc := workflow.New(workflow.Config{Repository: repo, Audit: auditRegistry, Logger: logger, Identity: verifier})
	issueSvc := issue.New(issue.Config{Repository: repo, Audit: auditRegistry, Logger: logger})

	var cdeWeights *governance.CDEWeights
	if cfg.CDE.WeightsPolicyPath != "" {
		policy, err := cde.LoadWeightsPolicy(cfg.CDE.WeightsPolicyPath)
		if err != nil {
			logger.WithError(err).Warn("governanced: cde weights policy load failed, using defaults")
		} else if policy != nil {
			cdeWeights = &policy.Weights
		}
	}
	cdeSvc := cde.New(cde.Config{Repository: repo, Audit: auditRegistry, Logger: logger, DefaultWeights: cdeWeights})
	controlSvc := control.New(control.Config{Repository: repo, Audit: auditRegistry, Logger: logger})

	schedSvc := scheduler.New(scheduler.Config{
		Retry: scheduler.RetryConfig{
			MaxRetries: cfg.Retry.MaxRetries,
			BaseDelay:  cfg.Retry.InitialDelay,
			MaxDelay:   cfg.Retry.MaxDelay,
		},
		Logger: logger,
	})

	meterSvc := metering.New(metering.Config{
		Thresholds: metering.QuotaThresholds{
			WarningPercent:  cfg.Quota.WarningThreshold,
			CriticalPercent: cfg.Quota.CriticalThreshold,
		},
		RateLimitPerSecond: cfg.Quota.RateLimitPerSecond,
		RateLimitBurst:     cfg.Quota.RateLimitBurst,
	})

	queue := taskqueue.NewMemQueue()
	if err := queue.CreateQueue(context.Background(), defaultQueueName); err != nil {
		logger.WithError(err).Warn("governanced: create default queue failed")
	}

	worker := taskqueue.NewWorker(queue, taskqueue.WorkerConfig{QueueName: defaultQueueName, Logger: logger}, nil)
	registerDefaultHandlers(worker, workflowSvc, issueSvc, meterSvc)

	autoscaler := taskqueue.NewAutoScaler(queue, defaultQueueName, taskqueue.ScalingConfig{
		MinWorkers:         cfg.Scaling.MinWorkers,
		MaxWorkers:         cfg.Scaling.MaxWorkers,
		ScaleUpThreshold:   cfg.Scaling.ScaleUpThreshold,
		ScaleDownThreshold: cfg.Scaling.ScaleDownThreshold,
		ScaleUpIncrement:   cfg.Scaling.ScaleUpIncrement,
		ScaleDownIncrement: cfg.Scaling.ScaleDownIncrement,
		ScaleUpCooldown:    cfg.Scaling.ScaleUpCooldown,
		ScaleDownCooldown:  cfg.Scaling.ScaleDownCooldown,
	}, func() *taskqueue.Worker {
		w := taskqueue.NewWorker(queue, taskqueue.WorkerConfig{QueueName: defaultQueueName, Logger: logger}, nil)
		registerDefaultHandlers(w, workflowSvc, issueSvc, meterSvc)
		return w
	}, logger)

	deps := routerDeps{
		workflow:  workflowSvc,
		issue:     issueSvc,
		cde:       cdeSvc,
		control:   controlSvc,
		audit:     auditRegistry,
		scheduler: schedSvc,
		queue:     queue,
		worker:    worker,
		metering:  meterSvc,
		logger:    logger,
		tenantCfg: cfg.Tenant,
	}

	pollCtx, stopPolling := context.WithCancel(context.Background())
	defer stopPolling()
	go runQueuePolling(pollCtx, worker, autoscaler, logger)
	go runSchedulerPump(pollCtx, schedSvc, queue, logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
		Handler:      newRouter(deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.WithField("addr", srv.Addr).Info("governanced: listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("governanced: server error")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("governanced: graceful shutdown failed")
	}
}

func loadVerifier(path string) (*identity.Verifier, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read public key: %w", err)
	}
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, fmt.Errorf("decode PEM public key")
	}
	key, err := jwt.ParseRSAPublicKeyFromPEM(raw)
	if err != nil {
		return nil, fmt.Errorf("parse RSA public key: %w", err)
	}
	return identity.NewVerifier(key), nil
}
