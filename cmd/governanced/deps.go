package main

import (
	"github.com/regulatory-governance/core/infrastructure/audit"
	"github.com/regulatory-governance/core/infrastructure/config"
	"github.com/regulatory-governance/core/infrastructure/logging"
	"github.com/regulatory-governance/core/services/cde"
	"github.com/regulatory-governance/core/services/control"
	"github.com/regulatory-governance/core/services/issue"
	"github.com/regulatory-governance/core/services/metering"
	"github.com/regulatory-governance/core/services/scheduler"
	"github.com/regulatory-governance/core/services/taskqueue"
	"github.com/regulatory-governance/core/services/workflow"
)

// defaultQueueName is the single queue the command surface dispatches
// task messages through; multi-queue routing is left to callers via
// TaskMessage.TaskType.
const defaultQueueName = "governance-tasks"

// routerDeps bundles every service the HTTP boundary dispatches into.
type routerDeps struct {
	workflow  *workflow.Service
	issue     *issue.Service
	cde       *cde.Service
	control   *control.Service
	audit     *audit.Registry
	scheduler *scheduler.Service
	queue     taskqueue.Queue
	worker    *taskqueue.Worker
	metering  *metering.Service
	logger    *logging.Logger
	tenantCfg config.TenantConfig
}
