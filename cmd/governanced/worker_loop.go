package main

import (
	"context"
	"time"

	"github.com/regulatory-governance/core/domain/governance"
	"github.com/regulatory-governance/core/infrastructure/logging"
	"github.com/regulatory-governance/core/internal/tenantctx"
	"github.com/regulatory-governance/core/services/issue"
	"github.com/regulatory-governance/core/services/metering"
	"github.com/regulatory-governance/core/services/scheduler"
	"github.com/regulatory-governance/core/services/taskqueue"
	"github.com/regulatory-governance/core/services/workflow"
)

// registerDefaultHandlers binds the task types the scheduler enqueues
// (spec.md §4.G/§4.H: agent triggers, escalation sweeps) to the services
// that carry them out, so a dispatched TaskMessage actually does work
// instead of only being a delivery vehicle.
func registerDefaultHandlers(w *taskqueue.Worker, workflowSvc *workflow.Service, issueSvc *issue.Service, meterSvc *metering.Service) {
	w.RegisterHandler("trigger_agent", func(ctx context.Context, msg governance.TaskMessage) (taskqueue.TaskResult, error) {
		cycleID, _ := msg.Payload["cycle_id"].(string)
		agentType, _ := msg.Payload["agent_type"].(string)
		ctx = tenantctx.WithTenantID(ctx, msg.TenantID)

		cycle, err := workflowSvc.TriggerAgent(ctx, cycleID, agentType, "system")
		if err != nil {
			return taskqueue.TaskResult{}, err
		}

		meterSvc.RecordEvent(ctx, metering.Event{
			Type:     metering.EventAgentInvocation,
			TenantID: msg.TenantID,
			AgentID:  agentType,
		})
		// Rate-limit rejections here are advisory only: the agent already
		// ran, so the event is best-effort usage accounting, not a gate
		// on the invocation itself.

		return taskqueue.TaskResult{
			Status: taskqueue.TaskStatusCompleted,
			Result: map[string]any{"cycle_id": cycle.ID, "phase": string(cycle.CurrentPhase)},
		}, nil
	})

	w.RegisterHandler("escalation_sweep", func(ctx context.Context, msg governance.TaskMessage) (taskqueue.TaskResult, error) {
		issueID, _ := msg.Payload["issue_id"].(string)
		reason, _ := msg.Payload["reason"].(string)
		ctx = tenantctx.WithTenantID(ctx, msg.TenantID)

		updated, err := issueSvc.EscalateIssue(ctx, issueID, "system", reason)
		if err != nil {
			return taskqueue.TaskResult{}, err
		}
		return taskqueue.TaskResult{
			Status: taskqueue.TaskStatusCompleted,
			Result: map[string]any{"issue_id": updated.ID, "severity": string(updated.Severity)},
		}, nil
	})
}

// runSchedulerPump drains due ScheduledTasks from schedSvc and hands each
// off to the task queue as a TaskMessage (spec.md §2 control flow: "G
// enqueues into H"), completing or failing the scheduled task based on
// the queue send outcome.
func runSchedulerPump(ctx context.Context, schedSvc *scheduler.Service, queue taskqueue.Queue, logger *logging.Logger) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for {
				next := schedSvc.Peek()
				if next == nil || next.ScheduledTime.After(time.Now()) {
					break
				}
				task := schedSvc.Dequeue()
				if task == nil {
					break
				}

				taskType, _ := task.Config.Metadata["task_type"].(string)
				if taskType == "" {
					taskType = task.Config.ID
				}
				tenantID, _ := task.Config.Metadata["tenant_id"].(string)

				msg := governance.TaskMessage{
					TaskType: taskType,
					Priority: task.Priority,
					Payload:  task.Config.Metadata,
					TenantID: tenantID,
				}

				if _, err := queue.SendTask(ctx, defaultQueueName, msg); err != nil {
					schedSvc.Fail(task, err)
					if logger != nil {
						logger.WithField("schedule_id", task.Config.ID).WithError(err).Warn("governanced: scheduler pump send failed")
					}
					continue
				}
				schedSvc.Complete(task)
			}
		}
	}
}

// runQueuePolling drives the worker and auto-scaler until ctx is
// cancelled, grounded on the scheduler's own poll-loop cadence
// (spec.md §4.G/§4.H background processing).
func runQueuePolling(ctx context.Context, w *taskqueue.Worker, scaler *taskqueue.AutoScaler, logger *logging.Logger) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.PollOnce(ctx); err != nil && logger != nil {
				logger.WithError(err).Warn("governanced: queue poll failed")
			}
			if _, err := scaler.EvaluateAndScale(ctx); err != nil && logger != nil {
				logger.WithError(err).Warn("governanced: autoscaler evaluation failed")
			}
		}
	}
}
