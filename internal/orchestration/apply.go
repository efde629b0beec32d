// Package orchestration ties the planner, executor, registry, and
// scheduler together into the two top-level verbs a caller actually
// invokes: Apply and Destroy.
package orchestration

import (
	"context"
	"fmt"
	"strings"

	"github.com/blythed/ochre/internal/executor"
	"github.com/blythed/ochre/internal/planner"
	"github.com/blythed/ochre/internal/registry"
	"github.com/blythed/ochre/internal/scheduler"
)

// CronComponent is the shape reconcileSchedule checks for: a component
// declaring a cron expression. Satisfied implicitly by anything embedding
// pkg/ochre.Base and adding a Cron() method.
type CronComponent interface {
	Cron() string
}

// Options controls one Apply or Destroy invocation.
type Options struct {
	// Force skips the interactive confirmation prompt.
	Force bool
	// Clean, for Apply only, puts a non-raising delete job ahead of the
	// create job of every "new" node.
	Clean bool
	// Execute runs the plan; when false, Apply/Destroy only returns the
	// plan for inspection.
	Execute bool
	// Schedule, for Apply only, upserts or cancels the root's cron entry.
	Schedule bool
	// Confirm is invoked with a human-readable summary before executing,
	// unless Force is set. A nil Confirm always proceeds.
	Confirm func(summary string) bool
	// Lock, if true, holds reg's advisory <REGISTRY>/.lock for the
	// duration of execution, serializing concurrent apply/destroy
	// invocations against the same registry.
	Lock bool
}

// Result is what Apply/Destroy hands back to a caller (typically the CLI).
type Result struct {
	Plan     *planner.Plan
	Executed bool
}

// Apply diffs root against reg's persisted state, builds the dependency-
// ordered job graph, and — unless the plan is empty, the user declines
// confirmation, or opts.Execute is false — runs it through ex. On success
// it persists root itself and, if opts.Schedule, upserts or cancels its
// cron entry.
func Apply(ctx context.Context, root planner.Component, reg *registry.Registry, ex *executor.Executor, sched *scheduler.Scheduler, hist *scheduler.History, opts Options) (*Result, error) {
	plan, err := planner.BuildApplyPlan(root, reg, opts.Clean)
	if err != nil {
		return nil, fmt.Errorf("ochre: build apply plan: %w", err)
	}
	if plan.Len() == 0 {
		return &Result{Plan: plan}, nil
	}
	if !opts.Force && opts.Confirm != nil {
		if !opts.Confirm(Summarize(plan)) {
			return &Result{Plan: plan}, nil
		}
	}
	if !opts.Execute {
		return &Result{Plan: plan}, nil
	}

	if opts.Lock {
		unlock, err := reg.Lock()
		if err != nil {
			return nil, fmt.Errorf("ochre: acquire registry lock: %w", err)
		}
		defer unlock()
	}

	if err := ex.Execute(ctx, plan); err != nil {
		if hist != nil {
			_ = hist.Record("apply", root.Huuid(), plan.Len(), "failed")
		}
		return &Result{Plan: plan}, fmt.Errorf("ochre: execute apply plan: %w", err)
	}

	saveable, ok := any(root).(registry.Component)
	if !ok {
		return nil, fmt.Errorf("ochre: root component is not saveable")
	}
	if err := reg.Save(saveable); err != nil {
		return nil, fmt.Errorf("ochre: persist root after apply: %w", err)
	}

	if opts.Schedule && sched != nil {
		if err := reconcileSchedule(root, reg, ex, sched); err != nil {
			return nil, fmt.Errorf("ochre: reconcile schedule: %w", err)
		}
	}

	if hist != nil {
		_ = hist.Record("apply", root.Huuid(), plan.Len(), "success")
	}
	return &Result{Plan: plan, Executed: true}, nil
}

// reconcileSchedule upserts root's cron entry if it declares one via
// ochre.CronComponent, or cancels any existing entry otherwise — the Go
// equivalent of the original's "schedule if cron, cancel if the prior
// version had one and the new one doesn't."
func reconcileSchedule(root planner.Component, reg *registry.Registry, ex *executor.Executor, sched *scheduler.Scheduler) error {
	componentName, identifier := root.ComponentName(), root.Identifier()
	cc, ok := any(root).(CronComponent)
	if !ok {
		return sched.Cancel(componentName, identifier)
	}
	expr := cc.Cron()
	if expr == "" {
		return sched.Cancel(componentName, identifier)
	}
	return sched.Schedule(componentName, identifier, expr, func(ctx context.Context) error {
		return reapply(ctx, componentName, identifier, reg, ex)
	})
}

// reapply reloads componentName/identifier from the registry and
// force-applies it without re-scheduling, the body of every cron entry
// reconcileSchedule installs. The `ochre reapply` CLI verb goes through
// pkg/ochre.Engine.Reapply instead.
func reapply(ctx context.Context, componentName, identifier string, reg *registry.Registry, ex *executor.Executor) error {
	loaded, err := reg.LoadComponent(componentName, identifier)
	if err != nil {
		return fmt.Errorf("ochre: load %s/%s for reapply: %w", componentName, identifier, err)
	}
	root, ok := loaded.(planner.Component)
	if !ok {
		return fmt.Errorf("ochre: %s/%s is not plannable", componentName, identifier)
	}
	_, err = Apply(ctx, root, reg, ex, nil, nil, Options{Force: true, Execute: true, Schedule: false, Lock: true})
	return err
}

// Summarize renders a short human-readable description of a plan, one line
// per job, for the confirmation prompt. update/breaking jobs additionally
// print their field-level merge-patch diff against the persisted version.
func Summarize(plan *planner.Plan) string {
	out := fmt.Sprintf("%d job(s) planned:\n", plan.Len())
	for _, job := range plan.All() {
		out += fmt.Sprintf("  %-8s %s\n", job.Method, job.Huuid())
		if job.Diff != "" && job.Diff != "{}\n" {
			out += indent(job.Diff, "      ")
		}
	}
	return out
}

func indent(s, prefix string) string {
	var out string
	for _, line := range strings.Split(strings.TrimRight(s, "\n"), "\n") {
		out += prefix + line + "\n"
	}
	return out
}
