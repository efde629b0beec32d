package orchestration

import (
	"context"
	"fmt"

	"github.com/blythed/ochre/internal/executor"
	"github.com/blythed/ochre/internal/planner"
	"github.com/blythed/ochre/internal/registry"
	"github.com/blythed/ochre/internal/scheduler"
)

// Destroy inverts root into a parent-before-children deletion plan and, on
// confirmation, runs it. Once confirmed (or forced), any cron entry for a
// root implementing CronComponent is cancelled before execution, even when
// opts.Execute is false, since a component about to be destroyed should
// stop being reapplied on its own schedule. A declined confirmation returns
// before the cancel.
func Destroy(ctx context.Context, root planner.Component, reg *registry.Registry, ex *executor.Executor, sched *scheduler.Scheduler, hist *scheduler.History, opts Options) (*Result, error) {
	plan, err := planner.BuildDestroyPlan(root)
	if err != nil {
		return nil, fmt.Errorf("ochre: build destroy plan: %w", err)
	}
	if !opts.Force && opts.Confirm != nil {
		if !opts.Confirm(Summarize(plan)) {
			return &Result{Plan: plan}, nil
		}
	}
	if sched != nil {
		if _, ok := any(root).(CronComponent); ok {
			_ = sched.Cancel(root.ComponentName(), root.Identifier())
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
			_ = hist.Record("destroy", root.Huuid(), plan.Len(), "failed")
		}
		return &Result{Plan: plan}, fmt.Errorf("ochre: execute destroy plan: %w", err)
	}
	if err := reg.Remove(root.ComponentName(), root.Identifier()); err != nil {
		return nil, fmt.Errorf("ochre: remove root after destroy: %w", err)
	}
	if hist != nil {
		_ = hist.Record("destroy", root.Huuid(), plan.Len(), "success")
	}
	return &Result{Plan: plan, Executed: true}, nil
}
