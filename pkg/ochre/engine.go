package ochre

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/blythed/ochre/internal/executor"
	"github.com/blythed/ochre/internal/orchestration"
	"github.com/blythed/ochre/internal/planner"
	"github.com/blythed/ochre/internal/registry"
	"github.com/blythed/ochre/internal/scheduler"
)

// Engine is the library entry point: a registry rooted at one directory,
// an executor bound to it, and an optional scheduler for cron-enabled
// components. Construct one with NewEngine and call Apply/Destroy/Reapply.
type Engine struct {
	Registry  *registry.Registry
	Executor  *executor.Executor
	Scheduler *scheduler.Scheduler
	History   *scheduler.History
	// Lock, when true (the default), serializes Apply/Destroy against the
	// registry's on-disk .lock file. Callers that already serialize
	// access externally can set this false after construction.
	Lock bool
}

// NewEngine constructs an Engine rooted at registryRoot. A nil logger
// defaults to slog.Default(); the scheduler and history store are started
// eagerly since both are cheap and idempotent to construct.
func NewEngine(registryRoot string, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	reg := registry.New(registryRoot, nil)
	ex := executor.New(reg, nil, logger)
	sched := scheduler.New(registryRoot, logger)
	hist, err := scheduler.OpenHistory(registryRoot)
	if err != nil {
		return nil, fmt.Errorf("ochre: open history store: %w", err)
	}
	e := &Engine{Registry: reg, Executor: ex, Scheduler: sched, History: hist, Lock: true}

	if err := sched.Restore(func(componentName, identifier string) (string, scheduler.Task, bool) {
		loaded, err := reg.LoadComponent(componentName, identifier)
		if err != nil {
			return "", nil, false
		}
		cc, ok := any(loaded).(interface{ Cron() string })
		if !ok {
			return "", nil, false
		}
		expr := cc.Cron()
		if expr == "" {
			return "", nil, false
		}
		task := func(ctx context.Context) error {
			_, err := e.Reapply(ctx, componentName, identifier)
			return err
		}
		return expr, task, true
	}); err != nil {
		logger.Warn("failed to restore schedule index", "error", err)
	}
	return e, nil
}

// Close stops the scheduler and closes the history store.
func (e *Engine) Close() error {
	if e.Scheduler != nil {
		e.Scheduler.Stop()
	}
	if e.History != nil {
		return e.History.Close()
	}
	return nil
}

// plannable is the shape Apply/Destroy actually need: Component plus the
// two precomputed digests pkg/ochre.Base supplies.
type plannable interface {
	Component
	Uuid() string
	Hash() string
	Huuid() string
}

// Apply reconciles root against the registry: diff, confirm (unless
// force), execute, persist, and reconcile its cron schedule.
func (e *Engine) Apply(ctx context.Context, root Component, force, clean bool, confirm func(string) bool) (*orchestration.Result, error) {
	p, ok := root.(plannable)
	if !ok {
		return nil, fmt.Errorf("ochre: component does not expose identity hashes (embed ochre.Base)")
	}
	return orchestration.Apply(ctx, planner.Component(p), e.Registry, e.Executor, e.Scheduler, e.History, orchestration.Options{
		Force: force, Clean: clean, Execute: true, Schedule: true, Confirm: confirm, Lock: e.Lock,
	})
}

// Destroy tears root down, parent before children, cancelling any cron
// schedule first.
func (e *Engine) Destroy(ctx context.Context, root Component, force bool, confirm func(string) bool) (*orchestration.Result, error) {
	p, ok := root.(plannable)
	if !ok {
		return nil, fmt.Errorf("ochre: component does not expose identity hashes (embed ochre.Base)")
	}
	return orchestration.Destroy(ctx, planner.Component(p), e.Registry, e.Executor, e.Scheduler, e.History, orchestration.Options{
		Force: force, Execute: true, Confirm: confirm, Lock: e.Lock,
	})
}

// Reapply reloads componentName/identifier from the registry and
// force-applies it without touching its schedule, the body of the
// `ochre reapply` CLI verb.
func (e *Engine) Reapply(ctx context.Context, componentName, identifier string) (*orchestration.Result, error) {
	loaded, err := e.Registry.LoadComponent(componentName, identifier)
	if err != nil {
		return nil, err
	}
	p, ok := loaded.(plannable)
	if !ok {
		return nil, fmt.Errorf("ochre: %s/%s is not plannable", componentName, identifier)
	}
	return orchestration.Apply(ctx, planner.Component(p), e.Registry, e.Executor, nil, e.History, orchestration.Options{
		Force: true, Execute: true, Schedule: false, Lock: e.Lock,
	})
}

// Plan previews the apply job graph for root without executing it.
func (e *Engine) Plan(root Component, clean bool) (*planner.Plan, error) {
	p, ok := root.(plannable)
	if !ok {
		return nil, fmt.Errorf("ochre: component does not expose identity hashes (embed ochre.Base)")
	}
	return planner.BuildApplyPlan(planner.Component(p), e.Registry, clean)
}
