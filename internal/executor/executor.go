// Package executor runs a planner.Plan sequentially, one job at a time,
// applying the per-job status-marker and rollback procedure against a
// registry.Registry.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/blythed/ochre/internal/codec"
	"github.com/blythed/ochre/internal/component"
	"github.com/blythed/ochre/internal/ochreerr"
	"github.com/blythed/ochre/internal/planner"
	"github.com/blythed/ochre/internal/registry"
)

// Hooks is the lifecycle contract the executor invokes once a job's
// component value has been decoded. Satisfied implicitly by pkg/ochre.Lifecycle.
type Hooks interface {
	Read() error
	Create() error
	Update() error
	Delete() error
}

// Executor runs jobs sequentially against reg, stopping at the first job
// whose failure is marked Raises.
type Executor struct {
	Registry *registry.Registry
	Types    *component.TypeRegistry
	Logger   *slog.Logger
	Metrics  *Metrics
}

// New constructs an Executor. logger defaults to slog.Default() and types
// to component.Global when nil; Metrics is a fresh, unregistered
// NewMetrics() set.
func New(reg *registry.Registry, types *component.TypeRegistry, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	if types == nil {
		types = component.Global
	}
	return &Executor{Registry: reg, Types: types, Logger: logger, Metrics: NewMetrics()}
}

// Execute runs every job in plan, in the plan's own order, and stops
// (returning the triggering error) the first time a Raises job fails.
func (e *Executor) Execute(ctx context.Context, plan *planner.Plan) error {
	for _, job := range plan.All() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.executeOne(job); err != nil {
			if job.Raises {
				return err
			}
			e.Logger.Warn("job failed but was not marked to raise", "huuid", job.Huuid(), "error", err)
		}
	}
	return nil
}

// executeOne runs a single job's status-marker-and-rollback procedure:
// mark in_progress, snapshot the previous persisted version if any, decode
// the job's data, invoke the matching lifecycle hook, and on success mark
// complete and persist (create/update) or remove (delete) the registry
// entry. On failure mark error and, if the job raises, restore the
// previous version before propagating the error.
func (e *Executor) executeOne(job *planner.Job) error {
	start := time.Now()
	componentName, identifier := job.Component(), job.Identifier()
	e.Metrics.ObserveStart(string(job.Method))
	defer func() {
		e.Metrics.ObserveDuration(string(job.Method), time.Since(start))
	}()

	if err := e.Registry.MarkInProgress(componentName, identifier); err != nil {
		return ochreerr.Wrap(ochreerr.ErrInternal, "ochre: mark in_progress", err)
	}

	var previous registry.Component
	if e.Registry.Exists(componentName, identifier) {
		loaded, err := e.Registry.Load(componentName, identifier)
		if err == nil {
			if pc, ok := loaded.(previousVersion); ok {
				previous = pc
			}
		}
	}

	decoded, err := codec.Decode(job.Data, e.Types, e.Registry)
	if err != nil {
		decodeErr := ochreerr.Wrap(ochreerr.ErrDecode, fmt.Sprintf("ochre: decode job %s", job.Huuid()), err)
		e.fail(componentName, identifier, decodeErr)
		e.Metrics.ObserveOutcome(string(job.Method), "decode_error")
		e.rollback(job, previous)
		return decodeErr
	}

	hooks, ok := decoded.(Hooks)
	if !ok {
		notHooksErr := ochreerr.Wrap(ochreerr.ErrInternal, fmt.Sprintf("ochre: %s does not implement lifecycle hooks", componentName), nil)
		e.fail(componentName, identifier, notHooksErr)
		e.Metrics.ObserveOutcome(string(job.Method), "internal_error")
		e.rollback(job, previous)
		return notHooksErr
	}

	if hookErr := e.invoke(hooks, job.Method); hookErr != nil {
		lifecycleErr := ochreerr.Wrap(ochreerr.ErrLifecycle, fmt.Sprintf("ochre: %s on %s", job.Method, job.Huuid()), hookErr)
		e.fail(componentName, identifier, lifecycleErr)
		e.Metrics.ObserveOutcome(string(job.Method), "lifecycle_error")
		e.rollback(job, previous)
		return lifecycleErr
	}

	switch job.Method {
	case planner.MethodCreate, planner.MethodUpdate:
		saveable, ok := decoded.(registry.Component)
		if !ok {
			persistErr := ochreerr.Wrap(ochreerr.ErrInternal, fmt.Sprintf("ochre: %s is not saveable", componentName), nil)
			e.fail(componentName, identifier, persistErr)
			e.Metrics.ObserveOutcome(string(job.Method), "internal_error")
			e.rollback(job, previous)
			return persistErr
		}
		if err := e.Registry.Save(saveable); err != nil {
			persistErr := ochreerr.Wrap(ochreerr.ErrInternal, "ochre: persist component", err)
			e.fail(componentName, identifier, persistErr)
			e.Metrics.ObserveOutcome(string(job.Method), "persist_error")
			e.rollback(job, previous)
			return persistErr
		}
	case planner.MethodDelete:
		if err := e.Registry.Remove(componentName, identifier); err != nil {
			removeErr := ochreerr.Wrap(ochreerr.ErrInternal, "ochre: remove component", err)
			e.fail(componentName, identifier, removeErr)
			e.Metrics.ObserveOutcome(string(job.Method), "remove_error")
			e.rollback(job, previous)
			return removeErr
		}
	}

	if err := e.Registry.MarkComplete(componentName, identifier); err != nil {
		return ochreerr.Wrap(ochreerr.ErrInternal, "ochre: mark complete", err)
	}

	e.Metrics.ObserveOutcome(string(job.Method), "success")
	e.Logger.Info("job complete", "huuid", job.Huuid(), "method", job.Method)
	return nil
}

type previousVersion = registry.Component

// rollback restores the previously persisted version of a job's component
// after a failure, if the job is marked Raises and a previous version was
// snapshotted before the job ran.
func (e *Executor) rollback(job *planner.Job, previous registry.Component) {
	if !job.Raises || previous == nil {
		return
	}
	if err := e.Registry.Save(previous); err != nil {
		e.Logger.Error("failed to restore previous version after rollback", "huuid", job.Huuid(), "error", err)
	}
}

func (e *Executor) fail(componentName, identifier string, err error) {
	if markErr := e.Registry.MarkError(componentName, identifier, err.Error()); markErr != nil {
		e.Logger.Error("failed to write error marker", "component", componentName, "identifier", identifier, "error", markErr)
	}
}

func (e *Executor) invoke(h Hooks, method planner.Method) error {
	switch method {
	case planner.MethodCreate:
		return h.Create()
	case planner.MethodUpdate:
		return h.Update()
	case planner.MethodDelete:
		return h.Delete()
	default:
		return fmt.Errorf("ochre: unknown job method %q", method)
	}
}
