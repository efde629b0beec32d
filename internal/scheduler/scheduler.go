// Package scheduler adapts the planner/executor apply cycle into a
// recurring cron job, tagged by "{component}/{identifier}" so that
// scheduling the same component twice replaces rather than duplicates its
// entry, and destroying or un-cron-ing a component cancels it.
package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/robfig/cron/v3"

	"github.com/blythed/ochre/internal/ochreerr"
)

const indexFileName = ".schedule.json"

// Task is the recurring work a scheduled component performs: normally a
// reapply against the registry.
type Task func(ctx context.Context) error

// Scheduler owns one in-process cron.Cron and an on-disk index of which
// tag maps to which cron entry, so entries survive process restart (cron
// itself keeps no state across runs).
type Scheduler struct {
	mu        sync.Mutex
	cron      *cron.Cron
	entries   map[string]cron.EntryID
	exprs     map[string]string
	indexPath string
	logger    *slog.Logger
}

type persistedEntry struct {
	Tag  string `json:"tag"`
	Expr string `json:"expr"`
}

// New constructs a Scheduler backed by the given registry root directory
// and starts its internal cron loop.
func New(registryRoot string, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scheduler{
		cron:      cron.New(),
		entries:   map[string]cron.EntryID{},
		exprs:     map[string]string{},
		indexPath: filepath.Join(registryRoot, indexFileName),
		logger:    logger,
	}
	s.cron.Start()
	return s
}

// Stop halts the internal cron loop, waiting for any in-flight task.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func tag(componentName, identifier string) string {
	return componentName + "/" + identifier
}

// Schedule upserts a recurring task for componentName/identifier on the
// given cron expression. Re-scheduling an already-scheduled tag replaces
// its entry. task is retried with a short bounded backoff before the run
// counts as failed, insulating the schedule's own bookkeeping I/O from a
// single transient registry hiccup (not a retry of the user's lifecycle
// hooks, which the executor runs at most once per job).
func (s *Scheduler) Schedule(componentName, identifier, cronExpr string, task Task) error {
	if cronExpr == "" {
		return fmt.Errorf("ochre: empty cron expression for %s", tag(componentName, identifier))
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t := tag(componentName, identifier)
	if id, ok := s.entries[t]; ok {
		s.cron.Remove(id)
		delete(s.entries, t)
	}

	id, err := s.cron.AddFunc(cronExpr, func() {
		s.runWithBackoff(t, task)
	})
	if err != nil {
		return fmt.Errorf("ochre: schedule %s: %w", t, err)
	}
	s.entries[t] = id
	s.exprs[t] = cronExpr
	return s.persist()
}

func (s *Scheduler) runWithBackoff(t string, task Task) {
	bo := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3)
	op := func() error {
		err := task(context.Background())
		if errors.Is(err, ochreerr.ErrLifecycle) {
			return backoff.Permanent(err)
		}
		return err
	}
	if err := backoff.Retry(op, bo); err != nil {
		s.logger.Error("scheduled reapply failed after retries", "tag", t, "error", err)
	}
}

// Cancel removes componentName/identifier's scheduled entry, if any. It is
// idempotent: cancelling a tag that was never scheduled is not an error.
func (s *Scheduler) Cancel(componentName, identifier string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := tag(componentName, identifier)
	if id, ok := s.entries[t]; ok {
		s.cron.Remove(id)
		delete(s.entries, t)
		delete(s.exprs, t)
	}
	return s.persist()
}

// Entries lists every currently scheduled tag.
func (s *Scheduler) Entries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.entries))
	for t := range s.entries {
		out = append(out, t)
	}
	return out
}

func (s *Scheduler) persist() error {
	entries := make([]persistedEntry, 0, len(s.entries))
	for t := range s.entries {
		entries = append(entries, persistedEntry{Tag: t, Expr: s.exprs[t]})
	}
	raw, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.indexPath, raw, 0o644)
}

// Restore reads the on-disk schedule index and re-registers each tag's
// cron entry via resolve, which is expected to look up that component's
// current cron expression and task (e.g. from the registry) and call
// Schedule again. Tags resolve cannot satisfy (component no longer exists,
// or no longer declares Cron()) are dropped silently, matching the
// scheduler's idempotent-cancel contract.
func (s *Scheduler) Restore(resolve func(componentName, identifier string) (cronExpr string, task Task, ok bool)) error {
	raw, err := os.ReadFile(s.indexPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	var entries []persistedEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return fmt.Errorf("ochre: parse schedule index: %w", err)
	}
	for _, e := range entries {
		parts := splitTag(e.Tag)
		if len(parts) != 2 {
			continue
		}
		expr, task, ok := resolve(parts[0], parts[1])
		if !ok {
			continue
		}
		if err := s.Schedule(parts[0], parts[1], expr, task); err != nil {
			s.logger.Warn("failed to restore schedule entry", "tag", e.Tag, "error", err)
		}
	}
	return nil
}

func splitTag(t string) []string {
	for i := len(t) - 1; i >= 0; i-- {
		if t[i] == '/' {
			return []string{t[:i], t[i+1:]}
		}
	}
	return []string{t}
}

// Now is exposed so callers needing a timestamp for logs don't each import
// "time" solely for that purpose.
func Now() time.Time { return time.Now() }
