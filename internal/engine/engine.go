// Package engine orchestrates the canonical store and the markdown vault.
//
// Every mutation follows the same discipline: the store transaction commits
// first and is authoritative; vault projection runs afterwards on a
// best-effort basis. Projection failures never roll back the store — they
// are collected into the mutation result and reported, and a later forward
// sync converges the vault.
package engine

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/deltatask/deltatask/internal/store"
	"github.com/deltatask/deltatask/internal/task"
	"github.com/deltatask/deltatask/internal/vault"
)

// EventSink receives engine events. The dashboard implements this to push
// live updates to connected clients; NopSink is used when no dashboard runs.
type EventSink interface {
	TaskChanged(action, id, title string)
	SyncCompleted(result *SyncResult)
	ProjectionFailed(id string, err error)
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) TaskChanged(action, id, title string) {}
func (NopSink) SyncCompleted(result *SyncResult)     {}
func (NopSink) ProjectionFailed(id string, err error) {}

// ProjectionReport collects the vault-side failures of one mutation.
// An empty report means the vault fully reflects the store.
type ProjectionReport struct {
	Errors []string
}

func (r *ProjectionReport) add(err error) {
	if err != nil {
		r.Errors = append(r.Errors, err.Error())
	}
}

// Clean reports whether projection completed without failures.
func (r *ProjectionReport) Clean() bool { return len(r.Errors) == 0 }

// MutationResult reports the outcome of a store mutation plus its vault
// projection. The store side always succeeded when a result is returned.
type MutationResult struct {
	ID         string
	Task       *task.Task
	Deleted    []string // delete only: every removed identifier, target first
	Projection ProjectionReport
}

// Engine ties the store, the projector, and the reconciler together.
type Engine struct {
	store      *store.Store
	projector  *vault.Projector
	reconciler *vault.Reconciler
	logger     *log.Logger
	sink       EventSink

	// mu serializes mutations so vault projection for one change completes
	// before the next change starts rewriting the same view files.
	mu sync.Mutex
}

// New creates an engine. logger may be nil (stderr default), sink may be
// nil (events discarded).
func New(s *store.Store, p *vault.Projector, r *vault.Reconciler, logger *log.Logger, sink EventSink) *Engine {
	if logger == nil {
		logger = log.New(os.Stderr, "[engine] ", log.LstdFlags)
	}
	if sink == nil {
		sink = NopSink{}
	}
	return &Engine{store: s, projector: p, reconciler: r, logger: logger, sink: sink}
}

// SetSink swaps the event sink. Called by the dashboard once it is running.
func (e *Engine) SetSink(sink EventSink) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if sink == nil {
		sink = NopSink{}
	}
	e.sink = sink
}

// CreateTask validates and inserts a task, then projects it into the vault:
// its own document, a link in the parent's Subtasks region, tag listings,
// and refreshed views.
func (e *Engine) CreateTask(ctx context.Context, draft task.Draft) (*MutationResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.createLocked(ctx, draft)
}

func (e *Engine) createLocked(ctx context.Context, draft task.Draft) (*MutationResult, error) {
	id, err := e.store.Create(ctx, draft)
	if err != nil {
		return nil, err
	}
	t, err := e.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	res := &MutationResult{ID: id, Task: t}
	res.Projection.add(e.projector.EnsureLayout())
	res.Projection.add(e.projector.RenderTask(t))
	if t.ParentID != "" {
		res.Projection.add(e.projector.LinkChild(t.ParentID, t.ID, t.Title))
	}
	res.Projection.add(e.projector.UpdateTagIndices(t.Tags, t.ID, t.Title))
	e.refreshDerived(ctx, &res.Projection)

	e.reportProjection(id, &res.Projection)
	e.sink.TaskChanged("created", id, t.Title)
	return res, nil
}

// GetTask retrieves one task from the store.
func (e *Engine) GetTask(ctx context.Context, id string) (*task.Task, error) {
	return e.store.Get(ctx, id)
}

// ListTasks lists tasks per the filter in the ordering-contract order.
func (e *Engine) ListTasks(ctx context.Context, filter store.Filter) ([]*task.Task, error) {
	return e.store.List(ctx, filter)
}

// Search finds tasks by title, description, or tag name substring.
func (e *Engine) Search(ctx context.Context, text string) ([]*task.Task, error) {
	return e.store.Search(ctx, text)
}

// Statistics computes the store-wide aggregate and refreshes the vault's
// statistics document as a side effect.
func (e *Engine) Statistics(ctx context.Context) (*task.Statistics, error) {
	stats, err := e.store.Statistics(ctx)
	if err != nil {
		return nil, err
	}
	if err := e.projector.WriteStatistics(stats); err != nil {
		e.logger.Printf("WARNING: failed to write statistics document: %v", err)
	}
	return stats, nil
}

// UpdateTask applies a partial update, then re-projects the task: its
// document, parent links when the parent changed, and tag listing deltas.
func (e *Engine) UpdateTask(ctx context.Context, id string, upd task.Update) (*MutationResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	before, err := e.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := e.store.Update(ctx, id, upd); err != nil {
		return nil, err
	}
	after, err := e.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	res := &MutationResult{ID: id, Task: after}
	res.Projection.add(e.projector.RenderTask(after))

	if before.ParentID != after.ParentID {
		if before.ParentID != "" {
			res.Projection.add(e.projector.UnlinkChild(before.ParentID, id))
		}
		if after.ParentID != "" {
			res.Projection.add(e.projector.LinkChild(after.ParentID, id, after.Title))
		}
	} else if after.ParentID != "" && before.Title != after.Title {
		// Refresh the link text in the parent's Subtasks region.
		res.Projection.add(e.projector.UnlinkChild(after.ParentID, id))
		res.Projection.add(e.projector.LinkChild(after.ParentID, id, after.Title))
	}

	// Tag listings track the exact link line, so a title change needs the
	// old lines dropped before the new ones go in.
	if before.Title != after.Title {
		for _, tag := range before.Tags {
			res.Projection.add(e.projector.RemoveFromTagIndex(tag, id))
		}
	} else {
		for _, tag := range removedTags(before.Tags, after.Tags) {
			res.Projection.add(e.projector.RemoveFromTagIndex(tag, id))
		}
	}
	res.Projection.add(e.projector.UpdateTagIndices(after.Tags, id, after.Title))

	e.refreshDerived(ctx, &res.Projection)
	e.reportProjection(id, &res.Projection)
	e.sink.TaskChanged("updated", id, after.Title)
	return res, nil
}

// CompleteTask marks a task completed.
func (e *Engine) CompleteTask(ctx context.Context, id string) (*MutationResult, error) {
	completed := true
	return e.UpdateTask(ctx, id, task.Update{Completed: &completed})
}

// DeleteTask removes a task. With cascade every descendant goes too;
// without it direct children are re-parented to the root and their
// documents are refreshed. Documents and tag listing entries of all
// deleted tasks are removed from the vault.
func (e *Engine) DeleteTask(ctx context.Context, id string, cascade bool) (*MutationResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	target, err := e.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	// Snapshot before the rows disappear: tag membership of everything that
	// may be deleted, and the children that survive a non-cascade delete.
	snapshot := map[string]*task.Task{id: target}
	if cascade {
		all, err := e.store.List(ctx, store.Filter{IncludeCompleted: true})
		if err != nil {
			return nil, err
		}
		for _, t := range all {
			snapshot[t.ID] = t
		}
	}
	var survivors []string
	if !cascade {
		survivors, err = e.store.ChildIDs(ctx, id)
		if err != nil {
			return nil, err
		}
	}

	deleted, err := e.store.Delete(ctx, id, cascade)
	if err != nil {
		return nil, err
	}

	res := &MutationResult{ID: id, Deleted: deleted}
	for _, did := range deleted {
		res.Projection.add(e.projector.DeleteTask(did))
		if t, ok := snapshot[did]; ok {
			for _, tag := range t.Tags {
				res.Projection.add(e.projector.RemoveFromTagIndex(tag, did))
			}
			if t.ParentID != "" {
				res.Projection.add(e.projector.UnlinkChild(t.ParentID, did))
			}
		}
	}

	// Re-parented children keep their documents but the parent key changed.
	for _, cid := range survivors {
		child, err := e.store.Get(ctx, cid)
		if err != nil {
			res.Projection.add(fmt.Errorf("failed to refresh child %s: %w", cid, err))
			continue
		}
		res.Projection.add(e.projector.RenderTask(child))
	}

	e.refreshDerived(ctx, &res.Projection)
	e.reportProjection(id, &res.Projection)
	e.sink.TaskChanged("deleted", id, target.Title)
	return res, nil
}

// CreateSubtasks creates several children under one parent in order.
// Drafts inherit the parent identifier; a draft supplying a different
// parent is rejected. The first failing draft aborts the remainder, but
// previously created children stay.
func (e *Engine) CreateSubtasks(ctx context.Context, parentID string, drafts []task.Draft) ([]*MutationResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.store.Get(ctx, parentID); err != nil {
		return nil, err
	}

	results := make([]*MutationResult, 0, len(drafts))
	for i, draft := range drafts {
		if draft.ParentID != "" && draft.ParentID != parentID {
			return results, &task.ValidationError{
				Field:  "parent",
				Reason: fmt.Sprintf("subtask %d names a different parent", i+1),
			}
		}
		draft.ParentID = parentID

		res, err := e.createLocked(ctx, draft)
		if err != nil {
			return results, fmt.Errorf("subtask %d: %w", i+1, err)
		}
		results = append(results, res)
	}
	return results, nil
}

// Reset destroys all store records and rebuilds an empty vault.
func (e *Engine) Reset(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.store.Reset(ctx); err != nil {
		return err
	}
	if err := os.RemoveAll(e.projector.Root()); err != nil {
		return fmt.Errorf("failed to clear vault: %w", err)
	}
	if err := e.projector.EnsureLayout(); err != nil {
		return err
	}
	var report ProjectionReport
	e.refreshDerived(ctx, &report)
	if !report.Clean() {
		return fmt.Errorf("failed to rebuild vault: %s", report.Errors[0])
	}
	return nil
}

// refreshDerived rebuilds everything computed from the full task set:
// views, statistics, and the indexes.
func (e *Engine) refreshDerived(ctx context.Context, report *ProjectionReport) {
	all, err := e.store.List(ctx, store.Filter{IncludeCompleted: true})
	if err != nil {
		report.add(fmt.Errorf("failed to list tasks for views: %w", err))
		return
	}
	report.add(e.projector.RebuildViews(all))

	stats, err := e.store.Statistics(ctx)
	if err != nil {
		report.add(fmt.Errorf("failed to compute statistics: %w", err))
	} else {
		report.add(e.projector.WriteStatistics(stats))
	}

	tags, err := e.store.AllTags(ctx)
	if err != nil {
		report.add(fmt.Errorf("failed to list tags: %w", err))
		return
	}
	report.add(e.projector.WriteIndex(tags))
}

func (e *Engine) reportProjection(id string, report *ProjectionReport) {
	for _, msg := range report.Errors {
		e.logger.Printf("WARNING: vault projection for %s: %s", id, msg)
		e.sink.ProjectionFailed(id, fmt.Errorf("%s", msg))
	}
}

// removedTags returns the names in before that are absent from after.
func removedTags(before, after []string) []string {
	keep := make(map[string]bool, len(after))
	for _, tag := range after {
		keep[tag] = true
	}
	var removed []string
	for _, tag := range before {
		if !keep[tag] {
			removed = append(removed, tag)
		}
	}
	return removed
}
