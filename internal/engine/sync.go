package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/deltatask/deltatask/internal/store"
	"github.com/deltatask/deltatask/internal/task"
	"github.com/deltatask/deltatask/internal/vault"
)

// SyncResult summarizes one reverse sync pass.
type SyncResult struct {
	Scanned  int // task documents considered
	Updated  int // records applied to existing tasks
	Inserted int // records that produced new tasks
	Skipped  int // documents without a usable id or frontmatter
	Failed   int // records rejected by validation or the store

	// Projection holds the failures of the concluding forward sync.
	Projection ProjectionReport
}

// ForwardSync projects the full store state into the vault: every task
// document, parent links, tag listings, views, statistics, and indexes.
// Running it twice in a row leaves every file byte-identical.
func (e *Engine) ForwardSync(ctx context.Context) (*ProjectionReport, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	report := &ProjectionReport{}
	if err := e.forwardLocked(ctx, report); err != nil {
		return nil, err
	}
	e.reportProjection("forward-sync", report)
	return report, nil
}

func (e *Engine) forwardLocked(ctx context.Context, report *ProjectionReport) error {
	if err := e.projector.EnsureLayout(); err != nil {
		return err
	}

	all, err := e.store.List(ctx, store.Filter{IncludeCompleted: true})
	if err != nil {
		return fmt.Errorf("failed to list tasks: %w", err)
	}

	for _, t := range all {
		report.add(e.projector.RenderTask(t))
	}
	// Links second so every parent document exists before it is patched.
	for _, t := range all {
		if t.ParentID != "" {
			report.add(e.projector.LinkChild(t.ParentID, t.ID, t.Title))
		}
		report.add(e.projector.UpdateTagIndices(t.Tags, t.ID, t.Title))
	}

	e.refreshDerived(ctx, report)
	return nil
}

// ReverseSync reads human edits out of the vault and applies them to the
// store, one record per transaction: a bad record is counted and skipped
// without disturbing the others. Documents whose identifier is unknown are
// re-inserted. A concluding forward sync converges the vault afterwards —
// normalizing frontmatter, rebuilding views, and restoring anything the
// edit left inconsistent.
func (e *Engine) ReverseSync(ctx context.Context) (*SyncResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	records, scan, err := e.reconciler.Scan()
	if err != nil {
		return nil, err
	}

	result := &SyncResult{
		Scanned: scan.Scanned,
		Skipped: scan.Malformed + scan.MissingID,
	}

	// Insert unknown records without their parent first, so forests edited
	// in wholesale (parent and child both new) resolve regardless of scan
	// order. Field application below wires the parents up.
	inserted := make(map[string]bool)
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		_, err := e.store.Get(ctx, rec.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, task.ErrNotFound) {
			return result, err
		}
		if cerr := e.insertRecord(ctx, rec); cerr != nil {
			e.logger.Printf("WARNING: failed to insert %s from vault: %v", rec.ID, cerr)
			result.Failed++
			continue
		}
		inserted[rec.ID] = true
		result.Inserted++
	}

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		applied, uerr := e.applyRecord(ctx, rec)
		if uerr != nil {
			e.logger.Printf("WARNING: failed to apply %s from vault: %v", rec.ID, uerr)
			result.Failed++
			continue
		}
		// Inserts are counted once, not again as updates.
		if applied && !inserted[rec.ID] {
			result.Updated++
		}
	}

	if err := e.forwardLocked(ctx, &result.Projection); err != nil {
		result.Projection.add(err)
	}
	e.reportProjection("reverse-sync", &result.Projection)
	e.sink.SyncCompleted(result)
	return result, nil
}

// insertRecord creates a store row for a document id the store has never
// seen. The parent reference is applied later by applyRecord.
func (e *Engine) insertRecord(ctx context.Context, rec vault.Record) error {
	draft := task.Draft{
		ID:          rec.ID,
		Title:       rec.Title,
		Description: rec.Description,
	}
	if rec.Deadline != nil {
		draft.Deadline = *rec.Deadline
	}
	if rec.Urgency != nil {
		draft.Urgency = *rec.Urgency
	}
	if rec.Effort != nil {
		draft.Effort = *rec.Effort
	}
	if rec.Tags != nil {
		draft.Tags = *rec.Tags
	}
	_, err := e.store.Create(ctx, draft)
	return err
}

// applyRecord maps a vault record onto a store update. Absent frontmatter
// keys leave the stored value alone, and so do keys whose value already
// matches the store: a record that carries no real edit must not touch the
// row at all, or every sync would bump updated_at and the concluding
// forward sync would re-trigger the watcher forever.
func (e *Engine) applyRecord(ctx context.Context, rec vault.Record) (bool, error) {
	current, err := e.store.Get(ctx, rec.ID)
	if err != nil {
		return false, err
	}

	upd := recordDelta(rec, current)
	if upd.Empty() {
		return false, nil
	}
	return e.store.Update(ctx, rec.ID, upd)
}

// recordDelta keeps only the record fields that differ from the stored task.
func recordDelta(rec vault.Record, current *task.Task) task.Update {
	var upd task.Update
	if rec.Title != current.Title {
		upd.Title = &rec.Title
	}
	if rec.Description != current.Description {
		upd.Description = &rec.Description
	}
	if rec.Deadline != nil && *rec.Deadline != current.Deadline {
		upd.Deadline = rec.Deadline
	}
	if rec.Urgency != nil && *rec.Urgency != current.Urgency {
		upd.Urgency = rec.Urgency
	}
	if rec.Effort != nil && *rec.Effort != current.Effort {
		upd.Effort = rec.Effort
	}
	if rec.Completed != nil && *rec.Completed != current.Completed {
		upd.Completed = rec.Completed
	}
	if rec.Parent != nil && *rec.Parent != current.ParentID {
		upd.ParentID = rec.Parent
	}
	if rec.Tags != nil {
		tags := task.NormalizeTags(*rec.Tags)
		if !equalTags(tags, current.Tags) {
			upd.Tags = &tags
		}
	}
	return upd
}

func equalTags(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
