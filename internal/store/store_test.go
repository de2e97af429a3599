package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/deltatask/deltatask/internal/task"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func mustCreate(t *testing.T, s *Store, draft task.Draft) string {
	t.Helper()
	id, err := s.Create(context.Background(), draft)
	if err != nil {
		t.Fatalf("failed to create task %q: %v", draft.Title, err)
	}
	return id
}

func TestCreateAndGet(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	id := mustCreate(t, s, task.Draft{
		Title:       "write report",
		Description: "quarterly numbers",
		Deadline:    "2025-03-01",
		Urgency:     4,
		Effort:      5,
		Tags:        []string{"work", "writing"},
	})

	got, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("failed to get task: %v", err)
	}
	if got.Title != "write report" || got.Description != "quarterly numbers" {
		t.Errorf("unexpected fields: %+v", got)
	}
	if got.Deadline != "2025-03-01" || got.Urgency != 4 || got.Effort != 5 {
		t.Errorf("unexpected scalars: %+v", got)
	}
	if got.Completed {
		t.Error("new task should not be completed")
	}
	if diff := cmp.Diff([]string{"work", "writing"}, got.Tags); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Error("timestamps not set")
	}
}

func TestCreateDefaults(t *testing.T) {
	s := setupStore(t)

	id := mustCreate(t, s, task.Draft{Title: "minimal"})
	got, err := s.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("failed to get task: %v", err)
	}
	if got.Urgency != 1 || got.Effort != 1 {
		t.Errorf("urgency/effort = %d/%d, want 1/1", got.Urgency, got.Effort)
	}
	if got.Deadline != "" || got.ParentID != "" {
		t.Errorf("expected empty deadline and parent: %+v", got)
	}
}

func TestCreateValidation(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	if _, err := s.Create(ctx, task.Draft{Title: "x", Urgency: 9}); !task.IsValidation(err) {
		t.Errorf("bad urgency: got %v, want validation error", err)
	}
	if _, err := s.Create(ctx, task.Draft{Title: "x", Effort: 4}); !task.IsValidation(err) {
		t.Errorf("bad effort: got %v, want validation error", err)
	}
	if _, err := s.Create(ctx, task.Draft{Title: "x", ParentID: "nope"}); !errors.Is(err, task.ErrNotFound) {
		t.Errorf("missing parent: got %v, want ErrNotFound", err)
	}
}

func TestGetNotFound(t *testing.T) {
	s := setupStore(t)
	if _, err := s.Get(context.Background(), "missing"); !errors.Is(err, task.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestListOrdering(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	// Same-deadline pair ordered by urgency, deadline-less task last.
	a := mustCreate(t, s, task.Draft{Title: "a", Deadline: "2025-01-01", Urgency: 3})
	b := mustCreate(t, s, task.Draft{Title: "b", Urgency: 5})
	c := mustCreate(t, s, task.Draft{Title: "c", Deadline: "2025-01-01", Urgency: 5})

	tasks, err := s.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}

	var got []string
	for _, tk := range tasks {
		got = append(got, tk.ID)
	}
	if diff := cmp.Diff([]string{c, a, b}, got); diff != "" {
		t.Errorf("ordering mismatch (-want +got):\n%s", diff)
	}
}

func TestListFilters(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	parent := mustCreate(t, s, task.Draft{Title: "parent"})
	child := mustCreate(t, s, task.Draft{Title: "child", ParentID: parent})
	tagged := mustCreate(t, s, task.Draft{Title: "tagged", Tags: []string{"home"}})

	done := true
	if _, err := s.Update(ctx, tagged, task.Update{Completed: &done}); err != nil {
		t.Fatalf("failed to complete: %v", err)
	}

	// Completed hidden by default.
	tasks, err := s.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(tasks) != 2 {
		t.Errorf("default list: got %d tasks, want 2", len(tasks))
	}

	tasks, err = s.List(ctx, Filter{IncludeCompleted: true})
	if err != nil {
		t.Fatalf("failed to list all: %v", err)
	}
	if len(tasks) != 3 {
		t.Errorf("all list: got %d tasks, want 3", len(tasks))
	}

	// Children of a parent.
	tasks, err = s.List(ctx, Filter{ParentID: &parent})
	if err != nil {
		t.Fatalf("failed to list children: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != child {
		t.Errorf("children: got %v", tasks)
	}

	// Roots only.
	roots := ""
	tasks, err = s.List(ctx, Filter{ParentID: &roots, IncludeCompleted: true})
	if err != nil {
		t.Fatalf("failed to list roots: %v", err)
	}
	if len(tasks) != 2 {
		t.Errorf("roots: got %d tasks, want 2", len(tasks))
	}

	// Tag filter.
	tasks, err = s.List(ctx, Filter{Tags: []string{"home"}, IncludeCompleted: true})
	if err != nil {
		t.Fatalf("failed to list by tag: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != tagged {
		t.Errorf("tag filter: got %v", tasks)
	}
}

func TestSearch(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	byTitle := mustCreate(t, s, task.Draft{Title: "Buy groceries"})
	byDesc := mustCreate(t, s, task.Draft{Title: "errand", Description: "grocery run"})
	byTag := mustCreate(t, s, task.Draft{Title: "other", Tags: []string{"groceries"}})
	mustCreate(t, s, task.Draft{Title: "unrelated"})

	tasks, err := s.Search(ctx, "GROCER")
	if err != nil {
		t.Fatalf("failed to search: %v", err)
	}

	found := map[string]bool{}
	for _, tk := range tasks {
		found[tk.ID] = true
	}
	for _, id := range []string{byTitle, byDesc, byTag} {
		if !found[id] {
			t.Errorf("search missed task %s", id)
		}
	}
	if len(tasks) != 3 {
		t.Errorf("got %d results, want 3", len(tasks))
	}

	// LIKE metacharacters match literally.
	tasks, err = s.Search(ctx, "100%")
	if err != nil {
		t.Fatalf("failed to search: %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("wildcard leak: got %d results, want 0", len(tasks))
	}
}

func TestUpdateFields(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	id := mustCreate(t, s, task.Draft{Title: "old", Deadline: "2025-01-01", Tags: []string{"a", "b"}})
	before, _ := s.Get(ctx, id)
	time.Sleep(10 * time.Millisecond) // updated_at must move

	title := "new"
	clear := ""
	urgency := 5
	tags := []string{"c"}
	ok, err := s.Update(ctx, id, task.Update{
		Title:    &title,
		Deadline: &clear,
		Urgency:  &urgency,
		Tags:     &tags,
	})
	if err != nil || !ok {
		t.Fatalf("update failed: ok=%v err=%v", ok, err)
	}

	got, _ := s.Get(ctx, id)
	if got.Title != "new" || got.Deadline != "" || got.Urgency != 5 {
		t.Errorf("unexpected fields after update: %+v", got)
	}
	if diff := cmp.Diff([]string{"c"}, got.Tags); diff != "" {
		t.Errorf("tags not replaced wholesale (-want +got):\n%s", diff)
	}
	if !got.UpdatedAt.After(before.UpdatedAt) {
		t.Error("updated_at not refreshed")
	}
	if !got.CreatedAt.Equal(before.CreatedAt) {
		t.Error("created_at must not change")
	}

	if _, err := s.Update(ctx, "missing", task.Update{Title: &title}); !errors.Is(err, task.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestUpdateRejectsCycle(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	a := mustCreate(t, s, task.Draft{Title: "a"})
	b := mustCreate(t, s, task.Draft{Title: "b", ParentID: a})
	c := mustCreate(t, s, task.Draft{Title: "c", ParentID: b})

	// Self-parent and ancestor loops both rejected.
	if _, err := s.Update(ctx, a, task.Update{ParentID: &a}); !task.IsValidation(err) {
		t.Errorf("self-parent: got %v, want validation error", err)
	}
	if _, err := s.Update(ctx, a, task.Update{ParentID: &c}); !task.IsValidation(err) {
		t.Errorf("descendant parent: got %v, want validation error", err)
	}

	// Moving a leaf elsewhere is fine.
	if _, err := s.Update(ctx, c, task.Update{ParentID: &a}); err != nil {
		t.Errorf("legal re-parent failed: %v", err)
	}
}

func TestDeleteCascade(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	root := mustCreate(t, s, task.Draft{Title: "root", Tags: []string{"only"}})
	child := mustCreate(t, s, task.Draft{Title: "child", ParentID: root})
	grand := mustCreate(t, s, task.Draft{Title: "grand", ParentID: child})
	other := mustCreate(t, s, task.Draft{Title: "other"})

	deleted, err := s.Delete(ctx, root, true)
	if err != nil {
		t.Fatalf("cascade delete failed: %v", err)
	}
	if deleted[0] != root || len(deleted) != 3 {
		t.Errorf("deleted = %v, want [%s %s %s]", deleted, root, child, grand)
	}

	for _, id := range []string{root, child, grand} {
		if _, err := s.Get(ctx, id); !errors.Is(err, task.ErrNotFound) {
			t.Errorf("task %s survived cascade delete", id)
		}
	}
	if _, err := s.Get(ctx, other); err != nil {
		t.Errorf("unrelated task deleted: %v", err)
	}

	// The only task with the tag is gone, so the tag is pruned.
	tags, err := s.AllTags(ctx)
	if err != nil {
		t.Fatalf("failed to list tags: %v", err)
	}
	if len(tags) != 0 {
		t.Errorf("orphan tags not pruned: %v", tags)
	}
}

func TestDeleteReparents(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	root := mustCreate(t, s, task.Draft{Title: "root"})
	child := mustCreate(t, s, task.Draft{Title: "child", ParentID: root})

	deleted, err := s.Delete(ctx, root, false)
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if len(deleted) != 1 || deleted[0] != root {
		t.Errorf("deleted = %v, want [%s]", deleted, root)
	}

	got, err := s.Get(ctx, child)
	if err != nil {
		t.Fatalf("child gone: %v", err)
	}
	if got.ParentID != "" {
		t.Errorf("child not promoted to root: parent = %q", got.ParentID)
	}
}

func TestStatistics(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	mustCreate(t, s, task.Draft{Title: "a", Urgency: 5})
	b := mustCreate(t, s, task.Draft{Title: "b", Urgency: 2})
	mustCreate(t, s, task.Draft{Title: "c", Urgency: 2})

	done := true
	if _, err := s.Update(ctx, b, task.Update{Completed: &done}); err != nil {
		t.Fatalf("failed to complete: %v", err)
	}

	stats, err := s.Statistics(ctx)
	if err != nil {
		t.Fatalf("failed to compute statistics: %v", err)
	}
	if stats.Total != 3 || stats.Completed != 1 {
		t.Errorf("total/completed = %d/%d, want 3/1", stats.Total, stats.Completed)
	}
	if stats.CompletionRate < 33.2 || stats.CompletionRate > 33.4 {
		t.Errorf("completion rate = %.2f, want ~33.3", stats.CompletionRate)
	}
	// Completed tasks are excluded from the urgency histogram.
	if stats.ByUrgency[5] != 1 || stats.ByUrgency[2] != 1 {
		t.Errorf("by urgency = %v", stats.ByUrgency)
	}
}

func TestReset(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	mustCreate(t, s, task.Draft{Title: "doomed", Tags: []string{"x"}})
	if err := s.Reset(ctx); err != nil {
		t.Fatalf("reset failed: %v", err)
	}

	tasks, err := s.List(ctx, Filter{IncludeCompleted: true})
	if err != nil {
		t.Fatalf("list after reset failed: %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("tasks survived reset: %v", tasks)
	}

	// Store still usable.
	mustCreate(t, s, task.Draft{Title: "fresh"})
}
