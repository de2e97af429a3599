package vault

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/deltatask/deltatask/internal/task"
)

func setupProjector(t *testing.T) *Projector {
	t.Helper()
	p := NewProjector(t.TempDir(), log.New(io.Discard, "", 0))
	p.SetClock(func() time.Time {
		return time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	})
	if err := p.EnsureLayout(); err != nil {
		t.Fatalf("failed to create layout: %v", err)
	}
	return p
}

func readVaultFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}

func testTask(id, title string) *task.Task {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	return &task.Task{
		ID: id, Title: title, Urgency: 1, Effort: 1,
		CreatedAt: now, UpdatedAt: now,
	}
}

func TestEnsureLayout(t *testing.T) {
	p := setupProjector(t)
	for _, path := range []string{p.TasksDir(), p.TagsDir(), filepath.Join(p.Root(), "index.md")} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("missing %s: %v", path, err)
		}
	}
}

func TestRenderTaskPreservesRegions(t *testing.T) {
	p := setupProjector(t)
	tk := testTask("t1", "Original")

	if err := p.RenderTask(tk); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if err := p.LinkChild("t1", "c1", "Child"); err != nil {
		t.Fatalf("link failed: %v", err)
	}

	tk.Title = "Renamed"
	tk.Description = "New notes."
	if err := p.RenderTask(tk); err != nil {
		t.Fatalf("second render failed: %v", err)
	}

	text := readVaultFile(t, p.TaskPath("t1"))
	if !strings.Contains(text, "Renamed") || !strings.Contains(text, "New notes.") {
		t.Error("metadata/description not refreshed")
	}
	if !strings.Contains(text, "[[c1|Child]]") {
		t.Error("subtask link lost across re-render")
	}
}

func TestRenderTaskSkipsIdenticalWrite(t *testing.T) {
	p := setupProjector(t)
	tk := testTask("t1", "Steady")

	if err := p.RenderTask(tk); err != nil {
		t.Fatalf("render failed: %v", err)
	}

	// An unchanged task must not touch the file, or the watch daemon would
	// chase the projector's own writes.
	stale := time.Now().Add(-time.Hour)
	path := p.TaskPath("t1")
	if err := os.Chtimes(path, stale, stale); err != nil {
		t.Fatal(err)
	}
	if err := p.RenderTask(tk); err != nil {
		t.Fatalf("second render failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if !info.ModTime().Equal(stale) {
		t.Error("unchanged task rewritten")
	}
}

func TestRenderTaskRecreatesMalformed(t *testing.T) {
	p := setupProjector(t)
	tk := testTask("t1", "Fine")

	if err := os.WriteFile(p.TaskPath("t1"), []byte("garbage, no frontmatter"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := p.RenderTask(tk); err != nil {
		t.Fatalf("render over malformed file failed: %v", err)
	}
	if _, err := ParseDocument([]byte(readVaultFile(t, p.TaskPath("t1")))); err != nil {
		t.Errorf("recreated document still malformed: %v", err)
	}
}

func TestLinkChildMissingParent(t *testing.T) {
	p := setupProjector(t)
	// Missing parent is logged, not an error: the store mutation already
	// committed and must not look failed.
	if err := p.LinkChild("ghost", "c1", "Child"); err != nil {
		t.Errorf("got %v, want nil", err)
	}
}

func TestUnlinkChild(t *testing.T) {
	p := setupProjector(t)
	if err := p.RenderTask(testTask("t1", "Parent")); err != nil {
		t.Fatal(err)
	}
	if err := p.LinkChild("t1", "c1", "Child"); err != nil {
		t.Fatal(err)
	}
	if err := p.UnlinkChild("t1", "c1"); err != nil {
		t.Fatalf("unlink failed: %v", err)
	}
	if strings.Contains(readVaultFile(t, p.TaskPath("t1")), "c1") {
		t.Error("link still present after unlink")
	}
	// Absent link: warn and continue.
	if err := p.UnlinkChild("t1", "c1"); err != nil {
		t.Errorf("second unlink: got %v, want nil", err)
	}
}

func TestTagListingLifecycle(t *testing.T) {
	p := setupProjector(t)

	if err := p.UpdateTagIndices([]string{"work"}, "t1", "First"); err != nil {
		t.Fatalf("failed to create listing: %v", err)
	}
	path := filepath.Join(p.TagsDir(), "work.md")
	text := readVaultFile(t, path)
	if !strings.Contains(text, "# work") || !strings.Contains(text, "- [[tasks/t1|First]]") {
		t.Errorf("unexpected listing:\n%s", text)
	}

	// Second task appends; repeat insert is a no-op.
	if err := p.UpdateTagIndices([]string{"work"}, "t2", "Second"); err != nil {
		t.Fatal(err)
	}
	if err := p.UpdateTagIndices([]string{"work"}, "t1", "First"); err != nil {
		t.Fatal(err)
	}
	text = readVaultFile(t, path)
	if strings.Count(text, "tasks/t1") != 1 {
		t.Error("duplicate link line")
	}
	if !strings.Contains(text, "tasks/t2") {
		t.Error("second link missing")
	}

	// Removing one keeps the file; removing the last deletes it.
	if err := p.RemoveFromTagIndex("work", "t1"); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(readVaultFile(t, path), "tasks/t1") {
		t.Error("link survived removal")
	}
	if err := p.RemoveFromTagIndex("work", "t2"); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("empty listing not deleted")
	}
}

func TestRebuildViews(t *testing.T) {
	p := setupProjector(t)
	// Clock is pinned to 2025-03-15.
	overdue := testTask("t1", "Late")
	overdue.Deadline = "2025-03-10"
	overdue.Urgency = 3
	today := testTask("t2", "Now")
	today.Deadline = "2025-03-15"
	today.Urgency = 5
	future := testTask("t3", "Later")
	future.Urgency = 4
	done := testTask("t4", "Done")
	done.Completed = true
	done.Deadline = "2025-03-10"

	all := []*task.Task{overdue, today, future, done}
	task.Sort(all)
	if err := p.RebuildViews(all); err != nil {
		t.Fatalf("rebuild failed: %v", err)
	}

	allView := readVaultFile(t, filepath.Join(p.TasksDir(), "all.md"))
	if !strings.Contains(allView, "✅ [[t4|Done]]") {
		t.Error("completed marker missing in all view")
	}
	if !strings.Contains(allView, "[[t3|Later]] (Due: No deadline)") {
		t.Error("deadline-less rendering wrong in all view")
	}

	urgentView := readVaultFile(t, filepath.Join(p.TasksDir(), "urgent.md"))
	if !strings.Contains(urgentView, "🔥🔥🔥🔥🔥 [[t2|Now]]") {
		t.Error("urgency flames missing in urgent view")
	}
	if strings.Contains(urgentView, "t1") {
		t.Error("urgency-3 task leaked into urgent view")
	}

	todayView := readVaultFile(t, filepath.Join(p.TasksDir(), "today.md"))
	if !strings.Contains(todayView, "[[t2|Now]]") || strings.Contains(todayView, "t1") {
		t.Errorf("today view wrong:\n%s", todayView)
	}

	overdueView := readVaultFile(t, filepath.Join(p.TasksDir(), "overdue.md"))
	if !strings.Contains(overdueView, "[[t1|Late]] (Due: 2025-03-10)") {
		t.Errorf("overdue view wrong:\n%s", overdueView)
	}
	if strings.Contains(overdueView, "t4") {
		t.Error("completed task leaked into overdue view")
	}

	// Empty rebuild falls back to placeholder lines.
	if err := p.RebuildViews(nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(readVaultFile(t, filepath.Join(p.TasksDir(), "all.md")), "No tasks found.") {
		t.Error("empty placeholder missing")
	}
}

func TestRebuildViewsIdempotent(t *testing.T) {
	p := setupProjector(t)
	tk := testTask("t1", "Only")
	tk.Deadline = "2025-04-01"

	if err := p.RebuildViews([]*task.Task{tk}); err != nil {
		t.Fatal(err)
	}
	first := readVaultFile(t, filepath.Join(p.TasksDir(), "all.md"))
	if err := p.RebuildViews([]*task.Task{tk}); err != nil {
		t.Fatal(err)
	}
	if second := readVaultFile(t, filepath.Join(p.TasksDir(), "all.md")); first != second {
		t.Error("repeated rebuild changed bytes")
	}
}

func TestWriteStatistics(t *testing.T) {
	p := setupProjector(t)
	stats := &task.Statistics{
		Total: 4, Completed: 1, CompletionRate: 25,
		ByUrgency:         map[int]int{5: 1, 1: 2},
		UpcomingDeadlines: 2,
	}
	if err := p.WriteStatistics(stats); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	text := readVaultFile(t, filepath.Join(p.Root(), "statistics.md"))
	for _, want := range []string{
		"**Total Tasks**: 4",
		"**Completion Rate**: 25.0%",
		"**Level 5**: 1 tasks",
		"**Level 3**: 0 tasks",
		"**Upcoming Deadlines (Next 7 Days)**: 2",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("statistics missing %q:\n%s", want, text)
		}
	}
}

func TestWriteIndexSortsTags(t *testing.T) {
	p := setupProjector(t)
	if err := p.WriteIndex([]string{"zeta", "alpha"}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	text := readVaultFile(t, filepath.Join(p.TagsDir(), "index.md"))
	if strings.Index(text, "alpha") > strings.Index(text, "zeta") {
		t.Error("tags not sorted in index")
	}
}

func TestDeleteTask(t *testing.T) {
	p := setupProjector(t)
	if err := p.RenderTask(testTask("t1", "Doomed")); err != nil {
		t.Fatal(err)
	}
	if err := p.DeleteTask("t1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := os.Stat(p.TaskPath("t1")); !os.IsNotExist(err) {
		t.Error("document survived delete")
	}
	// Already gone: warn, not error.
	if err := p.DeleteTask("t1"); err != nil {
		t.Errorf("second delete: got %v, want nil", err)
	}
}
