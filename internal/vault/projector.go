package vault

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/deltatask/deltatask/internal/task"
)

// Projector renders canonical store state into vault documents.
//
// The projector is a pure function of current task state plus prior file
// state: per-task documents are patched incrementally (preserving the
// Subtasks region and any body the human added), while view documents are
// always rebuilt in full. All methods return errors for the orchestrator to
// collect; none of them roll back a store mutation.
type Projector struct {
	root   string
	logger *log.Logger

	// now is injected so today/overdue views are testable.
	now func() time.Time
}

// NewProjector creates a projector over the given vault root.
// If logger is nil, a default logger writing to stderr is used.
func NewProjector(root string, logger *log.Logger) *Projector {
	if logger == nil {
		logger = log.New(os.Stderr, "[vault] ", log.LstdFlags)
	}
	return &Projector{
		root:   root,
		logger: logger,
		now:    time.Now,
	}
}

// SetClock overrides the projector's clock. Intended for tests.
func (p *Projector) SetClock(now func() time.Time) {
	p.now = now
}

// Root returns the vault root directory.
func (p *Projector) Root() string { return p.root }

// TasksDir returns the directory holding per-task documents and views.
func (p *Projector) TasksDir() string { return filepath.Join(p.root, "tasks") }

// TagsDir returns the directory holding tag listings.
func (p *Projector) TagsDir() string { return filepath.Join(p.root, "tags") }

// TaskPath returns the document path for a task identifier.
func (p *Projector) TaskPath(id string) string {
	return filepath.Join(p.TasksDir(), id+".md")
}

func (p *Projector) tagPath(name string) string {
	return filepath.Join(p.TagsDir(), TagFilename(name)+".md")
}

// EnsureLayout creates the vault directory structure and, for a fresh
// vault, the root index. An existing index is left alone; WriteIndex owns
// it once tags are known.
func (p *Projector) EnsureLayout() error {
	for _, dir := range []string{p.TasksDir(), p.TagsDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create vault directory %s: %w", dir, err)
		}
	}
	if _, err := os.Stat(filepath.Join(p.root, "index.md")); os.IsNotExist(err) {
		return p.WriteIndex(nil)
	}
	return nil
}

// RenderTask writes (or rewrites) the task's document.
//
// A new document gets empty Subtasks and Related regions. An existing
// document keeps its Subtasks and Related regions verbatim while the
// metadata block and description are replaced. An existing document whose
// frontmatter can no longer be parsed is recreated from scratch.
func (p *Projector) RenderTask(t *task.Task) error {
	path := p.TaskPath(t.ID)

	doc := NewDocument(t)
	if data, err := os.ReadFile(path); err == nil {
		if existing, perr := ParseDocument(data); perr == nil {
			doc.Subtasks = existing.Subtasks
			doc.Related = existing.Related
		} else {
			p.logger.Printf("WARNING: recreating malformed document for %s: %v", t.ID, perr)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to read task document %s: %w", path, err)
	}

	return p.writeDocument(path, doc)
}

// LinkChild inserts a child link into the parent's Subtasks region.
// Insertion is idempotent: a link already present is not duplicated.
// A missing parent document is logged and skipped.
func (p *Projector) LinkChild(parentID, childID, childTitle string) error {
	path := p.TaskPath(parentID)
	doc, err := p.loadDocument(path)
	if err != nil {
		if os.IsNotExist(err) {
			p.logger.Printf("WARNING: parent document not found: %s", path)
			return nil
		}
		return err
	}

	if !doc.AddSubtaskLink(childID, childTitle) {
		return nil
	}
	return p.writeDocument(path, doc)
}

// UnlinkChild removes any link referencing the child from the parent's
// Subtasks region. A missing parent document or absent link is logged and
// the document is left unchanged.
func (p *Projector) UnlinkChild(parentID, childID string) error {
	path := p.TaskPath(parentID)
	doc, err := p.loadDocument(path)
	if err != nil {
		if os.IsNotExist(err) {
			p.logger.Printf("WARNING: parent document not found when unlinking %s: %s", childID, path)
			return nil
		}
		return err
	}

	if !doc.RemoveSubtaskLink(childID) {
		p.logger.Printf("WARNING: link to %s not found in parent %s", childID, parentID)
		return nil
	}
	return p.writeDocument(path, doc)
}

// tagLink is the line format of a task reference inside a tag listing.
func tagLink(taskID, taskTitle string) string {
	return fmt.Sprintf("- [[tasks/%s|%s]]", taskID, taskTitle)
}

// UpdateTagIndices adds the task's link line to each tag listing, creating
// listings for tags that have none yet. An existing exact line is not
// duplicated.
func (p *Projector) UpdateTagIndices(tags []string, taskID, taskTitle string) error {
	for _, tag := range tags {
		path := p.tagPath(tag)
		link := tagLink(taskID, taskTitle)

		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			content := fmt.Sprintf("# %s\n\nTasks with this tag:\n\n%s\n", tag, link)
			if werr := os.WriteFile(path, []byte(content), 0o644); werr != nil {
				return fmt.Errorf("failed to create tag listing %s: %w", path, werr)
			}
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to read tag listing %s: %w", path, err)
		}

		if containsLine(string(data), link) {
			continue
		}
		content := strings.TrimRight(string(data), "\n") + "\n" + link + "\n"
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("failed to update tag listing %s: %w", path, err)
		}
	}
	return nil
}

// RemoveFromTagIndex filters the task's lines out of a tag listing. When no
// link lines remain the listing file is deleted rather than left empty.
func (p *Projector) RemoveFromTagIndex(tag, taskID string) error {
	path := p.tagPath(tag)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		p.logger.Printf("WARNING: tag listing not found for %q when removing task %s", tag, taskID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read tag listing %s: %w", path, err)
	}

	var kept []string
	links := 0
	for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		if strings.Contains(line, taskID) {
			continue
		}
		if strings.HasPrefix(line, "- ") {
			links++
		}
		kept = append(kept, line)
	}

	if links == 0 {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to remove empty tag listing %s: %w", path, err)
		}
		return nil
	}

	content := strings.Join(kept, "\n") + "\n"
	if err := writeFile(path, []byte(content)); err != nil {
		return fmt.Errorf("failed to update tag listing %s: %w", path, err)
	}
	return nil
}

// DeleteTask removes the task's document. A missing document is logged and
// treated as success.
func (p *Projector) DeleteTask(id string) error {
	path := p.TaskPath(id)
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			p.logger.Printf("WARNING: task document not found when deleting: %s", path)
			return nil
		}
		return fmt.Errorf("failed to delete task document %s: %w", path, err)
	}
	return nil
}

// RebuildViews fully rewrites the all/urgent/today/overdue views from the
// given snapshot. The snapshot must include completed tasks; it is expected
// in the store's ordering-contract order, which makes repeated rebuilds
// byte-identical.
func (p *Projector) RebuildViews(all []*task.Task) error {
	today := p.now().Format(task.DeadlineLayout)

	if err := p.writeView("all.md", "# All Tasks", "No tasks found.", all,
		func(t *task.Task) bool { return true },
		func(t *task.Task) string {
			marker := ""
			if t.Completed {
				marker = "✅ "
			}
			return fmt.Sprintf("- %s[[%s|%s]]%s", marker, t.ID, t.Title, dueSuffix(t))
		}); err != nil {
		return err
	}

	if err := p.writeView("urgent.md", "# Urgent Tasks", "No urgent tasks found.", all,
		func(t *task.Task) bool { return !t.Completed && t.Urgency >= 4 },
		func(t *task.Task) string {
			return fmt.Sprintf("- %s [[%s|%s]]%s", flames(t.Urgency), t.ID, t.Title, dueSuffix(t))
		}); err != nil {
		return err
	}

	if err := p.writeView("today.md", "# Due Today", "No tasks due today.", all,
		func(t *task.Task) bool { return !t.Completed && t.Deadline == today },
		func(t *task.Task) string {
			return fmt.Sprintf("- %s [[%s|%s]]", flames(t.Urgency), t.ID, t.Title)
		}); err != nil {
		return err
	}

	return p.writeView("overdue.md", "# Overdue Tasks", "No overdue tasks.", all,
		func(t *task.Task) bool { return !t.Completed && t.Deadline != "" && t.Deadline < today },
		func(t *task.Task) string {
			return fmt.Sprintf("- %s [[%s|%s]] (Due: %s)", flames(t.Urgency), t.ID, t.Title, t.Deadline)
		})
}

func (p *Projector) writeView(name, heading, empty string, all []*task.Task,
	include func(*task.Task) bool, line func(*task.Task) string) error {

	var b strings.Builder
	b.WriteString(heading + "\n\n")
	n := 0
	for _, t := range all {
		if !include(t) {
			continue
		}
		b.WriteString(line(t) + "\n")
		n++
	}
	if n == 0 {
		b.WriteString(empty + "\n")
	}

	path := filepath.Join(p.TasksDir(), name)
	if err := writeFile(path, []byte(b.String())); err != nil {
		return fmt.Errorf("failed to write view %s: %w", name, err)
	}
	return nil
}

// WriteStatistics rewrites the statistics document.
func (p *Projector) WriteStatistics(stats *task.Statistics) error {
	var b strings.Builder
	b.WriteString("# Task Statistics\n\n")
	b.WriteString("## Overview\n")
	fmt.Fprintf(&b, "- **Total Tasks**: %d\n", stats.Total)
	fmt.Fprintf(&b, "- **Completed Tasks**: %d\n", stats.Completed)
	fmt.Fprintf(&b, "- **Completion Rate**: %.1f%%\n", stats.CompletionRate)
	fmt.Fprintf(&b, "- **Upcoming Deadlines (Next 7 Days)**: %d\n", stats.UpcomingDeadlines)
	b.WriteString("\n## By Urgency\n")
	for urgency := 5; urgency >= 1; urgency-- {
		fmt.Fprintf(&b, "- **Level %d**: %d tasks\n", urgency, stats.ByUrgency[urgency])
	}

	path := filepath.Join(p.root, "statistics.md")
	if err := writeFile(path, []byte(b.String())); err != nil {
		return fmt.Errorf("failed to write statistics: %w", err)
	}
	return nil
}

// WriteIndex rewrites the vault root index and the tag index. Tags are
// sorted so repeated writes are byte-identical.
func (p *Projector) WriteIndex(allTags []string) error {
	index := `# Task Vault

## Overview
This vault contains your tasks organized as a graph of interconnected notes.

- [[tasks/all|All Tasks]]
- [[tags/index|Tags]]
- [[statistics|Statistics]]

## Quick Navigation
- [[tasks/urgent|Urgent Tasks]]
- [[tasks/today|Due Today]]
- [[tasks/overdue|Overdue Tasks]]
`
	if err := writeFile(filepath.Join(p.root, "index.md"), []byte(index)); err != nil {
		return fmt.Errorf("failed to write vault index: %w", err)
	}

	sorted := append([]string(nil), allTags...)
	sort.Strings(sorted)

	var b strings.Builder
	b.WriteString("# Tags\n\n")
	for _, tag := range sorted {
		fmt.Fprintf(&b, "- [[%s|%s]]\n", TagFilename(tag), tag)
	}
	if err := writeFile(filepath.Join(p.TagsDir(), "index.md"), []byte(b.String())); err != nil {
		return fmt.Errorf("failed to write tag index: %w", err)
	}
	return nil
}

// loadDocument reads and parses a task document.
func (p *Projector) loadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document %s: %w", path, err)
	}
	return doc, nil
}

func (p *Projector) writeDocument(path string, doc *Document) error {
	data, err := doc.Render()
	if err != nil {
		return err
	}
	if err := writeFile(path, data); err != nil {
		return fmt.Errorf("failed to write document %s: %w", path, err)
	}
	return nil
}

// writeFile skips the write when the file already holds exactly these
// bytes. Projections run after every mutation and every sync; rewriting
// unchanged files would feed the daemon's watcher its own output.
func writeFile(path string, data []byte) error {
	if existing, err := os.ReadFile(path); err == nil && bytes.Equal(existing, data) {
		return nil
	}
	return os.WriteFile(path, data, 0o644)
}

func dueSuffix(t *task.Task) string {
	if t.Deadline == "" {
		return " (Due: No deadline)"
	}
	return fmt.Sprintf(" (Due: %s)", t.Deadline)
}

func flames(urgency int) string {
	return strings.Repeat("🔥", urgency)
}

// containsLine reports whether content has a line exactly equal to line.
func containsLine(content, line string) bool {
	for _, l := range strings.Split(content, "\n") {
		if l == line {
			return true
		}
	}
	return false
}
