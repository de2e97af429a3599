// Package store provides the canonical SQLite task store for DeltaTask.
//
// The store owns Task and Tag entities and is the single source of truth;
// the markdown vault is a best-effort mirror maintained by the sync engine.
// Every mutating operation runs inside one transaction and rolls back
// entirely on failure, so callers never observe partial field changes.
//
// The database runs embedded (ncruces/go-sqlite3) with WAL mode for
// concurrent readers during writes.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/deltatask/deltatask/internal/task"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// Store wraps the SQLite connection with task-specific operations.
type Store struct {
	conn *sql.DB
	path string
}

// Open creates a store at the specified path, creating the parent directory
// and the schema if needed.
//
// The caller MUST call Close() when done.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	s := &Store{conn: conn, path: path}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := s.conn.Exec(pragma); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	if err := s.InitSchema(); err != nil {
		_ = s.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection after checkpointing the WAL.
func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}
	if _, err := s.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to checkpoint WAL: %v\n", err)
	}
	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	s.conn = nil
	return nil
}

// InitSchema creates the tasks, tags, and task_tags tables along with the
// indexes the list queries use. Idempotent.
func (s *Store) InitSchema() error {
	return s.InitSchemaContext(context.Background())
}

// InitSchemaContext creates the schema with context support.
func (s *Store) InitSchemaContext(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		deadline TEXT,
		urgency INTEGER NOT NULL DEFAULT 1,
		effort INTEGER NOT NULL DEFAULT 1,
		completed INTEGER NOT NULL DEFAULT 0,
		parent_id TEXT REFERENCES tasks(id),
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tags (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS task_tags (
		task_id TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		tag_id TEXT NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
		PRIMARY KEY (task_id, tag_id)
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_parent ON tasks(parent_id);
	CREATE INDEX IF NOT EXISTS idx_tasks_completed ON tasks(completed);
	CREATE INDEX IF NOT EXISTS idx_tasks_deadline ON tasks(deadline);
	CREATE INDEX IF NOT EXISTS idx_task_tags_tag ON task_tags(tag_id);
	`

	if _, err := s.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// Reset drops and recreates the schema, destroying all records.
func (s *Store) Reset(ctx context.Context) error {
	drop := `
	DROP TABLE IF EXISTS task_tags;
	DROP TABLE IF EXISTS tags;
	DROP TABLE IF EXISTS tasks;
	`
	if _, err := s.conn.ExecContext(ctx, drop); err != nil {
		return fmt.Errorf("failed to drop schema: %w", err)
	}
	return s.InitSchemaContext(ctx)
}

// orderClause is the user-visible ordering contract: deadline-less tasks
// last, ascending deadline, then descending urgency, ascending effort,
// and ID for determinism.
const orderClause = `ORDER BY
	CASE WHEN t.deadline IS NULL THEN 1 ELSE 0 END,
	t.deadline ASC,
	t.urgency DESC,
	t.effort ASC,
	t.id ASC`

// Create inserts a new task. Missing tags are created; the generated (or
// supplied) identifier is returned. The whole operation is one transaction.
func (s *Store) Create(ctx context.Context, draft task.Draft) (string, error) {
	if draft.Urgency == 0 {
		draft.Urgency = 1
	}
	if draft.Effort == 0 {
		draft.Effort = 1
	}
	if err := draft.Validate(); err != nil {
		return "", err
	}

	id := draft.ID
	if id == "" {
		id = task.NewID()
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if draft.ParentID != "" {
		if err := taskExists(ctx, tx, draft.ParentID); err != nil {
			return "", err
		}
	}

	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO tasks (id, title, description, deadline, urgency, effort, completed, parent_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?, ?)`,
		id,
		draft.Title,
		draft.Description,
		nullString(draft.Deadline),
		draft.Urgency,
		draft.Effort,
		nullString(draft.ParentID),
		now.Format(time.RFC3339Nano),
		now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert task: %w", err)
	}

	if err := replaceTags(ctx, tx, id, task.NormalizeTags(draft.Tags)); err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}
	return id, nil
}

// Get retrieves a single task by ID.
// Returns task.ErrNotFound if no record exists.
func (s *Store) Get(ctx context.Context, id string) (*task.Task, error) {
	row := s.conn.QueryRowContext(ctx, `
		SELECT t.id, t.title, t.description, t.deadline, t.urgency, t.effort,
		       t.completed, t.parent_id, t.created_at, t.updated_at
		FROM tasks t WHERE t.id = ?`, id)

	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, task.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := s.attachTags(ctx, []*task.Task{t}); err != nil {
		return nil, err
	}
	return t, nil
}

// Filter configures the List query.
type Filter struct {
	// IncludeCompleted includes completed tasks in the result.
	IncludeCompleted bool
	// ParentID filters to direct children of a task; a pointer to the
	// empty string selects roots; nil applies no parent filter.
	ParentID *string
	// Tags filters to tasks carrying any of the given tag names.
	Tags []string
}

// List retrieves tasks matching the filter in the ordering-contract order.
func (s *Store) List(ctx context.Context, filter Filter) ([]*task.Task, error) {
	var conditions []string
	var args []interface{}

	if !filter.IncludeCompleted {
		conditions = append(conditions, "t.completed = 0")
	}
	if filter.ParentID != nil {
		if *filter.ParentID == "" {
			conditions = append(conditions, "t.parent_id IS NULL")
		} else {
			conditions = append(conditions, "t.parent_id = ?")
			args = append(args, *filter.ParentID)
		}
	}

	query := `SELECT `
	if len(filter.Tags) > 0 {
		query += `DISTINCT `
	}
	query += `t.id, t.title, t.description, t.deadline, t.urgency, t.effort,
	       t.completed, t.parent_id, t.created_at, t.updated_at
	FROM tasks t`

	if len(filter.Tags) > 0 {
		query += `
		JOIN task_tags tt ON tt.task_id = t.id
		JOIN tags g ON g.id = tt.tag_id`
		placeholders := strings.Repeat("?,", len(filter.Tags))
		conditions = append(conditions, "g.name IN ("+placeholders[:len(placeholders)-1]+")")
		for _, tag := range filter.Tags {
			args = append(args, tag)
		}
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " " + orderClause

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks, err := scanTasks(rows)
	if err != nil {
		return nil, err
	}
	if err := s.attachTags(ctx, tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// Search finds tasks whose title, description, or any tag name contains the
// query text, case-insensitively. Results are de-duplicated and follow the
// ordering contract.
func (s *Store) Search(ctx context.Context, text string) ([]*task.Task, error) {
	pattern := "%" + escapeLike(strings.ToLower(text)) + "%"

	rows, err := s.conn.QueryContext(ctx, `
		SELECT DISTINCT t.id, t.title, t.description, t.deadline, t.urgency, t.effort,
		       t.completed, t.parent_id, t.created_at, t.updated_at
		FROM tasks t
		LEFT JOIN task_tags tt ON tt.task_id = t.id
		LEFT JOIN tags g ON g.id = tt.tag_id
		WHERE lower(t.title) LIKE ? ESCAPE '\'
		   OR lower(t.description) LIKE ? ESCAPE '\'
		   OR lower(g.name) LIKE ? ESCAPE '\'
		`+orderClause,
		pattern, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to search tasks: %w", err)
	}
	defer rows.Close()

	tasks, err := scanTasks(rows)
	if err != nil {
		return nil, err
	}
	if err := s.attachTags(ctx, tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// Update applies a partial update to a task. Returns false with
// task.ErrNotFound when the identifier has no record. Supplying tags
// replaces the association set wholesale. The updated timestamp is always
// refreshed. Parent changes are rejected when they would create a cycle.
func (s *Store) Update(ctx context.Context, id string, upd task.Update) (bool, error) {
	if err := upd.Validate(); err != nil {
		return false, err
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := taskExists(ctx, tx, id); err != nil {
		return false, err
	}

	var sets []string
	var args []interface{}
	set := func(col string, v interface{}) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}

	if upd.Title != nil {
		set("title", *upd.Title)
	}
	if upd.Description != nil {
		set("description", *upd.Description)
	}
	if upd.Deadline != nil {
		set("deadline", nullString(*upd.Deadline))
	}
	if upd.Urgency != nil {
		set("urgency", *upd.Urgency)
	}
	if upd.Effort != nil {
		set("effort", *upd.Effort)
	}
	if upd.Completed != nil {
		set("completed", boolInt(*upd.Completed))
	}
	if upd.ParentID != nil {
		if *upd.ParentID != "" {
			if err := taskExists(ctx, tx, *upd.ParentID); err != nil {
				return false, fmt.Errorf("parent: %w", err)
			}
			if err := checkNoCycle(ctx, tx, id, *upd.ParentID); err != nil {
				return false, err
			}
		}
		set("parent_id", nullString(*upd.ParentID))
	}

	set("updated_at", time.Now().UTC().Format(time.RFC3339Nano))
	args = append(args, id)

	if _, err := tx.ExecContext(ctx,
		"UPDATE tasks SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...); err != nil {
		return false, fmt.Errorf("failed to update task %s: %w", id, err)
	}

	if upd.Tags != nil {
		if err := replaceTags(ctx, tx, id, task.NormalizeTags(*upd.Tags)); err != nil {
			return false, err
		}
		if err := pruneOrphanTags(ctx, tx); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return true, nil
}

// Delete removes a task. With cascade, every transitive descendant is
// deleted in the same transaction; without it, direct children are
// re-parented to the root (parent reference cleared) and survive.
// The returned slice holds the IDs actually deleted, the target first.
func (s *Store) Delete(ctx context.Context, id string, cascade bool) ([]string, error) {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := taskExists(ctx, tx, id); err != nil {
		return nil, err
	}

	deleted := []string{id}
	if cascade {
		descendants, err := descendantIDs(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		deleted = append(deleted, descendants...)
	} else {
		if _, err := tx.ExecContext(ctx,
			"UPDATE tasks SET parent_id = NULL WHERE parent_id = ?", id); err != nil {
			return nil, fmt.Errorf("failed to re-parent children of %s: %w", id, err)
		}
	}

	// Children first so the parent_id references never dangle.
	for i := len(deleted) - 1; i >= 0; i-- {
		if _, err := tx.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", deleted[i]); err != nil {
			return nil, fmt.Errorf("failed to delete task %s: %w", deleted[i], err)
		}
	}

	if err := pruneOrphanTags(ctx, tx); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return deleted, nil
}

// ChildIDs returns the direct children of a task, oldest first.
func (s *Store) ChildIDs(ctx context.Context, parentID string) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx,
		"SELECT id FROM tasks WHERE parent_id = ? ORDER BY created_at ASC, id ASC", parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query children of %s: %w", parentID, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan child id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AllTags returns every tag name in use, sorted.
func (s *Store) AllTags(ctx context.Context) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx, "SELECT name FROM tags ORDER BY name ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan tag name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Statistics computes the aggregate over all tasks, completed included.
func (s *Store) Statistics(ctx context.Context) (*task.Statistics, error) {
	stats := &task.Statistics{ByUrgency: make(map[int]int)}

	if err := s.conn.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM tasks").Scan(&stats.Total); err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}
	if err := s.conn.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM tasks WHERE completed = 1").Scan(&stats.Completed); err != nil {
		return nil, fmt.Errorf("failed to count completed tasks: %w", err)
	}
	if stats.Total > 0 {
		stats.CompletionRate = float64(stats.Completed) / float64(stats.Total) * 100
	}

	rows, err := s.conn.QueryContext(ctx,
		"SELECT urgency, COUNT(*) FROM tasks WHERE completed = 0 GROUP BY urgency")
	if err != nil {
		return nil, fmt.Errorf("failed to count by urgency: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var urgency, count int
		if err := rows.Scan(&urgency, &count); err != nil {
			return nil, fmt.Errorf("failed to scan urgency count: %w", err)
		}
		stats.ByUrgency[urgency] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	today := time.Now().Format(task.DeadlineLayout)
	weekOut := time.Now().AddDate(0, 0, 7).Format(task.DeadlineLayout)
	if err := s.conn.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM tasks
		WHERE completed = 0 AND deadline IS NOT NULL AND deadline BETWEEN ? AND ?`,
		today, weekOut).Scan(&stats.UpcomingDeadlines); err != nil {
		return nil, fmt.Errorf("failed to count upcoming deadlines: %w", err)
	}

	return stats, nil
}

// taskExists checks for a task row inside a transaction.
func taskExists(ctx context.Context, tx *sql.Tx, id string) error {
	var one int
	err := tx.QueryRowContext(ctx, "SELECT 1 FROM tasks WHERE id = ?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return task.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to check task %s: %w", id, err)
	}
	return nil
}

// checkNoCycle walks the ancestor chain of newParent and rejects the update
// when it reaches id, which would turn the forest into a cycle.
func checkNoCycle(ctx context.Context, tx *sql.Tx, id, newParent string) error {
	current := newParent
	for current != "" {
		if current == id {
			return &task.ValidationError{Field: "parent", Reason: "would create a cycle"}
		}
		var parent sql.NullString
		err := tx.QueryRowContext(ctx,
			"SELECT parent_id FROM tasks WHERE id = ?", current).Scan(&parent)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to walk ancestors: %w", err)
		}
		current = parent.String
	}
	return nil
}

// descendantIDs collects the transitive descendants of id, parents before
// their children.
func descendantIDs(ctx context.Context, tx *sql.Tx, id string) ([]string, error) {
	rows, err := tx.QueryContext(ctx, `
		WITH RECURSIVE sub AS (
			SELECT id, 1 AS depth FROM tasks WHERE parent_id = ?
			UNION ALL
			SELECT t.id, sub.depth + 1 FROM tasks t JOIN sub ON t.parent_id = sub.id
		)
		SELECT id FROM sub ORDER BY depth ASC, id ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to collect descendants of %s: %w", id, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var child string
		if err := rows.Scan(&child); err != nil {
			return nil, fmt.Errorf("failed to scan descendant id: %w", err)
		}
		ids = append(ids, child)
	}
	return ids, rows.Err()
}

// replaceTags rewrites the association rows for a task, creating tag rows
// for names not yet present. Replacement is wholesale, not a merge.
func replaceTags(ctx context.Context, tx *sql.Tx, taskID string, tags []string) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM task_tags WHERE task_id = ?", taskID); err != nil {
		return fmt.Errorf("failed to clear tags for %s: %w", taskID, err)
	}

	for _, name := range tags {
		var tagID string
		err := tx.QueryRowContext(ctx, "SELECT id FROM tags WHERE name = ?", name).Scan(&tagID)
		if errors.Is(err, sql.ErrNoRows) {
			tagID = uuid.NewString()
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO tags (id, name) VALUES (?, ?)", tagID, name); err != nil {
				return fmt.Errorf("failed to create tag %q: %w", name, err)
			}
		} else if err != nil {
			return fmt.Errorf("failed to look up tag %q: %w", name, err)
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO task_tags (task_id, tag_id) VALUES (?, ?)", taskID, tagID); err != nil {
			return fmt.Errorf("failed to associate tag %q: %w", name, err)
		}
	}
	return nil
}

// pruneOrphanTags removes tag rows no task references anymore so AllTags
// and the vault tag index reflect only live associations.
func pruneOrphanTags(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM tags WHERE id NOT IN (SELECT DISTINCT tag_id FROM task_tags)"); err != nil {
		return fmt.Errorf("failed to prune orphan tags: %w", err)
	}
	return nil
}

// attachTags loads the tag names for each task in one query.
func (s *Store) attachTags(ctx context.Context, tasks []*task.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	byID := make(map[string]*task.Task, len(tasks))
	placeholders := make([]string, 0, len(tasks))
	args := make([]interface{}, 0, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
		placeholders = append(placeholders, "?")
		args = append(args, t.ID)
	}

	rows, err := s.conn.QueryContext(ctx, `
		SELECT tt.task_id, g.name
		FROM task_tags tt JOIN tags g ON g.id = tt.tag_id
		WHERE tt.task_id IN (`+strings.Join(placeholders, ",")+`)
		ORDER BY g.name ASC`, args...)
	if err != nil {
		return fmt.Errorf("failed to load tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var taskID, name string
		if err := rows.Scan(&taskID, &name); err != nil {
			return fmt.Errorf("failed to scan tag row: %w", err)
		}
		if t, ok := byID[taskID]; ok {
			t.Tags = append(t.Tags, name)
		}
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanTask scans one task row (without tags).
func scanTask(row rowScanner) (*task.Task, error) {
	var t task.Task
	var deadline, parentID sql.NullString
	var completed int
	var createdAt, updatedAt string

	err := row.Scan(
		&t.ID,
		&t.Title,
		&t.Description,
		&deadline,
		&t.Urgency,
		&t.Effort,
		&completed,
		&parentID,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Deadline = deadline.String
	t.ParentID = parentID.String
	t.Completed = completed != 0
	if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		t.CreatedAt = ts
	}
	if ts, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
		t.UpdatedAt = ts
	}
	return &t, nil
}

// scanTasks scans multiple task rows (without tags).
func scanTasks(rows *sql.Rows) ([]*task.Task, error) {
	var tasks []*task.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}
	return tasks, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	return strings.ReplaceAll(s, `_`, `\_`)
}
