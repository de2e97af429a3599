// Package task provides the core data structures for DeltaTask records.
package task

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// DeadlineLayout is the calendar-date form used for deadlines everywhere:
// store columns, vault frontmatter, and view documents.
const DeadlineLayout = "2006-01-02"

// ValidEfforts is the set of allowed effort values. Effort is estimated in
// Fibonacci points; anything outside this set is rejected before any mutation.
var ValidEfforts = []int{1, 2, 3, 5, 8, 13, 21}

// Task is a canonical task record.
//
// Tasks form a forest: ParentID refers to another task's ID, and an empty
// ParentID marks a root. The ID is generated once and never changes; it is
// the join key between the store row and the vault document filename.
type Task struct {
	ID          string
	Title       string
	Description string

	// Deadline is an optional ISO calendar date (DeadlineLayout).
	// Empty string means no deadline.
	Deadline string

	Urgency   int  // 1 (low) to 5 (critical)
	Effort    int  // Fibonacci points from ValidEfforts
	Completed bool

	ParentID string

	CreatedAt time.Time
	UpdatedAt time.Time

	// Tags holds the associated tag names, sorted and de-duplicated.
	Tags []string
}

// Draft holds the fields a caller supplies when creating a task.
// Zero urgency/effort default to 1.
type Draft struct {
	ID          string // optional; generated when empty
	Title       string
	Description string
	Deadline    string
	Urgency     int
	Effort      int
	ParentID    string
	Tags        []string
}

// Update describes a partial task mutation. Nil fields are left unchanged.
// Supplying Tags replaces the association set wholesale (not merged).
// An empty *Deadline or *ParentID clears the field.
type Update struct {
	Title       *string
	Description *string
	Deadline    *string
	Urgency     *int
	Effort      *int
	Completed   *bool
	ParentID    *string
	Tags        *[]string
}

// Empty reports whether the update carries no field changes.
func (u Update) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Deadline == nil &&
		u.Urgency == nil && u.Effort == nil && u.Completed == nil &&
		u.ParentID == nil && u.Tags == nil
}

// NewID returns a fresh task identifier.
func NewID() string {
	return uuid.NewString()
}

// ValidateUrgency checks the 1..5 urgency range.
func ValidateUrgency(urgency int) error {
	if urgency < 1 || urgency > 5 {
		return &ValidationError{Field: "urgency", Reason: fmt.Sprintf("must be between 1 and 5 (got %d)", urgency)}
	}
	return nil
}

// ValidateEffort checks membership in ValidEfforts.
func ValidateEffort(effort int) error {
	for _, v := range ValidEfforts {
		if effort == v {
			return nil
		}
	}
	return &ValidationError{Field: "effort", Reason: fmt.Sprintf("must be a Fibonacci number from %v (got %d)", ValidEfforts, effort)}
}

// ValidateDeadline checks that a non-empty deadline parses as a calendar date.
func ValidateDeadline(deadline string) error {
	if deadline == "" {
		return nil
	}
	if _, err := time.Parse(DeadlineLayout, deadline); err != nil {
		return &ValidationError{Field: "deadline", Reason: fmt.Sprintf("must be a %s date (got %q)", DeadlineLayout, deadline)}
	}
	return nil
}

// Validate checks a draft before it reaches the store.
func (d *Draft) Validate() error {
	if d.Title == "" {
		return &ValidationError{Field: "title", Reason: "is required"}
	}
	if err := ValidateUrgency(d.Urgency); err != nil {
		return err
	}
	if err := ValidateEffort(d.Effort); err != nil {
		return err
	}
	return ValidateDeadline(d.Deadline)
}

// Validate checks the fields an update supplies.
func (u Update) Validate() error {
	if u.Title != nil && *u.Title == "" {
		return &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if u.Urgency != nil {
		if err := ValidateUrgency(*u.Urgency); err != nil {
			return err
		}
	}
	if u.Effort != nil {
		if err := ValidateEffort(*u.Effort); err != nil {
			return err
		}
	}
	if u.Deadline != nil {
		if err := ValidateDeadline(*u.Deadline); err != nil {
			return err
		}
	}
	return nil
}

// Less implements the user-visible ordering contract:
// tasks without a deadline sort after tasks with one; among deadlined tasks,
// ascending deadline; ties broken by descending urgency, then ascending
// effort, then ID for determinism.
func Less(a, b *Task) bool {
	switch {
	case a.Deadline == "" && b.Deadline != "":
		return false
	case a.Deadline != "" && b.Deadline == "":
		return true
	case a.Deadline != b.Deadline:
		return a.Deadline < b.Deadline
	}
	if a.Urgency != b.Urgency {
		return a.Urgency > b.Urgency
	}
	if a.Effort != b.Effort {
		return a.Effort < b.Effort
	}
	return a.ID < b.ID
}

// Sort orders tasks in place per the Less contract.
func Sort(tasks []*Task) {
	sort.SliceStable(tasks, func(i, j int) bool { return Less(tasks[i], tasks[j]) })
}

// NormalizeTags returns the sorted, de-duplicated tag set with empty names
// dropped.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// HasTag reports whether the task carries the given tag.
func (t *Task) HasTag(name string) bool {
	for _, tag := range t.Tags {
		if tag == name {
			return true
		}
	}
	return false
}

// Statistics is the aggregate the store computes over all tasks.
type Statistics struct {
	Total          int
	Completed      int
	CompletionRate float64     // percent, 0 when Total is 0
	ByUrgency      map[int]int // incomplete tasks per urgency level 1..5
	// UpcomingDeadlines counts incomplete tasks due within the next 7
	// calendar days, today inclusive.
	UpcomingDeadlines int
}
