package task

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLessOrderingContract(t *testing.T) {
	// Three tasks covering the full tiebreak chain: deadline presence,
	// deadline value, urgency, effort.
	a := &Task{ID: "a", Deadline: "2025-01-01", Urgency: 3, Effort: 1}
	b := &Task{ID: "b", Urgency: 5, Effort: 1} // no deadline
	c := &Task{ID: "c", Deadline: "2025-01-01", Urgency: 5, Effort: 1}

	tasks := []*Task{a, b, c}
	Sort(tasks)

	got := []string{tasks[0].ID, tasks[1].ID, tasks[2].ID}
	want := []string{"c", "a", "b"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("sort order mismatch (-want +got):\n%s", diff)
	}
}

func TestLessTiebreaks(t *testing.T) {
	tests := []struct {
		name string
		a, b *Task
		want bool
	}{
		{
			name: "earlier deadline first",
			a:    &Task{ID: "a", Deadline: "2025-01-01"},
			b:    &Task{ID: "b", Deadline: "2025-06-01"},
			want: true,
		},
		{
			name: "deadline beats no deadline",
			a:    &Task{ID: "a", Deadline: "2099-01-01", Urgency: 1},
			b:    &Task{ID: "b", Urgency: 5},
			want: true,
		},
		{
			name: "higher urgency first on equal deadline",
			a:    &Task{ID: "a", Deadline: "2025-01-01", Urgency: 5},
			b:    &Task{ID: "b", Deadline: "2025-01-01", Urgency: 2},
			want: true,
		},
		{
			name: "lower effort first on equal deadline and urgency",
			a:    &Task{ID: "a", Deadline: "2025-01-01", Urgency: 3, Effort: 2},
			b:    &Task{ID: "b", Deadline: "2025-01-01", Urgency: 3, Effort: 8},
			want: true,
		},
		{
			name: "id as final tiebreak",
			a:    &Task{ID: "a", Urgency: 1, Effort: 1},
			b:    &Task{ID: "b", Urgency: 1, Effort: 1},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Less(tt.a, tt.b); got != tt.want {
				t.Errorf("Less(%s, %s) = %v, want %v", tt.a.ID, tt.b.ID, got, tt.want)
			}
		})
	}
}

func TestDraftValidate(t *testing.T) {
	valid := Draft{Title: "write report", Urgency: 3, Effort: 5, Deadline: "2025-03-01"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid draft rejected: %v", err)
	}

	tests := []struct {
		name  string
		draft Draft
	}{
		{"missing title", Draft{Urgency: 1, Effort: 1}},
		{"urgency too low", Draft{Title: "x", Urgency: 0, Effort: 1}},
		{"urgency too high", Draft{Title: "x", Urgency: 6, Effort: 1}},
		{"effort not fibonacci", Draft{Title: "x", Urgency: 1, Effort: 4}},
		{"bad deadline format", Draft{Title: "x", Urgency: 1, Effort: 1, Deadline: "tomorrow"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.draft.Validate()
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !IsValidation(err) {
				t.Errorf("expected ValidationError, got %T", err)
			}
		})
	}
}

func TestValidateEffort(t *testing.T) {
	for _, effort := range ValidEfforts {
		if err := ValidateEffort(effort); err != nil {
			t.Errorf("ValidateEffort(%d) = %v, want nil", effort, err)
		}
	}
	for _, effort := range []int{0, 4, 6, 7, 22, -1} {
		if err := ValidateEffort(effort); err == nil {
			t.Errorf("ValidateEffort(%d) = nil, want error", effort)
		}
	}
}

func TestUpdateEmpty(t *testing.T) {
	if !(Update{}).Empty() {
		t.Error("zero Update should be empty")
	}
	title := "x"
	if (Update{Title: &title}).Empty() {
		t.Error("Update with title should not be empty")
	}
}

func TestNormalizeTags(t *testing.T) {
	got := NormalizeTags([]string{"work", "", "home", "work", "a b"})
	want := []string{"a b", "home", "work"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("NormalizeTags mismatch (-want +got):\n%s", diff)
	}
}
