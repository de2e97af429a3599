package vault

import (
	"strings"
	"testing"
)

func TestTagFilenameClean(t *testing.T) {
	// Already-clean names keep their natural filename.
	for _, name := range []string{"work", "home-office", "q1.2025"} {
		if got := TagFilename(name); got != name {
			t.Errorf("TagFilename(%q) = %q, want unchanged", name, got)
		}
	}
}

func TestTagFilenameSanitizes(t *testing.T) {
	got := TagFilename(`My Work/Project: "Q1"?`)
	if strings.ContainsAny(got, `\/*?:"<>| `) {
		t.Errorf("unsafe characters survived: %q", got)
	}
	if !strings.HasPrefix(got, "my-work") {
		t.Errorf("TagFilename = %q, want my-work prefix", got)
	}
}

func TestTagFilenameCollisionFree(t *testing.T) {
	// Both names sanitize to the same stem; the hash suffix keeps the
	// filenames distinct.
	a := TagFilename("my tag")
	b := TagFilename("My Tag")
	c := TagFilename("my-tag")
	if a == c || b == c {
		t.Errorf("sanitized tag collided with the clean name %q", c)
	}
	if a == b {
		t.Errorf("distinct tags mapped to the same filename %q", a)
	}
}

func TestTagFilenameDeterministic(t *testing.T) {
	name := "Some Tag"
	if TagFilename(name) != TagFilename(name) {
		t.Error("same name produced different filenames")
	}
}

func TestTagFilenameTruncates(t *testing.T) {
	long := strings.Repeat("A", 250)
	got := TagFilename(long)
	// Stem capped at 100 runes plus the 9-character hash suffix.
	if len(got) > 110 {
		t.Errorf("filename too long: %d runes", len(got))
	}
}
