// Package vault renders canonical task state into a directory of linked
// markdown documents and parses human edits back out of it.
//
// Layout:
//   - <root>/tasks/<id>.md        one document per task
//   - <root>/tasks/{all,urgent,today,overdue}.md   generated views
//   - <root>/tags/<name>.md       one listing per tag, plus tags/index.md
//   - <root>/index.md, <root>/statistics.md
//
// Task documents carry a YAML frontmatter block and a body of three ordered
// regions: free-text description, a "## Subtasks" region of child links,
// and a reserved "## Related" region. The regions are manipulated
// structurally rather than by line splicing, so replacing the description
// never disturbs the Subtasks region.
package vault

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/deltatask/deltatask/internal/task"
)

const (
	frontmatterFence = "---"
	subtasksMarker   = "## Subtasks"
	relatedMarker    = "## Related"
)

// ViewFiles are the generated documents living alongside task documents in
// tasks/. They are always rebuilt from store state and never reconciled.
var ViewFiles = map[string]bool{
	"all.md":     true,
	"urgent.md":  true,
	"today.md":   true,
	"overdue.md": true,
}

// Frontmatter mirrors a task's scalar fields in the document metadata block.
// Created/Updated are RFC 3339 strings so the block stays human-readable.
type Frontmatter struct {
	ID        string   `yaml:"id"`
	Title     string   `yaml:"title"`
	Created   string   `yaml:"created"`
	Updated   string   `yaml:"updated"`
	Deadline  string   `yaml:"deadline,omitempty"`
	Urgency   int      `yaml:"urgency"`
	Effort    int      `yaml:"effort"`
	Completed bool     `yaml:"completed"`
	Parent    string   `yaml:"parent,omitempty"`
	Tags      []string `yaml:"tags,omitempty"`
}

// Document is a parsed task document: metadata plus the three body regions.
type Document struct {
	Meta        Frontmatter
	Description string
	// Subtasks holds the raw content of the "## Subtasks" region so a
	// re-render preserves it verbatim.
	Subtasks string
	Related  string
}

// Link is one child reference inside a Subtasks region.
type Link struct {
	ID    string
	Title string
}

// NewDocument builds a fresh document for a task with empty Subtasks and
// Related regions.
func NewDocument(t *task.Task) *Document {
	return &Document{
		Meta:        metaFromTask(t),
		Description: strings.TrimSpace(t.Description),
	}
}

func metaFromTask(t *task.Task) Frontmatter {
	return Frontmatter{
		ID:        t.ID,
		Title:     t.Title,
		Created:   t.CreatedAt.UTC().Format(time.RFC3339),
		Updated:   t.UpdatedAt.UTC().Format(time.RFC3339),
		Deadline:  t.Deadline,
		Urgency:   t.Urgency,
		Effort:    t.Effort,
		Completed: t.Completed,
		Parent:    t.ParentID,
		Tags:      t.Tags,
	}
}

// ParseDocument parses raw document bytes into metadata and regions.
// Returns an error when the frontmatter block is missing or malformed.
func ParseDocument(data []byte) (*Document, error) {
	meta, body, err := splitFrontmatter(data)
	if err != nil {
		return nil, err
	}

	doc := &Document{}
	if err := yaml.Unmarshal(meta, &doc.Meta); err != nil {
		return nil, fmt.Errorf("invalid frontmatter: %w", err)
	}

	doc.Description, doc.Subtasks, doc.Related = splitRegions(body)
	return doc, nil
}

// splitFrontmatter separates the fenced YAML block from the body.
func splitFrontmatter(data []byte) (meta, body []byte, err error) {
	text := string(data)
	if !strings.HasPrefix(text, frontmatterFence+"\n") {
		return nil, nil, fmt.Errorf("missing frontmatter fence")
	}
	rest := text[len(frontmatterFence)+1:]
	end := strings.Index(rest, "\n"+frontmatterFence)
	if end < 0 {
		return nil, nil, fmt.Errorf("unterminated frontmatter block")
	}
	meta = []byte(rest[:end+1])
	body = []byte(strings.TrimPrefix(rest[end+1+len(frontmatterFence):], "\n"))
	return meta, body, nil
}

// splitRegions divides a body into description, Subtasks, and Related.
// A missing marker leaves the corresponding region empty.
func splitRegions(body []byte) (description, subtasks, related string) {
	text := string(body)

	if idx := strings.Index(text, subtasksMarker); idx >= 0 {
		description = strings.TrimSpace(text[:idx])
		text = text[idx+len(subtasksMarker):]
	} else {
		// No Subtasks marker: the whole body is description.
		if idx := strings.Index(text, relatedMarker); idx >= 0 {
			return strings.TrimSpace(text[:idx]), "", strings.TrimSpace(text[idx+len(relatedMarker):])
		}
		return strings.TrimSpace(text), "", ""
	}

	if idx := strings.Index(text, relatedMarker); idx >= 0 {
		subtasks = strings.TrimSpace(text[:idx])
		related = strings.TrimSpace(text[idx+len(relatedMarker):])
	} else {
		subtasks = strings.TrimSpace(text)
	}
	return description, subtasks, related
}

// Render serializes the document back to bytes. Rendering is deterministic:
// the same document always produces identical bytes.
func (d *Document) Render() ([]byte, error) {
	meta, err := yaml.Marshal(&d.Meta)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal frontmatter: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(frontmatterFence + "\n")
	buf.Write(meta)
	buf.WriteString(frontmatterFence + "\n\n")

	if d.Description != "" {
		buf.WriteString(d.Description)
		buf.WriteString("\n\n")
	}

	buf.WriteString(subtasksMarker + "\n")
	if d.Subtasks != "" {
		buf.WriteString("\n" + d.Subtasks + "\n")
	}
	buf.WriteString("\n" + relatedMarker + "\n")
	if d.Related != "" {
		buf.WriteString("\n" + d.Related + "\n")
	}

	return buf.Bytes(), nil
}

// SubtaskLinks parses the link lines of the Subtasks region.
// Lines that are not links are ignored.
func (d *Document) SubtaskLinks() []Link {
	var links []Link
	for _, line := range strings.Split(d.Subtasks, "\n") {
		if link, ok := parseLinkLine(line); ok {
			links = append(links, link)
		}
	}
	return links
}

// AddSubtaskLink inserts a child link into the Subtasks region. A line
// already referencing the child's identifier is rewritten in place when its
// title went stale, so renames propagate into the parent on the next sync.
// Returns false when the region already holds the exact link.
func (d *Document) AddSubtaskLink(childID, childTitle string) bool {
	link := fmt.Sprintf("- [[%s|%s]]", childID, childTitle)
	lines := strings.Split(d.Subtasks, "\n")
	for i, line := range lines {
		if !strings.Contains(line, childID) {
			continue
		}
		if strings.TrimSpace(line) == link {
			return false
		}
		lines[i] = link
		d.Subtasks = strings.Join(lines, "\n")
		return true
	}
	if d.Subtasks == "" {
		d.Subtasks = link
	} else {
		d.Subtasks += "\n" + link
	}
	return true
}

// RemoveSubtaskLink drops every line of the Subtasks region that references
// the child's identifier. Returns true when at least one line was removed.
func (d *Document) RemoveSubtaskLink(childID string) bool {
	lines := strings.Split(d.Subtasks, "\n")
	kept := lines[:0]
	removed := false
	for _, line := range lines {
		if strings.Contains(line, childID) {
			removed = true
			continue
		}
		kept = append(kept, line)
	}
	d.Subtasks = strings.TrimSpace(strings.Join(kept, "\n"))
	return removed
}

// parseLinkLine recognizes "- [[<id>|<title>]]" lines.
func parseLinkLine(line string) (Link, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "- [[") || !strings.HasSuffix(trimmed, "]]") {
		return Link{}, false
	}
	inner := trimmed[len("- [[") : len(trimmed)-len("]]")]
	id, title, ok := strings.Cut(inner, "|")
	if !ok || id == "" {
		return Link{}, false
	}
	return Link{ID: id, Title: title}, true
}
