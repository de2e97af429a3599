package vault

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Record is one task document as found on disk during a reconciliation scan.
//
// Scalar fields other than ID and Title are pointers so the caller can tell
// an absent frontmatter key from an explicit zero value: an absent key means
// "leave the stored value alone" on update and "use the default" on insert.
type Record struct {
	ID          string
	Path        string
	Title       string
	Description string

	Deadline  *string
	Urgency   *int
	Effort    *int
	Completed *bool
	Parent    *string
	Tags      *[]string
}

// ScanReport summarizes one reconciliation scan of the tasks directory.
type ScanReport struct {
	Scanned   int // markdown files considered
	Parsed    int // records successfully extracted
	Malformed int // files whose frontmatter could not be parsed
	MissingID int // files with valid frontmatter but no id key
}

// recordMeta is the permissive frontmatter shape used when reading
// human-edited documents. Every key is optional.
type recordMeta struct {
	ID        *string   `yaml:"id"`
	Title     *string   `yaml:"title"`
	Deadline  *string   `yaml:"deadline"`
	Urgency   *int      `yaml:"urgency"`
	Effort    *int      `yaml:"effort"`
	Completed *bool     `yaml:"completed"`
	Parent    *string   `yaml:"parent"`
	Tags      *[]string `yaml:"tags"`
}

// Reconciler reads human-edited task documents back out of the vault.
type Reconciler struct {
	root   string
	logger *log.Logger
}

// NewReconciler creates a reconciler over the given vault root.
// If logger is nil, a default logger writing to stderr is used.
func NewReconciler(root string, logger *log.Logger) *Reconciler {
	if logger == nil {
		logger = log.New(os.Stderr, "[vault] ", log.LstdFlags)
	}
	return &Reconciler{root: root, logger: logger}
}

// Scan walks the tasks directory and extracts a record per task document.
//
// Generated view files and non-markdown files are ignored. A file that
// cannot be parsed, or that carries no id, is counted in the report and
// skipped; a single bad file never aborts the scan. The in-document id is
// authoritative even when it disagrees with the filename.
func (r *Reconciler) Scan() ([]Record, *ScanReport, error) {
	dir := filepath.Join(r.root, "tasks")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read tasks directory: %w", err)
	}

	report := &ScanReport{}
	var records []Record
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".md") || ViewFiles[name] {
			continue
		}
		report.Scanned++

		path := filepath.Join(dir, name)
		rec, ok := r.scanFile(path, name, report)
		if ok {
			report.Parsed++
			records = append(records, rec)
		}
	}
	return records, report, nil
}

func (r *Reconciler) scanFile(path, name string, report *ScanReport) (Record, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		r.logger.Printf("WARNING: failed to read %s: %v", path, err)
		report.Malformed++
		return Record{}, false
	}

	meta, body, err := splitFrontmatter(data)
	if err != nil {
		r.logger.Printf("WARNING: skipping %s: %v", name, err)
		report.Malformed++
		return Record{}, false
	}

	var m recordMeta
	if err := yaml.Unmarshal(meta, &m); err != nil {
		r.logger.Printf("WARNING: skipping %s: invalid frontmatter: %v", name, err)
		report.Malformed++
		return Record{}, false
	}

	if m.ID == nil || *m.ID == "" {
		r.logger.Printf("WARNING: skipping %s: frontmatter has no id", name)
		report.MissingID++
		return Record{}, false
	}
	id := *m.ID
	if stem := strings.TrimSuffix(name, ".md"); stem != id {
		r.logger.Printf("WARNING: %s: filename does not match document id %s", name, id)
	}

	rec := Record{
		ID:          id,
		Path:        path,
		Description: descriptionOf(body),
		Deadline:    m.Deadline,
		Urgency:     m.Urgency,
		Effort:      m.Effort,
		Completed:   m.Completed,
		Parent:      m.Parent,
		Tags:        m.Tags,
	}
	if m.Title != nil && *m.Title != "" {
		rec.Title = *m.Title
	} else {
		rec.Title = "Untitled Task " + id
	}
	return rec, true
}

// descriptionOf extracts the free-text description: everything before the
// Subtasks region.
func descriptionOf(body []byte) string {
	description, _, _ := splitRegions(body)
	return description
}
