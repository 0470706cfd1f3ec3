// Package report renders sync diff results as local artifacts.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"civsync/pkg/civitai"
	"civsync/pkg/diff"
	"civsync/pkg/logger"
)

const (
	// SummaryFilename is the human-readable report
	SummaryFilename = "summary.md"
	// AddedIDsFilename lists one added identifier per line
	AddedIDsFilename = "new_images_ids.txt"
	// RemovedIDsFilename lists one removed identifier per line
	RemovedIDsFilename = "deleted_images_ids.txt"
)

// Generator writes report artifacts into a directory. The clock is injected
// so output is deterministic under test; it is the only non-deterministic
// input.
type Generator struct {
	dir    string
	now    func() time.Time
	logger logger.Logger
}

// NewGenerator creates a report generator. now may be nil, defaulting to
// time.Now.
func NewGenerator(dir string, now func() time.Time, log logger.Logger) *Generator {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Generator{dir: dir, now: now, logger: log}
}

// Dir returns the report directory
func (g *Generator) Dir() string {
	return g.dir
}

// Write renders the summary document and the two identifier lists,
// overwriting any artifacts from a previous run.
func (g *Generator) Write(username, runID string, result diff.Result) error {
	if err := os.MkdirAll(g.dir, 0755); err != nil {
		return fmt.Errorf("failed to create reports directory: %w", err)
	}

	if err := g.writeSummary(username, runID, result); err != nil {
		return err
	}

	if err := writeIDList(filepath.Join(g.dir, AddedIDsFilename), result.Added); err != nil {
		return err
	}
	if err := writeIDList(filepath.Join(g.dir, RemovedIDsFilename), result.Removed); err != nil {
		return err
	}

	g.logger.InfoWithFields("reports written", map[string]interface{}{
		"dir":     g.dir,
		"added":   len(result.Added),
		"removed": len(result.Removed),
	})

	return nil
}

func (g *Generator) writeSummary(username, runID string, result diff.Result) error {
	var b strings.Builder

	timestamp := g.now().UTC().Format("2006-01-02 15:04:05 UTC")
	fmt.Fprintf(&b, "# Civitai sync report - %s\n\n", timestamp)
	fmt.Fprintf(&b, "- **Creator**: %s\n", username)
	fmt.Fprintf(&b, "- **Run ID**: %s\n", runID)
	fmt.Fprintf(&b, "- **Added images**: %d\n", len(result.Added))
	fmt.Fprintf(&b, "- **Removed images**: %d\n\n", len(result.Removed))

	b.WriteString("## Added\n")
	if len(result.Added) > 0 {
		for _, record := range result.Added {
			fmt.Fprintf(&b, "- ID: %d, URL: %s\n", record.ID, record.URL)
		}
	} else {
		b.WriteString("None\n")
	}

	b.WriteString("\n## Removed\n")
	if len(result.Removed) > 0 {
		for _, record := range result.Removed {
			fmt.Fprintf(&b, "- ID: %d, Username: %s\n", record.ID, record.Username)
		}
	} else {
		b.WriteString("None\n")
	}

	path := filepath.Join(g.dir, SummaryFilename)
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}

func writeIDList(path string, records []civitai.ImageRecord) error {
	var b strings.Builder
	for _, record := range records {
		fmt.Fprintf(&b, "%d\n", record.ID)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write id list: %w", err)
	}
	return nil
}
