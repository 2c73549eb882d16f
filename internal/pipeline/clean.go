package pipeline

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/deixis/foreman/internal/report"
	"github.com/google/uuid"
)

// CleanResult holds the outcome of an artifact cleanup run.
type CleanResult struct {
	ID      string
	Removed []string // paths removed, relative to the project root
}

// RunRecord converts the clean result into its persisted form.
func (r *CleanResult) RunRecord() *report.RunResult {
	return &report.RunResult{
		ID:      r.ID,
		Kind:    report.Clean,
		Removed: r.Removed,
	}
}

// CleanArtifacts deletes the configured cache and artifact paths
// relative to the project root. Bare names match a single root-level
// entry; patterns containing a "*" are globbed at the root. Removal is
// best-effort and the step always succeeds.
func (e *Engine) CleanArtifacts() *CleanResult {
	r := &CleanResult{ID: uuid.New().String()}
	root := e.root()

	for _, pattern := range e.Config.CleanPatterns() {
		if strings.Contains(pattern, "*") {
			matches, err := filepath.Glob(filepath.Join(root, pattern))
			if err != nil {
				continue
			}
			for _, match := range matches {
				if removeArtifact(match) {
					r.Removed = append(r.Removed, relTo(root, match))
				}
			}
			continue
		}

		path := filepath.Join(root, pattern)
		if removeArtifact(path) {
			r.Removed = append(r.Removed, pattern)
		}
	}

	return r
}

// removeArtifact deletes a file or directory tree if it exists,
// reporting whether anything was removed.
func removeArtifact(path string) bool {
	if _, err := os.Stat(path); err != nil {
		return false
	}
	return os.RemoveAll(path) == nil
}

func relTo(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return rel
}
