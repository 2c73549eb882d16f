// Package report provides structured persistence and retrieval of
// build run results. Results are stored as typed structs and can be
// queried per step for drill-down.
package report

import (
	"fmt"
	"strings"
)

// Kind identifies the type of a run.
type Kind string

const (
	// Build is a full pipeline run.
	Build Kind = "build"
	// Clean is an artifact cleanup run.
	Clean Kind = "clean"
)

// Store persists and retrieves run results.
type Store interface {
	Save(result *RunResult) error
	Load(runID string) (*RunResult, error)
}

// RunResult holds the structured output from a pipeline run.
type RunResult struct {
	ID   string `json:"id"`
	Kind Kind   `json:"kind"`

	// Build fields.
	Steps        []StepRecord `json:"steps,omitempty"`
	FailedSteps  []string     `json:"failed_steps,omitempty"`
	SuccessCount int          `json:"success_count,omitempty"`
	TotalSteps   int          `json:"total_steps,omitempty"`
	Coverage     *int         `json:"coverage,omitempty"` // percentage, when parsed
	Duration     float64      `json:"duration_seconds,omitempty"`

	// Clean fields.
	Removed []string `json:"removed,omitempty"`
}

// StepRecord holds the outcome of a single pipeline step, including the
// captured tool output for later inspection.
type StepRecord struct {
	Name    string `json:"name"`
	Success bool   `json:"success"`
	Stdout  string `json:"stdout,omitempty"`
	Stderr  string `json:"stderr,omitempty"`
}

// Expect returns an error if the run's Kind does not match want.
func (r *RunResult) Expect(want Kind) error {
	if r.Kind != want {
		return fmt.Errorf("run %s is a %s run, not a %s run", r.ID, r.Kind, want)
	}
	return nil
}

// ByStep returns the step record matching name. Matching is
// case-insensitive so "unit tests" finds "Unit Tests".
func ByStep(result *RunResult, name string) (*StepRecord, bool) {
	for i := range result.Steps {
		if strings.EqualFold(result.Steps[i].Name, name) {
			return &result.Steps[i], true
		}
	}
	return nil, false
}
