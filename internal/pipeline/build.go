package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/deixis/foreman/internal/report"
	"github.com/google/uuid"
)

// BuildResult holds the full outcome of a pipeline run.
type BuildResult struct {
	ID           string
	Steps        []StepResult
	FailedSteps  []string // names of failed steps, in execution order
	SuccessCount int
	TotalSteps   int
	Coverage     *int // percentage, when the unit-test summary was parsed
	Duration     time.Duration
}

// AllPassed reports whether every step succeeded.
func (r *BuildResult) AllPassed() bool {
	return r.SuccessCount == r.TotalSteps
}

// Succeeded reports the overall verdict: a single step failure is
// tolerated, two or more fail the build.
func (r *BuildResult) Succeeded() bool {
	return r.SuccessCount >= r.TotalSteps-1
}

// RunRecord converts the build result into its persisted form.
func (r *BuildResult) RunRecord() *report.RunResult {
	rr := &report.RunResult{
		ID:           r.ID,
		Kind:         report.Build,
		FailedSteps:  r.FailedSteps,
		SuccessCount: r.SuccessCount,
		TotalSteps:   r.TotalSteps,
		Coverage:     r.Coverage,
		Duration:     r.Duration.Seconds(),
	}
	for _, s := range r.Steps {
		rr.Steps = append(rr.Steps, report.StepRecord{
			Name:    s.Name,
			Success: s.Success,
			Stdout:  s.Stdout,
			Stderr:  s.Stderr,
		})
	}
	return rr
}

// Build runs the full pipeline in the configured step order. Steps run
// unconditionally in sequence — a failure never short-circuits the run.
// A failed "Integration Tests" step is recorded in the failed-step log
// but still counts towards the success tally.
func (e *Engine) Build(ctx context.Context, fix bool) (*BuildResult, error) {
	steps := e.Config.BuildSteps()

	r := &BuildResult{
		ID:         uuid.New().String(),
		TotalSteps: len(steps),
	}
	start := time.Now()

	for _, name := range steps {
		sr, panicked := e.runStep(ctx, name, fix, r)
		r.Steps = append(r.Steps, sr)

		if sr.Success {
			r.SuccessCount++
			continue
		}
		r.FailedSteps = append(r.FailedSteps, sr.Name)
		if sr.Name == StepIntegrationTests && !panicked {
			// Integration issues never fail the build. A crashed step
			// is not an integration issue and still counts against it.
			r.SuccessCount++
		}
	}

	r.Duration = time.Since(start)
	return r, nil
}

// runStep dispatches a step by name. A panicking step is recovered and
// recorded as a failure so the pipeline keeps going; the panicked
// return lets the caller treat the crash as a real failure even for
// steps whose ordinary failures are tolerated.
func (e *Engine) runStep(ctx context.Context, name string, fix bool, r *BuildResult) (sr StepResult, panicked bool) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("step %q panicked: %v", name, rec)
			panicked = true
			sr = StepResult{
				Name:   name,
				Stderr: fmt.Sprintf("step panicked: %v", rec),
			}
		}
	}()

	switch name {
	case StepCheckDependencies:
		return e.checkDependencies(ctx), false
	case StepSyncDependencies:
		return e.syncDependencies(ctx), false
	case StepFormatCode:
		return e.formatCode(ctx, fix), false
	case StepLintCode:
		return e.lintCode(ctx), false
	case StepTypeCheck:
		return e.typeCheck(ctx), false
	case StepSecurityCheck:
		return e.securityCheck(ctx), false
	case StepUnitTests:
		var cov *int
		sr, cov = e.runUnitTests(ctx)
		if cov != nil {
			r.Coverage = cov
		}
		return sr, false
	case StepIntegrationTests:
		return e.runIntegrationTests(ctx), false
	case StepGenerateReports:
		return e.generateReports(), false
	default:
		return StepResult{Name: name, Stderr: fmt.Sprintf("unknown step: %s", name)}, false
	}
}
