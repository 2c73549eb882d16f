package pipeline

import (
	"context"
	"fmt"
	"strings"
)

// dependencyProbes lists the tools the pipeline needs and the command
// that reports each tool's version. Everything but uv itself runs
// through the project environment.
var dependencyProbes = []struct {
	name string
	argv []string
}{
	{"uv", []string{"uv", "--version"}},
	{"ruff", uvRun("ruff", "--version")},
	{"mypy", uvRun("mypy", "--version")},
	{"pytest", uvRun("pytest", "--version")},
}

// checkDependencies probes every required tool. The step fails when any
// tool is missing; the per-tool version lines land in stdout and the
// unavailability notes in stderr.
func (e *Engine) checkDependencies(ctx context.Context) StepResult {
	sr := StepResult{Name: StepCheckDependencies, Success: true}

	var out, errs strings.Builder
	for _, probe := range dependencyProbes {
		ok, stdout, stderr := e.run(ctx, probe.argv)
		if ok {
			version := FirstLine(stdout)
			if version == "" {
				version = "unknown"
			}
			fmt.Fprintf(&out, "%s: %s\n", probe.name, version)
			continue
		}

		sr.Success = false
		fmt.Fprintf(&errs, "%s: not available", probe.name)
		if hint := installHint(probe.name); hint != "" {
			fmt.Fprintf(&errs, " (install: %s)", hint)
		}
		fmt.Fprintln(&errs)
		if stderr != "" {
			fmt.Fprintln(&errs, stderr)
		}
	}

	sr.Stdout = out.String()
	sr.Stderr = errs.String()
	return sr
}

// syncDependencies brings the project environment up to date with the
// lockfile.
func (e *Engine) syncDependencies(ctx context.Context) StepResult {
	ok, stdout, stderr := e.run(ctx, []string{"uv", "sync"})
	return StepResult{
		Name:    StepSyncDependencies,
		Success: ok,
		Stdout:  stdout,
		Stderr:  stderr,
	}
}
