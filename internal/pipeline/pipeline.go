// Package pipeline provides the core execution engine for foreman's
// build and clean pipelines. It is consumed by both the MCP server
// and the CLI.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/deixis/foreman/internal/config"
	"github.com/deixis/foreman/internal/runner"
)

// CommandRunner executes commands within a workspace.
// Implemented by runner.Runner.
type CommandRunner interface {
	Run(ctx context.Context, argv []string, cwd string) (*runner.Result, error)
}

// Engine holds shared dependencies for all pipeline operations.
type Engine struct {
	Config    *config.Config
	Runner    CommandRunner
	Workspace string // cwd — commands run from here
	RepoRoot  string // project root (pyproject.toml) — artifact paths resolve here
}

// Step names, in pipeline order. The names are part of the report
// format and of the failed-step log.
const (
	StepCheckDependencies = "Check Dependencies"
	StepSyncDependencies  = "Sync Dependencies"
	StepFormatCode        = "Format Code"
	StepLintCode          = "Lint Code"
	StepTypeCheck         = "Type Check"
	StepSecurityCheck     = "Security Check"
	StepUnitTests         = "Unit Tests"
	StepIntegrationTests  = "Integration Tests"
	StepGenerateReports   = "Generate Reports"
)

// StepResult holds the outcome of a single pipeline step.
type StepResult struct {
	Name    string
	Success bool
	Stdout  string
	Stderr  string
}

// root returns the directory artifact paths resolve against.
func (e *Engine) root() string {
	if e.RepoRoot != "" {
		return e.RepoRoot
	}
	return e.Workspace
}

// run executes argv from the workspace, folding every failure mode into
// a (success, stdout, stderr) triple. A missing binary becomes a
// "Command not found" message rather than an error: no step ever aborts
// the pipeline.
func (e *Engine) run(ctx context.Context, argv []string) (bool, string, string) {
	result, err := e.Runner.Run(ctx, argv, "")
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return false, "", fmt.Sprintf("Command not found: %s", argv[0])
		}
		return false, "", err.Error()
	}
	return result.ExitCode == 0, string(result.Stdout), string(result.Stderr)
}

// uvRun returns the argv prefix for invoking a named tool through uv,
// so the project's locked environment resolves the tool version.
func uvRun(tool string, args ...string) []string {
	argv := []string{"uv", "run", tool}
	return append(argv, args...)
}

// toolInfo holds install metadata for a known tool.
type toolInfo struct {
	// Install is the command or URL that makes the tool available.
	Install string
}

// knownTools maps tool names to their install metadata.
var knownTools = map[string]toolInfo{
	"uv":     {Install: "https://docs.astral.sh/uv/getting-started/installation/"},
	"ruff":   {Install: "uv add --dev ruff"},
	"mypy":   {Install: "uv add --dev mypy"},
	"pytest": {Install: "uv add --dev pytest pytest-cov pytest-timeout"},
}

// installHint returns a short install instruction for a known tool,
// or an empty string.
func installHint(name string) string {
	info, ok := knownTools[name]
	if !ok {
		return ""
	}
	return info.Install
}

// FirstLine returns the first non-empty line of s, trimmed.
func FirstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			return line
		}
	}
	return ""
}
