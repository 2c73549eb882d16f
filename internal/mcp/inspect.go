package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/deixis/foreman/internal/report"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type inspectParams struct {
	RunID string `json:"run_id" jsonschema:"the run ID from an fm_build result"`
	Step  string `json:"step" jsonschema:"the step name to drill into, e.g. Unit Tests or Lint Code (case-insensitive)"`
}

func (h *handler) inspectHandler(ctx context.Context, req *mcp.CallToolRequest, params inspectParams) (*mcp.CallToolResult, any, error) {
	if params.RunID == "" {
		return errorResult("run_id is required")
	}
	if params.Step == "" {
		return errorResult("step is required")
	}

	result, err := h.store.Load(params.RunID)
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to load run %s: %v", params.RunID, err))
	}
	if err := result.Expect(report.Build); err != nil {
		return errorResult(err.Error())
	}

	step, ok := report.ByStep(result, params.Step)
	if !ok {
		var names []string
		for _, s := range result.Steps {
			names = append(names, s.Name)
		}
		return errorResult(fmt.Sprintf("No step %q in run %s. Steps: %s",
			params.Step, params.RunID, strings.Join(names, ", ")))
	}

	return textResult(formatInspect(params.RunID, step))
}

func formatInspect(runID string, step *report.StepRecord) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Run: %s\n", runID)
	if step.Success {
		fmt.Fprintf(&b, "%s: pass\n", step.Name)
	} else {
		fmt.Fprintf(&b, "%s: fail\n", step.Name)
	}

	if step.Stdout != "" {
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, "Output:")
		for _, line := range strings.Split(strings.TrimRight(step.Stdout, "\n"), "\n") {
			fmt.Fprintf(&b, "    %s\n", line)
		}
	}
	if step.Stderr != "" {
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, "Errors:")
		for _, line := range strings.Split(strings.TrimRight(step.Stderr, "\n"), "\n") {
			fmt.Fprintf(&b, "    %s\n", line)
		}
	}
	if step.Stdout == "" && step.Stderr == "" {
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, "(no captured output)")
	}

	return b.String()
}
