package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/deixis/foreman/internal/pipeline"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type buildParams struct {
	Fix *bool `json:"fix,omitempty" jsonschema:"Apply formatting and lint fixes in place instead of check-only mode. Default: false."`
}

func (h *handler) buildHandler(ctx context.Context, req *mcp.CallToolRequest, params buildParams) (*mcp.CallToolResult, any, error) {
	fix := false
	if params.Fix != nil {
		fix = *params.Fix
	}

	result, err := h.engine.Build(ctx, fix)
	if err != nil {
		return errorResult(fmt.Sprintf("build failed: %v", err))
	}

	// Save results for fm_inspect.
	_ = h.store.Save(result.RunRecord())

	return textResult(formatBuild(result))
}

func formatBuild(r *pipeline.BuildResult) string {
	var b strings.Builder

	switch {
	case r.AllPassed():
		fmt.Fprintln(&b, "Status: PASS")
	case r.Succeeded():
		fmt.Fprintln(&b, "Status: PASS (1 step failed)")
	default:
		fmt.Fprintln(&b, "Status: FAIL")
	}
	fmt.Fprintf(&b, "Run: %s\n", r.ID)
	fmt.Fprintln(&b)

	fmt.Fprintln(&b, "Steps:")
	for _, s := range r.Steps {
		if s.Success {
			fmt.Fprintf(&b, "  %s: pass\n", s.Name)
		} else {
			fmt.Fprintf(&b, "  %s: fail\n", s.Name)
		}
	}
	fmt.Fprintln(&b)

	if r.Coverage != nil {
		fmt.Fprintf(&b, "Coverage: %d%%\n", *r.Coverage)
	}
	fmt.Fprintf(&b, "Passed %d/%d steps in %.1fs.\n", r.SuccessCount, r.TotalSteps, r.Duration.Seconds())

	if len(r.FailedSteps) > 0 {
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, "Failed steps:")
		for _, name := range r.FailedSteps {
			fmt.Fprintf(&b, "  %s\n", name)
		}
		fmt.Fprintln(&b)
		fmt.Fprintf(&b, "Inspect with fm_inspect(run_id=%q, step=\"<step name>\").\n", r.ID)
	}

	return b.String()
}
