package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/deixis/foreman/internal/pipeline"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

type workspaceParams struct{}

func (h *handler) workspaceHandler(ctx context.Context, req *sdkmcp.CallToolRequest, _ workspaceParams) (*sdkmcp.CallToolResult, any, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "Directory: %s\n", h.engine.RepoRoot)

	// uv version.
	uvResult, err := h.runner.Run(ctx, []string{"uv", "--version"}, "")
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to query uv: %v (install: %s)", err, "https://docs.astral.sh/uv/getting-started/installation/"))
	}
	if uvResult.ExitCode != 0 {
		return errorResult(fmt.Sprintf("uv --version failed:\n%s", string(uvResult.Stderr)))
	}
	fmt.Fprintf(&b, "uv: %s\n", pipeline.FirstLine(string(uvResult.Stdout)))

	// Project interpreter via `uv python find`.
	pyResult, err := h.runner.Run(ctx, []string{"uv", "python", "find"}, "")
	if err == nil && pyResult.ExitCode == 0 {
		fmt.Fprintf(&b, "Python: %s\n", pipeline.FirstLine(string(pyResult.Stdout)))
	} else {
		fmt.Fprintln(&b, "Python: (no interpreter found)")
	}
	fmt.Fprintln(&b)

	// Installed packages via `uv pip list`.
	pkgResult, err := h.runner.Run(ctx, []string{"uv", "pip", "list", "--format", "freeze"}, "")
	if err != nil || pkgResult.ExitCode != 0 {
		// Non-fatal: we still have the environment summary.
		fmt.Fprintln(&b, "Packages: (failed to list)")
	} else {
		pkgs := strings.Split(strings.TrimSpace(string(pkgResult.Stdout)), "\n")
		fmt.Fprintf(&b, "Packages (%d):\n", len(pkgs))
		for _, pkg := range pkgs {
			if pkg != "" {
				fmt.Fprintf(&b, "  %s\n", pkg)
			}
		}
	}

	return textResult(b.String())
}
