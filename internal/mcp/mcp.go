// Package mcp provides the Foreman MCP server, registering all tools
// and publishing model instructions.
package mcp

import (
	"context"
	_ "embed"
	"net/url"
	"time"

	"github.com/deixis/foreman"
	"github.com/deixis/foreman/internal/config"
	"github.com/deixis/foreman/internal/pipeline"
	"github.com/deixis/foreman/internal/report"
	"github.com/deixis/foreman/internal/runner"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

//go:embed instructions.md
var Instructions string

// handler holds shared dependencies for all tool handlers.
type handler struct {
	engine *pipeline.Engine
	runner *runner.Runner // retained for workspace handler and updateWorkspaceFromRoots
	store  report.Store
}

// NewServer creates an MCP server with all Foreman tools registered.
func NewServer(cfg *config.Config, r *runner.Runner, store report.Store, workspace string) *mcp.Server {
	h := &handler{
		engine: &pipeline.Engine{
			Config:    cfg,
			Runner:    r,
			Workspace: workspace,
			RepoRoot:  workspace, // MCP defaults to workspace; updated via roots
		},
		runner: r,
		store:  store,
	}

	mcpOpts := &mcp.ServerOptions{
		Instructions: Instructions,
		Capabilities: &mcp.ServerCapabilities{
			Tools: &mcp.ToolCapabilities{ListChanged: false},
		},
		InitializedHandler: func(ctx context.Context, req *mcp.InitializedRequest) {
			h.updateWorkspaceFromRoots(ctx, req.Session)
		},
	}
	s := mcp.NewServer(&mcp.Implementation{Name: "foreman", Version: foreman.Version}, mcpOpts)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "fm_workspace",
		Description: "Summarise the Python workspace: uv version, interpreter, and installed packages.",
	}, h.workspaceHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name: "fm_build",
		Description: `Run the full build pipeline (dependencies, format, lint, type check, security, tests, reports).

Use this after making code changes. All steps run even when earlier ones
fail; a single failing step still counts as a successful build.
Results are stored for drill-down via fm_inspect.`,
	}, h.buildHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name: "fm_clean",
		Description: `Delete build artifacts (caches, coverage data, egg-info directories) from the project root.

Use this to reset the workspace before a fresh build. Returns the list of removed paths.`,
	}, h.cleanHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name: "fm_inspect",
		Description: `Drill into results from a stored fm_build run.

Use the run_id from the tool output and a step name such as "Unit Tests"
or "Lint Code" to retrieve that step's full captured output.`,
	}, h.inspectHandler)

	return s
}

// updateWorkspaceFromRoots queries the client for MCP roots and updates the
// handler's engine, runner, and config if a valid root is returned.
// This is called during session initialization, before any tool calls.
func (h *handler) updateWorkspaceFromRoots(ctx context.Context, session *mcp.ServerSession) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	roots, err := session.ListRoots(ctx, &mcp.ListRootsParams{})
	if err != nil {
		return
	}
	if len(roots.Roots) == 0 {
		return
	}

	u, err := url.Parse(roots.Roots[0].URI)
	if err != nil || u.Scheme != "file" {
		return
	}
	workspace := u.Path

	loaded, err := config.Load(workspace)
	if err != nil {
		return
	}

	// Update runner.
	h.runner.Workspace = workspace
	h.runner.Timeout = loaded.Config.Timeout()
	h.runner.MaxOutput = loaded.Config.MaxOutputBytes()

	// Update engine.
	h.engine.Config = loaded.Config
	h.engine.Workspace = workspace
	h.engine.RepoRoot = loaded.RepoRoot
}

// textResult is a helper to build a text-only tool result.
func textResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}, nil, nil
}

// errorResult is a helper to build an error tool result.
func errorResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}, nil, nil
}
