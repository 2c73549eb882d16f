package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type cleanParams struct{}

func (h *handler) cleanHandler(ctx context.Context, req *mcp.CallToolRequest, _ cleanParams) (*mcp.CallToolResult, any, error) {
	result := h.engine.CleanArtifacts()

	_ = h.store.Save(result.RunRecord())

	var b strings.Builder
	if len(result.Removed) == 0 {
		fmt.Fprintln(&b, "Nothing to clean.")
	} else {
		fmt.Fprintf(&b, "Removed %d artifacts:\n", len(result.Removed))
		for _, path := range result.Removed {
			fmt.Fprintf(&b, "  %s\n", path)
		}
	}
	fmt.Fprintf(&b, "Run: %s\n", result.ID)

	return textResult(b.String())
}
