package pipeline

import (
	"context"
	"strings"
)

// formatCode runs ruff format followed by ruff check --fix. In check
// mode (fix=false) the formatter only reports; with fix=true it
// rewrites files in place. Both commands must pass for the step to
// succeed.
func (e *Engine) formatCode(ctx context.Context, fix bool) StepResult {
	formatArgv := uvRun("ruff", "format")
	if !fix {
		formatArgv = append(formatArgv, "--check")
	}
	formatArgv = append(formatArgv, e.Config.Format.Args...)
	formatArgv = append(formatArgv, ".")

	formatOK, formatOut, formatErr := e.run(ctx, formatArgv)

	// Import sorting and other auto-fixable findings.
	checkArgv := uvRun("ruff", "check", "--fix", ".")
	checkOK, checkOut, checkErr := e.run(ctx, checkArgv)

	return StepResult{
		Name:    StepFormatCode,
		Success: formatOK && checkOK,
		Stdout:  joinOutput(formatOut, checkOut),
		Stderr:  joinOutput(formatErr, checkErr),
	}
}

// joinOutput concatenates two command outputs, dropping empty parts.
func joinOutput(a, b string) string {
	a = strings.TrimRight(a, "\n")
	b = strings.TrimRight(b, "\n")
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + "\n" + b
	}
}
