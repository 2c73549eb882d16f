package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// generateReports ensures the reports directory exists and notes which
// coverage artifacts the unit-test step produced. The step always
// succeeds: missing artifacts simply mean the relevant step was skipped
// or failed, which is already reported elsewhere.
func (e *Engine) generateReports() StepResult {
	sr := StepResult{Name: StepGenerateReports, Success: true}

	var out strings.Builder

	reportsDir := filepath.Join(e.root(), e.Config.ReportsDir())
	if err := os.MkdirAll(reportsDir, 0o755); err != nil {
		fmt.Fprintf(&out, "reports directory: %v\n", err)
	}

	if _, err := os.Stat(filepath.Join(e.root(), "htmlcov", "index.html")); err == nil {
		fmt.Fprintln(&out, "Coverage HTML report: htmlcov/index.html")
	}
	if _, err := os.Stat(filepath.Join(e.root(), "coverage.xml")); err == nil {
		fmt.Fprintln(&out, "Coverage XML report: coverage.xml")
	}

	sr.Stdout = out.String()
	return sr
}
