package pipeline

import (
	"strconv"
	"strings"
)

// ParseCoverageTotal extracts the total coverage percentage from a
// pytest-cov terminal report. It scans for the first line containing
// both "TOTAL" and "%", e.g.
//
//	TOTAL    1234    567    65%
//
// and parses the last field as an integer percentage. Parsing is
// best-effort: a short or malformed TOTAL line yields ok=false and no
// further lines are considered, mirroring how unreliable the textual
// format is across pytest-cov versions.
func ParseCoverageTotal(output string) (pct int, ok bool) {
	for _, line := range strings.Split(output, "\n") {
		if !strings.Contains(line, "TOTAL") || !strings.Contains(line, "%") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 4 {
			return 0, false
		}
		n, err := strconv.Atoi(strings.TrimSuffix(fields[len(fields)-1], "%"))
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}
