package pipeline

import "testing"

func TestParseCoverageTotal(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		wantPct int
		wantOK  bool
	}{
		{
			name:    "typical report",
			output:  "Name    Stmts   Miss  Cover\n----\nfoo.py    100     10    90%\nTOTAL    1234    567    65%\n",
			wantPct: 65,
			wantOK:  true,
		},
		{
			name:    "high coverage",
			output:  "TOTAL    1234    100    95%\n",
			wantPct: 95,
			wantOK:  true,
		},
		{
			name:   "no summary line",
			output: "collected 3 items\nall passed\n",
			wantOK: false,
		},
		{
			name:   "empty output",
			output: "",
			wantOK: false,
		},
		{
			name:   "TOTAL without percent sign",
			output: "TOTAL    1234    567\n",
			wantOK: false,
		},
		{
			name:   "short TOTAL line",
			output: "TOTAL 65%\n",
			wantOK: false,
		},
		{
			name:   "non-numeric percentage",
			output: "TOTAL    1234    567    n/a%\n",
			wantOK: false,
		},
		{
			name: "first TOTAL line wins",
			output: "TOTAL    10    1    90%\n" +
				"TOTAL    10    9    10%\n",
			wantPct: 90,
			wantOK:  true,
		},
		{
			name:   "malformed first TOTAL stops the scan",
			output: "TOTAL bad%\nTOTAL    10    1    90%\n",
			wantOK: false,
		},
		{
			name:    "zero coverage",
			output:  "TOTAL    1234    1234    0%\n",
			wantPct: 0,
			wantOK:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pct, ok := ParseCoverageTotal(tt.output)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && pct != tt.wantPct {
				t.Errorf("pct = %d, want %d", pct, tt.wantPct)
			}
		})
	}
}
