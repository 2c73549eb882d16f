package runner

// Result holds the captured output of a single tool invocation.
type Result struct {
	RunID     string // unique identifier for this invocation
	ExitCode  int    // process exit code
	Stdout    []byte // captured stdout, capped at MaxOutput
	Stderr    []byte // captured stderr, capped at MaxOutput
	Truncated bool   // true when either stream hit the cap
}
