package pipeline

import "context"

// typeCheck runs mypy over the whole project. mypy paths and strictness
// are configured in pyproject.toml, not here.
func (e *Engine) typeCheck(ctx context.Context) StepResult {
	ok, stdout, stderr := e.run(ctx, uvRun("mypy", "."))
	return StepResult{
		Name:    StepTypeCheck,
		Success: ok,
		Stdout:  stdout,
		Stderr:  stderr,
	}
}
