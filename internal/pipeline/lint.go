package pipeline

import "context"

// lintCode runs ruff check with auto-fix over the whole project.
func (e *Engine) lintCode(ctx context.Context) StepResult {
	argv := uvRun("ruff", "check", "--fix")
	argv = append(argv, e.Config.Lint.Args...)
	argv = append(argv, ".")

	ok, stdout, stderr := e.run(ctx, argv)
	return StepResult{
		Name:    StepLintCode,
		Success: ok,
		Stdout:  stdout,
		Stderr:  stderr,
	}
}

// securityCheck runs ruff restricted to its security rule set.
func (e *Engine) securityCheck(ctx context.Context) StepResult {
	argv := uvRun("ruff", "check", ".", "--select", e.Config.SecuritySelect())

	ok, stdout, stderr := e.run(ctx, argv)
	return StepResult{
		Name:    StepSecurityCheck,
		Success: ok,
		Stdout:  stdout,
		Stderr:  stderr,
	}
}
