// Package config loads and validates the optional .foreman YAML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for runner configuration.
const (
	DefaultTimeout   = 5 * time.Minute
	DefaultMaxOutput = 1 << 20 // 1 MB

	// DefaultCoverageThreshold is the minimum acceptable coverage
	// percentage for the unit-test step.
	DefaultCoverageThreshold = 70

	// DefaultTestTimeoutSeconds is the per-test timeout forwarded to
	// pytest as --timeout=N.
	DefaultTestTimeoutSeconds = 5
)

// Config holds the parsed .foreman configuration.
// All fields are optional; zero values represent defaults.
type Config struct {
	Version      int               `yaml:"version"`
	RawTimeout   string            `yaml:"timeout"`    // e.g. "5m", "30s"
	RawMaxOutput int               `yaml:"max_output"` // bytes
	Build        BuildConfig       `yaml:"build"`
	Coverage     CoverageConfig    `yaml:"coverage"`
	Test         TestConfig        `yaml:"test"`
	Integration  IntegrationConfig `yaml:"integration"`
	Format       FormatConfig      `yaml:"format"`
	Lint         LintConfig        `yaml:"lint"`
	Security     SecurityConfig    `yaml:"security"`
	Reports      ReportsConfig     `yaml:"reports"`
	Clean        CleanConfig       `yaml:"clean"`
}

// Timeout returns the configured timeout or the default.
func (c *Config) Timeout() time.Duration {
	if c.RawTimeout != "" {
		d, err := time.ParseDuration(c.RawTimeout)
		if err == nil && d > 0 {
			return d
		}
	}
	return DefaultTimeout
}

// MaxOutputBytes returns the configured max output size or the default.
func (c *Config) MaxOutputBytes() int {
	if c.RawMaxOutput > 0 {
		return c.RawMaxOutput
	}
	return DefaultMaxOutput
}

// BuildConfig defines the pipeline step order.
type BuildConfig struct {
	Steps []string `yaml:"steps"` // default: the full nine-step order
}

// CoverageConfig controls coverage collection and the pass threshold.
type CoverageConfig struct {
	Threshold int    `yaml:"threshold"` // minimum percentage (default: 70)
	Source    string `yaml:"source"`    // --cov argument (default: ".")
}

// TestConfig controls how the unit-test step invokes pytest.
type TestConfig struct {
	Dir            string   `yaml:"dir"`             // test directory (default: "tests/")
	TimeoutSeconds int      `yaml:"timeout_seconds"` // pytest --timeout (default: 5)
	Args           []string `yaml:"args"`            // extra pytest flags
}

// IntegrationConfig controls how the integration-test step invokes pytest.
type IntegrationConfig struct {
	Paths []string `yaml:"paths"` // test paths (default: ["tests/integration"])
	Args  []string `yaml:"args"`  // extra pytest flags
}

// FormatConfig controls how ruff format is executed.
type FormatConfig struct {
	Args []string `yaml:"args"` // extra ruff format flags
}

// LintConfig controls how ruff check is executed.
type LintConfig struct {
	Args []string `yaml:"args"` // extra ruff check flags
}

// SecurityConfig controls the security lint pass.
type SecurityConfig struct {
	Select string `yaml:"select"` // ruff rule selection (default: "S")
}

// ReportsConfig controls where build reports are written.
type ReportsConfig struct {
	Dir string `yaml:"dir"` // relative to project root (default: "reports")
}

// CleanConfig lists artifact patterns removed by the clean step.
type CleanConfig struct {
	Patterns []string `yaml:"patterns"`
}

// DefaultBuildSteps is the fixed pipeline order used when no steps are
// configured.
var DefaultBuildSteps = []string{
	"Check Dependencies",
	"Sync Dependencies",
	"Format Code",
	"Lint Code",
	"Type Check",
	"Security Check",
	"Unit Tests",
	"Integration Tests",
	"Generate Reports",
}

// DefaultCleanPatterns are the cache and artifact paths removed by clean.
// Bare names match a single root-level entry; patterns containing a "*"
// are globbed at the project root.
var DefaultCleanPatterns = []string{
	"__pycache__",
	".pytest_cache",
	".mypy_cache",
	".ruff_cache",
	"*.egg-info",
	".coverage",
}

// BuildSteps returns the configured step order, falling back to defaults.
func (c *Config) BuildSteps() []string {
	if len(c.Build.Steps) > 0 {
		return c.Build.Steps
	}
	return DefaultBuildSteps
}

// CoverageThreshold returns the configured threshold, falling back to 70.
func (c *Config) CoverageThreshold() int {
	if c.Coverage.Threshold > 0 {
		return c.Coverage.Threshold
	}
	return DefaultCoverageThreshold
}

// CoverageSource returns the --cov target, falling back to ".".
func (c *Config) CoverageSource() string {
	if c.Coverage.Source != "" {
		return c.Coverage.Source
	}
	return "."
}

// TestDir returns the unit-test directory, falling back to "tests/".
func (c *Config) TestDir() string {
	if c.Test.Dir != "" {
		return c.Test.Dir
	}
	return "tests/"
}

// TestTimeoutSeconds returns the per-test timeout, falling back to 5.
func (c *Config) TestTimeoutSeconds() int {
	if c.Test.TimeoutSeconds > 0 {
		return c.Test.TimeoutSeconds
	}
	return DefaultTestTimeoutSeconds
}

// IntegrationPaths returns the integration test paths, falling back to
// tests/integration.
func (c *Config) IntegrationPaths() []string {
	if len(c.Integration.Paths) > 0 {
		return c.Integration.Paths
	}
	return []string{"tests/integration"}
}

// SecuritySelect returns the ruff rule selection, falling back to "S".
func (c *Config) SecuritySelect() string {
	if c.Security.Select != "" {
		return c.Security.Select
	}
	return "S"
}

// ReportsDir returns the reports directory, falling back to "reports".
func (c *Config) ReportsDir() string {
	if c.Reports.Dir != "" {
		return c.Reports.Dir
	}
	return "reports"
}

// CleanPatterns returns the artifact patterns, falling back to defaults.
func (c *Config) CleanPatterns() []string {
	if len(c.Clean.Patterns) > 0 {
		return c.Clean.Patterns
	}
	return DefaultCleanPatterns
}

// LoadResult holds the parsed config and the discovered project root.
type LoadResult struct {
	Config   *Config
	RepoRoot string // directory containing pyproject.toml; falls back to workspace
}

// Load reads the .foreman file from the project root.
// The project root is discovered by walking upward from workspace
// looking for pyproject.toml. If no .foreman file exists, a default
// Config is returned.
func Load(workspace string) (*LoadResult, error) {
	root, err := findRepoRoot(workspace)
	if err != nil {
		// No pyproject.toml found; use workspace as root.
		root = workspace
	}

	path := filepath.Join(root, ".foreman")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &LoadResult{Config: &Config{}, RepoRoot: root}, nil
		}
		return nil, fmt.Errorf("reading .foreman: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing .foreman: %w", err)
	}
	return &LoadResult{Config: cfg, RepoRoot: root}, nil
}

// findRepoRoot walks upward from dir looking for a directory containing
// pyproject.toml.
func findRepoRoot(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "pyproject.toml")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("pyproject.toml not found")
		}
		dir = parent
	}
}
