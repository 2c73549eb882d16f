// Command foreman runs the build pipeline for uv-managed Python projects.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/deixis/foreman"
	"github.com/deixis/foreman/internal/config"
	fmmcp "github.com/deixis/foreman/internal/mcp"
	"github.com/deixis/foreman/internal/pipeline"
	"github.com/deixis/foreman/internal/report"
	"github.com/deixis/foreman/internal/runner"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("foreman: ")

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "build":
		err = buildMain(args)
	case "clean":
		err = cleanMain(args)
	case "mcp":
		err = mcpMain(args)
	case "version":
		fmt.Println(foreman.Version)
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "foreman: unknown command %q\n", cmd)
		usage()
		os.Exit(2)
	}

	if err != nil {
		log.Fatal(err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: foreman <command> [flags]

Commands:
  build       Run the build pipeline (deps, format, lint, types, security, tests, reports)
  clean       Delete build artifacts
  mcp         Start the MCP server
  version     Print the version
  help        Show this help

Use "foreman <command> -h" for command-specific flags.`)
}

// --- build ---

func buildMain(args []string) error {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	fixFlag := fs.Bool("fix", false, "apply formatting and lint fixes in place")
	cleanFlag := fs.Bool("clean", false, "delete build artifacts instead of building")
	jsonFlag := fs.Bool("json", false, "output results as JSON")
	verboseFlag := fs.Bool("verbose", false, "echo each command and print full step output")
	fs.BoolVar(verboseFlag, "v", false, "shorthand for -verbose")
	timeoutFlag := fs.Duration("timeout", 0, "override configured per-command timeout (e.g. 5m)")
	_ = fs.Parse(args)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	eng, store, err := newEngine(*timeoutFlag, *verboseFlag)
	if err != nil {
		return err
	}

	if *cleanFlag {
		return runClean(eng, store, *jsonFlag)
	}

	result, err := eng.Build(ctx, *fixFlag)
	if err != nil {
		return fmt.Errorf("build: %w", err)
	}

	_ = store.Save(result.RunRecord())

	if *jsonFlag {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result.RunRecord()); err != nil {
			return err
		}
	} else {
		fmt.Print(formatBuildCLI(result, *verboseFlag))
	}

	if !result.Succeeded() {
		os.Exit(1)
	}
	return nil
}

func formatBuildCLI(result *pipeline.BuildResult, verbose bool) string {
	var b []byte
	w := func(format string, args ...any) {
		b = fmt.Appendf(b, format, args...)
	}

	for _, s := range result.Steps {
		if s.Success {
			w("  %-20s ok\n", s.Name)
		} else {
			w("  %-20s FAIL\n", s.Name)
		}
		if verbose && s.Stdout != "" {
			w("%s\n", s.Stdout)
		}
		if (verbose || !s.Success) && s.Stderr != "" {
			w("%s\n", s.Stderr)
		}
	}
	w("\n")

	if result.Coverage != nil {
		w("Coverage: %d%%\n", *result.Coverage)
	}
	w("Passed %d/%d steps in %.1fs\n", result.SuccessCount, result.TotalSteps, result.Duration.Seconds())

	if len(result.FailedSteps) > 0 {
		w("Failed: ")
		for i, name := range result.FailedSteps {
			if i > 0 {
				w(", ")
			}
			w("%s", name)
		}
		w("\n")
	}
	w("\n")

	switch {
	case result.AllPassed():
		w("BUILD SUCCESSFUL\n")
	case result.Succeeded():
		w("BUILD MOSTLY SUCCESSFUL\n")
	default:
		w("BUILD FAILED\n")
	}
	w("Run: %s\n", result.ID)

	return string(b)
}

// --- clean ---

func cleanMain(args []string) error {
	fs := flag.NewFlagSet("clean", flag.ExitOnError)
	jsonFlag := fs.Bool("json", false, "output results as JSON")
	_ = fs.Parse(args)

	eng, store, err := newEngine(0, false)
	if err != nil {
		return err
	}
	return runClean(eng, store, *jsonFlag)
}

func runClean(eng *pipeline.Engine, store report.Store, asJSON bool) error {
	result := eng.CleanArtifacts()

	_ = store.Save(result.RunRecord())

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result.RunRecord())
	}

	if len(result.Removed) == 0 {
		fmt.Println("Nothing to clean")
		return nil
	}
	for _, path := range result.Removed {
		fmt.Printf("  removed %s\n", path)
	}
	fmt.Printf("Removed %d artifacts\n", len(result.Removed))
	return nil
}

// --- mcp ---

func mcpMain(args []string) error {
	fs := flag.NewFlagSet("mcp", flag.ExitOnError)
	instructions := fs.Bool("instructions", false, "print model instructions and exit")
	httpAddr := fs.String("http", "", "start HTTP server on address (e.g. :9090)")
	_ = fs.Parse(args)

	if *instructions {
		fmt.Print(fmmcp.Instructions)
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return serve(ctx, *httpAddr)
}

func serve(ctx context.Context, httpAddr string) error {
	workspace, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("determining workspace: %w", err)
	}

	loaded, err := config.Load(workspace)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg := loaded.Config

	store := report.NewLRUStore(5, report.NewDiskStore(""))

	r := &runner.Runner{
		Workspace: workspace,
		Timeout:   cfg.Timeout(),
		MaxOutput: cfg.MaxOutputBytes(),
	}

	server := fmmcp.NewServer(cfg, r, store, workspace)

	if httpAddr != "" {
		return serveHTTP(ctx, server, httpAddr)
	}
	return server.Run(ctx, &mcpsdk.StdioTransport{})
}

func serveHTTP(ctx context.Context, server *mcpsdk.Server, addr string) error {
	handler := mcpsdk.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcpsdk.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	go func() {
		<-ctx.Done()
		_ = httpServer.Close()
	}()

	log.Printf("listening on %s", addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// --- shared ---

func newEngine(timeoutOverride time.Duration, verbose bool) (*pipeline.Engine, report.Store, error) {
	workspace, err := os.Getwd()
	if err != nil {
		return nil, nil, fmt.Errorf("determining workspace: %w", err)
	}

	loaded, err := config.Load(workspace)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	cfg := loaded.Config

	timeout := cfg.Timeout()
	if timeoutOverride > 0 {
		timeout = timeoutOverride
	}

	r := &runner.Runner{
		Workspace: loaded.RepoRoot,
		Timeout:   timeout,
		MaxOutput: cfg.MaxOutputBytes(),
		Verbose:   verbose,
	}

	disk := report.NewDiskStore(filepath.Join(loaded.RepoRoot, cfg.ReportsDir(), "runs"))
	store := report.NewLRUStore(5, disk)

	eng := &pipeline.Engine{
		Config:    cfg,
		Runner:    r,
		Workspace: workspace,
		RepoRoot:  loaded.RepoRoot,
	}
	return eng, store, nil
}
