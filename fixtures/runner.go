package fixtures

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/flanksource/commons/logger"
	"github.com/flanksource/fnk-e2e/shutdown"
)

var (
	// ErrBuildFailed aborts a run before any fixture executes.
	ErrBuildFailed = errors.New("build failed")
	// ErrBinaryMissing means the build succeeded but left no binary behind.
	ErrBinaryMissing = errors.New("interpreter binary does not exist")
)

// RunnerOptions configures the fixture runner
type RunnerOptions struct {
	SourceRoot   string // Directory the interpreter is built from
	FixtureRoot  string // Directory searched for fixtures
	Extension    string // Fixture file extension, without the dot
	Filter       string // Regexp matched against the start of fixture file names
	Package      string // Interpreter entry point relative to SourceRoot
	BinaryName   string // Name of the built interpreter binary
	BuildCommand string // Build command template for shell toolchains
	NoColor      bool   // Disable colored status words
	Out          io.Writer
}

// Runner builds the interpreter once and runs every discovered fixture
// against it, one at a time, in discovery order.
type Runner struct {
	options   RunnerOptions
	toolchain Toolchain
}

// NewRunner creates a new fixture runner
func NewRunner(opts RunnerOptions, toolchain Toolchain) (*Runner, error) {
	if toolchain == nil {
		return nil, fmt.Errorf("no toolchain configured")
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.SourceRoot == "" {
		opts.SourceRoot, _ = os.Getwd()
	}
	if opts.FixtureRoot == "" {
		opts.FixtureRoot = opts.SourceRoot
	}
	return &Runner{options: opts, toolchain: toolchain}, nil
}

// Run executes the fixture tests and prints the final report.
// The returned error is only set for run-aborting failures; failing fixtures
// are reported through Stats.
func (r *Runner) Run() (Stats, error) {
	paths, err := Discover(r.options.FixtureRoot, r.options.Extension, r.options.Filter)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to discover fixtures: %w", err)
	}
	r.printFixtures(paths)

	buildDir, err := os.MkdirTemp("", "fnk-e2e-")
	if err != nil {
		return Stats{}, fmt.Errorf("failed to create build directory: %w", err)
	}
	defer removeBuildDir(buildDir)
	shutdown.AddHookWithPriority("remove build directory "+buildDir, shutdown.PriorityBuild, func() {
		removeBuildDir(buildDir)
	})

	binary, err := r.build(buildDir)
	if err != nil {
		return Stats{}, err
	}

	var failures []FailureRecord
	for _, path := range paths {
		name := r.relativeName(path)
		fmt.Fprintf(r.options.Out, "Running test %s... ", name)

		result, err := r.executeFixture(binary, path, name, buildDir)
		if err != nil {
			fmt.Fprintln(r.options.Out, "Error")
			return Stats{}, err
		}
		fmt.Fprintln(r.options.Out, r.statusText(result.Status))
		logger.V(3).Infof("%s (%s, exit %d) in %s", result, result.Kind, result.ExitCode, result.Duration)

		if result.Failure != nil {
			failures = append(failures, *result.Failure)
		}
	}

	return Report(r.options.Out, failures, len(paths)), nil
}

func (r *Runner) printFixtures(paths []string) {
	fmt.Fprintln(r.options.Out, "Found following test files:")
	for _, path := range paths {
		fmt.Fprintf(r.options.Out, "\t%s\n", r.relativeName(path))
	}
}

// build invokes the toolchain once and checks that it left a regular file
// where the binary is expected.
func (r *Runner) build(outDir string) (string, error) {
	fmt.Fprintf(r.options.Out, "Building latest interpreter binary from %s\n\n", r.options.SourceRoot)
	logger.Infof("Building %s with the %s toolchain", r.options.Package, r.toolchain.Name())

	binary, err := r.toolchain.Build(BuildOptions{
		SourceRoot: r.options.SourceRoot,
		OutputDir:  outDir,
		Package:    r.options.Package,
		BinaryName: r.options.BinaryName,
		Command:    r.options.BuildCommand,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrBuildFailed, err)
	}
	fmt.Fprintln(r.options.Out, "Built...")

	info, err := os.Stat(binary)
	if err != nil || !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %s", ErrBinaryMissing, binary)
	}
	return binary, nil
}

// executeFixture runs a single fixture. The temporary source of an annotated
// fixture is released on every path out of here, panics included.
func (r *Runner) executeFixture(binary, path, name, tempDir string) (FixtureResult, error) {
	parsed, err := ParseFixture(path, tempDir)
	if err != nil {
		return FixtureResult{}, err
	}
	defer func() {
		if err := parsed.Close(); err != nil {
			logger.Warnf("Failed to remove temporary source %s: %v", parsed.Input, err)
		}
	}()

	result := FixtureResult{Name: name, Kind: parsed.Kind}
	start := time.Now()
	p := r.toolchain.Run(binary, parsed.Input)
	result = parsed.Expectations().Evaluate(result, p)
	result.Duration = time.Since(start)
	return result, nil
}

func (r *Runner) statusText(status Status) string {
	if r.options.NoColor {
		return string(status)
	}
	return status.Pretty().ANSI()
}

func (r *Runner) relativeName(path string) string {
	rel, err := filepath.Rel(r.options.FixtureRoot, path)
	if err != nil {
		return path
	}
	return rel
}

func removeBuildDir(dir string) {
	if err := os.RemoveAll(dir); err != nil {
		logger.Warnf("Failed to remove build directory %s: %v", dir, err)
	}
}
