package toolchain

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/flanksource/clicky/exec"
	"github.com/flanksource/commons/logger"
	"github.com/flanksource/fnk-e2e/fixtures"
	"github.com/flanksource/gomplate/v3"
)

// processRunner runs the built interpreter and captures its streams in full.
type processRunner struct{}

// Run executes binary with args and waits for it. There is no timeout: a hung
// interpreter hangs the run.
func (processRunner) Run(binary string, args ...string) fixtures.ExecResult {
	process := exec.NewExec(binary, args...)
	process.SucceedOnNonZero = true

	p := process.Run().Result()
	logger.V(5).Infof("%s %s exited with %d", binary, strings.Join(args, " "), p.ExitCode)

	return fixtures.ExecResult{
		ExitCode: p.ExitCode,
		Stdout:   p.Stdout,
		Stderr:   p.Stderr,
		Error:    p.Error,
	}
}

// GoBuild compiles the interpreter with `go build`.
type GoBuild struct {
	processRunner
}

var _ fixtures.Toolchain = (*GoBuild)(nil)

// Name returns the toolchain identifier
func (g *GoBuild) Name() string {
	return "go"
}

// Build runs `go build -o=<out>/<binary> ./<package>` from the source root.
// Only the subprocess changes directory; the harness' own working directory
// is left alone.
func (g *GoBuild) Build(opts fixtures.BuildOptions) (string, error) {
	binary := filepath.Join(opts.OutputDir, opts.BinaryName)
	pkg := "./" + filepath.ToSlash(filepath.Clean(opts.Package))

	logger.V(4).Infof("🔨 go build -o=%s %s (cwd: %s)", binary, pkg, opts.SourceRoot)

	p := exec.NewExec("go", "build", "-o="+binary, pkg).WithCwd(opts.SourceRoot).Run().Result()
	if err := buildError(p); err != nil {
		return "", err
	}
	return binary, nil
}

// CommandBuild runs a templated shell command to produce the interpreter.
// The template sees sourceRoot, outputDir, binary, binaryPath and package.
type CommandBuild struct {
	processRunner
}

var _ fixtures.Toolchain = (*CommandBuild)(nil)

// Name returns the toolchain identifier
func (c *CommandBuild) Name() string {
	return "command"
}

// Build renders the command template and runs it with sh -c in the source root
func (c *CommandBuild) Build(opts fixtures.BuildOptions) (string, error) {
	if strings.TrimSpace(opts.Command) == "" {
		return "", fmt.Errorf("no build command specified")
	}

	binary := filepath.Join(opts.OutputDir, opts.BinaryName)
	cmd, err := RenderBuildCommand(opts.Command, map[string]any{
		"sourceRoot": opts.SourceRoot,
		"outputDir":  opts.OutputDir,
		"binary":     opts.BinaryName,
		"binaryPath": binary,
		"package":    opts.Package,
	})
	if err != nil {
		return "", fmt.Errorf("failed to template build command: %w", err)
	}

	logger.V(4).Infof("🔨 Build command: %s", cmd)

	p := exec.NewExec("sh", "-c", cmd).WithCwd(opts.SourceRoot).Run().Result()
	if err := buildError(p); err != nil {
		return "", err
	}
	return binary, nil
}

// RenderBuildCommand renders a gomplate template for build commands
func RenderBuildCommand(template string, data map[string]any) (string, error) {
	return gomplate.RunTemplate(data, gomplate.Template{
		Template: template,
	})
}

func buildError(p *exec.ExecResult) error {
	output := strings.TrimSpace(p.Stderr + p.Stdout)
	if p.ExitCode != 0 {
		return fmt.Errorf("build command exited with code %d\nOutput: %s", p.ExitCode, output)
	}
	if p.Error != nil {
		return fmt.Errorf("build command failed: %w\nOutput: %s", p.Error, output)
	}
	if output != "" {
		logger.V(5).Infof("Build output: %s", output)
	}
	return nil
}

func init() {
	_ = fixtures.Register(&GoBuild{})
	_ = fixtures.Register(&CommandBuild{})
}
