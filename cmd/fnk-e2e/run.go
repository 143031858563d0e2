package main

import (
	"fmt"

	"github.com/flanksource/clicky"
	"github.com/flanksource/commons/logger"
	"github.com/flanksource/fnk-e2e/config"
	"github.com/flanksource/fnk-e2e/fixtures"
	_ "github.com/flanksource/fnk-e2e/fixtures/toolchain"
	"github.com/spf13/cobra"
)

var runFlags config.Config

var runCmd = &cobra.Command{
	Use:   "run [filter]",
	Short: "Build the interpreter and run every fixture against it",
	Long: `Builds the interpreter once, then runs it against each fixture found under
the tests directory. Fixtures starting with an @EXPECTED line also have their
stdout compared against the expected block.

The optional filter is a regular expression matched against the start of each
fixture's file name.`,
	Args:         cobra.MaximumNArgs(1),
	RunE:         runFixtures,
	SilenceUsage: true,
}

func runFixtures(cmd *cobra.Command, args []string) error {
	root, err := getWorkingDir()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	cfg, err := config.Load(root)
	if err != nil {
		return err
	}

	if len(args) == 1 {
		if runFlags.Filter != "" {
			return fmt.Errorf("filter given both as argument and --filter")
		}
		runFlags.Filter = args[0]
	}
	cfg = config.Merge(cfg, runFlags)
	logger.V(2).Infof("Configuration: %+v", cfg)

	if cfg.Build != "" && cfg.Toolchain != "command" {
		logger.Warnf("Build command is ignored by the %s toolchain, use --toolchain=command", cfg.Toolchain)
	}

	tc, err := fixtures.DefaultRegistry.Resolve(cfg.Toolchain)
	if err != nil {
		return err
	}

	runner, err := fixtures.NewRunner(fixtures.RunnerOptions{
		SourceRoot:   root,
		FixtureRoot:  cfg.TestsDir(root),
		Extension:    cfg.Extension,
		Filter:       cfg.Filter,
		Package:      cfg.Package,
		BinaryName:   cfg.Binary,
		BuildCommand: cfg.Build,
		NoColor:      clicky.Flags.NoColor,
		Out:          cmd.OutOrStdout(),
	}, tc)
	if err != nil {
		return fmt.Errorf("failed to create fixture runner: %w", err)
	}

	stats, err := runner.Run()
	if err != nil {
		return err
	}
	if !stats.IsOK() {
		return fmt.Errorf("%d of %d fixtures failed", stats.Failed, stats.Total)
	}
	return nil
}

func init() {
	flags := runCmd.Flags()
	flags.StringVar(&runFlags.Tests, "tests", "", "Fixture directory, relative to the source root (default \"tests\")")
	flags.StringVar(&runFlags.Extension, "ext", "", "Fixture file extension (default \"fnk\")")
	flags.StringVar(&runFlags.Package, "package", "", "Interpreter entry point package (default \"cmd/funk\")")
	flags.StringVar(&runFlags.Binary, "binary", "", "Name of the built interpreter binary (default \"funk\")")
	flags.StringVar(&runFlags.Toolchain, "toolchain", "", "Toolchain used to build and run the interpreter: go, command (default \"go\")")
	flags.StringVar(&runFlags.Build, "build", "", "Build command template for the command toolchain")
	flags.StringVar(&runFlags.Filter, "filter", "", "Only run fixtures whose file name matches the regex")
	rootCmd.AddCommand(runCmd)
}
