// Package fixtures runs end-to-end fixtures against an interpreter binary.
//
// A fixture is a source file the interpreter executes. Plain fixtures pass
// when the interpreter exits with status zero. Annotated fixtures also pin
// the interpreter's stdout:
//
//	@EXPECTED
//	hello
//	@SOURCE
//	print("hello")
//
// Everything between @EXPECTED and @SOURCE is the expected output. Trailing
// whitespace is stripped and blank lines are ignored. Everything after
// @SOURCE is written verbatim to a temporary file, which is what the
// interpreter actually runs. An annotated fixture without a @SOURCE line is
// malformed and aborts the run.
//
// # Running Fixtures
//
// The interpreter is built once through a Toolchain, then every fixture is
// executed sequentially:
//
//	tc, _ := fixtures.Get("go")
//	runner, _ := fixtures.NewRunner(fixtures.RunnerOptions{
//	    SourceRoot:  ".",
//	    FixtureRoot: "tests",
//	    Extension:   "fnk",
//	    Package:     "cmd/funk",
//	    BinaryName:  "funk",
//	}, tc)
//	stats, err := runner.Run()
//
// Build failures and malformed fixtures are returned as errors; failing
// fixtures are collected and printed in the final report.
package fixtures
