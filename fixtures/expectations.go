package fixtures

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Expectations is what a fixture asserts about an interpreter run.
// A zero exit code is always required; stdout is only compared when
// CompareStdout is set.
type Expectations struct {
	CompareStdout bool
	Stdout        []string
}

// Expectations returns the assertions carried by the fixture.
func (p *ParsedFixture) Expectations() Expectations {
	return Expectations{
		CompareStdout: p.HasExpectations(),
		Stdout:        p.Expected,
	}
}

// Evaluate decides the outcome of one run:
//   - non-zero exit fails with stdout and stderr as diagnostics
//   - a process that could not be run fails with the error
//   - a clean exit passes unless stdout has to match and does not
func (e Expectations) Evaluate(fixture FixtureResult, p ExecResult) FixtureResult {
	fixture.ExitCode = p.ExitCode

	if p.ExitCode != 0 {
		return fixture.Failf(p.Stdout, p.Stderr)
	}
	if p.Error != nil {
		return fixture.Failf(p.Stdout, strings.TrimSpace(p.Error.Error()+"\n"+p.Stderr))
	}
	if !e.CompareStdout {
		return fixture.Pass()
	}

	actual := SplitOutput(p.Stdout)
	if !CompareOutput(e.Stdout, actual) {
		return fixture.Failf(MismatchMessage(e.Stdout, actual), "")
	}
	return fixture.Pass()
}

// SplitOutput splits captured stdout into lines on \n, \r\n or \r.
// A trailing terminator does not produce an empty last line, and lines are
// otherwise left untouched.
func SplitOutput(stdout string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(stdout); i++ {
		switch stdout[i] {
		case '\n':
			lines = append(lines, stdout[start:i])
			start = i + 1
		case '\r':
			lines = append(lines, stdout[start:i])
			if i+1 < len(stdout) && stdout[i+1] == '\n' {
				i++
			}
			start = i + 1
		}
	}
	if start < len(stdout) {
		lines = append(lines, stdout[start:])
	}
	return lines
}

// CompareOutput is strict: same length and equal lines in the same order.
func CompareOutput(expected, actual []string) bool {
	if len(expected) != len(actual) {
		return false
	}
	for i := range expected {
		if expected[i] != actual[i] {
			return false
		}
	}
	return true
}

// MismatchMessage reproduces both blocks in full, followed by a line diff.
func MismatchMessage(expected, actual []string) string {
	var sb strings.Builder
	sb.WriteString("STDOUT DOES NOT MATCH:\nExpected: ==========\n\n")
	sb.WriteString(strings.Join(expected, "\n"))
	sb.WriteString("\nGOT: ===========\n\n")
	sb.WriteString(strings.Join(actual, "\n"))
	sb.WriteString("\nDIFF: ==========\n\n")
	sb.WriteString(lineDiff(expected, actual))
	return sb.String()
}

// lineDiff renders a unified-style diff: '-' expected only, '+' actual only.
func lineDiff(expected, actual []string) string {
	dmp := diffmatchpatch.New()
	a, b, lineArray := dmp.DiffLinesToChars(joinLines(expected), joinLines(actual))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lineArray)

	var sb strings.Builder
	for _, diff := range diffs {
		prefix := " "
		switch diff.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		}
		for _, line := range strings.SplitAfter(diff.Text, "\n") {
			if line == "" {
				continue
			}
			fmt.Fprintf(&sb, "%s%s", prefix, line)
		}
	}
	return sb.String()
}

func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}
