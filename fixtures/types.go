package fixtures

import (
	"fmt"
	"time"

	"github.com/flanksource/clicky"
	"github.com/flanksource/clicky/api"
)

const (
	// ExpectedMarker opens the expected-output block of an annotated fixture.
	ExpectedMarker = "@EXPECTED"
	// SourceMarker separates the expected-output block from the interpreter source.
	SourceMarker = "@SOURCE"
)

// Kind distinguishes fixtures that only assert a clean exit from fixtures
// that also carry an expected-output block.
type Kind int

const (
	// Plain fixtures are run as-is; success is a zero exit code.
	Plain Kind = iota
	// Annotated fixtures start with @EXPECTED and have their source block
	// materialized into a temporary file before execution.
	Annotated
)

func (k Kind) String() string {
	switch k {
	case Plain:
		return "plain"
	case Annotated:
		return "annotated"
	default:
		return "unknown"
	}
}

// Document is the parsed content of a fixture file.
// Expected and Source are only populated for Annotated documents.
type Document struct {
	Kind     Kind
	Expected []string
	Source   []byte
}

// ParsedFixture is a fixture ready to be handed to the interpreter.
// Input is the path the interpreter executes: the fixture itself for plain
// fixtures, or a temporary copy of the source block for annotated ones.
type ParsedFixture struct {
	Path     string
	Kind     Kind
	Input    string
	Expected []string

	source *TempSource
}

// HasExpectations reports whether stdout must be compared after a clean exit.
func (p *ParsedFixture) HasExpectations() bool {
	return p.Kind == Annotated
}

// Close releases the temporary source file of an annotated fixture.
func (p *ParsedFixture) Close() error {
	if p == nil || p.source == nil {
		return nil
	}
	return p.source.Remove()
}

// ExecResult is what a Toolchain reports back after running the interpreter.
type ExecResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
	// Error is set when the process could not be started or waited on.
	Error error
}

// FailureRecord captures one failed fixture for the end-of-run report.
type FailureRecord struct {
	Name      string
	Primary   string
	Secondary string
}

// Status is the outcome of a single fixture.
type Status string

const (
	StatusPassed Status = "Passed"
	StatusFailed Status = "Failed"
)

func (s Status) Pretty() api.Text {
	if s == StatusPassed {
		return clicky.Text(string(s), "text-green-500")
	}
	return clicky.Text(string(s), "text-red-500 font-bold")
}

// FixtureResult is the outcome of executing one fixture.
type FixtureResult struct {
	Name     string         `json:"name"`
	Kind     Kind           `json:"kind"`
	Status   Status         `json:"status"`
	Duration time.Duration  `json:"duration,omitempty"`
	ExitCode int            `json:"exit_code,omitempty"`
	Failure  *FailureRecord `json:"failure,omitempty"`
}

func (f FixtureResult) Failf(primary, secondary string) FixtureResult {
	f.Status = StatusFailed
	f.Failure = &FailureRecord{Name: f.Name, Primary: primary, Secondary: secondary}
	return f
}

func (f FixtureResult) Pass() FixtureResult {
	f.Status = StatusPassed
	f.Failure = nil
	return f
}

func (f FixtureResult) IsOK() bool {
	return f.Status == StatusPassed
}

func (f FixtureResult) String() string {
	return fmt.Sprintf("%s - %s", f.Name, f.Status)
}

// Stats is the run summary, derived from the fixture list and the failures.
type Stats struct {
	Total  int `json:"total"`
	Passed int `json:"passed"`
	Failed int `json:"failed"`
}

// NewStats derives the tally for a run over total fixtures.
func NewStats(total int, failures []FailureRecord) Stats {
	return Stats{
		Total:  total,
		Passed: total - len(failures),
		Failed: len(failures),
	}
}

func (s Stats) IsOK() bool {
	return s.Failed == 0
}

func (s Stats) String() string {
	return fmt.Sprintf("%d/%d", s.Passed, s.Total)
}
