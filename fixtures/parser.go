package fixtures

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/samber/lo"
)

// ErrMalformedFixture is returned for annotated fixtures without a @SOURCE line.
var ErrMalformedFixture = errors.New("malformed fixture")

// FormatError attributes a fixture-format problem to the offending file.
type FormatError struct {
	Path   string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrMalformedFixture, e.Path, e.Reason)
}

func (e *FormatError) Unwrap() error {
	return ErrMalformedFixture
}

// ParseDocument reads a fixture and classifies it.
//
// The first line must be exactly "@EXPECTED\n" for the fixture to be
// annotated; anything else makes it plain and nothing more is read. For
// annotated fixtures every line up to the "@SOURCE\n" line belongs to the
// expected block and every line after it is source, byte for byte.
func ParseDocument(r io.Reader) (Document, error) {
	reader := bufio.NewReader(r)

	first, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return Document{}, err
	}
	if first != ExpectedMarker+"\n" {
		return Document{Kind: Plain}, nil
	}

	lines, err := readLines(reader)
	if err != nil {
		return Document{}, err
	}

	for i, line := range lines {
		if line != SourceMarker+"\n" {
			continue
		}
		return Document{
			Kind:     Annotated,
			Expected: NormalizeExpected(lines[:i]),
			Source:   []byte(strings.Join(lines[i+1:], "")),
		}, nil
	}

	return Document{}, ErrMalformedFixture
}

// readLines returns the remaining lines with their terminators intact.
func readLines(reader *bufio.Reader) ([]string, error) {
	var lines []string
	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			lines = append(lines, line)
		}
		if err == io.EOF {
			return lines, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// NormalizeExpected strips trailing whitespace from every line and drops the
// lines left empty, so an expected block can never assert a blank line.
func NormalizeExpected(lines []string) []string {
	trimmed := lo.Map(lines, func(line string, _ int) string {
		return strings.TrimRightFunc(line, unicode.IsSpace)
	})
	return lo.Filter(trimmed, func(line string, _ int) bool {
		return line != ""
	})
}

// ParseFixture parses the fixture at path and prepares its effective input.
// Annotated sources are written to a temporary file inside tempDir (the OS
// temp dir when empty); callers must Close the result once it has run.
func ParseFixture(path, tempDir string) (*ParsedFixture, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open fixture file: %w", err)
	}
	defer func() { _ = file.Close() }()

	doc, err := ParseDocument(file)
	if errors.Is(err, ErrMalformedFixture) {
		return nil, &FormatError{Path: path, Reason: fmt.Sprintf("%s line not found after %s", SourceMarker, ExpectedMarker)}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture file '%s': %w", path, err)
	}

	if doc.Kind == Plain {
		return &ParsedFixture{Path: path, Kind: Plain, Input: path}, nil
	}

	source, err := createTempSource(tempDir, path, doc.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to materialize source of '%s': %w", path, err)
	}

	return &ParsedFixture{
		Path:     path,
		Kind:     Annotated,
		Input:    source.Path,
		Expected: doc.Expected,
		source:   source,
	}, nil
}
