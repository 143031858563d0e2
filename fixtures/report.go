package fixtures

import (
	"fmt"
	"io"
	"strings"
)

var banner = strings.Repeat("=", 70)

// Report prints the end-of-run summary: every failure in recorded order with
// both diagnostics, then the passed/total tally and the failure count.
func Report(w io.Writer, failures []FailureRecord, total int) Stats {
	stats := NewStats(total, failures)

	fmt.Fprintln(w, banner)
	fmt.Fprintln(w, "TEST RESULTS")
	fmt.Fprintln(w, banner)
	for _, failure := range failures {
		fmt.Fprintf(w, "FAILED TEST %s\n", failure.Name)
		fmt.Fprintln(w, failure.Primary)
		fmt.Fprintln(w, failure.Secondary)
		fmt.Fprint(w, "\n\n")
	}

	fmt.Fprintf(w, "Passed %d/%d.\n", stats.Passed, stats.Total)
	fmt.Fprintf(w, "%d tests failed.\n", stats.Failed)
	return stats
}
