// Package reporter formats verdicts as the line-oriented textual stream
// spec §6 mandates: "<ip> <port> <verdict>", one per line, to an
// io.Writer (ordinarily stdout). No structured format is produced by the
// core.
package reporter

import (
	"bufio"
	"fmt"
	"io"

	"github.com/CiscoCXSecurity/tcpy-scanner/internal/verdict"
)

// LineReporter writes one "<ip> <port> <verdict>" line per Report call.
type LineReporter struct {
	w *bufio.Writer
}

// New wraps w in a buffered LineReporter. Flush must be called before the
// process exits so the final lines are not lost.
func New(w io.Writer) *LineReporter {
	return &LineReporter{w: bufio.NewWriter(w)}
}

// Report implements verdict.Reporter.
func (r *LineReporter) Report(res verdict.Result) {
	fmt.Fprintf(r.w, "%s %d %s\n", res.IP, res.Port, res.Verdict)
}

// Flush flushes any buffered output.
func (r *LineReporter) Flush() error {
	return r.w.Flush()
}
