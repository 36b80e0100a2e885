package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/diamond-lang/diamondc/internal/diag"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// printDiagnostics renders one line per diagnostic (spec.md §7: "one message
// per error with file, line, column, a one-line English description, and,
// for type errors, the conflicting types' display forms"), grounded on the
// teacher's colorized cmd/ailang/main.go printParserErrors.
func printDiagnostics(w io.Writer, diags []*diag.Diagnostic) {
	for _, d := range diags {
		label := red("error")
		fmt.Fprintf(w, "%s: %s [%s] %s\n", bold(d.Pos.String()), label, d.Code, d.Message)
		if d.Expected != nil && d.Actual != nil {
			fmt.Fprintf(w, "  expected %s, got %s\n", yellow(d.Expected.String()), yellow(d.Actual.String()))
		}
	}
}

// printSummary reports pass/fail in the teacher's green-check/red-cross
// style (cmd/ailang/main.go's checkFile).
func printSummary(w io.Writer, module string, diags []*diag.Diagnostic) {
	if len(diags) == 0 {
		fmt.Fprintf(w, "%s %s: no errors found\n", green("✓"), module)
		return
	}
	fmt.Fprintf(w, "%s %s: %d error(s)\n", red("✗"), module, len(diags))
}
