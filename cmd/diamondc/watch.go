package main

import (
	"fmt"
	"io"

	"github.com/peterh/liner"
)

// watchLoop re-runs checkOnce each time the user presses Enter, grounded on
// the teacher's internal/repl/repl.go Start loop (liner.NewLiner, a single
// prompt read per iteration). Unlike a REPL this never evaluates input: the
// line read is discarded, it only gates when to re-check.
func watchLoop(entry string, stdout io.Writer, checkOnce func() bool) {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	fmt.Fprintf(stdout, "watching %s — press Enter to re-check, Ctrl+C to stop\n", entry)
	for {
		_, err := line.Prompt("> ")
		if err != nil {
			return
		}
		checkOnce()
	}
}
