// Command diamondc is the CLI entry point for the semantic core (spec.md
// §1, §6): it reads a serialized AST (parsing itself is an external
// collaborator, out of scope for this module), drives the Analyzer over it,
// and prints accumulated diagnostics. Grounded on the teacher's
// cmd/ailang/main.go (flag-based command dispatch, fatih/color SprintFuncs)
// and internal/repl/repl.go (peterh/liner prompt loop) for --watch.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/diamond-lang/diamondc/internal/analyzer"
	"github.com/diamond-lang/diamondc/internal/config"
)

// Version info, set by ldflags during build (teacher precedent:
// cmd/ailang/main.go's Version/Commit/BuildTime vars).
var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("diamondc", flag.ContinueOnError)
	fs.SetOutput(stderr)
	versionFlag := fs.Bool("version", false, "print version information")
	helpFlag := fs.Bool("help", false, "show help")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *versionFlag {
		fmt.Fprintf(stdout, "diamondc %s (%s)\n", bold(Version), Commit)
		return 0
	}
	if *helpFlag || fs.NArg() == 0 {
		printHelp(stdout)
		return 0
	}

	switch fs.Arg(0) {
	case "check":
		return runCheck(fs.Args()[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "%s: unknown command %q\n", red("error"), fs.Arg(0))
		printHelp(stderr)
		return 1
	}
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, bold("diamondc")+" - semantic analyzer for the diamond language front-end")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  diamondc check [flags] <file.json-ast>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  --watch           re-check on Enter (interactive)")
	fmt.Fprintln(w, "  --warn-unused     report non-extern functions never reached from the entry module")
	fmt.Fprintln(w, "  --search <path>   additional module search path (repeatable)")
	fmt.Fprintln(w, "  --stdlib <path>   standard library root")
	fmt.Fprintln(w, "  --version         print version information")
	fmt.Fprintln(w, "  --help            show this help message")
}

// stringList implements flag.Value for a repeatable --search flag.
type stringList []string

func (s *stringList) String() string { return fmt.Sprint([]string(*s)) }
func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func runCheck(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(stderr)
	watch := fs.Bool("watch", false, "re-check on Enter")
	warnUnused := fs.Bool("warn-unused", false, "report unused functions")
	stdlib := fs.String("stdlib", "", "standard library root")
	var search stringList
	fs.Var(&search, "search", "additional module search path (repeatable)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(stderr, "%s: usage: diamondc check [flags] <file.json-ast>\n", red("error"))
		return 2
	}
	entry := fs.Arg(0)

	cfg, err := config.Load(filepath.Dir(entry))
	if err != nil {
		fmt.Fprintf(stderr, "%s: loading config: %v\n", red("error"), err)
		return 1
	}
	if *stdlib != "" {
		cfg.StdlibPath = *stdlib
	}
	cfg.SearchPaths = append(cfg.SearchPaths, search...)

	checkOnce := func() bool {
		return checkFile(entry, cfg, *warnUnused, stdout, stderr)
	}

	ok := checkOnce()
	if !*watch {
		if ok {
			return 0
		}
		return 1
	}

	watchLoop(entry, stdout, checkOnce)
	return 0
}

// checkFile runs one Analyzer.Check over entry and prints diagnostics plus a
// pass/fail summary (teacher precedent: cmd/ailang/main.go's checkFile).
// Returns true iff analysis produced no diagnostics.
func checkFile(entry string, cfg *config.Config, warnUnused bool, stdout, stderr io.Writer) bool {
	a := analyzer.New(cfg, newFileProgramLoader(cfg.SearchPaths))
	a.WarnUnused = warnUnused

	_, err := a.Check(entry)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", red("error"), err)
		return false
	}

	diags := a.Diagnostics()
	printDiagnostics(stdout, diags)
	printSummary(stdout, entry, diags)
	return len(diags) == 0
}
