// Package dmodule implements the Module Loader (spec.md §4.4): lazy,
// deduplicated, transitive resolution of `use`/`include` directives.
// Grounded on the teacher's internal/module/loader.go (Loader, cache,
// getDefaultSearchPaths/getStdlibPath), adapted to this spec's directive
// semantics — `include` re-exports transitively, `use` does not (spec.md
// §9, SPEC_FULL.md §5) — and to an already-parsed input tree rather than
// lexing/parsing source text, since tokenization and parsing are out of
// scope (spec.md §1): a module's text is obtained through the injected
// ProgramLoader rather than read and lexed here. Unlike the teacher's
// loader, a circular use/include is legal, not an error (spec.md §9): the
// insert-if-absent cache itself breaks the recursion, since a module is
// cached as soon as its program is obtained (state Parsed), before its own
// dependencies are loaded.
package dmodule

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/diamond-lang/diamondc/internal/ast"
	"github.com/diamond-lang/diamondc/internal/scope"
)

// State tracks one module's position in the load/analyze lifecycle
// (Unparsed -> Parsing -> Parsed -> Analyzed).
type State int

const (
	Unparsed State = iota
	Parsing
	Parsed
	Analyzed
)

func (s State) String() string {
	switch s {
	case Unparsed:
		return "Unparsed"
	case Parsing:
		return "Parsing"
	case Parsed:
		return "Parsed"
	case Analyzed:
		return "Analyzed"
	default:
		return "Unknown"
	}
}

// ProgramLoader obtains the already-parsed tree for a resolved module path.
// Parsing itself is out of scope for this module (spec.md §1); the CLI or
// an embedding host supplies this, typically by reading a serialized AST
// sidecar for the named path.
type ProgramLoader interface {
	LoadProgram(filePath string) (*ast.Program, error)
}

// Analyzer runs the four-pass pipeline over a freshly parsed module's
// program, populating mod.Scope with its top-level declarations. Injected
// rather than imported directly: internal/analyzer orchestrates
// internal/dmodule, so internal/dmodule cannot import internal/analyzer
// without a cycle.
type Analyzer func(mod *Module) error

// Module is one loaded, (eventually) analyzed module. Scope and Exports are
// deliberately separate stacks: Scope is what the module's own body sees
// (its own declarations plus everything brought in by both `use` and
// `include`), Exports is only what an importer of this module receives in
// turn (its own declarations plus whatever it itself `include`d, never
// what it merely `use`d) — spec.md §9 / SPEC_FULL.md §5's "include is
// transitive, use is not" distinction.
type Module struct {
	Path     string // canonical path, e.g. "lib/list.dmd"
	FilePath string
	State    State
	Program  *ast.Program
	Scope    *scope.Stack
	Exports  *scope.Stack
	Uses     []string // non-transitive dependencies
	Includes []string // transitive (re-exporting) dependencies
}

// Loader resolves use/include directives to Modules, deduplicating by
// canonical path via an insert-if-absent cache (spec.md §4.4, §9: "the
// loader's deduplication set plus the module table's insert-if-absent
// idempotency are sufficient"). A module is cached as soon as its program
// is obtained (state Parsed), before its dependencies are loaded, so a
// circular use/include re-enters the same cached (not yet Analyzed) Module
// rather than
// recursing forever — spec.md §9: "Re-entry during Parsing means a
// circular import — this is legal and handled by completing scope
// injection lazily."
type Loader struct {
	cache       map[string]*Module
	searchPaths []string
	stdlibPath  string
	programs    ProgramLoader
	analyze     Analyzer
}

// NewLoader returns a Loader that resolves search paths relative to
// searchPaths/stdlibPath (internal/config builds these from
// DIAMOND_PATH/DIAMOND_STDLIB) and obtains program text via programs.
func NewLoader(programs ProgramLoader, searchPaths []string, stdlibPath string) *Loader {
	return &Loader{
		cache:       make(map[string]*Module),
		searchPaths: searchPaths,
		stdlibPath:  stdlibPath,
		programs:    programs,
	}
}

// SetAnalyzer wires the pass pipeline in after construction, breaking the
// import cycle between internal/dmodule and internal/analyzer.
func (l *Loader) SetAnalyzer(a Analyzer) { l.analyze = a }

// Resolve implements spec.md §4.4's path rule: given a directive path `p`
// named from a module at `from`, the target is canonical(dirname(from)/p +
// ".dmd").
func Resolve(from, directivePath string) string {
	dir := path.Dir(filepath.ToSlash(from))
	target := path.Join(dir, filepath.ToSlash(directivePath))
	if !strings.HasSuffix(target, ".dmd") {
		target += ".dmd"
	}
	return path.Clean(target)
}

// Load ensures the module at canonicalPath is parsed and recursively
// analyzed exactly once, returning the cached instance on any subsequent
// call (spec.md §4.4) — including a re-entrant call reached through a
// circular use/include while canonicalPath's own analysis is still running
// further up the call stack. That re-entrant caller gets back the same
// *Module, in state Parsed rather than Analyzed, carrying whatever mod.Scope/mod.Exports already
// hold at that point (at least canonicalPath's own top-level declarations,
// populated by the Analyzer callback before it recurses into Inject):
// spec.md §9 calls this legal, completed lazily rather than rejected.
func (l *Loader) Load(canonicalPath string) (*Module, error) {
	if mod, ok := l.cache[canonicalPath]; ok {
		return mod, nil
	}

	mod := &Module{Path: canonicalPath, State: Parsing}
	prog, err := l.programs.LoadProgram(canonicalPath)
	if err != nil {
		return nil, fmt.Errorf("module %q: %w", canonicalPath, err)
	}
	mod.Program = prog
	mod.State = Parsed
	mod.Uses, mod.Includes = directivePaths(canonicalPath, prog)

	// Insert-if-absent: cache before recursing into dependencies, so a
	// circular use/include re-enters this same Module via the cache lookup
	// above instead of recursing forever.
	l.cache[canonicalPath] = mod

	if l.analyze != nil {
		if err := l.analyze(mod); err != nil {
			return nil, err
		}
		mod.State = Analyzed
	}

	return mod, nil
}

// Inject resolves every use/include directive of mod (loading each
// dependency exactly once) and merges each dependency's Exports into mod's
// own Scope and, for `include` only, into mod's own Exports too — so
// anything mod transitively included is visible to whoever imports mod in
// turn, while anything mod merely used stops at mod (spec.md §4.4, §9).
// The caller (internal/analyzer) must declare mod's own top-level
// functions/interfaces/types into both mod.Scope and mod.Exports before
// calling Inject.
func (l *Loader) Inject(mod *Module) error {
	for _, u := range mod.Uses {
		dep, err := l.Load(u)
		if err != nil {
			return err
		}
		mergeExports(dep.Exports, mod.Scope)
	}
	for _, inc := range mod.Includes {
		dep, err := l.Load(inc)
		if err != nil {
			return err
		}
		mergeExports(dep.Exports, mod.Scope)
		mergeExports(dep.Exports, mod.Exports)
	}
	return nil
}

// PreloadStdlib loads every module path in stdlibModules (resolved against
// l.stdlibPath) and merges their exports directly into root, before any
// user module is analyzed (SPEC_FULL.md §1: "stdlib preloaded into the
// root scope").
func (l *Loader) PreloadStdlib(stdlibModules []string, root *scope.Stack) error {
	for _, name := range stdlibModules {
		canonical := path.Join(filepath.ToSlash(l.stdlibPath), name)
		if !strings.HasSuffix(canonical, ".dmd") {
			canonical += ".dmd"
		}
		mod, err := l.Load(path.Clean(canonical))
		if err != nil {
			return fmt.Errorf("stdlib module %q: %w", name, err)
		}
		mergeExports(mod.Exports, root)
	}
	return nil
}

func directivePaths(modulePath string, prog *ast.Program) (uses, includes []string) {
	for _, u := range prog.Uses {
		uses = append(uses, Resolve(modulePath, u.Path))
	}
	for _, inc := range prog.Includes {
		includes = append(includes, Resolve(modulePath, inc.Path))
	}
	return uses, includes
}

// mergeExports injects every top-level function/interface/type binding of
// dep's root scope frame into dst's current (top) frame, "as if declared
// there" (spec.md §4.4). Declaration-order conflicts surface through dst's
// own Declare* error paths, exactly as a same-module redeclaration would.
func mergeExports(dep *scope.Stack, dst *scope.Stack) {
	if dep == nil {
		return
	}
	for _, fn := range dep.ExportedFunctions() {
		_ = dst.DeclareFunction(fn.Name, fn) // conflicts reported by the caller's own analysis pass
	}
	for _, iface := range dep.ExportedInterfaces() {
		_ = dst.DeclareInterface(iface)
	}
	for _, t := range dep.ExportedTypes() {
		_ = dst.DeclareType(t)
	}
}

