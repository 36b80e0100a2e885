// Package analyzer wires the Scope Stack, Module Loader, and intrinsics
// together and orchestrates the four-pass pipeline (spec.md §2 Flow; §4.5-
// §4.8) over one compilation unit: collect (Pass 1) -> unify (Pass 2) ->
// specialize (Pass 3) per function body and for the top-level block, then
// a single usage-marking closure (Pass 4) over the whole reachable program.
// Grounded on the teacher's internal/pipeline package (multi-stage
// orchestration of parse -> elaborate -> typecheck -> link), generalized to
// this spec's collect -> unify -> specialize -> mark-used pipeline.
package analyzer

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/diamond-lang/diamondc/internal/ast"
	"github.com/diamond-lang/diamondc/internal/collect"
	"github.com/diamond-lang/diamondc/internal/config"
	"github.com/diamond-lang/diamondc/internal/diag"
	"github.com/diamond-lang/diamondc/internal/dmodule"
	"github.com/diamond-lang/diamondc/internal/scope"
	"github.com/diamond-lang/diamondc/internal/specialize"
	"github.com/diamond-lang/diamondc/internal/unify"
	"github.com/diamond-lang/diamondc/internal/usage"
)

// Analyzer runs the full pipeline over one compilation: a module loader
// wired to analyzeModule, a shared diagnostic channel (spec.md §4.9's
// module-scoped error list), and the running set of every function
// declaration seen across every loaded module (used by the optional
// WarnUnused report, SPEC_FULL.md §4 item 3).
type Analyzer struct {
	Loader *dmodule.Loader
	Ch     *diag.Channel

	// WarnUnused enables the informational "function is never used" report
	// (SPEC_FULL.md §4 item 3) after the usage-marking closure completes.
	// Off by default, since spec.md's core contract is silent pruning, not
	// diagnostics, for unused functions.
	WarnUnused bool

	cfg           *config.Config
	allFunctions  []*ast.FunctionDecl
	stdlibModules map[string]bool
}

// New returns an Analyzer resolving module text through programs and
// search/stdlib paths from cfg.
func New(cfg *config.Config, programs dmodule.ProgramLoader) *Analyzer {
	loader := dmodule.NewLoader(programs, cfg.SearchPaths, cfg.StdlibPath)
	a := &Analyzer{
		Loader: loader,
		Ch:     diag.NewChannel(),
		cfg:    cfg,
	}
	a.stdlibModules = make(map[string]bool, len(cfg.StdlibModules))
	for _, name := range cfg.StdlibModules {
		a.stdlibModules[canonicalStdlibPath(cfg.StdlibPath, name)] = true
	}
	loader.SetAnalyzer(a.analyzeModule)
	return a
}

func canonicalStdlibPath(stdlibPath, name string) string {
	canonical := path.Join(filepath.ToSlash(stdlibPath), name)
	if !strings.HasSuffix(canonical, ".dmd") {
		canonical += ".dmd"
	}
	return path.Clean(canonical)
}

// Result is the annotated entry-module tree and its Module (spec.md §6.2).
// The diagnostics accumulated over the compilation are read through
// Analyzer.Diagnostics, not from Result.
type Result struct {
	Program *ast.Program
	Module  *dmodule.Module
}

// Diagnostics returns every diagnostic accumulated so far, in report order.
func (a *Analyzer) Diagnostics() []*diag.Diagnostic { return a.Ch.All() }

// Check loads and analyzes the module at entryPath (spec.md §4.4's
// canonical-path contract) and every module it transitively depends on,
// then runs the Usage Marker over the entry module's reachable program
// (spec.md §4.8). It is the single entry point a host (e.g. cmd/diamondc)
// drives.
func (a *Analyzer) Check(entryPath string) (*Result, error) {
	mod, err := a.Loader.Load(entryPath)
	if err != nil {
		return nil, err
	}

	marker := usage.New()
	marker.MarkProgram(mod.Program)

	if a.WarnUnused {
		usage.WarnUnused(a.allFunctions, nil, a.Ch)
	}

	return &Result{Program: mod.Program, Module: mod}, nil
}

// analyzeModule is the dmodule.Analyzer callback: it builds mod's working
// and export scopes, seeds intrinsics, declares mod's own top-level
// definitions, preloads the standard library (unless mod is itself a
// stdlib file, spec.md §4.4), injects use/include dependencies, generalizes
// every function's signature (so a function with an undeclared parameter or
// return type is visible as generic to its own call sites regardless of
// declaration order), then runs the pipeline over every function body and
// the top-level block.
func (a *Analyzer) analyzeModule(mod *dmodule.Module) error {
	mod.Scope = scope.New()
	mod.Exports = scope.New()
	SeedIntrinsics(mod.Scope)

	a.declareOwnDeclarations(mod)

	if !a.stdlibModules[mod.Path] {
		if err := a.Loader.PreloadStdlib(a.cfg.StdlibModules, mod.Scope); err != nil {
			return err
		}
	}

	if err := a.Loader.Inject(mod); err != nil {
		return err
	}

	a.allFunctions = append(a.allFunctions, mod.Program.Functions...)

	for _, fn := range mod.Program.Functions {
		fn.Module = mod.Path
		a.generalizeSignature(mod.Scope, fn)
	}
	for _, fn := range mod.Program.Functions {
		a.analyzeFunction(mod.Scope, fn)
	}
	a.analyzeTopLevel(mod.Scope, mod.Program)

	return nil
}

// declareOwnDeclarations registers every top-level type, interface, and
// function of mod.Program into both mod.Scope (what the module's own body
// sees) and mod.Exports (what an importer receives, per dmodule's
// Scope-vs-Exports split) — spec.md §4.4 treats every top-level
// declaration as potentially re-exportable; whether it actually propagates
// to a third module is governed by use vs. include at the Inject step, not
// by anything declared here. Types are declared before interfaces and
// functions so field/parameter-constraint references resolve regardless
// of source order.
func (a *Analyzer) declareOwnDeclarations(mod *dmodule.Module) {
	for _, td := range mod.Program.Types {
		if err := mod.Scope.DeclareType(td); err != nil {
			a.Ch.Add(diag.New(diag.RedefinedType, td.Position(), err.Error()))
		} else {
			_ = mod.Exports.DeclareType(td)
		}
	}
	for _, id := range mod.Program.Interfaces {
		if err := mod.Scope.DeclareInterface(id); err != nil {
			a.Ch.Add(diag.New(diag.RedefinedType, id.Position(), err.Error()))
		} else {
			_ = mod.Exports.DeclareInterface(id)
		}
	}
	for _, fn := range mod.Program.Functions {
		if err := mod.Scope.DeclareFunction(fn.Name, fn); err != nil {
			a.Ch.Add(diag.New(diag.GenericOverloadConfl, fn.Position(), err.Error()))
			continue
		}
		_ = mod.Exports.DeclareFunction(fn.Name, fn)
	}
}

// analyzeFunction runs Passes 1-3 over one function body (spec.md §4.6:
// "each function gets a private solver"). A unification failure aborts
// only this function (spec.md §7); an extern or bodyless declaration needs
// no inference and is CompletelyTyped directly.
func (a *Analyzer) analyzeFunction(sc *scope.Stack, fn *ast.FunctionDecl) {
	if fn.IsExtern || fn.Body == nil {
		fn.State = ast.CompletelyTyped
		return
	}

	fn.State = ast.BeingAnalyzed
	col := collect.New(sc, a.Ch)
	col.CollectFunction(fn)

	res, err := unify.Unify(col.Store, a.Ch, fn.Position())
	if err != nil {
		// spec.md §7: unification failure aborts the enclosing function's
		// analysis only; subsequent top-level definitions are still
		// attempted by the caller's loop over mod.Program.Functions.
		fn.State = ast.Analyzed
		return
	}

	unify.Finalize(fn.Body, res)
	resolver := specialize.New(sc, a.Ch, res)
	walkCalls(fn.Body, resolver.ResolveCall)

	if fn.IsCompletelyTyped() {
		fn.State = ast.CompletelyTyped
	} else {
		fn.State = ast.Analyzed
	}
}

// analyzeTopLevel runs Passes 1-3 over prog's top-level statements (spec.md
// §4.6: "once for the top-level program block"), under its own private
// solver just like a function body.
func (a *Analyzer) analyzeTopLevel(sc *scope.Stack, prog *ast.Program) {
	if len(prog.Statements) == 0 {
		return
	}
	col := collect.New(sc, a.Ch)
	col.CollectProgram(prog)

	res, err := unify.Unify(col.Store, a.Ch, prog.Position())
	if err != nil {
		return
	}

	for _, s := range prog.Statements {
		unify.Finalize(s, res)
	}
	resolver := specialize.New(sc, a.Ch, res)
	for _, s := range prog.Statements {
		walkCalls(s, resolver.ResolveCall)
	}
}
