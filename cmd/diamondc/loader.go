package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/diamond-lang/diamondc/internal/ast"
)

// fileProgramLoader implements dmodule.ProgramLoader by reading a JSON-AST
// sidecar file from disk. spec.md §1's "the core consumes an already-built
// abstract syntax tree" means this module never tokenizes or parses source
// text itself; this loader stands in for the external front-end, searching
// the same directories internal/config resolves for a `use`/`include`
// target and decoding whatever it finds as JSON (see astjson.go).
type fileProgramLoader struct {
	searchPaths []string
}

func newFileProgramLoader(searchPaths []string) *fileProgramLoader {
	return &fileProgramLoader{searchPaths: searchPaths}
}

// LoadProgram resolves canonicalPath against the current working directory
// first, then each configured search path (an absolute canonicalPath is read
// as is), and decodes the first match.
func (l *fileProgramLoader) LoadProgram(canonicalPath string) (*ast.Program, error) {
	candidates := append([]string{"."}, l.searchPaths...)
	var lastErr error
	for _, dir := range candidates {
		full := canonicalPath
		if !filepath.IsAbs(canonicalPath) {
			full = filepath.Join(dir, canonicalPath)
		}
		data, err := os.ReadFile(full)
		if err != nil {
			lastErr = err
			continue
		}
		prog, err := decodeProgram(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", full, err)
		}
		prog.Module = canonicalPath
		return prog, nil
	}
	return nil, fmt.Errorf("module %q not found: %w", canonicalPath, lastErr)
}
