// Package config resolves module search paths and the standard library
// path the loader needs (SPEC_FULL.md §1 Ambient Stack), grounded on the
// teacher's internal/module/loader.go (getDefaultSearchPaths/getStdlibPath)
// and internal/module/resolver.go (NewResolver's projectRoot/stdlibPath/
// searchPaths triad), renamed from AILANG_PATH/AILANG_STDLIB to this
// module's own DIAMOND_PATH/DIAMOND_STDLIB environment variables.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config carries the resolved module search paths and standard library
// path an internal/dmodule.Loader is constructed with.
type Config struct {
	// SearchPaths are directories searched, in order, for a `use`/`include`
	// target that the current module's own directory doesn't resolve.
	SearchPaths []string `yaml:"searchPaths"`

	// StdlibPath is the root directory preloaded into the root scope
	// (spec.md §4.4) unless the compilation unit is itself a stdlib file.
	StdlibPath string `yaml:"stdlibPath"`

	// StdlibModules lists the stdlib module paths (relative to StdlibPath)
	// preloaded at the start of every non-stdlib compilation, in order.
	StdlibModules []string `yaml:"stdlibModules"`
}

// projectFile is the optional per-project YAML config, e.g. "diamond.yaml"
// in the current directory, layered on top of the environment-derived
// defaults (teacher precedent: internal/eval_harness reads its scenario
// configuration from YAML via the same library).
type projectFile struct {
	SearchPaths   []string `yaml:"searchPaths"`
	StdlibPath    string   `yaml:"stdlibPath"`
	StdlibModules []string `yaml:"stdlibModules"`
}

// Load resolves a Config from DIAMOND_PATH/DIAMOND_STDLIB and, if present,
// a "diamond.yaml" project file in dir (searched the same way the
// teacher's getDefaultSearchPaths/getStdlibPath consult the environment
// before falling back to relative defaults).
func Load(dir string) (*Config, error) {
	cfg := &Config{
		SearchPaths: defaultSearchPaths(),
		StdlibPath:  defaultStdlibPath(),
	}

	pf, err := readProjectFile(filepath.Join(dir, "diamond.yaml"))
	if err != nil {
		return nil, err
	}
	if pf != nil {
		if len(pf.SearchPaths) > 0 {
			cfg.SearchPaths = append(cfg.SearchPaths, pf.SearchPaths...)
		}
		if pf.StdlibPath != "" {
			cfg.StdlibPath = pf.StdlibPath
		}
		if len(pf.StdlibModules) > 0 {
			cfg.StdlibModules = pf.StdlibModules
		}
	}
	return cfg, nil
}

// defaultSearchPaths mirrors the teacher's getDefaultSearchPaths: current
// directory first, then DIAMOND_PATH entries, then a per-user module
// directory under the home directory.
func defaultSearchPaths() []string {
	paths := []string{"."}
	if dp := os.Getenv("DIAMOND_PATH"); dp != "" {
		paths = append(paths, strings.Split(dp, string(os.PathListSeparator))...)
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".diamond", "modules"))
	}
	return paths
}

// defaultStdlibPath mirrors the teacher's getStdlibPath: environment
// variable first, then a directory relative to the running executable,
// then a "./stdlib" fallback.
func defaultStdlibPath() string {
	if sl := os.Getenv("DIAMOND_STDLIB"); sl != "" {
		return sl
	}
	if exe, err := os.Executable(); err == nil {
		stdlib := filepath.Join(filepath.Dir(exe), "..", "stdlib")
		if info, err := os.Stat(stdlib); err == nil && info.IsDir() {
			return stdlib
		}
	}
	return filepath.Join(".", "stdlib")
}

func readProjectFile(path string) (*projectFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var pf projectFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, err
	}
	return &pf, nil
}
