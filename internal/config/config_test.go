package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadUsesEnvironmentWhenNoProjectFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DIAMOND_PATH", filepath.Join("one")+string(os.PathListSeparator)+filepath.Join("two"))
	t.Setenv("DIAMOND_STDLIB", filepath.Join(dir, "stdlib"))

	cfg, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "stdlib"), cfg.StdlibPath)
	require.Contains(t, cfg.SearchPaths, ".")
	require.Contains(t, cfg.SearchPaths, "one")
	require.Contains(t, cfg.SearchPaths, "two")
	require.Empty(t, cfg.StdlibModules)
}

func TestLoadLayersProjectFileOverEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DIAMOND_STDLIB", "/env/stdlib")

	yamlContent := "searchPaths:\n  - vendor/diamond\nstdlibPath: ./local-stdlib\nstdlibModules:\n  - std/list\n  - std/option\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "diamond.yaml"), []byte(yamlContent), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, "./local-stdlib", cfg.StdlibPath)
	require.Contains(t, cfg.SearchPaths, "vendor/diamond")
	require.Equal(t, []string{"std/list", "std/option"}, cfg.StdlibModules)
}

func TestLoadToleratesMissingProjectFile(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	require.NoError(t, err)
	require.NotEmpty(t, cfg.SearchPaths)
}
