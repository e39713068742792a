package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nalgeon/be"

	"fuco/pkg/vm"
)

func TestParse(t *testing.T) {
	data := []byte(`
sources:
  - lib.fc
  - main.fc
prelude: false
stack_size: 4096
max_steps: 1000
color: never
`)
	cfg, err := Parse(data, "/project/fuco.yaml")
	be.Err(t, err, nil)
	be.Equal(t, cfg.Sources, []string{"lib.fc", "main.fc"})
	be.True(t, !cfg.UsePrelude())
	be.Equal(t, cfg.VMOptions(), vm.Options{StackSize: 4096, MaxSteps: 1000})
	be.Equal(t, cfg.Color, "never")

	paths, err := cfg.SourcePaths()
	be.Err(t, err, nil)
	be.Equal(t, paths, []string{
		filepath.Join("/project", "lib.fc"),
		filepath.Join("/project", "main.fc"),
	})
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]byte("sources: [main.fc]\n"), "fuco.yaml")
	be.Err(t, err, nil)
	be.True(t, cfg.UsePrelude())
	be.Equal(t, cfg.StackSize, vm.DefaultStackSize)
	be.Equal(t, cfg.MaxSteps, int64(0))
	be.Equal(t, cfg.Color, "auto")
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"no sources", "prelude: true\n", "no sources defined"},
		{"empty source", "sources: ['']\n", "sources[0] is empty"},
		{"duplicate source", "sources: [a.fc, b.fc, a.fc]\n", "sources[2]: a.fc listed twice"},
		{"negative stack", "sources: [a.fc]\nstack_size: -1\n", "stack_size must not be negative"},
		{"negative steps", "sources: [a.fc]\nmax_steps: -5\n", "max_steps must not be negative"},
		{"bad color", "sources: [a.fc]\ncolor: sometimes\n", "sometimes"},
		{"bad yaml", "sources: [a.fc\n", "parsing fuco.yaml"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml), "fuco.yaml")
			be.True(t, err != nil)
			be.True(t, strings.Contains(err.Error(), tc.want))
		})
	}
}

func TestLoadAndFind(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "src", "deep")
	be.Err(t, os.MkdirAll(nested, 0o755), nil)
	path := filepath.Join(root, FileName)
	be.Err(t, os.WriteFile(path, []byte("sources: [src/main.fc]\n"), 0o644), nil)

	found, err := FindConfig(nested)
	be.Err(t, err, nil)
	be.Equal(t, found, path)

	cfg, err := Load(found)
	be.Err(t, err, nil)
	paths, err := cfg.SourcePaths()
	be.Err(t, err, nil)
	be.Equal(t, paths, []string{filepath.Join(root, "src", "main.fc")})

	_, err = Load(filepath.Join(root, "missing.yaml"))
	be.True(t, err != nil)
}
