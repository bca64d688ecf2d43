package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/graphshift/pkg/errors"
	"github.com/matzehuels/graphshift/pkg/format"
)

func newTestCLI(t *testing.T) *CLI {
	t.Helper()
	// Keep the test away from the developer's real config and cache.
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	return New(io.Discard, LogInfo)
}

func TestRootCommand_RegistersSubcommands(t *testing.T) {
	root := newTestCLI(t).RootCommand()

	want := []string{"convert", "render", "watch", "serve", "completion"}
	for _, name := range want {
		found := false
		for _, sub := range root.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("root command is missing subcommand %q", name)
		}
	}
}

func TestConvertCommand_FileToStdout(t *testing.T) {
	c := newTestCLI(t)

	dir := t.TempDir()
	input := filepath.Join(dir, "plan.seq")
	if err := os.WriteFile(input, []byte("Sequence { q0, Parallel { q1, q2 }, q3 }"), 0644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	root := c.RootCommand()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"convert", input, "--to", "dot", "--no-cache"})

	if err := root.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	for _, stmt := range []string{"digraph", "q0 -> q1;", "q2 -> q3;"} {
		if !strings.Contains(out.String(), stmt) {
			t.Errorf("output missing %q:\n%s", stmt, out.String())
		}
	}
}

func TestConvertCommand_OutputExtensionInfersTarget(t *testing.T) {
	c := newTestCLI(t)

	dir := t.TempDir()
	input := filepath.Join(dir, "plan.dot")
	output := filepath.Join(dir, "plan.mmd")
	if err := os.WriteFile(input, []byte("digraph G {\n  a -> b;\n}"), 0644); err != nil {
		t.Fatal(err)
	}

	root := c.RootCommand()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"convert", input, "-o", output, "--no-cache"})

	if err := root.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.HasPrefix(string(data), "flowchart TD") {
		t.Errorf("output = %q, want flowchart text", data)
	}
}

func TestConvertCommand_UnknownTarget(t *testing.T) {
	c := newTestCLI(t)

	dir := t.TempDir()
	input := filepath.Join(dir, "plan.seq")
	if err := os.WriteFile(input, []byte("Sequence { a, b }"), 0644); err != nil {
		t.Fatal(err)
	}

	root := c.RootCommand()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"convert", input, "--to", "yaml"})

	if err := root.Execute(); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("Execute() error = %v, want INVALID_FORMAT", err)
	}
}

func TestSourceFormat(t *testing.T) {
	tests := []struct {
		path    string
		from    string
		want    format.Format
		wantErr bool
	}{
		{"plan.seq", "", format.TaskSeq, false},
		{"plan.dot", "", format.DOT, false},
		{"plan.gv", "", format.DOT, false},
		{"plan.mmd", "", format.Mermaid, false},
		{"plan.txt", "mermaid", format.Mermaid, false},
		{"plan.txt", "", "", true},
	}

	for _, tt := range tests {
		got, err := sourceFormat(tt.path, tt.from)
		if tt.wantErr {
			if err == nil {
				t.Errorf("sourceFormat(%q, %q) = %s, want error", tt.path, tt.from, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("sourceFormat(%q, %q): %v", tt.path, tt.from, err)
			continue
		}
		if got != tt.want {
			t.Errorf("sourceFormat(%q, %q) = %s, want %s", tt.path, tt.from, got, tt.want)
		}
	}
}

func TestResolveTarget(t *testing.T) {
	if got, err := resolveTarget("dot", ""); err != nil || got != format.DOT {
		t.Errorf("resolveTarget(dot, ) = %s, %v", got, err)
	}
	if got, err := resolveTarget("", "out.mmd"); err != nil || got != format.Mermaid {
		t.Errorf("resolveTarget(, out.mmd) = %s, %v", got, err)
	}
	if _, err := resolveTarget("", ""); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("resolveTarget(, ) error = %v, want INVALID_INPUT", err)
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
graph_name = "Nightly"
orientation = "LR"

[cache]
backend = "redis"
redis_addr = "cache.internal:6379"

[store]
mongo_uri = "mongodb://localhost:27017"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.GraphName != "Nightly" {
		t.Errorf("GraphName = %q, want Nightly", cfg.GraphName)
	}
	if cfg.Orientation != "LR" {
		t.Errorf("Orientation = %q, want LR", cfg.Orientation)
	}
	if cfg.Cache.Backend != CacheBackendRedis {
		t.Errorf("Cache.Backend = %q, want redis", cfg.Cache.Backend)
	}
	if cfg.Cache.RedisAddr != "cache.internal:6379" {
		t.Errorf("Cache.RedisAddr = %q", cfg.Cache.RedisAddr)
	}
	// Unset sections keep their defaults.
	if cfg.Render.Format != "svg" {
		t.Errorf("Render.Format = %q, want svg", cfg.Render.Format)
	}
	if cfg.Store.MongoDB != "graphshift" {
		t.Errorf("Store.MongoDB = %q, want graphshift", cfg.Store.MongoDB)
	}
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Cache.Backend != CacheBackendFile {
		t.Errorf("Cache.Backend = %q, want file", cfg.Cache.Backend)
	}
	if cfg.Orientation != "TD" {
		t.Errorf("Orientation = %q, want TD", cfg.Orientation)
	}
}

func TestLoadConfig_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("orientation = ["), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("LoadConfig(malformed) = nil, want error")
	}
}

func TestPaths_XDGOverrides(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg-cache")
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")

	if dir, err := cacheDir(); err != nil || dir != "/tmp/xdg-cache/graphshift" {
		t.Errorf("cacheDir() = %q, %v", dir, err)
	}
	if dir, err := configDir(); err != nil || dir != "/tmp/xdg-config/graphshift" {
		t.Errorf("configDir() = %q, %v", dir, err)
	}
}

func TestWordwrap(t *testing.T) {
	got := wordwrap("alpha beta gamma delta", 11)
	want := "alpha beta\ngamma delta"
	if got != want {
		t.Errorf("wordwrap() = %q, want %q", got, want)
	}
}
