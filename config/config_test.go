package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/serpent/compiler"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, FileName), `
[project]
name = "demo"

[source]
dirs = ["src", "tools"]
exclude = ["build"]

[parser]
tab-size = 4
max-indents = 20
encoding = "latin-1"
error-mode = "record"

[log]
verbosity = 2
file = "serpent.log"

[lsp]
name = "serpent-dev"

[index]
path = "/var/cache/serpent.db"
`)

	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if c.Project.Name != "demo" {
		t.Errorf("project name = %q, want demo", c.Project.Name)
	}
	if len(c.Source.Dirs) != 2 {
		t.Errorf("source dirs count = %d, want 2", len(c.Source.Dirs))
	}
	if c.Parser.TabSize != 4 || c.Parser.MaxIndents != 20 {
		t.Errorf("parser = %+v, want tab-size 4, max-indents 20", c.Parser)
	}
	if c.Parser.Encoding != "latin-1" {
		t.Errorf("encoding = %q, want latin-1", c.Parser.Encoding)
	}
	if !c.Permissive() {
		t.Error("Permissive() = false for error-mode record")
	}
	if c.Log.Verbosity != 2 {
		t.Errorf("verbosity = %d, want 2", c.Log.Verbosity)
	}
	if got := c.LogPath(); got != filepath.Join(c.Dir, "serpent.log") {
		t.Errorf("LogPath() = %q", got)
	}
	if c.LSP.Name != "serpent-dev" {
		t.Errorf("lsp name = %q, want serpent-dev", c.LSP.Name)
	}
	if c.IndexPath() != "/var/cache/serpent.db" {
		t.Errorf("IndexPath() = %q", c.IndexPath())
	}
	if len(c.ParserOptions()) != 3 {
		t.Errorf("ParserOptions() returned %d options, want 3", len(c.ParserOptions()))
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, FileName), "[project]\nname = \"minimal\"\n")

	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(c.Source.Dirs) != 1 || c.Source.Dirs[0] != "." {
		t.Errorf("default source dirs = %v, want [.]", c.Source.Dirs)
	}
	if c.Parser.TabSize != compiler.DefaultTabSize {
		t.Errorf("default tab-size = %d, want %d", c.Parser.TabSize, compiler.DefaultTabSize)
	}
	if c.Parser.MaxIndents != compiler.MaxIndents {
		t.Errorf("default max-indents = %d, want %d", c.Parser.MaxIndents, compiler.MaxIndents)
	}
	if c.Permissive() {
		t.Error("Permissive() = true by default")
	}
	if c.LogPath() != "" {
		t.Errorf("default LogPath() = %q, want stderr", c.LogPath())
	}
	if c.LSP.Name != "serpent" {
		t.Errorf("default lsp name = %q", c.LSP.Name)
	}
	if c.IndexPath() != filepath.Join(c.Dir, DefaultIndexPath) {
		t.Errorf("default IndexPath() = %q", c.IndexPath())
	}
	if len(c.ParserOptions()) != 2 {
		t.Errorf("ParserOptions() returned %d options, want 2", len(c.ParserOptions()))
	}

	d := Default(dir)
	if d.Parser.TabSize != compiler.DefaultTabSize || d.Parser.ErrorMode != ErrorModeFailFast {
		t.Errorf("Default() = %+v", d.Parser)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"syntax", "[parser\n", "parse error"},
		{"unknown key", "[parser]\ntabsize = 4\n", "unknown keys: parser.tabsize"},
		{"error mode", "[parser]\nerror-mode = \"lenient\"\n", "error-mode must be"},
		{"tab size", "[parser]\ntab-size = -1\n", "tab-size must be positive"},
		{"encoding", "[parser]\nencoding = \"klingon\"\n", "unknown encoding"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, filepath.Join(dir, FileName), tt.content)
			_, err := Load(dir)
			if err == nil {
				t.Fatalf("Load succeeded, want error containing %q", tt.want)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want it to contain %q", err, tt.want)
			}
		})
	}

	if _, err := Load(t.TempDir()); err == nil || !strings.Contains(err.Error(), "cannot read") {
		t.Errorf("Load without a file: error = %v", err)
	}
}

func TestFindAndLoad(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, FileName), "[project]\nname = \"walk\"\n")
	deep := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(deep, 0755); err != nil {
		t.Fatal(err)
	}

	c, err := FindAndLoad(deep)
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if c == nil || c.Project.Name != "walk" {
		t.Fatalf("FindAndLoad = %+v, want the root config", c)
	}
	abs, _ := filepath.Abs(root)
	if c.Dir != abs {
		t.Errorf("Dir = %q, want %q", c.Dir, abs)
	}
}

func TestSourceFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, FileName), `
[source]
dirs = ["src", "src/pkg"]
exclude = ["build", "*_gen.py", "src/skip.py"]
`)
	for _, f := range []string{
		"src/main.py",
		"src/skip.py",
		"src/pkg/util.py",
		"src/pkg/model_gen.py",
		"src/build/out.py",
		"src/README.md",
		"other/ignored.py",
	} {
		writeFile(t, filepath.Join(dir, f), "x = 1\n")
	}

	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	files, err := c.SourceFiles()
	if err != nil {
		t.Fatalf("SourceFiles failed: %v", err)
	}

	var rel []string
	for _, f := range files {
		r, _ := filepath.Rel(c.Dir, f)
		rel = append(rel, filepath.ToSlash(r))
	}
	want := "src/main.py src/pkg/util.py"
	if got := strings.Join(rel, " "); got != want {
		t.Errorf("SourceFiles() = %s, want %s", got, want)
	}
}
