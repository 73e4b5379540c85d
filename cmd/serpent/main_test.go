package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// run executes the CLI with args and returns stdout, stderr and the error.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config", t.TempDir()}, args...))
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestTokensCommand(t *testing.T) {
	path := writeFile(t, "block.py", "if x:  # test\n    y\n")

	out, _, err := run(t, "tokens", path)
	if err != nil {
		t.Fatalf("tokens: %v", err)
	}
	for _, want := range []string{"KEYWORD", "INDENT", "DEDENT", "EOF"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s:\n%s", want, out)
		}
	}
	if strings.Contains(out, "COMMENT") {
		t.Errorf("comments shown without --hidden:\n%s", out)
	}

	out, _, err = run(t, "tokens", "--hidden", path)
	if err != nil {
		t.Fatalf("tokens --hidden: %v", err)
	}
	if !strings.Contains(out, "COMMENT") {
		t.Errorf("--hidden output missing the comment:\n%s", out)
	}
}

func TestParseCommand(t *testing.T) {
	path := writeFile(t, "ok.py", "x = 1\n")

	out, _, err := run(t, "parse", path)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if strings.TrimSpace(out) != "(Module (Assign (Name x) (Num 1)))" {
		t.Errorf("parse output = %q", out)
	}

	out, _, err = run(t, "parse", "--format", "cbor", path)
	if err != nil {
		t.Fatalf("parse --format cbor: %v", err)
	}
	if len(out) == 0 {
		t.Error("cbor output is empty")
	}

	if _, _, err := run(t, "parse", "--format", "json", path); err == nil {
		t.Error("unknown format accepted")
	}
	if _, _, err := run(t, "parse", "--mode", "exec", path); err == nil {
		t.Error("unknown mode accepted")
	}
}

func TestParseCommandSyntaxError(t *testing.T) {
	path := writeFile(t, "bad.py", "x = 1\ny = = 2\n")

	_, errOut, err := run(t, "parse", path)
	if err == nil {
		t.Fatal("parse of a broken file succeeded")
	}
	for _, want := range []string{
		"  File \"" + path + "\", line 2\n",
		"    y = = 2\n",
		"SyntaxError: invalid syntax",
	} {
		if !strings.Contains(errOut, want) {
			t.Errorf("stderr missing %q:\n%s", want, errOut)
		}
	}

	out, errOut, err := run(t, "parse", "--permissive", path)
	if err != nil {
		t.Fatalf("permissive parse: %v", err)
	}
	if !strings.Contains(errOut, "warning:") {
		t.Errorf("permissive parse printed no warning:\n%s", errOut)
	}
	if !strings.Contains(out, "(Assign (Name x) (Num 1))") {
		t.Errorf("permissive parse lost the good statement:\n%s", out)
	}
}

func TestParseCommandIndentationError(t *testing.T) {
	path := writeFile(t, "indent.py", "if x:\n    a\n  b\n")

	_, errOut, err := run(t, "parse", path)
	if err == nil {
		t.Fatal("parse of a mis-indented file succeeded")
	}
	if !strings.Contains(errOut, "IndentationError: ") {
		t.Errorf("stderr = %s", errOut)
	}
}

func TestHashCommand(t *testing.T) {
	a := writeFile(t, "a.py", "def f(x):\n    return x\n")
	b := writeFile(t, "b.py", "# same code\ndef f(x):\n\n    return x  # again\n")

	out, _, err := run(t, "hash", a, b)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("hash output = %q, want two lines", out)
	}
	sumA := strings.Fields(lines[0])[0]
	sumB := strings.Fields(lines[1])[0]
	if len(sumA) != 64 {
		t.Errorf("digest %q is not hex SHA-256", sumA)
	}
	if sumA != sumB {
		t.Errorf("layout changed the fingerprint: %s vs %s", sumA, sumB)
	}

	out, _, err = run(t, "hash", "--defs", a)
	if err != nil {
		t.Fatalf("hash --defs: %v", err)
	}
	if !strings.Contains(out, a+":f\n") {
		t.Errorf("hash --defs output missing f:\n%s", out)
	}
}

func TestHashCommandUsesConfiguredSources(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "serpent.toml"), []byte("[source]\ndirs = [\"src\"]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "src"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "src", "m.py"), []byte("x = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", dir, "hash"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !strings.HasSuffix(strings.TrimSpace(out.String()), filepath.Join("src", "m.py")) {
		t.Errorf("hash output = %q", out.String())
	}
}

func TestOutlineCommand(t *testing.T) {
	path := writeFile(t, "shapes.py", "LIMIT = 3\n\nclass Shape(object):\n    def area(self):\n        return 0\n")

	out, _, err := run(t, "outline", path)
	if err != nil {
		t.Fatalf("outline: %v", err)
	}
	want := "variable LIMIT  1:0\n" +
		"class    Shape  3:0\n" +
		"  method   area  4:4\n"
	if out != want {
		t.Errorf("outline =\n%s\nwant\n%s", out, want)
	}
}

func TestIndexAndDupsCommands(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	if err := os.MkdirAll(src, 0o755); err != nil {
		t.Fatal(err)
	}
	body := "def helper(x):\n    return x * 2\n"
	for _, name := range []string{"a.py", "b.py"} {
		if err := os.WriteFile(filepath.Join(src, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	db := filepath.Join(dir, "index.db")

	exec := func(args ...string) string {
		t.Helper()
		cmd := newRootCmd()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs(append([]string{"--config", dir}, args...))
		if err := cmd.Execute(); err != nil {
			t.Fatalf("%v: %v", args, err)
		}
		return out.String()
	}

	if got := exec("index", "--db", db); got != "2 files, 2 updated, 0 removed\n" {
		t.Errorf("index = %q", got)
	}
	if got := exec("index", "--db", db); got != "2 files, 0 updated, 0 removed\n" {
		t.Errorf("second index = %q", got)
	}

	out := exec("dups", "--db", db)
	for _, name := range []string{"a.py", "b.py"} {
		want := filepath.Join(src, name) + ":1 function helper\n"
		if !strings.Contains(out, want) {
			t.Errorf("dups missing %q:\n%s", want, out)
		}
	}
}
