// Package config handles serpent.toml project configuration.
package config

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/chazu/serpent/compiler"
)

// FileName is the name of the configuration file.
const FileName = "serpent.toml"

// Error modes for [parser] error-mode.
const (
	ErrorModeFailFast = "fail-fast"
	ErrorModeRecord   = "record"
)

// Config represents a serpent.toml project configuration.
type Config struct {
	Project Project `toml:"project"`
	Source  Source  `toml:"source"`
	Parser  Parser  `toml:"parser"`
	Log     Log     `toml:"log"`
	LSP     LSP     `toml:"lsp"`
	Index   Index   `toml:"index"`

	// Dir is the directory containing the serpent.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name string `toml:"name"`
}

// Source configures where Python sources live.
type Source struct {
	Dirs    []string `toml:"dirs"`
	Exclude []string `toml:"exclude"`
}

// Parser configures the front end.
type Parser struct {
	TabSize    int    `toml:"tab-size"`
	MaxIndents int    `toml:"max-indents"`
	Encoding   string `toml:"encoding"`
	ErrorMode  string `toml:"error-mode"`
}

// Log configures commonlog.
type Log struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// LSP configures the language server.
type LSP struct {
	Name string `toml:"name"`
}

// Index configures the definition fingerprint database.
type Index struct {
	Path string `toml:"path"`
}

// DefaultIndexPath is where the index lives when [index] path is unset.
const DefaultIndexPath = ".serpent/index.db"

// Default returns the configuration used when no serpent.toml exists.
func Default(dir string) *Config {
	c := &Config{Dir: dir}
	c.applyDefaults()
	return c
}

// Load parses a serpent.toml file from the given directory.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var c Config
	md, err := toml.Decode(string(data), &c)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	c.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	c.applyDefaults()
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &c, nil
}

// FindAndLoad walks up from startDir to find a serpent.toml file,
// then loads and returns the configuration. Returns nil if no file is found.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, nil
		}
		dir = parent
	}
}

func (c *Config) applyDefaults() {
	if len(c.Source.Dirs) == 0 {
		c.Source.Dirs = []string{"."}
	}
	if c.Parser.TabSize == 0 {
		c.Parser.TabSize = compiler.DefaultTabSize
	}
	if c.Parser.MaxIndents == 0 {
		c.Parser.MaxIndents = compiler.MaxIndents
	}
	if c.Parser.ErrorMode == "" {
		c.Parser.ErrorMode = ErrorModeFailFast
	}
	if c.LSP.Name == "" {
		c.LSP.Name = "serpent"
	}
	if c.Index.Path == "" {
		c.Index.Path = DefaultIndexPath
	}
}

func (c *Config) validate() error {
	switch c.Parser.ErrorMode {
	case ErrorModeFailFast, ErrorModeRecord:
	default:
		return fmt.Errorf("parser error-mode must be %q or %q, not %q",
			ErrorModeFailFast, ErrorModeRecord, c.Parser.ErrorMode)
	}
	if c.Parser.TabSize < 1 {
		return fmt.Errorf("parser tab-size must be positive, not %d", c.Parser.TabSize)
	}
	if c.Parser.MaxIndents < 1 {
		return fmt.Errorf("parser max-indents must be positive, not %d", c.Parser.MaxIndents)
	}
	if c.Parser.Encoding != "" {
		if _, err := compiler.DecodeSource(strings.NewReader(""), c.Parser.Encoding); err != nil {
			return fmt.Errorf("parser encoding: %w", err)
		}
	}
	return nil
}

// Permissive reports whether parses should record errors and continue.
func (c *Config) Permissive() bool {
	return c.Parser.ErrorMode == ErrorModeRecord
}

// ParserOptions maps the [parser] section to compiler options. The error
// handler is left to the caller.
func (c *Config) ParserOptions() []compiler.Option {
	opts := []compiler.Option{
		compiler.WithTabSize(c.Parser.TabSize),
		compiler.WithMaxIndents(c.Parser.MaxIndents),
	}
	if c.Parser.Encoding != "" {
		opts = append(opts, compiler.WithEncoding(c.Parser.Encoding))
	}
	return opts
}

// SourceDirPaths returns absolute paths for the configured source directories.
func (c *Config) SourceDirPaths() []string {
	var paths []string
	for _, d := range c.Source.Dirs {
		paths = append(paths, filepath.Join(c.Dir, d))
	}
	return paths
}

// LogPath returns the configured log file, relative to Dir, or "" for stderr.
func (c *Config) LogPath() string {
	if c.Log.File == "" || filepath.IsAbs(c.Log.File) {
		return c.Log.File
	}
	return filepath.Join(c.Dir, c.Log.File)
}

// IndexPath returns the index database path, relative to Dir.
func (c *Config) IndexPath() string {
	if filepath.IsAbs(c.Index.Path) {
		return c.Index.Path
	}
	return filepath.Join(c.Dir, c.Index.Path)
}

// SourceFiles lists the .py files under the source directories, sorted.
// Paths matching an exclude pattern, by base name or by path relative to
// Dir, are skipped along with anything below them.
func (c *Config) SourceFiles() ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	for _, root := range c.SourceDirPaths() {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if path != root && c.excluded(path) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() || filepath.Ext(path) != ".py" || seen[path] {
				return nil
			}
			seen[path] = true
			files = append(files, path)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("cannot list sources in %s: %w", root, err)
		}
	}
	sort.Strings(files)
	return files, nil
}

func (c *Config) excluded(path string) bool {
	rel, err := filepath.Rel(c.Dir, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)
	base := filepath.Base(path)
	for _, pattern := range c.Source.Exclude {
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}
		if ok, _ := filepath.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}
