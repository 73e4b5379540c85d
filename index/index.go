// Package index keeps a SQLite database of definition fingerprints so
// structurally identical classes and functions can be found across a
// project.
package index

import (
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/tliron/commonlog"
	_ "modernc.org/sqlite"

	"github.com/chazu/serpent/compiler"
	"github.com/chazu/serpent/compiler/hash"
)

var indexLog = commonlog.GetLogger("serpent.index")

// ErrFileNotIndexed indicates the requested file has no entry.
var ErrFileNotIndexed = errors.New("file not indexed")

const schema = `
CREATE TABLE IF NOT EXISTS files (
	path   TEXT PRIMARY KEY,
	digest TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS definitions (
	file      TEXT NOT NULL REFERENCES files(path) ON DELETE CASCADE,
	qualified TEXT NOT NULL,
	kind      TEXT NOT NULL,
	line      INTEGER NOT NULL,
	digest    TEXT NOT NULL,
	PRIMARY KEY (file, qualified)
);
CREATE INDEX IF NOT EXISTS definitions_digest ON definitions(digest);
`

// Definition is one indexed class or function.
type Definition struct {
	File      string
	Qualified string
	Kind      compiler.OutlineKind
	Line      int
	Digest    string
}

// Index is a definition fingerprint database.
type Index struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// Open opens or creates the database at path.
func Open(path string) (*Index, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening index %s: %w", path, err)
	}
	// Pragmas are per connection.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{"PRAGMA busy_timeout = 5000", "PRAGMA foreign_keys = ON"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("configuring index: %w", err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating index tables: %w", err)
	}
	indexLog.Debugf("opened index %s", path)
	return &Index{db: db, path: path}, nil
}

// Close closes the database.
func (ix *Index) Close() error {
	if ix.db != nil {
		return ix.db.Close()
	}
	return nil
}

// Update records the fingerprints of file's tree and its definitions. It
// reports false, leaving the rows alone, when the file's fingerprint is
// unchanged.
func (ix *Index) Update(file string, tree *compiler.Tree) (bool, error) {
	sum, err := hash.HashTree(tree)
	if err != nil {
		return false, fmt.Errorf("hashing %s: %w", file, err)
	}
	digest := hex.EncodeToString(sum[:])

	if old, err := ix.FileDigest(file); err == nil && old == digest {
		return false, nil
	} else if err != nil && !errors.Is(err, ErrFileNotIndexed) {
		return false, err
	}

	var defs []Definition
	for _, e := range compiler.Flatten(compiler.Outline(tree)) {
		if e.Kind == compiler.OutlineVariable {
			continue
		}
		sum, err := hash.HashNode(tree, e.Node)
		if err != nil {
			return false, fmt.Errorf("hashing %s in %s: %w", e.Qualified, file, err)
		}
		defs = append(defs, Definition{
			File:      file,
			Qualified: e.Qualified,
			Kind:      e.Kind,
			Line:      e.Line,
			Digest:    hex.EncodeToString(sum[:]),
		})
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	tx, err := ix.db.Begin()
	if err != nil {
		return false, fmt.Errorf("updating %s: %w", file, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM definitions WHERE file = ?", file); err != nil {
		return false, fmt.Errorf("clearing %s: %w", file, err)
	}
	if _, err := tx.Exec("INSERT OR REPLACE INTO files (path, digest) VALUES (?, ?)", file, digest); err != nil {
		return false, fmt.Errorf("saving %s: %w", file, err)
	}
	for _, d := range defs {
		_, err := tx.Exec(
			"INSERT OR REPLACE INTO definitions (file, qualified, kind, line, digest) VALUES (?, ?, ?, ?, ?)",
			d.File, d.Qualified, string(d.Kind), d.Line, d.Digest,
		)
		if err != nil {
			return false, fmt.Errorf("saving %s in %s: %w", d.Qualified, file, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("updating %s: %w", file, err)
	}

	indexLog.Debugf("indexed %s: %d definitions", file, len(defs))
	return true, nil
}

// FileDigest returns the recorded fingerprint of file.
func (ix *Index) FileDigest(file string) (string, error) {
	var digest string
	err := ix.db.QueryRow("SELECT digest FROM files WHERE path = ?", file).Scan(&digest)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrFileNotIndexed
	} else if err != nil {
		return "", fmt.Errorf("querying %s: %w", file, err)
	}
	return digest, nil
}

// Prune removes every file not in keep and returns how many were removed.
func (ix *Index) Prune(keep []string) (int, error) {
	wanted := make(map[string]bool, len(keep))
	for _, f := range keep {
		wanted[f] = true
	}

	rows, err := ix.db.Query("SELECT path FROM files")
	if err != nil {
		return 0, fmt.Errorf("listing indexed files: %w", err)
	}
	var stale []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			rows.Close()
			return 0, err
		}
		if !wanted[path] {
			stale = append(stale, path)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	for _, path := range stale {
		if _, err := ix.db.Exec("DELETE FROM definitions WHERE file = ?", path); err != nil {
			return 0, fmt.Errorf("removing %s: %w", path, err)
		}
		if _, err := ix.db.Exec("DELETE FROM files WHERE path = ?", path); err != nil {
			return 0, fmt.Errorf("removing %s: %w", path, err)
		}
		indexLog.Debugf("pruned %s", path)
	}
	return len(stale), nil
}

// Lookup returns the definitions whose fingerprint is digest.
func (ix *Index) Lookup(digest string) ([]Definition, error) {
	return ix.query(
		"SELECT file, qualified, kind, line, digest FROM definitions WHERE digest = ? ORDER BY file, qualified",
		digest,
	)
}

// Duplicates groups definitions that share a fingerprint. Groups are
// ordered by digest, members by file and name.
func (ix *Index) Duplicates() ([][]Definition, error) {
	defs, err := ix.query(`SELECT file, qualified, kind, line, digest FROM definitions
		WHERE digest IN (SELECT digest FROM definitions GROUP BY digest HAVING COUNT(*) > 1)
		ORDER BY digest, file, qualified`)
	if err != nil {
		return nil, err
	}
	var groups [][]Definition
	for i, d := range defs {
		if i == 0 || defs[i-1].Digest != d.Digest {
			groups = append(groups, nil)
		}
		groups[len(groups)-1] = append(groups[len(groups)-1], d)
	}
	return groups, nil
}

func (ix *Index) query(q string, args ...any) ([]Definition, error) {
	rows, err := ix.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying definitions: %w", err)
	}
	defer rows.Close()

	var defs []Definition
	for rows.Next() {
		var d Definition
		var kind string
		if err := rows.Scan(&d.File, &d.Qualified, &kind, &d.Line, &d.Digest); err != nil {
			return nil, fmt.Errorf("reading definition: %w", err)
		}
		d.Kind = compiler.OutlineKind(kind)
		defs = append(defs, d)
	}
	return defs, rows.Err()
}
