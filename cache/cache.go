// Package cache stores compiled graph output in SQLite so unchanged graphs
// skip recompilation.
package cache

import (
	"crypto/sha256"
	"database/sql"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/gogpu/shadergraph/compiler"
	"github.com/gogpu/shadergraph/graph"
)

//go:embed schema.sql
var schema string

// DB wraps the SQLite connection.
type DB struct {
	conn *sql.DB
}

// Open opens or creates the cache database at path.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("cache schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Key identifies the output of compiling g with engine: its name, its
// preserve set and the graph. Hooks are not part of the key, so engines
// with different hooks need different names.
func Key(g *graph.Graph, engine *compiler.Engine) (string, error) {
	hash, err := graph.Hash(g)
	if err != nil {
		return "", err
	}
	preserve := slices.Clone(engine.Preserve)
	slices.Sort(preserve)
	preserve = slices.Compact(preserve)
	sum := sha256.Sum256([]byte(hash + "\n" + strings.Join(preserve, ",")))
	return engine.Name + ":" + hex.EncodeToString(sum[:]), nil
}

// Get returns the cached result for key. The boolean is false on a miss.
func (db *DB) Get(key string) (*compiler.SourceResult, bool, error) {
	var text string
	err := db.conn.QueryRow("SELECT result FROM results WHERE key = ?", key).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var res compiler.SourceResult
	if err := json.Unmarshal([]byte(text), &res); err != nil {
		return nil, false, fmt.Errorf("cache entry %s: %w", key, err)
	}
	return &res, true, nil
}

// Put stores res under key, replacing an earlier entry.
func (db *DB) Put(key, engine string, res *compiler.SourceResult) error {
	data, err := json.Marshal(res)
	if err != nil {
		return err
	}
	_, err = db.conn.Exec(
		"INSERT OR REPLACE INTO results (key, engine, result, created_at) VALUES (?, ?, ?, ?)",
		key, engine, string(data), time.Now().Unix(),
	)
	return err
}

// Prune deletes entries older than age and returns how many were removed.
func (db *DB) Prune(age time.Duration) (int64, error) {
	res, err := db.conn.Exec("DELETE FROM results WHERE created_at < ?", time.Now().Add(-age).Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Len returns the number of cached results.
func (db *DB) Len() (int64, error) {
	var n int64
	err := db.conn.QueryRow("SELECT COUNT(*) FROM results").Scan(&n)
	return n, err
}
