package rampcache

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteCache is the optional database-backed ramp cache described in
// spec.md §9 Design Notes. It persists generated profiles across runs so
// a repeated (variant, v, a, mode) combination never re-pays the
// generation cost, mirroring the source's ramp_profiles collection
// (see original_source/db_conn.py and original_source/timings.py)
// without carrying over Mongo/Postgres: a local SQLite file is the right
// scale for a single-machine CNC controller.
type SQLiteCache struct {
	db *sql.DB
}

// NewSQLiteCache opens (creating if necessary) a SQLite-backed ramp cache.
func NewSQLiteCache(path string) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("rampcache: open %s: %w", path, err)
	}
	schema := `
	CREATE TABLE IF NOT EXISTS ramp_profiles (
		key TEXT PRIMARY KEY,
		intervals TEXT NOT NULL
	);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("rampcache: schema: %w", err)
	}
	return &SQLiteCache{db: db}, nil
}

func (c *SQLiteCache) Get(k Key) ([]float64, bool) {
	var data string
	err := c.db.QueryRow(`SELECT intervals FROM ramp_profiles WHERE key = ?`, k.string()).Scan(&data)
	if err != nil {
		return nil, false
	}
	var intervals []float64
	if err := json.Unmarshal([]byte(data), &intervals); err != nil {
		return nil, false
	}
	return intervals, true
}

func (c *SQLiteCache) Put(k Key, intervals []float64) {
	data, err := json.Marshal(intervals)
	if err != nil {
		return
	}
	_, _ = c.db.Exec(
		`INSERT INTO ramp_profiles (key, intervals) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET intervals = excluded.intervals`,
		k.string(), string(data),
	)
}

func (c *SQLiteCache) Close() error {
	return c.db.Close()
}
