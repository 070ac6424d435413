package editlog

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	_ "modernc.org/sqlite"

	"tileplanet/internal/registry"
	"tileplanet/internal/sim/world"
)

// Log is the durable journal of manual tile edits. Together with the
// seed it fully determines world contents, so it is written
// synchronously: an acknowledged edit must survive a crash.
type Log struct {
	db *sql.DB
}

// Meta captured alongside the journal. A journal only replays onto a
// world generated with identical parameters.
type Meta struct {
	Seed        int64
	WidthTiles  int
	HeightTiles int
	ChunkSize   int
	PlanetType  string
}

func metaFromConfig(cfg *world.Config) Meta {
	return Meta{
		Seed:        cfg.Seed,
		WidthTiles:  cfg.WidthTiles,
		HeightTiles: cfg.HeightTiles,
		ChunkSize:   cfg.ChunkSize,
		PlanetType:  cfg.PlanetType,
	}
}

func Open(path string, cfg *world.Config) (*Log, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	l := &Log{db: db}
	if err := l.checkMeta(metaFromConfig(cfg)); err != nil {
		_ = db.Close()
		return nil, err
	}
	return l, nil
}

func initPragmas(db *sql.DB) error {
	// WAL is much faster for append-style workloads.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS edits (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			layer INTEGER NOT NULL,
			tile INTEGER NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// checkMeta stamps a fresh journal with the world parameters, or verifies
// them on reopen. Replaying edits onto a differently generated world
// would silently corrupt it.
func (l *Log) checkMeta(want Meta) error {
	stored, ok, err := l.readMeta()
	if err != nil {
		return err
	}
	if !ok {
		return l.writeMeta(want)
	}
	if stored != want {
		return fmt.Errorf("edit log parameter mismatch: journal %+v, world %+v", stored, want)
	}
	return nil
}

func (l *Log) readMeta() (Meta, bool, error) {
	rows, err := l.db.Query(`SELECT key, value FROM meta`)
	if err != nil {
		return Meta{}, false, err
	}
	defer rows.Close()

	vals := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return Meta{}, false, err
		}
		vals[k] = v
	}
	if err := rows.Err(); err != nil {
		return Meta{}, false, err
	}
	if len(vals) == 0 {
		return Meta{}, false, nil
	}

	var m Meta
	m.Seed, _ = strconv.ParseInt(vals["seed"], 10, 64)
	m.WidthTiles, _ = strconv.Atoi(vals["width_tiles"])
	m.HeightTiles, _ = strconv.Atoi(vals["height_tiles"])
	m.ChunkSize, _ = strconv.Atoi(vals["chunk_size"])
	m.PlanetType = vals["planet_type"]
	return m, true, nil
}

func (l *Log) writeMeta(m Meta) error {
	pairs := map[string]string{
		"seed":         strconv.FormatInt(m.Seed, 10),
		"width_tiles":  strconv.Itoa(m.WidthTiles),
		"height_tiles": strconv.Itoa(m.HeightTiles),
		"chunk_size":   strconv.Itoa(m.ChunkSize),
		"planet_type":  m.PlanetType,
	}
	for k, v := range pairs {
		if _, err := l.db.Exec(`INSERT OR REPLACE INTO meta(key, value) VALUES(?, ?)`, k, v); err != nil {
			return err
		}
	}
	return nil
}

func (l *Log) Append(d world.EditDelta) error {
	_, err := l.db.Exec(`INSERT INTO edits(x, y, layer, tile) VALUES(?, ?, ?, ?)`,
		d.X, d.Y, int(d.Layer), int(d.Tile))
	return err
}

// Edits returns all journaled deltas in append order.
func (l *Log) Edits() ([]world.EditDelta, error) {
	rows, err := l.db.Query(`SELECT x, y, layer, tile FROM edits ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []world.EditDelta
	for rows.Next() {
		var x, y, layer, tile int
		if err := rows.Scan(&x, &y, &layer, &tile); err != nil {
			return nil, err
		}
		out = append(out, world.EditDelta{
			X:     x,
			Y:     y,
			Layer: world.Layer(layer),
			Tile:  registry.TileID(tile),
		})
	}
	return out, rows.Err()
}

func (l *Log) Close() error {
	return l.db.Close()
}
