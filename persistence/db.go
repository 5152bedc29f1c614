// Package persistence stores the sidecar memory in SQLite so a restarted
// process picks up where it left off.
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nstehr/warren/warren-core/memory"
)

// DB is a memory.Store backed by SQLite.
type DB struct {
	conn *sqlx.DB
}

var _ memory.Store = (*DB)(nil)

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// SQLite allows a single writer.
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS unit_memory (
		player TEXT NOT NULL,
		name TEXT NOT NULL,
		role TEXT NOT NULL,
		home TEXT NOT NULL,
		retire_reason TEXT,
		data TEXT NOT NULL,
		PRIMARY KEY (player, name)
	);

	CREATE TABLE IF NOT EXISTS colony_memory (
		player TEXT NOT NULL,
		name TEXT NOT NULL,
		data TEXT NOT NULL,
		PRIMARY KEY (player, name)
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_unit_memory_home ON unit_memory(player, home);
	`
	_, err := db.conn.Exec(schema)
	return err
}

type unitRow struct {
	Player       string         `db:"player"`
	Name         string         `db:"name"`
	Role         string         `db:"role"`
	Home         string         `db:"home"`
	RetireReason sql.NullString `db:"retire_reason"`
	Data         string         `db:"data"`
}

type colonyRow struct {
	Name string `db:"name"`
	Data string `db:"data"`
}

// lastTickKey is the world_meta key holding a player's last saved tick.
func lastTickKey(player string) string { return "last_tick:" + player }

// Save replaces everything stored for player with b.
func (db *DB) Save(ctx context.Context, player string, b *memory.Book) error {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM unit_memory WHERE player = ?", player); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM colony_memory WHERE player = ?", player); err != nil {
		return err
	}

	for name, u := range b.Units {
		data, err := json.Marshal(u)
		if err != nil {
			return fmt.Errorf("encode unit %s: %w", name, err)
		}
		row := unitRow{Player: player, Name: name, Role: u.Role, Home: u.Home, Data: string(data)}
		if u.Retire != nil {
			row.RetireReason = sql.NullString{String: string(u.Retire.Reason), Valid: true}
		}
		if _, err := tx.NamedExecContext(ctx, `INSERT INTO unit_memory
			(player, name, role, home, retire_reason, data)
			VALUES (:player, :name, :role, :home, :retire_reason, :data)`, row); err != nil {
			return fmt.Errorf("insert unit %s: %w", name, err)
		}
	}

	for name, c := range b.Colonies {
		data, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("encode colony %s: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO colony_memory (player, name, data) VALUES (?, ?, ?)", player, name, string(data)); err != nil {
			return fmt.Errorf("insert colony %s: %w", name, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		lastTickKey(player), strconv.Itoa(b.Tick)); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}
	return tx.Commit()
}

// Load reads the last book saved for player. A player with nothing saved
// gets an empty book.
func (db *DB) Load(ctx context.Context, player string) (*memory.Book, error) {
	b := memory.NewBook()

	var units []unitRow
	if err := db.conn.SelectContext(ctx, &units,
		"SELECT player, name, role, home, retire_reason, data FROM unit_memory WHERE player = ?", player); err != nil {
		return nil, fmt.Errorf("load units: %w", err)
	}
	for _, row := range units {
		u := &memory.Unit{}
		if err := json.Unmarshal([]byte(row.Data), u); err != nil {
			return nil, fmt.Errorf("decode unit %s: %w", row.Name, err)
		}
		b.Units[row.Name] = u
	}

	var colonies []colonyRow
	if err := db.conn.SelectContext(ctx, &colonies,
		"SELECT name, data FROM colony_memory WHERE player = ?", player); err != nil {
		return nil, fmt.Errorf("load colonies: %w", err)
	}
	for _, row := range colonies {
		c := &memory.Colony{}
		if err := json.Unmarshal([]byte(row.Data), c); err != nil {
			return nil, fmt.Errorf("decode colony %s: %w", row.Name, err)
		}
		b.Colonies[row.Name] = c
	}

	tick, err := db.GetMeta(ctx, lastTickKey(player))
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, fmt.Errorf("load meta: %w", err)
	default:
		if b.Tick, err = strconv.Atoi(tick); err != nil {
			return nil, fmt.Errorf("last_tick %q: %w", tick, err)
		}
	}

	slog.Info("memory loaded", "player", player, "units", len(b.Units), "colonies", len(b.Colonies), "tick", b.Tick)
	return b, nil
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(ctx context.Context, key string) (string, error) {
	var value string
	err := db.conn.GetContext(ctx, &value, "SELECT value FROM world_meta WHERE key = ?", key)
	return value, err
}
