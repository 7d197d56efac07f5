// Package database opens the SQLite connection and applies the embedded
// schema migrations.
//
// The pure-Go modernc driver is used so the binary builds without CGO.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// DB wraps the connection pool. *sql.DB is safe for concurrent use.
type DB struct {
	Conn *sql.DB
	// Applied lists the migration files this New call applied.
	Applied []string
	log     *zap.Logger
}

// New opens (creating if needed) the SQLite file at dbPath and applies every
// pending migration found in migrationsFS.
func New(dbPath string, migrationsFS fs.FS, logger *zap.Logger) (*DB, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// foreign_keys is off by default in SQLite; WAL lets readers run while
	// a writer holds the lock. _time_format=sqlite stores time.Time values
	// as "YYYY-MM-DD HH:MM:SS+00:00" so UTC timestamps compare as text.
	conn, err := sql.Open("sqlite", dbPath+
		"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_time_format=sqlite")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{Conn: conn, log: logger.Named("database")}

	applied, err := migrate(context.Background(), conn, migrationsFS, db.log)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	db.Applied = applied

	db.log.Info("database ready", zap.String("path", dbPath), zap.Int("migrations_applied", len(applied)))
	return db, nil
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.Conn.Close()
}
