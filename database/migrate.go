package database

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"slices"
	"strings"

	"go.uber.org/zap"
)

// Statements failing with one of these already took effect in an earlier,
// partially recorded run.
var alreadyAppliedErrors = []string{
	"duplicate column name",
	"already exists",
}

// migrate applies every *.sql file of fsys that schema_migrations does not
// list yet, in file name order. Each file runs in its own transaction
// together with its bookkeeping row.
func migrate(ctx context.Context, conn *sql.DB, fsys fs.FS, log *zap.Logger) ([]string, error) {
	if _, err := conn.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		filename   TEXT PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return nil, fmt.Errorf("create schema_migrations: %w", err)
	}

	files, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	slices.Sort(files)

	done, err := recordedMigrations(ctx, conn)
	if err != nil {
		return nil, err
	}

	var applied []string
	for _, name := range files {
		if _, ok := done[name]; ok {
			continue
		}
		body, err := fs.ReadFile(fsys, name)
		if err != nil {
			return applied, fmt.Errorf("read %s: %w", name, err)
		}

		err = WithTx(ctx, conn, func(tx *sql.Tx) error {
			for i, stmt := range splitStatements(string(body)) {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					if !alreadyApplied(err) {
						return fmt.Errorf("%s statement %d: %w", name, i+1, err)
					}
					log.Warn("migration statement skipped", zap.String("file", name), zap.Int("statement", i+1), zap.Error(err))
				}
			}
			_, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (filename) VALUES (?)`, name)
			return err
		})
		if err != nil {
			return applied, err
		}
		log.Info("migration applied", zap.String("file", name))
		applied = append(applied, name)
	}
	return applied, nil
}

func recordedMigrations(ctx context.Context, conn *sql.DB) (map[string]struct{}, error) {
	rows, err := conn.QueryContext(ctx, `SELECT filename FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("query schema_migrations: %w", err)
	}
	defer rows.Close()

	done := make(map[string]struct{})
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		done[name] = struct{}{}
	}
	return done, rows.Err()
}

func alreadyApplied(err error) bool {
	msg := err.Error()
	return slices.ContainsFunc(alreadyAppliedErrors, func(s string) bool {
		return strings.Contains(msg, s)
	})
}

// splitStatements cuts a script at semicolons outside quoted literals.
// "--" and "/* */" comments are dropped; empty statements are skipped.
func splitStatements(script string) []string {
	var (
		out   []string
		buf   strings.Builder
		quote byte // ' or " while inside a literal
	)
	emit := func() {
		if stmt := strings.TrimSpace(buf.String()); stmt != "" {
			out = append(out, stmt)
		}
		buf.Reset()
	}

	for i := 0; i < len(script); i++ {
		c := script[i]
		next := byte(0)
		if i+1 < len(script) {
			next = script[i+1]
		}

		switch {
		case quote != 0:
			buf.WriteByte(c)
			if c == quote {
				if next == quote { // doubled quote escapes itself
					buf.WriteByte(next)
					i++
				} else {
					quote = 0
				}
			}
		case c == '\'' || c == '"':
			quote = c
			buf.WriteByte(c)
		case c == '-' && next == '-':
			for i < len(script) && script[i] != '\n' {
				i++
			}
			buf.WriteByte('\n')
		case c == '/' && next == '*':
			end := strings.Index(script[i+2:], "*/")
			if end < 0 {
				i = len(script)
			} else {
				i += end + 3
			}
			buf.WriteByte(' ')
		case c == ';':
			emit()
		default:
			buf.WriteByte(c)
		}
	}
	emit()
	return out
}
