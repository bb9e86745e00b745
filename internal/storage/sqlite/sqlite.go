package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

type DB struct {
	SQL *sql.DB
}

func Open(path string) (*DB, error) {
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	s, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	s.SetMaxOpenConns(1)
	if err := migrate(context.Background(), s); err != nil {
		s.Close()
		return nil, fmt.Errorf("sqlite: migrate: %w", err)
	}
	return &DB{SQL: s}, nil
}

func (d *DB) Close() error { return d.SQL.Close() }

func (d *DB) Ping(ctx context.Context) error { return d.SQL.PingContext(ctx) }

func migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`PRAGMA foreign_keys = ON;`,
		`CREATE TABLE IF NOT EXISTS projects (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			chat_id INTEGER UNIQUE NOT NULL,
			created_at DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS assignees (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			handle TEXT NOT NULL UNIQUE COLLATE NOCASE,
			created_at DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS duties (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			project_id INTEGER NOT NULL REFERENCES projects(id),
			start_date TEXT NOT NULL,
			end_date TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			CHECK (start_date <= end_date)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_duties_project_end ON duties(project_id, end_date);`,
		`CREATE TABLE IF NOT EXISTS duty_assignees (
			duty_id INTEGER NOT NULL REFERENCES duties(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			assignee_id INTEGER NOT NULL REFERENCES assignees(id),
			PRIMARY KEY (duty_id, position)
		);`,
		`CREATE TABLE IF NOT EXISTS sessions (
			user_id INTEGER PRIMARY KEY,
			stage TEXT NOT NULL,
			payload TEXT,
			updated_at INTEGER NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

func Now() time.Time {
	return time.Now().In(time.Local)
}
