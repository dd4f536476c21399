package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Postgres stores the roster, attendance and accounts in Postgres using pgx.
type Postgres struct {
	db *sql.DB
}

// NewPostgres opens a pool with sane defaults, pings it and applies the schema.
func NewPostgres(ctx context.Context, connString string) (*Postgres, error) {
	db, err := sql.Open("pgx", connString)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	p := &Postgres{db: db}
	if err := p.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return p, nil
}

// Uniqueness lives in the schema: roll numbers, (roll number, date) and usernames.
const schema = `
CREATE TABLE IF NOT EXISTS students (
	id          UUID PRIMARY KEY,
	s_no        INTEGER NOT NULL,
	roll_number TEXT NOT NULL UNIQUE,
	name        TEXT NOT NULL,
	branch      TEXT NOT NULL,
	year        INTEGER NOT NULL,
	contact     TEXT
);
CREATE INDEX IF NOT EXISTS idx_students_branch_year ON students (branch, year);

CREATE TABLE IF NOT EXISTS attendance (
	id                  UUID PRIMARY KEY,
	student_roll_number TEXT NOT NULL,
	date                TIMESTAMPTZ NOT NULL,
	branch              TEXT NOT NULL,
	year                INTEGER NOT NULL,
	status              TEXT NOT NULL CHECK (status IN ('Present', 'Absent')),
	marked_by           TEXT NOT NULL,
	created_at          TIMESTAMPTZ NOT NULL,
	updated_at          TIMESTAMPTZ NOT NULL,
	UNIQUE (student_roll_number, date)
);
CREATE INDEX IF NOT EXISTS idx_attendance_date ON attendance (date);
CREATE INDEX IF NOT EXISTS idx_attendance_branch_year ON attendance (branch, year);

CREATE TABLE IF NOT EXISTS users (
	id            UUID PRIMARY KEY,
	username      TEXT NOT NULL UNIQUE,
	email         TEXT NOT NULL,
	full_name     TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	role          TEXT NOT NULL CHECK (role IN ('admin', 'teacher')),
	disabled      BOOLEAN NOT NULL DEFAULT FALSE
);
`

// Migrate creates tables and indexes when missing.
func (p *Postgres) Migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, schema)
	return err
}

// Ping checks connectivity.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Close closes the underlying pool.
func (p *Postgres) Close(context.Context) error {
	if p == nil || p.db == nil {
		return nil
	}
	return p.db.Close()
}
