// Copyright 2023 The emqx-go Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package eventlog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // Postgres driver, registered via database/sql
)

// PostgresConfig configures the durable, SQL-backed Log implementation of
// the persisted state layout: one table, ordered by (type_identifier,
// created_at), so replay reads come back in append order for free.
type PostgresConfig struct {
	Host            string        `json:"host" yaml:"host"`
	Port            int           `json:"port" yaml:"port"`
	Username        string        `json:"username" yaml:"username"`
	Password        string        `json:"password" yaml:"password"`
	Database        string        `json:"database" yaml:"database"`
	Table           string        `json:"table" yaml:"table"`
	SSLMode         string        `json:"ssl_mode" yaml:"ssl_mode"`
	MaxOpenConns    int           `json:"max_open_conns" yaml:"max_open_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime" yaml:"conn_max_lifetime"`
}

// DefaultPostgresConfig returns sane defaults for local development.
func DefaultPostgresConfig() PostgresConfig {
	return PostgresConfig{
		Host:            "localhost",
		Port:            5432,
		Username:        "postgres",
		Database:        "eventbus",
		Table:           "events",
		SSLMode:         "disable",
		MaxOpenConns:    10,
		ConnMaxLifetime: time.Hour,
	}
}

// PostgresLog is a Log backed by a Postgres table with the schema described
// in the persisted state layout:
//
//	id BIGSERIAL, created_at TIMESTAMPTZ, type_identifier SMALLINT, event BYTEA
//	ordered by (type_identifier, created_at)
type PostgresLog struct {
	db    *sql.DB
	table string
}

// NewPostgresLog opens a connection pool and ensures the backing table and
// its replay-ordering index exist.
func NewPostgresLog(cfg PostgresConfig) (*PostgresLog, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Database, cfg.SSLMode,
	)
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("eventlog: open postgres: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("eventlog: ping postgres: %w", err)
	}

	table := cfg.Table
	if table == "" {
		table = "events"
	}
	l := &PostgresLog{db: db, table: table}
	if err := l.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return l, nil
}

func (l *PostgresLog) ensureSchema() error {
	_, err := l.db.Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id BIGSERIAL PRIMARY KEY,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			type_identifier SMALLINT NOT NULL,
			event BYTEA NOT NULL
		)`, l.table))
	if err != nil {
		return fmt.Errorf("eventlog: create table: %w", err)
	}
	_, err = l.db.Exec(fmt.Sprintf(
		`CREATE INDEX IF NOT EXISTS %s_replay_order ON %s (type_identifier, created_at)`,
		l.table, l.table,
	))
	if err != nil {
		return fmt.Errorf("eventlog: create index: %w", err)
	}
	return nil
}

// Append inserts payload as a new row for typeID. created_at is assigned by
// the database clock, which is monotonic enough for single-broker replay
// ordering.
func (l *PostgresLog) Append(ctx context.Context, typeID byte, payload []byte) error {
	_, err := l.db.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (type_identifier, event) VALUES ($1, $2)`, l.table),
		int16(typeID), payload,
	)
	if err != nil {
		return fmt.Errorf("eventlog: append: %w", err)
	}
	return nil
}

// ListAscending reads every row for typeID ordered by created_at.
func (l *PostgresLog) ListAscending(ctx context.Context, typeID byte) ([][]byte, error) {
	rows, err := l.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT event FROM %s WHERE type_identifier = $1 ORDER BY created_at ASC, id ASC`, l.table),
		int16(typeID),
	)
	if err != nil {
		return nil, fmt.Errorf("eventlog: list: %w", err)
	}
	defer rows.Close()

	var out [][]byte
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("eventlog: scan: %w", err)
		}
		out = append(out, payload)
	}
	return out, rows.Err()
}

// Close releases the underlying connection pool.
func (l *PostgresLog) Close() error {
	return l.db.Close()
}
