package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/noah-isme/obs-timetable-api/pkg/config"
)

// NewPostgres returns a configured PostgreSQL client.
func NewPostgres(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)

	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	db.SetConnMaxLifetime(1 * time.Hour)
	db.SetConnMaxIdleTime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// schema holds the idempotent DDL for the timetable store. The proposals
// catalogue keeps the legacy text columns it was imported with.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS proposals (
	id TEXT PRIMARY KEY,
	description TEXT NOT NULL DEFAULT '',
	proposal_id TEXT NOT NULL,
	owner_email TEXT NOT NULL DEFAULT '',
	instrument_product TEXT NOT NULL DEFAULT '',
	instrument_integration_time TEXT NOT NULL DEFAULT '0',
	instrument_band TEXT NOT NULL DEFAULT '',
	instrument_pool_resources TEXT NOT NULL DEFAULT '',
	lst_start TEXT NOT NULL DEFAULT '',
	lst_start_end TEXT NOT NULL DEFAULT '',
	simulated_duration TEXT NOT NULL DEFAULT '0',
	night_obs TEXT NOT NULL DEFAULT 'no',
	avoid_sunrise_sunset TEXT NOT NULL DEFAULT 'no',
	minimum_antennas TEXT NOT NULL DEFAULT '0',
	general_comments TEXT NOT NULL DEFAULT '',
	scheduled_start_datetime TEXT NOT NULL DEFAULT ''
)`,
	`CREATE TABLE IF NOT EXISTS timetables (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL DEFAULT '',
	start_date DATE NOT NULL,
	end_date DATE NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS timetable_proposals (
	timetable_id UUID NOT NULL REFERENCES timetables(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	record JSONB NOT NULL,
	PRIMARY KEY (timetable_id, position)
)`,
	`CREATE TABLE IF NOT EXISTS export_jobs (
	id UUID PRIMARY KEY,
	timetable_id UUID NOT NULL REFERENCES timetables(id) ON DELETE CASCADE,
	format TEXT NOT NULL,
	status TEXT NOT NULL,
	progress INTEGER NOT NULL DEFAULT 0,
	result_url TEXT,
	expires_at TIMESTAMPTZ,
	error_message TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ
)`,
	`CREATE INDEX IF NOT EXISTS export_jobs_status_finished_idx ON export_jobs (status, finished_at)`,
}

// Migrate applies the schema. Safe to run on every boot.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
