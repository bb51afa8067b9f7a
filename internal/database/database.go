package database

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/omriShneor/calendar_assistant/internal/database/migrations"
	"github.com/omriShneor/calendar_assistant/internal/logging"
)

type DB struct {
	*sql.DB
}

// New opens the sqlite database at dbPath and applies pending migrations.
func New(dbPath string, logger *zap.Logger) (*DB, error) {
	// WAL for concurrent readers, busy timeout to wait instead of failing
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every connection to :memory: is a separate database.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := migrations.RunMigrations(db, logging.OrNop(logger)); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DB{db}, nil
}

func (d *DB) Close() error {
	return d.DB.Close()
}
