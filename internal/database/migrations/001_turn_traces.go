package migrations

import "database/sql"

func init() {
	Register(Migration{
		Version: 1,
		Name:    "turn_traces",
		Up:      turnTraces,
	})
}

func turnTraces(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS turn_traces (
			id TEXT PRIMARY KEY,
			query TEXT NOT NULL,
			intent TEXT NOT NULL,
			slot_start DATETIME,
			slot_free BOOLEAN,
			outcome TEXT NOT NULL,
			reply TEXT NOT NULL,
			booking_link TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_turn_traces_created ON turn_traces(created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_turn_traces_outcome ON turn_traces(outcome, created_at DESC)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
