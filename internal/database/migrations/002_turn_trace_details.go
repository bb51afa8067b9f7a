package migrations

import "database/sql"

func init() {
	Register(Migration{
		Version: 2,
		Name:    "turn_trace_details",
		Up:      turnTraceDetails,
	})
}

func turnTraceDetails(db *sql.DB) error {
	if err := AddColumnIfNotExists(db, "turn_traces", "conflict_summary", "TEXT"); err != nil {
		return err
	}
	return AddColumnIfNotExists(db, "turn_traces", "duration_ms", "INTEGER DEFAULT 0")
}
