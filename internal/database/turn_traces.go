package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrTraceNotFound is returned when a turn trace ID is unknown.
var ErrTraceNotFound = errors.New("turn trace not found")

// TurnTrace is the audit record of one request through the assistant.
// It is written once after the reply is decided and never read back by
// the pipeline.
type TurnTrace struct {
	ID              string
	Query           string
	Intent          string
	SlotStart       *time.Time
	SlotFree        *bool
	Outcome         string
	Reply           string
	BookingLink     string
	ConflictSummary string
	Duration        time.Duration
	CreatedAt       time.Time
}

const turnTraceColumns = `id, query, intent, slot_start, slot_free, outcome, reply,
	booking_link, conflict_summary, duration_ms, created_at`

func (d *DB) CreateTurnTrace(trace *TurnTrace) error {
	if trace.ID == "" {
		return fmt.Errorf("turn trace requires an id")
	}
	if trace.CreatedAt.IsZero() {
		trace.CreatedAt = time.Now()
	}

	var slotStart sql.NullTime
	if trace.SlotStart != nil {
		slotStart = sql.NullTime{Time: trace.SlotStart.UTC(), Valid: true}
	}
	var slotFree sql.NullBool
	if trace.SlotFree != nil {
		slotFree = sql.NullBool{Bool: *trace.SlotFree, Valid: true}
	}

	_, err := d.Exec(`
		INSERT INTO turn_traces (`+turnTraceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		trace.ID,
		trace.Query,
		trace.Intent,
		slotStart,
		slotFree,
		trace.Outcome,
		trace.Reply,
		trace.BookingLink,
		trace.ConflictSummary,
		trace.Duration.Milliseconds(),
		trace.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create turn trace: %w", err)
	}
	return nil
}

func (d *DB) GetTurnTrace(id string) (*TurnTrace, error) {
	row := d.QueryRow(`SELECT `+turnTraceColumns+` FROM turn_traces WHERE id = ?`, id)

	trace, err := scanTurnTrace(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTraceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get turn trace: %w", err)
	}
	return trace, nil
}

// ListRecentTurnTraces returns up to limit traces, newest first.
func (d *DB) ListRecentTurnTraces(limit int) ([]*TurnTrace, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := d.Query(`
		SELECT `+turnTraceColumns+`
		FROM turn_traces
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list turn traces: %w", err)
	}
	defer rows.Close()

	var traces []*TurnTrace
	for rows.Next() {
		trace, err := scanTurnTrace(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan turn trace: %w", err)
		}
		traces = append(traces, trace)
	}
	return traces, rows.Err()
}

// CountTurnTracesByOutcome returns how many turns ended with each outcome.
func (d *DB) CountTurnTracesByOutcome() (map[string]int, error) {
	rows, err := d.Query(`SELECT outcome, COUNT(*) FROM turn_traces GROUP BY outcome`)
	if err != nil {
		return nil, fmt.Errorf("failed to count turn traces: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var outcome string
		var n int
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, fmt.Errorf("failed to scan outcome count: %w", err)
		}
		counts[outcome] = n
	}
	return counts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTurnTrace(s rowScanner) (*TurnTrace, error) {
	var (
		trace           TurnTrace
		slotStart       sql.NullTime
		slotFree        sql.NullBool
		bookingLink     sql.NullString
		conflictSummary sql.NullString
		durationMs      int64
	)

	err := s.Scan(
		&trace.ID,
		&trace.Query,
		&trace.Intent,
		&slotStart,
		&slotFree,
		&trace.Outcome,
		&trace.Reply,
		&bookingLink,
		&conflictSummary,
		&durationMs,
		&trace.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if slotStart.Valid {
		t := slotStart.Time
		trace.SlotStart = &t
	}
	if slotFree.Valid {
		free := slotFree.Bool
		trace.SlotFree = &free
	}
	trace.BookingLink = bookingLink.String
	trace.ConflictSummary = conflictSummary.String
	trace.Duration = time.Duration(durationMs) * time.Millisecond

	return &trace, nil
}
