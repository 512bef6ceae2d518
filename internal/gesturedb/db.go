package gesturedb

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/banshee-data/overlay.router/internal/gesture"
)

// DB is the diagnostic event log for the gesture core. Every classified
// gesture, arbitration decision and overlay transition is appended so
// threshold tuning can be done against real traces. Writers are
// best-effort: the hot path logs and continues on error.
type DB struct {
	*sql.DB
}

// NewDB opens (creating if needed) the sqlite event log at path and
// bootstraps the schema.
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS gestures (
			event_id TEXT PRIMARY KEY,
			display_id TEXT NOT NULL,
			contact_id BIGINT NOT NULL,
			direction TEXT NOT NULL,
			distance DOUBLE,
			path_length DOUBLE,
			peak_velocity DOUBLE,
			duration_nanos BIGINT,
			confidence DOUBLE,
			provisional INTEGER NOT NULL DEFAULT 0,
			recorded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS decisions (
			decision_id TEXT PRIMARY KEY,
			display_id TEXT NOT NULL,
			chosen_overlay TEXT NOT NULL,
			supersedes TEXT,
			source_event TEXT,
			decided_nanos BIGINT,
			recorded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS transitions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			display_id TEXT NOT NULL,
			overlay_kind TEXT NOT NULL,
			from_phase TEXT NOT NULL,
			to_phase TEXT NOT NULL,
			progress DOUBLE,
			at_nanos BIGINT,
			recorded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// RecordGesture appends a classified gesture event.
func (db *DB) RecordGesture(ev gesture.GestureEvent) error {
	_, err := db.Exec(
		`INSERT OR IGNORE INTO gestures
			(event_id, display_id, contact_id, direction, distance, path_length,
			 peak_velocity, duration_nanos, confidence, provisional)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.EventID, ev.DisplayID, ev.ContactID, string(ev.Direction),
		ev.Distance, ev.PathLength, ev.PeakVelocity, ev.DurationNanos,
		ev.Confidence, boolToInt(ev.Provisional),
	)
	return err
}

// RecordDecision appends an arbitration decision.
func (db *DB) RecordDecision(d gesture.ArbitrationDecision) error {
	sourceEvent := ""
	if d.SourceGesture != nil {
		sourceEvent = d.SourceGesture.EventID
	}
	_, err := db.Exec(
		`INSERT OR IGNORE INTO decisions
			(decision_id, display_id, chosen_overlay, supersedes, source_event, decided_nanos)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		d.DecisionID, d.DisplayID, string(d.ChosenOverlay), d.Supersedes,
		sourceEvent, d.DecidedNanos,
	)
	return err
}

// RecordTransition appends an overlay phase transition.
func (db *DB) RecordTransition(tr gesture.Transition) error {
	_, err := db.Exec(
		`INSERT INTO transitions
			(display_id, overlay_kind, from_phase, to_phase, progress, at_nanos)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		tr.DisplayID, string(tr.Kind), string(tr.From), string(tr.To),
		tr.Progress, tr.AtNanos,
	)
	return err
}

// GestureRow is a logged gesture as read back from the event log.
type GestureRow struct {
	EventID       string
	DisplayID     string
	ContactID     int64
	Direction     string
	Distance      float64
	PathLength    float64
	PeakVelocity  float64
	DurationNanos int64
	Confidence    float64
	Provisional   bool
	RecordedAt    time.Time
}

// RecentGestures returns up to limit gestures, newest first.
func (db *DB) RecentGestures(limit int) ([]GestureRow, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	rows, err := db.Query(
		`SELECT event_id, display_id, contact_id, direction, distance,
			path_length, peak_velocity, duration_nanos, confidence,
			provisional, recorded_at
		 FROM gestures ORDER BY recorded_at DESC, event_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []GestureRow
	for rows.Next() {
		var g GestureRow
		var provisional int
		if err := rows.Scan(&g.EventID, &g.DisplayID, &g.ContactID, &g.Direction,
			&g.Distance, &g.PathLength, &g.PeakVelocity, &g.DurationNanos,
			&g.Confidence, &provisional, &g.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan gesture row: %w", err)
		}
		g.Provisional = provisional != 0
		out = append(out, g)
	}
	return out, rows.Err()
}

// DecisionRow is a logged arbitration decision.
type DecisionRow struct {
	DecisionID    string
	DisplayID     string
	ChosenOverlay string
	Supersedes    string
	SourceEvent   string
	DecidedNanos  int64
	RecordedAt    time.Time
}

// RecentDecisions returns up to limit decisions, newest first.
func (db *DB) RecentDecisions(limit int) ([]DecisionRow, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	rows, err := db.Query(
		`SELECT decision_id, display_id, chosen_overlay, supersedes,
			source_event, decided_nanos, recorded_at
		 FROM decisions ORDER BY recorded_at DESC, decision_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DecisionRow
	for rows.Next() {
		var d DecisionRow
		if err := rows.Scan(&d.DecisionID, &d.DisplayID, &d.ChosenOverlay,
			&d.Supersedes, &d.SourceEvent, &d.DecidedNanos, &d.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan decision row: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
