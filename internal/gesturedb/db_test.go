package gesturedb

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/overlay.router/internal/gesture"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "gestures.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRecordAndReadGestures(t *testing.T) {
	db := testDB(t)

	ev := gesture.GestureEvent{
		EventID:       "ev-1",
		DisplayID:     "1",
		ContactID:     7,
		Direction:     gesture.DirectionDown,
		Distance:      150,
		PathLength:    152.5,
		PeakVelocity:  1875,
		DurationNanos: 80_000_000,
		Confidence:    0.93,
		Provisional:   true,
	}
	require.NoError(t, db.RecordGesture(ev))

	rows, err := db.RecentGestures(10)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	got := rows[0]
	assert.Equal(t, "ev-1", got.EventID)
	assert.Equal(t, "1", got.DisplayID)
	assert.Equal(t, int64(7), got.ContactID)
	assert.Equal(t, "down", got.Direction)
	assert.Equal(t, 150.0, got.Distance)
	assert.Equal(t, 152.5, got.PathLength)
	assert.Equal(t, 1875.0, got.PeakVelocity)
	assert.Equal(t, int64(80_000_000), got.DurationNanos)
	assert.InDelta(t, 0.93, got.Confidence, 1e-9)
	assert.True(t, got.Provisional)
	assert.False(t, got.RecordedAt.IsZero())
}

func TestRecordGestureDuplicateIgnored(t *testing.T) {
	db := testDB(t)

	ev := gesture.GestureEvent{EventID: "ev-1", DisplayID: "1", Direction: gesture.DirectionUp}
	require.NoError(t, db.RecordGesture(ev))
	require.NoError(t, db.RecordGesture(ev))

	rows, err := db.RecentGestures(10)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestRecordAndReadDecisions(t *testing.T) {
	db := testDB(t)

	src := gesture.GestureEvent{EventID: "ev-1", DisplayID: "1", Direction: gesture.DirectionDown}
	require.NoError(t, db.RecordDecision(gesture.ArbitrationDecision{
		DecisionID:    "d-1",
		DisplayID:     "1",
		ChosenOverlay: gesture.OverlayNotificationCenter,
		SourceGesture: &src,
		DecidedNanos:  42,
	}))
	require.NoError(t, db.RecordDecision(gesture.ArbitrationDecision{
		DecisionID:    "d-2",
		DisplayID:     "1",
		ChosenOverlay: gesture.OverlayNone,
		Supersedes:    "d-1",
		DecidedNanos:  99,
	}))

	rows, err := db.RecentDecisions(10)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// Newest first.
	assert.Equal(t, "d-2", rows[0].DecisionID)
	assert.Equal(t, "", rows[0].ChosenOverlay)
	assert.Equal(t, "d-1", rows[0].Supersedes)
	assert.Equal(t, "d-1", rows[1].DecisionID)
	assert.Equal(t, "notification_center", rows[1].ChosenOverlay)
	assert.Equal(t, "ev-1", rows[1].SourceEvent)
}

func TestRecordTransitions(t *testing.T) {
	db := testDB(t)

	require.NoError(t, db.RecordTransition(gesture.Transition{
		DisplayID: "1",
		Kind:      gesture.OverlayQuickFavorites,
		From:      gesture.PhaseClosed,
		To:        gesture.PhaseOpening,
		Progress:  0,
		AtNanos:   1,
	}))
	require.NoError(t, db.RecordTransition(gesture.Transition{
		DisplayID: "1",
		Kind:      gesture.OverlayQuickFavorites,
		From:      gesture.PhaseOpening,
		To:        gesture.PhaseOpen,
		Progress:  1,
		AtNanos:   250_000_001,
	}))

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM transitions`).Scan(&count))
	assert.Equal(t, 2, count)
}

func TestRecentGesturesLimitClamped(t *testing.T) {
	db := testDB(t)

	rows, err := db.RecentGestures(-1)
	require.NoError(t, err)
	assert.Empty(t, rows)

	rows, err = db.RecentGestures(5000)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestMigrations(t *testing.T) {
	// A fresh DB file so the versioned migrations run against a schema the
	// bootstrap has not already created.
	db, err := NewDB(filepath.Join(t.TempDir(), "migrate.db"))
	require.NoError(t, err)
	defer db.Close()

	migrationsDir := filepath.Join("..", "..", "migrations")

	require.NoError(t, db.MigrateUp(migrationsDir))

	version, dirty, err := db.MigrateVersion(migrationsDir)
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, uint(1), version)

	// Up again is a no-op.
	require.NoError(t, db.MigrateUp(migrationsDir))

	require.NoError(t, db.MigrateDown(migrationsDir))
	version, dirty, err = db.MigrateVersion(migrationsDir)
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, uint(0), version)
}
