package monitor

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/banshee-data/overlay.router/internal/gesture"
	"github.com/banshee-data/overlay.router/internal/gesturedb"
)

func testCoordinator() *gesture.Coordinator {
	c := gesture.NewCoordinator(gesture.CoordinatorConfig{
		AnimationDuration: 250 * time.Millisecond,
		FrameInterval:     16 * time.Millisecond,
	}, gesture.NopRenderer{}, nil)
	c.RegisterDisplay("1", "")
	return c
}

func get(t *testing.T, mux *http.ServeMux, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthz(t *testing.T) {
	ws := NewWebServer(testCoordinator(), nil)
	rec := get(t, ws.ServeMux(), "/healthz")

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "ok" {
		t.Errorf("expected ok, got %q", rec.Body.String())
	}
}

func TestOverlaysEndpoint(t *testing.T) {
	coord := testCoordinator()
	coord.Dispatch(gesture.ArbitrationDecision{
		DecisionID:    "d1",
		DisplayID:     "1",
		ChosenOverlay: gesture.OverlayNotificationCenter,
	})
	for i := 0; i < 100; i++ {
		coord.Tick(16 * time.Millisecond)
	}

	ws := NewWebServer(coord, nil)
	rec := get(t, ws.ServeMux(), "/api/overlays")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %q", ct)
	}

	var states []gesture.OverlayState
	if err := json.Unmarshal(rec.Body.Bytes(), &states); err != nil {
		t.Fatalf("decode: %v", err)
	}
	found := false
	for _, st := range states {
		if st.DisplayID == "1" && st.Kind == gesture.OverlayNotificationCenter {
			found = true
			if st.Phase != gesture.PhaseOpen {
				t.Errorf("expected open, got %v", st.Phase)
			}
		}
	}
	if !found {
		t.Error("notification center state missing from response")
	}
}

func TestOverlaysMethodNotAllowed(t *testing.T) {
	ws := NewWebServer(testCoordinator(), nil)
	rec := httptest.NewRecorder()
	ws.ServeMux().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/overlays", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}

func TestTransitionsRequiresDisplayID(t *testing.T) {
	ws := NewWebServer(testCoordinator(), nil)
	mux := ws.ServeMux()

	if rec := get(t, mux, "/api/transitions"); rec.Code != http.StatusBadRequest {
		t.Errorf("missing display_id: expected 400, got %d", rec.Code)
	}
	if rec := get(t, mux, "/api/transitions?display_id=ghost"); rec.Code != http.StatusNotFound {
		t.Errorf("unknown display: expected 404, got %d", rec.Code)
	}
	if rec := get(t, mux, "/api/transitions?display_id=1"); rec.Code != http.StatusOK {
		t.Errorf("known display: expected 200, got %d", rec.Code)
	}
}

func TestGesturesWithoutEventLog(t *testing.T) {
	ws := NewWebServer(testCoordinator(), nil)
	mux := ws.ServeMux()

	if rec := get(t, mux, "/api/gestures"); rec.Code != http.StatusNotFound {
		t.Errorf("nil db: expected 404, got %d", rec.Code)
	}
	if rec := get(t, mux, "/api/decisions"); rec.Code != http.StatusNotFound {
		t.Errorf("nil db: expected 404, got %d", rec.Code)
	}
}

func TestGesturesWithEventLog(t *testing.T) {
	db, err := gesturedb.NewDB(filepath.Join(t.TempDir(), "gestures.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if err := db.RecordGesture(gesture.GestureEvent{
		EventID:   "ev-1",
		DisplayID: "1",
		Direction: gesture.DirectionDown,
	}); err != nil {
		t.Fatalf("record: %v", err)
	}

	ws := NewWebServer(testCoordinator(), db)
	rec := get(t, ws.ServeMux(), "/api/gestures?limit=5")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var rows []gesturedb.GestureRow
	if err := json.Unmarshal(rec.Body.Bytes(), &rows); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rows) != 1 || rows[0].EventID != "ev-1" {
		t.Errorf("expected the recorded gesture back, got %+v", rows)
	}
}

func TestVelocityChartRenders(t *testing.T) {
	db, err := gesturedb.NewDB(filepath.Join(t.TempDir(), "gestures.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	for _, ev := range []gesture.GestureEvent{
		{EventID: "ev-1", DisplayID: "1", Direction: gesture.DirectionDown, PeakVelocity: 1875, Confidence: 0.9},
		{EventID: "ev-2", DisplayID: "1", Direction: gesture.DirectionUp, PeakVelocity: 400, Confidence: 0.5},
	} {
		if err := db.RecordGesture(ev); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	ws := NewWebServer(testCoordinator(), db)
	rec := get(t, ws.ServeMux(), "/debug/velocity-chart")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Body.Len() == 0 {
		t.Error("expected rendered chart markup")
	}
}
