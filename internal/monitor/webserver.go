package monitor

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/banshee-data/overlay.router/internal/gesture"
	"github.com/banshee-data/overlay.router/internal/gesturedb"
)

// WebServer exposes the debug surface of the gesture core: live overlay
// states, the recorded gesture/decision log, and quick charts. It is
// read-only; nothing here mutates core state.
type WebServer struct {
	coord *gesture.Coordinator
	db    *gesturedb.DB // may be nil when event logging is disabled
}

// NewWebServer creates a debug server over the coordinator and the
// optional event log.
func NewWebServer(coord *gesture.Coordinator, db *gesturedb.DB) *WebServer {
	return &WebServer{coord: coord, db: db}
}

// ServeMux returns the routes of the debug server.
func (ws *WebServer) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/overlays", ws.handleOverlays)
	mux.HandleFunc("/api/transitions", ws.handleTransitions)
	mux.HandleFunc("/api/gestures", ws.handleGestures)
	mux.HandleFunc("/api/decisions", ws.handleDecisions)
	mux.HandleFunc("/debug/velocity-chart", ws.handleVelocityChart)
	mux.HandleFunc("/healthz", ws.handleHealthz)
	return mux
}

func (ws *WebServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("ok"))
}

func (ws *WebServer) handleOverlays(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ws.writeJSON(w, ws.coord.OverlayStates())
}

func (ws *WebServer) handleTransitions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	displayID := r.URL.Query().Get("display_id")
	if displayID == "" {
		http.Error(w, "display_id is required", http.StatusBadRequest)
		return
	}
	transitions, err := ws.coord.RecentTransitions(displayID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	ws.writeJSON(w, transitions)
}

func (ws *WebServer) handleGestures(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if ws.db == nil {
		http.Error(w, "event log disabled", http.StatusNotFound)
		return
	}
	gestures, err := ws.db.RecentGestures(ws.limit(r))
	if err != nil {
		http.Error(w, "Failed to retrieve gestures: "+err.Error(), http.StatusInternalServerError)
		return
	}
	ws.writeJSON(w, gestures)
}

func (ws *WebServer) handleDecisions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if ws.db == nil {
		http.Error(w, "event log disabled", http.StatusNotFound)
		return
	}
	decisions, err := ws.db.RecentDecisions(ws.limit(r))
	if err != nil {
		http.Error(w, "Failed to retrieve decisions: "+err.Error(), http.StatusInternalServerError)
		return
	}
	ws.writeJSON(w, decisions)
}

func (ws *WebServer) limit(r *http.Request) int {
	limit := 100
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 1000 {
			limit = v
		}
	}
	return limit
}

func (ws *WebServer) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
