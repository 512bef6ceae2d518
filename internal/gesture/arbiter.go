package gesture

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// ArbiterConfig holds the arbitration tuning values.
type ArbiterConfig struct {
	// Window is the span within which gesture events on one display are
	// resolved jointly.
	Window time.Duration

	// ConfidenceThreshold gates events out of arbitration entirely; below
	// it no guess is made.
	ConfidenceThreshold float64
}

// DefaultArbiterConfig returns the stock arbitration tuning.
func DefaultArbiterConfig() ArbiterConfig {
	return ArbiterConfig{
		Window:              150 * time.Millisecond,
		ConfidenceThreshold: 0.4,
	}
}

type timedEvent struct {
	event    GestureEvent
	seenNano int64
}

type provisionalRecord struct {
	decisionID string
	direction  Direction
}

// Arbiter resolves ambiguous or competing gesture events on a display
// into a single authoritative decision per input sequence. It also tracks
// dispatched provisional decisions so a contradicting completed sequence
// can retract them.
type Arbiter struct {
	cfg ArbiterConfig

	mu          sync.Mutex
	window      map[string][]timedEvent
	provisional map[contactKey]provisionalRecord
}

// NewArbiter creates an arbiter with the given tuning.
func NewArbiter(cfg ArbiterConfig) *Arbiter {
	if cfg.Window <= 0 {
		cfg.Window = 150 * time.Millisecond
	}
	return &Arbiter{
		cfg:         cfg,
		window:      make(map[string][]timedEvent),
		provisional: make(map[contactKey]provisionalRecord),
	}
}

// Arbitrate applies the resolution rules, in priority order, to the
// events collected for one display:
//
//  1. more than one active contact at decision time discards everything
//  2. only vertical events at or above the confidence threshold survive
//  3. exactly one survivor maps Down to the Notification Center and Up to
//     Quick Favorites
//  4. ties and low-confidence contacts resolve to None
//
// (Retraction of provisional decisions, rule 4 of the design, is handled
// by Reconcile because it needs the provisional bookkeeping.)
func (a *Arbiter) Arbitrate(displayID string, events []GestureEvent, activeContacts int) ArbitrationDecision {
	d := ArbitrationDecision{
		DecisionID:    uuid.New().String(),
		DisplayID:     displayID,
		ChosenOverlay: OverlayNone,
		DecidedNanos:  time.Now().UnixNano(),
	}

	if activeContacts > 1 {
		return d
	}

	var survivors []GestureEvent
	for _, ev := range events {
		if !ev.Direction.Vertical() {
			// Horizontal gestures are reserved at this layer.
			continue
		}
		if ev.Confidence < a.cfg.ConfidenceThreshold {
			continue
		}
		survivors = append(survivors, ev)
	}

	if len(survivors) != 1 {
		return d
	}

	winner := survivors[0]
	if winner.Direction == DirectionDown {
		d.ChosenOverlay = OverlayNotificationCenter
	} else {
		d.ChosenOverlay = OverlayQuickFavorites
	}
	d.SourceGesture = &winner
	return d
}

// Observe adds a finalized event to the display's arbitration window.
func (a *Arbiter) Observe(ev GestureEvent, nowNanos int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.window[ev.DisplayID] = append(a.window[ev.DisplayID], timedEvent{event: ev, seenNano: nowNanos})
}

// Decide resolves and consumes the display's current window.
func (a *Arbiter) Decide(displayID string, activeContacts int, nowNanos int64) ArbitrationDecision {
	a.mu.Lock()
	cutoff := nowNanos - a.cfg.Window.Nanoseconds()
	var events []GestureEvent
	for _, te := range a.window[displayID] {
		if te.seenNano >= cutoff {
			events = append(events, te.event)
		}
	}
	delete(a.window, displayID)
	a.mu.Unlock()

	return a.Arbitrate(displayID, events, activeContacts)
}

// ProposeProvisional converts an early classification into a dispatchable
// decision, subject to the same rules as final arbitration. The decision
// is remembered so Reconcile can retract it later.
func (a *Arbiter) ProposeProvisional(ev GestureEvent, activeContacts int) (ArbitrationDecision, bool) {
	d := a.Arbitrate(ev.DisplayID, []GestureEvent{ev}, activeContacts)
	if d.ChosenOverlay == OverlayNone {
		return ArbitrationDecision{}, false
	}

	a.mu.Lock()
	a.provisional[contactKey{DisplayID: ev.DisplayID, ContactID: ev.ContactID}] = provisionalRecord{
		decisionID: d.DecisionID,
		direction:  ev.Direction,
	}
	a.mu.Unlock()
	return d, true
}

// HasProvisional reports whether a provisional decision is outstanding
// for the contact.
func (a *Arbiter) HasProvisional(displayID string, contactID int64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.provisional[contactKey{DisplayID: displayID, ContactID: contactID}]
	return ok
}

// Reconcile clears the contact's provisional decision against the final
// direction. If the completed sequence contradicts the provisional (a
// reversal, a cancelled contact, or a sequence that no longer classifies)
// it returns a cancellation decision superseding the original so the
// state machine can abort cleanly. A confirming final direction returns
// false: the provisional decision stands.
func (a *Arbiter) Reconcile(displayID string, contactID int64, final Direction) (ArbitrationDecision, bool) {
	key := contactKey{DisplayID: displayID, ContactID: contactID}

	a.mu.Lock()
	rec, ok := a.provisional[key]
	delete(a.provisional, key)
	a.mu.Unlock()

	if !ok || final == rec.direction {
		return ArbitrationDecision{}, false
	}

	return ArbitrationDecision{
		DecisionID:    uuid.New().String(),
		DisplayID:     displayID,
		ChosenOverlay: OverlayNone,
		Supersedes:    rec.decisionID,
		DecidedNanos:  time.Now().UnixNano(),
	}, true
}
