package gesture

// ReplayPolicy controls what a sync-group member does when a replayed
// open arrives while the same kind is mid-Closing.
type ReplayPolicy string

const (
	// ReplayQueue waits for the closing animation to reach Closed and
	// only then begins Opening, avoiding discontinuous motion.
	ReplayQueue ReplayPolicy = "queue"
	// ReplayInterrupt reverses the animation immediately from the current
	// progress value.
	ReplayInterrupt ReplayPolicy = "interrupt"
)

// transitionHistoryCap bounds the per-display transition ring kept for
// the debug monitor.
const transitionHistoryCap = 32

type overlayUnit struct {
	state OverlayState
	// decisionID names the decision that initiated the current Opening,
	// so a cancellation can supersede it before the overlay is Open.
	decisionID string
}

// displayOverlays owns both overlay state machines of one display and
// enforces the invariant that at most one of them is Opening or Open.
// All mutation happens on the coordinator's tick goroutine.
type displayOverlays struct {
	displayID string
	units     map[OverlayKind]*overlayUnit

	// pendingOpen queues a kind whose opening must wait for the currently
	// visible (or closing) overlay to reach Closed.
	pendingOpen     OverlayKind
	pendingDecision string

	history []Transition
}

func newDisplayOverlays(displayID string) *displayOverlays {
	units := make(map[OverlayKind]*overlayUnit, len(overlayKinds))
	for _, kind := range overlayKinds {
		units[kind] = &overlayUnit{state: OverlayState{
			DisplayID: displayID,
			Kind:      kind,
			Phase:     PhaseClosed,
		}}
	}
	return &displayOverlays{displayID: displayID, units: units}
}

func (ov *displayOverlays) setPhase(u *overlayUnit, to OverlayPhase, nowNanos int64) Transition {
	tr := Transition{
		DisplayID: ov.displayID,
		Kind:      u.state.Kind,
		From:      u.state.Phase,
		To:        to,
		Progress:  u.state.Progress,
		AtNanos:   nowNanos,
	}
	u.state.Phase = to
	ov.history = append(ov.history, tr)
	if len(ov.history) > transitionHistoryCap {
		ov.history = ov.history[len(ov.history)-transitionHistoryCap:]
	}
	return tr
}

// requestOpen drives the display toward showing kind. Opening an overlay
// that is already Open or Opening is a no-op. If the other kind is
// visible it is driven to Closing first and kind is queued; the queued
// open starts once the closing side reaches Closed.
func (ov *displayOverlays) requestOpen(kind OverlayKind, decisionID string, policy ReplayPolicy, nowNanos int64) []Transition {
	unit := ov.units[kind]
	other := ov.units[otherKind(kind)]

	switch {
	case unit.state.Phase.Visible():
		// Idempotent: no duplicate animation.
		return nil

	case other.state.Phase.Visible():
		ov.pendingOpen = kind
		ov.pendingDecision = decisionID
		return []Transition{ov.setPhase(other, PhaseClosing, nowNanos)}

	case other.state.Phase == PhaseClosing:
		// The other panel is already on its way out; just queue.
		ov.pendingOpen = kind
		ov.pendingDecision = decisionID
		return nil

	case unit.state.Phase == PhaseClosing:
		if policy == ReplayInterrupt {
			unit.decisionID = decisionID
			return []Transition{ov.setPhase(unit, PhaseOpening, nowNanos)}
		}
		ov.pendingOpen = kind
		ov.pendingDecision = decisionID
		return nil

	default: // PhaseClosed
		unit.decisionID = decisionID
		return []Transition{ov.setPhase(unit, PhaseOpening, nowNanos)}
	}
}

// requestClose drives kind toward Closed from its current progress.
// External close requests also drop a matching queued open.
func (ov *displayOverlays) requestClose(kind OverlayKind, nowNanos int64) []Transition {
	if ov.pendingOpen == kind {
		ov.pendingOpen = OverlayNone
		ov.pendingDecision = ""
	}
	unit := ov.units[kind]
	if !unit.state.Phase.Visible() {
		return nil
	}
	unit.decisionID = ""
	return []Transition{ov.setPhase(unit, PhaseClosing, nowNanos)}
}

// cancel aborts an in-flight open whose decision is superseded. Only an
// overlay still Opening is affected; once Open the cancellation is stale
// and ignored.
func (ov *displayOverlays) cancel(supersededDecision string, nowNanos int64) []Transition {
	if ov.pendingDecision == supersededDecision {
		ov.pendingOpen = OverlayNone
		ov.pendingDecision = ""
	}
	for _, kind := range overlayKinds {
		unit := ov.units[kind]
		if unit.decisionID == supersededDecision && unit.state.Phase == PhaseOpening {
			unit.decisionID = ""
			return []Transition{ov.setPhase(unit, PhaseClosing, nowNanos)}
		}
	}
	return nil
}

// advance moves animation progress by dt. Progress is clamped to [0,1];
// reaching a bound completes the phase. A queued open starts in the same
// tick its blocking overlay reaches Closed.
func (ov *displayOverlays) advance(dtNanos, durationNanos, nowNanos int64) (transitions []Transition, animating []OverlayState) {
	if durationNanos <= 0 {
		durationNanos = 1
	}
	delta := float64(dtNanos) / float64(durationNanos)

	for _, kind := range overlayKinds {
		unit := ov.units[kind]
		switch unit.state.Phase {
		case PhaseOpening:
			unit.state.Progress += delta
			if unit.state.Progress >= 1 {
				unit.state.Progress = 1
				transitions = append(transitions, ov.setPhase(unit, PhaseOpen, nowNanos))
			} else {
				animating = append(animating, unit.state)
			}
		case PhaseClosing:
			unit.state.Progress -= delta
			if unit.state.Progress <= 0 {
				unit.state.Progress = 0
				transitions = append(transitions, ov.setPhase(unit, PhaseClosed, nowNanos))
			} else {
				animating = append(animating, unit.state)
			}
		}
	}

	if ov.pendingOpen != OverlayNone && ov.clear() {
		kind := ov.pendingOpen
		decision := ov.pendingDecision
		ov.pendingOpen = OverlayNone
		ov.pendingDecision = ""
		unit := ov.units[kind]
		unit.decisionID = decision
		transitions = append(transitions, ov.setPhase(unit, PhaseOpening, nowNanos))
	}

	return transitions, animating
}

// clear reports whether both overlays are fully Closed.
func (ov *displayOverlays) clear() bool {
	for _, kind := range overlayKinds {
		if ov.units[kind].state.Phase != PhaseClosed {
			return false
		}
	}
	return true
}

// exclusive reports whether the mutual-exclusion invariant holds.
func (ov *displayOverlays) exclusive() bool {
	visible := 0
	for _, kind := range overlayKinds {
		if ov.units[kind].state.Phase.Visible() {
			visible++
		}
	}
	return visible <= 1
}

// snapshot returns copies of both overlay states.
func (ov *displayOverlays) snapshot() []OverlayState {
	out := make([]OverlayState, 0, len(overlayKinds))
	for _, kind := range overlayKinds {
		out = append(out, ov.units[kind].state)
	}
	return out
}

// recentTransitions returns the transition history, oldest first.
func (ov *displayOverlays) recentTransitions() []Transition {
	out := make([]Transition, len(ov.history))
	copy(out, ov.history)
	return out
}
