package gesture

// Direction is the classified direction of a swipe gesture.
type Direction string

const (
	DirectionUp    Direction = "up"
	DirectionDown  Direction = "down"
	DirectionLeft  Direction = "left"
	DirectionRight Direction = "right"
	DirectionNone  Direction = "none"
)

// Vertical reports whether the direction is along the vertical axis.
func (d Direction) Vertical() bool {
	return d == DirectionUp || d == DirectionDown
}

// OverlayKind identifies one of the two mutually exclusive overlay panels.
type OverlayKind string

const (
	OverlayNotificationCenter OverlayKind = "notification_center"
	OverlayQuickFavorites     OverlayKind = "quick_favorites"
	// OverlayNone marks a decision that opens nothing (ambiguous or
	// retracted gestures resolve to this).
	OverlayNone OverlayKind = ""
)

// overlayKinds lists the real panels in a stable order.
var overlayKinds = [2]OverlayKind{OverlayNotificationCenter, OverlayQuickFavorites}

// otherKind returns the opposite panel of k.
func otherKind(k OverlayKind) OverlayKind {
	if k == OverlayNotificationCenter {
		return OverlayQuickFavorites
	}
	return OverlayNotificationCenter
}

// OverlayPhase is the lifecycle state of an overlay's visibility.
type OverlayPhase string

const (
	PhaseClosed  OverlayPhase = "closed"
	PhaseOpening OverlayPhase = "opening"
	PhaseOpen    OverlayPhase = "open"
	PhaseClosing OverlayPhase = "closing"
)

// Visible reports whether the phase counts toward the per-display
// mutual-exclusion invariant (at most one overlay Opening or Open).
func (p OverlayPhase) Visible() bool {
	return p == PhaseOpening || p == PhaseOpen
}

// TouchSample is a single raw pointer sample. Immutable once recorded.
type TouchSample struct {
	DisplayID      string
	ContactID      int64
	X              float64
	Y              float64
	TimestampNanos int64
}

// MotionSequence is the ordered sample history of one contact from
// first-down to release or cancel. Samples are oldest first.
type MotionSequence struct {
	DisplayID string
	ContactID int64
	Samples   []TouchSample

	// Evicted counts samples dropped by buffer capacity; classification
	// then measures from the oldest retained sample.
	Evicted int

	// PeakConcurrent is the maximum number of simultaneous contacts on
	// the display while this sequence was live. Anything above one makes
	// the gesture ambiguous at arbitration.
	PeakConcurrent int
}

// GestureEvent is the classification result for one motion sequence.
type GestureEvent struct {
	EventID   string
	DisplayID string
	ContactID int64
	Direction Direction

	// Distance is the net displacement magnitude along the dominant axis (px).
	Distance float64
	// PathLength is the total traced path length (px).
	PathLength float64
	// PeakVelocity is the maximum instantaneous speed across consecutive
	// sample pairs (px/s).
	PeakVelocity  float64
	DurationNanos int64
	// Confidence in [0,1]; gestures below the acceptance threshold never
	// reach a state machine.
	Confidence float64
	// Provisional marks an early classification emitted before release.
	Provisional bool
}

// ArbitrationDecision is the single authoritative outcome for a display's
// input sequence. ChosenOverlay == OverlayNone means "do nothing", the
// designed expression of an ambiguous or retracted gesture.
type ArbitrationDecision struct {
	DecisionID    string
	DisplayID     string
	ChosenOverlay OverlayKind

	// Supersedes names the decision being cancelled when a provisional
	// classification was contradicted by the completed sequence.
	Supersedes string

	SourceGesture *GestureEvent
	DecidedNanos  int64
}

// OverlayState is the externally visible state of one (display, kind) pair.
type OverlayState struct {
	DisplayID string
	Kind      OverlayKind
	Phase     OverlayPhase
	Progress  float64
}

// Transition records a completed phase change for the debug monitor and
// the event log.
type Transition struct {
	DisplayID string
	Kind      OverlayKind
	From      OverlayPhase
	To        OverlayPhase
	Progress  float64
	AtNanos   int64
}

// Recorder receives telemetry from the pipeline. Implementations are
// best-effort: errors are logged by the caller and never stop processing.
type Recorder interface {
	RecordGesture(ev GestureEvent) error
	RecordDecision(d ArbitrationDecision) error
	RecordTransition(tr Transition) error
}
