package gesture

import (
	"context"
	"sync"
	"time"

	"github.com/banshee-data/overlay.router/internal/monitoring"
)

// CoordinatorConfig holds the animation and synchronization tuning.
type CoordinatorConfig struct {
	// AnimationDuration is the full Closed->Open (or Open->Closed) time.
	AnimationDuration time.Duration

	// FrameInterval is the shared animation clock period.
	FrameInterval time.Duration

	// ReplayPolicy controls replayed opens against a mid-Closing member.
	ReplayPolicy ReplayPolicy

	// DecisionQueueDepth bounds each display's decision queue; decisions
	// beyond it are dropped with a log line rather than blocking the
	// gesture pipeline.
	DecisionQueueDepth int
}

// DefaultCoordinatorConfig returns the stock animation tuning (60fps
// clock, quarter-second slide).
func DefaultCoordinatorConfig() CoordinatorConfig {
	return CoordinatorConfig{
		AnimationDuration:  250 * time.Millisecond,
		FrameInterval:      16 * time.Millisecond,
		ReplayPolicy:       ReplayQueue,
		DecisionQueueDepth: 16,
	}
}

// Coordinator owns the per-display overlay state machines, the display
// registry with its sync groups, and the shared animation clock. All
// state machine mutation happens on the tick path, fed by one decision
// queue per display, so there is never a second writer.
type Coordinator struct {
	cfg      CoordinatorConfig
	renderer PanelRenderer
	recorder Recorder // optional

	mu       sync.RWMutex
	displays map[string]*displayOverlays
	groups   map[string]string // displayID -> groupID ("" = self-only)
	queues   map[string]chan ArbitrationDecision

	nowNanos int64
}

// NewCoordinator creates a coordinator rendering through renderer.
// recorder may be nil.
func NewCoordinator(cfg CoordinatorConfig, renderer PanelRenderer, recorder Recorder) *Coordinator {
	if cfg.AnimationDuration <= 0 {
		cfg.AnimationDuration = 250 * time.Millisecond
	}
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = 16 * time.Millisecond
	}
	if cfg.ReplayPolicy != ReplayInterrupt {
		cfg.ReplayPolicy = ReplayQueue
	}
	if cfg.DecisionQueueDepth <= 0 {
		cfg.DecisionQueueDepth = 16
	}
	if renderer == nil {
		renderer = NopRenderer{}
	}
	return &Coordinator{
		cfg:      cfg,
		renderer: renderer,
		recorder: recorder,
		displays: make(map[string]*displayOverlays),
		groups:   make(map[string]string),
		queues:   make(map[string]chan ArbitrationDecision),
	}
}

// RegisterDisplay adds a display to the registry with its sync group
// (empty group means self-only). Re-registering an existing display
// updates its group and keeps its overlay state.
func (c *Coordinator) RegisterDisplay(displayID, syncGroup string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.displays[displayID]; !ok {
		c.displays[displayID] = newDisplayOverlays(displayID)
		c.queues[displayID] = make(chan ArbitrationDecision, c.cfg.DecisionQueueDepth)
	}
	c.groups[displayID] = syncGroup
}

// UnregisterDisplay tears down both overlay state instances for the
// display and removes it from its group.
func (c *Coordinator) UnregisterDisplay(displayID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.displays[displayID]; !ok {
		return ErrUnknownDisplay
	}
	delete(c.displays, displayID)
	delete(c.groups, displayID)
	delete(c.queues, displayID)
	return nil
}

// Registered reports whether the display is in the registry.
func (c *Coordinator) Registered(displayID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.displays[displayID]
	return ok
}

// Dispatch routes a decision onto its display's queue. The queue is
// drained by the next tick; Dispatch never blocks the gesture pipeline.
func (c *Coordinator) Dispatch(d ArbitrationDecision) error {
	c.mu.RLock()
	q, ok := c.queues[d.DisplayID]
	c.mu.RUnlock()
	if !ok {
		return ErrUnknownDisplay
	}

	if c.recorder != nil {
		if err := c.recorder.RecordDecision(d); err != nil {
			monitoring.Logf("record decision %s: %v", d.DecisionID, err)
		}
	}

	select {
	case q <- d:
	default:
		monitoring.Logf("decision queue full on display %s, dropping decision %s", d.DisplayID, d.DecisionID)
	}
	return nil
}

// ExternalClose asks the display to close the given kind (for example a
// tap outside the panel or a hardware button). Replayed across the
// display's sync group.
func (c *Coordinator) ExternalClose(displayID string, kind OverlayKind) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ov, ok := c.displays[displayID]
	if !ok {
		return ErrUnknownDisplay
	}
	c.emit(ov.requestClose(kind, c.nowNanos))
	for _, member := range c.groupMembersLocked(displayID) {
		c.emit(member.requestClose(kind, c.nowNanos))
	}
	return nil
}

// Run drives the animation clock until the context is cancelled.
func (c *Coordinator) Run(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.FrameInterval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			c.Tick(now.Sub(last))
			last = now
		}
	}
}

// Tick drains every display's decision queue and advances all animating
// overlays by dt. Exposed so tests and embedding hosts can drive the
// clock deterministically.
func (c *Coordinator) Tick(dt time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nowNanos += dt.Nanoseconds()

	for displayID, q := range c.queues {
	drain:
		for {
			select {
			case d := <-q:
				c.applyLocked(displayID, d)
			default:
				break drain
			}
		}
	}

	for _, ov := range c.displays {
		transitions, animating := ov.advance(dt.Nanoseconds(), c.cfg.AnimationDuration.Nanoseconds(), c.nowNanos)
		c.emit(transitions)
		for _, st := range animating {
			c.renderer.SetVisibility(st.DisplayID, st.Kind, st.Phase, st.Progress)
		}
	}
}

// applyLocked applies one decision to its display and replays it across
// the display's sync group. Callers hold c.mu.
func (c *Coordinator) applyLocked(displayID string, d ArbitrationDecision) {
	ov, ok := c.displays[displayID]
	if !ok {
		// Display unregistered between dispatch and tick.
		monitoring.Logf("decision %s for unregistered display %s dropped", d.DecisionID, displayID)
		return
	}

	if d.ChosenOverlay == OverlayNone {
		if d.Supersedes == "" {
			return // ambiguous gesture: designed no-op
		}
		c.emit(ov.cancel(d.Supersedes, c.nowNanos))
		for _, member := range c.groupMembersLocked(displayID) {
			c.emit(member.cancel(d.Supersedes, c.nowNanos))
		}
		return
	}

	c.emit(ov.requestOpen(d.ChosenOverlay, d.DecisionID, c.cfg.ReplayPolicy, c.nowNanos))
	for _, member := range c.groupMembersLocked(displayID) {
		c.emit(member.requestOpen(d.ChosenOverlay, d.DecisionID, c.cfg.ReplayPolicy, c.nowNanos))
	}
}

// groupMembersLocked returns the other displays sharing displayID's
// non-trivial sync group. Callers hold c.mu.
func (c *Coordinator) groupMembersLocked(displayID string) []*displayOverlays {
	group := c.groups[displayID]
	if group == "" {
		return nil
	}
	var members []*displayOverlays
	for id, g := range c.groups {
		if id != displayID && g == group {
			members = append(members, c.displays[id])
		}
	}
	return members
}

// emit forwards phase transitions to the renderer and the recorder.
func (c *Coordinator) emit(transitions []Transition) {
	for _, tr := range transitions {
		c.renderer.SetVisibility(tr.DisplayID, tr.Kind, tr.To, tr.Progress)
		if c.recorder != nil {
			if err := c.recorder.RecordTransition(tr); err != nil {
				monitoring.Logf("record transition %s/%s: %v", tr.DisplayID, tr.Kind, err)
			}
		}
	}
}

// OverlayStates returns a snapshot of every registered overlay state.
func (c *Coordinator) OverlayStates() []OverlayState {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []OverlayState
	for _, ov := range c.displays {
		out = append(out, ov.snapshot()...)
	}
	return out
}

// DisplayStates returns the two overlay states of one display.
func (c *Coordinator) DisplayStates(displayID string) ([]OverlayState, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ov, ok := c.displays[displayID]
	if !ok {
		return nil, ErrUnknownDisplay
	}
	return ov.snapshot(), nil
}

// RecentTransitions returns the display's transition history, oldest
// first.
func (c *Coordinator) RecentTransitions(displayID string) ([]Transition, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ov, ok := c.displays[displayID]
	if !ok {
		return nil, ErrUnknownDisplay
	}
	return ov.recentTransitions(), nil
}
