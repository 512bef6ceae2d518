package gesture

import "github.com/banshee-data/overlay.router/internal/monitoring"

// PanelRenderer consumes visibility updates. The core calls it on every
// phase transition and on every animation tick while an overlay is
// mid-flight. Implementations draw the panels; they must not feed state
// back into the core.
type PanelRenderer interface {
	SetVisibility(displayID string, kind OverlayKind, phase OverlayPhase, progress float64)
}

// LogRenderer logs phase transitions through the package logger. It is
// the default renderer for headless runs; progress ticks are suppressed
// to keep logs readable.
type LogRenderer struct{}

func (LogRenderer) SetVisibility(displayID string, kind OverlayKind, phase OverlayPhase, progress float64) {
	if progress != 0 && progress != 1 {
		return
	}
	monitoring.Logf("overlay %s/%s -> %s (progress=%.2f)", displayID, kind, phase, progress)
}

// NopRenderer discards all updates.
type NopRenderer struct{}

func (NopRenderer) SetVisibility(string, OverlayKind, OverlayPhase, float64) {}
