package gesture

import (
	"math"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"
)

// ClassifierConfig holds the thresholds for gesture classification.
type ClassifierConfig struct {
	// SwipeThresholdPx is the minimum net displacement along the dominant
	// axis for a sequence to count as a directional swipe.
	SwipeThresholdPx float64

	// VelocityThresholdPxPerSec is the minimum peak instantaneous velocity.
	VelocityThresholdPxPerSec float64

	// EarlyClassificationMultiplier scales both thresholds for provisional
	// classification before release. Values <= 1 disable the margin and
	// make early classification as eager as final classification.
	EarlyClassificationMultiplier float64
}

// DefaultClassifierConfig returns thresholds tuned for an automotive
// touch surface at typical density (~160dpi).
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		SwipeThresholdPx:              100,
		VelocityThresholdPxPerSec:     100,
		EarlyClassificationMultiplier: 1.5,
	}
}

// Classifier turns completed (or sufficiently advanced) motion sequences
// into gesture events. It is stateless and safe for concurrent use.
type Classifier struct {
	cfg ClassifierConfig
}

// NewClassifier creates a classifier with the given thresholds.
func NewClassifier(cfg ClassifierConfig) *Classifier {
	if cfg.SwipeThresholdPx <= 0 {
		cfg.SwipeThresholdPx = 100
	}
	if cfg.VelocityThresholdPxPerSec <= 0 {
		cfg.VelocityThresholdPxPerSec = 100
	}
	if cfg.EarlyClassificationMultiplier <= 0 {
		cfg.EarlyClassificationMultiplier = 1.5
	}
	return &Classifier{cfg: cfg}
}

// motionMetrics are the raw measurements extracted from a sequence.
type motionMetrics struct {
	dx, dy        float64
	pathLength    float64
	peakVelocity  float64
	durationNanos int64
	stepSpeeds    []float64
}

func measure(seq MotionSequence) motionMetrics {
	first := seq.Samples[0]
	last := seq.Samples[len(seq.Samples)-1]

	m := motionMetrics{
		dx:            last.X - first.X,
		dy:            last.Y - first.Y,
		durationNanos: last.TimestampNanos - first.TimestampNanos,
		stepSpeeds:    make([]float64, 0, len(seq.Samples)-1),
	}

	for i := 1; i < len(seq.Samples); i++ {
		prev := seq.Samples[i-1]
		cur := seq.Samples[i]
		step := math.Hypot(cur.X-prev.X, cur.Y-prev.Y)
		m.pathLength += step

		dt := cur.TimestampNanos - prev.TimestampNanos
		if dt <= 0 {
			// Out-of-order or duplicate timestamps contribute distance but
			// no velocity sample.
			continue
		}
		v := step / (float64(dt) / 1e9)
		m.stepSpeeds = append(m.stepSpeeds, v)
		if v > m.peakVelocity {
			m.peakVelocity = v
		}
	}
	return m
}

// dominant returns the net displacement magnitude on the dominant axis
// and whether that axis is vertical.
func (m motionMetrics) dominant() (float64, bool) {
	if math.Abs(m.dy) >= math.Abs(m.dx) {
		return math.Abs(m.dy), true
	}
	return math.Abs(m.dx), false
}

// direction maps the dominant axis and its sign to a Direction. Screen
// coordinates grow downward, so positive dy is a downward swipe.
func (m motionMetrics) direction() Direction {
	if _, vertical := m.dominant(); vertical {
		if m.dy > 0 {
			return DirectionDown
		}
		return DirectionUp
	}
	if m.dx > 0 {
		return DirectionRight
	}
	return DirectionLeft
}

// Classify produces the gesture event for a finalized sequence.
// Direction is None when either the displacement or velocity threshold is
// not met. Returns ErrInsufficientData for sequences under two samples.
func (c *Classifier) Classify(seq MotionSequence) (GestureEvent, error) {
	if len(seq.Samples) < 2 {
		return GestureEvent{}, ErrInsufficientData
	}

	m := measure(seq)
	dom, _ := m.dominant()

	dir := DirectionNone
	if dom >= c.cfg.SwipeThresholdPx && m.peakVelocity >= c.cfg.VelocityThresholdPxPerSec {
		dir = m.direction()
	}

	return GestureEvent{
		EventID:       uuid.New().String(),
		DisplayID:     seq.DisplayID,
		ContactID:     seq.ContactID,
		Direction:     dir,
		Distance:      dom,
		PathLength:    m.pathLength,
		PeakVelocity:  m.peakVelocity,
		DurationNanos: m.durationNanos,
		Confidence:    c.confidence(m),
	}, nil
}

// ClassifyEarly emits a provisional gesture event as soon as a still-live
// sequence exceeds both thresholds by the configured multiplier. The
// second return value is false while the margin has not been reached.
func (c *Classifier) ClassifyEarly(seq MotionSequence) (GestureEvent, bool) {
	if len(seq.Samples) < 2 {
		return GestureEvent{}, false
	}

	m := measure(seq)
	dom, _ := m.dominant()

	mult := c.cfg.EarlyClassificationMultiplier
	if dom < c.cfg.SwipeThresholdPx*mult || m.peakVelocity < c.cfg.VelocityThresholdPxPerSec*mult {
		return GestureEvent{}, false
	}

	return GestureEvent{
		EventID:       uuid.New().String(),
		DisplayID:     seq.DisplayID,
		ContactID:     seq.ContactID,
		Direction:     m.direction(),
		Distance:      dom,
		PathLength:    m.pathLength,
		PeakVelocity:  m.peakVelocity,
		DurationNanos: m.durationNanos,
		Confidence:    c.confidence(m),
		Provisional:   true,
	}, true
}

// confidence scores a measurement in [0,1]:
//
//	0.60 * axisRatio      (dominant-axis displacement / path length,
//	                       penalising wandering paths)
//	0.25 * velocityMargin (how far the peak clears the threshold)
//	0.15 * steadiness     (1/(1+cv) over per-step speeds; jittery motion
//	                       scores low)
func (c *Classifier) confidence(m motionMetrics) float64 {
	dom, _ := m.dominant()

	axisRatio := 0.0
	if m.pathLength > 0 {
		axisRatio = clamp01(dom / m.pathLength)
	}

	velocityMargin := 0.0
	if c.cfg.VelocityThresholdPxPerSec > 0 {
		velocityMargin = clamp01((m.peakVelocity - c.cfg.VelocityThresholdPxPerSec) / c.cfg.VelocityThresholdPxPerSec)
	}

	steadiness := 1.0
	if len(m.stepSpeeds) >= 2 {
		mean := stat.Mean(m.stepSpeeds, nil)
		if mean > 0 {
			cv := stat.StdDev(m.stepSpeeds, nil) / mean
			steadiness = 1.0 / (1.0 + cv)
		}
	}

	return clamp01(0.60*axisRatio + 0.25*velocityMargin + 0.15*steadiness)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
