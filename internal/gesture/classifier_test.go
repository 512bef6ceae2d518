package gesture

import (
	"errors"
	"math"
	"testing"
)

// verticalSwipe builds a straight vertical drag covering dy pixels over
// durMillis with five evenly spaced samples.
func verticalSwipe(dy float64, durMillis int64) MotionSequence {
	const steps = 4
	seq := MotionSequence{DisplayID: "1", ContactID: 1}
	for i := int64(0); i <= steps; i++ {
		seq.Samples = append(seq.Samples, TouchSample{
			DisplayID:      "1",
			ContactID:      1,
			X:              0,
			Y:              dy * float64(i) / steps,
			TimestampNanos: i * durMillis * 1_000_000 / steps,
		})
	}
	return seq
}

func TestClassifier_InsufficientData(t *testing.T) {
	c := NewClassifier(DefaultClassifierConfig())

	for _, n := range []int{0, 1} {
		seq := MotionSequence{DisplayID: "1", ContactID: 1}
		for i := 0; i < n; i++ {
			seq.Samples = append(seq.Samples, sampleAt("1", 1, 0, 0, int64(i)))
		}
		if _, err := c.Classify(seq); !errors.Is(err, ErrInsufficientData) {
			t.Errorf("%d samples: expected ErrInsufficientData, got %v", n, err)
		}
	}
}

func TestClassifier_StraightDownSwipe(t *testing.T) {
	// Scenario: 150px straight down in 80ms against 100px / 100px/s
	// thresholds.
	c := NewClassifier(DefaultClassifierConfig())

	ev, err := c.Classify(verticalSwipe(150, 80))
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if ev.Direction != DirectionDown {
		t.Errorf("expected down, got %v", ev.Direction)
	}
	if ev.Distance != 150 {
		t.Errorf("expected distance 150, got %v", ev.Distance)
	}
	if ev.DurationNanos != 80*1_000_000 {
		t.Errorf("expected 80ms duration, got %dns", ev.DurationNanos)
	}
	// 37.5px per 20ms step = 1875px/s.
	if math.Abs(ev.PeakVelocity-1875) > 1 {
		t.Errorf("expected peak velocity ~1875px/s, got %v", ev.PeakVelocity)
	}
	// Straight fast swipe: every confidence term saturates.
	if math.Abs(ev.Confidence-1.0) > 1e-9 {
		t.Errorf("expected confidence 1.0, got %v", ev.Confidence)
	}
	if ev.Provisional {
		t.Error("final classification must not be provisional")
	}
}

func TestClassifier_UpSwipeSign(t *testing.T) {
	c := NewClassifier(DefaultClassifierConfig())

	ev, err := c.Classify(verticalSwipe(-150, 80))
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if ev.Direction != DirectionUp {
		t.Errorf("expected up, got %v", ev.Direction)
	}
}

func TestClassifier_VerticalSwipeNeverHorizontal(t *testing.T) {
	c := NewClassifier(DefaultClassifierConfig())

	// Dominantly vertical with some horizontal drift.
	seq := MotionSequence{DisplayID: "1", ContactID: 1, Samples: []TouchSample{
		sampleAt("1", 1, 0, 0, 0),
		sampleAt("1", 1, 20, 60, 30_000_000),
		sampleAt("1", 1, 40, 150, 60_000_000),
	}}
	ev, err := c.Classify(seq)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if ev.Direction != DirectionDown {
		t.Errorf("expected down, got %v", ev.Direction)
	}
}

func TestClassifier_BelowDisplacementThreshold(t *testing.T) {
	c := NewClassifier(DefaultClassifierConfig())

	ev, err := c.Classify(verticalSwipe(60, 80))
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if ev.Direction != DirectionNone {
		t.Errorf("60px under 100px threshold: expected none, got %v", ev.Direction)
	}
}

func TestClassifier_BelowVelocityThreshold(t *testing.T) {
	c := NewClassifier(DefaultClassifierConfig())

	// 150px over 4s: 37.5px/s peak, under the 100px/s threshold.
	ev, err := c.Classify(verticalSwipe(150, 4000))
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if ev.Direction != DirectionNone {
		t.Errorf("slow drag: expected none, got %v", ev.Direction)
	}
}

func TestClassifier_HorizontalSwipe(t *testing.T) {
	c := NewClassifier(DefaultClassifierConfig())

	seq := MotionSequence{DisplayID: "1", ContactID: 1, Samples: []TouchSample{
		sampleAt("1", 1, 0, 0, 0),
		sampleAt("1", 1, -160, 10, 80_000_000),
	}}
	ev, err := c.Classify(seq)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if ev.Direction != DirectionLeft {
		t.Errorf("expected left, got %v", ev.Direction)
	}
}

func TestClassifier_WanderingPathScoresLower(t *testing.T) {
	c := NewClassifier(DefaultClassifierConfig())

	straight, err := c.Classify(verticalSwipe(150, 80))
	if err != nil {
		t.Fatalf("classify straight: %v", err)
	}

	// Same net displacement, but zig-zagging sideways on the way down.
	wander := MotionSequence{DisplayID: "1", ContactID: 1, Samples: []TouchSample{
		sampleAt("1", 1, 0, 0, 0),
		sampleAt("1", 1, 80, 40, 20_000_000),
		sampleAt("1", 1, -80, 80, 40_000_000),
		sampleAt("1", 1, 60, 110, 60_000_000),
		sampleAt("1", 1, 0, 150, 80_000_000),
	}}
	wandering, err := c.Classify(wander)
	if err != nil {
		t.Fatalf("classify wandering: %v", err)
	}

	if wandering.Confidence >= straight.Confidence {
		t.Errorf("wandering path must score below straight: %v >= %v",
			wandering.Confidence, straight.Confidence)
	}
}

func TestClassifier_DuplicateTimestampsSkipVelocity(t *testing.T) {
	c := NewClassifier(DefaultClassifierConfig())

	seq := MotionSequence{DisplayID: "1", ContactID: 1, Samples: []TouchSample{
		sampleAt("1", 1, 0, 0, 0),
		sampleAt("1", 1, 0, 75, 0), // duplicate timestamp
		sampleAt("1", 1, 0, 150, 80_000_000),
	}}
	ev, err := c.Classify(seq)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if math.IsInf(ev.PeakVelocity, 1) || math.IsNaN(ev.PeakVelocity) {
		t.Fatalf("degenerate dt leaked into velocity: %v", ev.PeakVelocity)
	}
	if ev.Direction != DirectionDown {
		t.Errorf("expected down, got %v", ev.Direction)
	}
}

func TestClassifier_EarlyClassificationMargin(t *testing.T) {
	c := NewClassifier(DefaultClassifierConfig())

	// 120px down: above the 100px threshold but under the 150px early
	// margin (1.5x), so no provisional yet.
	if _, ok := c.ClassifyEarly(verticalSwipe(120, 60)); ok {
		t.Error("expected no provisional below the early margin")
	}

	ev, ok := c.ClassifyEarly(verticalSwipe(180, 60))
	if !ok {
		t.Fatal("expected provisional above the early margin")
	}
	if !ev.Provisional {
		t.Error("early classification must be marked provisional")
	}
	if ev.Direction != DirectionDown {
		t.Errorf("expected down, got %v", ev.Direction)
	}
}

func TestClassifier_EarlyNeedsTwoSamples(t *testing.T) {
	c := NewClassifier(DefaultClassifierConfig())

	seq := MotionSequence{DisplayID: "1", ContactID: 1, Samples: []TouchSample{
		sampleAt("1", 1, 0, 0, 0),
	}}
	if _, ok := c.ClassifyEarly(seq); ok {
		t.Error("single sample cannot classify early")
	}
}
