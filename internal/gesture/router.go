package gesture

import (
	"context"
	"sync"
	"time"

	"github.com/banshee-data/overlay.router/internal/monitoring"
)

// RouterConfig holds the input pipeline tuning.
type RouterConfig struct {
	Classifier ClassifierConfig
	Arbiter    ArbiterConfig

	// SampleBufferCapacity bounds each contact's sample ring.
	SampleBufferCapacity int

	// InputQueueDepth bounds each display's input queue. Samples beyond
	// it are dropped with a log line; blocking the input source is worse
	// than losing a sample mid-gesture.
	InputQueueDepth int

	// ClassificationDeadline is how long a contact may stay live before
	// its sequence is abandoned as a None gesture.
	ClassificationDeadline time.Duration
}

// DefaultRouterConfig returns the stock pipeline tuning.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		Classifier:             DefaultClassifierConfig(),
		Arbiter:                DefaultArbiterConfig(),
		SampleBufferCapacity:   DefaultSampleCapacity,
		InputQueueDepth:        256,
		ClassificationDeadline: 2 * time.Second,
	}
}

type inputKind int

const (
	inputSample inputKind = iota
	inputRelease
	inputCancel
)

type inputEvent struct {
	kind      inputKind
	sample    TouchSample // inputSample only
	contactID int64       // inputRelease / inputCancel
}

// displayWorker serializes one display's gesture pipeline. Samples are
// processed strictly in arrival order; classification order across
// displays is unspecified.
type displayWorker struct {
	displayID string
	input     chan inputEvent
	done      chan struct{}
	logf      func(format string, v ...interface{})
}

// Router is the input facade of the core: it fans touch events out to
// one FIFO worker per display, runs classification and arbitration, and
// hands decisions to the coordinator.
type Router struct {
	cfg        RouterConfig
	buffer     *SampleBuffer
	classifier *Classifier
	arbiter    *Arbiter
	coord      *Coordinator
	recorder   Recorder // optional

	mu      sync.RWMutex
	workers map[string]*displayWorker
	ctx     context.Context
	wg      sync.WaitGroup
}

// NewRouter creates a router feeding the coordinator. recorder may be nil.
func NewRouter(cfg RouterConfig, coord *Coordinator, recorder Recorder) *Router {
	if cfg.InputQueueDepth <= 0 {
		cfg.InputQueueDepth = 256
	}
	if cfg.ClassificationDeadline <= 0 {
		cfg.ClassificationDeadline = 2 * time.Second
	}
	return &Router{
		cfg:        cfg,
		buffer:     NewSampleBuffer(cfg.SampleBufferCapacity),
		classifier: NewClassifier(cfg.Classifier),
		arbiter:    NewArbiter(cfg.Arbiter),
		coord:      coord,
		recorder:   recorder,
		workers:    make(map[string]*displayWorker),
	}
}

// Run starts the router; workers attached before or after Run share the
// same lifetime. Returns when the context is cancelled.
func (r *Router) Run(ctx context.Context) {
	r.mu.Lock()
	r.ctx = ctx
	workers := make([]*displayWorker, 0, len(r.workers))
	for _, w := range r.workers {
		workers = append(workers, w)
	}
	r.mu.Unlock()

	for _, w := range workers {
		r.startWorker(ctx, w)
	}
	<-ctx.Done()
	r.wg.Wait()
}

// AttachDisplay creates the display's pipeline worker. Idempotent.
func (r *Router) AttachDisplay(displayID string) {
	r.mu.Lock()
	if _, ok := r.workers[displayID]; ok {
		r.mu.Unlock()
		return
	}
	w := &displayWorker{
		displayID: displayID,
		input:     make(chan inputEvent, r.cfg.InputQueueDepth),
		done:      make(chan struct{}),
		logf:      monitoring.Prefixed("display " + displayID),
	}
	r.workers[displayID] = w
	ctx := r.ctx
	r.mu.Unlock()

	if ctx != nil {
		r.startWorker(ctx, w)
	}
}

// DetachDisplay removes the display's worker. Queued events are dropped.
func (r *Router) DetachDisplay(displayID string) {
	r.mu.Lock()
	w, ok := r.workers[displayID]
	if ok {
		delete(r.workers, displayID)
	}
	r.mu.Unlock()
	if !ok {
		return
	}
	// The input channel is never closed: a racing enqueue that captured
	// the worker before the delete may still send on it, and a send on a
	// closed channel would panic. The worker exits via done instead.
	close(w.done)
}

func (r *Router) startWorker(ctx context.Context, w *displayWorker) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.workerLoop(ctx, w)
	}()
}

func (r *Router) workerLoop(ctx context.Context, w *displayWorker) {
	sweep := time.NewTicker(r.cfg.ClassificationDeadline / 2)
	defer sweep.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case ev := <-w.input:
			r.handle(w, ev)
		case now := <-sweep.C:
			r.sweepAbandoned(w, now.UnixNano())
		}
	}
}

// OnTouch records a pointer sample. Samples for displays with no
// attached worker are rejected with ErrUnknownDisplay.
func (r *Router) OnTouch(sample TouchSample) error {
	return r.enqueue(sample.DisplayID, inputEvent{kind: inputSample, sample: sample})
}

// OnRelease finalizes the contact's sequence and runs classification and
// arbitration.
func (r *Router) OnRelease(displayID string, contactID int64) error {
	return r.enqueue(displayID, inputEvent{kind: inputRelease, contactID: contactID})
}

// OnCancel drops the contact's sequence without classification,
// retracting any provisional decision it produced.
func (r *Router) OnCancel(displayID string, contactID int64) error {
	return r.enqueue(displayID, inputEvent{kind: inputCancel, contactID: contactID})
}

func (r *Router) enqueue(displayID string, ev inputEvent) error {
	r.mu.RLock()
	w, ok := r.workers[displayID]
	r.mu.RUnlock()
	if !ok {
		return ErrUnknownDisplay
	}

	select {
	case w.input <- ev:
	default:
		w.logf("input queue full, dropping event")
	}
	return nil
}

func (r *Router) handle(w *displayWorker, ev inputEvent) {
	switch ev.kind {
	case inputSample:
		r.handleSample(w, ev.sample)
	case inputRelease:
		r.handleRelease(w, ev.contactID)
	case inputCancel:
		r.handleCancel(w, ev.contactID)
	}
}

func (r *Router) handleSample(w *displayWorker, sample TouchSample) {
	r.buffer.Record(sample)

	// Early classification: dispatch a provisional decision the moment a
	// live sequence clears the widened thresholds, at most once per
	// contact.
	if r.arbiter.HasProvisional(sample.DisplayID, sample.ContactID) {
		return
	}
	seq, err := r.buffer.Peek(sample.DisplayID, sample.ContactID)
	if err != nil {
		return
	}
	provisional, ok := r.classifier.ClassifyEarly(seq)
	if !ok {
		return
	}
	d, ok := r.arbiter.ProposeProvisional(provisional, seq.PeakConcurrent)
	if !ok {
		return
	}
	r.recordGesture(w, provisional)
	r.dispatch(w, d)
}

func (r *Router) handleRelease(w *displayWorker, contactID int64) {
	seq, err := r.buffer.Finalize(w.displayID, contactID)
	if err != nil {
		w.logf("release for contact %d: %v", contactID, err)
		return
	}

	final := DirectionNone
	ev, err := r.classifier.Classify(seq)
	if err == nil {
		final = ev.Direction
		r.recordGesture(w, ev)
	} else {
		// Under two samples: treated as a None gesture, never fatal.
		w.logf("contact %d: %v", contactID, err)
	}

	now := time.Now().UnixNano()

	// A sequence that ever shared the surface with a second finger is
	// ambiguous even after the other contact lifted; the released contact
	// plus the still-live ones were necessarily concurrent, so live+1 is
	// a floor on the observed peak.
	concurrentAtRelease := seq.PeakConcurrent
	if live := r.buffer.ActiveContacts(w.displayID); live+1 > concurrentAtRelease {
		concurrentAtRelease = live + 1
	}

	// A dispatched provisional either stands (confirming direction, the
	// overlay is already animating) or is retracted. A second finger
	// landing after the provisional fired makes the whole sequence
	// ambiguous, so it is retracted even on a confirming direction.
	if r.arbiter.HasProvisional(w.displayID, contactID) {
		if concurrentAtRelease > 1 {
			final = DirectionNone
		}
		if d, retract := r.arbiter.Reconcile(w.displayID, contactID, final); retract {
			r.dispatch(w, d)
		}
		return
	}

	if err == nil {
		r.arbiter.Observe(ev, now)
	}
	d := r.arbiter.Decide(w.displayID, concurrentAtRelease, now)
	r.dispatch(w, d)
}

func (r *Router) handleCancel(w *displayWorker, contactID int64) {
	if err := r.buffer.Discard(w.displayID, contactID); err != nil {
		w.logf("cancel for contact %d: %v", contactID, err)
	}
	if d, retract := r.arbiter.Reconcile(w.displayID, contactID, DirectionNone); retract {
		r.dispatch(w, d)
	}
}

// sweepAbandoned abandons contacts that outlived the classification
// deadline: their sequences are dropped and any provisional decision is
// retracted, bounding buffer memory.
func (r *Router) sweepAbandoned(w *displayWorker, nowNanos int64) {
	for _, contactID := range r.buffer.Expired(w.displayID, nowNanos, r.cfg.ClassificationDeadline.Nanoseconds()) {
		w.logf("contact %d exceeded classification deadline, abandoning", contactID)
		_ = r.buffer.Discard(w.displayID, contactID)
		if d, retract := r.arbiter.Reconcile(w.displayID, contactID, DirectionNone); retract {
			r.dispatch(w, d)
		}
	}
}

func (r *Router) dispatch(w *displayWorker, d ArbitrationDecision) {
	if err := r.coord.Dispatch(d); err != nil {
		w.logf("dispatch decision %s: %v", d.DecisionID, err)
	}
}

func (r *Router) recordGesture(w *displayWorker, ev GestureEvent) {
	if r.recorder == nil {
		return
	}
	if err := r.recorder.RecordGesture(ev); err != nil {
		w.logf("record gesture %s: %v", ev.EventID, err)
	}
}
