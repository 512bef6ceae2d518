package gesture

import (
	"sync"
)

// DefaultSampleCapacity bounds the per-contact sample ring when the
// configured capacity is not positive.
const DefaultSampleCapacity = 64

type contactKey struct {
	DisplayID string
	ContactID int64
}

// contactRecord is a fixed-capacity ring of samples for one contact.
type contactRecord struct {
	samples []TouchSample
	head    int // next write position
	size    int

	firstNanos     int64
	evicted        int
	peakConcurrent int
}

func (cr *contactRecord) add(s TouchSample) {
	if cr.size == len(cr.samples) {
		cr.evicted++
	} else {
		cr.size++
	}
	cr.samples[cr.head] = s
	cr.head = (cr.head + 1) % len(cr.samples)
}

// ordered returns the retained samples oldest first.
func (cr *contactRecord) ordered() []TouchSample {
	out := make([]TouchSample, cr.size)
	for i := 0; i < cr.size; i++ {
		idx := (cr.head - cr.size + i + len(cr.samples)) % len(cr.samples)
		out[i] = cr.samples[idx]
	}
	return out
}

// SampleBuffer stores the bounded sample history for every active contact.
// Capacity is per contact; the oldest sample is evicted on overflow so an
// unreasonably slow drag cannot grow memory without bound.
type SampleBuffer struct {
	mu       sync.Mutex
	capacity int
	contacts map[contactKey]*contactRecord
}

// NewSampleBuffer creates a buffer with the given per-contact capacity.
func NewSampleBuffer(capacity int) *SampleBuffer {
	if capacity < 2 {
		capacity = DefaultSampleCapacity
	}
	return &SampleBuffer{
		capacity: capacity,
		contacts: make(map[contactKey]*contactRecord),
	}
}

// Record appends a sample to the sequence for its (display, contact),
// creating the sequence on the first sample.
func (b *SampleBuffer) Record(s TouchSample) {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := contactKey{DisplayID: s.DisplayID, ContactID: s.ContactID}
	cr, ok := b.contacts[key]
	if !ok {
		cr = &contactRecord{
			samples:    make([]TouchSample, b.capacity),
			firstNanos: s.TimestampNanos,
		}
		b.contacts[key] = cr
	}
	cr.add(s)

	// Multi-touch taints every sequence live on the display, not just the
	// newest one: a swipe joined mid-flight by a second finger is
	// ambiguous no matter which contact releases first.
	live := 0
	for k := range b.contacts {
		if k.DisplayID == s.DisplayID {
			live++
		}
	}
	for k, other := range b.contacts {
		if k.DisplayID == s.DisplayID && live > other.peakConcurrent {
			other.peakConcurrent = live
		}
	}
}

// Peek returns a snapshot of the in-progress sequence without removing it.
func (b *SampleBuffer) Peek(displayID string, contactID int64) (MotionSequence, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	cr, ok := b.contacts[contactKey{DisplayID: displayID, ContactID: contactID}]
	if !ok {
		return MotionSequence{}, ErrUnknownContact
	}
	return MotionSequence{
		DisplayID:      displayID,
		ContactID:      contactID,
		Samples:        cr.ordered(),
		Evicted:        cr.evicted,
		PeakConcurrent: cr.peakConcurrent,
	}, nil
}

// Finalize removes and returns the completed sequence for the contact.
func (b *SampleBuffer) Finalize(displayID string, contactID int64) (MotionSequence, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := contactKey{DisplayID: displayID, ContactID: contactID}
	cr, ok := b.contacts[key]
	if !ok {
		return MotionSequence{}, ErrUnknownContact
	}
	delete(b.contacts, key)
	return MotionSequence{
		DisplayID:      displayID,
		ContactID:      contactID,
		Samples:        cr.ordered(),
		Evicted:        cr.evicted,
		PeakConcurrent: cr.peakConcurrent,
	}, nil
}

// Discard drops the sequence without classification (cancel and
// deadline paths).
func (b *SampleBuffer) Discard(displayID string, contactID int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := contactKey{DisplayID: displayID, ContactID: contactID}
	if _, ok := b.contacts[key]; !ok {
		return ErrUnknownContact
	}
	delete(b.contacts, key)
	return nil
}

// ActiveContacts returns the number of live contacts on a display.
func (b *SampleBuffer) ActiveContacts(displayID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := 0
	for key := range b.contacts {
		if key.DisplayID == displayID {
			n++
		}
	}
	return n
}

// Expired returns the contacts on a display whose first sample is older
// than the deadline. The classifier treats these as abandoned.
func (b *SampleBuffer) Expired(displayID string, nowNanos, deadlineNanos int64) []int64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	var stale []int64
	for key, cr := range b.contacts {
		if key.DisplayID != displayID {
			continue
		}
		if nowNanos-cr.firstNanos > deadlineNanos {
			stale = append(stale, key.ContactID)
		}
	}
	return stale
}
