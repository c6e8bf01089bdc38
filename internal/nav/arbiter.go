package nav

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// ArbiterState is Idle or Armed.
type ArbiterState int

const (
	ArbiterIdle ArbiterState = iota
	ArbiterArmed
)

func (s ArbiterState) String() string {
	if s == ArbiterArmed {
		return "armed"
	}
	return "idle"
}

// ArbitrationRecord describes the programmatic scroll currently in flight.
type ArbitrationRecord struct {
	ID           uuid.UUID
	Programmatic bool
	ArmedAt      time.Time
}

// Arbiter keeps the classifier from fighting programmatic smooth scrolls.
//
// Once armed, classifier output is suppressed unconditionally for the short
// grace window. After that it stays suppressed until either a user scroll
// signal arrives or the long grace window elapses.
type Arbiter struct {
	clock      Clock
	shortGrace time.Duration
	longGrace  time.Duration
	noiseFloor float64

	record   *ArbitrationRecord
	fallback timerSlot

	lastOffset float64
	haveOffset bool
	// direction of the programmatic scroll: -1 up, +1 down, 0 not yet seen.
	direction int

	onDisarm func()
}

// NewArbiter creates an idle arbiter.
func NewArbiter(clock Clock, shortGrace, longGrace time.Duration, noiseFloor float64) *Arbiter {
	if longGrace < shortGrace {
		longGrace = shortGrace
	}
	return &Arbiter{
		clock:      clock,
		shortGrace: shortGrace,
		longGrace:  longGrace,
		noiseFloor: noiseFloor,
		fallback:   timerSlot{clock: clock},
	}
}

// OnDisarm sets a callback run when the arbiter returns to Idle by timer or
// user signal.
func (a *Arbiter) OnDisarm(fn func()) {
	a.onDisarm = fn
}

// State reports Idle or Armed.
func (a *Arbiter) State() ArbiterState {
	if a.record == nil {
		return ArbiterIdle
	}
	return ArbiterArmed
}

// Record returns the active record, if any.
func (a *Arbiter) Record() (ArbitrationRecord, bool) {
	if a.record == nil {
		return ArbitrationRecord{}, false
	}
	return *a.record, true
}

// Arm marks the following scrolls as programmatic. Re-arming restarts both windows.
func (a *Arbiter) Arm() ArbitrationRecord {
	rec := ArbitrationRecord{ID: uuid.New(), Programmatic: true, ArmedAt: a.clock.Now()}
	a.record = &rec
	a.direction = 0
	a.fallback.start(a.longGrace, func() { a.disarm(true) })
	return rec
}

// Suppressing reports whether classifier output must be ignored right now.
func (a *Arbiter) Suppressing() bool {
	if a.record == nil {
		return false
	}
	if a.clock.Now().Sub(a.record.ArmedAt) < a.longGrace {
		return true
	}
	// The fallback timer has not been delivered yet; the window is over regardless.
	a.disarm(false)
	return false
}

// ObserveScroll feeds the current scroll offset. While armed and past the
// short grace window, a move against the programmatic direction larger than
// the noise floor counts as the user taking over.
func (a *Arbiter) ObserveScroll(offset float64) {
	if !a.haveOffset {
		a.lastOffset = offset
		a.haveOffset = true
		return
	}
	delta := offset - a.lastOffset
	a.lastOffset = offset
	if a.record == nil || math.Abs(delta) <= a.noiseFloor {
		return
	}
	dir := 1
	if delta < 0 {
		dir = -1
	}
	if a.direction == 0 {
		a.direction = dir
		return
	}
	if dir != a.direction && a.pastShortGrace() {
		a.disarm(true)
	}
}

// NoteUserInput reports an explicit user scroll (wheel, keys). It is ignored
// inside the short grace window.
func (a *Arbiter) NoteUserInput() {
	if a.record != nil && a.pastShortGrace() {
		a.disarm(true)
	}
}

// Reset returns to Idle without notifying.
func (a *Arbiter) Reset() {
	a.fallback.cancel()
	a.record = nil
	a.direction = 0
}

func (a *Arbiter) pastShortGrace() bool {
	return a.clock.Now().Sub(a.record.ArmedAt) >= a.shortGrace
}

func (a *Arbiter) disarm(notify bool) {
	if a.record == nil {
		return
	}
	a.Reset()
	if notify && a.onDisarm != nil {
		a.onDisarm()
	}
}
