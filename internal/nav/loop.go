package nav

import "time"

// Scheduler defers work onto the event loop that drives a Navigator.
type Scheduler interface {
	// Defer runs fn after the current task, before the next frame.
	Defer(fn func())
	// RequestFrame runs fn on the next frame.
	RequestFrame(fn func())
}

// Clock abstracts time so grace windows and transitions can be tested deterministically.
type Clock interface {
	Now() time.Time
	// AfterFunc calls fn on the event loop after d. The returned stop func
	// reports whether the call was prevented.
	AfterFunc(d time.Duration, fn func()) (stop func() bool)
}

const defaultPostBuffer = 256

// Loop is a single-goroutine task queue. Defer and RequestFrame must only be
// called from the goroutine that runs Drain, RunFrame and RunPosted; Post is
// safe from any goroutine.
type Loop struct {
	deferred []func()
	frames   []func()
	posted   chan func()
}

// NewLoop creates a Loop whose Post queue holds up to buffer callbacks.
func NewLoop(buffer int) *Loop {
	if buffer <= 0 {
		buffer = defaultPostBuffer
	}
	return &Loop{posted: make(chan func(), buffer)}
}

// Defer implements Scheduler.
func (l *Loop) Defer(fn func()) {
	l.deferred = append(l.deferred, fn)
}

// RequestFrame implements Scheduler.
func (l *Loop) RequestFrame(fn func()) {
	l.frames = append(l.frames, fn)
}

// Post queues fn from any goroutine. It blocks when the queue is full.
func (l *Loop) Post(fn func()) {
	l.posted <- fn
}

// Posted exposes the cross-goroutine queue so a host loop can select on it.
func (l *Loop) Posted() <-chan func() {
	return l.posted
}

// Drain runs deferred callbacks until none remain, including ones queued while draining.
func (l *Loop) Drain() {
	for len(l.deferred) > 0 {
		fn := l.deferred[0]
		l.deferred[0] = nil
		l.deferred = l.deferred[1:]
		fn()
	}
}

// RunFrame runs the callbacks requested before this frame started.
func (l *Loop) RunFrame() {
	l.Drain()
	frames := l.frames
	l.frames = nil
	for _, fn := range frames {
		fn()
		l.Drain()
	}
}

// Run executes a posted callback on the loop goroutine and drains afterwards.
func (l *Loop) Run(fn func()) {
	if fn != nil {
		fn()
	}
	l.Drain()
}

// RunPosted runs every callback currently queued by Post without blocking.
func (l *Loop) RunPosted() int {
	n := 0
	for {
		select {
		case fn := <-l.posted:
			l.Run(fn)
			n++
		default:
			return n
		}
	}
}

// PendingFrame reports whether a frame callback is waiting.
func (l *Loop) PendingFrame() bool {
	return len(l.frames) > 0
}

// SystemClock is the wall clock. Timer callbacks fire on their own goroutine
// and are handed back to the loop through post.
type SystemClock struct {
	post func(func())
}

// NewSystemClock returns a wall clock whose timers are delivered through l.
func NewSystemClock(l *Loop) SystemClock {
	return SystemClock{post: l.Post}
}

// Now implements Clock.
func (c SystemClock) Now() time.Time { return time.Now() }

// AfterFunc implements Clock.
func (c SystemClock) AfterFunc(d time.Duration, fn func()) func() bool {
	t := time.AfterFunc(d, func() { c.post(fn) })
	return t.Stop
}

// timerSlot owns at most one pending timer. A callback that was already handed
// to the loop when the slot was stopped or restarted is discarded.
type timerSlot struct {
	clock Clock
	stop  func() bool
	gen   uint64
}

func (s *timerSlot) start(d time.Duration, fn func()) {
	s.cancel()
	gen := s.gen
	s.stop = s.clock.AfterFunc(d, func() {
		if s.gen != gen {
			return
		}
		s.stop = nil
		fn()
	})
}

func (s *timerSlot) cancel() {
	if s.stop != nil {
		s.stop()
		s.stop = nil
	}
	s.gen++
}

func (s *timerSlot) active() bool {
	return s.stop != nil
}
