package nav

import (
	"github.com/sirupsen/logrus"
)

// Subscriber receives every committed State.
type Subscriber func(State)

type subscription struct {
	id      int
	fn      Subscriber
	removed bool
}

// Store serializes state mutations. Patches are buffered and committed in a
// single flush per scheduler tick; subscribers never see a partial update.
type Store struct {
	state State

	pending    Patch
	hasPending bool
	scheduled  bool
	flushing   bool

	subs   []*subscription
	nextID int

	sched Scheduler
	log   logrus.FieldLogger
}

// NewStore creates a Store holding initial.
func NewStore(initial State, sched Scheduler, log logrus.FieldLogger) *Store {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Store{state: initial, sched: sched, log: log}
}

// State returns the last committed state.
func (s *Store) State() State {
	return s.state
}

// Peek returns the committed state with any buffered patch applied.
func (s *Store) Peek() State {
	if !s.hasPending {
		return s.state
	}
	return s.pending.Apply(s.state)
}

// BatchUpdate buffers p and schedules a flush if none is pending.
func (s *Store) BatchUpdate(p Patch) {
	if p.Empty() {
		return
	}
	s.pending = s.pending.Merge(p)
	s.hasPending = true
	if s.flushing {
		// Rescheduled once the in-flight flush completes.
		return
	}
	s.schedule()
}

func (s *Store) schedule() {
	if s.scheduled {
		return
	}
	s.scheduled = true
	s.sched.Defer(s.flush)
}

func (s *Store) flush() {
	s.scheduled = false
	if !s.hasPending {
		return
	}
	patch := s.pending
	s.pending = Patch{}
	s.hasPending = false

	next := patch.Apply(s.state)
	if next == s.state {
		return
	}
	s.state = next

	s.flushing = true
	subs := make([]*subscription, len(s.subs))
	copy(subs, s.subs)
	for _, sub := range subs {
		if sub.removed {
			continue
		}
		s.deliver(sub, next)
	}
	s.flushing = false

	if s.hasPending {
		s.schedule()
	}
}

// deliver isolates a faulty subscriber from the others.
func (s *Store) deliver(sub *subscription, st State) {
	defer func() {
		if r := recover(); r != nil {
			s.log.WithFields(logrus.Fields{
				"subscriber": sub.id,
				"panic":      r,
			}).Error("navigation subscriber failed")
		}
	}()
	sub.fn(st)
}

// Subscribe registers fn and immediately calls it with the committed state.
// The returned func unsubscribes; calling it more than once is harmless.
func (s *Store) Subscribe(fn Subscriber) func() {
	if fn == nil {
		return func() {}
	}
	s.nextID++
	sub := &subscription{id: s.nextID, fn: fn}
	s.subs = append(s.subs, sub)
	s.deliver(sub, s.state)
	return func() { s.unsubscribe(sub) }
}

func (s *Store) unsubscribe(sub *subscription) {
	if sub.removed {
		return
	}
	sub.removed = true
	for i, cur := range s.subs {
		if cur == sub {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			return
		}
	}
}

// Subscribers returns the number of live subscriptions.
func (s *Store) Subscribers() int {
	return len(s.subs)
}

// Clear drops every subscriber and any buffered patch.
func (s *Store) Clear() {
	for _, sub := range s.subs {
		sub.removed = true
	}
	s.subs = nil
	s.pending = Patch{}
	s.hasPending = false
}
