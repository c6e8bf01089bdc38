package nav

import (
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// EventType names a navigator event.
type EventType string

const (
	EventOpen     EventType = "navigation:open"
	EventClose    EventType = "navigation:close"
	EventActivate EventType = "navigation:activate"
	EventNavigate EventType = "navigation:navigate"
	EventHover    EventType = "navigation:hover"
)

// Event is emitted synchronously when the navigator changes in a way
// loosely-coupled listeners care about.
type Event struct {
	Type EventType `json:"type"`
	Item ItemID    `json:"item,omitempty"`
	Href string    `json:"href,omitempty"`
	// NavigationID correlates a navigate event with its arbitration record.
	NavigationID uuid.UUID `json:"navigation_id,omitempty"`
	At           time.Time `json:"at"`
}

// Handler receives events of one type.
type Handler func(Event)

type handlerEntry struct {
	fn      Handler
	removed bool
}

// Emitter dispatches typed events to registered handlers.
type Emitter struct {
	handlers map[EventType][]*handlerEntry
	log      logrus.FieldLogger
}

// NewEmitter returns an emitter with no handlers.
func NewEmitter(log logrus.FieldLogger) *Emitter {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Emitter{handlers: make(map[EventType][]*handlerEntry), log: log}
}

// On registers h for t and returns a func that removes it.
func (e *Emitter) On(t EventType, h Handler) func() {
	if h == nil {
		return func() {}
	}
	entry := &handlerEntry{fn: h}
	e.handlers[t] = append(e.handlers[t], entry)
	return func() {
		if entry.removed {
			return
		}
		entry.removed = true
		list := e.handlers[t]
		for i, cur := range list {
			if cur == entry {
				e.handlers[t] = append(list[:i], list[i+1:]...)
				return
			}
		}
	}
}

// Emit calls every handler registered for ev.Type in registration order.
func (e *Emitter) Emit(ev Event) {
	list := e.handlers[ev.Type]
	if len(list) == 0 {
		return
	}
	snapshot := make([]*handlerEntry, len(list))
	copy(snapshot, list)
	for _, entry := range snapshot {
		if entry.removed {
			continue
		}
		e.call(entry.fn, ev)
	}
}

func (e *Emitter) call(h Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			e.log.WithFields(logrus.Fields{"event": ev.Type, "panic": r}).Error("navigation event handler failed")
		}
	}()
	h(ev)
}

// Clear removes every handler.
func (e *Emitter) Clear() {
	for _, list := range e.handlers {
		for _, entry := range list {
			entry.removed = true
		}
	}
	e.handlers = make(map[EventType][]*handlerEntry)
}
