package tui

import (
	"encoding/json"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/ensigniasec/sitenav/internal/nav"
)

// eventRecord is one JSON line of the event log.
type eventRecord struct {
	Page string `json:"page"`
	nav.Event
}

// eventLog appends every navigator event to w as JSON lines.
type eventLog struct {
	enc *json.Encoder
	log logrus.FieldLogger
}

func newEventLog(w io.Writer, log logrus.FieldLogger) *eventLog {
	if w == nil {
		return nil
	}
	return &eventLog{enc: json.NewEncoder(w), log: log}
}

//nolint:gochecknoglobals // Fixed list of event types.
var loggedEvents = []nav.EventType{
	nav.EventOpen,
	nav.EventClose,
	nav.EventActivate,
	nav.EventNavigate,
	nav.EventHover,
}

// attach subscribes to every event type of n. Handlers go away with n.Destroy.
func (l *eventLog) attach(n *nav.Navigator, page string) {
	for _, t := range loggedEvents {
		n.On(t, func(ev nav.Event) {
			if err := l.enc.Encode(eventRecord{Page: page, Event: ev}); err != nil {
				l.log.WithError(err).Debug("writing event log")
			}
		})
	}
}
