package nav

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Scroller performs the smooth scroll to an in-page anchor. It returns false
// when the anchor does not exist.
type Scroller interface {
	ScrollToAnchor(anchor string) bool
}

// Opener leaves the current page, in a new tab for external links.
type Opener interface {
	Open(href string, newTab bool)
}

// Element is the menu container the navigator is attached to.
type Element interface {
	// ContainsFocus reports whether focus is currently inside the container.
	ContainsFocus() bool
}

// Option customizes a Navigator.
type Option func(*Navigator)

// WithScheduler sets the event loop the navigator runs on.
func WithScheduler(s Scheduler) Option {
	return func(n *Navigator) { n.sched = s }
}

// WithClock sets the time source used for transitions and grace windows.
func WithClock(c Clock) Option {
	return func(n *Navigator) { n.clock = c }
}

// WithScroller sets the anchor scroller.
func WithScroller(s Scroller) Option {
	return func(n *Navigator) { n.scroller = s }
}

// WithOpener sets the handler for external and page links.
func WithOpener(o Opener) Option {
	return func(n *Navigator) { n.opener = o }
}

// WithLogger sets the logger for faults and ignored references.
func WithLogger(l logrus.FieldLogger) Option {
	return func(n *Navigator) { n.log = l }
}

// Navigator is the single entry point UI components talk to.
//
// A Navigator is not safe for concurrent use: call it from the goroutine that
// drives its Scheduler. Timers reach that goroutine through the Clock.
type Navigator struct {
	cfg   Config
	items itemSet

	sched    Scheduler
	clock    Clock
	scroller Scroller
	opener   Opener
	element  Element
	log      logrus.FieldLogger

	store      *Store
	emitter    *Emitter
	classifier Classifier
	arbiter    *Arbiter
	keys       keyboardController

	animTimer      timerSlot
	autoCloseTimer timerSlot

	geometry *Geometry
	ticking  bool

	destroyed atomic.Bool
}

// New builds a Navigator for cfg. Without WithScheduler the navigator owns a
// Loop, reachable through Loop; without WithClock it uses the wall clock.
func New(cfg Config, opts ...Option) (*Navigator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	items, err := newItemSet(cfg.Items)
	if err != nil {
		return nil, err
	}
	n := &Navigator{cfg: cfg.clone(), items: items}
	for _, opt := range opts {
		opt(n)
	}
	if n.log == nil {
		n.log = logrus.StandardLogger()
	}
	if n.sched == nil {
		n.sched = NewLoop(defaultPostBuffer)
	}
	if n.clock == nil {
		loop, ok := n.sched.(*Loop)
		if !ok {
			loop = NewLoop(defaultPostBuffer)
		}
		n.clock = NewSystemClock(loop)
	}

	n.store = NewStore(State{ActiveItem: items.first().ID}, n.sched, n.log)
	n.emitter = NewEmitter(n.log)
	n.classifier = NewClassifier(cfg.Strategy)
	n.arbiter = NewArbiter(n.clock, cfg.ShortGrace, cfg.LongGrace, cfg.NoiseFloor)
	n.arbiter.OnDisarm(n.requestEvaluation)
	n.keys = keyboardController{n: n}
	n.animTimer = timerSlot{clock: n.clock}
	n.autoCloseTimer = timerSlot{clock: n.clock}
	return n, nil
}

// Loop returns the navigator's Loop when it was constructed without an
// external Scheduler, or when the supplied Scheduler is a *Loop.
func (n *Navigator) Loop() *Loop {
	l, _ := n.sched.(*Loop)
	return l
}

// State returns a copy of the committed state.
func (n *Navigator) State() State {
	return n.store.State()
}

// Config returns a copy of the configuration.
func (n *Navigator) Config() Config {
	return n.cfg.clone()
}

// Items returns the items in position order.
func (n *Navigator) Items() []Item {
	return n.items.clone()
}

// Item looks up an item by id.
func (n *Navigator) Item(id ItemID) (Item, bool) {
	return n.items.lookup(id)
}

// Classifier returns the classifier in use.
func (n *Navigator) Classifier() Classifier {
	return n.classifier
}

// ArbiterState reports whether a programmatic scroll is being shielded.
func (n *Navigator) ArbiterState() ArbiterState {
	return n.arbiter.State()
}

// Subscribe registers fn for committed states and calls it once right away.
func (n *Navigator) Subscribe(fn Subscriber) func() {
	if n.destroyed.Load() {
		return func() {}
	}
	return n.store.Subscribe(fn)
}

// On registers an event handler.
func (n *Navigator) On(t EventType, h Handler) func() {
	if n.destroyed.Load() {
		return func() {}
	}
	return n.emitter.On(t, h)
}

// SetElement attaches the menu container; nil detaches it.
func (n *Navigator) SetElement(el Element) {
	if n.destroyed.Load() {
		return
	}
	n.element = el
}

// Open shows the menu. Opening an open menu does nothing.
func (n *Navigator) Open() {
	if n.destroyed.Load() {
		return
	}
	st := n.store.Peek()
	if st.IsOpen {
		return
	}
	p := Patch{IsOpen: boolPtr(true)}
	if st.KeyboardMode && st.FocusedItem == "" {
		p.FocusedItem = idPtr(st.ActiveItem)
	}
	n.startTransition(p)
	n.emit(EventOpen, "", "", uuid.Nil)
}

// Close hides the menu and clears hover and focus. Closing a closed menu does nothing.
func (n *Navigator) Close() {
	if n.destroyed.Load() {
		return
	}
	n.close()
}

func (n *Navigator) close() {
	if !n.store.Peek().IsOpen {
		return
	}
	n.autoCloseTimer.cancel()
	n.startTransition(Patch{
		IsOpen:      boolPtr(false),
		HoveredItem: idPtr(""),
		FocusedItem: idPtr(""),
	})
	n.emit(EventClose, "", "", uuid.Nil)
}

// Toggle opens a closed menu and closes an open one.
func (n *Navigator) Toggle() {
	if n.destroyed.Load() {
		return
	}
	if n.store.Peek().IsOpen {
		n.close()
		return
	}
	n.Open()
}

func (n *Navigator) startTransition(p Patch) {
	if n.cfg.AnimationDuration <= 0 {
		p.IsAnimating = boolPtr(false)
		n.store.BatchUpdate(p)
		return
	}
	p.IsAnimating = boolPtr(true)
	n.store.BatchUpdate(p)
	n.animTimer.start(n.cfg.AnimationDuration, func() {
		if n.destroyed.Load() {
			return
		}
		n.store.BatchUpdate(Patch{IsAnimating: boolPtr(false)})
	})
}

// SetHoveredItem records the pointer-hover target; "" clears it. With
// auto-close enabled, hovering cancels a pending close and un-hovering
// schedules one.
func (n *Navigator) SetHoveredItem(id ItemID) {
	if n.destroyed.Load() {
		return
	}
	if id != "" && !n.items.has(id) {
		n.log.WithField("item", id).Debug("ignoring hover on unknown navigation item")
		return
	}
	if n.cfg.AutoClose {
		if id != "" {
			n.autoCloseTimer.cancel()
		} else if n.store.Peek().IsOpen {
			n.autoCloseTimer.start(n.cfg.AutoCloseDelay, func() {
				if n.destroyed.Load() {
					return
				}
				n.close()
			})
		}
	}
	if n.store.Peek().HoveredItem == id {
		return
	}
	n.store.BatchUpdate(Patch{HoveredItem: idPtr(id)})
	n.emit(EventHover, id, "", uuid.Nil)
}

// SetFocusedItem moves keyboard focus to id; "" clears it.
func (n *Navigator) SetFocusedItem(id ItemID) {
	if n.destroyed.Load() {
		return
	}
	if id == "" {
		n.keys.focus("")
		return
	}
	if !n.items.has(id) {
		n.log.WithField("item", id).Debug("ignoring focus on unknown navigation item")
		return
	}
	n.keys.focus(id)
}

// Navigate activates id: the active item changes immediately, the menu
// closes, the arbiter is armed and the scroll or page change is issued.
// Unknown ids are ignored.
func (n *Navigator) Navigate(id ItemID) {
	if n.destroyed.Load() {
		return
	}
	n.navigate(id)
}

func (n *Navigator) navigate(id ItemID) {
	item, ok := n.items.lookup(id)
	if !ok {
		n.log.WithField("item", id).Debug("ignoring navigation to unknown item")
		return
	}
	n.setActive(id)
	n.close()
	rec := n.arbiter.Arm()
	n.emit(EventNavigate, id, item.Href, rec.ID)

	switch item.Kind() {
	case LinkAnchor:
		if n.scroller == nil || !n.scroller.ScrollToAnchor(item.Anchor()) {
			n.log.WithField("anchor", item.Anchor()).Debug("navigation anchor not found")
		}
	case LinkExternal:
		if n.opener != nil {
			n.opener.Open(item.Href, true)
		}
	case LinkPage:
		if n.opener != nil {
			n.opener.Open(item.Href, false)
		}
	}
}

func (n *Navigator) setActive(id ItemID) {
	if n.store.Peek().ActiveItem == id {
		return
	}
	n.store.BatchUpdate(Patch{ActiveItem: idPtr(id)})
	n.emit(EventActivate, id, "", uuid.Nil)
}

// HandleScroll records the latest geometry. Classification runs at most once
// per frame, on the most recent geometry.
func (n *Navigator) HandleScroll(g Geometry) {
	if n.destroyed.Load() {
		return
	}
	n.geometry = &g
	n.arbiter.ObserveScroll(g.ScrollOffset)
	n.requestEvaluation()
}

// NoteUserScroll reports scroll input that definitely came from the user.
func (n *Navigator) NoteUserScroll() {
	if n.destroyed.Load() {
		return
	}
	n.arbiter.NoteUserInput()
}

func (n *Navigator) requestEvaluation() {
	if n.ticking || n.geometry == nil || n.destroyed.Load() {
		return
	}
	n.ticking = true
	n.sched.RequestFrame(n.onFrame)
}

func (n *Navigator) onFrame() {
	n.ticking = false
	if n.destroyed.Load() || n.geometry == nil {
		return
	}
	if n.arbiter.Suppressing() {
		return
	}
	anchor, ok := n.classifier.Classify(*n.geometry)
	if !ok {
		return
	}
	id, ok := n.items.forAnchor(anchor)
	if !ok {
		return
	}
	n.setActive(id)
}

// HandleDocumentKey handles keys that apply regardless of focus: Tab enters
// keyboard mode and Escape closes the menu. It reports whether the key was used.
func (n *Navigator) HandleDocumentKey(k Key) bool {
	if n.destroyed.Load() || !n.cfg.Keyboard {
		return false
	}
	return n.keys.documentKey(k)
}

// HandleMenuKey handles a key pressed inside the menu container.
func (n *Navigator) HandleMenuKey(k Key) bool {
	if n.destroyed.Load() || !n.cfg.Keyboard {
		return false
	}
	return n.keys.menuKey(k)
}

// HandleKeyUp handles a key release; Alt and Control arm the mouse-move reset.
func (n *Navigator) HandleKeyUp(k Key) {
	if n.destroyed.Load() || !n.cfg.Keyboard {
		return
	}
	n.keys.keyUp(k)
}

// HandleMouseMove handles raw pointer movement.
func (n *Navigator) HandleMouseMove() {
	if n.destroyed.Load() {
		return
	}
	n.keys.mouseMove()
}

// FocusIn reports native focus landing on item id.
func (n *Navigator) FocusIn(id ItemID) {
	if n.destroyed.Load() {
		return
	}
	n.keys.focusIn(id)
}

// FocusOut reports native focus leaving an item.
func (n *Navigator) FocusOut() {
	if n.destroyed.Load() {
		return
	}
	n.keys.focusOut()
}

// Destroyed reports whether Destroy was called.
func (n *Navigator) Destroyed() bool {
	return n.destroyed.Load()
}

// Destroy tears the navigator down. Every later call is a no-op.
func (n *Navigator) Destroy() {
	if n.destroyed.Swap(true) {
		return
	}
	n.store.Clear()
	n.emitter.Clear()
	n.animTimer.cancel()
	n.autoCloseTimer.cancel()
	n.arbiter.Reset()
	n.keys.reset()
	n.element = nil
	n.scroller = nil
	n.opener = nil
	n.geometry = nil
}

func (n *Navigator) emit(t EventType, id ItemID, href string, navID uuid.UUID) {
	n.emitter.Emit(Event{Type: t, Item: id, Href: href, NavigationID: navID, At: n.clock.Now()})
}

// Root owns the application's navigator and builds it on first use.
type Root struct {
	cfg  Config
	opts []Option

	once sync.Once
	nav  *Navigator
	err  error
}

// NewRoot prepares a Root; nothing is constructed until Navigator is called.
func NewRoot(cfg Config, opts ...Option) *Root {
	return &Root{cfg: cfg, opts: opts}
}

// Navigator returns the shared navigator, constructing it once.
func (r *Root) Navigator() (*Navigator, error) {
	r.once.Do(func() {
		r.nav, r.err = New(r.cfg, r.opts...)
	})
	return r.nav, r.err
}
