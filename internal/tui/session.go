package tui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/browser"
	"github.com/sirupsen/logrus"

	"github.com/ensigniasec/sitenav/internal/config"
	"github.com/ensigniasec/sitenav/internal/content"
	"github.com/ensigniasec/sitenav/internal/nav"
	"github.com/ensigniasec/sitenav/internal/storage"
)

// pendingOpen is a link the navigator asked to follow; Update turns it into a command.
type pendingOpen struct {
	href   string
	newTab bool
}

// session is the mutable state shared by every copy of Model. The navigator
// calls back into it as Scroller, Opener and Element.
type session struct {
	cfg   *config.Config
	root  string
	store *storage.Storage
	log   logrus.FieldLogger
	elog  *eventLog

	loop  *nav.Loop
	clock nav.Clock
	nav   *nav.Navigator

	pagePath  string
	page      *content.Page
	rendering *content.Rendering
	history   []string

	state  nav.State
	scroll *smoothScroll

	viewportHeight int
	bodyWidth      int

	// focusInside is true while keyboard or pointer focus is on a menu row.
	focusInside bool
	// restoring makes the next anchor scroll instant.
	restoring bool
	ticking   bool

	opens  []pendingOpen
	status string
}

func newSession(cfg *config.Config, root string, store *storage.Storage, loop *nav.Loop, clock nav.Clock, log logrus.FieldLogger) *session {
	return &session{
		cfg:    cfg,
		root:   root,
		store:  store,
		log:    log,
		loop:   loop,
		clock:  clock,
		scroll: newSmoothScroll(cfg.TUI.FrameInterval, cfg.TUI.ScrollFrequency, cfg.TUI.ScrollDamping),
	}
}

// ScrollToAnchor implements nav.Scroller.
func (s *session) ScrollToAnchor(anchor string) bool {
	if s.rendering == nil {
		return false
	}
	top, ok := s.rendering.Top(anchor)
	if !ok {
		return false
	}
	if s.restoring {
		s.scroll.jumpTo(float64(top))
		s.publishScroll()
		return true
	}
	s.scroll.animateTo(float64(top))
	return true
}

// Open implements nav.Opener.
func (s *session) Open(href string, newTab bool) {
	s.opens = append(s.opens, pendingOpen{href: href, newTab: newTab})
}

// ContainsFocus implements nav.Element.
func (s *session) ContainsFocus() bool {
	return s.focusInside
}

// loadPage parses a page relative to the site root.
func (s *session) loadPage(rel string, back bool) tea.Cmd {
	root := s.root
	return func() tea.Msg {
		page, err := content.ParsePage(filepath.Join(root, filepath.FromSlash(rel)))
		return pageLoadedMsg{Path: rel, Page: page, Err: err, Back: back}
	}
}

// showPage swaps in a freshly parsed page and rebuilds the navigator for it.
func (s *session) showPage(msg pageLoadedMsg) error {
	if msg.Err != nil {
		return msg.Err
	}
	nc := s.cfg.NavConfig(msg.Page.Items())
	n, err := nav.New(nc,
		nav.WithScheduler(s.loop),
		nav.WithClock(s.clock),
		nav.WithScroller(s),
		nav.WithOpener(s),
		nav.WithLogger(s.log),
	)
	if err != nil {
		return fmt.Errorf("building navigation for %s: %w", msg.Path, err)
	}

	if s.nav != nil {
		s.remember()
		s.nav.Destroy()
		if !msg.Back {
			s.history = append(s.history, s.pagePath)
		}
	}
	s.nav = n
	s.page = msg.Page
	s.pagePath = msg.Path
	s.focusInside = false
	s.scroll.jumpTo(0)
	s.relayout()

	n.SetElement(s)
	n.Subscribe(func(st nav.State) { s.state = st })
	if s.elog != nil {
		s.elog.attach(n, msg.Path)
	}
	s.restore()
	s.publishScroll()
	s.loop.Drain()
	s.status = ""
	return nil
}

// relayout re-wraps the page for the current body width.
func (s *session) relayout() {
	if s.page == nil {
		return
	}
	s.rendering = content.Layout(s.page, s.bodyWidth)
	s.scroll.setMax(float64(s.rendering.Height() - s.viewportHeight))
}

func (s *session) resize(bodyWidth, viewportHeight int) {
	s.bodyWidth = max(bodyWidth, minBodyWidth)
	s.viewportHeight = max(viewportHeight, minBodyHeight)
	s.relayout()
	s.publishScroll()
}

// publishScroll reports the current offset to the navigator.
func (s *session) publishScroll() {
	if s.nav == nil || s.rendering == nil {
		return
	}
	s.nav.HandleScroll(s.rendering.Geometry(s.scroll.offset(), s.viewportHeight))
}

// userScroll moves the page on behalf of the user.
func (s *session) userScroll(delta float64) {
	if s.nav == nil {
		return
	}
	s.nav.NoteUserScroll()
	s.scroll.jumpBy(delta)
	s.publishScroll()
}

func (s *session) userScrollTo(offset float64) {
	if s.nav == nil {
		return
	}
	s.nav.NoteUserScroll()
	s.scroll.jumpTo(offset)
	s.publishScroll()
}

// restore reapplies the state remembered for the current page.
func (s *session) restore() {
	if s.store == nil {
		return
	}
	st, ok := s.store.Page(s.pagePath)
	if !ok {
		return
	}
	if st.KeyboardMode {
		s.nav.HandleDocumentKey(nav.KeyTab)
	}
	// Only in-page anchors are replayed; links would leave the page again.
	if it, known := s.nav.Item(st.ActiveItem); !known || it.Kind() != nav.LinkAnchor {
		return
	}
	s.restoring = true
	s.nav.Navigate(st.ActiveItem)
	s.restoring = false
}

// remember records the current page's state in storage.
func (s *session) remember() {
	if s.store == nil || s.nav == nil || s.pagePath == "" {
		return
	}
	s.store.Remember(s.pagePath, s.nav.State(), s.clock.Now())
}

// save persists storage; failures are logged, not fatal.
func (s *session) save() {
	if s.store == nil {
		return
	}
	s.remember()
	if err := s.store.Save(); err != nil {
		s.log.WithError(err).Warn("saving previewer state")
	}
}

// drainOpens converts links requested by the navigator into commands.
func (s *session) drainOpens() tea.Cmd {
	if len(s.opens) == 0 {
		return nil
	}
	opens := s.opens
	s.opens = nil
	cmds := make([]tea.Cmd, 0, len(opens))
	for _, o := range opens {
		if o.newTab {
			href := o.href
			cmds = append(cmds, func() tea.Msg {
				return openedMsg{Href: href, Err: browser.OpenURL(href)}
			})
			continue
		}
		target := content.Resolve(s.pagePath, o.href)
		if !content.IsMarkdown(target) {
			target = strings.TrimSuffix(target, "/") + ".md"
		}
		cmds = append(cmds, s.loadPage(target, false))
	}
	return tea.Batch(cmds...)
}

// back pops the page history.
func (s *session) back() tea.Cmd {
	if len(s.history) == 0 {
		return nil
	}
	prev := s.history[len(s.history)-1]
	s.history = s.history[:len(s.history)-1]
	return s.loadPage(prev, true)
}

// frameCmd schedules the next animation frame when one is needed.
func (s *session) frameCmd() tea.Cmd {
	if s.ticking || (!s.scroll.animating() && !s.loop.PendingFrame()) {
		return nil
	}
	s.ticking = true
	interval := s.cfg.TUI.FrameInterval
	if interval <= 0 {
		interval = defaultFrameInterval
	}
	return tea.Tick(interval, func(t time.Time) tea.Msg { return frameMsg(t) })
}

// frame advances the scroll animation and runs pending frame callbacks.
func (s *session) frame() {
	s.ticking = false
	if s.scroll.step() {
		s.publishScroll()
	}
	s.loop.RunFrame()
}

// listenForLoop returns a Tea command that waits for a callback posted to the loop.
func (s *session) listenForLoop() tea.Cmd {
	posted := s.loop.Posted()
	return func() tea.Msg {
		return loopTaskMsg{fn: <-posted}
	}
}

func (s *session) activeIndex() int {
	if s.nav == nil {
		return -1
	}
	for i, it := range s.nav.Items() {
		if it.ID == s.state.ActiveItem {
			return i
		}
	}
	return -1
}
