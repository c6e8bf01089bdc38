package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ensigniasec/sitenav/internal/nav"
)

// handleKey processes key bindings and returns updated model and command.
func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) { //nolint:gocyclo,cyclop // flat key dispatch
	s := m.s
	if key.Matches(msg, m.keys.Quit) {
		m.quitting = true
		s.save()
		return m, tea.Quit
	}
	if key.Matches(msg, m.keys.Help) {
		m.helpVisible = !m.helpVisible
		return m, nil
	}
	if s.nav == nil {
		return m, nil
	}
	// Terminals do not report key releases; a modified key counts as released once handled.
	defer releaseModifiers(s.nav, msg)

	open := s.state.IsOpen
	var cmd tea.Cmd
	switch {
	case key.Matches(msg, m.keys.Menu):
		s.nav.Toggle()
		if !open {
			s.focusInside = s.state.KeyboardMode
		}
	case key.Matches(msg, m.keys.Tab):
		s.nav.HandleDocumentKey(nav.KeyTab)
		if open {
			m.focusStep(1)
		}
	case key.Matches(msg, m.keys.BackTab):
		s.nav.HandleDocumentKey(nav.KeyTab)
		if open {
			m.focusStep(-1)
		}
	case key.Matches(msg, m.keys.Escape):
		if s.nav.HandleDocumentKey(nav.KeyEscape) {
			s.focusInside = false
		}
	case open && key.Matches(msg, m.keys.Up):
		m.menuKey(nav.KeyUp)
	case open && key.Matches(msg, m.keys.Down):
		m.menuKey(nav.KeyDown)
	case open && key.Matches(msg, m.keys.Left):
		m.menuKey(nav.KeyLeft)
	case open && key.Matches(msg, m.keys.Right):
		m.menuKey(nav.KeyRight)
	case open && key.Matches(msg, m.keys.Home):
		m.menuKey(nav.KeyHome)
	case open && key.Matches(msg, m.keys.End):
		m.menuKey(nav.KeyEnd)
	case open && key.Matches(msg, m.keys.Select):
		k := nav.KeyEnter
		if msg.Type == tea.KeySpace {
			k = nav.KeySpace
		}
		m.menuKey(k)
	case key.Matches(msg, m.keys.Up, m.keys.LineUp):
		s.userScroll(-1)
	case key.Matches(msg, m.keys.Down, m.keys.LineDown):
		s.userScroll(1)
	case key.Matches(msg, m.keys.PageUp):
		s.userScroll(-float64(s.viewportHeight))
	case key.Matches(msg, m.keys.PageDown):
		s.userScroll(float64(s.viewportHeight))
	case key.Matches(msg, m.keys.Home, m.keys.Top):
		s.userScrollTo(0)
	case key.Matches(msg, m.keys.End, m.keys.Bottom):
		s.userScrollTo(s.scroll.max)
	case key.Matches(msg, m.keys.Jump):
		m.jump(msg)
	case key.Matches(msg, m.keys.Back):
		cmd = s.back()
	}
	return m, cmd
}

func releaseModifiers(n *nav.Navigator, msg tea.KeyMsg) {
	if msg.Alt {
		n.HandleKeyUp(nav.KeyAlt)
	}
	if strings.HasPrefix(msg.String(), "ctrl+") {
		n.HandleKeyUp(nav.KeyControl)
	}
}

// menuKey forwards a key to the open menu, which owns focus from then on.
func (m Model) menuKey(k nav.Key) {
	if m.s.nav.HandleMenuKey(k) {
		m.s.focusInside = true
	}
}

// focusStep moves focus to the next or previous row the way Tab traverses
// focusable elements.
func (m Model) focusStep(delta int) {
	items := m.s.nav.Items()
	idx := -1
	for i, it := range items {
		if it.ID == m.s.state.FocusedItem {
			idx = i
			break
		}
	}
	switch {
	case idx < 0 && delta > 0:
		idx = 0
	case idx < 0:
		idx = len(items) - 1
	default:
		idx = (idx + delta + len(items)) % len(items)
	}
	m.s.focusInside = true
	m.s.nav.FocusIn(items[idx].ID)
}

// jump navigates to the section under a digit key.
func (m Model) jump(msg tea.KeyMsg) {
	if len(msg.Runes) != 1 {
		return
	}
	idx := int(msg.Runes[0] - '1')
	items := m.s.nav.Items()
	if idx < 0 || idx >= len(items) {
		return
	}
	m.s.nav.Navigate(items[idx].ID)
}

// handleMouse processes mouse events for hover, click and wheel interactions.
func (m Model) handleMouse(msg tea.MouseMsg) (Model, tea.Cmd) {
	s := m.s
	if s.nav == nil {
		return m, nil
	}

	switch msg.Action {
	case tea.MouseActionMotion:
		s.nav.HandleMouseMove()
		if s.state.IsOpen {
			if id := m.itemAt(msg); id != s.state.HoveredItem {
				s.nav.SetHoveredItem(id)
			}
		}
		return m, nil
	case tea.MouseActionPress:
	default:
		return m, nil
	}

	switch msg.Button {
	case tea.MouseButtonWheelUp:
		s.userScroll(-wheelLines)
	case tea.MouseButtonWheelDown:
		s.userScroll(wheelLines)
	case tea.MouseButtonLeft:
		if id := m.itemAt(msg); id != "" {
			s.focusInside = true
			s.nav.FocusIn(id)
			s.nav.Navigate(id)
			return m, nil
		}
		if m.zones.Get(railZoneID).InBounds(msg) {
			s.nav.Open()
			return m, nil
		}
		if s.focusInside {
			s.focusInside = false
			s.nav.FocusOut()
		}
	default:
	}
	return m, nil
}

// itemAt returns the menu row under the pointer, or "".
func (m Model) itemAt(msg tea.MouseMsg) nav.ItemID {
	if !m.s.state.IsOpen {
		return ""
	}
	for _, it := range m.s.nav.Items() {
		if m.zones.Get(zonePrefix + string(it.ID)).InBounds(msg) {
			return it.ID
		}
	}
	return ""
}

// resize recomputes the body and viewport for the window size.
func (m *Model) resize() {
	bodyWidth := m.width - menuPanelWidth - panelGap
	vpHeight := m.height - headerLines - footerLines
	m.viewport.Width = max(bodyWidth, minBodyWidth)
	m.viewport.Height = max(vpHeight, minBodyHeight)
	m.s.resize(m.viewport.Width-gutterWidth, m.viewport.Height)
}
