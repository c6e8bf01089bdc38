package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"
)

// Model is the root Bubble Tea model.
type Model struct {
	s *session

	width    int
	height   int
	quitting bool

	viewport viewport.Model
	help     help.Model
	zones    *zone.Manager

	// ui state
	helpVisible bool

	// initial page to load
	start string

	// keymap for consistent keybindings
	keys keyMap
}

// NewModel constructs a Model that will open start on Init.
func NewModel(s *session, start string, zones *zone.Manager) Model {
	vp := viewport.New(minBodyWidth, minBodyHeight)
	vp.MouseWheelEnabled = false
	return Model{
		s:        s,
		viewport: vp,
		help:     help.New(),
		zones:    zones,
		start:    start,
		keys:     newKeyMap(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.s.listenForLoop(),
		m.s.loadPage(m.start, false),
	)
}
