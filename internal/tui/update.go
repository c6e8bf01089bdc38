package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) { // nolint:ireturn
	var cmd tea.Cmd
	switch x := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = x.Width, x.Height
		m.resize()

	case tea.KeyMsg:
		m, cmd = m.handleKey(x)

	case tea.MouseMsg:
		m, cmd = m.handleMouse(x)

	case loopTaskMsg:
		m.s.loop.Run(x.fn)
		cmd = m.s.listenForLoop()

	case frameMsg:
		m.s.frame()

	case pageLoadedMsg:
		if err := m.s.showPage(x); err != nil {
			m.s.log.WithError(err).WithField("page", x.Path).Warn("loading page")
			m.s.status = err.Error()
		}

	case openedMsg:
		if x.Err != nil {
			m.s.log.WithError(x.Err).WithField("href", x.Href).Warn("opening link")
			m.s.status = "could not open " + x.Href
		}
	}

	return m.settle(cmd)
}

// settle flushes navigator work queued by this message and collects the
// follow-up commands: link opens and the next animation frame.
func (m Model) settle(cmd tea.Cmd) (tea.Model, tea.Cmd) { // nolint:ireturn
	m.s.loop.Drain()
	opens := m.s.drainOpens()
	frame := m.s.frameCmd()
	m.syncViewport()
	return m, tea.Batch(cmd, opens, frame)
}
