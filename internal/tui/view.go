package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ensigniasec/sitenav/internal/content"
	"github.com/ensigniasec/sitenav/internal/nav"
)

const (
	colorAccent = lipgloss.Color("69")
	colorMuted  = lipgloss.Color("241")
	colorFaint  = lipgloss.Color("240")
	colorWarn   = lipgloss.Color("208")
	colorCode   = lipgloss.Color("150")
)

func (m Model) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}
	s := m.s
	if s.page == nil {
		msg := "Loading " + m.start + "..."
		if s.status != "" {
			msg = lipgloss.NewStyle().Foreground(colorWarn).Render(s.status)
		}
		return msg + "\n"
	}

	body := m.viewport.View()
	if m.helpVisible {
		body = renderHelp(m)
	}
	main := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(m.viewport.Width).Height(m.viewport.Height).Render(body),
		strings.Repeat(" ", panelGap),
		renderMenu(m),
	)
	return m.zones.Scan(lipgloss.JoinVertical(lipgloss.Left,
		renderHeader(m),
		main,
		renderFooter(m),
	))
}

// syncViewport pushes the laid-out page and scroll offset into the viewport.
func (m *Model) syncViewport() {
	s := m.s
	if s.rendering == nil {
		return
	}
	m.viewport.SetContent(renderPage(s.rendering, s.activeIndex()))
	m.viewport.SetYOffset(s.scroll.offset())
}

func renderPage(r *content.Rendering, active int) string {
	gutter := lipgloss.NewStyle().Foreground(colorAccent).Render("▌ ")
	blank := strings.Repeat(" ", gutterWidth)

	var b strings.Builder
	for i, line := range r.Lines {
		if i > 0 {
			b.WriteString("\n")
		}
		if line.Section == active && line.Kind != content.LineBlank {
			b.WriteString(gutter)
		} else {
			b.WriteString(blank)
		}
		b.WriteString(lineStyle(line.Kind).Render(line.Text))
	}
	return b.String()
}

func lineStyle(k content.LineKind) lipgloss.Style {
	switch k {
	case content.LineTitle:
		return lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	case content.LineSubtitle:
		return lipgloss.NewStyle().Bold(true)
	case content.LineCode:
		return lipgloss.NewStyle().Foreground(colorCode)
	case content.LineQuote:
		return lipgloss.NewStyle().Italic(true).Foreground(colorMuted)
	case content.LineRule:
		return lipgloss.NewStyle().Foreground(colorFaint)
	case content.LineBlank, content.LineBody:
		return lipgloss.NewStyle()
	default:
		return lipgloss.NewStyle()
	}
}

func renderHeader(m Model) string {
	s := m.s
	title := lipgloss.NewStyle().Bold(true).Render(s.page.Title)
	path := lipgloss.NewStyle().Foreground(colorMuted).Render("  " + s.pagePath)

	pct := 100
	if s.scroll.max > 0 {
		pct = int(float64(s.scroll.offset()) / s.scroll.max * 100)
	}
	right := lipgloss.NewStyle().Foreground(colorMuted).Render(fmt.Sprintf("%3d%%", pct))

	left := title + path
	pad := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return left + strings.Repeat(" ", pad) + right + "\n"
}

// renderMenu draws the open menu, or the collapsed rail of section markers.
func renderMenu(m Model) string {
	s := m.s
	if s.nav == nil {
		return ""
	}
	items := s.nav.Items()
	st := s.state
	height := m.viewport.Height

	if !st.IsOpen {
		rows := make([]string, 0, len(items)+2)
		for _, it := range items {
			rows = append(rows, marker(it.ID == st.ActiveItem))
		}
		rows = append(rows, "", lipgloss.NewStyle().Foreground(colorFaint).Render("m"))
		rail := lipgloss.NewStyle().Width(menuPanelWidth).Height(height).Align(lipgloss.Right).
			Render(strings.Join(rows, "\n"))
		return m.zones.Mark(railZoneID, rail)
	}

	inner := menuPanelWidth - 4
	rows := make([]string, 0, len(items)+2)
	rows = append(rows, lipgloss.NewStyle().Bold(true).Render("Sections"), "")
	for i, it := range items {
		label := fmt.Sprintf("%s %d %s", marker(it.ID == st.ActiveItem), i+1, it.Label)
		style := lipgloss.NewStyle().Width(inner).MaxWidth(inner)
		switch {
		case it.ID == st.FocusedItem && st.KeyboardMode:
			style = style.Reverse(true)
		case it.ID == st.HoveredItem:
			style = style.Underline(true)
		case it.ID == st.ActiveItem:
			style = style.Foreground(colorAccent)
		}
		if it.Kind() != nav.LinkAnchor {
			label += " ↗"
		}
		rows = append(rows, m.zones.Mark(zonePrefix+string(it.ID), style.Render(label)))
	}

	border := colorAccent
	if st.IsAnimating {
		border = colorFaint
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1).
		Width(menuPanelWidth - 2).
		Height(max(height-2, 1)).
		Render(strings.Join(rows, "\n"))
}

func marker(active bool) string {
	if active {
		return lipgloss.NewStyle().Foreground(colorAccent).Render("●")
	}
	return lipgloss.NewStyle().Foreground(colorFaint).Render("○")
}

func renderFooter(m Model) string {
	s := m.s
	var badges []string
	if it, ok := s.nav.Item(s.state.ActiveItem); ok {
		badges = append(badges, lipgloss.NewStyle().Foreground(colorAccent).Render(it.Label))
	}
	if s.state.KeyboardMode {
		badges = append(badges, lipgloss.NewStyle().Bold(true).Render("KBD"))
	}
	if s.nav.ArbiterState() == nav.ArbiterArmed {
		badges = append(badges, lipgloss.NewStyle().Foreground(colorMuted).Render("scrolling"))
	}
	if s.status != "" {
		badges = append(badges, lipgloss.NewStyle().Foreground(colorWarn).Render(s.status))
	}
	status := strings.Join(badges, " • ")
	return status + "\n" + m.help.ShortHelpView(m.keys.ShortHelp())
}

func renderHelp(m Model) string {
	h := m.help
	h.ShowAll = true
	border := lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(0, 1).BorderForeground(colorAccent)
	return border.Render("Help\n\n" + h.View(m.keys))
}
