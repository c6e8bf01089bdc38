package content

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ensigniasec/sitenav/internal/nav"
)

// LineKind is the role of a laid-out line.
type LineKind int

const (
	LineBlank LineKind = iota
	LineTitle
	LineSubtitle
	LineBody
	LineCode
	LineQuote
	LineRule
)

// Line is one terminal row of a laid-out page.
type Line struct {
	Text    string
	Kind    LineKind
	Section int
}

// Rendering is a page laid out for a given width. Rects are in line units and
// cover the whole document without gaps.
type Rendering struct {
	Width int
	Lines []Line
	Rects []nav.SectionRect
}

// Height returns the document height in lines.
func (r *Rendering) Height() int { return len(r.Lines) }

// Top returns the first line of the section with the given anchor.
func (r *Rendering) Top(anchor string) (int, bool) {
	for _, rect := range r.Rects {
		if rect.Anchor == anchor {
			return int(rect.Top), true
		}
	}
	return 0, false
}

// Geometry returns the classifier input for a viewport at offset.
func (r *Rendering) Geometry(offset, viewport int) nav.Geometry {
	rects := make([]nav.SectionRect, len(r.Rects))
	copy(rects, r.Rects)
	return nav.Geometry{
		ScrollOffset:   float64(offset),
		ViewportHeight: float64(viewport),
		Sections:       rects,
	}
}

const minLayoutWidth = 20

// Layout wraps every section of page to width.
func Layout(page *Page, width int) *Rendering {
	if width < minLayoutWidth {
		width = minLayoutWidth
	}
	r := &Rendering{Width: width}
	wrap := lipgloss.NewStyle().Width(width)

	add := func(kind LineKind, section int, text string) {
		r.Lines = append(r.Lines, Line{Text: text, Kind: kind, Section: section})
	}
	addWrapped := func(kind LineKind, section int, prefix, text string) {
		for _, l := range strings.Split(wrap.Render(prefix+text), "\n") {
			add(kind, section, strings.TrimRight(l, " "))
		}
	}

	for i, s := range page.Sections {
		top := len(r.Lines)
		kind := LineTitle
		if s.Level > 1 {
			kind = LineSubtitle
		}
		if s.Title != "" {
			addWrapped(kind, i, "", s.Title)
			add(LineBlank, i, "")
		}
		for _, b := range s.Blocks {
			switch b.Kind {
			case BlockCode:
				for _, l := range b.Lines {
					add(LineCode, i, truncate(l, width))
				}
			case BlockRule:
				add(LineRule, i, strings.Repeat("─", width))
			case BlockQuote:
				for _, l := range b.Lines {
					addWrapped(LineQuote, i, "│ ", l)
				}
			case BlockHeading:
				for _, l := range b.Lines {
					addWrapped(LineSubtitle, i, "", l)
				}
			default:
				for _, l := range b.Lines {
					addWrapped(LineBody, i, "", l)
				}
			}
			add(LineBlank, i, "")
		}
		if len(r.Lines) == top {
			add(LineBlank, i, "")
		}
		r.Rects = append(r.Rects, nav.SectionRect{
			Anchor: string(s.ID),
			Top:    float64(top),
			Height: float64(len(r.Lines) - top),
		})
	}
	return r
}

func truncate(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes)) > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes)
}
