package content

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"github.com/ensigniasec/sitenav/internal/nav"
)

// IntroID is the section id given to content that precedes the first heading.
const IntroID nav.ItemID = "top"

// BlockKind tells the layout how to render a block.
type BlockKind int

const (
	BlockParagraph BlockKind = iota
	BlockHeading
	BlockCode
	BlockQuote
	BlockList
	BlockRule
	BlockTable
)

// Block is one rendered unit of a section body.
type Block struct {
	Kind  BlockKind
	Lines []string
}

// Section is the content between two level-1/2 headings.
type Section struct {
	ID     nav.ItemID `json:"id"`
	Title  string     `json:"title"`
	Level  int        `json:"level"`
	Blocks []Block    `json:"-"`
}

// Link is a hyperlink found in the page body.
type Link struct {
	Text string `json:"text"`
	Href string `json:"href"`
}

// Page is a parsed Markdown document.
type Page struct {
	Path     string    `json:"path"`
	Title    string    `json:"title"`
	Sections []Section `json:"sections"`
	Links    []Link    `json:"links,omitempty"`
}

// Items returns the navigation items for the page's sections, capped at nav.MaxItems.
func (p *Page) Items() []nav.Item {
	items := make([]nav.Item, 0, min(len(p.Sections), nav.MaxItems))
	for i, s := range p.Sections {
		if i == nav.MaxItems {
			break
		}
		items = append(items, nav.Item{
			ID:       s.ID,
			Label:    s.Title,
			Href:     "#" + string(s.ID),
			Position: i,
		})
	}
	return items
}

// Section looks a section up by id.
func (p *Page) Section(id nav.ItemID) (Section, bool) {
	for _, s := range p.Sections {
		if s.ID == id {
			return s, true
		}
	}
	return Section{}, false
}

func newMarkdown() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	)
}

// ParsePage reads and parses the Markdown file at path.
func ParsePage(path string) (*Page, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading page %s: %w", path, err)
	}
	return Parse(path, src)
}

// Parse splits src into sections at every level-1 and level-2 heading.
func Parse(path string, src []byte) (*Page, error) {
	doc := newMarkdown().Parser().Parse(text.NewReader(src))
	if doc == nil {
		return nil, fmt.Errorf("parsing page %s: %w", path, ErrEmptyPage)
	}

	page := &Page{Path: path}
	var cur *Section
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*ast.Heading); ok && h.Level <= 2 {
			title := inlineText(h, src)
			if page.Title == "" && h.Level == 1 {
				page.Title = title
			}
			page.Sections = append(page.Sections, Section{
				ID:    headingID(h, len(page.Sections)),
				Title: title,
				Level: h.Level,
			})
			cur = &page.Sections[len(page.Sections)-1]
			continue
		}
		b, ok := renderBlock(n, src)
		if !ok {
			continue
		}
		if cur == nil {
			page.Sections = append(page.Sections, Section{ID: IntroID, Level: 1})
			cur = &page.Sections[len(page.Sections)-1]
		}
		cur.Blocks = append(cur.Blocks, b)
	}

	if page.Title == "" {
		page.Title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if len(page.Sections) > 0 && page.Sections[0].ID == IntroID {
		page.Sections[0].Title = page.Title
	}
	if len(page.Sections) == 0 {
		return nil, fmt.Errorf("parsing page %s: %w", path, ErrEmptyPage)
	}
	page.Links = collectLinks(doc, src)
	return page, nil
}

func headingID(h *ast.Heading, index int) nav.ItemID {
	if v, ok := h.AttributeString("id"); ok {
		if id, ok := v.([]byte); ok && len(id) > 0 {
			return nav.ItemID(id)
		}
	}
	return nav.ItemID("section-" + strconv.Itoa(index+1))
}

func renderBlock(n ast.Node, src []byte) (Block, bool) {
	switch b := n.(type) {
	case *ast.Heading:
		return Block{Kind: BlockHeading, Lines: []string{inlineText(b, src)}}, true
	case *ast.Paragraph, *ast.TextBlock:
		t := inlineText(b, src)
		if t == "" {
			return Block{}, false
		}
		return Block{Kind: BlockParagraph, Lines: []string{t}}, true
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		return Block{Kind: BlockCode, Lines: rawLines(b, src)}, true
	case *ast.Blockquote:
		return Block{Kind: BlockQuote, Lines: []string{inlineText(b, src)}}, true
	case *ast.List:
		var lines []string
		i := b.Start
		for item := b.FirstChild(); item != nil; item = item.NextSibling() {
			marker := "•"
			if b.IsOrdered() {
				marker = strconv.Itoa(i) + "."
				i++
			}
			lines = append(lines, marker+" "+inlineText(item, src))
		}
		return Block{Kind: BlockList, Lines: lines}, true
	case *ast.ThematicBreak:
		return Block{Kind: BlockRule}, true
	case *extast.Table:
		var lines []string
		for row := b.FirstChild(); row != nil; row = row.NextSibling() {
			var cells []string
			for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
				cells = append(cells, inlineText(cell, src))
			}
			lines = append(lines, strings.Join(cells, " │ "))
		}
		return Block{Kind: BlockTable, Lines: lines}, true
	default:
		return Block{}, false
	}
}

func rawLines(n ast.Node, src []byte) []string {
	segs := n.Lines()
	lines := make([]string, 0, segs.Len())
	for i := range segs.Len() {
		seg := segs.At(i)
		lines = append(lines, strings.TrimRight(string(seg.Value(src)), "\r\n"))
	}
	return lines
}

// inlineText flattens the inline content below n into plain text.
func inlineText(n ast.Node, src []byte) string {
	var b bytes.Buffer
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		case *ast.AutoLink:
			b.Write(t.Label(src))
			return ast.WalkSkipChildren, nil
		case *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		default:
			// Separate sibling blocks (list item paragraphs, quote lines).
			if c != n && c.Type() == ast.TypeBlock && b.Len() > 0 {
				b.WriteByte(' ')
			}
		}
		return ast.WalkContinue, nil
	})
	return strings.Join(strings.Fields(b.String()), " ")
}

func collectLinks(doc ast.Node, src []byte) []Link {
	var links []Link
	_ = ast.Walk(doc, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch l := c.(type) {
		case *ast.Link:
			links = append(links, Link{Text: inlineText(l, src), Href: string(l.Destination)})
			return ast.WalkSkipChildren, nil
		case *ast.AutoLink:
			url := string(l.URL(src))
			links = append(links, Link{Text: string(l.Label(src)), Href: url})
		}
		return ast.WalkContinue, nil
	})
	return links
}
