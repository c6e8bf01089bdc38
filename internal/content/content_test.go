//nolint:testpackage // White-box tests require access to unexported identifiers in this package.
package content

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ensigniasec/sitenav/internal/nav"
)

const samplePage = "Welcome text before any heading.\n" +
	"\n" +
	"# My Site\n" +
	"\n" +
	"Intro under the title.\n" +
	"\n" +
	"## About\n" +
	"\n" +
	"Some *about* text with a [link](other.md) and <https://example.com>.\n" +
	"\n" +
	"- one\n" +
	"- two\n" +
	"\n" +
	"## Projects\n" +
	"\n" +
	"```go\n" +
	"fmt.Println(\"hi\")\n" +
	"```\n" +
	"\n" +
	"### Sub heading\n" +
	"\n" +
	"| a | b |\n" +
	"|---|---|\n" +
	"| 1 | 2 |\n"

func TestParse_Sections(t *testing.T) {
	t.Parallel()
	page, err := Parse("site/index.md", []byte(samplePage))
	require.NoError(t, err)

	assert.Equal(t, "My Site", page.Title)
	ids := make([]nav.ItemID, 0, len(page.Sections))
	for _, s := range page.Sections {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []nav.ItemID{IntroID, "my-site", "about", "projects"}, ids)
	assert.Equal(t, "My Site", page.Sections[0].Title, "intro takes the page title")

	about, ok := page.Section("about")
	require.True(t, ok)
	require.Len(t, about.Blocks, 2)
	assert.Equal(t, []string{"Some about text with a link and https://example.com."}, about.Blocks[0].Lines)
	assert.Equal(t, BlockList, about.Blocks[1].Kind)
	assert.Equal(t, []string{"• one", "• two"}, about.Blocks[1].Lines)

	projects, ok := page.Section("projects")
	require.True(t, ok)
	require.Len(t, projects.Blocks, 3)
	assert.Equal(t, Block{Kind: BlockCode, Lines: []string{`fmt.Println("hi")`}}, projects.Blocks[0])
	assert.Equal(t, Block{Kind: BlockHeading, Lines: []string{"Sub heading"}}, projects.Blocks[1])
	assert.Equal(t, Block{Kind: BlockTable, Lines: []string{"a │ b", "1 │ 2"}}, projects.Blocks[2])

	assert.Equal(t, []Link{
		{Text: "link", Href: "other.md"},
		{Text: "https://example.com", Href: "https://example.com"},
	}, page.Links)
}

func TestParse_Items(t *testing.T) {
	t.Parallel()
	page, err := Parse("index.md", []byte(samplePage))
	require.NoError(t, err)

	items := page.Items()
	require.Len(t, items, 4)
	assert.Equal(t, nav.Item{ID: "about", Label: "About", Href: "#about", Position: 2}, items[2])
	require.NoError(t, nav.DefaultConfig(items).Validate())
}

func TestParse_ItemsCapped(t *testing.T) {
	t.Parallel()
	var b strings.Builder
	for i := range 14 {
		fmt.Fprintf(&b, "## Part %d\n\nbody\n\n", i)
	}
	page, err := Parse("long.md", []byte(b.String()))
	require.NoError(t, err)

	assert.Len(t, page.Sections, 14)
	assert.Len(t, page.Items(), nav.MaxItems)
	assert.Equal(t, "long", page.Title)
}

func TestParse_NoHeadings(t *testing.T) {
	t.Parallel()
	page, err := Parse("notes/todo.md", []byte("just a paragraph\n"))
	require.NoError(t, err)

	require.Len(t, page.Sections, 1)
	assert.Equal(t, IntroID, page.Sections[0].ID)
	assert.Equal(t, "todo", page.Sections[0].Title)
}

func TestParse_Empty(t *testing.T) {
	t.Parallel()
	_, err := Parse("empty.md", []byte("\n\n"))
	require.ErrorIs(t, err, ErrEmptyPage)
}

func TestParse_DuplicateHeadingsGetDistinctIDs(t *testing.T) {
	t.Parallel()
	page, err := Parse("dup.md", []byte("## Notes\n\na\n\n## Notes\n\nb\n"))
	require.NoError(t, err)

	require.Len(t, page.Sections, 2)
	assert.NotEqual(t, page.Sections[0].ID, page.Sections[1].ID)
	require.NoError(t, nav.DefaultConfig(page.Items()).Validate())
}

func TestLayout_RectsCoverDocument(t *testing.T) {
	t.Parallel()
	page, err := Parse("index.md", []byte(samplePage))
	require.NoError(t, err)

	r := Layout(page, 40)
	require.Len(t, r.Rects, len(page.Sections))
	next := 0.0
	for _, rect := range r.Rects {
		assert.InDelta(t, next, rect.Top, 1e-9, rect.Anchor)
		assert.Positive(t, rect.Height)
		next = rect.Bottom()
	}
	assert.InDelta(t, float64(r.Height()), next, 1e-9)

	for _, l := range r.Lines {
		assert.LessOrEqual(t, len([]rune(l.Text)), 40, l.Text)
	}

	top, ok := r.Top("about")
	require.True(t, ok)
	assert.Equal(t, "About", r.Lines[top].Text)
	assert.Equal(t, LineSubtitle, r.Lines[top].Kind)

	g := r.Geometry(top, 10)
	assert.InDelta(t, float64(top), g.ScrollOffset, 1e-9)
	assert.Len(t, g.Sections, len(r.Rects))
}

func TestLayout_WrapsLongParagraphs(t *testing.T) {
	t.Parallel()
	long := strings.Repeat("word ", 30)
	page, err := Parse("wrap.md", []byte("## Wrap\n\n"+long+"\n"))
	require.NoError(t, err)

	r := Layout(page, 20)
	body := 0
	for _, l := range r.Lines {
		if l.Kind == LineBody {
			body++
		}
	}
	assert.Greater(t, body, 1)
}

func writeFile(t *testing.T, root, rel, body string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
}

func TestDiscover(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, root, "index.md", "# Home\n")
	writeFile(t, root, "docs/guide.markdown", "# Guide\n")
	writeFile(t, root, "docs/notes.txt", "not markdown")
	writeFile(t, root, "node_modules/pkg/readme.md", "# skip\n")
	writeFile(t, root, "drafts/wip.md", "# wip\n")

	pages, err := Discover(context.Background(), root, nil, []string{"drafts/**"})
	require.NoError(t, err)
	assert.Equal(t, []string{"docs/guide.markdown", "index.md"}, pages)

	pages, err = Discover(context.Background(), root, []string{"docs/**"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"docs/guide.markdown"}, pages)

	pages, err = Discover(context.Background(), root, []string{"*.md"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"drafts/wip.md", "index.md"}, pages, "patterns also match base names")
}

func TestDiscover_Errors(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, root, "index.md", "# Home\n")

	_, err := Discover(context.Background(), root, []string{"[unclosed"}, nil)
	require.ErrorIs(t, err, ErrBadPattern)

	_, err = Discover(context.Background(), filepath.Join(root, "missing"), nil, nil)
	require.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Discover(ctx, root, nil, nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestResolve(t *testing.T) {
	t.Parallel()
	cases := []struct{ from, href, want string }{
		{"docs/a.md", "b.md#intro", "docs/b.md"},
		{"docs/a.md", "../index.md", "index.md"},
		{"docs/a.md", "/guide.md", "guide.md"},
		{"docs/a.md", "#top", "docs/a.md"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Resolve(tc.from, tc.href), tc.href)
	}
}

func TestLocate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	root := t.TempDir()
	writeFile(t, root, "a.md", "# A\n")
	writeFile(t, root, "README.md", "# Readme\n")
	writeFile(t, root, "docs/b.md", "# B\n")

	page, err := Locate(ctx, root, "", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "README.md", page)

	writeFile(t, root, "index.md", "# Home\n")
	page, err = Locate(ctx, root, "", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "index.md", page)

	page, err = Locate(ctx, root, "", []string{"docs/**", "a.md"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "a.md", page)

	page, err = Locate(ctx, root, "./docs/b.md", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "docs/b.md", page)

	_, err = Locate(ctx, root, "docs/missing.md", nil, nil)
	require.ErrorIs(t, err, ErrPageMissing)
	_, err = Locate(ctx, root, "docs", nil, nil)
	require.ErrorIs(t, err, ErrPageMissing)

	_, err = Locate(ctx, t.TempDir(), "", nil, nil)
	require.ErrorIs(t, err, ErrNoPages)
}
