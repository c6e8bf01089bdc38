// Package content turns a directory of Markdown files into pages whose
// level-1/2 headings become navigation sections.
package content

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
)

var (
	ErrEmptyPage   = errors.New("page has no content")
	ErrNoPages     = errors.New("no pages found")
	ErrBadPattern  = errors.New("invalid glob pattern")
	ErrPageMissing = errors.New("page not found")
)

// DefaultExclude is applied in addition to caller excludes.
//
//nolint:gochecknoglobals // Read-only defaults.
var DefaultExclude = []string{".git", "node_modules", "vendor", ".cache", "dist", "build"}

const streamBufferSize = 64

func isSkippedDir(name string) bool {
	for _, d := range DefaultExclude {
		if strings.EqualFold(name, d) {
			return true
		}
	}
	return false
}

// IsMarkdown reports whether path has a Markdown extension.
func IsMarkdown(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return true
	default:
		return false
	}
}

// ValidatePatterns checks that every glob is well formed.
func ValidatePatterns(patterns []string) error {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(filepath.ToSlash(p)) {
			return fmt.Errorf("%w: %q", ErrBadPattern, p)
		}
	}
	return nil
}

// matchesAny reports whether rel, or its base name, matches one of patterns.
func matchesAny(rel string, patterns []string) bool {
	rel = filepath.ToSlash(rel)
	base := filepath.Base(rel)
	for _, p := range patterns {
		p = filepath.ToSlash(p)
		if ok, err := doublestar.Match(p, rel); err == nil && ok {
			return true
		}
		if ok, err := doublestar.Match(p, base); err == nil && ok {
			return true
		}
	}
	return false
}

// Discover returns the Markdown files under root, relative to root and in
// slash form, sorted. An empty include keeps every Markdown file.
func Discover(ctx context.Context, root string, include, exclude []string) ([]string, error) {
	if err := ValidatePatterns(include); err != nil {
		return nil, err
	}
	if err := ValidatePatterns(exclude); err != nil {
		return nil, err
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("accessing %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: not a directory", root)
	}

	var pages []string
	for rel := range streamPages(ctx, root) {
		if len(include) > 0 && !matchesAny(rel, include) {
			continue
		}
		if matchesAny(rel, exclude) {
			continue
		}
		pages = append(pages, rel)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sort.Strings(pages)
	return pages, nil
}

// Locate resolves the page to open under root. An empty page picks index.md,
// then README.md, then the first discovered page.
func Locate(ctx context.Context, root, page string, include, exclude []string) (string, error) {
	if page != "" {
		rel := filepath.ToSlash(filepath.Clean(page))
		info, err := os.Stat(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil || info.IsDir() {
			return "", fmt.Errorf("%w: %s", ErrPageMissing, page)
		}
		return rel, nil
	}
	pages, err := Discover(ctx, root, include, exclude)
	if err != nil {
		return "", err
	}
	if len(pages) == 0 {
		return "", fmt.Errorf("%w under %s", ErrNoPages, root)
	}
	for _, want := range []string{"index.md", "README.md"} {
		if slices.Contains(pages, want) {
			return want, nil
		}
	}
	return pages[0], nil
}

// streamPages walks root and sends the relative path of every Markdown file.
// The channel is closed when walking completes or ctx is canceled.
func streamPages(ctx context.Context, root string) <-chan string {
	out := make(chan string, streamBufferSize)
	go func() {
		defer close(out)
		conf := fastwalk.DefaultConfig
		_ = fastwalk.Walk(&conf, root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil // Skip unreadable entries.
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			if d.IsDir() {
				if path != root && isSkippedDir(d.Name()) {
					return fs.SkipDir
				}
				return nil
			}
			if !IsMarkdown(path) {
				return nil
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return nil
			}
			select {
			case out <- filepath.ToSlash(rel):
			case <-ctx.Done():
				return ctx.Err()
			}
			return nil
		})
	}()
	return out
}

// Resolve maps a page-relative link to a path relative to the site root.
// Fragments and query strings are dropped.
func Resolve(fromPage, href string) string {
	if i := strings.IndexAny(href, "#?"); i >= 0 {
		href = href[:i]
	}
	if href == "" {
		return fromPage
	}
	if strings.HasPrefix(href, "/") {
		return strings.TrimPrefix(filepath.ToSlash(filepath.Clean(href)), "/")
	}
	return filepath.ToSlash(filepath.Clean(filepath.Join(filepath.Dir(fromPage), href)))
}
