package nav

import (
	"sort"
	"strings"
)

// MaxItems bounds the navigation item set.
const MaxItems = 10

// LinkKind classifies an item's href.
type LinkKind int

const (
	// LinkAnchor targets a section on the current page ("#about").
	LinkAnchor LinkKind = iota
	// LinkExternal leaves the site and opens in a new tab.
	LinkExternal
	// LinkPage is a same-tab redirect to another page of the site.
	LinkPage
)

func (k LinkKind) String() string {
	switch k {
	case LinkAnchor:
		return "anchor"
	case LinkExternal:
		return "external"
	case LinkPage:
		return "page"
	default:
		return ""
	}
}

// Item is one entry of the navigation menu.
type Item struct {
	ID       ItemID `json:"id" yaml:"id" koanf:"id" validate:"required"`
	Label    string `json:"label" yaml:"label" koanf:"label" validate:"required"`
	Href     string `json:"href" yaml:"href" koanf:"href" validate:"required,navhref"`
	Position int    `json:"position" yaml:"position" koanf:"position" validate:"gte=0"`
}

// Kind reports how Navigate treats the item's href.
func (it Item) Kind() LinkKind {
	h := strings.ToLower(it.Href)
	switch {
	case strings.HasPrefix(h, "#"):
		return LinkAnchor
	case strings.HasPrefix(h, "http://"), strings.HasPrefix(h, "https://"), strings.HasPrefix(h, "mailto:"):
		return LinkExternal
	default:
		return LinkPage
	}
}

// Anchor returns the section id an anchor item targets, or "".
func (it Item) Anchor() string {
	if it.Kind() != LinkAnchor {
		return ""
	}
	return strings.TrimPrefix(it.Href, "#")
}

// itemSet is the immutable, position-ordered item list.
type itemSet struct {
	items   []Item
	index   map[ItemID]int
	anchors map[string]ItemID
}

func newItemSet(items []Item) (itemSet, error) {
	if len(items) == 0 {
		return itemSet{}, ErrNoItems
	}
	if len(items) > MaxItems {
		return itemSet{}, &ConfigError{Field: "Items", Err: ErrTooManyItems}
	}
	sorted := make([]Item, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Position < sorted[j].Position })

	index := make(map[ItemID]int, len(sorted))
	anchors := make(map[string]ItemID, len(sorted))
	for i, it := range sorted {
		if _, dup := index[it.ID]; dup {
			return itemSet{}, &ConfigError{Field: "Items." + string(it.ID), Err: ErrDuplicateItem}
		}
		index[it.ID] = i
		// The lowest position wins when two items target one section.
		if a := it.Anchor(); a != "" {
			if _, taken := anchors[a]; !taken {
				anchors[a] = it.ID
			}
		}
	}
	return itemSet{items: sorted, index: index, anchors: anchors}, nil
}

// forAnchor returns the item whose href targets the section anchor.
func (s itemSet) forAnchor(anchor string) (ItemID, bool) {
	id, ok := s.anchors[anchor]
	return id, ok
}

func (s itemSet) lookup(id ItemID) (Item, bool) {
	i, ok := s.index[id]
	if !ok {
		return Item{}, false
	}
	return s.items[i], true
}

func (s itemSet) has(id ItemID) bool {
	_, ok := s.index[id]
	return ok
}

func (s itemSet) first() Item { return s.items[0] }

func (s itemSet) last() Item { return s.items[len(s.items)-1] }

// step moves from id by delta positions, wrapping at both ends. When id is
// not in the set, a forward step lands on the first item and a backward step
// on the last.
func (s itemSet) step(id ItemID, delta int) Item {
	i, ok := s.index[id]
	if !ok {
		if delta >= 0 {
			return s.first()
		}
		return s.last()
	}
	n := len(s.items)
	return s.items[((i+delta)%n+n)%n]
}

func (s itemSet) clone() []Item {
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}
