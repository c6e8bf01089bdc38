package tui

import (
	"time"

	"github.com/ensigniasec/sitenav/internal/content"
)

// Message types for Bubble Tea update loop.

// loopTaskMsg carries a callback posted to the navigation loop from another
// goroutine (timer expiry).
type loopTaskMsg struct{ fn func() }

// frameMsg drives one animation frame.
type frameMsg time.Time

// pageLoadedMsg delivers a parsed page, or the reason it could not be loaded.
type pageLoadedMsg struct {
	Path string
	Page *content.Page
	Err  error
	// Back is set when the load pops the history instead of pushing it.
	Back bool
}

// openedMsg reports the result of handing an external link to the browser.
type openedMsg struct {
	Href string
	Err  error
}
