package tui

import "time"

// Package-level constants to avoid magic numbers and improve readability.
const (
	// menuPanelWidth is the right-hand column holding the menu or its collapsed rail.
	menuPanelWidth = 26
	panelGap       = 2
	// headerLines and footerLines surround the page viewport.
	headerLines = 2
	footerLines = 2

	minBodyWidth  = 20
	minBodyHeight = 3

	wheelLines = 3

	// settleEpsilon stops the spring once position and velocity are this close to rest.
	settleEpsilon = 0.01

	defaultFrameInterval = 16 * time.Millisecond

	// gutterWidth is the active-section marker column left of the page text.
	gutterWidth = 2

	zonePrefix = "nav-item-"
	railZoneID = "nav-rail"
)
