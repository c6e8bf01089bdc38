package nav

import "math"

// Strategy selects how the classifier picks the active section.
type Strategy string

const (
	// StrategyCoverage scores sections by how much of the viewport they cover.
	StrategyCoverage Strategy = "coverage"
	// StrategyIntersection picks by intersection ratio, breaking ties by
	// distance to the viewport center, and falls back to the nearest section.
	StrategyIntersection Strategy = "intersection"
)

// Tuning constants for the two strategies.
const (
	coverageThreshold     = 0.5
	sectionCoverageWeight = 0.7
	topBonus              = 0.2
	topBonusStart         = 0.1
	topBonusMinBottom     = 0.3

	intersectionMinRatio = 0.1
	containedDiscount    = 0.1
)

// SectionRect is a section's extent in document coordinates. Anchor is the
// section id that "#anchor" hrefs point at, not an item id.
type SectionRect struct {
	Anchor string  `json:"anchor"`
	Top    float64 `json:"top"`
	Height float64 `json:"height"`
}

// Bottom is the first coordinate past the section.
func (r SectionRect) Bottom() float64 { return r.Top + r.Height }

// Geometry is a snapshot of the scroll position and the section layout.
type Geometry struct {
	ScrollOffset   float64       `json:"scroll_offset"`
	ViewportHeight float64       `json:"viewport_height"`
	Sections       []SectionRect `json:"sections"`
}

func (g Geometry) viewBottom() float64 { return g.ScrollOffset + g.ViewportHeight }

func (g Geometry) visible(r SectionRect) float64 {
	v := math.Min(r.Bottom(), g.viewBottom()) - math.Max(r.Top, g.ScrollOffset)
	if v < 0 {
		return 0
	}
	return v
}

// SectionScore is a section's score under the active strategy.
type SectionScore struct {
	Anchor  string  `json:"anchor"`
	Visible float64 `json:"visible"`
	Score   float64 `json:"score"`
}

// Classifier maps scroll geometry to the active section. It is pure: the
// same Geometry always yields the same answer.
type Classifier struct {
	strategy Strategy
}

// NewClassifier returns a classifier for s; unknown strategies use coverage.
func NewClassifier(s Strategy) Classifier {
	if s != StrategyIntersection {
		s = StrategyCoverage
	}
	return Classifier{strategy: s}
}

// Strategy reports the strategy in use.
func (c Classifier) Strategy() Strategy { return c.strategy }

// Classify returns the anchor of the active section for g, or false when no section qualifies.
func (c Classifier) Classify(g Geometry) (string, bool) {
	if g.ViewportHeight <= 0 || len(g.Sections) == 0 {
		return "", false
	}
	if c.strategy == StrategyIntersection {
		return classifyIntersection(g)
	}
	return classifyCoverage(g)
}

// Score returns per-section scores in section order.
func (c Classifier) Score(g Geometry) []SectionScore {
	out := make([]SectionScore, 0, len(g.Sections))
	if g.ViewportHeight <= 0 {
		return out
	}
	for _, r := range g.Sections {
		s := SectionScore{Anchor: r.Anchor, Visible: g.visible(r)}
		if c.strategy == StrategyIntersection {
			s.Score = intersectionRatio(g, r)
		} else {
			s.Score = coverageScore(g, r)
		}
		out = append(out, s)
	}
	return out
}

func coverageScore(g Geometry, r SectionRect) float64 {
	vis := g.visible(r)
	viewportCoverage := vis / g.ViewportHeight
	sectionCoverage := 0.0
	if r.Height > 0 {
		sectionCoverage = vis / r.Height
	}
	score := math.Max(viewportCoverage, sectionCoverageWeight*sectionCoverage)

	relTop := r.Top - g.ScrollOffset
	relBottom := r.Bottom() - g.ScrollOffset
	if relTop >= 0 && relTop <= topBonusStart*g.ViewportHeight && relBottom > topBonusMinBottom*g.ViewportHeight {
		score += topBonus
	}
	return score
}

func classifyCoverage(g Geometry) (string, bool) {
	best := coverageThreshold
	var winner string
	found := false
	for _, r := range g.Sections {
		// Strictly greater: the first of equal scores keeps the win.
		if s := coverageScore(g, r); s > best {
			best = s
			winner = r.Anchor
			found = true
		}
	}
	return winner, found
}

func intersectionRatio(g Geometry, r SectionRect) float64 {
	if r.Height <= 0 {
		return 0
	}
	return g.visible(r) / r.Height
}

func center(top, height float64) float64 { return top + height/2 }

func classifyIntersection(g Geometry) (string, bool) {
	viewCenter := center(g.ScrollOffset, g.ViewportHeight)

	var candidates []SectionRect
	bestRatio := -1.0
	var pick string
	for _, r := range g.Sections {
		ratio := intersectionRatio(g, r)
		if ratio < intersectionMinRatio {
			continue
		}
		candidates = append(candidates, r)
		if ratio > bestRatio {
			bestRatio = ratio
			pick = r.Anchor
		}
	}

	switch {
	case len(candidates) == 1:
		return pick, true
	case len(candidates) > 1:
		bestDist := math.Inf(1)
		for _, r := range candidates {
			if d := math.Abs(center(r.Top, r.Height) - viewCenter); d < bestDist {
				bestDist = d
				pick = r.Anchor
			}
		}
		return pick, true
	}

	bestDist := math.Inf(1)
	found := false
	for _, r := range g.Sections {
		var d float64
		switch {
		case r.Bottom() <= g.ScrollOffset:
			d = g.ScrollOffset - r.Bottom()
		case r.Top >= g.viewBottom():
			d = r.Top - g.viewBottom()
		default:
			d = math.Abs(center(r.Top, r.Height)-viewCenter) * containedDiscount
		}
		if d < bestDist {
			bestDist = d
			pick = r.Anchor
			found = true
		}
	}
	return pick, found
}
