package tui

import (
	"math"
	"time"

	"github.com/charmbracelet/harmonica"
)

// smoothScroll animates the page offset toward a target with a critically
// damped spring, one step per frame.
type smoothScroll struct {
	spring harmonica.Spring

	pos    float64
	vel    float64
	target float64
	max    float64
}

func newSmoothScroll(frame time.Duration, frequency, damping float64) *smoothScroll {
	if frame <= 0 {
		frame = defaultFrameInterval
	}
	fps := int(time.Second / frame)
	if fps < 1 {
		fps = 1
	}
	return &smoothScroll{spring: harmonica.NewSpring(harmonica.FPS(fps), frequency, damping)}
}

func (s *smoothScroll) clamp(v float64) float64 {
	return math.Max(0, math.Min(v, s.max))
}

// setMax bounds the offset to the scrollable range.
func (s *smoothScroll) setMax(maxOffset float64) {
	s.max = math.Max(0, maxOffset)
	s.target = s.clamp(s.target)
	s.pos = s.clamp(s.pos)
}

// animateTo starts a spring toward offset.
func (s *smoothScroll) animateTo(offset float64) {
	s.target = s.clamp(offset)
}

// jumpTo moves immediately and stops any animation.
func (s *smoothScroll) jumpTo(offset float64) {
	s.target = s.clamp(offset)
	s.pos = s.target
	s.vel = 0
}

// jumpBy moves relative to the current position.
func (s *smoothScroll) jumpBy(delta float64) {
	s.jumpTo(s.pos + delta)
}

func (s *smoothScroll) animating() bool {
	return s.pos != s.target || s.vel != 0
}

// step advances one frame and reports whether the offset changed.
func (s *smoothScroll) step() bool {
	if !s.animating() {
		return false
	}
	prev := s.pos
	s.pos, s.vel = s.spring.Update(s.pos, s.vel, s.target)
	if math.Abs(s.pos-s.target) < settleEpsilon && math.Abs(s.vel) < settleEpsilon {
		s.pos, s.vel = s.target, 0
	}
	s.pos = s.clamp(s.pos)
	return s.pos != prev
}

// offset is the current position in whole lines.
func (s *smoothScroll) offset() int {
	return int(math.Round(s.pos))
}
