//nolint:testpackage // White-box tests require access to unexported identifiers in this package.
package nav

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ensigniasec/sitenav/internal/nav/navtest"
)

func TestLoop_DrainRunsNestedDefers(t *testing.T) {
	t.Parallel()
	l := NewLoop(0)
	var order []string
	l.Defer(func() {
		order = append(order, "a")
		l.Defer(func() { order = append(order, "c") })
	})
	l.Defer(func() { order = append(order, "b") })

	l.Drain()
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestLoop_RunFrameOnlyRunsRequestedFrames(t *testing.T) {
	t.Parallel()
	l := NewLoop(0)
	var order []string
	l.RequestFrame(func() {
		order = append(order, "frame")
		l.Defer(func() { order = append(order, "after-frame") })
		l.RequestFrame(func() { order = append(order, "next-frame") })
	})
	l.Defer(func() { order = append(order, "before") })

	l.RunFrame()
	assert.Equal(t, []string{"before", "frame", "after-frame"}, order)
	assert.True(t, l.PendingFrame())

	l.RunFrame()
	assert.Equal(t, "next-frame", order[len(order)-1])
	assert.False(t, l.PendingFrame())
}

func TestLoop_RunPosted(t *testing.T) {
	t.Parallel()
	l := NewLoop(4)
	ran := 0
	l.Post(func() { ran++ })
	l.Post(func() {
		ran++
		l.Defer(func() { ran++ })
	})

	assert.Equal(t, 2, l.RunPosted())
	assert.Equal(t, 3, ran)
	assert.Zero(t, l.RunPosted())
}

func TestSystemClock_PostsToLoop(t *testing.T) {
	t.Parallel()
	l := NewLoop(1)
	c := NewSystemClock(l)
	fired := false
	c.AfterFunc(time.Millisecond, func() { fired = true })

	select {
	case fn := <-l.Posted():
		l.Run(fn)
	case <-time.After(2 * time.Second):
		t.Fatal("timer callback was not posted")
	}
	assert.True(t, fired)

	stop := c.AfterFunc(time.Hour, func() {})
	assert.True(t, stop())
}

func TestTimerSlot_RestartDiscardsStaleCallback(t *testing.T) {
	t.Parallel()
	clock := navtest.NewFakeClock(testEpoch)
	var stale []func()
	// Capture callbacks instead of running them to simulate delivery racing a restart.
	clock.OnFire = func(fn func()) { stale = append(stale, fn) }
	slot := timerSlot{clock: clock}

	calls := 0
	slot.start(10*time.Millisecond, func() { calls++ })
	clock.Advance(10 * time.Millisecond)
	require.Len(t, stale, 1)

	slot.start(10*time.Millisecond, func() { calls += 10 })
	stale[0]()
	assert.Zero(t, calls)
	assert.True(t, slot.active())

	slot.cancel()
	assert.False(t, slot.active())
	assert.Zero(t, clock.Pending())
}
