package gesture

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTimer struct {
	clock   *fakeClock
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
	delays []time.Duration
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, f: f}
	c.timers = append(c.timers, t)
	c.delays = append(c.delays, d)
	return t
}

// fireAll runs every timer that is still active.
func (c *fakeClock) fireAll() {
	c.mu.Lock()
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()
	for _, t := range due {
		t.f()
	}
}

// fireStale runs a timer even if it was stopped, as when Stop races the callback.
func (c *fakeClock) fireStale(i int) {
	c.timers[i].f()
}

func (c *fakeClock) active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

type recorder struct {
	mu     sync.Mutex
	clicks []Event
	longs  []Event
}

func (r *recorder) onClick(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clicks = append(r.clicks, ev)
}

func (r *recorder) onLong(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.longs = append(r.longs, ev)
}

func newDetector() (*LongPress, *fakeClock, *Bus, *recorder) {
	clock := &fakeClock{}
	bus := NewBus()
	rec := &recorder{}
	lp := NewLongPress(Options{
		OnClick:     rec.onClick,
		OnLongPress: rec.onLong,
		Observer:    bus,
		Clock:       clock,
	})
	return lp, clock, bus, rec
}

func TestLongPress_ReleaseBeforeDelayIsClick(t *testing.T) {
	lp, clock, bus, rec := newDetector()

	lp.Press(Event{Type: EventPointerDown, X: 1, Y: 2})
	assert.True(t, lp.Pressing())
	assert.Equal(t, 1, bus.Listeners(EventTouchEnd))
	assert.Equal(t, []time.Duration{DefaultDelay}, clock.delays)

	lp.Release(Event{Type: EventPointerUp, X: 1, Y: 2})
	assert.Len(t, rec.clicks, 1)
	assert.Empty(t, rec.longs)
	assert.False(t, lp.Pressing())
	assert.Equal(t, 0, bus.Listeners(EventTouchEnd))
	assert.Equal(t, 0, clock.active())
}

func TestLongPress_HoldFiresOnceAndSuppressesClick(t *testing.T) {
	lp, clock, bus, rec := newDetector()

	press := Event{Type: EventPointerDown, X: 40, Y: 80, Target: "item-7"}
	lp.Press(press)
	clock.fireAll()

	require.Len(t, rec.longs, 1)
	assert.Equal(t, press, rec.longs[0], "the long press reports the originating event")
	assert.True(t, lp.Triggered())
	assert.Equal(t, 1, bus.Listeners(EventTouchEnd), "listener stays until release")

	lp.Release(Event{Type: EventPointerUp})
	assert.Empty(t, rec.clicks)
	assert.Equal(t, 0, bus.Listeners(EventTouchEnd))
}

func TestLongPress_LeaveCancelsWithoutClick(t *testing.T) {
	lp, clock, bus, rec := newDetector()

	lp.Press(Event{Type: EventPointerDown})
	lp.Leave(Event{})
	clock.fireAll()
	lp.Release(Event{Type: EventPointerUp})

	assert.Empty(t, rec.clicks)
	assert.Empty(t, rec.longs)
	assert.Equal(t, 0, bus.Listeners(EventTouchEnd))
}

func TestLongPress_SecondPressReplacesTimer(t *testing.T) {
	lp, clock, bus, rec := newDetector()

	lp.Press(Event{Target: "first"})
	lp.Press(Event{Target: "second"})
	assert.Equal(t, 1, clock.active(), "no timer stacking")
	assert.Equal(t, 1, bus.Listeners(EventTouchEnd))

	clock.fireStale(0)
	assert.Empty(t, rec.longs, "a superseded timer is ignored even if it runs")

	clock.fireAll()
	require.Len(t, rec.longs, 1)
	assert.Equal(t, "second", rec.longs[0].Target)
}

func TestLongPress_ContextMenuFiresImmediately(t *testing.T) {
	lp, clock, bus, rec := newDetector()

	lp.Press(Event{})
	lp.ContextMenu(Event{Type: EventContextMenu, X: 5, Y: 6})

	require.Len(t, rec.longs, 1)
	assert.Equal(t, EventContextMenu, rec.longs[0].Type)
	assert.Equal(t, 0, clock.active())
	assert.Equal(t, 0, bus.Listeners(EventTouchEnd))
	assert.False(t, lp.Pressing())
}

func TestLongPress_ResetAndStrayRelease(t *testing.T) {
	lp, _, bus, rec := newDetector()

	lp.Release(Event{})
	assert.Empty(t, rec.clicks, "release without press is ignored")

	lp.Press(Event{})
	lp.Reset()
	assert.False(t, lp.Pressing())
	assert.Equal(t, 0, bus.Listeners(EventTouchEnd))
}

func TestLongPress_RealClock(t *testing.T) {
	fired := make(chan Event, 1)
	lp := NewLongPress(Options{
		Delay:       10 * time.Millisecond,
		OnLongPress: func(ev Event) { fired <- ev },
	})
	lp.Press(Event{Target: "row"})
	select {
	case ev := <-fired:
		assert.Equal(t, "row", ev.Target)
	case <-time.After(time.Second):
		t.Fatal("long press did not fire")
	}
	lp.Release(Event{})
}

func TestBus_CaptureRunsFirst(t *testing.T) {
	bus := NewBus()
	var order []string
	unsubBubble := bus.Subscribe(EventPointerDown, false, func(Event) { order = append(order, "bubble") })
	unsubCapture := bus.Subscribe(EventPointerDown, true, func(Event) { order = append(order, "capture") })

	bus.Dispatch(Event{Type: EventPointerDown})
	assert.Equal(t, []string{"capture", "bubble"}, order)

	unsubCapture()
	unsubCapture()
	unsubBubble()
	assert.Equal(t, 0, bus.Listeners(EventPointerDown))
}

func TestDismisser(t *testing.T) {
	bus := NewBus()
	dismissed := 0
	d := &Dismisser{
		Observer:  bus,
		Bounds:    func() Rect { return Rect{X: 10, Y: 10, W: 20, H: 5} },
		OnDismiss: func() { dismissed++ },
	}

	bus.Dispatch(Event{Type: EventPointerDown, X: 0, Y: 0})
	assert.Zero(t, dismissed, "not mounted yet")

	d.Mount()
	d.Mount()
	assert.True(t, d.Mounted())
	assert.Equal(t, 1, bus.Listeners(EventPointerDown))

	bus.Dispatch(Event{Type: EventPointerDown, X: 15, Y: 12})
	assert.Zero(t, dismissed, "click inside the menu")

	bus.Dispatch(Event{Type: EventPointerDown, X: 50, Y: 12})
	assert.Equal(t, 1, dismissed)

	d.Unmount()
	assert.False(t, d.Mounted())
	assert.Equal(t, 0, bus.Listeners(EventPointerDown))
	bus.Dispatch(Event{Type: EventPointerDown, X: 50, Y: 12})
	assert.Equal(t, 1, dismissed)
}
