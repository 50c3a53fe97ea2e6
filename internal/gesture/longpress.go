package gesture

import (
	"sync"
	"time"
)

// DefaultDelay is how long a press must be held to count as a long press.
const DefaultDelay = 500 * time.Millisecond

// Timer is the handle returned by Clock.AfterFunc.
type Timer interface {
	Stop() bool
}

// Clock schedules the long-press timer.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Options configure a LongPress.
type Options struct {
	Delay       time.Duration
	OnClick     func(Event)
	OnLongPress func(Event)
	// Observer, if set, gets a no-op capture listener on touchend while a
	// press is held so the platform does not cancel the hold.
	Observer Observer
	Clock    Clock
}

type pressState struct {
	timer       Timer
	triggered   bool
	target      *Event
	unsubscribe func()
	generation  uint64
}

// LongPress distinguishes a click from a press-and-hold on one element.
// Callbacks run outside the internal lock, and the long-press callback runs
// on the timer's goroutine.
type LongPress struct {
	opts Options

	mu sync.Mutex
	st pressState
}

// NewLongPress builds a detector with defaults filled in.
func NewLongPress(opts Options) *LongPress {
	if opts.Delay <= 0 {
		opts.Delay = DefaultDelay
	}
	if opts.Clock == nil {
		opts.Clock = realClock{}
	}
	return &LongPress{opts: opts}
}

// Press starts a hold. Any earlier unresolved press is cancelled first.
func (lp *LongPress) Press(ev Event) {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	lp.clearLocked()
	target := ev
	lp.st.target = &target
	if lp.opts.Observer != nil {
		lp.st.unsubscribe = lp.opts.Observer.Subscribe(EventTouchEnd, true, func(Event) {})
	}
	lp.st.generation++
	gen := lp.st.generation
	lp.st.timer = lp.opts.Clock.AfterFunc(lp.opts.Delay, func() { lp.fire(gen) })
}

func (lp *LongPress) fire(gen uint64) {
	lp.mu.Lock()
	if lp.st.generation != gen || lp.st.target == nil || lp.st.triggered {
		lp.mu.Unlock()
		return
	}
	lp.st.triggered = true
	ev := *lp.st.target
	cb := lp.opts.OnLongPress
	lp.mu.Unlock()

	if cb != nil {
		cb(ev)
	}
}

// Release ends the hold. It is a click unless the long press already fired.
func (lp *LongPress) Release(ev Event) {
	lp.mu.Lock()
	if lp.st.target == nil {
		lp.mu.Unlock()
		return
	}
	triggered := lp.st.triggered
	lp.clearLocked()
	cb := lp.opts.OnClick
	lp.mu.Unlock()

	if !triggered && cb != nil {
		cb(ev)
	}
}

// Leave cancels the hold without a click, as when the pointer leaves the element.
func (lp *LongPress) Leave(Event) {
	lp.Reset()
}

// ContextMenu handles a right-click: any hold in progress is dropped and the
// long-press callback fires at once.
func (lp *LongPress) ContextMenu(ev Event) {
	lp.mu.Lock()
	lp.clearLocked()
	cb := lp.opts.OnLongPress
	lp.mu.Unlock()

	if cb != nil {
		cb(ev)
	}
}

// Reset drops all gesture state.
func (lp *LongPress) Reset() {
	lp.mu.Lock()
	lp.clearLocked()
	lp.mu.Unlock()
}

// Pressing reports whether a press is being held.
func (lp *LongPress) Pressing() bool {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	return lp.st.target != nil
}

// Triggered reports whether the current hold already fired.
func (lp *LongPress) Triggered() bool {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	return lp.st.triggered
}

func (lp *LongPress) clearLocked() {
	if lp.st.timer != nil {
		lp.st.timer.Stop()
	}
	if lp.st.unsubscribe != nil {
		lp.st.unsubscribe()
	}
	gen := lp.st.generation
	lp.st = pressState{generation: gen + 1}
}
