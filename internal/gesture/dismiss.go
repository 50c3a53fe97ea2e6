package gesture

import "sync"

// Rect is a menu's on-screen bounds.
type Rect struct {
	X, Y, W, H float64
}

// Contains reports whether (x, y) lies inside r.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// Dismisser closes a context menu when a pointer-down lands outside it.
// Mount when the menu opens and Unmount when it closes.
type Dismisser struct {
	Observer  Observer
	Bounds    func() Rect
	OnDismiss func()

	mu          sync.Mutex
	unsubscribe func()
}

// Mount starts listening. Mounting twice is a no-op.
func (d *Dismisser) Mount() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.unsubscribe != nil || d.Observer == nil {
		return
	}
	d.unsubscribe = d.Observer.Subscribe(EventPointerDown, false, d.handle)
}

// Unmount stops listening.
func (d *Dismisser) Unmount() {
	d.mu.Lock()
	unsub := d.unsubscribe
	d.unsubscribe = nil
	d.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

// Mounted reports whether the dismisser is listening.
func (d *Dismisser) Mounted() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.unsubscribe != nil
}

func (d *Dismisser) handle(ev Event) {
	if d.Bounds != nil && d.Bounds().Contains(ev.X, ev.Y) {
		return
	}
	if d.OnDismiss != nil {
		d.OnDismiss()
	}
}
