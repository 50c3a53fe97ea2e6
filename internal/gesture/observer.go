// Package gesture turns press-and-hold or right-click input into context
// menu triggers and dismisses open menus on outside clicks.
package gesture

import "sync"

// Input event types dispatched through an Observer.
const (
	EventPointerDown = "pointerdown"
	EventPointerUp   = "pointerup"
	EventTouchEnd    = "touchend"
	EventContextMenu = "contextmenu"
)

// Event is a pointer or touch input at a position, carrying an opaque target.
type Event struct {
	Type   string
	X, Y   float64
	Target any
}

// Observer is a global input source that listeners can attach to for the
// lifetime of a component.
type Observer interface {
	Subscribe(eventType string, capture bool, fn func(Event)) (unsubscribe func())
}

type listener struct {
	id      uint64
	capture bool
	fn      func(Event)
}

// Bus is an in-process Observer. Capture listeners run before bubble ones.
type Bus struct {
	mu        sync.Mutex
	nextID    uint64
	listeners map[string][]listener
}

var _ Observer = (*Bus)(nil)

// NewBus returns an empty Bus.
func NewBus() *Bus {
	return &Bus{listeners: make(map[string][]listener)}
}

// Subscribe registers fn. The returned func removes it and is safe to call
// more than once.
func (b *Bus) Subscribe(eventType string, capture bool, fn func(Event)) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.listeners[eventType] = append(b.listeners[eventType], listener{id: id, capture: capture, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			ls := b.listeners[eventType]
			for i, l := range ls {
				if l.id == id {
					b.listeners[eventType] = append(ls[:i:i], ls[i+1:]...)
					break
				}
			}
			if len(b.listeners[eventType]) == 0 {
				delete(b.listeners, eventType)
			}
		})
	}
}

// Dispatch delivers ev to every listener of ev.Type.
func (b *Bus) Dispatch(ev Event) {
	b.mu.Lock()
	ls := append([]listener(nil), b.listeners[ev.Type]...)
	b.mu.Unlock()

	for _, l := range ls {
		if l.capture {
			l.fn(ev)
		}
	}
	for _, l := range ls {
		if !l.capture {
			l.fn(ev)
		}
	}
}

// Listeners counts the listeners attached for eventType.
func (b *Bus) Listeners(eventType string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners[eventType])
}
