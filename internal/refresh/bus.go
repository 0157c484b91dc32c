// Package refresh broadcasts data-changed notifications to registered
// listeners.
package refresh

import (
	"log/slog"
	"sync"
)

// Bus is an event bus with dynamic subscriber lifetime. Handles are
// monotonically increasing and never reused. Publish invokes every
// listener synchronously; a panicking listener does not prevent the
// others from running.
type Bus struct {
	mu        sync.Mutex
	nextID    int
	listeners map[int]func()
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{listeners: make(map[int]func())}
}

// Subscribe registers a listener and returns its handle.
func (b *Bus) Subscribe(fn func()) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.listeners[id] = fn
	slog.Debug("refresh_listener_added", "listener_id", id, "total", len(b.listeners))
	return id
}

// Unsubscribe removes the listener with the given handle. Reports whether
// it was registered.
func (b *Bus) Unsubscribe(id int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.listeners[id]
	delete(b.listeners, id)
	slog.Debug("refresh_listener_removed", "listener_id", id, "found", ok, "remaining", len(b.listeners))
	return ok
}

// Len returns the number of registered listeners.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners)
}

// Publish calls every registered listener. The listener set is snapshotted
// up front so listeners may subscribe or unsubscribe from their callback.
func (b *Bus) Publish() {
	b.mu.Lock()
	snapshot := make(map[int]func(), len(b.listeners))
	for id, fn := range b.listeners {
		snapshot[id] = fn
	}
	b.mu.Unlock()

	for id, fn := range snapshot {
		invoke(id, fn)
	}
}

func invoke(id int, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("refresh_listener_panic", "listener_id", id, "panic", r)
		}
	}()
	fn()
}
