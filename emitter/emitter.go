// Package emitter is a small synchronous event bus. Handlers run on the
// goroutine that calls Emit, in the order they were registered.
package emitter

import "sync"

type Handler func(payload ...any)

type listener struct {
	id   uint64
	fn   Handler
	once bool
}

type Emitter struct {
	mu        sync.Mutex
	nextID    uint64
	listeners map[string][]listener
}

func New() *Emitter {
	return &Emitter{listeners: map[string][]listener{}}
}

// On registers fn for event and returns a function that removes it again.
func (e *Emitter) On(event string, fn Handler) (off func()) {
	return e.add(event, fn, false)
}

// Once registers fn to run on the next emission of event only.
func (e *Emitter) Once(event string, fn Handler) (off func()) {
	return e.add(event, fn, true)
}

func (e *Emitter) add(event string, fn Handler, once bool) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextID++
	id := e.nextID
	e.listeners[event] = append(e.listeners[event], listener{id: id, fn: fn, once: once})

	return func() { e.remove(event, id) }
}

func (e *Emitter) remove(event string, id uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	ls := e.listeners[event]
	for i, l := range ls {
		if l.id == id {
			e.listeners[event] = append(ls[:i:i], ls[i+1:]...)
			if len(e.listeners[event]) == 0 {
				delete(e.listeners, event)
			}
			return true
		}
	}
	return false
}

// Emit calls every handler registered for event. The handler list is
// snapshotted first, so handlers may subscribe or unsubscribe while running.
func (e *Emitter) Emit(event string, payload ...any) {
	e.mu.Lock()
	snapshot := make([]listener, len(e.listeners[event]))
	copy(snapshot, e.listeners[event])
	e.mu.Unlock()

	for _, l := range snapshot {
		if l.once && !e.remove(event, l.id) {
			// another emission already consumed it
			continue
		}
		l.fn(payload...)
	}
}

func (e *Emitter) Listeners(event string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.listeners[event])
}
