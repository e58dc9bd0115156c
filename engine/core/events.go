package core

import "sync"

// EventCode identifies what happened. Applications should use codes beyond
// MaxSystemEventCode.
type EventCode uint16

const (
	// Shuts the application down on the next frame.
	EventApplicationQuit EventCode = 0x01
	// Keyboard key pressed, Key holds the key.
	EventKeyPressed EventCode = 0x02
	// Keyboard key released, Key holds the key.
	EventKeyReleased EventCode = 0x03

	MaxSystemEventCode EventCode = 0xFF
)

type EventContext struct {
	Code EventCode
	Key  KeyCode
}

// EventHandler should return true if it handled the event.
type EventHandler func(ctx EventContext) bool

type registeredHandler struct {
	id      uint64
	handler EventHandler
}

// EventBus dispatches events synchronously to the handlers registered for
// their code, in registration order, until one reports it handled the event.
type EventBus struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers map[EventCode][]registeredHandler
}

func NewEventBus() *EventBus {
	return &EventBus{
		handlers: make(map[EventCode][]registeredHandler),
	}
}

// Register adds a handler for code and returns a function that removes it.
func (b *EventBus) Register(code EventCode, handler EventHandler) (unregister func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.handlers[code] = append(b.handlers[code], registeredHandler{id: id, handler: handler})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		list := b.handlers[code]
		for i := range list {
			if list[i].id == id {
				b.handlers[code] = append(list[:i:i], list[i+1:]...)
				return
			}
		}
	}
}

// Fire returns true if a handler handled the event.
func (b *EventBus) Fire(ctx EventContext) bool {
	b.mu.RLock()
	// handlers may register or unregister while the event is dispatched
	list := append([]registeredHandler(nil), b.handlers[ctx.Code]...)
	b.mu.RUnlock()

	for _, h := range list {
		if h.handler(ctx) {
			return true
		}
	}
	return false
}
