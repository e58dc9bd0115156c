package core

import "sync"

// Key code definitions
type KeyCode uint16

const (
	KEY_UNKNOWN KeyCode = 0x00
	KEY_ENTER   KeyCode = 0x0D
	KEY_ESCAPE  KeyCode = 0x1B
	KEY_SPACE   KeyCode = 0x20
	KEY_PRIOR   KeyCode = 0x21 // page up
	KEY_NEXT    KeyCode = 0x22 // page down
	KEY_LEFT    KeyCode = 0x25
	KEY_UP      KeyCode = 0x26
	KEY_RIGHT   KeyCode = 0x27
	KEY_DOWN    KeyCode = 0x28
	KEY_A       KeyCode = 0x41
	KEY_D       KeyCode = 0x44
	KEY_E       KeyCode = 0x45
	KEY_H       KeyCode = 0x48
	KEY_Q       KeyCode = 0x51
	KEY_S       KeyCode = 0x53
	KEY_W       KeyCode = 0x57

	KEYS_MAX_KEYS KeyCode = 0x100
)

type keyboardState struct {
	Keys [KEYS_MAX_KEYS]bool
}

// Input tracks which keys are down this frame and which were down the
// previous one. The platform feeds it, the game polls it.
type Input struct {
	mu       sync.Mutex
	current  keyboardState
	previous keyboardState
	events   *EventBus
}

// NewInput fires key events on events when it is not nil.
func NewInput(events *EventBus) *Input {
	return &Input{events: events}
}

// Update copies current states to previous states. Call it once at the end
// of every frame.
func (in *Input) Update() {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.previous = in.current
}

func (in *Input) IsKeyDown(key KeyCode) bool {
	if key >= KEYS_MAX_KEYS {
		return false
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.current.Keys[key]
}

func (in *Input) IsKeyUp(key KeyCode) bool {
	return !in.IsKeyDown(key)
}

func (in *Input) WasKeyDown(key KeyCode) bool {
	if key >= KEYS_MAX_KEYS {
		return false
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.previous.Keys[key]
}

// ProcessKey records a key transition and fires the matching event. Repeats
// of the current state are ignored.
func (in *Input) ProcessKey(key KeyCode, pressed bool) {
	if key == KEY_UNKNOWN || key >= KEYS_MAX_KEYS {
		return
	}
	in.mu.Lock()
	// Only handle this if the state actually changed.
	if in.current.Keys[key] == pressed {
		in.mu.Unlock()
		return
	}
	in.current.Keys[key] = pressed
	in.mu.Unlock()

	if in.events == nil {
		return
	}
	code := EventKeyReleased
	if pressed {
		code = EventKeyPressed
	}
	in.events.Fire(EventContext{Code: code, Key: key})
}
