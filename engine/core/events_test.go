package core

import "testing"

func TestEventBusStopsAtFirstHandler(t *testing.T) {
	bus := NewEventBus()
	var calls []string
	bus.Register(EventKeyPressed, func(ctx EventContext) bool {
		calls = append(calls, "first")
		return ctx.Key == KEY_ESCAPE
	})
	bus.Register(EventKeyPressed, func(ctx EventContext) bool {
		calls = append(calls, "second")
		return true
	})

	if !bus.Fire(EventContext{Code: EventKeyPressed, Key: KEY_ESCAPE}) {
		t.Fatal("event should be handled")
	}
	if len(calls) != 1 {
		t.Fatalf("expected only the first handler, got %v", calls)
	}

	calls = nil
	bus.Fire(EventContext{Code: EventKeyPressed, Key: KEY_A})
	if len(calls) != 2 {
		t.Fatalf("expected both handlers, got %v", calls)
	}

	if bus.Fire(EventContext{Code: EventApplicationQuit}) {
		t.Error("nothing is registered for quit")
	}
}

func TestEventBusUnregister(t *testing.T) {
	bus := NewEventBus()
	count := 0
	unregister := bus.Register(EventApplicationQuit, func(EventContext) bool {
		count++
		return true
	})
	bus.Fire(EventContext{Code: EventApplicationQuit})
	unregister()
	unregister()
	bus.Fire(EventContext{Code: EventApplicationQuit})
	if count != 1 {
		t.Errorf("expected 1 call, got %d", count)
	}
}

func TestInputTransitions(t *testing.T) {
	bus := NewEventBus()
	var fired []EventContext
	for _, code := range []EventCode{EventKeyPressed, EventKeyReleased} {
		bus.Register(code, func(ctx EventContext) bool {
			fired = append(fired, ctx)
			return false
		})
	}
	in := NewInput(bus)

	in.ProcessKey(KEY_W, true)
	in.ProcessKey(KEY_W, true) // repeat
	if !in.IsKeyDown(KEY_W) || in.WasKeyDown(KEY_W) {
		t.Fatal("W should be down this frame only")
	}
	in.Update()
	if !in.WasKeyDown(KEY_W) {
		t.Error("W should have been down last frame")
	}
	in.ProcessKey(KEY_W, false)
	if !in.IsKeyUp(KEY_W) {
		t.Error("W should be up")
	}

	if len(fired) != 2 || fired[0].Code != EventKeyPressed || fired[1].Code != EventKeyReleased || fired[1].Key != KEY_W {
		t.Errorf("unexpected events %+v", fired)
	}

	in.ProcessKey(KEY_UNKNOWN, true)
	in.ProcessKey(KeyCode(0x1000), true)
	if len(fired) != 2 {
		t.Error("unknown keys must be ignored")
	}
}
