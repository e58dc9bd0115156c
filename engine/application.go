package engine

import (
	"github.com/spaghettifunk/oberon/engine/core"
	"github.com/spaghettifunk/oberon/engine/scene"
)

// World is what a game sees of the running engine. The camera and lights
// are read by the renderer every frame; a game may replace either.
type World struct {
	Camera *scene.Camera
	Lights *scene.LightManager
	Input  *core.Input
	Events *core.EventBus

	// Number of frames that may be in flight, and so the number of
	// instance buffers a model needs.
	SlotCount int
	Width     uint32
	Height    uint32

	addDrawable func(scene.Drawable) error
}

// AddDrawable uploads d and draws it every frame from now on. The engine
// owns d afterwards and releases it at shutdown.
func (w *World) AddDrawable(d scene.Drawable) error {
	return w.addDrawable(d)
}

// Quit asks the engine to stop after the current frame.
func (w *World) Quit() {
	w.Events.Fire(core.EventContext{Code: core.EventApplicationQuit})
}
