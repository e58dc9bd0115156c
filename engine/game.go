package engine

import "github.com/spaghettifunk/oberon/engine/core"

// Game is what the engine runs. Only FnInitialize is required.
type Game struct {
	State interface{}
	// Called with the loaded configuration before anything is created.
	FnBoot       Boot
	FnInitialize Initialize
	FnUpdate     Update
	FnShutdown   Shutdown
}

type Boot func(config *core.Config) error
type Initialize func(world *World) error
type Update func(world *World, deltaTime float64) error
type Shutdown func() error
