/*
Testbed application that drives the engine with a small instanced scene.
*/
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/oberon/engine"
	"github.com/spaghettifunk/oberon/engine/core"
	"github.com/spaghettifunk/oberon/testbed"
)

func main() {
	if err := run(); err != nil {
		core.Logger().Error("engine stopped", "err", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	defer stop()

	configPath := core.DefaultConfigPath
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	e, err := engine.New(testbed.NewTestGame(), configPath)
	if err != nil {
		return err
	}
	// Shutdown runs once, whichever way we leave.
	defer e.Shutdown()

	if err := e.Initialize(); err != nil {
		return err
	}
	if err := e.Run(ctx); err != nil {
		return err
	}
	return e.Shutdown()
}
