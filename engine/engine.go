package engine

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"

	"github.com/spaghettifunk/oberon/engine/assets"
	"github.com/spaghettifunk/oberon/engine/core"
	"github.com/spaghettifunk/oberon/engine/platform"
	"github.com/spaghettifunk/oberon/engine/renderer/vulkan"
	"github.com/spaghettifunk/oberon/engine/scene"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently booting up
	EngineStageBooting
	// Engine completed boot process and is ready to be initialized
	EngineStageBootComplete
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

func (s Stage) String() string {
	switch s {
	case EngineStageUninitialized:
		return "uninitialized"
	case EngineStageBooting:
		return "booting"
	case EngineStageBootComplete:
		return "boot-complete"
	case EngineStageInitializing:
		return "initializing"
	case EngineStageInitialized:
		return "initialized"
	case EngineStageRunning:
		return "running"
	case EngineStageShuttingDown:
		return "shutting-down"
	}
	return "unknown"
}

// How many frames between two frame-time reports.
const metricsReportInterval = 300

type Engine struct {
	currentStage Stage
	gameInstance *Game
	config       *core.Config
	configPath   string

	isRunning atomic.Bool

	platform     *platform.Platform
	assetManager *assets.AssetManager
	renderer     *vulkan.Renderer
	world        *World

	clock    *core.Clock
	metrics  *core.Metrics
	lastTime float64

	shutdownOnce sync.Once
	shutdownErr  error
}

// New boots the engine: it loads the configuration at configPath and lets
// the game adjust it. Nothing touches the window or the GPU yet.
func New(g *Game, configPath string) (*Engine, error) {
	if g == nil || g.FnInitialize == nil {
		return nil, errors.New("game must provide an initialize function")
	}
	e := &Engine{
		currentStage: EngineStageBooting,
		gameInstance: g,
		configPath:   configPath,
		clock:        core.NewClock(),
		metrics:      core.NewMetrics(),
	}

	cfg, err := core.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if g.FnBoot != nil {
		if err := g.FnBoot(cfg); err != nil {
			return nil, errors.Wrap(err, "booting game")
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	core.SetLogLevel(cfg.Log.Level)
	e.config = cfg

	am, err := assets.NewAssetManager()
	if err != nil {
		return nil, err
	}
	e.assetManager = am

	events := core.NewEventBus()
	input := core.NewInput(events)
	e.platform = platform.New(input)
	e.world = &World{
		Lights: scene.NewLightManager(),
		Input:  input,
		Events: events,
	}

	e.currentStage = EngineStageBootComplete
	return e, nil
}

func (e *Engine) Stage() Stage {
	return e.currentStage
}

// Initialize opens the window, creates the renderer and hands the world to
// the game. On error the caller must still call Shutdown.
func (e *Engine) Initialize() error {
	if e.currentStage != EngineStageBootComplete {
		return errors.Newf("cannot initialize from stage %s", e.currentStage)
	}
	e.currentStage = EngineStageInitializing
	app := e.config.Application

	if err := e.platform.Startup(app.Name, app.PosX, app.PosY, app.Width, app.Height); err != nil {
		return err
	}

	if err := e.assetManager.Initialize(e.config.Renderer.AssetsDir); err != nil {
		return err
	}

	e.renderer = vulkan.New(e.platform, e.assetManager, vulkan.Options{
		ApplicationName:   app.Name,
		Width:             app.Width,
		Height:            app.Height,
		Validation:        e.config.Renderer.Validation,
		PreferDiscreteGPU: e.config.Renderer.PreferDiscreteGPU,
		ClearColor:        e.config.Renderer.ClearColor,
	})
	if err := e.renderer.Initialize(); err != nil {
		return errors.Wrap(err, "initializing renderer")
	}

	width, height := e.renderer.Extent()
	e.world.Width, e.world.Height = width, height
	e.world.SlotCount = e.renderer.SlotCount()
	e.world.Camera = scene.NewCameraBuilder().Aspect(float32(width) / float32(height)).Build()
	e.world.addDrawable = e.renderer.AddDrawable

	e.world.Events.Register(core.EventApplicationQuit, e.onQuit)
	e.world.Events.Register(core.EventKeyPressed, e.onKey)

	if err := e.gameInstance.FnInitialize(e.world); err != nil {
		return errors.Wrap(err, "initializing game")
	}

	e.currentStage = EngineStageInitialized
	return nil
}

// Run drives the frame loop on the calling goroutine, which must be the
// main one, until the window closes, the game quits or ctx is done.
// Configuration reloads are watched in the background meanwhile.
func (e *Engine) Run(ctx context.Context) error {
	if e.currentStage != EngineStageInitialized {
		return errors.Newf("cannot run from stage %s", e.currentStage)
	}
	e.currentStage = EngineStageRunning
	e.isRunning.Store(true)

	ctx, cancel := context.WithCancel(ctx)
	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := core.WatchConfig(gctx, e.configPath, e.onConfigChange); err != nil {
			// hot reload is optional
			core.LogWarn("Configuration reload disabled: %s", err)
		}
		return nil
	})
	group.Go(func() error {
		<-gctx.Done()
		e.isRunning.Store(false)
		return nil
	})

	loopErr := e.loop()
	cancel()
	return errors.CombineErrors(loopErr, group.Wait())
}

func (e *Engine) loop() error {
	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()

	for e.isRunning.Load() {
		if !e.platform.PumpMessages() {
			e.isRunning.Store(false)
			break
		}

		// Update clock and get delta time.
		e.clock.Update()
		currentTime := e.clock.Elapsed()
		delta := currentTime - e.lastTime
		frameStartTime := platform.GetAbsoluteTime()

		if e.gameInstance.FnUpdate != nil {
			if err := e.gameInstance.FnUpdate(e.world, delta); err != nil {
				core.LogError("Game update failed, shutting down.")
				return errors.Wrap(err, "updating game")
			}
		}

		if err := e.renderer.RunFrame(e.world.Camera, e.world.Lights); err != nil {
			core.LogError("Frame %d failed, shutting down.", e.renderer.FrameNumber())
			return errors.Wrap(err, "rendering frame")
		}

		// Figure out how long the frame took
		e.metrics.Update(platform.GetAbsoluteTime() - frameStartTime)
		if e.metrics.TotalFrames()%metricsReportInterval == 0 {
			fps, ms := e.metrics.Frame()
			core.Logger().Debug("frame stats", "frames", e.metrics.TotalFrames(), "fps", fps, "avg_ms", ms)
		}

		// NOTE: Input update/state copying should always be handled
		// after any input should be recorded; I.E. before this line.
		// As a safety, input is the last thing to be updated before
		// this frame ends.
		e.world.Input.Update()

		e.lastTime = currentTime
	}
	return nil
}

// Shutdown releases everything Initialize created, renderer first. It may
// be called at any stage and only the first call has an effect.
func (e *Engine) Shutdown() error {
	e.shutdownOnce.Do(func() {
		e.currentStage = EngineStageShuttingDown
		e.isRunning.Store(false)

		var err error
		if e.gameInstance.FnShutdown != nil {
			err = errors.CombineErrors(err, e.gameInstance.FnShutdown())
		}
		if e.renderer != nil {
			err = errors.CombineErrors(err, e.renderer.Shutdown())
		}
		if e.assetManager != nil {
			err = errors.CombineErrors(err, e.assetManager.Shutdown())
		}
		if e.platform != nil && e.platform.Window != nil {
			err = errors.CombineErrors(err, e.platform.Shutdown())
		}
		e.shutdownErr = err
		core.LogInfo("Engine shut down after %d frames.", e.metrics.TotalFrames())
	})
	return e.shutdownErr
}

// GetFramebufferSize returns the width and height (in this order) of the
// presented images.
func (e *Engine) GetFramebufferSize() (uint32, uint32) {
	return e.world.Width, e.world.Height
}

func (e *Engine) onConfigChange(cfg *core.Config) {
	core.SetLogLevel(cfg.Log.Level)
	if cfg.Application != e.config.Application || cfg.Renderer != e.config.Renderer {
		core.LogWarn("Window and renderer settings take effect on the next start.")
	}
}

func (e *Engine) onQuit(ctx core.EventContext) bool {
	core.LogInfo("Quit requested, shutting down.")
	e.isRunning.Store(false)
	return true
}

func (e *Engine) onKey(ctx core.EventContext) bool {
	if ctx.Key == core.KEY_ESCAPE {
		// NOTE: Technically firing an event to itself, but there may be other listeners.
		e.world.Events.Fire(core.EventContext{Code: core.EventApplicationQuit})
		// Block anything else from processing this.
		return true
	}
	return false
}
