package engine

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/spaghettifunk/rendergraph/engine/assets"
	"github.com/spaghettifunk/rendergraph/engine/config"
	"github.com/spaghettifunk/rendergraph/engine/core"
	"github.com/spaghettifunk/rendergraph/engine/platform"
	"github.com/spaghettifunk/rendergraph/engine/recorder"
	"github.com/spaghettifunk/rendergraph/engine/renderer"
	"github.com/spaghettifunk/rendergraph/engine/renderer/presets"
	"github.com/spaghettifunk/rendergraph/engine/renderer/vulkan"
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
		return "boot complete"
	case EngineStageInitializing:
		return "initializing"
	case EngineStageInitialized:
		return "initialized"
	case EngineStageRunning:
		return "running"
	case EngineStageShuttingDown:
		return "shutting down"
	}
	return "unknown"
}

// How often the frame metrics are logged, in frames.
const metricsLogInterval = 600

type Engine struct {
	currentStage Stage
	gameInstance *Game
	cfg          *config.Config
	events       *core.EventBus
	isRunning    atomic.Bool
	isSuspended  bool
	platform     *platform.Platform
	assetManager *assets.AssetManager
	renderer     *renderer.Renderer
	recorder     *recorder.Recorder
	width        uint32
	height       uint32
	clock        *core.Clock
	metrics      *core.Metrics
	lastTime     time.Duration

	// Set by shader change events, served between frames.
	reloadPending bool
	windowOpen    bool
	rendererReady bool
}

func New(g *Game) (*Engine, error) {
	if g.ApplicationConfig == nil {
		g.ApplicationConfig = &ApplicationConfig{}
	}
	cfg := g.ApplicationConfig.resolve()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := core.LogConfigure(cfg.Logger.Level, cfg.Logger.Output); err != nil {
		return nil, err
	}

	events := core.NewEventBus()
	p := platform.New(events)

	am, err := assets.NewAssetManager()
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}

	rec := recorder.New(cfg.Recorder)
	opts := presets.OptionsFromConfig(cfg)
	opts.DrawUI = g.DrawUI
	opts.Sink = rec

	backend := vulkan.New(p, g.ApplicationConfig.Debug)

	return &Engine{
		currentStage: EngineStageUninitialized,
		gameInstance: g,
		cfg:          cfg,
		events:       events,
		platform:     p,
		assetManager: am,
		renderer:     renderer.New(backend, cfg, am, g.Scene, opts),
		recorder:     rec,
		clock:        core.NewClock(),
		metrics:      core.NewMetrics(),
		width:        cfg.Window.Width,
		height:       cfg.Window.Height,
	}, nil
}

func (e *Engine) Stage() Stage {
	return e.currentStage
}

func (e *Engine) Initialize() error {
	if e.currentStage != EngineStageUninitialized {
		return fmt.Errorf("engine initialize in stage %s", e.currentStage)
	}

	e.currentStage = EngineStageBooting
	if e.gameInstance.FnBoot != nil {
		if err := e.gameInstance.FnBoot(); err != nil {
			return err
		}
	}
	e.currentStage = EngineStageBootComplete

	e.currentStage = EngineStageInitializing
	e.registerEvents()

	w := e.cfg.Window
	if err := e.platform.Startup(w.Title, w.X, w.Y, w.Width, w.Height); err != nil {
		return err
	}
	e.windowOpen = true
	e.width, e.height = e.platform.FramebufferSize()

	if err := e.assetManager.Initialize(e.cfg.RenderGraph.ShaderDirectory); err != nil {
		return fmt.Errorf("shader directory %q: %w", e.cfg.RenderGraph.ShaderDirectory, err)
	}

	if err := e.renderer.Initialize(w.Title, e.width, e.height); err != nil {
		return err
	}
	e.rendererReady = true

	if e.cfg.Recorder.RecordFromStart {
		if err := e.recorder.Start(); err != nil {
			return err
		}
	}

	if e.gameInstance.FnInitialize != nil {
		if err := e.gameInstance.FnInitialize(); err != nil {
			return err
		}
	}
	if e.gameInstance.FnOnResize != nil {
		if err := e.gameInstance.FnOnResize(e.width, e.height); err != nil {
			return err
		}
	}

	e.currentStage = EngineStageInitialized
	e.isRunning.Store(true)
	return nil
}

func (e *Engine) Run() error {
	if e.currentStage != EngineStageInitialized {
		return fmt.Errorf("engine run in stage %s", e.currentStage)
	}
	e.currentStage = EngineStageRunning

	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()

	for e.isRunning.Load() {
		if !e.platform.PumpMessages() {
			e.isRunning.Store(false)
			break
		}

		e.dispatchAssetChanges()
		if e.reloadPending {
			e.reloadPending = false
			if err := e.renderer.RebuildGraph(); err != nil {
				core.LogError("shader reload failed, keeping the current render graph: %s", err)
			} else {
				core.LogInfo("render graph rebuilt after shader change")
			}
		}

		if e.isSuspended {
			e.platform.WaitMessages()
			continue
		}

		e.clock.Update()
		currentTime := e.clock.Elapsed()
		delta := currentTime - e.lastTime
		frameStart := time.Now()

		if e.gameInstance.FnUpdate != nil {
			if err := e.gameInstance.FnUpdate(delta.Seconds()); err != nil {
				core.LogError("Game update failed, shutting down: %s", err)
				return err
			}
		}

		if err := e.renderer.DrawFrame(); err != nil {
			core.LogError("Frame render failed, shutting down: %s", err)
			return err
		}

		e.metrics.Update(time.Since(frameStart))
		if e.metrics.FrameCount()%metricsLogInterval == 0 {
			core.LogDebug("frame %d: %.1f fps, %s avg frame time", e.metrics.FrameCount(), e.metrics.FPS(), e.metrics.FrameTime())
		}

		e.lastTime = currentTime
	}

	return nil
}

// Quit asks the run loop to return after the current frame. Safe to call
// from any goroutine.
func (e *Engine) Quit() {
	e.isRunning.Store(false)
}

// Shutdown releases everything Initialize created, in reverse order. It must
// run on the thread that ran the loop.
func (e *Engine) Shutdown() error {
	e.currentStage = EngineStageShuttingDown
	e.isRunning.Store(false)

	var errs []error
	if err := e.recorder.Stop(); err != nil {
		errs = append(errs, err)
	}
	if e.gameInstance.FnShutdown != nil {
		if err := e.gameInstance.FnShutdown(); err != nil {
			errs = append(errs, err)
		}
	}
	if e.rendererReady {
		if err := e.renderer.Shutdown(); err != nil {
			errs = append(errs, err)
		}
		e.rendererReady = false
	}
	if err := e.assetManager.Close(); err != nil {
		errs = append(errs, err)
	}
	e.events.Shutdown()
	if e.windowOpen {
		if err := e.platform.Shutdown(); err != nil {
			errs = append(errs, err)
		}
		e.windowOpen = false
	}
	if err := core.LogShutdown(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (e *Engine) GetFramebufferSize() (uint32, uint32) {
	return e.width, e.height
}

func (e *Engine) registerEvents() {
	e.events.Register(core.EVENT_CODE_APPLICATION_QUIT, e, e.onEvent)
	e.events.Register(core.EVENT_CODE_KEY_PRESSED, e, e.onKey)
	e.events.Register(core.EVENT_CODE_RESIZED, e, e.onResized)
	e.events.Register(core.EVENT_CODE_SHADER_CHANGED, e, e.onShaderChanged)
}

// dispatchAssetChanges turns watcher notifications into shader change events
// on the loop thread.
func (e *Engine) dispatchAssetChanges() {
	for {
		select {
		case path := <-e.assetManager.Changes():
			if !assets.IsShader(path) {
				continue
			}
			var ctx core.EventContext
			ctx.Data.C[0] = path
			e.events.Fire(core.EVENT_CODE_SHADER_CHANGED, e.assetManager, ctx)
		default:
			return
		}
	}
}

func (e *Engine) onEvent(code core.SystemEventCode, sender interface{}, listener interface{}, context core.EventContext) bool {
	switch code {
	case core.EVENT_CODE_APPLICATION_QUIT:
		core.LogInfo("EVENT_CODE_APPLICATION_QUIT received, shutting down.")
		e.isRunning.Store(false)
		return true
	}
	return false
}

func (e *Engine) onKey(code core.SystemEventCode, sender interface{}, listener interface{}, context core.EventContext) bool {
	switch core.KeyCode(context.Data.U32[0]) {
	case core.KEY_ESCAPE:
		e.events.Fire(core.EVENT_CODE_APPLICATION_QUIT, e, core.EventContext{})
		return true
	case core.KEY_F12:
		if err := e.recorder.Toggle(); err != nil {
			core.LogError("recorder: %s", err)
		}
		return true
	case core.KEY_F5, core.KEY_R:
		core.LogInfo("render graph reload requested")
		e.reloadPending = true
		return true
	}
	return false
}

func (e *Engine) onShaderChanged(code core.SystemEventCode, sender interface{}, listener interface{}, context core.EventContext) bool {
	core.LogInfo("shader %s changed", context.Data.C[0])
	e.reloadPending = true
	return false
}

func (e *Engine) onResized(code core.SystemEventCode, sender interface{}, listener interface{}, context core.EventContext) bool {
	width := context.Data.U32[0]
	height := context.Data.U32[1]
	if width == e.width && height == e.height {
		return false
	}
	e.width = width
	e.height = height

	core.LogDebug("Window resize: %d, %d", width, height)
	e.renderer.OnResize(width, height)

	if width == 0 || height == 0 {
		core.LogInfo("Window minimized, suspending application.")
		e.isSuspended = true
		return true
	}
	if e.isSuspended {
		core.LogInfo("Window restored, resuming application.")
		e.isSuspended = false
	}
	if e.gameInstance.FnOnResize != nil {
		if err := e.gameInstance.FnOnResize(width, height); err != nil {
			core.LogError(err.Error())
		}
	}
	return true
}
