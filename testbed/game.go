package testbed

import (
	"github.com/spaghettifunk/rendergraph/engine"
	"github.com/spaghettifunk/rendergraph/engine/config"
	"github.com/spaghettifunk/rendergraph/engine/core"
	"github.com/spaghettifunk/rendergraph/engine/renderer/rendergraph"
)

type TestGame struct {
	*engine.Game
}

type gameState struct {
	elapsed float64
	width   uint32
	height  uint32

	// Per-pass draw counters, for the frame log.
	sceneDraws map[string]uint64
	uiDraws    uint64
}

// The object shaders expand gl_VertexIndex into one full-screen triangle.
const fullscreenTriangle = 3

type scene struct {
	state *gameState
}

func (s *scene) DrawScene(cmd rendergraph.CommandStream, pass string) {
	cmd.Draw(fullscreenTriangle, 1)
	s.state.sceneDraws[pass]++
}

func NewTestGame(cfg *config.Config, debug bool) *TestGame {
	state := &gameState{sceneDraws: map[string]uint64{}}
	tg := &TestGame{
		Game: &engine.Game{
			ApplicationConfig: &engine.ApplicationConfig{
				Name:   "Render Graph Testbed",
				Config: cfg,
				Debug:  debug,
			},
			State: state,
			Scene: &scene{state: state},
		},
	}

	tg.DrawUI = tg.drawUI
	tg.FnBoot = tg.Boot
	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnOnResize = tg.OnResize
	tg.FnShutdown = tg.Shutdown

	return tg
}

func (g *TestGame) state() *gameState {
	return g.State.(*gameState)
}

func (g *TestGame) Boot() error {
	core.LogInfo("booting testbed...")
	return nil
}

func (g *TestGame) Initialize() error {
	core.LogDebug("TestGame Initialize fn....")
	s := g.state()
	s.elapsed = 0
	return nil
}

func (g *TestGame) Update(deltaTime float64) error {
	g.state().elapsed += deltaTime
	return nil
}

func (g *TestGame) OnResize(width uint32, height uint32) error {
	s := g.state()
	s.width = width
	s.height = height
	return nil
}

func (g *TestGame) Shutdown() error {
	s := g.state()
	core.LogInfo("testbed ran %.1fs: scene draws %v, ui draws %d", s.elapsed, s.sceneDraws, s.uiDraws)
	return nil
}

// drawUI runs inside the UI render pass. The pass binds no pipeline, so the
// callback must bind its own before drawing.
// TODO: draw a frame-stats overlay once the testbed builds a UI pipeline.
func (g *TestGame) drawUI(cmd rendergraph.CommandStream) {
	g.state().uiDraws++
}
