package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/rendergraph/engine/config"
	"github.com/spaghettifunk/rendergraph/engine/core"
)

func newTestEngine(t *testing.T, g *Game) *Engine {
	t.Helper()
	cfg := config.Default()
	cfg.Logger.Level = "off"
	cfg.Recorder.OutputPath = t.TempDir()
	g.ApplicationConfig = &ApplicationConfig{Name: "engine test", Config: cfg}
	e, err := New(g)
	require.NoError(t, err)
	e.registerEvents()
	t.Cleanup(func() { _ = e.assetManager.Close() })
	return e
}

func resize(e *Engine, w, h uint32) {
	var ctx core.EventContext
	ctx.Data.U32[0] = w
	ctx.Data.U32[1] = h
	e.events.Fire(core.EVENT_CODE_RESIZED, nil, ctx)
}

func key(e *Engine, k core.KeyCode) {
	var ctx core.EventContext
	ctx.Data.U32[0] = uint32(k)
	e.events.Fire(core.EVENT_CODE_KEY_PRESSED, nil, ctx)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Window.Width = 0
	_, err := New(&Game{ApplicationConfig: &ApplicationConfig{Config: cfg}})
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestApplicationNameOverridesTitle(t *testing.T) {
	e := newTestEngine(t, &Game{})
	assert.Equal(t, "engine test", e.cfg.Window.Title)
	assert.Equal(t, EngineStageUninitialized, e.Stage())
}

func TestRunRequiresInitialize(t *testing.T) {
	e := newTestEngine(t, &Game{})
	assert.Error(t, e.Run())
}

func TestResizeSuspendsAndResumes(t *testing.T) {
	var sizes [][2]uint32
	e := newTestEngine(t, &Game{
		FnOnResize: func(w, h uint32) error {
			sizes = append(sizes, [2]uint32{w, h})
			return nil
		},
	})

	resize(e, 0, 0)
	assert.True(t, e.isSuspended)

	resize(e, 800, 600)
	assert.False(t, e.isSuspended)
	w, h := e.GetFramebufferSize()
	assert.Equal(t, uint32(800), w)
	assert.Equal(t, uint32(600), h)

	// Same size again is ignored.
	resize(e, 800, 600)
	assert.Equal(t, [][2]uint32{{800, 600}}, sizes)
}

func TestKeyBindings(t *testing.T) {
	e := newTestEngine(t, &Game{})
	e.isRunning.Store(true)

	key(e, core.KEY_F5)
	assert.True(t, e.reloadPending)

	key(e, core.KEY_F12)
	assert.True(t, e.recorder.Recording())
	key(e, core.KEY_F12)
	assert.False(t, e.recorder.Recording())

	key(e, core.KEY_ESCAPE)
	assert.False(t, e.isRunning.Load())
}

func TestShaderChangeRequestsReload(t *testing.T) {
	e := newTestEngine(t, &Game{})
	var ctx core.EventContext
	ctx.Data.C[0] = "assets/shaders/fxaa/node.frag.spv"
	e.events.Fire(core.EVENT_CODE_SHADER_CHANGED, nil, ctx)
	assert.True(t, e.reloadPending)
}

func TestQuitFromAnotherGoroutine(t *testing.T) {
	e := newTestEngine(t, &Game{})
	e.isRunning.Store(true)
	done := make(chan struct{})
	go func() {
		e.Quit()
		close(done)
	}()
	<-done
	assert.False(t, e.isRunning.Load())
}
