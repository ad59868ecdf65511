package testbed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/rendergraph/engine/config"
	"github.com/spaghettifunk/rendergraph/engine/renderer/rendergraph/graphtest"
)

func TestSceneAndOverlayDraws(t *testing.T) {
	tg := NewTestGame(config.Default(), false)
	require.NotNil(t, tg.Scene)
	require.NotNil(t, tg.DrawUI)

	stream := &graphtest.Stream{}
	tg.Scene.DrawScene(stream, "DefaultObject")
	tg.DrawUI(stream)

	assert.Equal(t, []string{"draw 3 1"}, stream.Commands)
	assert.Equal(t, uint64(1), tg.state().sceneDraws["DefaultObject"])
	assert.Equal(t, uint64(1), tg.state().uiDraws)
}

func TestLifecycleCallbacks(t *testing.T) {
	tg := NewTestGame(config.Default(), true)
	assert.True(t, tg.ApplicationConfig.Debug)

	require.NoError(t, tg.FnBoot())
	require.NoError(t, tg.FnInitialize())
	require.NoError(t, tg.FnUpdate(0.25))
	require.NoError(t, tg.FnUpdate(0.25))
	require.NoError(t, tg.FnOnResize(640, 360))
	require.NoError(t, tg.FnShutdown())

	s := tg.state()
	assert.InDelta(t, 0.5, s.elapsed, 1e-9)
	assert.Equal(t, uint32(640), s.width)
	assert.Equal(t, uint32(360), s.height)
}
