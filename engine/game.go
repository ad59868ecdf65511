package engine

import (
	"github.com/spaghettifunk/rendergraph/engine/renderer/rendergraph"
)

type Game struct {
	ApplicationConfig *ApplicationConfig
	State             interface{}
	// Scene is drawn by the object passes; nil draws nothing.
	Scene rendergraph.SceneDrawer
	// DrawUI is recorded by the UI pass on top of the final image.
	DrawUI       rendergraph.DrawUIFunc
	FnBoot       Boot
	FnInitialize Initialize
	FnUpdate     Update
	FnOnResize   OnResize
	FnShutdown   Shutdown
}

type Boot func() error
type Initialize func() error
type Update func(deltaTime float64) error
type OnResize func(width uint32, height uint32) error
type Shutdown func() error
