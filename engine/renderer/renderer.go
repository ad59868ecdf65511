package renderer

import (
	"errors"
	"fmt"

	"github.com/spaghettifunk/rendergraph/engine/config"
	"github.com/spaghettifunk/rendergraph/engine/core"
	"github.com/spaghettifunk/rendergraph/engine/renderer/presets"
	"github.com/spaghettifunk/rendergraph/engine/renderer/rendergraph"
)

// Renderer owns the backend and the render graph built on top of it. All
// methods must be called from the thread driving the frame loop.
type Renderer struct {
	backend RendererBackend
	cfg     *config.Config
	shaders rendergraph.ShaderSource
	scene   rendergraph.SceneDrawer
	opts    presets.Options

	graph      *rendergraph.Graph
	imageCount int
	minimized  bool
}

func New(backend RendererBackend, cfg *config.Config, shaders rendergraph.ShaderSource, scene rendergraph.SceneDrawer, opts presets.Options) *Renderer {
	return &Renderer{
		backend: backend,
		cfg:     cfg,
		shaders: shaders,
		scene:   scene,
		opts:    opts,
	}
}

func (r *Renderer) Initialize(appName string, appWidth, appHeight uint32) error {
	if err := r.backend.Initialize(appName, appWidth, appHeight); err != nil {
		return fmt.Errorf("renderer backend: %w", err)
	}
	graph, err := r.buildGraph()
	if err != nil {
		if serr := r.backend.Shutdown(); serr != nil {
			core.LogWarn("renderer backend shutdown: %s", serr)
		}
		return err
	}
	r.graph = graph
	return nil
}

func (r *Renderer) Graph() *rendergraph.Graph {
	return r.graph
}

func (r *Renderer) buildGraph() (*rendergraph.Graph, error) {
	graph, err := presets.ByName(r.cfg.RenderGraph.Name, r.opts)
	if err != nil {
		return nil, err
	}
	ctx := &rendergraph.Context{
		Device:    r.backend.Device(),
		Swapchain: r.backend.Swapchain(),
		Shaders:   r.shaders,
		Scene:     r.scene,
		Config:    r.cfg.Bundle(),
	}
	if err := graph.Build(ctx); err != nil {
		return nil, fmt.Errorf("build render graph %q: %w", graph.Name(), err)
	}
	r.imageCount = r.backend.ImageCount()
	return graph, nil
}

// RebuildGraph replaces the graph with a freshly built one, reloading every
// shader. The current graph keeps running if the new one fails to build.
func (r *Renderer) RebuildGraph() error {
	if err := r.backend.DeviceWaitIdle(); err != nil {
		return err
	}
	graph, err := r.buildGraph()
	if err != nil {
		return err
	}
	if r.graph != nil {
		r.graph.Destroy()
	}
	r.graph = graph
	return nil
}

// OnResize forwards the new framebuffer size. The swapchain and the graph are
// rebuilt by the next DrawFrame.
func (r *Renderer) OnResize(width, height uint32) {
	r.minimized = width == 0 || height == 0
	r.backend.Resized(width, height)
}

// DrawFrame records the graph into the next swapchain image and presents it.
// Frames are skipped while the swapchain is being recreated or the window is
// minimized.
func (r *Renderer) DrawFrame() error {
	if r.graph == nil {
		return core.ErrNotInitialized
	}
	if r.minimized {
		return nil
	}

	imageIndex, cmd, err := r.backend.BeginFrame()
	if errors.Is(err, core.ErrSwapchainBooting) {
		return r.recreateSwapchain()
	}
	if err != nil {
		return fmt.Errorf("begin frame: %w", err)
	}

	// The previous submission on this image has retired.
	r.graph.CompleteFrame(imageIndex)
	r.graph.RecordFrame(imageIndex, cmd)

	if err := r.backend.EndFrame(); err != nil {
		return fmt.Errorf("end frame: %w", err)
	}
	return nil
}

func (r *Renderer) recreateSwapchain() error {
	err := r.backend.RecreateSwapchain()
	switch {
	case errors.Is(err, core.ErrWindowMinimized):
		r.minimized = true
		return nil
	case errors.Is(err, core.ErrSwapchainBooting):
		return nil
	case err != nil:
		return fmt.Errorf("recreate swapchain: %w", err)
	}

	if r.backend.ImageCount() != r.imageCount {
		core.LogInfo("swapchain image count changed %d -> %d, rebuilding render graph", r.imageCount, r.backend.ImageCount())
		return r.RebuildGraph()
	}
	return r.graph.Resize(r.backend.Extent())
}

func (r *Renderer) Shutdown() error {
	if err := r.backend.DeviceWaitIdle(); err != nil {
		core.LogWarn("device wait idle: %s", err)
	}
	if r.graph != nil {
		r.graph.Destroy()
		r.graph = nil
	}
	return r.backend.Shutdown()
}
