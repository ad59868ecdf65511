package renderer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/rendergraph/engine/config"
	"github.com/spaghettifunk/rendergraph/engine/core"
	"github.com/spaghettifunk/rendergraph/engine/renderer/metadata"
	"github.com/spaghettifunk/rendergraph/engine/renderer/passes"
	"github.com/spaghettifunk/rendergraph/engine/renderer/presets"
	"github.com/spaghettifunk/rendergraph/engine/renderer/rendergraph"
	"github.com/spaghettifunk/rendergraph/engine/renderer/rendergraph/graphtest"
)

type fakeBackend struct {
	device    *graphtest.Device
	swapchain *graphtest.Swapchain
	stream    *graphtest.Stream

	pendingExtent *metadata.Extent
	pendingCount  int
	next          int
	frames        int
	shutdown      bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		device:    graphtest.NewDevice(),
		swapchain: graphtest.NewSwapchain(3, metadata.Extent{Width: 640, Height: 480}),
		stream:    &graphtest.Stream{},
	}
}

func (b *fakeBackend) Initialize(string, uint32, uint32) error { return nil }

func (b *fakeBackend) Shutdown() error {
	b.shutdown = true
	return nil
}

func (b *fakeBackend) Device() rendergraph.Device { return b.device }
func (b *fakeBackend) Swapchain() rendergraph.Swapchain { return b.swapchain }

func (b *fakeBackend) Resized(width, height uint32) {
	b.pendingExtent = &metadata.Extent{Width: width, Height: height}
}

func (b *fakeBackend) NeedsRecreate() bool {
	return b.pendingExtent != nil
}

func (b *fakeBackend) RecreateSwapchain() error {
	extent := b.swapchain.Extent
	if b.pendingExtent != nil {
		extent = *b.pendingExtent
	}
	if extent.Width == 0 || extent.Height == 0 {
		return core.ErrWindowMinimized
	}
	count := b.swapchain.ImageCount()
	if b.pendingCount > 0 {
		count = b.pendingCount
	}
	b.swapchain.Recreate(count, extent)
	b.pendingExtent = nil
	b.pendingCount = 0
	b.next = 0
	return nil
}

func (b *fakeBackend) ImageCount() int { return b.swapchain.ImageCount() }
func (b *fakeBackend) Extent() metadata.Extent { return b.swapchain.Extent }
func (b *fakeBackend) DeviceWaitIdle() error { return nil }

func (b *fakeBackend) BeginFrame() (int, rendergraph.CommandStream, error) {
	if b.NeedsRecreate() {
		return 0, nil, core.ErrSwapchainBooting
	}
	i := b.next
	b.next = (b.next + 1) % b.swapchain.ImageCount()
	return i, b.stream, nil
}

func (b *fakeBackend) EndFrame() error {
	b.frames++
	return nil
}

type countingSink struct {
	frames []passes.CapturedFrame
}

func (s *countingSink) Recording() bool { return true }

func (s *countingSink) WriteFrame(frame passes.CapturedFrame) error {
	s.frames = append(s.frames, frame)
	return nil
}

func newRenderer(t *testing.T, preset string, opts presets.Options) (*Renderer, *fakeBackend, *graphtest.Shaders) {
	t.Helper()
	cfg := config.Default()
	cfg.RenderGraph.Name = preset
	backend := newFakeBackend()
	shaders := &graphtest.Shaders{Missing: map[string]bool{}}
	r := New(backend, cfg, shaders, nil, opts)
	require.NoError(t, r.Initialize("test", 640, 480))
	return r, backend, shaders
}

func TestDrawFrameRecordsGraph(t *testing.T) {
	r, backend, _ := newRenderer(t, "default", presets.Options{AntiAliasing: true})

	require.NoError(t, r.DrawFrame())
	assert.Equal(t, 1, backend.frames)
	assert.NotEmpty(t, backend.stream.Commands)

	require.NoError(t, r.Shutdown())
	assert.True(t, backend.shutdown)
	assert.Zero(t, backend.device.Live(""))
}

func TestUnknownPresetFailsInitialize(t *testing.T) {
	cfg := config.Default()
	cfg.RenderGraph.Name = "nope"
	r := New(newFakeBackend(), cfg, &graphtest.Shaders{}, nil, presets.Options{})
	err := r.Initialize("test", 640, 480)
	assert.ErrorIs(t, err, presets.ErrUnknownPreset)
}

func TestResizeRecreatesSwapchainThenResizesGraph(t *testing.T) {
	r, backend, _ := newRenderer(t, "fire_field", presets.Options{})
	require.NoError(t, r.DrawFrame())

	r.OnResize(800, 600)
	// The first frame after a resize only recreates.
	require.NoError(t, r.DrawFrame())
	assert.Equal(t, 1, backend.frames)
	assert.Equal(t, metadata.Extent{Width: 800, Height: 600}, r.Graph().Registry().Extent())

	require.NoError(t, r.DrawFrame())
	assert.Equal(t, 2, backend.frames)
	require.NoError(t, r.Shutdown())
	assert.Zero(t, backend.device.Live(""))
}

func TestMinimizedSkipsFrames(t *testing.T) {
	r, backend, _ := newRenderer(t, "default", presets.Options{})

	r.OnResize(0, 0)
	require.NoError(t, r.DrawFrame())
	require.NoError(t, r.DrawFrame())
	assert.Zero(t, backend.frames)

	r.OnResize(320, 240)
	require.NoError(t, r.DrawFrame())
	require.NoError(t, r.DrawFrame())
	assert.Equal(t, 1, backend.frames)
	assert.Equal(t, metadata.Extent{Width: 320, Height: 240}, r.Graph().Registry().Extent())
}

func TestImageCountChangeRebuildsGraph(t *testing.T) {
	r, backend, _ := newRenderer(t, "smoke_field", presets.Options{})
	before := r.Graph()

	backend.pendingCount = 2
	r.OnResize(640, 480)
	require.NoError(t, r.DrawFrame())

	assert.NotSame(t, before, r.Graph())
	assert.Equal(t, 2, r.Graph().Registry().ImageCount())
	require.NoError(t, r.DrawFrame())
	require.NoError(t, r.Shutdown())
	assert.Zero(t, backend.device.Live(""))
}

func TestRebuildKeepsRunningGraphOnFailure(t *testing.T) {
	r, backend, shaders := newRenderer(t, "default", presets.Options{})
	before := r.Graph()
	live := backend.device.Live("")

	shaders.Missing["assets/shaders/hdr_to_sdr/node.frag.spv"] = true
	assert.Error(t, r.RebuildGraph())
	assert.Same(t, before, r.Graph())
	assert.Equal(t, live, backend.device.Live(""))

	delete(shaders.Missing, "assets/shaders/hdr_to_sdr/node.frag.spv")
	require.NoError(t, r.RebuildGraph())
	assert.NotSame(t, before, r.Graph())
	assert.Equal(t, live, backend.device.Live(""))
}

func TestCapturedFramesReachSinkAfterImageReuse(t *testing.T) {
	sink := &countingSink{}
	r, backend, _ := newRenderer(t, "default", presets.Options{Sink: sink})

	for i := 0; i < backend.ImageCount(); i++ {
		require.NoError(t, r.DrawFrame())
	}
	assert.Empty(t, sink.frames)

	require.NoError(t, r.DrawFrame())
	require.Len(t, sink.frames, 1)
	assert.Equal(t, 0, sink.frames[0].ImageIndex)
	assert.Equal(t, metadata.Extent{Width: 640, Height: 480}, sink.frames[0].Extent)
}

func TestDrawBeforeInitialize(t *testing.T) {
	r := New(newFakeBackend(), config.Default(), &graphtest.Shaders{}, nil, presets.Options{})
	assert.ErrorIs(t, r.DrawFrame(), core.ErrNotInitialized)
}
