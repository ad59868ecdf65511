package passes

import (
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/rendergraph/engine/config"
	"github.com/spaghettifunk/rendergraph/engine/renderer/metadata"
	"github.com/spaghettifunk/rendergraph/engine/renderer/rendergraph"
	"github.com/spaghettifunk/rendergraph/engine/renderer/rendergraph/graphtest"
)

type triangleScene struct {
	passes []string
}

func (s *triangleScene) DrawScene(cmd rendergraph.CommandStream, pass string) {
	s.passes = append(s.passes, pass)
	cmd.Draw(3, 1)
}

type memorySink struct {
	recording bool
	frames    []CapturedFrame
}

func (s *memorySink) Recording() bool { return s.recording }

func (s *memorySink) WriteFrame(frame CapturedFrame) error {
	frame.Pixels = append([]byte(nil), frame.Pixels...)
	s.frames = append(s.frames, frame)
	return nil
}

type env struct {
	device    *graphtest.Device
	swapchain *graphtest.Swapchain
	shaders   *graphtest.Shaders
	scene     *triangleScene
	ctx       *rendergraph.Context
}

func newEnv(extra map[string]string) *env {
	values := map[string]string{config.KeyShaderDirectory: "shaders"}
	for k, v := range extra {
		values[k] = v
	}
	e := &env{
		device:    graphtest.NewDevice(),
		swapchain: graphtest.NewSwapchain(2, metadata.Extent{Width: 320, Height: 200}),
		shaders:   &graphtest.Shaders{Missing: map[string]bool{}},
		scene:     &triangleScene{},
	}
	e.ctx = &rendergraph.Context{
		Device:    e.device,
		Swapchain: e.swapchain,
		Shaders:   e.shaders,
		Scene:     e.scene,
		Config:    config.NewBundle(values),
	}
	return e
}

func chain(sink FrameSink, ui rendergraph.DrawUIFunc) *rendergraph.Graph {
	g := rendergraph.New("chain")
	g.AddNode(NewDefaultObject("DefaultObject", "object_color", "depth"))
	g.AddNode(NewHDRToSDR("HDRToSDR", "object_color", "sdr_buf"), "DefaultObject")
	g.AddNode(NewFXAA("FXAA", "sdr_buf", rendergraph.SwapchainAttachment), "HDRToSDR")
	g.AddNode(NewRecord("Record", rendergraph.SwapchainAttachment, sink), "FXAA")
	g.AddNode(NewUI("UI", rendergraph.SwapchainAttachment, ui), "Record", "FXAA")
	return g
}

func TestChainRecordsPassesInOrder(t *testing.T) {
	e := newEnv(nil)
	var uiCalls int
	g := chain(nil, func(cmd rendergraph.CommandStream) {
		uiCalls++
		cmd.Draw(42, 1)
	})
	require.NoError(t, g.Build(e.ctx))
	defer g.Destroy()

	stream := &graphtest.Stream{}
	g.RecordFrame(1, stream)

	assert.Equal(t, []string{
		"begin DefaultObject 320x200",
		"bind DefaultObject inputs=0",
		"draw 3 1",
		"end",
		"begin HDRToSDR 320x200",
		"bind HDRToSDR inputs=1",
		"push HDRToSDR 8",
		"draw 6 1",
		"end",
		"begin FXAA 320x200",
		"bind FXAA inputs=1",
		"push FXAA 8",
		"draw 6 1",
		"end",
		"begin UI 320x200",
		"draw 42 1",
		"end",
	}, stream.Commands)
	assert.Equal(t, 1, uiCalls)
	assert.Equal(t, []string{"DefaultObject"}, e.scene.passes)
	assert.Contains(t, e.shaders.Loaded, filepath.Join("shaders", "fxaa", "node.frag.spv"))
}

func TestRenderPassLayouts(t *testing.T) {
	e := newEnv(nil)
	g := chain(nil, nil)
	require.NoError(t, g.Build(e.ctx))
	defer g.Destroy()

	pass := func(name string) metadata.RenderPassConfig {
		n, ok := g.Node(name)
		require.True(t, ok)
		return n.(interface{ RenderPass() *metadata.RenderPass }).RenderPass().Config
	}

	object := pass("DefaultObject")
	require.Len(t, object.Color, 1)
	require.NotNil(t, object.Depth)
	assert.Equal(t, HDRFormat, object.Color[0].Format)
	assert.Equal(t, metadata.ImageLayoutShaderReadOnlyOptimal, object.Color[0].FinalLayout)
	// nothing samples depth in this chain
	assert.Equal(t, metadata.ImageLayoutDepthStencilAttachmentOptimal, object.Depth.FinalLayout)
	assert.Equal(t, metadata.ATTACHMENT_LOAD_OPERATION_CLEAR, object.Color[0].LoadOperation)

	fxaa := pass("FXAA")
	assert.Equal(t, e.swapchain.Format, fxaa.Color[0].Format)
	record, _ := g.Node("Record")
	assert.Equal(t, record.(*RecordNode).Attachment("target").Layout, fxaa.Color[0].FinalLayout)

	ui := pass("UI")
	assert.Equal(t, metadata.ATTACHMENT_LOAD_OPERATION_LOAD, ui.Color[0].LoadOperation)
	assert.Equal(t, metadata.ImageLayoutColorAttachmentOptimal, ui.Color[0].InitialLayout)
	assert.Equal(t, metadata.ImageLayoutPresentSrc, ui.Color[0].FinalLayout)

	info, ok := g.Registry().Info(rendergraph.SwapchainAttachment)
	require.True(t, ok)
	assert.True(t, info.Usage.Has(metadata.ImageUsageColorAttachment|metadata.ImageUsageTransferSrc))
}

func TestRecordMustHandOnUnchangedLayout(t *testing.T) {
	e := newEnv(nil)
	g := rendergraph.New("record-last")
	g.AddNode(NewDefaultObject("DefaultObject", "object_color", "depth"))
	g.AddNode(NewHDRToSDR("HDRToSDR", "object_color", rendergraph.SwapchainAttachment), "DefaultObject")
	g.AddNode(NewRecord("Record", rendergraph.SwapchainAttachment, &memorySink{}), "HDRToSDR")

	err := g.Build(e.ctx)
	require.ErrorIs(t, err, rendergraph.ErrInitializationFailed)
	assert.ErrorIs(t, err, ErrLayoutMismatch)
	assert.Zero(t, e.device.Live(""))
}

func TestUINeedsEarlierWriter(t *testing.T) {
	e := newEnv(nil)
	g := rendergraph.New("ui-only")
	g.AddNode(NewUI("UI", rendergraph.SwapchainAttachment, nil))

	err := g.Build(e.ctx)
	require.ErrorIs(t, err, rendergraph.ErrReadBeforeWrite)
	assert.Contains(t, err.Error(), `"UI"`)
	assert.Zero(t, e.device.ImagesCreated)
}

func TestResizeRebuildsTargetsOnly(t *testing.T) {
	e := newEnv(nil)
	g := chain(nil, nil)
	require.NoError(t, g.Build(e.ctx))

	pipelines := e.device.Live("pipeline")
	assert.Equal(t, 3, pipelines)
	// 4 render passes x 2 images
	assert.Equal(t, 8, e.device.Live("framebuffer"))
	// HDRToSDR and FXAA sample one input each
	assert.Equal(t, 4, e.device.Live("bindingset"))

	next := metadata.Extent{Width: 1024, Height: 768}
	e.swapchain.Recreate(2, next)
	require.NoError(t, g.Resize(next))

	assert.Equal(t, pipelines, e.device.Live("pipeline"))
	assert.Equal(t, 8, e.device.Live("framebuffer"))
	assert.Equal(t, 4, e.device.Live("bindingset"))

	stream := &graphtest.Stream{}
	g.RecordFrame(0, stream)
	assert.Contains(t, stream.Commands, "begin FXAA 1024x768")
	assert.Contains(t, stream.Commands, "begin UI 1024x768")

	g.Destroy()
	assert.Zero(t, e.device.Live(""))
}

func TestMissingShaderFailsBuild(t *testing.T) {
	e := newEnv(nil)
	e.shaders.Missing[filepath.Join("shaders", "fxaa", "node.frag.spv")] = true
	g := chain(nil, nil)

	err := g.Build(e.ctx)
	require.ErrorIs(t, err, rendergraph.ErrInitializationFailed)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Contains(t, err.Error(), "FXAA")
	assert.Zero(t, e.device.Live(""))
}

func TestMissingShaderDirectoryKey(t *testing.T) {
	e := newEnv(nil)
	e.ctx.Config = config.NewBundle(nil)
	err := chain(nil, nil).Build(e.ctx)
	require.ErrorIs(t, err, rendergraph.ErrMissingConfigKey)
	assert.Contains(t, err.Error(), config.KeyShaderDirectory)
}

func TestBadParameterFailsBuild(t *testing.T) {
	e := newEnv(map[string]string{"exposure": "bright"})
	err := chain(nil, nil).Build(e.ctx)
	require.ErrorIs(t, err, rendergraph.ErrInitializationFailed)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
	assert.Zero(t, e.device.Live(""))
}

func TestFieldNodeSamplesColorAndDepth(t *testing.T) {
	e := newEnv(map[string]string{"smoke_field.intensity": "0.5"})
	g := rendergraph.New("smoke")
	g.AddNode(NewDefaultObject("DefaultObject", "object_color", "depth"))
	g.AddNode(NewSmokeField("SmokeField", "object_color", "depth", "field_object_color"), "DefaultObject")
	require.NoError(t, g.Build(e.ctx))
	defer g.Destroy()

	n, _ := g.Node("SmokeField")
	field := n.(*FieldNode)
	assert.Equal(t, FieldSmoke, field.Kind)
	require.Len(t, field.bindings, 2)
	depth, err := g.Registry().Resolve("depth", 1)
	require.NoError(t, err)
	assert.Same(t, depth, field.bindings[1].Images[1])
	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0x3f, 0x00, 0x00, 0x80, 0x3f}, field.push)

	object, _ := g.Node("DefaultObject")
	depthPass := object.(*ObjectNode).RenderPass().Config.Depth
	require.NotNil(t, depthPass)
	assert.Equal(t, metadata.ImageLayoutDepthStencilReadOnlyOptimal, depthPass.FinalLayout)

	info, _ := g.Registry().Info("depth")
	assert.True(t, info.Usage.Has(metadata.ImageUsageDepthStencilAttachment|metadata.ImageUsageSampled))
	assert.Equal(t, rendergraph.KindDepth|rendergraph.KindSampler, info.Kind)
}

func TestRecordNodeCapturesCompletedFrames(t *testing.T) {
	e := newEnv(nil)
	sink := &memorySink{}
	g := chain(sink, nil)
	require.NoError(t, g.Build(e.ctx))
	defer g.Destroy()
	assert.Equal(t, 2, e.device.Live("buffer"))

	stream := &graphtest.Stream{}
	g.RecordFrame(0, stream)
	assert.NotContains(t, stream.Commands, "copy swapchain[0] -> 256000 bytes")
	g.CompleteFrame(0)
	assert.Empty(t, sink.frames)

	sink.recording = true
	stream.Reset()
	g.RecordFrame(1, stream)
	assert.Contains(t, stream.Commands, "copy swapchain[1] -> 256000 bytes")

	n, _ := g.Node("Record")
	rec := n.(*RecordNode)
	e.device.BufferData[rec.buffers[1]] = []byte{1, 2, 3, 4}

	g.CompleteFrame(0)
	assert.Empty(t, sink.frames)
	g.CompleteFrame(1)
	require.Len(t, sink.frames, 1)
	frame := sink.frames[0]
	assert.Equal(t, 1, frame.ImageIndex)
	assert.Equal(t, metadata.Extent{Width: 320, Height: 200}, frame.Extent)
	assert.Equal(t, []byte{1, 2, 3, 4}, frame.Pixels[:4])
	assert.Len(t, frame.Pixels, 320*200*4)

	g.CompleteFrame(1)
	assert.Len(t, sink.frames, 1)
}
