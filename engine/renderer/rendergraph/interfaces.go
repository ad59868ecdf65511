package rendergraph

import (
	"github.com/spaghettifunk/rendergraph/engine/config"
	"github.com/spaghettifunk/rendergraph/engine/renderer/metadata"
)

// ImageAllocator creates and destroys the GPU images owned by the registry.
type ImageAllocator interface {
	CreateImage(cfg metadata.ImageConfig) (*metadata.Image, error)
	DestroyImage(image *metadata.Image)
}

// Device is the GPU object factory nodes build their pass state with.
type Device interface {
	ImageAllocator

	CreateRenderPass(cfg metadata.RenderPassConfig) (*metadata.RenderPass, error)
	DestroyRenderPass(pass *metadata.RenderPass)

	CreateFramebuffer(pass *metadata.RenderPass, extent metadata.Extent, attachments []*metadata.Image) (*metadata.Framebuffer, error)
	DestroyFramebuffer(framebuffer *metadata.Framebuffer)

	CreatePipeline(cfg metadata.PipelineConfig) (*metadata.Pipeline, error)
	DestroyPipeline(pipeline *metadata.Pipeline)

	// CreateBindingSet binds images to the pipeline's sampled inputs, in order.
	CreateBindingSet(pipeline *metadata.Pipeline, images []*metadata.Image) (*metadata.BindingSet, error)
	DestroyBindingSet(set *metadata.BindingSet)

	CreateReadbackBuffer(size uint64) (*metadata.Buffer, error)
	DestroyBuffer(buffer *metadata.Buffer)
	// ReadBuffer copies the buffer contents into dst. The GPU must be done
	// writing the buffer.
	ReadBuffer(buffer *metadata.Buffer, dst []byte) error
}

// CommandStream receives the GPU commands of one frame.
type CommandStream interface {
	BeginRenderPass(pass *metadata.RenderPass, framebuffer *metadata.Framebuffer)
	EndRenderPass()
	// BindPipeline binds the pipeline and, when set is not nil, its sampled inputs.
	BindPipeline(pipeline *metadata.Pipeline, set *metadata.BindingSet)
	PushConstants(pipeline *metadata.Pipeline, data []byte)
	Draw(vertexCount uint32, instanceCount uint32)
	// CopyImageToBuffer copies image, currently in layout, and leaves it in layout.
	CopyImageToBuffer(image *metadata.Image, layout metadata.ImageLayout, buffer *metadata.Buffer)
}

// Swapchain is the presentation collaborator.
type Swapchain interface {
	ImageCount() int
	CurrentExtent() metadata.Extent
	ImageFormatFor(key string) metadata.Format
	SwapchainImage(index int) *metadata.Image
}

type ShaderSource interface {
	LoadShader(path string) ([]byte, error)
}

// SceneDrawer submits scene geometry inside an object pass. The graph does not
// interpret what is drawn.
type SceneDrawer interface {
	DrawScene(cmd CommandStream, pass string)
}

// DrawUIFunc draws the UI overlay into the stream.
type DrawUIFunc func(cmd CommandStream)

// Context carries the collaborators into node lifecycle calls.
type Context struct {
	Registry  *AttachmentRegistry
	Device    Device
	Swapchain Swapchain
	Shaders   ShaderSource
	Scene     SceneDrawer
	Config    *config.Bundle
}

func (c *Context) ImageCount() int {
	return c.Registry.ImageCount()
}

func (c *Context) Extent() metadata.Extent {
	return c.Registry.Extent()
}
