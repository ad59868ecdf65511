package renderer

import (
	"github.com/spaghettifunk/rendergraph/engine/renderer/metadata"
	"github.com/spaghettifunk/rendergraph/engine/renderer/rendergraph"
)

type RendererBackend interface {
	Initialize(appName string, appWidth, appHeight uint32) error
	Shutdown() error

	// Device and Swapchain are the collaborators render graphs are built on.
	Device() rendergraph.Device
	Swapchain() rendergraph.Swapchain

	Resized(width, height uint32)
	NeedsRecreate() bool
	RecreateSwapchain() error
	ImageCount() int
	Extent() metadata.Extent

	// BeginFrame returns the acquired image index and the stream its commands
	// are recorded into. Submissions that used the image before have retired.
	BeginFrame() (int, rendergraph.CommandStream, error)
	EndFrame() error
	DeviceWaitIdle() error
}
