package vulkan

import (
	"fmt"
	"math"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/rendergraph/engine/core"
	enginemath "github.com/spaghettifunk/rendergraph/engine/math"
	"github.com/spaghettifunk/rendergraph/engine/renderer/metadata"
	"github.com/spaghettifunk/rendergraph/engine/renderer/rendergraph"
)

const MAX_FRAMES_IN_FLIGHT = 2

type VulkanSwapchain struct {
	ImageFormat       vk.SurfaceFormat
	MaxFramesInFlight uint8
	Handle            vk.Swapchain
	ImageCount        uint32
	Extent            vk.Extent2D

	// Views over the swapchain owned images, exposed to the render graph.
	Images []*metadata.Image
}

type VulkanSwapchainSupportInfo struct {
	Capabilities vk.SurfaceCapabilities
	Formats      []vk.SurfaceFormat
	PresentModes []vk.PresentMode
}

func SwapchainCreate(context *VulkanContext, width uint32, height uint32) (*VulkanSwapchain, error) {
	return createSwapchain(context, width, height, nil)
}

// SwapchainRecreate builds a replacement swapchain and retires this one.
func (vs *VulkanSwapchain) SwapchainRecreate(context *VulkanContext, width uint32, height uint32) (*VulkanSwapchain, error) {
	sc, err := createSwapchain(context, width, height, vs.Handle)
	vs.destroySwapchain(context)
	return sc, err
}

func (vs *VulkanSwapchain) SwapchainDestroy(context *VulkanContext) {
	vs.destroySwapchain(context)
}

// SwapchainAcquireNextImageIndex returns core.ErrSwapchainBooting when the
// swapchain is out of date and must be recreated before rendering.
func (vs *VulkanSwapchain) SwapchainAcquireNextImageIndex(context *VulkanContext, timeoutNS uint64, imageAvailableSemaphore vk.Semaphore, fence vk.Fence) (uint32, error) {
	var imageIndex uint32
	result := vk.AcquireNextImage(context.Device.LogicalDevice, vs.Handle, timeoutNS, imageAvailableSemaphore, fence, &imageIndex)
	switch result {
	case vk.Success, vk.Suboptimal:
		return imageIndex, nil
	case vk.ErrorOutOfDate:
		return 0, core.ErrSwapchainBooting
	}
	return 0, resultError("vkAcquireNextImageKHR", result)
}

// SwapchainPresent returns core.ErrSwapchainBooting when presentation found
// the swapchain out of date or suboptimal.
func (vs *VulkanSwapchain) SwapchainPresent(context *VulkanContext, presentQueue vk.Queue, renderCompleteSemaphore vk.Semaphore, presentImageIndex uint32) error {
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{renderCompleteSemaphore},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{vs.Handle},
		PImageIndices:      []uint32{presentImageIndex},
	}

	// Increment (and loop) the index.
	context.CurrentFrame = (context.CurrentFrame + 1) % uint32(vs.MaxFramesInFlight)

	result := vk.QueuePresent(presentQueue, &presentInfo)
	switch result {
	case vk.Success:
		return nil
	case vk.ErrorOutOfDate, vk.Suboptimal:
		return core.ErrSwapchainBooting
	}
	return resultError("vkQueuePresentKHR", result)
}

func createSwapchain(context *VulkanContext, width, height uint32, oldSwapchain vk.Swapchain) (*VulkanSwapchain, error) {
	support := &context.Device.SwapchainSupport
	if err := DeviceQuerySwapchainSupport(context.Device.PhysicalDevice, context.Surface, support); err != nil {
		return nil, err
	}
	if len(support.Formats) == 0 {
		return nil, fmt.Errorf("surface reports no formats")
	}

	swapchain := &VulkanSwapchain{
		MaxFramesInFlight: MAX_FRAMES_IN_FLIGHT,
		ImageFormat:       support.Formats[0],
	}

	// Choose a swap surface format.
	for _, format := range support.Formats {
		if format.Format == vk.FormatB8g8r8a8Unorm && format.ColorSpace == vk.ColorSpaceSrgbNonlinear {
			swapchain.ImageFormat = format
			break
		}
	}

	presentMode := vk.PresentModeFifo
	for _, mode := range support.PresentModes {
		if mode == vk.PresentModeMailbox {
			presentMode = mode
			break
		}
	}

	swapchainExtent := vk.Extent2D{Width: width, Height: height}
	if support.Capabilities.CurrentExtent.Width != math.MaxUint32 {
		swapchainExtent = support.Capabilities.CurrentExtent
	}

	// Clamp to the value allowed by the GPU.
	lo := support.Capabilities.MinImageExtent
	hi := support.Capabilities.MaxImageExtent
	swapchainExtent.Width = enginemath.Clamp(swapchainExtent.Width, lo.Width, hi.Width)
	swapchainExtent.Height = enginemath.Clamp(swapchainExtent.Height, lo.Height, hi.Height)
	if swapchainExtent.Width == 0 || swapchainExtent.Height == 0 {
		return nil, core.ErrWindowMinimized
	}
	swapchain.Extent = swapchainExtent

	imageCount := support.Capabilities.MinImageCount + 1
	if support.Capabilities.MaxImageCount > 0 && imageCount > support.Capabilities.MaxImageCount {
		imageCount = support.Capabilities.MaxImageCount
	}

	// Colour output plus readback and blits.
	usage := vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit | vk.ImageUsageTransferSrcBit | vk.ImageUsageTransferDstBit)

	swapchainCreateInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          context.Surface,
		MinImageCount:    imageCount,
		ImageFormat:      swapchain.ImageFormat.Format,
		ImageColorSpace:  swapchain.ImageFormat.ColorSpace,
		ImageExtent:      swapchainExtent,
		ImageArrayLayers: 1,
		ImageUsage:       usage,
		ImageSharingMode: vk.SharingModeExclusive,
		PreTransform:     support.Capabilities.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      presentMode,
		Clipped:          vk.True,
		OldSwapchain:     oldSwapchain,
	}

	if context.Device.GraphicsQueueIndex != context.Device.PresentQueueIndex {
		swapchainCreateInfo.ImageSharingMode = vk.SharingModeConcurrent
		swapchainCreateInfo.QueueFamilyIndexCount = 2
		swapchainCreateInfo.PQueueFamilyIndices = []uint32{
			uint32(context.Device.GraphicsQueueIndex),
			uint32(context.Device.PresentQueueIndex),
		}
	}

	var handle vk.Swapchain
	if err := resultError("vkCreateSwapchainKHR", vk.CreateSwapchain(context.Device.LogicalDevice, &swapchainCreateInfo, context.Allocator, &handle)); err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	swapchain.Handle = handle

	// Start with a zero frame index.
	context.CurrentFrame = 0

	if err := resultError("vkGetSwapchainImagesKHR", vk.GetSwapchainImages(context.Device.LogicalDevice, handle, &swapchain.ImageCount, nil)); err != nil {
		swapchain.destroySwapchain(context)
		return nil, err
	}
	handles := make([]vk.Image, swapchain.ImageCount)
	if err := resultError("vkGetSwapchainImagesKHR", vk.GetSwapchainImages(context.Device.LogicalDevice, handle, &swapchain.ImageCount, handles)); err != nil {
		swapchain.destroySwapchain(context)
		return nil, err
	}

	format := metadata.Format(swapchain.ImageFormat.Format)
	swapchain.Images = make([]*metadata.Image, swapchain.ImageCount)
	for i, h := range handles {
		img, err := wrapSwapchainImage(context, h, swapchainExtent.Width, swapchainExtent.Height, swapchain.ImageFormat.Format)
		if err != nil {
			swapchain.destroySwapchain(context)
			return nil, err
		}
		swapchain.Images[i] = &metadata.Image{
			Key:          rendergraph.SwapchainAttachment,
			Index:        i,
			Name:         fmt.Sprintf("swapchain[%d]", i),
			Format:       format,
			Usage:        metadata.ImageUsage(usage),
			Extent:       metadata.Extent{Width: swapchainExtent.Width, Height: swapchainExtent.Height},
			External:     true,
			InternalData: img,
		}
	}

	core.LogInfo("Swapchain created: %d images, %dx%d, %s.", swapchain.ImageCount, swapchainExtent.Width, swapchainExtent.Height, format)
	return swapchain, nil
}

func (vs *VulkanSwapchain) destroySwapchain(context *VulkanContext) {
	// Only destroy the views, not the images, since those are owned by the swapchain and are thus
	// destroyed when it is.
	for _, img := range vs.Images {
		if img != nil {
			img.InternalData.(*VulkanImage).ImageDestroy(context)
		}
	}
	vs.Images = nil

	if vs.Handle != nil {
		vk.DestroySwapchain(context.Device.LogicalDevice, vs.Handle, context.Allocator)
		vs.Handle = nil
	}
}

// graphSwapchain presents the live swapchain to the render graph. It reads
// through the context so a recreated swapchain is picked up.
type graphSwapchain struct {
	context *VulkanContext
}

func (gs *graphSwapchain) ImageCount() int {
	return int(gs.context.Swapchain.ImageCount)
}

func (gs *graphSwapchain) CurrentExtent() metadata.Extent {
	e := gs.context.Swapchain.Extent
	return metadata.Extent{Width: e.Width, Height: e.Height}
}

func (gs *graphSwapchain) ImageFormatFor(key string) metadata.Format {
	return metadata.Format(gs.context.Swapchain.ImageFormat.Format)
}

func (gs *graphSwapchain) SwapchainImage(index int) *metadata.Image {
	return gs.context.Swapchain.Images[index]
}
