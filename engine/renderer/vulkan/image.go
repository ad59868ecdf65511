package vulkan

import (
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/rendergraph/engine/core"
)

type VulkanImage struct {
	Handle vk.Image
	Memory vk.DeviceMemory
	View   vk.ImageView
	Width  uint32
	Height uint32
	Format vk.Format
	Aspect vk.ImageAspectFlags
	// Swapchain images are owned by the swapchain; only the view is ours.
	external bool
}

func ImageCreate(
	context *VulkanContext,
	width, height uint32,
	format vk.Format,
	usage vk.ImageUsageFlags,
	memoryFlags vk.MemoryPropertyFlags,
	aspect vk.ImageAspectFlags,
) (*VulkanImage, error) {
	outImage := &VulkanImage{
		Width:  width,
		Height: height,
		Format: format,
		Aspect: aspect,
	}

	imageCreateInfo := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Format:    format,
		Extent: vk.Extent3D{
			Width:  width,
			Height: height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Samples:       vk.SampleCount1Bit,
		Tiling:        vk.ImageTilingOptimal,
		Usage:         usage,
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}

	if err := resultError("vkCreateImage", vk.CreateImage(context.Device.LogicalDevice, &imageCreateInfo, context.Allocator, &outImage.Handle)); err != nil {
		core.LogError(err.Error())
		return nil, err
	}

	var memoryRequirements vk.MemoryRequirements
	vk.GetImageMemoryRequirements(context.Device.LogicalDevice, outImage.Handle, &memoryRequirements)
	memoryRequirements.Deref()

	memoryType, err := context.FindMemoryIndex(memoryRequirements.MemoryTypeBits, memoryFlags)
	if err != nil {
		outImage.ImageDestroy(context)
		return nil, err
	}

	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  memoryRequirements.Size,
		MemoryTypeIndex: memoryType,
	}
	if err := resultError("vkAllocateMemory", vk.AllocateMemory(context.Device.LogicalDevice, &allocateInfo, context.Allocator, &outImage.Memory)); err != nil {
		outImage.ImageDestroy(context)
		return nil, err
	}

	// TODO: configurable memory offset once images are suballocated.
	if err := resultError("vkBindImageMemory", vk.BindImageMemory(context.Device.LogicalDevice, outImage.Handle, outImage.Memory, 0)); err != nil {
		outImage.ImageDestroy(context)
		return nil, err
	}

	if err := outImage.createView(context); err != nil {
		outImage.ImageDestroy(context)
		return nil, err
	}
	return outImage, nil
}

// wrapSwapchainImage creates a view for an image owned by the swapchain.
func wrapSwapchainImage(context *VulkanContext, handle vk.Image, width, height uint32, format vk.Format) (*VulkanImage, error) {
	img := &VulkanImage{
		Handle:   handle,
		Width:    width,
		Height:   height,
		Format:   format,
		Aspect:   vk.ImageAspectFlags(vk.ImageAspectColorBit),
		external: true,
	}
	if err := img.createView(context); err != nil {
		return nil, err
	}
	return img, nil
}

func (vi *VulkanImage) createView(context *VulkanContext) error {
	viewCreateInfo := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    vi.Handle,
		ViewType: vk.ImageViewType2d,
		Format:   vi.Format,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     vi.Aspect,
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}
	return resultError("vkCreateImageView", vk.CreateImageView(context.Device.LogicalDevice, &viewCreateInfo, context.Allocator, &vi.View))
}

func (vi *VulkanImage) ImageDestroy(context *VulkanContext) {
	if vi.View != nil {
		vk.DestroyImageView(context.Device.LogicalDevice, vi.View, context.Allocator)
		vi.View = nil
	}
	if vi.external {
		return
	}
	if vi.Memory != nil {
		vk.FreeMemory(context.Device.LogicalDevice, vi.Memory, context.Allocator)
		vi.Memory = nil
	}
	if vi.Handle != nil {
		vk.DestroyImage(context.Device.LogicalDevice, vi.Handle, context.Allocator)
		vi.Handle = nil
	}
}

func (vi *VulkanImage) transition(commandBuffer *VulkanCommandBuffer, oldLayout, newLayout vk.ImageLayout) {
	srcAccess, srcStage := layoutAccess(oldLayout)
	dstAccess, dstStage := layoutAccess(newLayout)

	barrier := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		SrcAccessMask:       srcAccess,
		DstAccessMask:       dstAccess,
		OldLayout:           oldLayout,
		NewLayout:           newLayout,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               vi.Handle,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vi.Aspect,
			LevelCount: 1,
			LayerCount: 1,
		},
	}
	vk.CmdPipelineBarrier(commandBuffer.Handle, srcStage, dstStage, 0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{barrier})
}

func layoutAccess(layout vk.ImageLayout) (vk.AccessFlags, vk.PipelineStageFlags) {
	switch layout {
	case vk.ImageLayoutColorAttachmentOptimal:
		return vk.AccessFlags(vk.AccessColorAttachmentReadBit | vk.AccessColorAttachmentWriteBit),
			vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)
	case vk.ImageLayoutDepthStencilAttachmentOptimal, vk.ImageLayoutDepthStencilReadOnlyOptimal:
		return vk.AccessFlags(vk.AccessDepthStencilAttachmentReadBit | vk.AccessDepthStencilAttachmentWriteBit),
			vk.PipelineStageFlags(vk.PipelineStageEarlyFragmentTestsBit | vk.PipelineStageLateFragmentTestsBit)
	case vk.ImageLayoutShaderReadOnlyOptimal:
		return vk.AccessFlags(vk.AccessShaderReadBit), vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit)
	case vk.ImageLayoutTransferSrcOptimal:
		return vk.AccessFlags(vk.AccessTransferReadBit), vk.PipelineStageFlags(vk.PipelineStageTransferBit)
	case vk.ImageLayoutTransferDstOptimal:
		return vk.AccessFlags(vk.AccessTransferWriteBit), vk.PipelineStageFlags(vk.PipelineStageTransferBit)
	case vk.ImageLayoutPresentSrc:
		return 0, vk.PipelineStageFlags(vk.PipelineStageBottomOfPipeBit)
	}
	return 0, vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit)
}
