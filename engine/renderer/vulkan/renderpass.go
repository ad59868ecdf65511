package vulkan

import (
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/rendergraph/engine/renderer/metadata"
)

type VulkanRenderpass struct {
	Handle      vk.RenderPass
	ClearValues []vk.ClearValue
}

func RenderpassCreate(context *VulkanContext, config metadata.RenderPassConfig) (*VulkanRenderpass, error) {
	outRenderpass := &VulkanRenderpass{}

	attachmentDescriptions := make([]vk.AttachmentDescription, 0, len(config.Color)+1)
	colorReferences := make([]vk.AttachmentReference, 0, len(config.Color))

	for _, c := range config.Color {
		colorReferences = append(colorReferences, vk.AttachmentReference{
			Attachment: uint32(len(attachmentDescriptions)),
			Layout:     vk.ImageLayoutColorAttachmentOptimal,
		})
		attachmentDescriptions = append(attachmentDescriptions, attachmentDescription(c))
		outRenderpass.ClearValues = append(outRenderpass.ClearValues, vk.NewClearValue(c.ClearColour[:]))
	}

	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: uint32(len(colorReferences)),
		PColorAttachments:    colorReferences,
	}

	// Depth attachment, if there is one
	if config.Depth != nil {
		depthReference := vk.AttachmentReference{
			Attachment: uint32(len(attachmentDescriptions)),
			Layout:     vk.ImageLayoutDepthStencilAttachmentOptimal,
		}
		attachmentDescriptions = append(attachmentDescriptions, attachmentDescription(*config.Depth))
		outRenderpass.ClearValues = append(outRenderpass.ClearValues, vk.NewClearDepthStencil(config.Depth.ClearColour[0], 0))
		subpass.PDepthStencilAttachment = &depthReference
	}

	// Previous passes wrote or sampled these images; wait for them before the
	// attachments are touched, and make our writes visible to later sampling.
	dependencies := []vk.SubpassDependency{
		{
			SrcSubpass:    vk.SubpassExternal,
			DstSubpass:    0,
			SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit | vk.PipelineStageFragmentShaderBit | vk.PipelineStageLateFragmentTestsBit),
			SrcAccessMask: vk.AccessFlags(vk.AccessColorAttachmentWriteBit | vk.AccessDepthStencilAttachmentWriteBit),
			DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit | vk.PipelineStageFragmentShaderBit | vk.PipelineStageEarlyFragmentTestsBit),
			DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentReadBit | vk.AccessColorAttachmentWriteBit | vk.AccessShaderReadBit | vk.AccessDepthStencilAttachmentReadBit | vk.AccessDepthStencilAttachmentWriteBit),
		},
		{
			SrcSubpass:    0,
			DstSubpass:    vk.SubpassExternal,
			SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit | vk.PipelineStageLateFragmentTestsBit),
			SrcAccessMask: vk.AccessFlags(vk.AccessColorAttachmentWriteBit | vk.AccessDepthStencilAttachmentWriteBit),
			DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit | vk.PipelineStageTransferBit),
			DstAccessMask: vk.AccessFlags(vk.AccessShaderReadBit | vk.AccessTransferReadBit),
		},
	}

	renderpassCreateInfo := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachmentDescriptions)),
		PAttachments:    attachmentDescriptions,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: uint32(len(dependencies)),
		PDependencies:   dependencies,
	}

	if err := lockPool.SafeCall(RenderpassManagement, func() error {
		return resultError("vkCreateRenderPass", vk.CreateRenderPass(context.Device.LogicalDevice, &renderpassCreateInfo, context.Allocator, &outRenderpass.Handle))
	}); err != nil {
		return nil, err
	}
	return outRenderpass, nil
}

func attachmentDescription(c metadata.RenderPassAttachmentConfig) vk.AttachmentDescription {
	desc := vk.AttachmentDescription{
		Format:         vk.Format(c.Format),
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpDontCare,
		StoreOp:        vk.AttachmentStoreOpDontCare,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayout(c.FinalLayout),
	}
	switch c.LoadOperation {
	case metadata.ATTACHMENT_LOAD_OPERATION_LOAD:
		desc.LoadOp = vk.AttachmentLoadOpLoad
		desc.InitialLayout = vk.ImageLayout(c.InitialLayout)
	case metadata.ATTACHMENT_LOAD_OPERATION_CLEAR:
		desc.LoadOp = vk.AttachmentLoadOpClear
	}
	if c.StoreOperation == metadata.ATTACHMENT_STORE_OPERATION_STORE {
		desc.StoreOp = vk.AttachmentStoreOpStore
	}
	if c.Format.HasStencil() {
		desc.StencilLoadOp = desc.LoadOp
		desc.StencilStoreOp = desc.StoreOp
	}
	return desc
}

func (vr *VulkanRenderpass) RenderpassDestroy(context *VulkanContext) {
	if vr.Handle != nil {
		vk.DestroyRenderPass(context.Device.LogicalDevice, vr.Handle, context.Allocator)
		vr.Handle = nil
	}
}

func (vr *VulkanRenderpass) RenderpassBegin(commandBuffer *VulkanCommandBuffer, frameBuffer vk.Framebuffer, extent metadata.Extent) {
	beginInfo := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  vr.Handle,
		Framebuffer: frameBuffer,
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{X: 0, Y: 0},
			Extent: vk.Extent2D{
				Width:  extent.Width,
				Height: extent.Height,
			},
		},
		ClearValueCount: uint32(len(vr.ClearValues)),
		PClearValues:    vr.ClearValues,
	}

	vk.CmdBeginRenderPass(commandBuffer.Handle, &beginInfo, vk.SubpassContentsInline)
	commandBuffer.State = COMMAND_BUFFER_STATE_IN_RENDER_PASS
}
