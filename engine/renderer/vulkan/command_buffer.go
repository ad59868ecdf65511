package vulkan

import (
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/rendergraph/engine/core"
	"github.com/spaghettifunk/rendergraph/engine/renderer/metadata"
)

type VulkanCommandBufferState int

const (
	COMMAND_BUFFER_STATE_READY VulkanCommandBufferState = iota
	COMMAND_BUFFER_STATE_RECORDING
	COMMAND_BUFFER_STATE_IN_RENDER_PASS
	COMMAND_BUFFER_STATE_RECORDING_ENDED
	COMMAND_BUFFER_STATE_SUBMITTED
	COMMAND_BUFFER_STATE_NOT_ALLOCATED
)

type VulkanCommandBuffer struct {
	Handle vk.CommandBuffer
	// Command buffer state.
	State VulkanCommandBufferState
}

func NewVulkanCommandBuffer(context *VulkanContext, pool vk.CommandPool, isPrimary bool) (*VulkanCommandBuffer, error) {
	vCommandBuffer := &VulkanCommandBuffer{
		State: COMMAND_BUFFER_STATE_NOT_ALLOCATED,
	}

	level := vk.CommandBufferLevelSecondary
	if isPrimary {
		level = vk.CommandBufferLevelPrimary
	}

	allocateInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        pool,
		CommandBufferCount: 1,
		Level:              level,
	}

	handles := make([]vk.CommandBuffer, 1)
	if err := resultError("vkAllocateCommandBuffers", vk.AllocateCommandBuffers(context.Device.LogicalDevice, &allocateInfo, handles)); err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	vCommandBuffer.Handle = handles[0]
	vCommandBuffer.State = COMMAND_BUFFER_STATE_READY

	return vCommandBuffer, nil
}

func (v *VulkanCommandBuffer) Free(context *VulkanContext, pool vk.CommandPool) {
	if v.Handle == nil {
		return
	}
	vk.FreeCommandBuffers(context.Device.LogicalDevice, pool, 1, []vk.CommandBuffer{v.Handle})
	v.Handle = nil
	v.State = COMMAND_BUFFER_STATE_NOT_ALLOCATED
}

func (v *VulkanCommandBuffer) Begin(isSingleUse, isRenderpassContinue, isSimultaneousUse bool) error {
	beginInfo := &vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
	}
	if isSingleUse {
		beginInfo.Flags |= vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit)
	}
	if isRenderpassContinue {
		beginInfo.Flags |= vk.CommandBufferUsageFlags(vk.CommandBufferUsageRenderPassContinueBit)
	}
	if isSimultaneousUse {
		beginInfo.Flags |= vk.CommandBufferUsageFlags(vk.CommandBufferUsageSimultaneousUseBit)
	}

	if err := resultError("vkBeginCommandBuffer", vk.BeginCommandBuffer(v.Handle, beginInfo)); err != nil {
		core.LogError(err.Error())
		return err
	}
	v.State = COMMAND_BUFFER_STATE_RECORDING
	return nil
}

func (v *VulkanCommandBuffer) End() error {
	if err := resultError("vkEndCommandBuffer", vk.EndCommandBuffer(v.Handle)); err != nil {
		core.LogError(err.Error())
		return err
	}
	v.State = COMMAND_BUFFER_STATE_RECORDING_ENDED
	return nil
}

func (v *VulkanCommandBuffer) UpdateSubmitted() {
	v.State = COMMAND_BUFFER_STATE_SUBMITTED
}

func (v *VulkanCommandBuffer) Reset() error {
	if err := resultError("vkResetCommandBuffer", vk.ResetCommandBuffer(v.Handle, 0)); err != nil {
		return err
	}
	v.State = COMMAND_BUFFER_STATE_READY
	return nil
}

// commandStream records the frame's graph commands into a primary buffer.
type commandStream struct {
	buffer *VulkanCommandBuffer
}

func (cs *commandStream) BeginRenderPass(pass *metadata.RenderPass, framebuffer *metadata.Framebuffer) {
	rp := pass.InternalData.(*VulkanRenderpass)
	fb := framebuffer.InternalData.(*VulkanFramebuffer)

	viewport := vk.Viewport{
		X:        0,
		Y:        0,
		Width:    float32(framebuffer.Extent.Width),
		Height:   float32(framebuffer.Extent.Height),
		MinDepth: 0,
		MaxDepth: 1,
	}
	scissor := vk.Rect2D{
		Extent: vk.Extent2D{Width: framebuffer.Extent.Width, Height: framebuffer.Extent.Height},
	}
	vk.CmdSetViewport(cs.buffer.Handle, 0, 1, []vk.Viewport{viewport})
	vk.CmdSetScissor(cs.buffer.Handle, 0, 1, []vk.Rect2D{scissor})

	rp.RenderpassBegin(cs.buffer, fb.Handle, framebuffer.Extent)
}

func (cs *commandStream) EndRenderPass() {
	vk.CmdEndRenderPass(cs.buffer.Handle)
	cs.buffer.State = COMMAND_BUFFER_STATE_RECORDING
}

func (cs *commandStream) BindPipeline(pipeline *metadata.Pipeline, set *metadata.BindingSet) {
	p := pipeline.InternalData.(*VulkanPipeline)
	p.Bind(cs.buffer, vk.PipelineBindPointGraphics)
	if set == nil {
		return
	}
	bs := set.InternalData.(*VulkanBindingSet)
	vk.CmdBindDescriptorSets(cs.buffer.Handle, vk.PipelineBindPointGraphics, p.PipelineLayout, 0, 1, []vk.DescriptorSet{bs.Handle}, 0, nil)
}

func (cs *commandStream) PushConstants(pipeline *metadata.Pipeline, data []byte) {
	if len(data) == 0 {
		return
	}
	p := pipeline.InternalData.(*VulkanPipeline)
	vk.CmdPushConstants(cs.buffer.Handle, p.PipelineLayout, vk.ShaderStageFlags(vk.ShaderStageFragmentBit), 0, uint32(len(data)), unsafe.Pointer(&data[0]))
}

func (cs *commandStream) Draw(vertexCount uint32, instanceCount uint32) {
	vk.CmdDraw(cs.buffer.Handle, vertexCount, instanceCount, 0, 0)
}

func (cs *commandStream) CopyImageToBuffer(image *metadata.Image, layout metadata.ImageLayout, buffer *metadata.Buffer) {
	img := image.InternalData.(*VulkanImage)
	buf := buffer.InternalData.(*VulkanBuffer)

	img.transition(cs.buffer, vk.ImageLayout(layout), vk.ImageLayoutTransferSrcOptimal)

	region := vk.BufferImageCopy{
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask: img.Aspect,
			LayerCount: 1,
		},
		ImageExtent: vk.Extent3D{Width: img.Width, Height: img.Height, Depth: 1},
	}
	vk.CmdCopyImageToBuffer(cs.buffer.Handle, img.Handle, vk.ImageLayoutTransferSrcOptimal, buf.Handle, 1, []vk.BufferImageCopy{region})

	img.transition(cs.buffer, vk.ImageLayoutTransferSrcOptimal, vk.ImageLayout(layout))
}
