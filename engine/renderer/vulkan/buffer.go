package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"
)

// VulkanBuffer is a host visible, coherent buffer used as a copy target.
type VulkanBuffer struct {
	Handle vk.Buffer
	Memory vk.DeviceMemory
	Size   uint64
}

func BufferCreate(context *VulkanContext, size uint64, usage vk.BufferUsageFlags) (*VulkanBuffer, error) {
	outBuffer := &VulkanBuffer{Size: size}

	bufferInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive,
	}
	if err := lockPool.SafeCall(BufferManagement, func() error {
		return resultError("vkCreateBuffer", vk.CreateBuffer(context.Device.LogicalDevice, &bufferInfo, context.Allocator, &outBuffer.Handle))
	}); err != nil {
		return nil, err
	}

	var requirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(context.Device.LogicalDevice, outBuffer.Handle, &requirements)
	requirements.Deref()

	memoryType, err := context.FindMemoryIndex(requirements.MemoryTypeBits, vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit))
	if err != nil {
		outBuffer.Destroy(context)
		return nil, err
	}

	allocInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  requirements.Size,
		MemoryTypeIndex: memoryType,
	}
	if err := resultError("vkAllocateMemory", vk.AllocateMemory(context.Device.LogicalDevice, &allocInfo, context.Allocator, &outBuffer.Memory)); err != nil {
		outBuffer.Destroy(context)
		return nil, err
	}
	if err := resultError("vkBindBufferMemory", vk.BindBufferMemory(context.Device.LogicalDevice, outBuffer.Handle, outBuffer.Memory, 0)); err != nil {
		outBuffer.Destroy(context)
		return nil, err
	}
	return outBuffer, nil
}

// Read copies the buffer contents into dst.
func (vb *VulkanBuffer) Read(context *VulkanContext, dst []byte) error {
	n := uint64(len(dst))
	if n > vb.Size {
		return fmt.Errorf("read of %d bytes from a %d byte buffer", n, vb.Size)
	}
	if n == 0 {
		return nil
	}
	var data unsafe.Pointer
	if err := resultError("vkMapMemory", vk.MapMemory(context.Device.LogicalDevice, vb.Memory, 0, vk.DeviceSize(n), 0, &data)); err != nil {
		return err
	}
	copy(dst, unsafe.Slice((*byte)(data), n))
	vk.UnmapMemory(context.Device.LogicalDevice, vb.Memory)
	return nil
}

func (vb *VulkanBuffer) Destroy(context *VulkanContext) {
	if vb.Memory != nil {
		vk.FreeMemory(context.Device.LogicalDevice, vb.Memory, context.Allocator)
		vb.Memory = nil
	}
	if vb.Handle != nil {
		vk.DestroyBuffer(context.Device.LogicalDevice, vb.Handle, context.Allocator)
		vb.Handle = nil
	}
}
