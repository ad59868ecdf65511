package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/rendergraph/engine/core"
)

const (
	// Upper bound on live binding sets, one per node and swapchain image.
	VULKAN_MAX_BINDING_SETS uint32 = 256
	// Upper bound on combined image samplers across all live sets.
	VULKAN_MAX_SAMPLED_IMAGES uint32 = 1024
)

// VulkanBindingSet is a descriptor set of combined image samplers, one per
// binding, all sampled through the context's shared sampler.
type VulkanBindingSet struct {
	Handle vk.DescriptorSet
}

func createSamplerSetLayout(context *VulkanContext, count uint32) (vk.DescriptorSetLayout, error) {
	bindings := make([]vk.DescriptorSetLayoutBinding, count)
	for i := range bindings {
		bindings[i] = vk.DescriptorSetLayoutBinding{
			Binding:         uint32(i),
			DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
			DescriptorCount: 1,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
		}
	}
	layoutInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: count,
		PBindings:    bindings,
	}
	var layout vk.DescriptorSetLayout
	err := lockPool.SafeCall(DescriptorManagement, func() error {
		return resultError("vkCreateDescriptorSetLayout", vk.CreateDescriptorSetLayout(context.Device.LogicalDevice, &layoutInfo, context.Allocator, &layout))
	})
	return layout, err
}

func createDescriptorPool(context *VulkanContext) error {
	poolSizes := []vk.DescriptorPoolSize{{
		Type:            vk.DescriptorTypeCombinedImageSampler,
		DescriptorCount: VULKAN_MAX_SAMPLED_IMAGES,
	}}
	poolInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		Flags:         vk.DescriptorPoolCreateFlags(vk.DescriptorPoolCreateFreeDescriptorSetBit),
		MaxSets:       VULKAN_MAX_BINDING_SETS,
		PoolSizeCount: uint32(len(poolSizes)),
		PPoolSizes:    poolSizes,
	}
	if err := resultError("vkCreateDescriptorPool", vk.CreateDescriptorPool(context.Device.LogicalDevice, &poolInfo, context.Allocator, &context.DescriptorPool)); err != nil {
		return err
	}

	samplerInfo := vk.SamplerCreateInfo{
		SType:            vk.StructureTypeSamplerCreateInfo,
		MagFilter:        vk.FilterLinear,
		MinFilter:        vk.FilterLinear,
		MipmapMode:       vk.SamplerMipmapModeLinear,
		AddressModeU:     vk.SamplerAddressModeClampToEdge,
		AddressModeV:     vk.SamplerAddressModeClampToEdge,
		AddressModeW:     vk.SamplerAddressModeClampToEdge,
		AnisotropyEnable: vk.False,
		MaxAnisotropy:    1,
		BorderColor:      vk.BorderColorFloatOpaqueBlack,
		CompareEnable:    vk.False,
		CompareOp:        vk.CompareOpAlways,
	}
	if err := resultError("vkCreateSampler", vk.CreateSampler(context.Device.LogicalDevice, &samplerInfo, context.Allocator, &context.Sampler)); err != nil {
		return err
	}
	core.LogDebug("Descriptor pool and sampler created.")
	return nil
}

func destroyDescriptorPool(context *VulkanContext) {
	if context.Sampler != nil {
		vk.DestroySampler(context.Device.LogicalDevice, context.Sampler, context.Allocator)
		context.Sampler = nil
	}
	if context.DescriptorPool != nil {
		vk.DestroyDescriptorPool(context.Device.LogicalDevice, context.DescriptorPool, context.Allocator)
		context.DescriptorPool = nil
	}
}

// BindingSetCreate allocates a set for pipeline and points binding i at images[i].
// Depth images are sampled in their read only depth layout.
func BindingSetCreate(context *VulkanContext, pipeline *VulkanPipeline, images []*VulkanImage) (*VulkanBindingSet, error) {
	if pipeline.SetLayout == nil {
		return nil, fmt.Errorf("pipeline samples no inputs")
	}
	outSet := &VulkanBindingSet{}

	allocInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     context.DescriptorPool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{pipeline.SetLayout},
	}
	if err := lockPool.SafeCall(DescriptorManagement, func() error {
		return resultError("vkAllocateDescriptorSets", vk.AllocateDescriptorSets(context.Device.LogicalDevice, &allocInfo, &outSet.Handle))
	}); err != nil {
		return nil, err
	}

	writes := make([]vk.WriteDescriptorSet, len(images))
	for i, img := range images {
		layout := vk.ImageLayoutShaderReadOnlyOptimal
		if img.Aspect&vk.ImageAspectFlags(vk.ImageAspectDepthBit) != 0 {
			layout = vk.ImageLayoutDepthStencilReadOnlyOptimal
		}
		writes[i] = vk.WriteDescriptorSet{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          outSet.Handle,
			DstBinding:      uint32(i),
			DescriptorCount: 1,
			DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
			PImageInfo: []vk.DescriptorImageInfo{{
				Sampler:     context.Sampler,
				ImageView:   img.View,
				ImageLayout: layout,
			}},
		}
	}
	vk.UpdateDescriptorSets(context.Device.LogicalDevice, uint32(len(writes)), writes, 0, nil)
	return outSet, nil
}

func (bs *VulkanBindingSet) Destroy(context *VulkanContext) {
	if bs.Handle == nil {
		return
	}
	_ = lockPool.SafeCall(DescriptorManagement, func() error {
		vk.FreeDescriptorSets(context.Device.LogicalDevice, context.DescriptorPool, 1, &bs.Handle)
		return nil
	})
	bs.Handle = nil
}
