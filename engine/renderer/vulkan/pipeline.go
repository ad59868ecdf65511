package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/rendergraph/engine/core"
	"github.com/spaghettifunk/rendergraph/engine/renderer/metadata"
)

/**
 * @brief Holds a Vulkan pipeline, its layout and the layout of its sampled inputs.
 */
type VulkanPipeline struct {
	Handle         vk.Pipeline
	PipelineLayout vk.PipelineLayout
	/** @brief Layout of set 0. Null when the pipeline samples nothing. */
	SetLayout        vk.DescriptorSetLayout
	PushConstantSize uint32
}

// NewGraphicsPipeline builds a fullscreen style pipeline: no vertex input,
// triangle lists, dynamic viewport and scissor.
func NewGraphicsPipeline(context *VulkanContext, renderpass *VulkanRenderpass, config metadata.PipelineConfig) (*VulkanPipeline, error) {
	if config.PushConstantSize > 128 {
		return nil, fmt.Errorf("pipeline %s: push constant block of %d bytes exceeds 128", config.Name, config.PushConstantSize)
	}
	outPipeline := &VulkanPipeline{PushConstantSize: config.PushConstantSize}

	vertModule, err := createShaderModule(context, config.VertexShader)
	if err != nil {
		return nil, fmt.Errorf("pipeline %s vertex stage: %w", config.Name, err)
	}
	defer vk.DestroyShaderModule(context.Device.LogicalDevice, vertModule, context.Allocator)

	fragModule, err := createShaderModule(context, config.FragmentShader)
	if err != nil {
		return nil, fmt.Errorf("pipeline %s fragment stage: %w", config.Name, err)
	}
	defer vk.DestroyShaderModule(context.Device.LogicalDevice, fragModule, context.Allocator)

	stages := []vk.PipelineShaderStageCreateInfo{
		{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageVertexBit,
			Module: vertModule,
			PName:  VulkanSafeString("main"),
		},
		{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageFragmentBit,
			Module: fragModule,
			PName:  VulkanSafeString("main"),
		},
	}

	// The actual values are set per render pass.
	viewportState := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		ScissorCount:  1,
	}

	rasterizerCreateInfo := vk.PipelineRasterizationStateCreateInfo{
		SType:                   vk.StructureTypePipelineRasterizationStateCreateInfo,
		DepthClampEnable:        vk.False,
		RasterizerDiscardEnable: vk.False,
		PolygonMode:             vk.PolygonModeFill,
		LineWidth:               1.0,
		FrontFace:               vk.FrontFaceCounterClockwise,
		DepthBiasEnable:         vk.False,
	}
	switch config.CullMode {
	case metadata.FaceCullModeNone:
		rasterizerCreateInfo.CullMode = vk.CullModeFlags(vk.CullModeNone)
	case metadata.FaceCullModeFront:
		rasterizerCreateInfo.CullMode = vk.CullModeFlags(vk.CullModeFrontBit)
	case metadata.FaceCullModeFrontAndBack:
		rasterizerCreateInfo.CullMode = vk.CullModeFlags(vk.CullModeFrontAndBack)
	default:
		rasterizerCreateInfo.CullMode = vk.CullModeFlags(vk.CullModeBackBit)
	}

	multisamplingCreateInfo := vk.PipelineMultisampleStateCreateInfo{
		SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
		SampleShadingEnable:  vk.False,
		RasterizationSamples: vk.SampleCount1Bit,
		MinSampleShading:     1.0,
	}

	depthStencil := vk.PipelineDepthStencilStateCreateInfo{
		SType:             vk.StructureTypePipelineDepthStencilStateCreateInfo,
		DepthTestEnable:   vk.False,
		DepthWriteEnable:  vk.False,
		StencilTestEnable: vk.False,
	}
	if config.DepthTest {
		depthStencil.DepthTestEnable = vk.True
		depthStencil.DepthCompareOp = vk.CompareOpLess
	}
	if config.DepthWrite {
		depthStencil.DepthWriteEnable = vk.True
	}

	blendAttachments := make([]vk.PipelineColorBlendAttachmentState, len(config.RenderPass.Config.Color))
	for i := range blendAttachments {
		blendAttachments[i] = vk.PipelineColorBlendAttachmentState{
			BlendEnable:         vk.False,
			SrcColorBlendFactor: vk.BlendFactorSrcAlpha,
			DstColorBlendFactor: vk.BlendFactorOneMinusSrcAlpha,
			ColorBlendOp:        vk.BlendOpAdd,
			SrcAlphaBlendFactor: vk.BlendFactorSrcAlpha,
			DstAlphaBlendFactor: vk.BlendFactorOneMinusSrcAlpha,
			AlphaBlendOp:        vk.BlendOpAdd,
			ColorWriteMask:      vk.ColorComponentFlags(vk.ColorComponentRBit | vk.ColorComponentGBit | vk.ColorComponentBBit | vk.ColorComponentABit),
		}
		if config.Blend {
			blendAttachments[i].BlendEnable = vk.True
		}
	}

	colorBlendStateCreateInfo := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		LogicOpEnable:   vk.False,
		LogicOp:         vk.LogicOpCopy,
		AttachmentCount: uint32(len(blendAttachments)),
		PAttachments:    blendAttachments,
	}

	dynamicStates := []vk.DynamicState{
		vk.DynamicStateViewport,
		vk.DynamicStateScissor,
	}
	dynamicStateCreateInfo := vk.PipelineDynamicStateCreateInfo{
		SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
		DynamicStateCount: uint32(len(dynamicStates)),
		PDynamicStates:    dynamicStates,
	}

	// Vertices are generated in the vertex stage.
	vertexInputInfo := vk.PipelineVertexInputStateCreateInfo{
		SType: vk.StructureTypePipelineVertexInputStateCreateInfo,
	}

	inputAssembly := vk.PipelineInputAssemblyStateCreateInfo{
		SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology:               vk.PrimitiveTopologyTriangleList,
		PrimitiveRestartEnable: vk.False,
	}

	if config.SampledInputs > 0 {
		setLayout, err := createSamplerSetLayout(context, config.SampledInputs)
		if err != nil {
			return nil, err
		}
		outPipeline.SetLayout = setLayout
	}

	pipelineLayoutCreateInfo := vk.PipelineLayoutCreateInfo{
		SType: vk.StructureTypePipelineLayoutCreateInfo,
	}
	if outPipeline.SetLayout != nil {
		pipelineLayoutCreateInfo.SetLayoutCount = 1
		pipelineLayoutCreateInfo.PSetLayouts = []vk.DescriptorSetLayout{outPipeline.SetLayout}
	}
	if config.PushConstantSize > 0 {
		pipelineLayoutCreateInfo.PushConstantRangeCount = 1
		pipelineLayoutCreateInfo.PPushConstantRanges = []vk.PushConstantRange{{
			StageFlags: vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
			Offset:     0,
			Size:       config.PushConstantSize,
		}}
	}

	if err := lockPool.SafeCall(PipelineManagement, func() error {
		return resultError("vkCreatePipelineLayout", vk.CreatePipelineLayout(
			context.Device.LogicalDevice,
			&pipelineLayoutCreateInfo,
			context.Allocator,
			&outPipeline.PipelineLayout))
	}); err != nil {
		outPipeline.Destroy(context)
		return nil, err
	}

	pipelineCreateInfo := vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(stages)),
		PStages:             stages,
		PVertexInputState:   &vertexInputInfo,
		PInputAssemblyState: &inputAssembly,
		PViewportState:      &viewportState,
		PRasterizationState: &rasterizerCreateInfo,
		PMultisampleState:   &multisamplingCreateInfo,
		PColorBlendState:    &colorBlendStateCreateInfo,
		PDynamicState:       &dynamicStateCreateInfo,
		Layout:              outPipeline.PipelineLayout,
		RenderPass:          renderpass.Handle,
		Subpass:             0,
		BasePipelineHandle:  vk.NullPipeline,
		BasePipelineIndex:   -1,
	}
	if config.RenderPass.Config.Depth != nil {
		pipelineCreateInfo.PDepthStencilState = &depthStencil
	}

	pipelines := make([]vk.Pipeline, 1)
	if err := lockPool.SafeCall(PipelineManagement, func() error {
		return resultError("vkCreateGraphicsPipelines", vk.CreateGraphicsPipelines(
			context.Device.LogicalDevice,
			vk.NullPipelineCache,
			1,
			[]vk.GraphicsPipelineCreateInfo{pipelineCreateInfo},
			context.Allocator,
			pipelines))
	}); err != nil {
		outPipeline.Destroy(context)
		return nil, err
	}
	outPipeline.Handle = pipelines[0]

	core.LogDebug("Graphics pipeline %s created", config.Name)
	return outPipeline, nil
}

func createShaderModule(context *VulkanContext, code []byte) (vk.ShaderModule, error) {
	if len(code) == 0 || len(code)%4 != 0 {
		return vk.NullShaderModule, fmt.Errorf("SPIR-V code size %d is not a positive multiple of 4", len(code))
	}
	createInfo := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint64(len(code)),
		PCode:    sliceUint32(code),
	}

	var shaderModule vk.ShaderModule
	if err := resultError("vkCreateShaderModule", vk.CreateShaderModule(context.Device.LogicalDevice, &createInfo, context.Allocator, &shaderModule)); err != nil {
		return vk.NullShaderModule, err
	}
	return shaderModule, nil
}

func (pipeline *VulkanPipeline) Destroy(context *VulkanContext) {
	_ = lockPool.SafeCall(PipelineManagement, func() error {
		if pipeline.Handle != vk.NullPipeline {
			vk.DestroyPipeline(context.Device.LogicalDevice, pipeline.Handle, context.Allocator)
			pipeline.Handle = vk.NullPipeline
		}
		if pipeline.PipelineLayout != nil {
			vk.DestroyPipelineLayout(context.Device.LogicalDevice, pipeline.PipelineLayout, context.Allocator)
			pipeline.PipelineLayout = nil
		}
		if pipeline.SetLayout != nil {
			vk.DestroyDescriptorSetLayout(context.Device.LogicalDevice, pipeline.SetLayout, context.Allocator)
			pipeline.SetLayout = nil
		}
		return nil
	})
}

func (pipeline *VulkanPipeline) Bind(commandBuffer *VulkanCommandBuffer, bindPoint vk.PipelineBindPoint) {
	vk.CmdBindPipeline(commandBuffer.Handle, bindPoint, pipeline.Handle)
}
