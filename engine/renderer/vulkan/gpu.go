package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/rendergraph/engine/renderer/metadata"
)

// VulkanGPU creates the objects the render graph asks for.
type VulkanGPU struct {
	context *VulkanContext
}

func (g *VulkanGPU) CreateImage(cfg metadata.ImageConfig) (*metadata.Image, error) {
	aspect := vk.ImageAspectFlags(vk.ImageAspectColorBit)
	if cfg.Format.IsDepth() {
		aspect = vk.ImageAspectFlags(vk.ImageAspectDepthBit)
	}
	var img *VulkanImage
	err := lockPool.SafeCall(ImageManagement, func() error {
		var err error
		img, err = ImageCreate(
			g.context,
			cfg.Extent.Width,
			cfg.Extent.Height,
			vk.Format(cfg.Format),
			vk.ImageUsageFlags(cfg.Usage),
			vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
			aspect)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("image %s: %w", cfg.Name, err)
	}
	return &metadata.Image{
		Name:         cfg.Name,
		Format:       cfg.Format,
		Usage:        cfg.Usage,
		Extent:       cfg.Extent,
		InternalData: img,
	}, nil
}

func (g *VulkanGPU) DestroyImage(image *metadata.Image) {
	if img, ok := image.InternalData.(*VulkanImage); ok {
		img.ImageDestroy(g.context)
	}
	image.InternalData = nil
}

func (g *VulkanGPU) CreateRenderPass(cfg metadata.RenderPassConfig) (*metadata.RenderPass, error) {
	rp, err := RenderpassCreate(g.context, cfg)
	if err != nil {
		return nil, fmt.Errorf("render pass %s: %w", cfg.Name, err)
	}
	return &metadata.RenderPass{Name: cfg.Name, Config: cfg, InternalData: rp}, nil
}

func (g *VulkanGPU) DestroyRenderPass(pass *metadata.RenderPass) {
	if rp, ok := pass.InternalData.(*VulkanRenderpass); ok {
		rp.RenderpassDestroy(g.context)
	}
	pass.InternalData = nil
}

func (g *VulkanGPU) CreateFramebuffer(pass *metadata.RenderPass, extent metadata.Extent, attachments []*metadata.Image) (*metadata.Framebuffer, error) {
	views := make([]vk.ImageView, len(attachments))
	for i, a := range attachments {
		views[i] = a.InternalData.(*VulkanImage).View
	}
	fb, err := FramebufferCreate(g.context, pass.InternalData.(*VulkanRenderpass), extent.Width, extent.Height, views)
	if err != nil {
		return nil, fmt.Errorf("framebuffer for %s: %w", pass.Name, err)
	}
	return &metadata.Framebuffer{Extent: extent, Attachments: attachments, InternalData: fb}, nil
}

func (g *VulkanGPU) DestroyFramebuffer(framebuffer *metadata.Framebuffer) {
	if fb, ok := framebuffer.InternalData.(*VulkanFramebuffer); ok {
		fb.Destroy(g.context)
	}
	framebuffer.InternalData = nil
}

func (g *VulkanGPU) CreatePipeline(cfg metadata.PipelineConfig) (*metadata.Pipeline, error) {
	p, err := NewGraphicsPipeline(g.context, cfg.RenderPass.InternalData.(*VulkanRenderpass), cfg)
	if err != nil {
		return nil, err
	}
	return &metadata.Pipeline{Name: cfg.Name, SampledInputs: cfg.SampledInputs, InternalData: p}, nil
}

func (g *VulkanGPU) DestroyPipeline(pipeline *metadata.Pipeline) {
	if p, ok := pipeline.InternalData.(*VulkanPipeline); ok {
		p.Destroy(g.context)
	}
	pipeline.InternalData = nil
}

func (g *VulkanGPU) CreateBindingSet(pipeline *metadata.Pipeline, images []*metadata.Image) (*metadata.BindingSet, error) {
	if uint32(len(images)) != pipeline.SampledInputs {
		return nil, fmt.Errorf("pipeline %s samples %d inputs, got %d images", pipeline.Name, pipeline.SampledInputs, len(images))
	}
	vimages := make([]*VulkanImage, len(images))
	for i, img := range images {
		vimages[i] = img.InternalData.(*VulkanImage)
	}
	bs, err := BindingSetCreate(g.context, pipeline.InternalData.(*VulkanPipeline), vimages)
	if err != nil {
		return nil, fmt.Errorf("binding set for %s: %w", pipeline.Name, err)
	}
	return &metadata.BindingSet{Pipeline: pipeline, Images: images, InternalData: bs}, nil
}

func (g *VulkanGPU) DestroyBindingSet(set *metadata.BindingSet) {
	if bs, ok := set.InternalData.(*VulkanBindingSet); ok {
		bs.Destroy(g.context)
	}
	set.InternalData = nil
}

func (g *VulkanGPU) CreateReadbackBuffer(size uint64) (*metadata.Buffer, error) {
	buf, err := BufferCreate(g.context, size, vk.BufferUsageFlags(vk.BufferUsageTransferDstBit))
	if err != nil {
		return nil, err
	}
	return &metadata.Buffer{Size: size, InternalData: buf}, nil
}

func (g *VulkanGPU) DestroyBuffer(buffer *metadata.Buffer) {
	if buf, ok := buffer.InternalData.(*VulkanBuffer); ok {
		buf.Destroy(g.context)
	}
	buffer.InternalData = nil
}

func (g *VulkanGPU) ReadBuffer(buffer *metadata.Buffer, dst []byte) error {
	return buffer.InternalData.(*VulkanBuffer).Read(g.context, dst)
}
