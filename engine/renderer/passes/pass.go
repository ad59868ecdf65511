package passes

import (
	"encoding/binary"
	"fmt"
	"math"
	"path/filepath"

	"github.com/spaghettifunk/rendergraph/engine/config"
	"github.com/spaghettifunk/rendergraph/engine/renderer/metadata"
	"github.com/spaghettifunk/rendergraph/engine/renderer/rendergraph"
)

// pass is the render pass + pipeline + per-image framebuffer machinery the
// concrete nodes share.
type pass struct {
	rendergraph.BaseNode

	// shader directory below shader_directory; empty means no pipeline
	shader     string
	colorRoles []string
	depthRole  string
	inputRoles []string
	load       metadata.AttachmentLoadOperation
	clear      [4]float32
	depthTest  bool
	blend      bool
	cull       metadata.FaceCullMode
	params     []paramSpec

	// record body between bind and end; nil draws a fullscreen quad
	draw func(cmd rendergraph.CommandStream)

	scene        rendergraph.SceneDrawer
	push         []byte
	renderPass   *metadata.RenderPass
	pipeline     *metadata.Pipeline
	framebuffers []*metadata.Framebuffer
	bindings     []*metadata.BindingSet
}

// paramSpec is one float pushed to the fragment stage, read from the config
// bundle.
type paramSpec struct {
	key      string
	fallback float32
}

const fullscreenVertices = 6

func (p *pass) RequiredConfigKeys() []string {
	if p.shader == "" {
		return nil
	}
	return []string{config.KeyShaderDirectory}
}

func (p *pass) RenderPass() *metadata.RenderPass {
	return p.renderPass
}

func (p *pass) Init(ctx *rendergraph.Context) error {
	if err := p.createRenderPass(ctx); err != nil {
		return err
	}
	if p.shader != "" {
		if err := p.createPipeline(ctx); err != nil {
			return err
		}
	}
	if err := p.createTargets(ctx); err != nil {
		return err
	}
	p.scene = ctx.Scene
	p.MarkInitialized()
	return nil
}

func (p *pass) createRenderPass(ctx *rendergraph.Context) error {
	cfg := metadata.RenderPassConfig{Name: p.Name()}
	for _, role := range p.colorRoles {
		desc := p.Attachment(role)
		img, err := p.Resolve(ctx, role, 0)
		if err != nil {
			return err
		}
		a := metadata.RenderPassAttachmentConfig{
			Format:         img.Format,
			LoadOperation:  p.load,
			StoreOperation: metadata.ATTACHMENT_STORE_OPERATION_STORE,
			InitialLayout:  metadata.ImageLayoutUndefined,
			FinalLayout:    handoffLayout(ctx, p.Name(), desc),
			ClearColour:    p.clear,
		}
		if p.load == metadata.ATTACHMENT_LOAD_OPERATION_LOAD {
			a.InitialLayout = desc.Layout
		}
		cfg.Color = append(cfg.Color, a)
	}
	if p.depthRole != "" {
		desc := p.Attachment(p.depthRole)
		img, err := p.Resolve(ctx, p.depthRole, 0)
		if err != nil {
			return err
		}
		cfg.Depth = &metadata.RenderPassAttachmentConfig{
			Format:         img.Format,
			LoadOperation:  metadata.ATTACHMENT_LOAD_OPERATION_CLEAR,
			StoreOperation: metadata.ATTACHMENT_STORE_OPERATION_STORE,
			InitialLayout:  metadata.ImageLayoutUndefined,
			FinalLayout:    handoffLayout(ctx, p.Name(), desc),
			ClearColour:    [4]float32{1, 0, 0, 0},
		}
	}

	rp, err := ctx.Device.CreateRenderPass(cfg)
	if err != nil {
		return fmt.Errorf("create render pass: %w", err)
	}
	p.renderPass = rp
	return nil
}

func (p *pass) createPipeline(ctx *rendergraph.Context) error {
	dir, _ := ctx.Config.Get(config.KeyShaderDirectory)
	vert, err := ctx.Shaders.LoadShader(filepath.Join(dir, p.shader, "node.vert.spv"))
	if err != nil {
		return fmt.Errorf("load vertex shader: %w", err)
	}
	frag, err := ctx.Shaders.LoadShader(filepath.Join(dir, p.shader, "node.frag.spv"))
	if err != nil {
		return fmt.Errorf("load fragment shader: %w", err)
	}

	p.push = p.push[:0]
	for _, param := range p.params {
		v, err := ctx.Config.Float(param.key, param.fallback)
		if err != nil {
			return err
		}
		p.push = binary.LittleEndian.AppendUint32(p.push, math.Float32bits(v))
	}

	pipeline, err := ctx.Device.CreatePipeline(metadata.PipelineConfig{
		Name:             p.Name(),
		RenderPass:       p.renderPass,
		VertexShader:     vert,
		FragmentShader:   frag,
		SampledInputs:    uint32(len(p.inputRoles)),
		PushConstantSize: uint32(len(p.push)),
		CullMode:         p.cull,
		DepthTest:        p.depthTest,
		DepthWrite:       p.depthTest,
		Blend:            p.blend,
	})
	if err != nil {
		return fmt.Errorf("create pipeline: %w", err)
	}
	p.pipeline = pipeline
	return nil
}

// createTargets builds the size-dependent state: one framebuffer and one
// binding set per swapchain image.
func (p *pass) createTargets(ctx *rendergraph.Context) error {
	count := ctx.ImageCount()
	p.framebuffers = make([]*metadata.Framebuffer, 0, count)
	if p.pipeline != nil && len(p.inputRoles) > 0 {
		p.bindings = make([]*metadata.BindingSet, 0, count)
	}

	roles := p.colorRoles
	if p.depthRole != "" {
		roles = append(append([]string(nil), roles...), p.depthRole)
	}
	for i := 0; i < count; i++ {
		views := make([]*metadata.Image, len(roles))
		for j, role := range roles {
			img, err := p.Resolve(ctx, role, i)
			if err != nil {
				return err
			}
			views[j] = img
		}
		fb, err := ctx.Device.CreateFramebuffer(p.renderPass, views[0].Extent, views)
		if err != nil {
			return fmt.Errorf("create framebuffer %d: %w", i, err)
		}
		p.framebuffers = append(p.framebuffers, fb)

		if p.bindings == nil {
			continue
		}
		inputs := make([]*metadata.Image, len(p.inputRoles))
		for j, role := range p.inputRoles {
			img, err := p.Resolve(ctx, role, i)
			if err != nil {
				return err
			}
			inputs[j] = img
		}
		set, err := ctx.Device.CreateBindingSet(p.pipeline, inputs)
		if err != nil {
			return fmt.Errorf("create binding set %d: %w", i, err)
		}
		p.bindings = append(p.bindings, set)
	}
	return nil
}

func (p *pass) destroyTargets(ctx *rendergraph.Context) {
	for _, set := range p.bindings {
		ctx.Device.DestroyBindingSet(set)
	}
	p.bindings = nil
	for _, fb := range p.framebuffers {
		ctx.Device.DestroyFramebuffer(fb)
	}
	p.framebuffers = nil
}

func (p *pass) Record(imageIndex int, cmd rendergraph.CommandStream) {
	p.MarkRecording()
	cmd.BeginRenderPass(p.renderPass, p.framebuffers[imageIndex])
	if p.pipeline != nil {
		var set *metadata.BindingSet
		if p.bindings != nil {
			set = p.bindings[imageIndex]
		}
		cmd.BindPipeline(p.pipeline, set)
		if len(p.push) > 0 {
			cmd.PushConstants(p.pipeline, p.push)
		}
	}
	if p.draw != nil {
		p.draw(cmd)
	} else {
		cmd.Draw(fullscreenVertices, 1)
	}
	cmd.EndRenderPass()
}

// OnResize drops the framebuffers and binding sets and builds them again
// from the resized attachments. The pipeline is kept.
func (p *pass) OnResize(ctx *rendergraph.Context) error {
	p.MarkResized()
	p.destroyTargets(ctx)
	return p.createTargets(ctx)
}

func (p *pass) Destroy(ctx *rendergraph.Context) {
	if !p.MarkDestroyed() {
		return
	}
	p.destroyTargets(ctx)
	if p.pipeline != nil {
		ctx.Device.DestroyPipeline(p.pipeline)
		p.pipeline = nil
	}
	if p.renderPass != nil {
		ctx.Device.DestroyRenderPass(p.renderPass)
		p.renderPass = nil
	}
}
