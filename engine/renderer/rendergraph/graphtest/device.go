// Package graphtest provides in-memory collaborators for exercising render
// graphs without a GPU.
package graphtest

import (
	"errors"
	"fmt"
	"sync"

	"github.com/spaghettifunk/rendergraph/engine/renderer/metadata"
)

var ErrOutOfMemory = errors.New("fake device out of memory")

// Device is a rendergraph.Device that tracks live objects.
type Device struct {
	mu sync.Mutex

	// FailImageAfter makes the n+1th CreateImage call fail. Negative disables.
	FailImageAfter int
	// FailPipeline makes CreatePipeline fail for the named pipelines.
	FailPipeline map[string]bool

	ImagesCreated   int
	ImagesDestroyed int
	live            map[interface{}]string
	nextHandle      int
	// Buffers holds what ReadBuffer returns, by buffer.
	BufferData map[*metadata.Buffer][]byte
}

func NewDevice() *Device {
	return &Device{
		FailImageAfter: -1,
		FailPipeline:   map[string]bool{},
		live:           map[interface{}]string{},
		BufferData:     map[*metadata.Buffer][]byte{},
	}
}

func (d *Device) handle(kind string) string {
	d.nextHandle++
	return fmt.Sprintf("%s#%d", kind, d.nextHandle)
}

func (d *Device) track(obj interface{}, kind string) {
	d.live[obj] = kind
}

func (d *Device) untrack(obj interface{}, kind string) {
	if got, ok := d.live[obj]; !ok || got != kind {
		panic(fmt.Sprintf("graphtest: %s destroyed twice or never created", kind))
	}
	delete(d.live, obj)
}

// Live counts the objects of kind (image, renderpass, framebuffer, pipeline,
// bindingset, buffer) that were created and not destroyed. An empty kind
// counts everything.
func (d *Device) Live(kind string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, k := range d.live {
		if kind == "" || k == kind {
			n++
		}
	}
	return n
}

func (d *Device) CreateImage(cfg metadata.ImageConfig) (*metadata.Image, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.FailImageAfter >= 0 && d.ImagesCreated >= d.FailImageAfter {
		return nil, ErrOutOfMemory
	}
	d.ImagesCreated++
	img := &metadata.Image{
		Name:         cfg.Name,
		Format:       cfg.Format,
		Usage:        cfg.Usage,
		Extent:       cfg.Extent,
		InternalData: d.handle("image"),
	}
	d.track(img, "image")
	return img, nil
}

func (d *Device) DestroyImage(image *metadata.Image) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.untrack(image, "image")
	d.ImagesDestroyed++
}

func (d *Device) CreateRenderPass(cfg metadata.RenderPassConfig) (*metadata.RenderPass, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	rp := &metadata.RenderPass{Name: cfg.Name, Config: cfg, InternalData: d.handle("renderpass")}
	d.track(rp, "renderpass")
	return rp, nil
}

func (d *Device) DestroyRenderPass(pass *metadata.RenderPass) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.untrack(pass, "renderpass")
}

func (d *Device) CreateFramebuffer(pass *metadata.RenderPass, extent metadata.Extent, attachments []*metadata.Image) (*metadata.Framebuffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.live[pass]; !ok {
		return nil, fmt.Errorf("framebuffer for unknown render pass %q", pass.Name)
	}
	fb := &metadata.Framebuffer{
		Extent:       extent,
		Attachments:  append([]*metadata.Image(nil), attachments...),
		InternalData: d.handle("framebuffer"),
	}
	d.track(fb, "framebuffer")
	return fb, nil
}

func (d *Device) DestroyFramebuffer(framebuffer *metadata.Framebuffer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.untrack(framebuffer, "framebuffer")
}

func (d *Device) CreatePipeline(cfg metadata.PipelineConfig) (*metadata.Pipeline, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.FailPipeline[cfg.Name] {
		return nil, fmt.Errorf("pipeline %q: %w", cfg.Name, ErrOutOfMemory)
	}
	p := &metadata.Pipeline{Name: cfg.Name, SampledInputs: cfg.SampledInputs, InternalData: d.handle("pipeline")}
	d.track(p, "pipeline")
	return p, nil
}

func (d *Device) DestroyPipeline(pipeline *metadata.Pipeline) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.untrack(pipeline, "pipeline")
}

func (d *Device) CreateBindingSet(pipeline *metadata.Pipeline, images []*metadata.Image) (*metadata.BindingSet, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if uint32(len(images)) != pipeline.SampledInputs {
		return nil, fmt.Errorf("pipeline %q expects %d inputs, got %d", pipeline.Name, pipeline.SampledInputs, len(images))
	}
	set := &metadata.BindingSet{
		Pipeline:     pipeline,
		Images:       append([]*metadata.Image(nil), images...),
		InternalData: d.handle("bindingset"),
	}
	d.track(set, "bindingset")
	return set, nil
}

func (d *Device) DestroyBindingSet(set *metadata.BindingSet) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.untrack(set, "bindingset")
}

func (d *Device) CreateReadbackBuffer(size uint64) (*metadata.Buffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	b := &metadata.Buffer{Size: size, InternalData: d.handle("buffer")}
	d.track(b, "buffer")
	return b, nil
}

func (d *Device) DestroyBuffer(buffer *metadata.Buffer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.untrack(buffer, "buffer")
	delete(d.BufferData, buffer)
}

func (d *Device) ReadBuffer(buffer *metadata.Buffer, dst []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.live[buffer]; !ok {
		return fmt.Errorf("read of unknown buffer")
	}
	copy(dst, d.BufferData[buffer])
	return nil
}
