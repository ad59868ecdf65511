package passes

import (
	"fmt"

	"github.com/spaghettifunk/rendergraph/engine/core"
	"github.com/spaghettifunk/rendergraph/engine/renderer/metadata"
	"github.com/spaghettifunk/rendergraph/engine/renderer/rendergraph"
)

// CapturedFrame is a host copy of one rendered image. Pixels is only valid
// during the WriteFrame call.
type CapturedFrame struct {
	ImageIndex int
	Extent     metadata.Extent
	Format     metadata.Format
	Pixels     []byte
}

// FrameSink receives captured frames.
type FrameSink interface {
	// Recording reports whether frames should be captured at all.
	Recording() bool
	WriteFrame(frame CapturedFrame) error
}

// RecordNode copies the target into a host readable buffer every frame while
// the sink is recording. The copy is handed to the sink once the graph is
// told the frame completed. The target is returned in the colour attachment
// layout it arrived in, so the next user of the key must expect that layout.
type RecordNode struct {
	rendergraph.BaseNode

	sink   FrameSink
	device rendergraph.Device

	images  []*metadata.Image
	buffers []*metadata.Buffer
	pixels  [][]byte
	pending []bool
}

func NewRecord(name, target string, sink FrameSink) *RecordNode {
	return &RecordNode{
		BaseNode: rendergraph.NewBaseNode(name, rendergraph.AttachmentDescription{
			Role:   "target",
			Key:    target,
			Kind:   rendergraph.KindColor,
			Access: rendergraph.Read,
			Layout: metadata.ImageLayoutColorAttachmentOptimal,
			Usage:  metadata.ImageUsageTransferSrc,
			Format: formatFor(target, SDRFormat),
		}),
		sink: sink,
	}
}

func (n *RecordNode) Init(ctx *rendergraph.Context) error {
	desc := n.Attachment("target")
	if after := handoffLayout(ctx, n.Name(), desc); after != desc.Layout {
		return fmt.Errorf("%w: %q is handed on in layout %d, record keeps %d",
			ErrLayoutMismatch, desc.Key, after, desc.Layout)
	}
	n.device = ctx.Device
	if err := n.createTargets(ctx); err != nil {
		return err
	}
	n.MarkInitialized()
	return nil
}

func (n *RecordNode) createTargets(ctx *rendergraph.Context) error {
	if n.sink == nil {
		return nil
	}
	count := ctx.ImageCount()
	n.images = make([]*metadata.Image, 0, count)
	n.buffers = make([]*metadata.Buffer, 0, count)
	n.pixels = make([][]byte, 0, count)
	n.pending = make([]bool, count)
	for i := 0; i < count; i++ {
		img, err := n.Resolve(ctx, "target", i)
		if err != nil {
			return err
		}
		bpp := img.Format.BytesPerPixel()
		if bpp == 0 {
			return fmt.Errorf("capture of %s is not supported", img.Format)
		}
		size := uint64(img.Extent.Width) * uint64(img.Extent.Height) * uint64(bpp)
		buf, err := ctx.Device.CreateReadbackBuffer(size)
		if err != nil {
			return fmt.Errorf("create readback buffer %d: %w", i, err)
		}
		n.images = append(n.images, img)
		n.buffers = append(n.buffers, buf)
		n.pixels = append(n.pixels, make([]byte, size))
	}
	return nil
}

func (n *RecordNode) destroyTargets(ctx *rendergraph.Context) {
	for _, b := range n.buffers {
		ctx.Device.DestroyBuffer(b)
	}
	n.images, n.buffers, n.pixels, n.pending = nil, nil, nil, nil
}

func (n *RecordNode) Record(imageIndex int, cmd rendergraph.CommandStream) {
	n.MarkRecording()
	if n.sink == nil || !n.sink.Recording() {
		return
	}
	layout := n.Attachment("target").Layout
	cmd.CopyImageToBuffer(n.images[imageIndex], layout, n.buffers[imageIndex])
	n.pending[imageIndex] = true
}

func (n *RecordNode) CompleteFrame(imageIndex int) {
	if imageIndex >= len(n.pending) || !n.pending[imageIndex] {
		return
	}
	n.pending[imageIndex] = false
	if err := n.device.ReadBuffer(n.buffers[imageIndex], n.pixels[imageIndex]); err != nil {
		core.LogError("%s: read frame %d: %s", n.Name(), imageIndex, err)
		return
	}
	img := n.images[imageIndex]
	if err := n.sink.WriteFrame(CapturedFrame{
		ImageIndex: imageIndex,
		Extent:     img.Extent,
		Format:     img.Format,
		Pixels:     n.pixels[imageIndex],
	}); err != nil {
		core.LogError("%s: write frame %d: %s", n.Name(), imageIndex, err)
	}
}

// OnResize drops frames still in flight; their buffers no longer match the
// target size.
func (n *RecordNode) OnResize(ctx *rendergraph.Context) error {
	n.MarkResized()
	n.destroyTargets(ctx)
	return n.createTargets(ctx)
}

func (n *RecordNode) Destroy(ctx *rendergraph.Context) {
	if !n.MarkDestroyed() {
		return
	}
	n.destroyTargets(ctx)
}
