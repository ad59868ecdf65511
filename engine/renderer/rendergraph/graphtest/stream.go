package graphtest

import (
	"fmt"

	"github.com/spaghettifunk/rendergraph/engine/renderer/metadata"
)

// Stream records every command as a readable string.
type Stream struct {
	Commands []string
}

func (s *Stream) BeginRenderPass(pass *metadata.RenderPass, framebuffer *metadata.Framebuffer) {
	s.Commands = append(s.Commands, fmt.Sprintf("begin %s %s", pass.Name, framebuffer.Extent))
}

func (s *Stream) EndRenderPass() {
	s.Commands = append(s.Commands, "end")
}

func (s *Stream) BindPipeline(pipeline *metadata.Pipeline, set *metadata.BindingSet) {
	n := 0
	if set != nil {
		n = len(set.Images)
	}
	s.Commands = append(s.Commands, fmt.Sprintf("bind %s inputs=%d", pipeline.Name, n))
}

func (s *Stream) PushConstants(pipeline *metadata.Pipeline, data []byte) {
	s.Commands = append(s.Commands, fmt.Sprintf("push %s %d", pipeline.Name, len(data)))
}

func (s *Stream) Draw(vertexCount uint32, instanceCount uint32) {
	s.Commands = append(s.Commands, fmt.Sprintf("draw %d %d", vertexCount, instanceCount))
}

func (s *Stream) CopyImageToBuffer(image *metadata.Image, layout metadata.ImageLayout, buffer *metadata.Buffer) {
	s.Commands = append(s.Commands, fmt.Sprintf("copy %s -> %d bytes", image.Name, buffer.Size))
}

// Reset drops the recorded commands.
func (s *Stream) Reset() {
	s.Commands = s.Commands[:0]
}

// NopStream discards every command.
type NopStream struct{}

func (NopStream) BeginRenderPass(*metadata.RenderPass, *metadata.Framebuffer) {}
func (NopStream) EndRenderPass() {}
func (NopStream) BindPipeline(*metadata.Pipeline, *metadata.BindingSet) {}
func (NopStream) PushConstants(*metadata.Pipeline, []byte) {}
func (NopStream) Draw(uint32, uint32) {}
func (NopStream) CopyImageToBuffer(*metadata.Image, metadata.ImageLayout, *metadata.Buffer) {}
