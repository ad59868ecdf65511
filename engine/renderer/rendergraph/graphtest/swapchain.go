package graphtest

import (
	"fmt"

	"github.com/spaghettifunk/rendergraph/engine/renderer/metadata"
	"github.com/spaghettifunk/rendergraph/engine/renderer/rendergraph"
)

// Swapchain is a fixed set of presentable images.
type Swapchain struct {
	Format metadata.Format
	Extent metadata.Extent
	images []*metadata.Image
}

func NewSwapchain(count int, extent metadata.Extent) *Swapchain {
	s := &Swapchain{Format: metadata.FormatB8G8R8A8Unorm}
	s.Recreate(count, extent)
	return s
}

// Recreate replaces the images, as a real swapchain does on resize.
func (s *Swapchain) Recreate(count int, extent metadata.Extent) {
	s.Extent = extent
	s.images = make([]*metadata.Image, count)
	for i := range s.images {
		s.images[i] = &metadata.Image{
			Key:          rendergraph.SwapchainAttachment,
			Index:        i,
			Name:         fmt.Sprintf("swapchain[%d]", i),
			Format:       s.Format,
			Usage:        metadata.ImageUsageColorAttachment | metadata.ImageUsageTransferSrc,
			Extent:       extent,
			External:     true,
			InternalData: fmt.Sprintf("swapchain-image-%d", i),
		}
	}
}

func (s *Swapchain) ImageCount() int {
	return len(s.images)
}

func (s *Swapchain) CurrentExtent() metadata.Extent {
	return s.Extent
}

func (s *Swapchain) ImageFormatFor(string) metadata.Format {
	return s.Format
}

func (s *Swapchain) SwapchainImage(index int) *metadata.Image {
	return s.images[index]
}
