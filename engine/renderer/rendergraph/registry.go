package rendergraph

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/spaghettifunk/rendergraph/engine/core"
	"github.com/spaghettifunk/rendergraph/engine/renderer/metadata"
)

type registryEntry struct {
	info   AttachmentInfo
	images []*metadata.Image
	// every declaration of the key, in declaration order
	uses []attachmentUse
}

type attachmentUse struct {
	node   string
	layout metadata.ImageLayout
}

func (e *registryEntry) external() bool {
	return e.info.Key == SwapchainAttachment
}

// AttachmentRegistry owns every physical attachment image, one per swapchain
// image index. Nodes only look images up by key.
type AttachmentRegistry struct {
	allocator ImageAllocator
	swapchain Swapchain
	entries   map[string]*registryEntry
	// declaration order, allocation follows it
	keys       []string
	imageCount int
	extent     metadata.Extent
	allocated  bool
}

func NewAttachmentRegistry(allocator ImageAllocator, swapchain Swapchain) *AttachmentRegistry {
	return &AttachmentRegistry{
		allocator: allocator,
		swapchain: swapchain,
		entries:   make(map[string]*registryEntry),
	}
}

// Declare registers desc for its key, merging with earlier declarations.
// Kinds and usages are unioned. Formats unify when equal or when either side
// is FormatInherit. Declarations must arrive in execution order; NextLayout
// relies on it.
func (r *AttachmentRegistry) Declare(node string, desc AttachmentDescription) error {
	if desc.Key == "" {
		return fmt.Errorf("%w: node %q role %q has an empty key", ErrAttachmentConflict, node, desc.Role)
	}
	if r.allocated {
		return fmt.Errorf("%w: declare %q after allocation", ErrGraphState, desc.Key)
	}
	owner := node + "." + desc.Role
	if desc.IsSwapchain() && desc.FixedExtent != nil {
		return fmt.Errorf("%w: swapchain attachment cannot have a fixed size (%s)", ErrAttachmentConflict, owner)
	}
	use := attachmentUse{node: node, layout: desc.Layout}

	e, ok := r.entries[desc.Key]
	if !ok {
		info := AttachmentInfo{
			Key:        desc.Key,
			Kind:       desc.Kind,
			Usage:      desc.Usage,
			Format:     desc.Format,
			DeclaredBy: []string{owner},
		}
		if desc.FixedExtent != nil {
			ext := *desc.FixedExtent
			info.FixedExtent = &ext
		}
		r.entries[desc.Key] = &registryEntry{info: info, uses: []attachmentUse{use}}
		r.keys = append(r.keys, desc.Key)
		return nil
	}

	format := e.info.Format
	switch {
	case desc.Format == metadata.FormatInherit:
	case format == metadata.FormatInherit:
		format = desc.Format
	case format != desc.Format:
		return fmt.Errorf("%w: %q declared as %s by %v and as %s by %s",
			ErrAttachmentConflict, desc.Key, format, e.info.DeclaredBy, desc.Format, owner)
	}

	fixed := e.info.FixedExtent
	if desc.FixedExtent != nil {
		if fixed != nil && *fixed != *desc.FixedExtent {
			return fmt.Errorf("%w: %q fixed at %s by %v and at %s by %s",
				ErrAttachmentConflict, desc.Key, *fixed, e.info.DeclaredBy, *desc.FixedExtent, owner)
		}
		ext := *desc.FixedExtent
		fixed = &ext
	}

	e.info.Format = format
	e.info.FixedExtent = fixed
	e.info.Kind |= desc.Kind
	e.info.Usage |= desc.Usage
	e.info.DeclaredBy = append(e.info.DeclaredBy, owner)
	e.uses = append(e.uses, use)
	return nil
}

// NextLayout returns the layout expected by the first node after node that
// uses key. ok is false when node is the last user.
func (r *AttachmentRegistry) NextLayout(key, node string) (layout metadata.ImageLayout, ok bool) {
	e, found := r.entries[key]
	if !found {
		return metadata.ImageLayoutUndefined, false
	}
	seen := false
	for _, u := range e.uses {
		switch {
		case u.node == node:
			seen = true
		case seen:
			return u.layout, true
		}
	}
	return metadata.ImageLayoutUndefined, false
}

// Allocate creates imageCount images for every declared key. On failure every
// image created so far is destroyed.
func (r *AttachmentRegistry) Allocate(imageCount int, extent metadata.Extent) error {
	if r.allocated {
		return fmt.Errorf("%w: attachments already allocated", ErrGraphState)
	}
	if imageCount <= 0 {
		return fmt.Errorf("%w: image count %d", ErrResourceExhausted, imageCount)
	}
	r.imageCount = imageCount
	r.extent = extent
	r.allocated = true

	for _, key := range r.keys {
		if err := r.createImages(r.entries[key]); err != nil {
			r.Release()
			return err
		}
	}
	core.LogDebug("allocated %d attachments x %d images at %s", len(r.keys), imageCount, extent)
	return nil
}

func (r *AttachmentRegistry) createImages(e *registryEntry) error {
	e.images = make([]*metadata.Image, r.imageCount)
	if e.external() {
		for i := range e.images {
			e.images[i] = r.swapchain.SwapchainImage(i)
		}
		return nil
	}

	format := e.info.Format
	if format == metadata.FormatInherit {
		format = r.swapchain.ImageFormatFor(e.info.Key)
	}
	extent := r.extent
	if e.info.FixedExtent != nil {
		extent = *e.info.FixedExtent
	}
	for i := range e.images {
		img, err := r.allocator.CreateImage(metadata.ImageConfig{
			Name:   fmt.Sprintf("%s[%d]-%s", e.info.Key, i, uuid.NewString()),
			Format: format,
			Usage:  e.info.Usage,
			Extent: extent,
		})
		if err != nil {
			r.destroyImages(e)
			return fmt.Errorf("%w: attachment %q image %d (%s %s): %w", ErrResourceExhausted, e.info.Key, i, format, extent, err)
		}
		img.Key = e.info.Key
		img.Index = i
		e.images[i] = img
	}
	return nil
}

func (r *AttachmentRegistry) destroyImages(e *registryEntry) {
	if !e.external() {
		for _, img := range e.images {
			if img == nil {
				continue
			}
			r.allocator.DestroyImage(img)
		}
	}
	e.images = nil
}

// Resolve returns the image backing key for the given swapchain image index.
func (r *AttachmentRegistry) Resolve(key string, imageIndex int) (*metadata.Image, error) {
	e, ok := r.entries[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAttachment, key)
	}
	if imageIndex < 0 || imageIndex >= len(e.images) {
		return nil, fmt.Errorf("%w: %q index %d of %d", ErrImageIndexOutOfRange, key, imageIndex, len(e.images))
	}
	return e.images[imageIndex], nil
}

// Resize recreates every size-tracking image at extent. Fixed-size images are
// left untouched; swapchain images are fetched again. On failure the images
// of the failing key are gone and the registry must be released.
func (r *AttachmentRegistry) Resize(extent metadata.Extent) error {
	if !r.allocated {
		return fmt.Errorf("%w: resize before allocation", ErrGraphState)
	}
	r.extent = extent
	for _, key := range r.keys {
		e := r.entries[key]
		if e.info.FixedExtent != nil {
			continue
		}
		r.destroyImages(e)
		if err := r.createImages(e); err != nil {
			return err
		}
	}
	core.LogDebug("resized %d attachments to %s", len(r.keys), extent)
	return nil
}

// Release destroys every owned image. Calling it again is a no-op.
func (r *AttachmentRegistry) Release() {
	if !r.allocated {
		return
	}
	for i := len(r.keys) - 1; i >= 0; i-- {
		r.destroyImages(r.entries[r.keys[i]])
	}
	r.allocated = false
}

func (r *AttachmentRegistry) Info(key string) (AttachmentInfo, bool) {
	e, ok := r.entries[key]
	if !ok {
		return AttachmentInfo{}, false
	}
	return e.info, true
}

func (r *AttachmentRegistry) Keys() []string {
	return append([]string(nil), r.keys...)
}

func (r *AttachmentRegistry) ImageCount() int {
	return r.imageCount
}

func (r *AttachmentRegistry) Extent() metadata.Extent {
	return r.extent
}

func (r *AttachmentRegistry) Allocated() bool {
	return r.allocated
}
