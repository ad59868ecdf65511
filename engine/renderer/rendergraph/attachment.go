package rendergraph

import (
	"fmt"
	"strings"

	"github.com/spaghettifunk/rendergraph/engine/renderer/metadata"
)

// SwapchainAttachment is the reserved key naming the presentable image of the
// current frame. It resolves to swapchain-owned images.
const SwapchainAttachment = "$swapchain"

type AttachmentKind uint32

const (
	KindColor AttachmentKind = 1 << iota
	KindDepth
	KindSampler
)

func (k AttachmentKind) String() string {
	var parts []string
	if k&KindColor != 0 {
		parts = append(parts, "color")
	}
	if k&KindDepth != 0 {
		parts = append(parts, "depth")
	}
	if k&KindSampler != 0 {
		parts = append(parts, "sampler")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

type Access uint8

const (
	Read Access = 1 << iota
	Write
)

func (a Access) String() string {
	switch a {
	case Read:
		return "read"
	case Write:
		return "write"
	case Read | Write:
		return "read|write"
	}
	return fmt.Sprintf("Access(%d)", uint8(a))
}

// AttachmentDescription is how a node declares its use of one attachment.
type AttachmentDescription struct {
	// Role is the node-local name, e.g. "original".
	Role string
	// Key names the physical image; nodes using the same key alias it.
	Key    string
	Kind   AttachmentKind
	Access Access
	// Layout the image must be in while the node uses it.
	Layout metadata.ImageLayout
	Usage  metadata.ImageUsage
	// FormatInherit takes the swapchain format.
	Format metadata.Format
	// FixedExtent pins the size; nil tracks the swapchain extent.
	FixedExtent *metadata.Extent
}

func (d AttachmentDescription) IsSwapchain() bool {
	return d.Key == SwapchainAttachment
}

// AttachmentInfo is the merged view of every declaration of one key.
type AttachmentInfo struct {
	Key         string
	Kind        AttachmentKind
	Usage       metadata.ImageUsage
	Format      metadata.Format
	FixedExtent *metadata.Extent
	// DeclaredBy lists "node.role" for every declaration, in declaration order.
	DeclaredBy []string
}
