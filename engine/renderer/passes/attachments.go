package passes

import (
	"github.com/spaghettifunk/rendergraph/engine/renderer/metadata"
	"github.com/spaghettifunk/rendergraph/engine/renderer/rendergraph"
)

const (
	HDRFormat   = metadata.FormatR16G16B16A16Sfloat
	SDRFormat   = metadata.FormatB8G8R8A8Unorm
	DepthFormat = metadata.FormatD32Sfloat
)

func formatFor(key string, format metadata.Format) metadata.Format {
	if key == rendergraph.SwapchainAttachment {
		return metadata.FormatInherit
	}
	return format
}

func colorOutput(role, key string, format metadata.Format) rendergraph.AttachmentDescription {
	return rendergraph.AttachmentDescription{
		Role:   role,
		Key:    key,
		Kind:   rendergraph.KindColor,
		Access: rendergraph.Write,
		Layout: metadata.ImageLayoutColorAttachmentOptimal,
		Usage:  metadata.ImageUsageColorAttachment | metadata.ImageUsageTransferDst,
		Format: formatFor(key, format),
	}
}

// loadedOutput draws on top of what an earlier pass wrote.
func loadedOutput(role, key string, format metadata.Format) rendergraph.AttachmentDescription {
	desc := colorOutput(role, key, format)
	desc.Access = rendergraph.Read | rendergraph.Write
	return desc
}

func sampledInput(role, key string, format metadata.Format) rendergraph.AttachmentDescription {
	return rendergraph.AttachmentDescription{
		Role:   role,
		Key:    key,
		Kind:   rendergraph.KindColor | rendergraph.KindSampler,
		Access: rendergraph.Read,
		Layout: metadata.ImageLayoutShaderReadOnlyOptimal,
		Usage:  metadata.ImageUsageSampled | metadata.ImageUsageTransferDst,
		Format: formatFor(key, format),
	}
}

func depthOutput(role, key string) rendergraph.AttachmentDescription {
	return rendergraph.AttachmentDescription{
		Role:   role,
		Key:    key,
		Kind:   rendergraph.KindDepth,
		Access: rendergraph.Write,
		Layout: metadata.ImageLayoutDepthStencilAttachmentOptimal,
		Usage:  metadata.ImageUsageDepthStencilAttachment,
		Format: DepthFormat,
	}
}

func depthInput(role, key string) rendergraph.AttachmentDescription {
	return rendergraph.AttachmentDescription{
		Role:   role,
		Key:    key,
		Kind:   rendergraph.KindDepth | rendergraph.KindSampler,
		Access: rendergraph.Read,
		Layout: metadata.ImageLayoutDepthStencilReadOnlyOptimal,
		Usage:  metadata.ImageUsageSampled,
		Format: DepthFormat,
	}
}

// handoffLayout is the layout node leaves the image of desc in: the layout
// declared by the next user of the key. After its last user the swapchain
// image is presented and any other image keeps the node's own layout.
func handoffLayout(ctx *rendergraph.Context, node string, desc rendergraph.AttachmentDescription) metadata.ImageLayout {
	if next, ok := ctx.Registry.NextLayout(desc.Key, node); ok {
		return next
	}
	if desc.IsSwapchain() {
		return metadata.ImageLayoutPresentSrc
	}
	return desc.Layout
}
