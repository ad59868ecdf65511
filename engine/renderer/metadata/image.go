package metadata

import "fmt"

/** @brief Pixel formats. Values match VkFormat. */
type Format int32

const (
	/** @brief Resolved to the swapchain format when the image is allocated. */
	FormatInherit            Format = 0
	FormatR8G8B8A8Unorm      Format = 37
	FormatB8G8R8A8Unorm      Format = 44
	FormatB8G8R8A8Srgb       Format = 50
	FormatR16G16B16A16Sfloat Format = 97
	FormatR32Sfloat          Format = 100
	FormatR32G32B32A32Sfloat Format = 109
	FormatD32Sfloat          Format = 126
	FormatD24UnormS8Uint     Format = 129
	FormatD32SfloatS8Uint    Format = 130
)

func (f Format) IsDepth() bool {
	return f == FormatD32Sfloat || f == FormatD24UnormS8Uint || f == FormatD32SfloatS8Uint
}

func (f Format) HasStencil() bool {
	return f == FormatD24UnormS8Uint || f == FormatD32SfloatS8Uint
}

// BytesPerPixel returns 0 for formats that are not host readable.
func (f Format) BytesPerPixel() uint32 {
	switch f {
	case FormatR8G8B8A8Unorm, FormatB8G8R8A8Unorm, FormatB8G8R8A8Srgb, FormatR32Sfloat:
		return 4
	case FormatR16G16B16A16Sfloat:
		return 8
	case FormatR32G32B32A32Sfloat:
		return 16
	}
	return 0
}

func (f Format) String() string {
	switch f {
	case FormatInherit:
		return "inherit"
	case FormatR8G8B8A8Unorm:
		return "R8G8B8A8_UNORM"
	case FormatB8G8R8A8Unorm:
		return "B8G8R8A8_UNORM"
	case FormatB8G8R8A8Srgb:
		return "B8G8R8A8_SRGB"
	case FormatR16G16B16A16Sfloat:
		return "R16G16B16A16_SFLOAT"
	case FormatR32Sfloat:
		return "R32_SFLOAT"
	case FormatR32G32B32A32Sfloat:
		return "R32G32B32A32_SFLOAT"
	case FormatD32Sfloat:
		return "D32_SFLOAT"
	case FormatD24UnormS8Uint:
		return "D24_UNORM_S8_UINT"
	case FormatD32SfloatS8Uint:
		return "D32_SFLOAT_S8_UINT"
	}
	return fmt.Sprintf("Format(%d)", int32(f))
}

/** @brief Image usage bits. Values match VkImageUsageFlagBits. */
type ImageUsage uint32

const (
	ImageUsageTransferSrc            ImageUsage = 0x01
	ImageUsageTransferDst            ImageUsage = 0x02
	ImageUsageSampled                ImageUsage = 0x04
	ImageUsageStorage                ImageUsage = 0x08
	ImageUsageColorAttachment        ImageUsage = 0x10
	ImageUsageDepthStencilAttachment ImageUsage = 0x20
	ImageUsageInputAttachment        ImageUsage = 0x80
)

func (u ImageUsage) Has(bits ImageUsage) bool {
	return u&bits == bits
}

/** @brief Image layouts. Values match VkImageLayout. */
type ImageLayout int32

const (
	ImageLayoutUndefined                     ImageLayout = 0
	ImageLayoutGeneral                       ImageLayout = 1
	ImageLayoutColorAttachmentOptimal        ImageLayout = 2
	ImageLayoutDepthStencilAttachmentOptimal ImageLayout = 3
	ImageLayoutDepthStencilReadOnlyOptimal   ImageLayout = 4
	ImageLayoutShaderReadOnlyOptimal         ImageLayout = 5
	ImageLayoutTransferSrcOptimal            ImageLayout = 6
	ImageLayoutTransferDstOptimal            ImageLayout = 7
	ImageLayoutPresentSrc                    ImageLayout = 1000001002
)

type Extent struct {
	Width  uint32
	Height uint32
}

func (e Extent) IsZero() bool {
	return e.Width == 0 || e.Height == 0
}

func (e Extent) String() string {
	return fmt.Sprintf("%dx%d", e.Width, e.Height)
}

/**
 * @brief A GPU image owned either by the attachment registry or by the swapchain.
 */
type Image struct {
	/** @brief The physical attachment key this image backs. */
	Key string
	/** @brief The swapchain image index this image belongs to. */
	Index int
	/** @brief A unique debug name. */
	Name   string
	Format Format
	Usage  ImageUsage
	Extent Extent
	/** @brief Set for images owned by the swapchain. */
	External bool
	/** @brief The backend specific handles. */
	InternalData interface{}
}

/** @brief Parameters for allocating an image. */
type ImageConfig struct {
	Name   string
	Format Format
	Usage  ImageUsage
	Extent Extent
}
