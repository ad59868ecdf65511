package metadata

type AttachmentLoadOperation uint32

const (
	ATTACHMENT_LOAD_OPERATION_DONT_CARE AttachmentLoadOperation = 0x0
	ATTACHMENT_LOAD_OPERATION_LOAD      AttachmentLoadOperation = 0x1
	ATTACHMENT_LOAD_OPERATION_CLEAR     AttachmentLoadOperation = 0x2
)

type AttachmentStoreOperation uint32

const (
	ATTACHMENT_STORE_OPERATION_DONT_CARE AttachmentStoreOperation = 0x0
	ATTACHMENT_STORE_OPERATION_STORE     AttachmentStoreOperation = 0x1
)

/** @brief Describes one attachment of a render pass. */
type RenderPassAttachmentConfig struct {
	Format         Format
	LoadOperation  AttachmentLoadOperation
	StoreOperation AttachmentStoreOperation
	/** @brief The layout the image is in when the pass begins. Ignored for clear/don't care loads. */
	InitialLayout ImageLayout
	/** @brief The layout the image is left in when the pass ends. */
	FinalLayout ImageLayout
	/** @brief Clear colour, or depth in ClearColour[0] for depth attachments. */
	ClearColour [4]float32
}

type RenderPassConfig struct {
	Name  string
	Color []RenderPassAttachmentConfig
	/** @brief Optional depth attachment. */
	Depth *RenderPassAttachmentConfig
}

type RenderPass struct {
	Name         string
	Config       RenderPassConfig
	InternalData interface{}
}

type Framebuffer struct {
	Extent       Extent
	Attachments  []*Image
	InternalData interface{}
}
