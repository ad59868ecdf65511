package metadata

/** @brief Determines face culling mode during rendering. */
type FaceCullMode int

const (
	/** @brief No faces are culled. */
	FaceCullModeNone FaceCullMode = 0x0
	/** @brief Only front faces are culled. */
	FaceCullModeFront FaceCullMode = 0x1
	/** @brief Only back faces are culled. */
	FaceCullModeBack FaceCullMode = 0x2
	/** @brief Both front and back faces are culled. */
	FaceCullModeFrontAndBack FaceCullMode = 0x3
)

type PipelineConfig struct {
	Name       string
	RenderPass *RenderPass
	/** @brief SPIR-V code of the vertex stage. */
	VertexShader []byte
	/** @brief SPIR-V code of the fragment stage. */
	FragmentShader []byte
	/** @brief Number of combined image samplers bound at set 0, bindings 0..n-1. */
	SampledInputs uint32
	/** @brief Size in bytes of the fragment push constant block, 0 for none. */
	PushConstantSize uint32
	CullMode         FaceCullMode
	DepthTest        bool
	DepthWrite       bool
	/** @brief Enables alpha blending on colour attachments. */
	Blend bool
}

type Pipeline struct {
	Name          string
	SampledInputs uint32
	InternalData  interface{}
}

/** @brief A set of sampled images bound to a pipeline's input slots. */
type BindingSet struct {
	Pipeline     *Pipeline
	Images       []*Image
	InternalData interface{}
}

/** @brief A host visible buffer. */
type Buffer struct {
	Size         uint64
	InternalData interface{}
}
