package passes

import (
	"github.com/spaghettifunk/rendergraph/engine/renderer/metadata"
	"github.com/spaghettifunk/rendergraph/engine/renderer/rendergraph"
)

type FieldKind uint8

const (
	FieldFire FieldKind = iota
	FieldSmoke
	FieldVorticity
)

func (k FieldKind) shader() string {
	switch k {
	case FieldFire:
		return "fire_field"
	case FieldSmoke:
		return "smoke_field"
	}
	return "vorticity_field"
}

// FieldNode ray-marches a simulation field over the rendered scene. It samples
// the previous colour and depth and writes the composited colour.
//
// Parameters (extra_args): <shader>.intensity, <shader>.step_scale.
type FieldNode struct {
	pass
	Kind FieldKind
}

func NewFieldNode(kind FieldKind, name, previousColor, previousDepth, colorBuf string) *FieldNode {
	shader := kind.shader()
	return &FieldNode{
		Kind: kind,
		pass: pass{
			BaseNode: rendergraph.NewBaseNode(name,
				sampledInput("previous_color", previousColor, HDRFormat),
				depthInput("previous_depth", previousDepth),
				colorOutput("color_buf", colorBuf, HDRFormat),
			),
			shader:     shader,
			colorRoles: []string{"color_buf"},
			inputRoles: []string{"previous_color", "previous_depth"},
			load:       metadata.ATTACHMENT_LOAD_OPERATION_DONT_CARE,
			params: []paramSpec{
				{key: shader + ".intensity", fallback: 1},
				{key: shader + ".step_scale", fallback: 1},
			},
		},
	}
}

func NewFireField(name, previousColor, previousDepth, colorBuf string) *FieldNode {
	return NewFieldNode(FieldFire, name, previousColor, previousDepth, colorBuf)
}

func NewSmokeField(name, previousColor, previousDepth, colorBuf string) *FieldNode {
	return NewFieldNode(FieldSmoke, name, previousColor, previousDepth, colorBuf)
}

func NewVorticityField(name, previousColor, previousDepth, colorBuf string) *FieldNode {
	return NewFieldNode(FieldVorticity, name, previousColor, previousDepth, colorBuf)
}
