package passes

import (
	"github.com/spaghettifunk/rendergraph/engine/renderer/metadata"
	"github.com/spaghettifunk/rendergraph/engine/renderer/rendergraph"
)

// ObjectNode rasterizes the scene into an HDR colour target and a depth
// buffer. Geometry comes from the scene drawer of the graph context.
type ObjectNode struct {
	pass
}

func newObject(name, shader, color, depth string) *ObjectNode {
	n := &ObjectNode{pass: pass{
		BaseNode: rendergraph.NewBaseNode(name,
			colorOutput("color", color, HDRFormat),
			depthOutput("depth", depth),
		),
		shader:     shader,
		colorRoles: []string{"color"},
		depthRole:  "depth",
		load:       metadata.ATTACHMENT_LOAD_OPERATION_CLEAR,
		depthTest:  true,
		cull:       metadata.FaceCullModeBack,
	}}
	n.draw = n.drawScene
	return n
}

func NewDefaultObject(name, color, depth string) *ObjectNode {
	return newObject(name, "default_object", color, depth)
}

// NewFireObject draws the scene with the emissive material used under the
// fire field.
func NewFireObject(name, color, depth string) *ObjectNode {
	return newObject(name, "fire_object", color, depth)
}

func (n *ObjectNode) drawScene(cmd rendergraph.CommandStream) {
	if n.scene != nil {
		n.scene.DrawScene(cmd, n.Name())
	}
}
