package passes

import (
	"github.com/spaghettifunk/rendergraph/engine/renderer/metadata"
	"github.com/spaghettifunk/rendergraph/engine/renderer/rendergraph"
)

// UINode opens a render pass over the target, keeping its contents, and hands
// the stream to the UI draw callback. As the last user of the swapchain image
// it leaves the target ready to present.
type UINode struct {
	pass
	drawUI rendergraph.DrawUIFunc
}

func NewUI(name, target string, drawUI rendergraph.DrawUIFunc) *UINode {
	n := &UINode{
		drawUI: drawUI,
		pass: pass{
			BaseNode:   rendergraph.NewBaseNode(name, loadedOutput("target", target, SDRFormat)),
			colorRoles: []string{"target"},
			load:       metadata.ATTACHMENT_LOAD_OPERATION_LOAD,
		},
	}
	n.draw = n.drawOverlay
	return n
}

func (n *UINode) drawOverlay(cmd rendergraph.CommandStream) {
	if n.drawUI != nil {
		n.drawUI(cmd)
	}
}
