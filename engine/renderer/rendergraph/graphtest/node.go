package graphtest

import (
	"github.com/spaghettifunk/rendergraph/engine/renderer/metadata"
	"github.com/spaghettifunk/rendergraph/engine/renderer/rendergraph"
)

// CallLog collects lifecycle calls across nodes, e.g. "init A".
type CallLog struct {
	Calls []string
}

func (l *CallLog) add(op, name string) {
	if l != nil {
		l.Calls = append(l.Calls, op+" "+name)
	}
}

// Filter returns the names of the nodes that received op, in call order.
func (l *CallLog) Filter(op string) []string {
	var names []string
	for _, c := range l.Calls {
		if len(c) > len(op) && c[:len(op)] == op && c[len(op)] == ' ' {
			names = append(names, c[len(op)+1:])
		}
	}
	return names
}

// Node is an instrumented rendergraph.Node. It resolves every declared
// attachment on Init and OnResize and remembers the images it saw.
type Node struct {
	rendergraph.BaseNode

	Log      *CallLog
	InitErr  error
	Required []string

	Records  int
	Resolved map[string][]*metadata.Image
}

func NewNode(name string, log *CallLog, attachments ...rendergraph.AttachmentDescription) *Node {
	return &Node{
		BaseNode: rendergraph.NewBaseNode(name, attachments...),
		Log:      log,
		Resolved: map[string][]*metadata.Image{},
	}
}

func (n *Node) RequiredConfigKeys() []string {
	return n.Required
}

func (n *Node) resolveAll(ctx *rendergraph.Context) error {
	for _, a := range n.DeclareAttachments() {
		imgs := make([]*metadata.Image, ctx.ImageCount())
		for i := range imgs {
			img, err := n.Resolve(ctx, a.Role, i)
			if err != nil {
				return err
			}
			imgs[i] = img
		}
		n.Resolved[a.Role] = imgs
	}
	return nil
}

func (n *Node) Init(ctx *rendergraph.Context) error {
	n.Log.add("init", n.Name())
	if n.InitErr != nil {
		return n.InitErr
	}
	if err := n.resolveAll(ctx); err != nil {
		return err
	}
	n.MarkInitialized()
	return nil
}

func (n *Node) Record(imageIndex int, cmd rendergraph.CommandStream) {
	n.MarkRecording()
	n.Records++
	if n.Log != nil {
		n.Log.add("record", n.Name())
	}
}

func (n *Node) OnResize(ctx *rendergraph.Context) error {
	n.MarkResized()
	n.Log.add("resize", n.Name())
	return n.resolveAll(ctx)
}

func (n *Node) Destroy(ctx *rendergraph.Context) {
	if n.MarkDestroyed() {
		n.Log.add("destroy", n.Name())
	}
}

// Color declares a colour attachment of key with the given access.
func Color(role, key string, access rendergraph.Access, format metadata.Format) rendergraph.AttachmentDescription {
	usage := metadata.ImageUsageColorAttachment
	layout := metadata.ImageLayoutColorAttachmentOptimal
	kind := rendergraph.KindColor
	if access == rendergraph.Read {
		usage = metadata.ImageUsageSampled
		layout = metadata.ImageLayoutShaderReadOnlyOptimal
		kind |= rendergraph.KindSampler
	}
	return rendergraph.AttachmentDescription{
		Role:   role,
		Key:    key,
		Kind:   kind,
		Access: access,
		Layout: layout,
		Usage:  usage,
		Format: format,
	}
}
