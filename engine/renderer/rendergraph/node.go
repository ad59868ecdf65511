package rendergraph

import (
	"fmt"

	"github.com/spaghettifunk/rendergraph/engine/renderer/metadata"
)

// Node is one pass of the graph.
//
// Lifecycle: DeclareAttachments once, Init once, then any number of Record
// and OnResize calls, then Destroy once. Destroy must cope with any subset of
// the earlier calls having run.
type Node interface {
	Name() string
	DeclareAttachments() []AttachmentDescription
	Init(ctx *Context) error
	Record(imageIndex int, cmd CommandStream)
	OnResize(ctx *Context) error
	Destroy(ctx *Context)
}

// ConfigRequirer is implemented by nodes that need configuration keys.
type ConfigRequirer interface {
	RequiredConfigKeys() []string
}

// FrameObserver is notified once the GPU has finished the frame recorded for
// imageIndex.
type FrameObserver interface {
	CompleteFrame(imageIndex int)
}

type NodeState uint8

const (
	StateConstructed NodeState = iota
	StateInitialized
	StateRecording
	StateDestroyed
)

func (s NodeState) String() string {
	switch s {
	case StateConstructed:
		return "constructed"
	case StateInitialized:
		return "initialized"
	case StateRecording:
		return "recording"
	case StateDestroyed:
		return "destroyed"
	}
	return fmt.Sprintf("NodeState(%d)", uint8(s))
}

// BaseNode carries the name, the attachment declarations and the lifecycle
// state every node shares. Embed it and call the Mark methods from the
// lifecycle operations.
type BaseNode struct {
	name        string
	attachments []AttachmentDescription
	state       NodeState
}

func NewBaseNode(name string, attachments ...AttachmentDescription) BaseNode {
	return BaseNode{name: name, attachments: attachments}
}

func (b *BaseNode) Name() string {
	return b.name
}

func (b *BaseNode) DeclareAttachments() []AttachmentDescription {
	return append([]AttachmentDescription(nil), b.attachments...)
}

// Attachment returns the declaration for role. Asking for an undeclared role
// is a programming error.
func (b *BaseNode) Attachment(role string) AttachmentDescription {
	for _, a := range b.attachments {
		if a.Role == role {
			return a
		}
	}
	panic(fmt.Sprintf("node %q has no attachment role %q", b.name, role))
}

// Resolve looks up the image behind role for imageIndex.
func (b *BaseNode) Resolve(ctx *Context, role string, imageIndex int) (*metadata.Image, error) {
	img, err := ctx.Registry.Resolve(b.Attachment(role).Key, imageIndex)
	if err != nil {
		return nil, fmt.Errorf("node %q role %q: %w", b.name, role, err)
	}
	return img, nil
}

func (b *BaseNode) State() NodeState {
	return b.state
}

func (b *BaseNode) MarkInitialized() {
	if b.state != StateConstructed {
		panic(fmt.Sprintf("node %q: init in state %s", b.name, b.state))
	}
	b.state = StateInitialized
}

// MarkRecording panics unless the node has been initialized and not destroyed.
func (b *BaseNode) MarkRecording() {
	if b.state != StateInitialized && b.state != StateRecording {
		panic(fmt.Sprintf("node %q: record in state %s", b.name, b.state))
	}
	b.state = StateRecording
}

func (b *BaseNode) MarkResized() {
	if b.state != StateInitialized && b.state != StateRecording {
		panic(fmt.Sprintf("node %q: resize in state %s", b.name, b.state))
	}
	b.state = StateInitialized
}

// MarkDestroyed reports whether the node was still alive.
func (b *BaseNode) MarkDestroyed() bool {
	if b.state == StateDestroyed {
		return false
	}
	b.state = StateDestroyed
	return true
}
