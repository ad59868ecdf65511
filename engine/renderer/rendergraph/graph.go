package rendergraph

import (
	"fmt"
	"strings"

	"github.com/spaghettifunk/rendergraph/engine/core"
	"github.com/spaghettifunk/rendergraph/engine/renderer/metadata"
)

type graphStage uint8

const (
	stageAssembling graphStage = iota
	stageBuilt
	stageDestroyed
)

// Graph schedules a set of nodes by their declared dependencies and drives
// their lifecycle.
type Graph struct {
	name       string
	nodes      []Node
	deps       [][]string
	index      map[string]int
	duplicates []string

	// execution order, fixed by Build
	ordered   []Node
	observers []FrameObserver
	// nodes whose Init ran, in call order
	initialized []Node

	registry *AttachmentRegistry
	ctx      Context
	stage    graphStage
}

func New(name string) *Graph {
	return &Graph{
		name:  name,
		index: make(map[string]int),
	}
}

func (g *Graph) Name() string {
	return g.name
}

// AddNode registers node to run after every node named in dependsOn.
// Nothing is validated here; Build reports duplicate names and unknown
// dependencies.
func (g *Graph) AddNode(node Node, dependsOn ...string) {
	if g.stage != stageAssembling {
		panic(fmt.Sprintf("render graph %q: AddNode after Build", g.name))
	}
	name := node.Name()
	if _, ok := g.index[name]; ok {
		g.duplicates = append(g.duplicates, name)
		return
	}
	g.index[name] = len(g.nodes)
	g.nodes = append(g.nodes, node)
	g.deps = append(g.deps, append([]string(nil), dependsOn...))
}

func (g *Graph) Node(name string) (Node, bool) {
	i, ok := g.index[name]
	if !ok {
		return nil, false
	}
	return g.nodes[i], true
}

// Order returns the execution order. Empty before Build.
func (g *Graph) Order() []string {
	names := make([]string, len(g.ordered))
	for i, n := range g.ordered {
		names[i] = n.Name()
	}
	return names
}

func (g *Graph) Registry() *AttachmentRegistry {
	return g.registry
}

// Build validates the graph, allocates every attachment and initializes the
// nodes in execution order. A failed Build leaves nothing allocated; the graph
// cannot be built again.
func (g *Graph) Build(ctx *Context) error {
	if g.stage != stageAssembling {
		return fmt.Errorf("%w: render graph %q already built", ErrGraphState, g.name)
	}
	g.stage = stageDestroyed

	if len(g.duplicates) > 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, strings.Join(g.duplicates, ", "))
	}

	names := make([]string, len(g.nodes))
	for i, n := range g.nodes {
		names[i] = n.Name()
	}
	order, err := topoSort(names, g.deps, g.index)
	if err != nil {
		return err
	}
	ordered := make([]Node, len(order))
	for i, idx := range order {
		ordered[i] = g.nodes[idx]
	}

	for _, n := range ordered {
		if req, ok := n.(ConfigRequirer); ok {
			if err := ctx.Config.Require(req.RequiredConfigKeys()...); err != nil {
				return fmt.Errorf("node %q: %w", n.Name(), err)
			}
		}
	}

	registry := NewAttachmentRegistry(ctx.Device, ctx.Swapchain)
	declared := make([][]AttachmentDescription, len(g.nodes))
	for _, idx := range order {
		n := g.nodes[idx]
		declared[idx] = n.DeclareAttachments()
		for _, desc := range declared[idx] {
			if err := registry.Declare(n.Name(), desc); err != nil {
				return err
			}
		}
	}
	if err := g.checkAccess(order, declared); err != nil {
		return err
	}
	if err := registry.Allocate(ctx.Swapchain.ImageCount(), ctx.Swapchain.CurrentExtent()); err != nil {
		return err
	}

	g.registry = registry
	g.ctx = *ctx
	g.ctx.Registry = registry
	g.ordered = ordered

	for _, n := range ordered {
		if err := n.Init(&g.ctx); err != nil {
			n.Destroy(&g.ctx)
			g.teardown()
			return fmt.Errorf("%w: node %q: %w", ErrInitializationFailed, n.Name(), err)
		}
		g.initialized = append(g.initialized, n)
	}

	for _, n := range ordered {
		if o, ok := n.(FrameObserver); ok {
			g.observers = append(g.observers, o)
		}
	}
	g.stage = stageBuilt
	core.LogInfo("render graph %q built: %s", g.name, strings.Join(g.Order(), " -> "))
	return nil
}

// checkAccess makes sure every attachment a node reads is written by one of
// the nodes it transitively depends on. A writer that merely runs earlier is
// not enough; only a dependency edge pins it there.
func (g *Graph) checkAccess(order []int, declared [][]AttachmentDescription) error {
	// writes[i] holds the keys node i or any of its dependencies write.
	writes := make([]map[string]bool, len(g.nodes))
	for _, idx := range order {
		written := make(map[string]bool)
		for _, dep := range g.deps[idx] {
			for key := range writes[g.index[dep]] {
				written[key] = true
			}
		}
		for _, desc := range declared[idx] {
			if desc.Access&Read != 0 && !written[desc.Key] {
				return fmt.Errorf("%w: node %q reads %q but none of its dependencies writes it",
					ErrReadBeforeWrite, g.nodes[idx].Name(), desc.Key)
			}
		}
		for _, desc := range declared[idx] {
			if desc.Access&Write != 0 {
				written[desc.Key] = true
			}
		}
		writes[idx] = written
	}
	return nil
}

// RecordFrame records every node, in execution order, into cmd.
func (g *Graph) RecordFrame(imageIndex int, cmd CommandStream) {
	if g.stage != stageBuilt {
		panic(fmt.Sprintf("render graph %q: record while not built", g.name))
	}
	for _, n := range g.ordered {
		n.Record(imageIndex, cmd)
	}
}

// CompleteFrame tells frame observers that the GPU finished imageIndex.
func (g *Graph) CompleteFrame(imageIndex int) {
	if g.stage != stageBuilt {
		return
	}
	for _, o := range g.observers {
		o.CompleteFrame(imageIndex)
	}
}

// Resize reallocates size-tracking attachments, then lets every node rebuild
// its size-dependent state in execution order. The caller must make sure the
// GPU is idle. An error leaves the graph unusable; Destroy it.
func (g *Graph) Resize(extent metadata.Extent) error {
	if g.stage != stageBuilt {
		return fmt.Errorf("%w: render graph %q: resize while not built", ErrGraphState, g.name)
	}
	if err := g.registry.Resize(extent); err != nil {
		return err
	}
	for _, n := range g.ordered {
		if err := n.OnResize(&g.ctx); err != nil {
			return fmt.Errorf("node %q resize: %w", n.Name(), err)
		}
	}
	core.LogDebug("render graph %q resized to %s", g.name, extent)
	return nil
}

// Destroy releases the nodes in reverse execution order, then the
// attachments. Calling it again is a no-op.
func (g *Graph) Destroy() {
	if g.stage != stageBuilt {
		return
	}
	g.teardown()
	g.stage = stageDestroyed
}

func (g *Graph) teardown() {
	for i := len(g.initialized) - 1; i >= 0; i-- {
		g.initialized[i].Destroy(&g.ctx)
	}
	g.initialized = nil
	g.observers = nil
	if g.registry != nil {
		g.registry.Release()
	}
}
