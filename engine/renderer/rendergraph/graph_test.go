package rendergraph_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/rendergraph/engine/config"
	"github.com/spaghettifunk/rendergraph/engine/renderer/metadata"
	"github.com/spaghettifunk/rendergraph/engine/renderer/rendergraph"
	"github.com/spaghettifunk/rendergraph/engine/renderer/rendergraph/graphtest"
)

type fixture struct {
	device    *graphtest.Device
	swapchain *graphtest.Swapchain
	ctx       *rendergraph.Context
	log       *graphtest.CallLog
}

func newFixture() *fixture {
	d := graphtest.NewDevice()
	s := graphtest.NewSwapchain(3, metadata.Extent{Width: 640, Height: 480})
	return &fixture{
		device:    d,
		swapchain: s,
		log:       &graphtest.CallLog{},
		ctx: &rendergraph.Context{
			Device:    d,
			Swapchain: s,
			Config:    config.NewBundle(map[string]string{config.KeyShaderDirectory: "shaders"}),
		},
	}
}

func (f *fixture) node(name string, attachments ...rendergraph.AttachmentDescription) *graphtest.Node {
	return graphtest.NewNode(name, f.log, attachments...)
}

func indexOf(order []string, name string) int {
	for i, n := range order {
		if n == name {
			return i
		}
	}
	return -1
}

func TestBuildOrderIsTopologicalAndDeterministic(t *testing.T) {
	edges := map[string][]string{
		"post":   {"light", "fog"},
		"light":  {"gbuf", "shadow"},
		"fog":    {"gbuf"},
		"ui":     {"post"},
		"gbuf":   nil,
		"shadow": nil,
		"debug":  nil,
	}
	insertion := []string{"ui", "post", "debug", "light", "fog", "shadow", "gbuf"}

	build := func() []string {
		f := newFixture()
		g := rendergraph.New("test")
		for _, name := range insertion {
			g.AddNode(f.node(name), edges[name]...)
		}
		require.NoError(t, g.Build(f.ctx))
		defer g.Destroy()
		return g.Order()
	}

	first := build()
	require.Len(t, first, len(insertion))
	for node, deps := range edges {
		for _, dep := range deps {
			assert.Less(t, indexOf(first, dep), indexOf(first, node), "%s must run before %s", dep, node)
		}
	}
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, build())
	}
	// Ties resolve by insertion index.
	assert.Equal(t, []string{"debug", "shadow", "gbuf", "light", "fog", "post", "ui"}, first)
}

func TestBuildCycleAllocatesNothing(t *testing.T) {
	f := newFixture()
	g := rendergraph.New("cycle")
	g.AddNode(f.node("Source", graphtest.Color("out", "x", rendergraph.Write, metadata.FormatB8G8R8A8Unorm)))
	g.AddNode(f.node("A", graphtest.Color("out", "a", rendergraph.Write, metadata.FormatB8G8R8A8Unorm)), "B", "Source")
	g.AddNode(f.node("B", graphtest.Color("in", "a", rendergraph.Read, metadata.FormatB8G8R8A8Unorm)), "A")

	err := g.Build(f.ctx)
	require.ErrorIs(t, err, rendergraph.ErrCyclicDependency)
	var cycle *rendergraph.CyclicDependencyError
	require.ErrorAs(t, err, &cycle)
	assert.Equal(t, []string{"A", "B"}, cycle.Nodes)

	assert.Zero(t, f.device.ImagesCreated)
	assert.Zero(t, f.device.Live(""))
	assert.Empty(t, f.log.Calls)
}

func TestBuildSelfDependencyIsACycle(t *testing.T) {
	f := newFixture()
	g := rendergraph.New("self")
	g.AddNode(f.node("A"), "A")

	var cycle *rendergraph.CyclicDependencyError
	require.ErrorAs(t, g.Build(f.ctx), &cycle)
	assert.Equal(t, []string{"A"}, cycle.Nodes)
}

func TestBuildUnknownDependency(t *testing.T) {
	f := newFixture()
	g := rendergraph.New("unknown")
	g.AddNode(f.node("A"))
	g.AddNode(f.node("B"), "A", "Ghost")

	err := g.Build(f.ctx)
	require.ErrorIs(t, err, rendergraph.ErrUnknownDependency)
	var unknown *rendergraph.UnknownDependencyError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "Ghost", unknown.Name)
	assert.Equal(t, "B", unknown.Node)
	assert.Contains(t, err.Error(), "Ghost")
	assert.Zero(t, f.device.ImagesCreated)
}

func TestBuildDuplicateNode(t *testing.T) {
	f := newFixture()
	g := rendergraph.New("dup")
	g.AddNode(f.node("A"))
	g.AddNode(f.node("A"))
	assert.ErrorIs(t, g.Build(f.ctx), rendergraph.ErrDuplicateNode)
}

func TestBuildAttachmentFormats(t *testing.T) {
	tests := []struct {
		name   string
		reader metadata.Format
		err    error
	}{
		{"identical", metadata.FormatB8G8R8A8Unorm, nil},
		{"inherit", metadata.FormatInherit, nil},
		{"conflict", metadata.FormatR16G16B16A16Sfloat, rendergraph.ErrAttachmentConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			g := rendergraph.New(tt.name)
			g.AddNode(f.node("W", graphtest.Color("out", "shared", rendergraph.Write, metadata.FormatB8G8R8A8Unorm)))
			g.AddNode(f.node("R", graphtest.Color("in", "shared", rendergraph.Read, tt.reader)), "W")

			err := g.Build(f.ctx)
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
				assert.Zero(t, f.device.Live(""))
				return
			}
			require.NoError(t, err)
			defer g.Destroy()

			info, ok := g.Registry().Info("shared")
			require.True(t, ok)
			assert.Equal(t, metadata.FormatB8G8R8A8Unorm, info.Format)
			assert.True(t, info.Usage.Has(metadata.ImageUsageColorAttachment|metadata.ImageUsageSampled))
			assert.Equal(t, rendergraph.KindColor|rendergraph.KindSampler, info.Kind)
			assert.Equal(t, []string{"W.out", "R.in"}, info.DeclaredBy)
			assert.Equal(t, 3, f.device.Live("image"))
		})
	}
}

func TestBuildMissingConfigKey(t *testing.T) {
	f := newFixture()
	g := rendergraph.New("cfg")
	n := f.node("Tonemap")
	n.Required = []string{config.KeyShaderDirectory, "exposure"}
	g.AddNode(n)

	err := g.Build(f.ctx)
	require.ErrorIs(t, err, rendergraph.ErrMissingConfigKey)
	assert.Contains(t, err.Error(), "exposure")
	assert.Contains(t, err.Error(), "Tonemap")
	assert.Empty(t, f.log.Calls)
}

func TestBuildInitFailureTearsDown(t *testing.T) {
	f := newFixture()
	g := rendergraph.New("fail")
	g.AddNode(f.node("A", graphtest.Color("out", "a", rendergraph.Write, metadata.FormatB8G8R8A8Unorm)))
	bad := f.node("B", graphtest.Color("in", "a", rendergraph.Read, metadata.FormatInherit))
	bad.InitErr = errors.New("shader missing")
	g.AddNode(bad, "A")
	g.AddNode(f.node("C"), "B")

	err := g.Build(f.ctx)
	require.ErrorIs(t, err, rendergraph.ErrInitializationFailed)
	assert.Contains(t, err.Error(), `"B"`)
	assert.Contains(t, err.Error(), "shader missing")

	assert.Equal(t, []string{"init A", "init B", "destroy B", "destroy A"}, f.log.Calls)
	assert.Zero(t, f.device.Live(""))
	assert.Equal(t, f.device.ImagesCreated, f.device.ImagesDestroyed)

	assert.ErrorIs(t, g.Build(f.ctx), rendergraph.ErrGraphState)
}

func TestBuildAllocationFailureReleasesImages(t *testing.T) {
	f := newFixture()
	f.device.FailImageAfter = 4
	g := rendergraph.New("oom")
	g.AddNode(f.node("A",
		graphtest.Color("a", "a", rendergraph.Write, metadata.FormatB8G8R8A8Unorm),
		graphtest.Color("b", "b", rendergraph.Write, metadata.FormatB8G8R8A8Unorm),
	))

	err := g.Build(f.ctx)
	require.ErrorIs(t, err, rendergraph.ErrResourceExhausted)
	require.ErrorIs(t, err, graphtest.ErrOutOfMemory)
	assert.Equal(t, 4, f.device.ImagesDestroyed)
	assert.Zero(t, f.device.Live(""))
	assert.Empty(t, f.log.Calls)
}

func TestResizeTracksExtentAndKeepsFixedImages(t *testing.T) {
	f := newFixture()
	fixed := &metadata.Extent{Width: 256, Height: 256}
	lut := graphtest.Color("lut", "lut", rendergraph.Write, metadata.FormatR8G8B8A8Unorm)
	lut.FixedExtent = fixed

	g := rendergraph.New("resize")
	g.AddNode(f.node("A", graphtest.Color("out", "hdr", rendergraph.Write, metadata.FormatR16G16B16A16Sfloat), lut))
	g.AddNode(f.node("B",
		graphtest.Color("in", "hdr", rendergraph.Read, metadata.FormatInherit),
		graphtest.Color("out", rendergraph.SwapchainAttachment, rendergraph.Write, metadata.FormatInherit),
	), "A")
	require.NoError(t, g.Build(f.ctx))
	defer g.Destroy()

	reg := g.Registry()
	before := make([]*metadata.Image, 3)
	oldHDR := make([]*metadata.Image, 3)
	for i := range before {
		img, err := reg.Resolve("lut", i)
		require.NoError(t, err)
		before[i] = img
		oldHDR[i], err = reg.Resolve("hdr", i)
		require.NoError(t, err)
	}

	next := metadata.Extent{Width: 1920, Height: 1080}
	f.swapchain.Recreate(3, next)
	require.NoError(t, g.Resize(next))

	for i := 0; i < 3; i++ {
		hdr, err := reg.Resolve("hdr", i)
		require.NoError(t, err)
		assert.Equal(t, next, hdr.Extent)
		assert.NotSame(t, oldHDR[i], hdr)

		lutImg, err := reg.Resolve("lut", i)
		require.NoError(t, err)
		assert.Same(t, before[i], lutImg)
		assert.Equal(t, *fixed, lutImg.Extent)

		sc, err := reg.Resolve(rendergraph.SwapchainAttachment, i)
		require.NoError(t, err)
		assert.Same(t, f.swapchain.SwapchainImage(i), sc)
		assert.Equal(t, next, sc.Extent)
	}
	// 3 hdr + 3 lut; swapchain images are not owned by the registry.
	assert.Equal(t, 6, f.device.Live("image"))
}

func TestResizeExhaustionLeaksNothing(t *testing.T) {
	f := newFixture()
	g := rendergraph.New("resize-oom")
	g.AddNode(f.node("A",
		graphtest.Color("out", "hdr", rendergraph.Write, metadata.FormatR16G16B16A16Sfloat),
		graphtest.Color("extra", "bloom", rendergraph.Write, metadata.FormatR16G16B16A16Sfloat),
	))
	require.NoError(t, g.Build(f.ctx))
	require.Equal(t, 6, f.device.ImagesCreated)

	// hdr is recreated in full, bloom fails on its second image.
	f.device.FailImageAfter = f.device.ImagesCreated + 4
	err := g.Resize(metadata.Extent{Width: 1280, Height: 720})
	require.ErrorIs(t, err, rendergraph.ErrResourceExhausted)
	assert.Contains(t, err.Error(), "bloom")

	_, err = g.Registry().Resolve("bloom", 0)
	assert.ErrorIs(t, err, rendergraph.ErrImageIndexOutOfRange)

	g.Destroy()
	assert.Zero(t, f.device.Live(""))
	assert.Equal(t, f.device.ImagesCreated, f.device.ImagesDestroyed)
}

func TestSwapchainAttachmentCannotBeFixed(t *testing.T) {
	f := newFixture()
	out := graphtest.Color("out", rendergraph.SwapchainAttachment, rendergraph.Write, metadata.FormatInherit)
	out.FixedExtent = &metadata.Extent{Width: 64, Height: 64}
	g := rendergraph.New("fixed-swapchain")
	g.AddNode(f.node("Present", out))

	err := g.Build(f.ctx)
	require.ErrorIs(t, err, rendergraph.ErrAttachmentConflict)
	assert.Contains(t, err.Error(), "Present.out")
	assert.Zero(t, f.device.ImagesCreated)
	assert.Empty(t, f.log.Calls)
}

func TestBuildChecksReadsHaveEarlierWriters(t *testing.T) {
	const format = metadata.FormatB8G8R8A8Unorm
	tests := []struct {
		name  string
		build func(f *fixture, g *rendergraph.Graph)
		err   string
	}{
		{
			name: "reader without edge to writer",
			build: func(f *fixture, g *rendergraph.Graph) {
				g.AddNode(f.node("A", graphtest.Color("in", "y", rendergraph.Read, format)))
				g.AddNode(f.node("C", graphtest.Color("out", "y", rendergraph.Write, format)))
			},
			err: `node "A" reads "y"`,
		},
		{
			name: "key never written",
			build: func(f *fixture, g *rendergraph.Graph) {
				g.AddNode(f.node("W", graphtest.Color("out", "y", rendergraph.Write, format)))
				g.AddNode(f.node("B", graphtest.Color("in", "x", rendergraph.Read, format)), "W")
			},
			err: `node "B" reads "x"`,
		},
		{
			name: "load without writer",
			build: func(f *fixture, g *rendergraph.Graph) {
				g.AddNode(f.node("Overlay", graphtest.Color("target", "ui", rendergraph.Read|rendergraph.Write, format)))
			},
			err: `node "Overlay" reads "ui"`,
		},
		{
			name: "writer through a transitive dependency",
			build: func(f *fixture, g *rendergraph.Graph) {
				g.AddNode(f.node("Source", graphtest.Color("out", "x", rendergraph.Write, format)))
				g.AddNode(f.node("Middle"), "Source")
				g.AddNode(f.node("Sink", graphtest.Color("in", "x", rendergraph.Read, format)), "Middle")
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			g := rendergraph.New(tt.name)
			tt.build(f, g)

			err := g.Build(f.ctx)
			if tt.err == "" {
				require.NoError(t, err)
				g.Destroy()
				return
			}
			require.ErrorIs(t, err, rendergraph.ErrReadBeforeWrite)
			assert.Contains(t, err.Error(), tt.err)
			assert.Zero(t, f.device.ImagesCreated)
			assert.Empty(t, f.log.Calls)
		})
	}
}

func TestNextLayoutFollowsExecutionOrder(t *testing.T) {
	f := newFixture()
	g := rendergraph.New("layouts")
	g.AddNode(f.node("Sample", graphtest.Color("in", "hdr", rendergraph.Read, metadata.FormatInherit)), "Draw")
	g.AddNode(f.node("Draw", graphtest.Color("out", "hdr", rendergraph.Write, metadata.FormatR16G16B16A16Sfloat)))
	require.NoError(t, g.Build(f.ctx))
	defer g.Destroy()

	reg := g.Registry()
	layout, ok := reg.NextLayout("hdr", "Draw")
	require.True(t, ok)
	assert.Equal(t, metadata.ImageLayoutShaderReadOnlyOptimal, layout)

	_, ok = reg.NextLayout("hdr", "Sample")
	assert.False(t, ok)
	_, ok = reg.NextLayout("missing", "Draw")
	assert.False(t, ok)
}

func TestResolveErrors(t *testing.T) {
	f := newFixture()
	g := rendergraph.New("resolve")
	g.AddNode(f.node("A", graphtest.Color("out", "a", rendergraph.Write, metadata.FormatB8G8R8A8Unorm)))
	require.NoError(t, g.Build(f.ctx))
	defer g.Destroy()

	_, err := g.Registry().Resolve("nope", 0)
	assert.ErrorIs(t, err, rendergraph.ErrUnknownAttachment)
	_, err = g.Registry().Resolve("a", 3)
	assert.ErrorIs(t, err, rendergraph.ErrImageIndexOutOfRange)
}

func TestDestroyDiamondReverseOrder(t *testing.T) {
	f := newFixture()
	g := rendergraph.New("diamond")
	g.AddNode(f.node("D"), "B", "C")
	g.AddNode(f.node("B"), "A")
	g.AddNode(f.node("C"), "A")
	g.AddNode(f.node("A"))
	require.NoError(t, g.Build(f.ctx))
	assert.True(t, g.Registry().Allocated())

	inits := f.log.Filter("init")
	require.Len(t, inits, 4)
	assert.Equal(t, "A", inits[0])
	assert.ElementsMatch(t, []string{"B", "C"}, inits[1:3])
	assert.Equal(t, "D", inits[3])

	g.Destroy()
	assert.False(t, g.Registry().Allocated())
	destroys := f.log.Filter("destroy")
	require.Len(t, destroys, 4)
	assert.Equal(t, "D", destroys[0])
	assert.ElementsMatch(t, []string{"B", "C"}, destroys[1:3])
	assert.Equal(t, "A", destroys[3])
	for i := range inits {
		assert.Equal(t, inits[i], destroys[len(destroys)-1-i])
	}

	g.Destroy()
	assert.Len(t, f.log.Filter("destroy"), 4)
	assert.Zero(t, f.device.Live(""))
}

func TestLinearChainRecordAndResizeOrder(t *testing.T) {
	f := newFixture()
	g := rendergraph.New("chain")
	g.AddNode(f.node("Sink", graphtest.Color("in", "Y", rendergraph.Read, metadata.FormatB8G8R8A8Unorm)), "Filter")
	g.AddNode(f.node("Filter",
		graphtest.Color("in", "X", rendergraph.Read, metadata.FormatB8G8R8A8Unorm),
		graphtest.Color("out", "Y", rendergraph.Write, metadata.FormatB8G8R8A8Unorm),
	), "Source")
	g.AddNode(f.node("Source", graphtest.Color("out", "X", rendergraph.Write, metadata.FormatB8G8R8A8Unorm)))
	require.NoError(t, g.Build(f.ctx))
	defer g.Destroy()

	want := []string{"Source", "Filter", "Sink"}
	for frame := 0; frame < 4; frame++ {
		f.log.Calls = nil
		g.RecordFrame(frame%3, graphtest.NopStream{})
		assert.Equal(t, want, f.log.Filter("record"))
	}

	f.log.Calls = nil
	require.NoError(t, g.Resize(metadata.Extent{Width: 800, Height: 600}))
	assert.Equal(t, want, f.log.Filter("resize"))

	sink, ok := g.Node("Sink")
	require.True(t, ok)
	for _, img := range sink.(*graphtest.Node).Resolved["in"] {
		assert.Equal(t, metadata.Extent{Width: 800, Height: 600}, img.Extent)
	}
}

func TestRecordFrameDoesNotAllocate(t *testing.T) {
	f := newFixture()
	f.log = nil
	g := rendergraph.New("hot")
	g.AddNode(f.node("A"))
	g.AddNode(f.node("B"), "A")
	g.AddNode(f.node("C"), "A", "B")
	require.NoError(t, g.Build(f.ctx))
	defer g.Destroy()

	var stream rendergraph.CommandStream = graphtest.NopStream{}
	allocs := testing.AllocsPerRun(100, func() {
		g.RecordFrame(1, stream)
	})
	assert.Zero(t, allocs)
}

func TestRecordOutsideLifecyclePanics(t *testing.T) {
	n := graphtest.NewNode("lonely", nil)
	assert.Panics(t, func() { n.Record(0, graphtest.NopStream{}) })

	f := newFixture()
	g := rendergraph.New("after-destroy")
	g.AddNode(n)
	require.NoError(t, g.Build(f.ctx))
	g.Destroy()
	assert.Panics(t, func() { n.Record(0, graphtest.NopStream{}) })
	assert.Panics(t, func() { g.RecordFrame(0, graphtest.NopStream{}) })
}
