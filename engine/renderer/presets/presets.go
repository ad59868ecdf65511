package presets

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spaghettifunk/rendergraph/engine/config"
	"github.com/spaghettifunk/rendergraph/engine/renderer/passes"
	"github.com/spaghettifunk/rendergraph/engine/renderer/rendergraph"
)

var ErrUnknownPreset = errors.New("unknown render graph preset")

// Node names shared by every preset.
const (
	NodeDefaultObject      = "DefaultObject"
	NodeFireObject         = "FireObject"
	NodeFireField          = "FireField"
	NodeSmokeField         = "SmokeField"
	NodeVorticityField     = "VorticityField"
	NodeHDRToSDR           = "HDRToSDR"
	NodeCalculateLuminance = "CalculateLuminance"
	NodeFXAA               = "FXAA"
	NodeRecord             = "Record"
	NodeUI                 = "UI"
)

// Attachment keys.
const (
	ObjectColor             = "object_color"
	Depth                   = "depth"
	FieldObjectColor        = "field_object_color"
	SDRBuffer               = "sdr_buf"
	SDRBufferAlphaLuminance = "sdr_buf_alpha_illuminance"
)

// Options selects the optional passes and the collaborators of a preset.
type Options struct {
	// AntiAliasing adds the FXAA pass.
	AntiAliasing bool
	// Luminance adds the pass storing luma in alpha ahead of FXAA.
	Luminance bool
	DrawUI    rendergraph.DrawUIFunc
	Sink      passes.FrameSink
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		AntiAliasing: cfg.RenderGraph.AntiAliasing,
		Luminance:    cfg.RenderGraph.Luminance,
	}
}

type builder func(opts Options) *rendergraph.Graph

var registry = map[string]builder{
	"default":         Default,
	"fire_field":      FireField,
	"smoke_field":     SmokeField,
	"vorticity_field": VorticityField,
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func ByName(name string, opts Options) (*rendergraph.Graph, error) {
	b, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %v)", ErrUnknownPreset, name, Names())
	}
	return b(opts), nil
}

// Default: DefaultObject -> HDRToSDR -> [CalculateLuminance] -> [FXAA] -> Record -> UI.
func Default(opts Options) *rendergraph.Graph {
	g := rendergraph.New("default")
	g.AddNode(passes.NewDefaultObject(NodeDefaultObject, ObjectColor, Depth))
	addPostChain(g, ObjectColor, NodeDefaultObject, opts, false)
	return g
}

func FireField(opts Options) *rendergraph.Graph {
	g := rendergraph.New("fire_field")
	g.AddNode(passes.NewFireObject(NodeFireObject, ObjectColor, Depth))
	g.AddNode(passes.NewFireField(NodeFireField, ObjectColor, Depth, FieldObjectColor), NodeFireObject)
	addPostChain(g, FieldObjectColor, NodeFireField, opts, false)
	return g
}

func SmokeField(opts Options) *rendergraph.Graph {
	g := rendergraph.New("smoke_field")
	g.AddNode(passes.NewDefaultObject(NodeDefaultObject, ObjectColor, Depth))
	g.AddNode(passes.NewSmokeField(NodeSmokeField, ObjectColor, Depth, FieldObjectColor), NodeDefaultObject)
	addPostChain(g, FieldObjectColor, NodeSmokeField, opts, false)
	return g
}

// VorticityField orders UI after HDRToSDR rather than after the last
// post-process pass.
func VorticityField(opts Options) *rendergraph.Graph {
	g := rendergraph.New("vorticity_field")
	g.AddNode(passes.NewDefaultObject(NodeDefaultObject, ObjectColor, Depth))
	g.AddNode(passes.NewVorticityField(NodeVorticityField, ObjectColor, Depth, FieldObjectColor), NodeDefaultObject)
	addPostChain(g, FieldObjectColor, NodeVorticityField, opts, true)
	return g
}

// addPostChain appends tone mapping, the optional luminance and FXAA passes,
// frame capture and the UI overlay. The last post-process pass writes the
// swapchain image.
func addPostChain(g *rendergraph.Graph, hdr, upstream string, opts Options, uiAfterToneMap bool) {
	stages := []string{NodeHDRToSDR}
	if opts.Luminance {
		stages = append(stages, NodeCalculateLuminance)
	}
	if opts.AntiAliasing {
		stages = append(stages, NodeFXAA)
	}

	input := hdr
	prev := upstream
	for i, stage := range stages {
		output := rendergraph.SwapchainAttachment
		if i < len(stages)-1 {
			output = SDRBuffer
			if stage == NodeCalculateLuminance {
				output = SDRBufferAlphaLuminance
			}
		}
		switch stage {
		case NodeHDRToSDR:
			g.AddNode(passes.NewHDRToSDR(stage, input, output), prev)
		case NodeCalculateLuminance:
			g.AddNode(passes.NewCalculateLuminance(stage, input, output), prev)
		case NodeFXAA:
			g.AddNode(passes.NewFXAA(stage, input, output), prev)
		}
		input = output
		prev = stage
	}

	g.AddNode(passes.NewRecord(NodeRecord, rendergraph.SwapchainAttachment, opts.Sink), prev)
	uiAfter := prev
	if uiAfterToneMap {
		uiAfter = NodeHDRToSDR
	}
	g.AddNode(passes.NewUI(NodeUI, rendergraph.SwapchainAttachment, opts.DrawUI), NodeRecord, uiAfter)
}
