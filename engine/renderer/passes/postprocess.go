package passes

import (
	"github.com/spaghettifunk/rendergraph/engine/renderer/metadata"
	"github.com/spaghettifunk/rendergraph/engine/renderer/rendergraph"
)

// HDRToSDRNode tone maps an HDR target into 8 bit colour.
// Parameters (extra_args): exposure, gamma.
type HDRToSDRNode struct {
	pass
}

func NewHDRToSDR(name, hdr, sdr string) *HDRToSDRNode {
	return &HDRToSDRNode{pass: pass{
		BaseNode: rendergraph.NewBaseNode(name,
			sampledInput("hdr", hdr, HDRFormat),
			colorOutput("sdr", sdr, SDRFormat),
		),
		shader:     "hdr_to_sdr",
		colorRoles: []string{"sdr"},
		inputRoles: []string{"hdr"},
		load:       metadata.ATTACHMENT_LOAD_OPERATION_DONT_CARE,
		params: []paramSpec{
			{key: "exposure", fallback: 1},
			{key: "gamma", fallback: 2.2},
		},
	}}
}

// CalculateLuminanceNode copies colour and stores its luma in alpha, which is
// what the FXAA pass reads edges from.
type CalculateLuminanceNode struct {
	pass
}

func NewCalculateLuminance(name, sdr, sdrLuminance string) *CalculateLuminanceNode {
	return &CalculateLuminanceNode{pass: pass{
		BaseNode: rendergraph.NewBaseNode(name,
			sampledInput("sdr", sdr, SDRFormat),
			colorOutput("sdr_alpha_luminance", sdrLuminance, SDRFormat),
		),
		shader:     "calculate_luminance",
		colorRoles: []string{"sdr_alpha_luminance"},
		inputRoles: []string{"sdr"},
		load:       metadata.ATTACHMENT_LOAD_OPERATION_DONT_CARE,
	}}
}

// FXAANode applies fast approximate anti-aliasing.
// Parameters (extra_args): fxaa.subpix, fxaa.edge_threshold.
type FXAANode struct {
	pass
}

func NewFXAA(name, original, antialiased string) *FXAANode {
	return &FXAANode{pass: pass{
		BaseNode: rendergraph.NewBaseNode(name,
			sampledInput("original", original, SDRFormat),
			colorOutput("antialiased", antialiased, SDRFormat),
		),
		shader:     "fxaa",
		colorRoles: []string{"antialiased"},
		inputRoles: []string{"original"},
		load:       metadata.ATTACHMENT_LOAD_OPERATION_DONT_CARE,
		params: []paramSpec{
			{key: "fxaa.subpix", fallback: 0.75},
			{key: "fxaa.edge_threshold", fallback: 0.166},
		},
	}}
}
