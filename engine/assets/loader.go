package assets

type AssetType uint8

const (
	AssetTypeNone AssetType = iota
	// Compiled SPIR-V, loadable.
	AssetTypeShader
	// GLSL source; watched so edits can be reported, never loaded.
	AssetTypeShaderSource
)

type Loader interface {
	Load(path string) ([]byte, error)
}

func determineAssetType(path string) AssetType {
	switch ext(path) {
	case ".spv":
		return AssetTypeShader
	case ".vert", ".frag", ".glsl", ".comp":
		return AssetTypeShaderSource
	default:
		return AssetTypeNone
	}
}
