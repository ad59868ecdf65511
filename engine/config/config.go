package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

const (
	KeyShaderDirectory = "shader_directory"
	KeyPreset          = "preset"
)

type WindowConfig struct {
	Title  string `toml:"title"`
	X      uint32 `toml:"x"`
	Y      uint32 `toml:"y"`
	Width  uint32 `toml:"width"`
	Height uint32 `toml:"height"`
}

type LoggerConfig struct {
	// trace, debug, info, warn, error, critical or off
	Level string `toml:"level"`
	// stderr, stdout or a file path
	Output string `toml:"output"`
}

type RenderGraphConfig struct {
	// Preset name: default, fire_field, smoke_field or vorticity_field.
	Name            string            `toml:"name"`
	ShaderDirectory string            `toml:"shader_directory"`
	AntiAliasing    bool              `toml:"anti_aliasing"`
	Luminance       bool              `toml:"luminance"`
	ExtraArgs       map[string]string `toml:"extra_args"`
}

type RecorderConfig struct {
	OutputPath      string  `toml:"output_path"`
	FrameRate       float64 `toml:"frame_rate"`
	RecordFromStart bool    `toml:"record_from_start"`
	// Keep only the most recent frame instead of a numbered sequence.
	DumpFrame bool `toml:"dump_frame"`
}

type Config struct {
	Window      WindowConfig      `toml:"window"`
	Logger      LoggerConfig      `toml:"logger"`
	RenderGraph RenderGraphConfig `toml:"render_graph"`
	Recorder    RecorderConfig    `toml:"recorder"`
}

func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Title:  "rendergraph",
			X:      100,
			Y:      100,
			Width:  1280,
			Height: 720,
		},
		Logger: LoggerConfig{
			Level:  "info",
			Output: "stderr",
		},
		RenderGraph: RenderGraphConfig{
			Name:            "default",
			ShaderDirectory: "assets/shaders",
			AntiAliasing:    true,
			Luminance:       true,
			ExtraArgs:       map[string]string{},
		},
		Recorder: RecorderConfig{
			OutputPath: "recordings",
			FrameRate:  30,
		},
	}
}

// Load reads a TOML file on top of Default. Keys missing from the file keep
// their default values; unknown keys are ignored.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config %q: %w", path, err)
	}
	return cfg, nil
}

func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := toml.NewDecoder(bytes.NewReader(data)).Decode(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Window.Width == 0 || c.Window.Height == 0 {
		return fmt.Errorf("%w: window size %dx%d", ErrInvalidConfig, c.Window.Width, c.Window.Height)
	}
	if c.RenderGraph.Name == "" {
		return fmt.Errorf("%w: render_graph.name is empty", ErrInvalidConfig)
	}
	if c.Recorder.FrameRate < 0 {
		return fmt.Errorf("%w: recorder.frame_rate %v", ErrInvalidConfig, c.Recorder.FrameRate)
	}
	return nil
}

// Encode writes the configuration back as TOML.
func (c *Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}

// Bundle exposes the render graph section as the flat key/value view that
// passes read their parameters from.
func (c *Config) Bundle() *Bundle {
	values := make(map[string]string, len(c.RenderGraph.ExtraArgs)+2)
	for k, v := range c.RenderGraph.ExtraArgs {
		values[k] = v
	}
	if c.RenderGraph.ShaderDirectory != "" {
		values[KeyShaderDirectory] = c.RenderGraph.ShaderDirectory
	}
	values[KeyPreset] = c.RenderGraph.Name
	return NewBundle(values)
}
