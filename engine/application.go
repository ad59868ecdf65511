package engine

import (
	"github.com/spaghettifunk/rendergraph/engine/config"
)

type ApplicationConfig struct {
	// The application name used in windowing. Overrides the configured
	// window title when set.
	Name string
	// Config is the loaded configuration. Defaults are used when nil.
	Config *config.Config
	// Debug enables the Vulkan validation layer when it is installed.
	Debug bool
}

func (a *ApplicationConfig) resolve() *config.Config {
	cfg := a.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if a.Name != "" {
		cfg.Window.Title = a.Name
	}
	return cfg
}
