//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Compiles the shaders and runs the testbed with config.toml when present.
func (Run) Default() error {
	return runEngine()
}

// Compiles the shaders and runs the testbed with the named render graph preset.
func (Run) Preset(name string) error {
	return runEngine("-preset", name)
}

func runEngine(extra ...string) error {
	mg.Deps(Build.Shaders)
	args := []string{"run", "."}
	if _, err := os.Stat("config.toml"); err == nil {
		args = append(args, "-config", "config.toml")
	}
	args = append(args, extra...)
	fmt.Println("Run engine...")
	_, err := executeCmd("go", withArgs(args...), withStream())
	return err
}
