//go:build mage

package main

import (
	"io/fs"
	"path/filepath"

	"github.com/magefile/mage/mg"
)

const (
	shaderDir = "assets/shaders"
	binary    = "bin/rendergraph"
)

type Build mg.Namespace

// Compiles every GLSL stage under assets/shaders to SPIR-V next to its source.
func (Build) Shaders() error {
	return filepath.WalkDir(shaderDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch filepath.Ext(path) {
		case ".vert", ".frag":
			_, err := executeCmd("glslc", withArgs(path, "-o", path+".spv"), withStream())
			return err
		}
		return nil
	})
}

// Builds the engine binary into bin/.
func (Build) Engine() error {
	_, err := executeCmd("go", withArgs("build", "-o", binary, "."), withStream())
	return err
}

// Runs the unit tests.
func (Build) Test() error {
	_, err := executeCmd("go", withArgs("test", "./..."), withStream())
	return err
}
