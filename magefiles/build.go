//go:build mage

package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/target"
)

type Build mg.Namespace

var shaderSources = []string{"shader.vert", "shader.frag"}

const shaderDir = "assets/shaders"

// Compiles the GLSL shaders under assets/shaders to SPIR-V. Up to date
// modules are skipped.
func (Build) Shaders() error {
	return buildShaders()
}

// Compiles the shaders and the testbed binary into bin/.
func (Build) Engine() error {
	mg.Deps(Build.Shaders)
	if err := os.MkdirAll("bin", 0o755); err != nil {
		return err
	}
	_, err := executeCmd("go", withArgs("build", "-o", filepath.Join("bin", "oberon"), "."), withStream())
	return err
}

func buildShaders() error {
	for _, name := range shaderSources {
		src := filepath.Join(shaderDir, name)
		out := src + ".spv"
		stale, err := target.Path(out, src)
		if err != nil {
			return err
		}
		if !stale {
			continue
		}
		if _, err := executeCmd("glslc", withArgs(src, "-o", out), withStream()); err != nil {
			return err
		}
	}
	return nil
}
