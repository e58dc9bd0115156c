package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatal(err)
	}
	def := DefaultConfig()
	if cfg.Application != def.Application || cfg.Renderer != def.Renderer || cfg.Log != def.Log {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestParseConfigOverridesDefaults(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
[application]
name = "demo"
width = 1280

[renderer]
validation = false
clear_color = [0.1, 0.2, 0.3, 1.0]

[log]
level = "info"
`))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Application.Name != "demo" || cfg.Application.Width != 1280 {
		t.Errorf("unexpected application section %+v", cfg.Application)
	}
	// keys absent from the file keep their defaults
	if cfg.Application.Height != 600 || cfg.Renderer.AssetsDir != "assets" || !cfg.Renderer.PreferDiscreteGPU {
		t.Errorf("defaults were lost: %+v", cfg)
	}
	if cfg.Renderer.Validation {
		t.Error("validation should be off")
	}
	if cfg.Renderer.ClearColor != [4]float32{0.1, 0.2, 0.3, 1.0} {
		t.Errorf("unexpected clear color %v", cfg.Renderer.ClearColor)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("unexpected log level %q", cfg.Log.Level)
	}
}

func TestParseConfigRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"zero width":    "[application]\nwidth = 0\n",
		"unknown key":   "[renderer]\nvsync = true\n",
		"bad color":     "[renderer]\nclear_color = [2.0, 0.0, 0.0, 1.0]\n",
		"empty assets":  "[renderer]\nassets_dir = \"\"\n",
		"broken syntax": "[application\n",
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseConfig([]byte(input))
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oberon.toml")
	if err := os.WriteFile(path, []byte("[application]\nheight = 720\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Application.Height != 720 {
		t.Errorf("expected height 720, got %d", cfg.Application.Height)
	}
}
