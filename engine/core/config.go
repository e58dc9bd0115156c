package core

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"
)

const DefaultConfigPath = "oberon.toml"

type ApplicationConfig struct {
	// The application name used in windowing.
	Name string `toml:"name"`
	// Window starting width.
	Width uint32 `toml:"width"`
	// Window starting height.
	Height uint32 `toml:"height"`
	// Window starting position.
	PosX uint32 `toml:"pos_x"`
	PosY uint32 `toml:"pos_y"`
}

type RendererConfig struct {
	Validation        bool       `toml:"validation"`
	PreferDiscreteGPU bool       `toml:"prefer_discrete_gpu"`
	ClearColor        [4]float32 `toml:"clear_color"`
	AssetsDir         string     `toml:"assets_dir"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

type Config struct {
	Application ApplicationConfig `toml:"application"`
	Renderer    RendererConfig    `toml:"renderer"`
	Log         LogConfig         `toml:"log"`
}

func DefaultConfig() *Config {
	return &Config{
		Application: ApplicationConfig{
			Name:   "Oberon",
			Width:  800,
			Height: 600,
			PosX:   100,
			PosY:   100,
		},
		Renderer: RendererConfig{
			Validation:        true,
			PreferDiscreteGPU: true,
			ClearColor:        [4]float32{0.0, 0.0, 0.08, 1.0},
			AssetsDir:         "assets",
		},
		Log: LogConfig{
			Level: "debug",
		},
	}
}

// ParseConfig decodes TOML on top of the defaults, so a partial file only
// overrides the keys it names. Unknown keys are rejected.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, errors.Mark(errors.Newf("unknown configuration keys:\n%s", strict.String()), ErrInvalidConfig)
		}
		return nil, errors.Mark(errors.Wrap(err, "decoding configuration"), ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig reads the file at path. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		LogInfo("No configuration at %s, using defaults.", path)
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading configuration %s", path)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, errors.Wrapf(err, "configuration %s", path)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Application.Width == 0 || c.Application.Height == 0 {
		return errors.Mark(
			errors.Newf("window size must be non-zero, got %dx%d", c.Application.Width, c.Application.Height),
			ErrInvalidConfig)
	}
	for i, v := range c.Renderer.ClearColor {
		if v < 0 || v > 1 {
			return errors.Mark(errors.Newf("clear_color[%d] = %v is outside [0, 1]", i, v), ErrInvalidConfig)
		}
	}
	if c.Renderer.AssetsDir == "" {
		return errors.Mark(errors.New("assets_dir must not be empty"), ErrInvalidConfig)
	}
	return nil
}

// WatchConfig calls onChange with the reloaded configuration every time the
// file at path is written, until ctx is done. Invalid edits are logged and
// skipped. The parent directory is watched because editors often replace
// the file instead of writing it in place.
func WatchConfig(ctx context.Context, path string, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "creating configuration watcher")
	}
	defer watcher.Close()

	target, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return errors.Wrapf(err, "watching %s", filepath.Dir(target))
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(e.Name) != target || !(e.Has(fsnotify.Write) || e.Has(fsnotify.Create)) {
				continue
			}
			cfg, err := LoadConfig(target)
			if err != nil {
				Logger().Warn("ignoring configuration change", "path", target, "err", err)
				continue
			}
			LogInfo("Configuration %s reloaded.", target)
			onChange(cfg)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			LogError(err.Error())
		}
	}
}
