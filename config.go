package headlessterm

import (
	"os"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config is a declarative, serializable counterpart to the functional
// Option constructors: the same construction knobs, expressed as plain
// fields so a host can load them from a TOML or YAML profile instead of
// wiring them up in Go.
type Config struct {
	Rows int `toml:"rows" yaml:"rows"`
	Cols int `toml:"cols" yaml:"cols"`

	AutoResize       bool `toml:"auto_resize" yaml:"auto_resize"`
	Sixel            bool `toml:"sixel" yaml:"sixel"`
	Kitty            bool `toml:"kitty" yaml:"kitty"`
	ShellIntegration bool `toml:"shell_integration" yaml:"shell_integration"`
	Recording        bool `toml:"recording" yaml:"recording"`
}

// DefaultConfig returns the same defaults New() applies when no options
// are given.
func DefaultConfig() Config {
	return Config{
		Rows:  DEFAULT_ROWS,
		Cols:  DEFAULT_COLS,
		Sixel: true,
		Kitty: true,
	}
}

// LoadConfigTOML reads a Config from a TOML file.
func LoadConfigTOML(path string) (Config, error) {
	cfg := DefaultConfig()
	_, err := toml.DecodeFile(path, &cfg)
	return cfg, err
}

// LoadConfigYAML reads a Config from a YAML file.
func LoadConfigYAML(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Options translates the Config into the equivalent Option list, so it
// can be passed straight to New.
func (c Config) Options() []Option {
	opts := []Option{
		WithSize(c.Rows, c.Cols),
		WithSixel(c.Sixel),
		WithKitty(c.Kitty),
	}
	if c.AutoResize {
		opts = append(opts, WithAutoResize())
	}
	if c.ShellIntegration {
		opts = append(opts, WithShellIntegration(NoopShellIntegration{}))
	}
	if c.Recording {
		opts = append(opts, WithRecording(NewMemoryRecording()))
	}
	return opts
}

// NewFromConfig constructs a Terminal from a declarative Config.
func NewFromConfig(c Config) *Terminal {
	return New(c.Options()...)
}
