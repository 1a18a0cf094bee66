package configs

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Environment variables read by preloadgen.
const (
	TagCustomConfig = "GOPRELOAD_CONFIG"
	TagCustomGoBin  = "GOPRELOAD_GO"
	TagLogType      = "GOPRELOAD_LOG"
)

type Config struct {
	// Hooks selects functions by symbol name in addition to the
	// //preload:hook directive.
	Hooks map[string]HookConfig `yaml:"hooks"`
}

type HookConfig struct {
	// Library resolves the real symbol from this shared library instead of
	// the next definition in search order.
	Library string `yaml:"library"`
}

// Hook returns the configuration of symbol and whether the config names it.
func (c *Config) Hook(symbol string) (HookConfig, bool) {
	if c == nil || c.Hooks == nil {
		return HookConfig{}, false
	}
	hc, ok := c.Hooks[symbol]
	return hc, ok
}

// ReadConfig loads the yaml config at path, or at $GOPRELOAD_CONFIG when
// path is empty. No file at all yields an empty config.
func ReadConfig(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(TagCustomConfig)
	}
	cfg := &Config{Hooks: map[string]HookConfig{}}
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config `%s`", path)
	}
	if cfg.Hooks == nil {
		cfg.Hooks = map[string]HookConfig{}
	}
	return cfg, nil
}
