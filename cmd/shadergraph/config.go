package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// defaultConfigFile is read from the working directory when --config is
// not given.
const defaultConfigFile = "shadergraph.yaml"

// Config is the contents of shadergraph.yaml.
type Config struct {
	LogLevel string `yaml:"log_level"`

	Engine struct {
		Name     string   `yaml:"name"`
		Preserve []string `yaml:"preserve"`
	} `yaml:"engine"`

	Output struct {
		Dir string `yaml:"dir"`
	} `yaml:"output"`

	Cache struct {
		Path string `yaml:"path"`
	} `yaml:"cache"`

	Watch struct {
		Debounce time.Duration `yaml:"debounce"`
	} `yaml:"watch"`
}

func defaultConfig() *Config {
	cfg := &Config{LogLevel: "info"}
	cfg.Engine.Name = "default"
	cfg.Watch.Debounce = 300 * time.Millisecond
	return cfg
}

// loadConfig reads path over the defaults. A missing default file is not
// an error; a missing explicit file is.
func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()
	explicit := path != ""
	if !explicit {
		path = defaultConfigFile
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("log level %q: %w", s, err)
	}
	return level, nil
}
