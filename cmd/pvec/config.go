package main

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"go.nesv.ca/pvec"
)

// config holds the CLI's settings. Flags override anything loaded from a
// config file.
type config struct {
	Dir          string `yaml:"dir"`
	SyncInterval string `yaml:"sync_interval"`
}

func defaultConfig() config {
	return config{
		Dir:          "data",
		SyncInterval: pvec.DefaultSyncInterval.String(),
	}
}

// loadConfig reads a YAML config file. An empty path yields the defaults.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	p, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "read config")
	}
	if err := yaml.Unmarshal(p, &cfg); err != nil {
		return cfg, errors.Wrap(err, "parse config")
	}
	return cfg, nil
}

func (c config) syncInterval() (time.Duration, error) {
	d, err := time.ParseDuration(c.SyncInterval)
	if err != nil {
		return 0, errors.Wrap(err, "parse sync_interval")
	}
	return d, nil
}
