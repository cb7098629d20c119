package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type fileConfig struct {
	Address       *string `json:"address" yaml:"address"`
	StatusURL     *string `json:"status_url" yaml:"status_url"`
	PollInterval  *string `json:"poll_interval" yaml:"poll_interval"` // "1s"
	PruneInterval *string `json:"prune_interval" yaml:"prune_interval"`
	FetchTimeout  *string `json:"fetch_timeout" yaml:"fetch_timeout"`
	Window        *string `json:"window" yaml:"window"`
	BufferSize    *int    `json:"buffer_size" yaml:"buffer_size"`
	LogLevel      *string `json:"log_level" yaml:"log_level"`
}

// loadFile reads a YAML file when the extension says so, JSON otherwise.
func loadFile(path string) (*fileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var fc fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &fc)
	default:
		err = json.Unmarshal(b, &fc)
	}
	if err != nil {
		return nil, err
	}
	return &fc, nil
}

func (fc *fileConfig) apply(cfg *Config) error {
	if fc.Address != nil {
		cfg.Addr = *fc.Address
	}
	if fc.StatusURL != nil {
		cfg.StatusURL = *fc.StatusURL
	}
	for _, d := range []struct {
		src *string
		dst *time.Duration
	}{
		{fc.PollInterval, &cfg.PollInterval},
		{fc.PruneInterval, &cfg.PruneInterval},
		{fc.FetchTimeout, &cfg.FetchTimeout},
		{fc.Window, &cfg.Window},
	} {
		if d.src == nil {
			continue
		}
		v, err := parseDuration(*d.src)
		if err != nil {
			return err
		}
		*d.dst = v
	}
	if fc.BufferSize != nil {
		cfg.BufferSize = *fc.BufferSize
	}
	if fc.LogLevel != nil {
		cfg.LogLevel = *fc.LogLevel
	}
	return nil
}
