package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for mantad.
// Zero values mean "unspecified" and will be replaced by defaults in main.
type Config struct {
	Addr                 string   `json:"addr" yaml:"addr" toml:"addr"`
	Driver               string   `json:"driver" yaml:"driver" toml:"driver"`
	Catalog              string   `json:"catalog" yaml:"catalog" toml:"catalog"`
	Buffers              int      `json:"buffers" yaml:"buffers" toml:"buffers"`
	EndCaptureTimeoutMS  int      `json:"end_capture_timeout_ms" yaml:"end_capture_timeout_ms" toml:"end_capture_timeout_ms"`
	LogLevel             string   `json:"log_level" yaml:"log_level" toml:"log_level"`
	CORSOrigins          []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
	MaxBodyBytes         int64    `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`
	FrameWaitTimeoutSecs int      `json:"frame_wait_timeout_secs" yaml:"frame_wait_timeout_secs" toml:"frame_wait_timeout_secs"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	if cfg.Buffers < 0 {
		return cfg, fmt.Errorf("buffers must not be negative")
	}
	if cfg.EndCaptureTimeoutMS < 0 {
		return cfg, fmt.Errorf("end_capture_timeout_ms must not be negative")
	}
	return cfg, nil
}
