package picker

import (
	"github.com/hazyhaar/dompick/picker/internal/config"
)

// Config is the top-level picker configuration. Re-exported from internal.
type Config = config.Config

// BrowserConfig controls Chrome lifecycle.
type BrowserConfig = config.BrowserConfig

// PageConfig defines a page to host for picking.
type PageConfig = config.PageConfig

// SinkConfig defines an output backend.
type SinkConfig = config.SinkConfig

// HTTPConfig controls the control API.
type HTTPConfig = config.HTTPConfig

// LoadConfigFile reads a YAML configuration file.
func LoadConfigFile(path string) (*Config, error) {
	return config.LoadFile(path)
}

// ParseConfig decodes a YAML configuration.
func ParseConfig(data []byte) (*Config, error) {
	return config.Parse(data)
}
