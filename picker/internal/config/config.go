// Package config handles picker configuration from YAML files.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level picker configuration.
type Config struct {
	Browser BrowserConfig `yaml:"browser"`
	Pages   []PageConfig  `yaml:"pages"`
	Sinks   []SinkConfig  `yaml:"sinks"`
	HTTP    HTTPConfig    `yaml:"http"`
}

// BrowserConfig controls Chrome lifecycle.
type BrowserConfig struct {
	Remote          string        `yaml:"remote"`
	Headless        bool          `yaml:"headless"`
	XvfbDisplay     string        `yaml:"xvfb_display"`
	MemoryLimit     int64         `yaml:"memory_limit"`
	RecycleInterval time.Duration `yaml:"recycle_interval"`
	CallTimeout     time.Duration `yaml:"call_timeout"` // bound on each in-frame DOM call
}

// PageConfig defines a page to host for picking.
type PageConfig struct {
	ID         string `yaml:"id"`
	URL        string `yaml:"url"`
	AutoEnable bool   `yaml:"auto_enable"` // send ENABLE_EDIT_MODE once loaded
}

// SinkConfig defines an output backend.
type SinkConfig struct {
	Type string `yaml:"type"` // stdout | webhook | stream
	URL  string `yaml:"url"`  // for webhook
}

// HTTPConfig controls the control API. An empty Addr disables it.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// LoadFile reads a YAML configuration file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML, applies defaults and validates.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Browser.MemoryLimit <= 0 {
		c.Browser.MemoryLimit = 1 << 30
	}
	if c.Browser.RecycleInterval <= 0 {
		c.Browser.RecycleInterval = 12 * time.Hour
	}
	if c.Browser.CallTimeout <= 0 {
		c.Browser.CallTimeout = 5 * time.Second
	}
	for i := range c.Pages {
		if c.Pages[i].ID == "" {
			c.Pages[i].ID = fmt.Sprintf("page-%d", i+1)
		}
	}
}

// Validate rejects configurations the picker cannot run.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Pages))
	for _, p := range c.Pages {
		if p.URL == "" {
			return fmt.Errorf("config: page %q has no url", p.ID)
		}
		if seen[p.ID] {
			return fmt.Errorf("config: duplicate page id %q", p.ID)
		}
		seen[p.ID] = true
	}
	for _, s := range c.Sinks {
		switch s.Type {
		case "stdout", "stream":
		case "webhook":
			if s.URL == "" {
				return fmt.Errorf("config: webhook sink has no url")
			}
		default:
			return fmt.Errorf("config: unknown sink type %q", s.Type)
		}
	}
	return nil
}
