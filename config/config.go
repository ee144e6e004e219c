// Package config loads organization-level settings from a YAML file.
// Everything here has a working default so the server runs with no file at
// all; a file overrides defaults, and flags override the file.
package config

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config models labor.yml.
type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Organization struct {
		// Timezone is informational: all times in the system are wall-clock
		// values in this zone and are never converted.
		Timezone string `yaml:"timezone"`
	} `yaml:"organization"`
	MinimumWage struct {
		Agricultural    string `yaml:"agricultural"`
		NonAgricultural string `yaml:"non_agricultural"`
	} `yaml:"minimum_wage"`
}

// Default returns the built-in configuration.
func Default() *Config {
	var c Config
	c.Server.Port = 8080
	c.Database.Path = "labor.db"
	c.Organization.Timezone = "America/Chicago"
	c.MinimumWage.Agricultural = "7.25"
	c.MinimumWage.NonAgricultural = "7.25"
	return &c
}

// Load reads config from path. A missing file is not an error: defaults
// apply. A malformed file is an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// FromYAML parses and validates config bytes over the defaults.
func FromYAML(data []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if _, err := c.AgriculturalFloor(); err != nil {
		return nil, err
	}
	if _, err := c.NonAgriculturalFloor(); err != nil {
		return nil, err
	}
	return c, nil
}

// AgriculturalFloor returns the agricultural minimum wage as a decimal.
func (c *Config) AgriculturalFloor() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(c.MinimumWage.Agricultural)
	if err != nil {
		return decimal.Zero, fmt.Errorf("minimum_wage.agricultural %q: %w", c.MinimumWage.Agricultural, err)
	}
	return d, nil
}

// NonAgriculturalFloor returns the non-agricultural minimum wage as a decimal.
func (c *Config) NonAgriculturalFloor() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(c.MinimumWage.NonAgricultural)
	if err != nil {
		return decimal.Zero, fmt.Errorf("minimum_wage.non_agricultural %q: %w", c.MinimumWage.NonAgricultural, err)
	}
	return d, nil
}
