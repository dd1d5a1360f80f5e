// Package config loads the proof store server configuration.
//
// Values come from an optional YAML file, are then overridden by UL_* environment
// variables, and finally by explicitly set command line flags (see cmd/flags).
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/ruteri/unified-ledger/interfaces"
	"gopkg.in/yaml.v3"
)

const (
	DefaultListenAddr   = "127.0.0.1:8080"
	DefaultMetricsAddr  = "127.0.0.1:8090"
	DefaultStorage      = "memory://default"
	DefaultDrainSeconds = 45
	DefaultLogService   = "proofstore"
)

// Config describes a proof store server.
type Config struct {
	ListenAddr  string `yaml:"listen_addr" env:"UL_LISTEN_ADDR"`
	MetricsAddr string `yaml:"metrics_addr" env:"UL_METRICS_ADDR"`

	// Storage lists backend URIs, combined into one multi-backend when more than one.
	Storage []string `yaml:"storage" env:"UL_STORAGE" envSeparator:","`
	// StorageDNS is a domain whose "ul-storage=" TXT records add backend URIs.
	StorageDNS string `yaml:"storage_dns" env:"UL_STORAGE_DNS"`
	// DNSServer overrides the resolver used for StorageDNS.
	DNSServer string `yaml:"dns_server" env:"UL_DNS_SERVER"`

	VerifyOnSet bool `yaml:"verify_on_set" env:"UL_VERIFY_ON_SET"`

	AMQP AMQPConfig `yaml:"amqp" envPrefix:"UL_AMQP_"`
	Log  LogConfig  `yaml:"log" envPrefix:"UL_LOG_"`

	EnablePprof  bool  `yaml:"pprof" env:"UL_PPROF"`
	DrainSeconds int64 `yaml:"drain_seconds" env:"UL_DRAIN_SECONDS"`
}

// AMQPConfig enables proof event publishing when URL is set.
type AMQPConfig struct {
	URL        string `yaml:"url" env:"URL"`
	Exchange   string `yaml:"exchange" env:"EXCHANGE"`
	RoutingKey string `yaml:"routing_key" env:"ROUTING_KEY"`
}

type LogConfig struct {
	JSON    bool   `yaml:"json" env:"JSON"`
	Debug   bool   `yaml:"debug" env:"DEBUG"`
	UID     bool   `yaml:"uid" env:"UID"`
	Service string `yaml:"service" env:"SERVICE"`
}

// Load reads path (if non-empty), applies environment overrides and defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		defer f.Close()

		if err := cfg.decodeYAML(f); err != nil {
			return nil, err
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.ApplyDefaults()
	return cfg, nil
}

func (c *Config) decodeYAML(r io.Reader) error {
	content, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// ApplyDefaults fills every unset field.
func (c *Config) ApplyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}
	if c.MetricsAddr == "" {
		c.MetricsAddr = DefaultMetricsAddr
	}
	if len(c.Storage) == 0 && c.StorageDNS == "" {
		c.Storage = []string{DefaultStorage}
	}
	if c.DrainSeconds == 0 {
		c.DrainSeconds = DefaultDrainSeconds
	}
	if c.Log.Service == "" {
		c.Log.Service = DefaultLogService
	}
}

// Validate checks every storage URI parses and names a supported scheme.
func (c *Config) Validate() error {
	if len(c.Storage) == 0 && c.StorageDNS == "" {
		return fmt.Errorf("%w: no storage configured", interfaces.ErrInvalidLocationURI)
	}
	for _, uri := range c.Storage {
		if _, err := interfaces.NewStorageBackendLocation(uri); err != nil {
			return err
		}
	}
	if c.DrainSeconds < 0 {
		return fmt.Errorf("%w: drain_seconds must not be negative", interfaces.ErrInvalidArgument)
	}
	return nil
}

// StorageLocations returns the parsed Storage URIs.
func (c *Config) StorageLocations() ([]interfaces.StorageBackendLocation, error) {
	locations := make([]interfaces.StorageBackendLocation, 0, len(c.Storage))
	for _, uri := range c.Storage {
		loc, err := interfaces.NewStorageBackendLocation(uri)
		if err != nil {
			return nil, err
		}
		locations = append(locations, loc)
	}
	return locations, nil
}
