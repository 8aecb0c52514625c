package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Events  EventsConfig  `yaml:"events"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int       `yaml:"port"`
	Host string    `yaml:"host"`
	TLS  TLSConfig `yaml:"tls"`
}

// TLSConfig holds TLS configuration for the admin API listener.
// When enabled, HTTP and HTTPS are served on the same port.
type TLSConfig struct {
	Enabled      bool   `yaml:"enabled"`
	CertFile     string `yaml:"certFile"`
	KeyFile      string `yaml:"keyFile"`
	AutoGenerate bool   `yaml:"autoGenerate"` // self-signed certificate when none is found
	StorePath    string `yaml:"storePath"`    // defaults to <storage.path>/certs
}

// Storage backends
const (
	StorageMemory = "memory"
	StorageFile   = "file"
	StorageBolt   = "bolt"
)

// StorageConfig holds storage configuration
type StorageConfig struct {
	Type string `yaml:"type"` // "memory", "file" or "bolt"
	Path string `yaml:"path"` // Directory for file and bolt storage
}

// EventsConfig holds change feed configuration
type EventsConfig struct {
	MaxEvents int `yaml:"maxEvents"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "text"
}

// MetricsConfig holds Prometheus configuration
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8500,
			Host: "0.0.0.0",
			TLS: TLSConfig{
				Enabled:      false,
				AutoGenerate: true,
			},
		},
		Storage: StorageConfig{
			Type: StorageMemory,
			Path: "./data",
		},
		Events: EventsConfig{
			MaxEvents: 1000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
