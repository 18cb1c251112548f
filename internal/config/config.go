// Package config loads the user cache configuration from YAML or CUE files.
package config

import (
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete configuration for the user cache.
type Config struct {
	Database    string          `yaml:"database" json:"database"`
	DutyCycling bool            `yaml:"duty_cycling" json:"duty_cycling"`
	Plugin      string          `yaml:"plugin" json:"plugin"`
	Sync        SyncConfig      `yaml:"sync" json:"sync"`
	Transport   TransportConfig `yaml:"transport" json:"transport"`
	Logging     LoggingConfig   `yaml:"logging" json:"logging"`
	Metrics     MetricsConfig   `yaml:"metrics" json:"metrics"`
}

// SyncConfig holds boundary detection and export settings
type SyncConfig struct {
	TransitionKey string   `yaml:"transition_key" json:"transition_key"`
	StoppedMoving string   `yaml:"stopped_moving" json:"stopped_moving"`
	ExportLimit   int      `yaml:"export_limit" json:"export_limit"`
	Interval      Duration `yaml:"interval" json:"interval"`
	PersistErrors *bool    `yaml:"persist_errors" json:"persist_errors"`
}

// TransportConfig selects where export batches go
type TransportConfig struct {
	Kind string          `yaml:"kind" json:"kind"`
	File FileTransport   `yaml:"file" json:"file"`
	S3   S3TransportConf `yaml:"s3" json:"s3"`
}

// FileTransport holds the file transport directory
type FileTransport struct {
	Dir string `yaml:"dir" json:"dir"`
}

// S3TransportConf holds S3 transport settings
type S3TransportConf struct {
	Bucket       string `yaml:"bucket" json:"bucket"`
	Region       string `yaml:"region" json:"region"`
	Endpoint     string `yaml:"endpoint" json:"endpoint"`
	Prefix       string `yaml:"prefix" json:"prefix"`
	UsePathStyle bool   `yaml:"use_path_style" json:"use_path_style"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string `yaml:"level" json:"level"`
	Format     string `yaml:"format" json:"format"`
	File       string `yaml:"file" json:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" json:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" json:"max_age_days"`
	Compress   bool   `yaml:"compress" json:"compress"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Addr    string `yaml:"addr" json:"addr"`
	Path    string `yaml:"path" json:"path"`
}

// Transport kinds.
const (
	TransportNone = "none"
	TransportFile = "file"
	TransportS3   = "s3"
)

// Defaults for boundary detection.
const (
	DefaultTransitionKey = "statemachine/transition"
	DefaultStoppedMoving = "local.transition.stopped_moving"
	DefaultExportLimit   = 10000
)

// IsDutyCycling reports whether the host runs duty-cycled location tracking.
// Read once per boundary computation by the sync engine.
func (c *Config) IsDutyCycling() bool {
	return c.DutyCycling
}

// ShouldPersistErrors reports whether unparseable export rows go to the error table.
func (c *Config) ShouldPersistErrors() bool {
	return c.Sync.PersistErrors == nil || *c.Sync.PersistErrors
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	setDefaults(cfg)
	return cfg
}

// setDefaults sets default values for unspecified configuration
func setDefaults(cfg *Config) {
	if cfg.Database == "" {
		cfg.Database = "usercache.db"
	}

	if cfg.Sync.TransitionKey == "" {
		cfg.Sync.TransitionKey = DefaultTransitionKey
	}
	if cfg.Sync.StoppedMoving == "" {
		cfg.Sync.StoppedMoving = DefaultStoppedMoving
	}
	if cfg.Sync.ExportLimit == 0 {
		cfg.Sync.ExportLimit = DefaultExportLimit
	}
	if cfg.Sync.Interval == 0 {
		cfg.Sync.Interval = Duration(time.Hour)
	}
	if cfg.Sync.PersistErrors == nil {
		persist := true
		cfg.Sync.PersistErrors = &persist
	}

	if cfg.Transport.Kind == "" {
		cfg.Transport.Kind = TransportNone
	}
	if cfg.Transport.Kind == TransportS3 && cfg.Transport.S3.Region == "" {
		cfg.Transport.S3.Region = "us-east-1"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.File != "" {
		if cfg.Logging.MaxSizeMB == 0 {
			cfg.Logging.MaxSizeMB = 10
		}
		if cfg.Logging.MaxBackups == 0 {
			cfg.Logging.MaxBackups = 3
		}
		if cfg.Logging.MaxAgeDays == 0 {
			cfg.Logging.MaxAgeDays = 28
		}
	}

	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = "127.0.0.1:9464"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Sync.ExportLimit < 0 {
		return fmt.Errorf("sync.export_limit must be positive")
	}
	switch c.Transport.Kind {
	case TransportNone:
	case TransportFile:
		if c.Transport.File.Dir == "" {
			return fmt.Errorf("transport.file.dir is required for the file transport")
		}
	case TransportS3:
		if c.Transport.S3.Bucket == "" {
			return fmt.Errorf("transport.s3.bucket is required for the s3 transport")
		}
	default:
		return fmt.Errorf("unknown transport kind %q", c.Transport.Kind)
	}
	return nil
}

// Duration is a time.Duration that reads and writes as a Go duration string
// ("90s", "1h") in both YAML and JSON.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	return d.parse(s)
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	return d.parse(s)
}

func (d *Duration) parse(s string) error {
	if s == "" {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}
