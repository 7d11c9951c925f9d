// Package config defines the versioned YAML configuration shared by the
// admission server and the vetting worker (the skreg installer CLI takes
// command-line flags instead), parsed the way the teacher's configuration package parses the registry's
// own config: a struct tagged with `yaml`, overridable per-field by
// environment variables sharing its field path.
package config

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v2"
)

// Version is the major/minor version of the configuration file format.
type Version string

// CurrentVersion is the only configuration version this build understands.
const CurrentVersion Version = "1.0"

// Config is the top-level configuration document, intended to be provided
// as a YAML file and optionally overridden by SKREG_-prefixed environment
// variables.
//
// Environment variable names are built by applyEnvOverrides from the Go
// field names (not the yaml names), upper-cased and joined by `_` below the
// prefix, e.g. SKREG_DATABASE_DSN or SKREG_WORKER_PENDINGGRACESECONDS.
type Config struct {
	Version Version `yaml:"version"`

	Log      Log      `yaml:"log"`
	Database Database `yaml:"database"`
	Storage  Storage  `yaml:"storage"`
	Secrets  Secrets  `yaml:"secrets"`
	HTTP     HTTP     `yaml:"http"`
	Cache    Cache    `yaml:"cache,omitempty"`
	Worker   Worker   `yaml:"worker"`
}

// Log configures the logging subsystem, mirroring the teacher's Log
// struct shape (level plus an optional formatter).
type Log struct {
	Level     string `yaml:"level"`
	Formatter string `yaml:"formatter,omitempty"`
}

// Database configures the Postgres connection the admission service and
// worker both share.
type Database struct {
	DSN string `yaml:"dsn"`
}

// Storage configures the object-storage backend for .skill/.sig blobs.
type Storage struct {
	Driver string     `yaml:"driver"` // "s3" or "memory"
	Bucket string     `yaml:"bucket"`
	S3     S3Storage  `yaml:"s3"`
}

// S3Storage configures the S3-compatible object-storage backend.
type S3Storage struct {
	Region         string `yaml:"region"`
	RegionEndpoint string `yaml:"regionendpoint,omitempty"`
	AccessKey      string `yaml:"accesskey,omitempty"`
	SecretKey      string `yaml:"secretkey,omitempty"`
	ForcePathStyle bool   `yaml:"forcepathstyle,omitempty"`
	Secure         bool   `yaml:"secure"`
	RootDirectory  string `yaml:"rootdirectory,omitempty"`
}

// Secrets configures the CA key secret store.
type Secrets struct {
	Driver string `yaml:"driver"` // "awssecretsmanager" or "static"
	CAARN  string `yaml:"caarn"`
	Region string `yaml:"region,omitempty"`

	// StaticKeyPath is the PEM-encoded CA private key file used by the
	// "static" driver, for local/dev deployments without Secrets Manager.
	StaticKeyPath string `yaml:"statickeypath,omitempty"`
}

// HTTP configures the admission service's listener.
type HTTP struct {
	Addr string `yaml:"addr"`
	TLS  TLS    `yaml:"tls,omitempty"`
}

// Cache configures the admission service's optional manifest-lookup cache.
// An empty Addr disables caching entirely.
type Cache struct {
	Addr string `yaml:"addr,omitempty"`
}

// TLS configures the admission service's optional TLS listener.
type TLS struct {
	Certificate string   `yaml:"certificate,omitempty"`
	Key         string   `yaml:"key,omitempty"`
	ClientCAs   []string `yaml:"clientcas,omitempty"`
}

// Worker configures the vetting worker pool.
type Worker struct {
	PendingGraceSeconds int `yaml:"pendinggraceseconds"`
}

// Parse decodes a YAML configuration document from r and applies
// SKREG_-prefixed environment variable overrides.
func Parse(r io.Reader) (*Config, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("config: reading configuration: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing configuration: %w", err)
	}

	if cfg.Version == "" {
		cfg.Version = CurrentVersion
	}
	if cfg.Version != CurrentVersion {
		return nil, fmt.Errorf("config: unsupported configuration version %q", cfg.Version)
	}

	if err := applyEnvOverrides("SKREG", &cfg); err != nil {
		return nil, fmt.Errorf("config: applying environment overrides: %w", err)
	}

	return &cfg, nil
}
