// Package config loads customs configuration from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"

	"github.com/roach88/customs/internal/record"
	"github.com/roach88/customs/internal/storage"
)

// Config is the process configuration. Command-line flags override it.
type Config struct {
	Root       string `env:"CUSTOMS_ROOT" envDefault:"."`
	Backend    string `env:"CUSTOMS_BACKEND" envDefault:"file"`
	SQLitePath string `env:"CUSTOMS_SQLITE_PATH"`
	Workers    int    `env:"CUSTOMS_WORKERS" envDefault:"4"`
	AutoSave   bool   `env:"CUSTOMS_AUTOSAVE" envDefault:"false"`

	// Codec is the encoding of the flat streams: json or yaml.
	Codec string `env:"CUSTOMS_CODEC" envDefault:"json"`

	EventsPath    string `env:"CUSTOMS_EVENTS_PATH" envDefault:"data/system/events.json"`
	ListenersPath string `env:"CUSTOMS_LISTENERS_PATH" envDefault:"data/system/listeners.json"`
	MenusPath     string `env:"CUSTOMS_MENUS_PATH" envDefault:"resources/block/Menu Block/menus.json"`

	S3 S3 `envPrefix:"CUSTOMS_S3_"`
}

// S3 configures the s3 backend.
type S3 struct {
	Region          string `env:"REGION" envDefault:"us-east-1"`
	Bucket          string `env:"BUCKET"`
	Prefix          string `env:"PREFIX"`
	Endpoint        string `env:"ENDPOINT"`
	AccessKeyID     string `env:"ACCESS_KEY_ID"`
	SecretAccessKey string `env:"SECRET_ACCESS_KEY"`
	SessionToken    string `env:"SESSION_TOKEN"`
	PathStyle       bool   `env:"PATH_STYLE"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses the environment into a Config, applies overrides in order
// and validates the result.
func Load(overrides ...func(*Config)) (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	for _, apply := range overrides {
		apply(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that the environment parser cannot.
func (c Config) Validate() error {
	switch c.Backend {
	case storage.BackendFile, storage.BackendMemory, storage.BackendSQLite:
	case storage.BackendS3:
		if c.S3.Bucket == "" {
			return fmt.Errorf("backend s3 requires CUSTOMS_S3_BUCKET")
		}
	default:
		return fmt.Errorf("unknown backend %q (supported: file, memory, sqlite, s3)", c.Backend)
	}
	if _, err := record.CodecFor(c.Codec); err != nil {
		return err
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	return nil
}

// Storage returns the storage configuration.
func (c Config) Storage() storage.Config {
	return storage.Config{
		Backend:    c.Backend,
		Root:       c.Root,
		SQLitePath: c.SQLitePath,
		S3: storage.S3Config{
			Region:          c.S3.Region,
			Bucket:          c.S3.Bucket,
			Prefix:          c.S3.Prefix,
			Endpoint:        c.S3.Endpoint,
			AccessKeyID:     c.S3.AccessKeyID,
			SecretAccessKey: c.S3.SecretAccessKey,
			SessionToken:    c.S3.SessionToken,
			PathStyle:       c.S3.PathStyle,
		},
	}
}
