package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/graphlapse/graphlapse/pkg/api"
	"github.com/graphlapse/graphlapse/pkg/statestore"
	"github.com/graphlapse/graphlapse/pkg/validation"
)

// StoreConfig selects and configures the session state backend.
type StoreConfig struct {
	Backend string `yaml:"backend"` // memory, file, postgres, s3

	// file backend
	Dir string `yaml:"dir"`

	// postgres backend
	DatabaseURL string `yaml:"database_url"`

	// s3 backend
	S3 statestore.S3Config `yaml:"s3"`
}

// StreamConfig configures frame broadcasting.
type StreamConfig struct {
	// NNGListen is the mangos pub socket address, e.g. tcp://0.0.0.0:9091.
	// Empty disables the socket; the in-process broker always runs.
	NNGListen string `yaml:"nng_listen"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level string `yaml:"level"`
}

// UserConfig provisions one account at startup. Plaintext passwords in the
// config file are hashed on load and never kept around.
type UserConfig struct {
	ID       string `yaml:"id"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
}

// Config is the full server configuration.
type Config struct {
	API    api.Config   `yaml:"api"`
	Store  StoreConfig  `yaml:"store"`
	Stream StreamConfig `yaml:"stream"`
	Log    LogConfig    `yaml:"log"`
	Users  []UserConfig `yaml:"users"`
}

// DefaultServerConfig returns the configuration used when no file is given.
func DefaultServerConfig() *Config {
	return &Config{
		API:   *api.DefaultConfig(),
		Store: StoreConfig{Backend: "memory"},
		Log:   LogConfig{Level: "info"},
	}
}

// LoadConfig reads a YAML config file, layering it over the defaults.
func LoadConfig(path string) (*Config, error) {
	config := DefaultServerConfig()
	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// A file that sets a key to "" should not erase the default.
	config.Store.Backend = validation.DefaultOr(config.Store.Backend, "memory")
	config.Log.Level = validation.DefaultOr(config.Log.Level, "info")
	config.API.TokenTTL = validation.DefaultOrDuration(config.API.TokenTTL, api.DefaultConfig().TokenTTL)
	return config, nil
}

// Validate checks the whole configuration tree.
func (c *Config) Validate() error {
	if err := c.API.Validate(); err != nil {
		return err
	}
	return validation.NewConfigValidator("server").
		OneOf("store.backend", c.Store.Backend, []string{"memory", "file", "postgres", "s3"}).
		When(c.Store.Backend == "file", func(cv *validation.ConfigValidator) {
			cv.Required("store.dir", c.Store.Dir)
		}).
		When(c.Store.Backend == "postgres", func(cv *validation.ConfigValidator) {
			cv.Required("store.database_url", c.Store.DatabaseURL)
		}).
		When(c.Store.Backend == "s3", func(cv *validation.ConfigValidator) {
			cv.Required("store.s3.bucket", c.Store.S3.Bucket)
		}).
		Custom("users", func() error {
			if c.API.AuthEnabled && len(c.Users) == 0 {
				return fmt.Errorf("auth enabled but no users configured")
			}
			return nil
		}).
		Validate()
}
