// Package config provides client configuration loaded from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const logPrefix = "config:LoadConfig"

// Config holds inspection client configuration.
type Config struct {
	// COMMS: connect to the broker the inspected process is reachable on.
	COMMSURL  string `envconfig:"COMMS_URL" default:"nats://127.0.0.1:4222"`
	COMMSName string `envconfig:"SERVICE_NAME" default:"mtgosdk-client"`

	// HostSubject overrides the host request subject (empty = default scheme).
	HostSubject string `envconfig:"INSPECT_HOST_SUBJECT"`

	// HostVersionRange is the semver constraint the host must satisfy at
	// handshake (empty = accept any).
	HostVersionRange string `envconfig:"INSPECT_HOST_VERSION_RANGE"`

	// Timeouts
	RequestTimeout time.Duration `envconfig:"INSPECT_REQUEST_TIMEOUT" default:"25s"`

	// DefaultMaxItems caps batch fetches when the caller sets no explicit cap
	// (0 = unbounded).
	DefaultMaxItems int `envconfig:"INSPECT_DEFAULT_MAX_ITEMS" default:"0"`

	// Logging
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks invariants required to build a transport client.
func (c *Config) Validate() error {
	if c.COMMSURL == "" {
		return fmt.Errorf("%s - COMMS_URL is required", logPrefix)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%s - INSPECT_REQUEST_TIMEOUT must be positive", logPrefix)
	}
	if c.DefaultMaxItems < 0 {
		return fmt.Errorf("%s - INSPECT_DEFAULT_MAX_ITEMS must not be negative", logPrefix)
	}
	return nil
}
