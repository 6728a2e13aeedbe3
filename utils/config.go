// File: utils/config.go
package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix prefixes every environment variable read by LoadConfig.
const EnvPrefix = "TOUCHSTONE_"

var ErrInvalidConfig = errors.New("invalid config")

// Config holds all configurable simulation parameters.
type Config struct {
	// Timing
	TickPeriod time.Duration `env:"TICK_PERIOD" json:"tickPeriod"` // Time between simulation steps

	// Physics
	VelocityIterations int     `env:"VELOCITY_ITERATIONS" json:"velocityIterations"` // box2d velocity solver iterations
	PositionIterations int     `env:"POSITION_ITERATIONS" json:"positionIterations"` // box2d position solver iterations
	GravityX           float64 `env:"GRAVITY_X" json:"gravityX"`
	GravityY           float64 `env:"GRAVITY_Y" json:"gravityY"`

	// Contacts
	PoolCapacity     int  `env:"POOL_CAPACITY" json:"poolCapacity"`           // Records preallocated by the listener
	CleanupAll       bool `env:"CLEANUP_ALL" json:"cleanupAll"`               // Free every flagged record per pass instead of one
	CleanupAfterStep bool `env:"CLEANUP_AFTER_STEP" json:"cleanupAfterStep"` // Also run a cleanup pass after each dispatch step
	Debug            bool `env:"DEBUG" json:"debug"`                          // Log raw events and dropped contacts

	// Surfaces
	MonitorAddr  string `env:"MONITOR_ADDR" json:"monitorAddr"`   // Empty disables the monitor
	OtelEndpoint string `env:"OTEL_ENDPOINT" json:"otelEndpoint"` // Empty disables tracing
	ServiceName  string `env:"SERVICE_NAME" json:"serviceName"`
}

// DefaultConfig returns a Config struct with default values.
func DefaultConfig() Config {
	return Config{
		TickPeriod: time.Second / 60,

		VelocityIterations: 8,
		PositionIterations: 3,
		GravityX:           0,
		GravityY:           -10,

		PoolCapacity:     64,
		CleanupAll:       false,
		CleanupAfterStep: false,
		Debug:            false,

		MonitorAddr:  ":3001",
		OtelEndpoint: "",
		ServiceName:  "touchstone",
	}
}

// LoadConfig overlays TOUCHSTONE_* environment variables on DefaultConfig.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values the simulation cannot run with.
func (c Config) Validate() error {
	switch {
	case c.TickPeriod <= 0:
		return fmt.Errorf("%w: tick period must be positive, got %s", ErrInvalidConfig, c.TickPeriod)
	case c.VelocityIterations <= 0 || c.PositionIterations <= 0:
		return fmt.Errorf("%w: solver iterations must be positive", ErrInvalidConfig)
	case c.PoolCapacity < 0:
		return fmt.Errorf("%w: pool capacity must not be negative, got %d", ErrInvalidConfig, c.PoolCapacity)
	}
	return nil
}

// StepSeconds is the fixed simulation step matching TickPeriod.
func (c Config) StepSeconds() float64 {
	return c.TickPeriod.Seconds()
}
