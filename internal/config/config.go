package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"

	"github.com/copyleftdev/orbitplan/internal/optimization"
	"github.com/copyleftdev/orbitplan/internal/optimization/annealing"
)

type Config struct {
	Environment string `env:"ENV" envDefault:"development"`
	HTTP        struct {
		Port            int           `env:"HTTP_PORT" envDefault:"8080"`
		ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
		WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
		IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
		ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	}
	Logging struct {
		Level  string `env:"LOG_LEVEL"`
		Format string `env:"LOG_FORMAT" envDefault:"json"`
		Output string `env:"LOG_OUTPUT" envDefault:"stderr"`
	}
	Annealing struct {
		StartTemperature float64       `env:"ANNEAL_T0" envDefault:"20"`
		EndTemperature   float64       `env:"ANNEAL_T1" envDefault:"0.2"`
		Iterations       int           `env:"ANNEAL_ITERATIONS" envDefault:"20000"`
		Cooling          string        `env:"ANNEAL_COOLING" envDefault:"geometric"`
		TimeLimit        time.Duration `env:"ANNEAL_TIME_LIMIT" envDefault:"0s"`
		Restarts         int           `env:"ANNEAL_RESTARTS" envDefault:"4"`
		Workers          int           `env:"ANNEAL_WORKERS" envDefault:"4"`
		Seed             int64         `env:"ANNEAL_SEED" envDefault:"0"`
	}
	Planning struct {
		HorizonCap           int `env:"PLAN_HORIZON_CAP" envDefault:"20"`
		MaxRequestIterations int `env:"PLAN_MAX_REQUEST_ITERATIONS" envDefault:"1000000"`
	}
}

func Load() (*Config, error) {
	cfg := &Config{}

	// Parse environment variables
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	// Set default logging level based on environment
	if cfg.Logging.Level == "" {
		if cfg.Environment == "development" {
			cfg.Logging.Level = "debug"
		} else {
			cfg.Logging.Level = "info"
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the planning and annealing settings.
func (c *Config) Validate() error {
	if c.Planning.HorizonCap < 1 {
		return fmt.Errorf("PLAN_HORIZON_CAP must be at least 1, got %d", c.Planning.HorizonCap)
	}
	if c.Annealing.Restarts < 1 {
		return fmt.Errorf("ANNEAL_RESTARTS must be at least 1, got %d", c.Annealing.Restarts)
	}
	if _, err := c.Schedule(); err != nil {
		return fmt.Errorf("invalid annealing settings: %w", err)
	}
	return nil
}

// Schedule builds the annealing schedule from the configuration.
func (c *Config) Schedule() (optimization.Schedule, error) {
	cooling, err := optimization.ParseCooling(c.Annealing.Cooling)
	if err != nil {
		return optimization.Schedule{}, err
	}
	s := optimization.Schedule{
		StartTemperature: c.Annealing.StartTemperature,
		EndTemperature:   c.Annealing.EndTemperature,
		Iterations:       c.Annealing.Iterations,
		Cooling:          cooling,
		TimeLimit:        c.Annealing.TimeLimit,
	}
	if err := s.Validate(); err != nil {
		return optimization.Schedule{}, err
	}
	return s, nil
}

// Restarts returns the multi-start settings.
func (c *Config) Restarts() annealing.RestartConfig {
	return annealing.RestartConfig{
		Restarts: c.Annealing.Restarts,
		Workers:  c.Annealing.Workers,
		Seed:     c.Annealing.Seed,
	}
}
