// Package config loads the service configuration from the environment and
// solver profiles from YAML files.
package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/caarlos0/env/v10"
	"gopkg.in/yaml.v3"

	"github.com/copyleftdev/bioristor/internal/solver"
)

type Config struct {
	Environment string `env:"ENV" envDefault:"development"`
	HTTP        struct {
		Port            int           `env:"HTTP_PORT" envDefault:"8080"`
		ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
		WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
		IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
		ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
		RequestTimeout  time.Duration `env:"HTTP_REQUEST_TIMEOUT" envDefault:"60s"`
		// RateLimit is the sustained request rate in requests per second.
		// Zero disables limiting.
		RateLimit float64 `env:"HTTP_RATE_LIMIT" envDefault:"50"`
		RateBurst int     `env:"HTTP_RATE_BURST" envDefault:"100"`
	}
	Logging struct {
		Level  string `env:"LOG_LEVEL"`
		Format string `env:"LOG_FORMAT" envDefault:"json"`
		Output string `env:"LOG_OUTPUT" envDefault:"stderr"`
	}
	Solver struct {
		// ProfilePath is a YAML profile used when a request carries none.
		ProfilePath string `env:"SOLVER_PROFILE"`
		// MaxJobs bounds the number of asynchronous jobs kept in memory.
		MaxJobs int `env:"SOLVER_MAX_JOBS" envDefault:"1024"`
		// Workers bounds the number of jobs solving at the same time.
		Workers int `env:"SOLVER_WORKERS" envDefault:"4"`
	}
}

func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	// Set default logging level based on environment
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
		if cfg.Environment == "development" {
			cfg.Logging.Level = "debug"
		}
	}

	if cfg.Solver.MaxJobs < 1 {
		return nil, fmt.Errorf("SOLVER_MAX_JOBS must be at least 1, got %d", cfg.Solver.MaxJobs)
	}

	if cfg.Solver.Workers < 1 {
		return nil, fmt.Errorf("SOLVER_WORKERS must be at least 1, got %d", cfg.Solver.Workers)
	}

	return cfg, nil
}

// LoadProfile reads a YAML profile. Keys missing from the file keep the
// values of solver.DefaultProfile. An empty path returns the default
// profile.
func LoadProfile(path string) (solver.Profile, error) {
	p := solver.DefaultProfile()
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return p, err
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("profile %s: %w", path, err)
	}
	return p, nil
}

// SaveProfile writes a profile as YAML.
func SaveProfile(path string, p solver.Profile) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// WriteProfile encodes a profile as YAML to w.
func WriteProfile(w io.Writer, p solver.Profile) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return err
	}
	return enc.Close()
}
