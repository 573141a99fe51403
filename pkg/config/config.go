// Package config loads and validates the benchmark driver configuration
// from a YAML file, with CLI flags layered on top by the command.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// Config is the full configuration surface of the aging driver.
type Config struct {
	// Library selects the registered system under test.
	Library string `yaml:"library" validate:"required"`
	// LogPath points at the update log to replay.
	LogPath string `yaml:"log_path" validate:"required"`
	// Directed selects the edge orientation the library is created with.
	Directed bool `yaml:"directed"`

	// NumThreads is the worker parallelism.
	NumThreads int `yaml:"num_threads" validate:"min=1"`
	// WorkerGranularity is the number of operations a worker performs
	// between progress polls.
	WorkerGranularity int `yaml:"worker_granularity" validate:"min=1"`
	// MaxWeight is the weight cap the log was generated with.
	MaxWeight float64 `yaml:"max_weight" validate:"gt=0"`
	// BuildFrequencyMS is the cadence of the background build service in
	// milliseconds; zero disables it.
	BuildFrequencyMS int64 `yaml:"build_frequency_ms" validate:"min=0"`
	// ReportProgress prints progress lines to stdout.
	ReportProgress bool `yaml:"report_progress"`
	// NumReportsPerOps is the progress granularity multiplier.
	NumReportsPerOps uint64 `yaml:"num_reports_per_ops" validate:"min=1"`
	// MeasureLatency enables per-operation latency recording.
	MeasureLatency bool `yaml:"measure_latency"`

	// ResultsPath is the optional SQLite database runs are appended to.
	ResultsPath string `yaml:"results_path"`
	// MetricsAddr optionally serves Prometheus metrics during the run,
	// e.g. ":9090".
	MetricsAddr string `yaml:"metrics_addr"`
}

// Default returns a configuration with the driver defaults filled in.
// Library and LogPath must still be provided.
func Default() Config {
	return Config{
		NumThreads:        1,
		WorkerGranularity: 1024,
		MaxWeight:         1.0,
		NumReportsPerOps:  1,
	}
}

// Load reads a YAML configuration file on top of the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// BuildFrequency returns the build cadence as a duration.
func (c *Config) BuildFrequency() time.Duration {
	return time.Duration(c.BuildFrequencyMS) * time.Millisecond
}

// Validate checks the configuration against its constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			first := verrs[0]
			return fmt.Errorf("config: field %s fails %q constraint", first.Field(), first.Tag())
		}
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
