package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Config holds the configuration for the logger.
type Config struct {
	// Level is the minimum level written: debug, info, warn, error or fatal.
	Level string `yaml:"level"`
	// Format is json or console.
	Format string `yaml:"format"`
	// Output is stdout, stderr or a file path.
	Output string `yaml:"output"`
}

// DefaultConfig returns the default logging configuration.
func DefaultConfig() *Config {
	return &Config{
		Level:  "info",
		Format: "json",
		Output: "stderr",
	}
}

// NewLogger builds a Logger from cfg. A nil cfg uses DefaultConfig.
func NewLogger(cfg *Config) (*Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	level, encoding, err := cfg.resolve()
	if err != nil {
		return nil, err
	}

	output := cfg.Output
	if output == "" {
		output = "stderr"
	}
	sink, _, err := zap.Open(output)
	if err != nil {
		return nil, fmt.Errorf("failed to open log output %s: %w", output, err)
	}

	return newLogger(level, sink, encoding), nil
}

// resolve maps the configured level and format names onto the logger's.
// Unknown levels fall back to info; unknown formats are an error.
func (c *Config) resolve() (LogLevel, string, error) {
	level := InfoLevel
	switch strings.ToLower(strings.TrimSpace(c.Level)) {
	case "debug":
		level = DebugLevel
	case "warn", "warning":
		level = WarnLevel
	case "error":
		level = ErrorLevel
	case "fatal":
		level = FatalLevel
	}

	switch strings.ToLower(strings.TrimSpace(c.Format)) {
	case "", "json":
		return level, "json", nil
	case "console", "text":
		return level, "console", nil
	}
	return "", "", fmt.Errorf("unsupported log format %q", c.Format)
}
