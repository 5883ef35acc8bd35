// Package config loads tool configuration from file, environment, and
// defaults. Flags still win at the command layer.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/tokensift/tokensift/pkg/rule"
)

// Config is the full tool configuration.
type Config struct {
	RulesDir        string        `yaml:"rules_dir" mapstructure:"rules_dir"`
	MaxRulesPerFile int           `yaml:"max_rules_per_file" mapstructure:"max_rules_per_file"`
	MatchTimeout    time.Duration `yaml:"match_timeout" mapstructure:"match_timeout"`
	Server          ServerConfig  `yaml:"server" mapstructure:"server"`
	Logging         LoggingConfig `yaml:"logging" mapstructure:"logging"`
}

// ServerConfig configures the HTTP scan API.
type ServerConfig struct {
	Addr         string          `yaml:"addr" mapstructure:"addr"`
	ReadTimeout  time.Duration   `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration   `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout  time.Duration   `yaml:"idle_timeout" mapstructure:"idle_timeout"`
	WatchRules   bool            `yaml:"watch_rules" mapstructure:"watch_rules"`
	RateLimit    RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// RateLimitConfig configures per-client request limiting.
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" mapstructure:"enabled"`
	RPS     float64 `yaml:"rps" mapstructure:"rps"`
	Burst   int     `yaml:"burst" mapstructure:"burst"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // json or console
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		RulesDir:        rule.DefaultRulesDir,
		MaxRulesPerFile: rule.DefaultMaxRulesPerFile,
		MatchTimeout:    rule.DefaultMatchTimeout,
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled: false,
				RPS:     50,
				Burst:   100,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads configuration from an optional file and TOKENSIFT_* environment
// variables layered over the defaults. Finding no file on the search path is
// fine; a file named explicitly must exist, and any file found must parse
// and validate.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("tokensift")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/tokensift/")
	v.AddConfigPath("$HOME/.tokensift/")

	v.SetEnvPrefix("TOKENSIFT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	defaults := Defaults()
	v.SetDefault("rules_dir", defaults.RulesDir)
	v.SetDefault("max_rules_per_file", defaults.MaxRulesPerFile)
	v.SetDefault("match_timeout", defaults.MatchTimeout)
	v.SetDefault("server.addr", defaults.Server.Addr)
	v.SetDefault("server.read_timeout", defaults.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", defaults.Server.WriteTimeout)
	v.SetDefault("server.idle_timeout", defaults.Server.IdleTimeout)
	v.SetDefault("server.watch_rules", defaults.Server.WatchRules)
	v.SetDefault("server.rate_limit.enabled", defaults.Server.RateLimit.Enabled)
	v.SetDefault("server.rate_limit.rps", defaults.Server.RateLimit.RPS)
	v.SetDefault("server.rate_limit.burst", defaults.Server.RateLimit.Burst)
	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.format", defaults.Logging.Format)

	if configPath != "" {
		v.SetConfigFile(configPath)
	}

	if err := v.ReadInConfig(); err != nil {
		// No config file anywhere is fine; defaults and env still apply.
		// An unreadable or malformed file is an error.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := Validate(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

// Validate rejects configurations no mode could run with.
func Validate(config *Config) error {
	if config.RulesDir == "" {
		return fmt.Errorf("rules_dir must not be empty")
	}
	if config.MaxRulesPerFile <= 0 {
		return fmt.Errorf("max_rules_per_file must be positive, got %d", config.MaxRulesPerFile)
	}
	if config.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	if config.Server.RateLimit.Enabled {
		if config.Server.RateLimit.RPS <= 0 {
			return fmt.Errorf("server.rate_limit.rps must be positive, got %v", config.Server.RateLimit.RPS)
		}
		if config.Server.RateLimit.Burst <= 0 {
			return fmt.Errorf("server.rate_limit.burst must be positive, got %d", config.Server.RateLimit.Burst)
		}
	}
	switch config.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q (must be debug, info, warn, or error)", config.Logging.Level)
	}
	switch config.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid log format %q (must be json or console)", config.Logging.Format)
	}
	return nil
}
