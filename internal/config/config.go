// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger LoggerConfig `mapstructure:"logger" yaml:"logger"`
	Parser ParserConfig `mapstructure:"parser" yaml:"parser"`
	Fetch  FetchConfig  `mapstructure:"fetch" yaml:"fetch"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// ParserConfig selects the fixed options of the tree parser.
type ParserConfig struct {
	// Mode is "html" for browser-style recovery or "strict" for fatal
	// structural errors.
	Mode string `mapstructure:"mode" yaml:"mode"`
	// TrimText trims whitespace off text nodes and drops empty ones.
	TrimText bool `mapstructure:"trim_text" yaml:"trim_text"`
	// KeepComments retains comment nodes in the tree.
	KeepComments bool `mapstructure:"keep_comments" yaml:"keep_comments"`
	// KeepPIs retains processing instructions other than the XML declaration.
	KeepPIs bool `mapstructure:"keep_pis" yaml:"keep_pis"`
	// DetectEncoding runs the post-parse encoding resolver.
	DetectEncoding bool `mapstructure:"detect_encoding" yaml:"detect_encoding"`
	// Namespaces is the global prefix->URI table consulted when no
	// in-document declaration matches.
	Namespaces map[string]string `mapstructure:"namespaces" yaml:"namespaces"`
}

// FetchConfig tunes retrieval of remote documents.
type FetchConfig struct {
	Timeout         time.Duration     `mapstructure:"timeout" yaml:"timeout"`
	IgnoreTLSErrors bool              `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	RateLimit       float64           `mapstructure:"rate_limit" yaml:"rate_limit"`
	UserAgent       string            `mapstructure:"user_agent" yaml:"user_agent"`
	Headers         map[string]string `mapstructure:"headers" yaml:"headers"`
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "lattice")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Parser --
	v.SetDefault("parser.mode", "html")
	v.SetDefault("parser.trim_text", true)
	v.SetDefault("parser.keep_comments", false)
	v.SetDefault("parser.keep_pis", false)
	v.SetDefault("parser.detect_encoding", true)

	// -- Fetch --
	v.SetDefault("fetch.timeout", "30s")
	v.SetDefault("fetch.ignore_tls_errors", false)
	v.SetDefault("fetch.rate_limit", 4.0)
	v.SetDefault("fetch.user_agent", "lattice/1.0")
}

// NewDefaultConfig creates a configuration struct populated with defaults.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// Cannot happen with defaults alone.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// NewConfigFromViper creates a configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	switch c.Parser.Mode {
	case "html", "strict":
	default:
		return fmt.Errorf("parser.mode must be \"html\" or \"strict\", got %q", c.Parser.Mode)
	}
	if c.Fetch.Timeout <= 0 {
		return fmt.Errorf("fetch.timeout must be a positive duration")
	}
	if c.Fetch.RateLimit <= 0 {
		return fmt.Errorf("fetch.rate_limit must be positive")
	}
	return nil
}
