package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by Load, e.g. ROLLCALL_ANALYSIS_THRESHOLD.
const EnvPrefix = "ROLLCALL"

// Config represents the complete application configuration
type Config struct {
	Analysis AnalysisConfig `yaml:"analysis" envconfig:"ANALYSIS"`
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Redis    RedisConfig    `yaml:"redis" envconfig:"REDIS"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
}

// AnalysisConfig holds the knobs of a roster analysis
type AnalysisConfig struct {
	Threshold   float64 `yaml:"threshold" envconfig:"THRESHOLD" validate:"gte=0,lte=100"`
	TopN        int     `yaml:"top_n" envconfig:"TOP_N" validate:"gte=0"`
	MaxAbsences int     `yaml:"max_absences" envconfig:"MAX_ABSENCES" validate:"gte=0"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port           int    `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	Mode           string `yaml:"mode" envconfig:"MODE" validate:"oneof=debug release test"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES" validate:"gt=0"`
}

// RedisConfig controls the optional report store
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled" envconfig:"ENABLED"`
	Addr     string `yaml:"addr" envconfig:"ADDR" validate:"required_if=Enabled true"`
	Password string `yaml:"password" envconfig:"PASSWORD"`
	DB       int    `yaml:"db" envconfig:"DB" validate:"gte=0"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
}

// Default returns the configuration used when nothing else is set
func Default() Config {
	return Config{
		Analysis: AnalysisConfig{
			Threshold:   75,
			TopN:        3,
			MaxAbsences: 3,
		},
		Server: ServerConfig{
			Port:           8080,
			Mode:           "release",
			MaxUploadBytes: 10 << 20,
		},
		Redis: RedisConfig{
			Addr: "127.0.0.1:6379",
			DB:   8,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (skipped when
// path is empty), then environment variables. The result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadFromFile overlays the YAML file onto cfg
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks field ranges. Call it again after applying flag overrides.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}
