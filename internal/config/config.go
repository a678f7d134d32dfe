package config

import (
	"os"
	"strconv"

	"renovate/internal/errors"
	"renovate/internal/logging"

	"github.com/go-playground/validator/v10"
)

// Config represents the complete application configuration
type Config struct {
	Server  ServerConfig
	Logging LoggingConfig
	Data    DataConfig
	Model   ModelConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port        string `validate:"required,numeric"`
	MaxUploadMB int64  `validate:"gt=0"`
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level  string `validate:"oneof=ERROR WARN INFO DEBUG TRACE error warn info debug trace"`
	Format string `validate:"oneof=console json"`
}

// DataConfig holds the dataset schema contract
type DataConfig struct {
	IDColumn     string `validate:"required"`
	TargetColumn string `validate:"required,nefield=IDColumn"`
}

// ModelConfig holds split and boosting settings
type ModelConfig struct {
	Seed         int64
	Rounds       int     `validate:"gt=0"`
	LearningRate float64 `validate:"gt=0,lte=1"`
	MaxDepth     int     `validate:"gt=0"`
	TestRatio    float64 `validate:"gt=0,lt=1"`
	TopFeatures  int     `validate:"gt=0"`
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server:  *loadServerConfig(),
		Logging: *loadLoggingConfig(),
		Data:    *loadDataConfig(),
		Model:   *loadModelConfig(),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

// MaxUploadBytes returns the upload limit in bytes
func (c *Config) MaxUploadBytes() int64 {
	return c.Server.MaxUploadMB * 1024 * 1024
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:        getEnvOrDefault("PORT", "8080"),
		MaxUploadMB: int64(getEnvIntOrDefault("MAX_UPLOAD_MB", 50)),
	}
}

func loadLoggingConfig() *LoggingConfig {
	return &LoggingConfig{
		Level:  getEnvOrDefault("LOG_LEVEL", "info"),
		Format: getEnvOrDefault("LOG_FORMAT", "console"),
	}
}

func loadDataConfig() *DataConfig {
	return &DataConfig{
		IDColumn:     getEnvOrDefault("ID_COLUMN", "id"),
		TargetColumn: getEnvOrDefault("TARGET_COLUMN", "building_renovation_percent"),
	}
}

func loadModelConfig() *ModelConfig {
	return &ModelConfig{
		Seed:         int64(getEnvIntOrDefault("MODEL_SEED", 42)),
		Rounds:       getEnvIntOrDefault("MODEL_ROUNDS", 100),
		LearningRate: getEnvFloatOrDefault("MODEL_LEARNING_RATE", 0.3),
		MaxDepth:     getEnvIntOrDefault("MODEL_MAX_DEPTH", 6),
		TestRatio:    getEnvFloatOrDefault("TEST_RATIO", 0.2),
		TopFeatures:  getEnvIntOrDefault("TOP_FEATURES", 3),
	}
}

var validate = validator.New()

func validateConfig(config *Config) error {
	if err := validate.Struct(config); err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, err)
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		intValue, err := strconv.Atoi(value)
		if err == nil {
			return intValue
		}
		logging.Warn().Str("key", key).Str("value", value).Int("default", defaultValue).
			Msg("ignoring malformed integer setting")
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		floatValue, err := strconv.ParseFloat(value, 64)
		if err == nil {
			return floatValue
		}
		logging.Warn().Str("key", key).Str("value", value).Float64("default", defaultValue).
			Msg("ignoring malformed number setting")
	}
	return defaultValue
}
