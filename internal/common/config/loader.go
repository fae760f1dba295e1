// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DefaultFrameworkDir    = "NEW-SYSTEM"
	DefaultExtension       = ".json"
	DefaultModel           = "claude-3-opus-20240229"
	DefaultMaxTokens       = 4000
	DefaultTemperature     = 0.7
	DefaultAnthropicURL    = "https://api.anthropic.com"
	DefaultAnthropicAPIVer = "2023-06-01"
	DefaultSystemPrompt    = "You are a professional product reviewer using the Amazon Review Framework. Generate authentic, helpful reviews based on user experiences."
)

// DefaultComponents are the canonical framework files used when a request names none.
var DefaultComponents = []string{
	"framework-config.json",
	"review-strategy.json",
	"content-structure.json",
}

func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	// Enable ENV override like ANTHROPIC_MODEL or SERVER_PORT
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	bindKeys(v)

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // optional

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	bindKeys(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// bindKeys registers every known key so AutomaticEnv is honoured by Unmarshal
// even when no config file mentions the key.
func bindKeys(v *viper.Viper) {
	keys := []string{
		"app.name", "app.version", "app.environment",
		"server.host", "server.port", "server.read_timeout", "server.write_timeout",
		"server.shutdown_timeout", "server.static_dir",
		"framework.directory", "framework.extension", "framework.default_components",
		"anthropic.api_key", "anthropic.base_url", "anthropic.api_version", "anthropic.model",
		"anthropic.max_tokens", "anthropic.temperature", "anthropic.system_prompt",
		"anthropic.timeout", "anthropic.max_retries", "anthropic.rate_limit",
		"redis.address", "redis.password", "redis.db", "redis.history_size", "redis.history_ttl",
		"logging.level", "logging.format", "logging.output",
		"tracing.jaeger_endpoint", "tracing.sample_ratio",
		"metrics.enabled", "metrics.path",
	}
	for _, k := range keys {
		_ = v.BindEnv(k)
	}
	v.SetDefault("metrics.enabled", true)
}

// loadEnvFile looks for a .env file in the usual places (for running from different directories)
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal {
				v.Set(key, expanded)
			}
		}
	}
}

// Direct override if config values are still empty after expansion
func overrideEmptyConfig(cfg *Config) {
	// ANTHROPIC_API_KEY fills an empty anthropic.api_key.
	if cfg.Anthropic.APIKey == "" {
		if val := os.Getenv("ANTHROPIC_API_KEY"); val != "" {
			cfg.Anthropic.APIKey = val
		}
	}

	if val := os.Getenv("FRAMEWORK_DIR"); val != "" {
		cfg.Framework.Directory = val
	}

	if cfg.Redis.Address == "" {
		if val := os.Getenv("REDIS_ADDRESS"); val != "" {
			cfg.Redis.Address = val
		}
	}

	// PORT is what most PaaS runtimes inject
	if val := os.Getenv("PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			cfg.Server.Port = port
		}
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "review-framework-api"
	}
	if cfg.App.Version == "" {
		cfg.App.Version = "2.0.0"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}

	// Server defaults
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 7860
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 30000
	}
	if cfg.Server.StaticDir == "" {
		cfg.Server.StaticDir = "static"
	}

	// Framework defaults
	if cfg.Framework.Directory == "" {
		cfg.Framework.Directory = DefaultFrameworkDir
	}
	if cfg.Framework.Extension == "" {
		cfg.Framework.Extension = DefaultExtension
	}
	if len(cfg.Framework.DefaultComponents) == 0 {
		cfg.Framework.DefaultComponents = append([]string(nil), DefaultComponents...)
	}

	// Anthropic defaults
	if cfg.Anthropic.BaseURL == "" {
		cfg.Anthropic.BaseURL = DefaultAnthropicURL
	}
	if cfg.Anthropic.APIVersion == "" {
		cfg.Anthropic.APIVersion = DefaultAnthropicAPIVer
	}
	if cfg.Anthropic.Model == "" {
		cfg.Anthropic.Model = DefaultModel
	}
	if cfg.Anthropic.MaxTokens == 0 {
		cfg.Anthropic.MaxTokens = DefaultMaxTokens
	}
	if cfg.Anthropic.Temperature == 0 {
		cfg.Anthropic.Temperature = DefaultTemperature
	}
	if cfg.Anthropic.SystemPrompt == "" {
		cfg.Anthropic.SystemPrompt = DefaultSystemPrompt
	}

	// Redis defaults
	if cfg.Redis.HistorySize == 0 {
		cfg.Redis.HistorySize = 100
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	if cfg.Tracing.SampleRatio == 0 {
		cfg.Tracing.SampleRatio = 1.0
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", cfg.Server.Port)
	}
	if !strings.HasPrefix(cfg.Framework.Extension, ".") {
		return fmt.Errorf("framework.extension must start with a dot, got %q", cfg.Framework.Extension)
	}
	if cfg.Anthropic.MaxTokens < 0 {
		return fmt.Errorf("anthropic.max_tokens must not be negative")
	}
	if cfg.Anthropic.Temperature < 0 || cfg.Anthropic.Temperature > 1 {
		return fmt.Errorf("anthropic.temperature must be between 0 and 1, got %v", cfg.Anthropic.Temperature)
	}
	if cfg.Anthropic.MaxRetries < 0 {
		return fmt.Errorf("anthropic.max_retries must not be negative")
	}
	if cfg.Redis.HistorySize < 0 {
		return fmt.Errorf("redis.history_size must not be negative")
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
		return fmt.Errorf("tracing.sample_ratio must be between 0 and 1")
	}
	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
