// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Framework FrameworkConfig `mapstructure:"framework"`
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	ReadTimeout     int    `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int    `mapstructure:"write_timeout"`    // milliseconds, 0 disables
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
	StaticDir       string `mapstructure:"static_dir"`
}

// Address returns the listen address for the HTTP server
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// FrameworkConfig describes where the review framework JSON documents live.
type FrameworkConfig struct {
	Directory         string   `mapstructure:"directory"`
	Extension         string   `mapstructure:"extension"`
	DefaultComponents []string `mapstructure:"default_components"`
}

// AnthropicConfig holds the Messages API settings used by the review generator.
// An empty APIKey disables generation; it is not a startup error.
type AnthropicConfig struct {
	APIKey       string  `mapstructure:"api_key"`
	BaseURL      string  `mapstructure:"base_url"`
	APIVersion   string  `mapstructure:"api_version"`
	Model        string  `mapstructure:"model"`
	MaxTokens    int     `mapstructure:"max_tokens"`
	Temperature  float64 `mapstructure:"temperature"`
	SystemPrompt string  `mapstructure:"system_prompt"`
	Timeout      int     `mapstructure:"timeout"`     // milliseconds, 0 = http client default
	MaxRetries   int     `mapstructure:"max_retries"` // 0 = single attempt
	RateLimit    float64 `mapstructure:"rate_limit"`  // requests per second, 0 = unlimited
}

// RedisConfig configures the optional review history. An empty Address disables it.
type RedisConfig struct {
	Address     string `mapstructure:"address"`
	Password    string `mapstructure:"password"`
	DB          int    `mapstructure:"db"`
	HistorySize int    `mapstructure:"history_size"`
	HistoryTTL  int    `mapstructure:"history_ttl"` // seconds, 0 = no expiry
}

// Enabled reports whether review history should be recorded.
func (r RedisConfig) Enabled() bool {
	return r.Address != ""
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// TracingConfig enables span export to a Jaeger collector when an endpoint is set.
type TracingConfig struct {
	JaegerEndpoint string  `mapstructure:"jaeger_endpoint"`
	SampleRatio    float64 `mapstructure:"sample_ratio"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}
