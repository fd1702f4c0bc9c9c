package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Known lookup source names, in their default order
const (
	SourceBuiltin = "builtin"
	SourceGlobal  = "global"
	SourcePlugins = "plugins"
)

// Config holds all configuration for the eval worker
type Config struct {
	// Worker configuration
	WorkerID string `env:"WORKER_ID" envDefault:"eval-1"`

	// Redis configuration
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASS" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Stream configuration
	StreamKey     string        `env:"STREAM_KEY" envDefault:"eval.work"`
	ConsumerGroup string        `env:"CONSUMER_GROUP" envDefault:"eval-workers"`
	ResultStream  string        `env:"RESULT_STREAM" envDefault:"eval.done"`
	BlockTime     time.Duration `env:"BLOCK_TIME" envDefault:"1s"`
	MaxRetries    int           `env:"MAX_RETRIES" envDefault:"3"`

	// Engine resolution: lookup sources are searched in this order
	EngineSources []string          `env:"ENGINE_SOURCES" envSeparator:"," envDefault:"builtin,global,plugins"`
	EngineAliases map[string]string `env:"ENGINE_ALIASES" envSeparator:"," envKeyValSeparator:":" envDefault:"expr:cel,hbs:handlebars,star:starlark,opa:rego"`

	// Evaluation limits
	EvalTimeout     time.Duration `env:"EVAL_TIMEOUT" envDefault:"10s"`
	StarlarkTimeout time.Duration `env:"STARLARK_TIMEOUT" envDefault:"5s"`

	// LLM configuration
	LLMProvider string        `env:"LLM_PROVIDER" envDefault:"anthropic"`
	LLMAPIKey   string        `env:"LLM_API_KEY"`
	LLMModel    string        `env:"LLM_MODEL" envDefault:"claude-sonnet-4-20250514"`
	LLMTimeout  time.Duration `env:"LLM_TIMEOUT" envDefault:"30s"`

	// Health check configuration
	HealthPort int `env:"HEALTH_PORT" envDefault:"8083"`

	// Logging configuration
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.normalize()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// normalize trims list entries coming from the environment
func (c *Config) normalize() {
	sources := make([]string, 0, len(c.EngineSources))
	for _, s := range c.EngineSources {
		if s = strings.TrimSpace(s); s != "" {
			sources = append(sources, s)
		}
	}
	c.EngineSources = sources

	aliases := make(map[string]string, len(c.EngineAliases))
	for alias, target := range c.EngineAliases {
		aliases[strings.TrimSpace(alias)] = strings.TrimSpace(target)
	}
	c.EngineAliases = aliases
}

// Validate validates the configuration
func (c *Config) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"WORKER_ID", c.WorkerID},
		{"REDIS_ADDR", c.RedisAddr},
		{"STREAM_KEY", c.StreamKey},
		{"CONSUMER_GROUP", c.ConsumerGroup},
		{"RESULT_STREAM", c.ResultStream},
		{"LLM_PROVIDER", c.LLMProvider},
		{"LLM_MODEL", c.LLMModel},
	}
	for _, field := range required {
		if field.value == "" {
			return fmt.Errorf("%s is required", field.name)
		}
	}

	if err := c.validateSources(); err != nil {
		return err
	}

	for alias, target := range c.EngineAliases {
		if alias == "" || target == "" {
			return fmt.Errorf("ENGINE_ALIASES entries must be alias:target")
		}
	}

	positive := []struct {
		name  string
		value time.Duration
	}{
		{"BLOCK_TIME", c.BlockTime},
		{"EVAL_TIMEOUT", c.EvalTimeout},
		{"STARLARK_TIMEOUT", c.StarlarkTimeout},
		{"LLM_TIMEOUT", c.LLMTimeout},
	}
	for _, field := range positive {
		if field.value <= 0 {
			return fmt.Errorf("%s must be positive", field.name)
		}
	}

	if c.MaxRetries < 0 {
		return fmt.Errorf("MAX_RETRIES must be non-negative")
	}

	if c.HealthPort <= 0 || c.HealthPort > 65535 {
		return fmt.Errorf("HEALTH_PORT must be between 1 and 65535")
	}

	if !isValidLogLevel(c.LogLevel) {
		return fmt.Errorf("LOG_LEVEL must be one of: debug, info, warn, error")
	}

	// LLM_API_KEY is optional; without it the llm engine is not registered
	return nil
}

func (c *Config) validateSources() error {
	if len(c.EngineSources) == 0 {
		return fmt.Errorf("ENGINE_SOURCES must name at least one source")
	}

	seen := make(map[string]bool, len(c.EngineSources))
	for _, source := range c.EngineSources {
		if !isValidSource(source) {
			return fmt.Errorf("ENGINE_SOURCES: unknown source %q (supported: builtin, global, plugins)", source)
		}
		if seen[source] {
			return fmt.Errorf("ENGINE_SOURCES: source %q listed twice", source)
		}
		seen[source] = true
	}
	return nil
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}

func isValidSource(source string) bool {
	switch source {
	case SourceBuiltin, SourceGlobal, SourcePlugins:
		return true
	}
	return false
}

// String returns a string representation of the config (without sensitive data)
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{WorkerID=%s, RedisAddr=%s, RedisDB=%d, StreamKey=%s, ConsumerGroup=%s, "+
			"EngineSources=%s, EvalTimeout=%s, LLMProvider=%s, LLMModel=%s, HealthPort=%d, LogLevel=%s}",
		c.WorkerID,
		c.RedisAddr,
		c.RedisDB,
		c.StreamKey,
		c.ConsumerGroup,
		strings.Join(c.EngineSources, ","),
		c.EvalTimeout,
		c.LLMProvider,
		c.LLMModel,
		c.HealthPort,
		c.LogLevel,
	)
}
