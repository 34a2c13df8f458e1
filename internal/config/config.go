// Package config resolves environment-driven configuration once at process
// startup. The rest of the program receives plain values and never reads
// configuration sources directly.
package config

import "time"

// Config is the resolved process configuration.
type Config struct {
	// Provider selects the agent runtime backend: anthropic or openai.
	Provider string

	// Model is the provider-specific model identifier.
	Model string

	// Temperature is the sampling temperature, 0 to 1.
	Temperature float64

	// MaxTokens caps a single model response.
	MaxTokens int

	// AnthropicAPIKey authenticates the anthropic provider.
	AnthropicAPIKey string

	// OpenAIAPIKey authenticates the openai provider.
	OpenAIAPIKey string

	// Host and Port bind the HTTP server.
	Host string
	Port int

	Payment PaymentConfig
	Session SessionConfig
	Logging LoggingConfig
}

// PaymentConfig configures the payment gate.
type PaymentConfig struct {
	// Disabled turns the gate off entirely.
	Disabled bool

	// Price is the per-turn amount in the asset's units.
	Price string

	// PayTo is the receiving address.
	PayTo string

	// Network is the payment network identifier.
	Network string

	// Asset is the asset contract address, optional.
	Asset string
}

// SessionConfig configures the optional idle-session eviction.
type SessionConfig struct {
	// TTL is how long a session may stay idle before eviction. Zero
	// disables eviction; sessions then live for the process lifetime.
	TTL time.Duration

	// SweepSchedule is a cron expression for the eviction sweep.
	SweepSchedule string
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Level  string
	Pretty bool
}

// Default returns the configuration used when no environment overrides
// are present.
func Default() *Config {
	return &Config{
		Provider:    "anthropic",
		Model:       "claude-3-5-sonnet-20241022",
		Temperature: 0.7,
		MaxTokens:   1024,
		Host:        "0.0.0.0",
		Port:        3001,
		Payment: PaymentConfig{
			Price:   "10000",
			Network: "base-sepolia",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
