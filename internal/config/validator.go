package config

import (
	"fmt"
	"strconv"
)

// Validate checks the resolved configuration. A failure here is a startup
// fault: the process refuses to start rather than run degraded.
func Validate(cfg *Config) error {
	switch cfg.Provider {
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			return fmt.Errorf("SELA_ANTHROPIC_API_KEY is required for the anthropic provider")
		}
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return fmt.Errorf("SELA_OPENAI_API_KEY is required for the openai provider")
		}
	default:
		return fmt.Errorf("unsupported provider: %q", cfg.Provider)
	}

	if cfg.Model == "" {
		return fmt.Errorf("model cannot be empty")
	}
	if cfg.Temperature < 0 || cfg.Temperature > 1 {
		return fmt.Errorf("temperature must be between 0 and 1, got %v", cfg.Temperature)
	}
	if cfg.MaxTokens <= 0 {
		return fmt.Errorf("max tokens must be positive, got %d", cfg.MaxTokens)
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", cfg.Port)
	}

	if !cfg.Payment.Disabled {
		if cfg.Payment.PayTo == "" {
			return fmt.Errorf("SELA_PAYMENT_PAY_TO is required unless payments are disabled")
		}
		if cfg.Payment.Network == "" {
			return fmt.Errorf("SELA_PAYMENT_NETWORK is required unless payments are disabled")
		}
		price, err := strconv.ParseFloat(cfg.Payment.Price, 64)
		if err != nil {
			return fmt.Errorf("invalid payment price %q: %w", cfg.Payment.Price, err)
		}
		if price < 0 {
			return fmt.Errorf("payment price cannot be negative, got %q", cfg.Payment.Price)
		}
	}

	if cfg.Session.TTL < 0 {
		return fmt.Errorf("session TTL cannot be negative, got %v", cfg.Session.TTL)
	}

	return nil
}
