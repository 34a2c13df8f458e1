package config

import (
	"github.com/spf13/viper"
)

// envPrefix namespaces every configuration variable: SELA_MODEL,
// SELA_PAYMENT_PRICE, and so on.
const envPrefix = "SELA"

// Load resolves configuration from the environment on top of defaults.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	defaults := Default()
	v.SetDefault("provider", defaults.Provider)
	v.SetDefault("model", defaults.Model)
	v.SetDefault("temperature", defaults.Temperature)
	v.SetDefault("max_tokens", defaults.MaxTokens)
	v.SetDefault("host", defaults.Host)
	v.SetDefault("port", defaults.Port)
	v.SetDefault("payment_disabled", defaults.Payment.Disabled)
	v.SetDefault("payment_price", defaults.Payment.Price)
	v.SetDefault("payment_network", defaults.Payment.Network)
	v.SetDefault("session_ttl", "0")
	v.SetDefault("session_sweep_schedule", "")
	v.SetDefault("log_level", defaults.Logging.Level)
	v.SetDefault("log_pretty", false)

	cfg := &Config{
		Provider:        v.GetString("provider"),
		Model:           v.GetString("model"),
		Temperature:     v.GetFloat64("temperature"),
		MaxTokens:       v.GetInt("max_tokens"),
		AnthropicAPIKey: v.GetString("anthropic_api_key"),
		OpenAIAPIKey:    v.GetString("openai_api_key"),
		Host:            v.GetString("host"),
		Port:            v.GetInt("port"),
		Payment: PaymentConfig{
			Disabled: v.GetBool("payment_disabled"),
			Price:    v.GetString("payment_price"),
			PayTo:    v.GetString("payment_pay_to"),
			Network:  v.GetString("payment_network"),
			Asset:    v.GetString("payment_asset"),
		},
		Session: SessionConfig{
			TTL:           v.GetDuration("session_ttl"),
			SweepSchedule: v.GetString("session_sweep_schedule"),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("log_level"),
			Pretty: v.GetBool("log_pretty"),
		},
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
