package config

import (
	"encoding/json"
	"fmt"
)

// Config represents the main GoodFoods configuration
type Config struct {
	// Gateway server configuration
	Gateway GatewayConfig `json:"gateway" mapstructure:"gateway"`

	// Provider holds the AI provider settings for the booking agent
	Provider ProviderConfig `json:"provider" mapstructure:"provider"`

	// Agent tunes the tool-calling loop
	Agent AgentConfig `json:"agent" mapstructure:"agent"`

	// Catalog controls the seeded restaurant dataset
	Catalog CatalogConfig `json:"catalog" mapstructure:"catalog"`

	// Booking controls the reservation engine
	Booking BookingConfig `json:"booking" mapstructure:"booking"`

	// Logging
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`

	// Data directory
	DataDir string `json:"data_dir" mapstructure:"data_dir"`
}

// GatewayConfig holds gateway server configuration
type GatewayConfig struct {
	Port int    `json:"port" mapstructure:"port"`
	Host string `json:"host" mapstructure:"host"`
}

// ProviderConfig holds AI provider configuration
type ProviderConfig struct {
	Name   string `json:"name" mapstructure:"name"` // anthropic, openai
	APIKey string `json:"api_key" mapstructure:"api_key"`
}

// AgentConfig tunes the conversational agent loop
type AgentConfig struct {
	Model        string  `json:"model" mapstructure:"model"`
	Temperature  float64 `json:"temperature" mapstructure:"temperature"`
	MaxTokens    int     `json:"max_tokens" mapstructure:"max_tokens"`
	MaxRounds    int     `json:"max_rounds" mapstructure:"max_rounds"`
	MaxRetries   int     `json:"max_retries" mapstructure:"max_retries"`
	HistoryLimit int     `json:"history_limit" mapstructure:"history_limit"`
	SystemPrompt string  `json:"system_prompt" mapstructure:"system_prompt"`
}

// CatalogConfig controls the generated restaurant catalog
type CatalogConfig struct {
	PerCuisine int   `json:"per_cuisine" mapstructure:"per_cuisine"`
	Seed       int64 `json:"seed" mapstructure:"seed"`
}

// BookingConfig tunes the reservation engine
type BookingConfig struct {
	BucketMinutes          int `json:"bucket_minutes" mapstructure:"bucket_minutes"`
	AlternateStepMinutes   int `json:"alternate_step_minutes" mapstructure:"alternate_step_minutes"`
	AlternateWindowMinutes int `json:"alternate_window_minutes" mapstructure:"alternate_window_minutes"`
	MaxAlternates          int `json:"max_alternates" mapstructure:"max_alternates"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `json:"level" mapstructure:"level"`
	File    string `json:"file" mapstructure:"file"`
	Console bool   `json:"console" mapstructure:"console"`
	Pretty  bool   `json:"pretty" mapstructure:"pretty"`
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	return &Config{
		Gateway: GatewayConfig{
			Port: 8080,
			Host: "0.0.0.0",
		},
		Provider: ProviderConfig{
			Name: "anthropic",
		},
		Agent: AgentConfig{
			Model:        "claude-3-5-sonnet-20241022",
			Temperature:  0.7,
			MaxTokens:    4096,
			MaxRounds:    5,
			MaxRetries:   3,
			HistoryLimit: 20,
		},
		Catalog: CatalogConfig{
			PerCuisine: 8,
			Seed:       1,
		},
		Booking: BookingConfig{
			BucketMinutes:          90,
			AlternateStepMinutes:   30,
			AlternateWindowMinutes: 90,
			MaxAlternates:          3,
		},
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
			Pretty:  true,
		},
		DataDir: "",
	}
}

// String returns a JSON representation of the config
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Provider.Name != "anthropic" && c.Provider.Name != "openai" {
		return fmt.Errorf("invalid provider %q (must be: anthropic, openai)", c.Provider.Name)
	}
	if c.Provider.APIKey == "" {
		return fmt.Errorf("no AI credentials configured: provider api_key is required")
	}
	if c.Agent.Model == "" {
		return fmt.Errorf("agent model is required")
	}
	if c.Gateway.Port <= 0 || c.Gateway.Port > 65535 {
		return fmt.Errorf("invalid gateway port %d", c.Gateway.Port)
	}
	if c.Catalog.PerCuisine <= 0 {
		return fmt.Errorf("catalog per_cuisine must be positive, got %d", c.Catalog.PerCuisine)
	}
	if c.Booking.BucketMinutes <= 0 {
		return fmt.Errorf("booking bucket_minutes must be positive, got %d", c.Booking.BucketMinutes)
	}
	return nil
}
