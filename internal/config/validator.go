package config

import (
	"fmt"
	"strings"
)

// Validator validates configuration values
type Validator struct{}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateAPIKey validates an API key format
func (v *Validator) ValidateAPIKey(key string, provider string) error {
	if key == "" {
		return fmt.Errorf("%s API key cannot be empty", provider)
	}

	switch provider {
	case "anthropic":
		if !strings.HasPrefix(key, "sk-ant-") {
			return fmt.Errorf("invalid Anthropic API key format (should start with sk-ant-)")
		}
	case "openai":
		if !strings.HasPrefix(key, "sk-") {
			return fmt.Errorf("invalid OpenAI API key format (should start with sk-)")
		}
	}

	return nil
}

// ValidateProvider validates a provider name
func (v *Validator) ValidateProvider(name string) error {
	validProviders := []string{"anthropic", "openai"}
	for _, valid := range validProviders {
		if name == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid provider: %s (must be one of: %s)", name, strings.Join(validProviders, ", "))
}

// ValidateModel validates a model name
func (v *Validator) ValidateModel(model string) error {
	if model == "" {
		return fmt.Errorf("model name cannot be empty")
	}
	// Custom model names are allowed
	return nil
}

// ValidateTemperature validates temperature value
func (v *Validator) ValidateTemperature(temp float64) error {
	if temp < 0 || temp > 1 {
		return fmt.Errorf("temperature must be between 0 and 1, got %f", temp)
	}
	return nil
}

// ValidateMaxTokens validates max tokens value
func (v *Validator) ValidateMaxTokens(tokens int) error {
	if tokens <= 0 {
		return fmt.Errorf("max tokens must be positive, got %d", tokens)
	}
	if tokens > 200000 {
		return fmt.Errorf("max tokens too large (max 200000), got %d", tokens)
	}
	return nil
}

// ValidateLogLevel validates log level
func (v *Validator) ValidateLogLevel(level string) error {
	validLevels := []string{"debug", "info", "warn", "error"}
	for _, valid := range validLevels {
		if level == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid log level: %s (must be one of: %s)", level, strings.Join(validLevels, ", "))
}

// ValidateConfig performs comprehensive validation
func (v *Validator) ValidateConfig(cfg *Config) []error {
	var errors []error

	if err := v.ValidateProvider(cfg.Provider.Name); err != nil {
		errors = append(errors, err)
	}
	if cfg.Provider.APIKey != "" {
		if err := v.ValidateAPIKey(cfg.Provider.APIKey, cfg.Provider.Name); err != nil {
			errors = append(errors, err)
		}
	}

	if err := v.ValidateModel(cfg.Agent.Model); err != nil {
		errors = append(errors, err)
	}
	if err := v.ValidateTemperature(cfg.Agent.Temperature); err != nil {
		errors = append(errors, err)
	}
	if cfg.Agent.MaxTokens != 0 {
		if err := v.ValidateMaxTokens(cfg.Agent.MaxTokens); err != nil {
			errors = append(errors, err)
		}
	}
	if cfg.Agent.MaxRounds < 0 {
		errors = append(errors, fmt.Errorf("agent max_rounds must be >= 0"))
	}
	if cfg.Agent.MaxRetries < 0 {
		errors = append(errors, fmt.Errorf("agent max_retries must be >= 0"))
	}
	if cfg.Agent.HistoryLimit < 0 {
		errors = append(errors, fmt.Errorf("agent history_limit must be >= 0"))
	}

	if cfg.Booking.BucketMinutes <= 0 {
		errors = append(errors, fmt.Errorf("booking bucket_minutes must be positive"))
	}
	if cfg.Booking.AlternateStepMinutes <= 0 {
		errors = append(errors, fmt.Errorf("booking alternate_step_minutes must be positive"))
	}
	if cfg.Booking.AlternateWindowMinutes < cfg.Booking.AlternateStepMinutes {
		errors = append(errors, fmt.Errorf("booking alternate_window_minutes must be >= alternate_step_minutes"))
	}
	if cfg.Booking.MaxAlternates < 0 {
		errors = append(errors, fmt.Errorf("booking max_alternates must be >= 0"))
	}

	if cfg.Catalog.PerCuisine <= 0 {
		errors = append(errors, fmt.Errorf("catalog per_cuisine must be positive"))
	}

	if err := v.ValidateLogLevel(cfg.Logging.Level); err != nil {
		errors = append(errors, err)
	}

	return errors
}
