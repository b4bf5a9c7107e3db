package providers

import (
	"fmt"
	"strings"
	"time"
)

// BaseConfig contains configuration common to all providers
type BaseConfig struct {
	// APIKey is the authentication key for the provider
	APIKey string `json:"api_key" yaml:"api_key"`

	// Model is the default model to use
	Model string `json:"model" yaml:"model"`

	// MaxTokens is the default maximum tokens to generate
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`

	// Temperature is the default sampling temperature
	Temperature float64 `json:"temperature" yaml:"temperature"`

	// Timeout for API requests
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// MaxRetries for transient failures
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// BaseURL overrides the default API endpoint
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	SystemPrompt string `json:"system_prompt,omitempty" yaml:"system_prompt,omitempty"`
}

// DefaultSystemPrompt frames every generation request.
const DefaultSystemPrompt = "You are a senior engineer who writes thorough, idiomatic unit tests. " +
	"Reply with test code only."

// DefaultBaseConfig returns sensible defaults
func DefaultBaseConfig() BaseConfig {
	return BaseConfig{
		MaxTokens:    4096,
		Temperature:  0.2,
		Timeout:      2 * time.Minute,
		MaxRetries:   2,
		SystemPrompt: DefaultSystemPrompt,
	}
}

// Validate checks the base configuration
func (c *BaseConfig) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("api_key is required")
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("max_tokens must be positive")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative")
	}
	return nil
}

// AnthropicConfig contains Anthropic-specific configuration
type AnthropicConfig struct {
	BaseConfig `json:",inline" yaml:",inline"`
}

func DefaultAnthropicConfig() AnthropicConfig {
	base := DefaultBaseConfig()
	base.Model = "claude-sonnet-4-5"
	base.MaxTokens = 8192
	return AnthropicConfig{BaseConfig: base}
}

func (c *AnthropicConfig) Validate() error {
	if err := c.BaseConfig.Validate(); err != nil {
		return fmt.Errorf("anthropic config: %w", err)
	}
	return nil
}

// OpenAIConfig contains OpenAI-specific configuration
type OpenAIConfig struct {
	BaseConfig `json:",inline" yaml:",inline"`

	// Organization ID for OpenAI
	Organization string `json:"organization,omitempty" yaml:"organization,omitempty"`

	// Project ID for OpenAI
	Project string `json:"project,omitempty" yaml:"project,omitempty"`

	ReasoningEffort string `json:"reasoning_effort,omitempty" yaml:"reasoning_effort,omitempty"`
}

func DefaultOpenAIConfig() OpenAIConfig {
	base := DefaultBaseConfig()
	base.Model = "gpt-4.1"
	base.MaxTokens = 8192
	return OpenAIConfig{BaseConfig: base}
}

func (c *OpenAIConfig) Validate() error {
	if err := c.BaseConfig.Validate(); err != nil {
		return fmt.Errorf("openai config: %w", err)
	}
	switch c.ReasoningEffort {
	case "", "low", "medium", "high":
	default:
		return fmt.Errorf("openai config: reasoning_effort must be low, medium, or high")
	}
	return nil
}

// GeminiConfig contains Gemini API configuration
type GeminiConfig struct {
	BaseConfig `json:",inline" yaml:",inline"`

	// TopK for sampling (1-40)
	TopK *int `json:"top_k,omitempty" yaml:"top_k,omitempty"`
}

func DefaultGeminiConfig() GeminiConfig {
	base := DefaultBaseConfig()
	base.Model = "gemini-2.5-flash"
	base.MaxTokens = 8192
	return GeminiConfig{BaseConfig: base}
}

func (c *GeminiConfig) Validate() error {
	if err := c.BaseConfig.Validate(); err != nil {
		return fmt.Errorf("gemini config: %w", err)
	}
	if c.TopK != nil && (*c.TopK < 1 || *c.TopK > 40) {
		return fmt.Errorf("gemini config: top_k must be between 1 and 40")
	}
	return nil
}

// ProviderType identifies the provider
type ProviderType string

const (
	ProviderTypeAnthropic ProviderType = "anthropic"
	ProviderTypeOpenAI    ProviderType = "openai"
	ProviderTypeGemini    ProviderType = "gemini"
)

// ParseProviderType accepts a provider name, case-insensitively. "claude"
// and "google" are accepted as aliases.
func ParseProviderType(name string) (ProviderType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "anthropic", "claude":
		return ProviderTypeAnthropic, nil
	case "openai":
		return ProviderTypeOpenAI, nil
	case "gemini", "google":
		return ProviderTypeGemini, nil
	}
	return "", fmt.Errorf("unknown provider %q", name)
}
