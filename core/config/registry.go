package config

import (
	"context"
	"errors"
	"fmt"

	"github.com/adalundhe/flowprompt/core/providers"
)

// ErrNoProviders is returned when no provider has an API key.
var ErrNoProviders = errors.New("no LLM provider configured: set an api_key or ANTHROPIC_API_KEY, OPENAI_API_KEY or GEMINI_API_KEY")

// Registry builds a provider registry from every provider that has an API
// key. The configured default is selected when registered; otherwise the
// registry keeps its first provider.
func (c ProvidersConfig) Registry(ctx context.Context) (*providers.Registry, error) {
	registry := providers.NewRegistry()

	if c.Anthropic.APIKey != "" {
		if err := registry.RegisterAnthropic(c.Anthropic); err != nil {
			return nil, err
		}
	}
	if c.OpenAI.APIKey != "" {
		if err := registry.RegisterOpenAI(c.OpenAI); err != nil {
			return nil, err
		}
	}
	if c.Gemini.APIKey != "" {
		if err := registry.RegisterGemini(ctx, c.Gemini); err != nil {
			return nil, err
		}
	}

	if len(registry.Available()) == 0 {
		return nil, ErrNoProviders
	}

	preferred, err := providers.ParseProviderType(c.Default)
	if err != nil {
		return nil, fmt.Errorf("providers.default: %w", err)
	}
	if registry.Has(preferred) {
		if err := registry.SetDefault(preferred); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
