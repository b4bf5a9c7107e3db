package providers

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
)

// ErrNotRegistered is returned when a provider type has no instance.
var ErrNotRegistered = errors.New("provider not registered")

// Registry holds the configured providers and which one answers when the
// caller does not pick.
type Registry struct {
	mu          sync.RWMutex
	providers   map[ProviderType]Provider
	defaultType ProviderType
}

func NewRegistry() *Registry {
	return &Registry{providers: make(map[ProviderType]Provider)}
}

// Register validates and stores provider. The first provider registered
// becomes the default.
func (r *Registry) Register(providerType ProviderType, provider Provider) error {
	if err := provider.ValidateConfig(); err != nil {
		return fmt.Errorf("invalid provider config for %s: %w", providerType, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[providerType] = provider
	if r.defaultType == "" {
		r.defaultType = providerType
	}
	return nil
}

func (r *Registry) RegisterAnthropic(cfg AnthropicConfig) error {
	p, err := NewAnthropicProvider(cfg)
	if err != nil {
		return err
	}
	return r.Register(ProviderTypeAnthropic, p)
}

func (r *Registry) RegisterOpenAI(cfg OpenAIConfig) error {
	p, err := NewOpenAIProvider(cfg)
	if err != nil {
		return err
	}
	return r.Register(ProviderTypeOpenAI, p)
}

func (r *Registry) RegisterGemini(ctx context.Context, cfg GeminiConfig) error {
	p, err := NewGeminiProvider(ctx, cfg)
	if err != nil {
		return err
	}
	return r.Register(ProviderTypeGemini, p)
}

func (r *Registry) Get(providerType ProviderType) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[providerType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, providerType)
	}
	return p, nil
}

func (r *Registry) Default() (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.defaultType == "" {
		return nil, errors.New("no default provider set")
	}
	return r.providers[r.defaultType], nil
}

// Resolve returns the provider named by name, or the default when name is
// empty. Names accept the aliases ParseProviderType does.
func (r *Registry) Resolve(name string) (Provider, error) {
	if name == "" {
		return r.Default()
	}
	providerType, err := ParseProviderType(name)
	if err != nil {
		return nil, err
	}
	p, err := r.Get(providerType)
	if err != nil {
		return nil, fmt.Errorf("%w (available: %v)", err, r.Available())
	}
	return p, nil
}

func (r *Registry) SetDefault(providerType ProviderType) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.providers[providerType]; !ok {
		return fmt.Errorf("%w: %s", ErrNotRegistered, providerType)
	}
	r.defaultType = providerType
	return nil
}

// Available lists registered provider types in name order.
func (r *Registry) Available() []ProviderType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.providers))
}

func (r *Registry) Has(providerType ProviderType) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.providers[providerType]
	return ok
}

// Close closes every provider and joins their errors.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for _, providerType := range slices.Sorted(maps.Keys(r.providers)) {
		if err := r.providers[providerType].Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", providerType, err))
		}
	}
	return errors.Join(errs...)
}

// RegistryBuilder collects registration errors so a registry can be
// assembled in one expression.
type RegistryBuilder struct {
	ctx      context.Context
	registry *Registry
	errs     []error
}

func NewRegistryBuilder(ctx context.Context) *RegistryBuilder {
	return &RegistryBuilder{ctx: ctx, registry: NewRegistry()}
}

func (b *RegistryBuilder) WithAnthropic(cfg AnthropicConfig) *RegistryBuilder {
	return b.add(ProviderTypeAnthropic, b.registry.RegisterAnthropic(cfg))
}

func (b *RegistryBuilder) WithOpenAI(cfg OpenAIConfig) *RegistryBuilder {
	return b.add(ProviderTypeOpenAI, b.registry.RegisterOpenAI(cfg))
}

func (b *RegistryBuilder) WithGemini(cfg GeminiConfig) *RegistryBuilder {
	return b.add(ProviderTypeGemini, b.registry.RegisterGemini(b.ctx, cfg))
}

func (b *RegistryBuilder) WithDefault(providerType ProviderType) *RegistryBuilder {
	if err := b.registry.SetDefault(providerType); err != nil {
		b.errs = append(b.errs, fmt.Errorf("default: %w", err))
	}
	return b
}

func (b *RegistryBuilder) add(providerType ProviderType, err error) *RegistryBuilder {
	if err != nil {
		b.errs = append(b.errs, fmt.Errorf("%s: %w", providerType, err))
	}
	return b
}

func (b *RegistryBuilder) Build() (*Registry, error) {
	if len(b.errs) > 0 {
		return nil, fmt.Errorf("registry build: %w", errors.Join(b.errs...))
	}
	return b.registry, nil
}
