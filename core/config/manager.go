package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/adalundhe/flowprompt/core/providers"
	"github.com/adalundhe/flowprompt/core/storage"
	"github.com/adalundhe/flowprompt/core/watcher"
)

type Manager struct {
	config    atomic.Pointer[Config]
	dirs      *storage.Dirs
	workDir   string
	explicit  string
	override  *Config
	sources   []string
	watchers  []func(*Config)
	watcherMu sync.RWMutex
	loadMu    sync.Mutex
	stopWatch chan struct{}
	watchOnce sync.Once
}

type Config struct {
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Prompt    PromptConfig    `yaml:"prompt"`
	Providers ProvidersConfig `yaml:"providers"`
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type AnalysisConfig struct {
	DefaultLanguage  string        `yaml:"default_language"`
	CacheSize        int           `yaml:"cache_size"`
	JavaMatchTimeout time.Duration `yaml:"java_match_timeout"`
}

type PromptConfig struct {
	// Frameworks maps a language to its default test framework.
	Frameworks map[string]string `yaml:"frameworks"`

	// MaxTests caps the estimated test count per language.
	MaxTests map[string]int `yaml:"max_tests"`
}

type ProvidersConfig struct {
	Default   string                    `yaml:"default"`
	Anthropic providers.AnthropicConfig `yaml:"anthropic"`
	OpenAI    providers.OpenAIConfig    `yaml:"openai"`
	Gemini    providers.GeminiConfig    `yaml:"gemini"`
}

type ServerConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`

	// File receives logs instead of stderr. Relative names resolve under
	// the state log directory.
	File string `yaml:"file"`
}

// NewManager returns a manager holding the defaults. workDir is where the
// project config is looked up; empty means the process working directory.
func NewManager(dirs *storage.Dirs, workDir string) *Manager {
	if dirs == nil {
		dirs = storage.ResolveDirs()
	}
	if workDir == "" {
		workDir = "."
	}
	m := &Manager{
		dirs:      dirs,
		workDir:   workDir,
		stopWatch: make(chan struct{}),
	}
	m.config.Store(DefaultConfig())
	return m
}

func DefaultConfig() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			DefaultLanguage:  "python",
			CacheSize:        256,
			JavaMatchTimeout: 2 * time.Second,
		},
		Prompt: PromptConfig{
			Frameworks: map[string]string{
				"python": "pytest",
				"java":   "junit5",
			},
			MaxTests: map[string]int{
				"python": 15,
				"java":   20,
			},
		},
		Providers: ProvidersConfig{
			Default:   string(providers.ProviderTypeAnthropic),
			Anthropic: providers.DefaultAnthropicConfig(),
			OpenAI:    providers.DefaultOpenAIConfig(),
			Gemini:    providers.DefaultGeminiConfig(),
		},
		Server: ServerConfig{
			Name:    "flowprompt",
			Version: "1.0.0",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func (m *Manager) Get() *Config {
	return m.config.Load()
}

func (m *Manager) Dirs() *storage.Dirs {
	return m.dirs
}

// SetExplicit names a config file that must exist and is applied after the
// user and project files.
func (m *Manager) SetExplicit(path string) {
	m.loadMu.Lock()
	m.explicit = path
	m.loadMu.Unlock()
}

// SetOverride records values, typically from command-line flags, merged
// over every other layer on each load. Zero fields are ignored.
func (m *Manager) SetOverride(override *Config) {
	m.loadMu.Lock()
	m.override = override
	m.loadMu.Unlock()
}

// Sources lists the files that contributed to the current config.
func (m *Manager) Sources() []string {
	m.loadMu.Lock()
	defer m.loadMu.Unlock()
	return append([]string(nil), m.sources...)
}

// Load rebuilds the config from defaults, the user file, the project file,
// the explicit file, the environment and the override, in that order.
func (m *Manager) Load() error {
	m.loadMu.Lock()

	cfg := DefaultConfig()
	var sources []string

	layers := []struct {
		name     string
		path     string
		required bool
	}{
		{"user config", m.dirs.ConfigFile(), false},
		{"project config", storage.ProjectConfig(m.workDir), false},
	}
	if m.explicit != "" {
		layers = append(layers, struct {
			name     string
			path     string
			required bool
		}{"config", m.explicit, true})
	}

	for _, layer := range layers {
		loaded, err := loadYAMLFile(layer.path, cfg, layer.required)
		if err != nil {
			m.loadMu.Unlock()
			return fmt.Errorf("%s: %w", layer.name, err)
		}
		if loaded {
			sources = append(sources, layer.path)
		}
	}

	applyEnvironment(cfg)
	if m.override != nil {
		DeepMerge(cfg, m.override)
	}

	if err := cfg.Validate(); err != nil {
		m.loadMu.Unlock()
		return err
	}

	m.sources = sources
	m.config.Store(cfg)
	m.loadMu.Unlock()

	m.notifyWatchers(cfg)
	return nil
}

func loadYAMLFile(path string, cfg *Config, required bool) (bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) && !required {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return false, fmt.Errorf("parse %s: %w", path, err)
	}
	return true, nil
}

func applyEnvironment(cfg *Config) {
	if v := os.Getenv("FLOWPROMPT_LANGUAGE"); v != "" {
		cfg.Analysis.DefaultLanguage = strings.ToLower(v)
	}
	if v := os.Getenv("FLOWPROMPT_CACHE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Analysis.CacheSize = n
		}
	}
	if v := os.Getenv("FLOWPROMPT_JAVA_MATCH_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Analysis.JavaMatchTimeout = d
		}
	}
	if cfg.Prompt.Frameworks == nil {
		cfg.Prompt.Frameworks = make(map[string]string)
	}
	if v := os.Getenv("FLOWPROMPT_PYTHON_FRAMEWORK"); v != "" {
		cfg.Prompt.Frameworks["python"] = v
	}
	if v := os.Getenv("FLOWPROMPT_JAVA_FRAMEWORK"); v != "" {
		cfg.Prompt.Frameworks["java"] = v
	}
	if v := os.Getenv("FLOWPROMPT_PROVIDER"); v != "" {
		cfg.Providers.Default = v
	}
	if v := os.Getenv("FLOWPROMPT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("FLOWPROMPT_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		cfg.Providers.Anthropic.APIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Providers.OpenAI.APIKey = v
	}
	if v := firstEnv("GEMINI_API_KEY", "GOOGLE_API_KEY"); v != "" {
		cfg.Providers.Gemini.APIKey = v
	}
}

func firstEnv(names ...string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// Validate checks values that would otherwise fail later and far from the
// config file.
func (c *Config) Validate() error {
	var errs []error

	switch strings.ToLower(c.Analysis.DefaultLanguage) {
	case "python", "java":
	default:
		errs = append(errs, fmt.Errorf("analysis.default_language: unsupported language %q", c.Analysis.DefaultLanguage))
	}
	if c.Analysis.JavaMatchTimeout < 0 {
		errs = append(errs, errors.New("analysis.java_match_timeout must not be negative"))
	}
	for lang, n := range c.Prompt.MaxTests {
		if n < 1 {
			errs = append(errs, fmt.Errorf("prompt.max_tests.%s must be positive", lang))
		}
	}
	if _, err := providers.ParseProviderType(c.Providers.Default); err != nil {
		errs = append(errs, fmt.Errorf("providers.default: %w", err))
	}
	if _, err := ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// ParseLevel maps a level name onto slog.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo, err
	}
	return level, nil
}

func (m *Manager) OnChange(fn func(*Config)) {
	m.watcherMu.Lock()
	m.watchers = append(m.watchers, fn)
	m.watcherMu.Unlock()
}

func (m *Manager) notifyWatchers(cfg *Config) {
	m.watcherMu.RLock()
	watchers := m.watchers
	m.watcherMu.RUnlock()

	for _, fn := range watchers {
		fn(cfg)
	}
}

func (m *Manager) Reload() error {
	return m.Load()
}

// Watch reloads the config whenever one of its files changes, until ctx is
// done or Close is called. A reload that fails keeps the previous config.
func (m *Manager) Watch(ctx context.Context, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	paths := []string{storage.ProjectConfig(m.workDir)}
	if info, err := os.Stat(m.dirs.Config); err == nil && info.IsDir() {
		paths = append(paths, m.dirs.ConfigFile())
	}
	m.loadMu.Lock()
	if m.explicit != "" {
		paths = append(paths, m.explicit)
	}
	m.loadMu.Unlock()

	w, err := watcher.New(watcher.Config{Paths: paths})
	if err != nil {
		return fmt.Errorf("watch config: %w", err)
	}
	events, err := w.Start(ctx)
	if err != nil {
		return fmt.Errorf("watch config: %w", err)
	}

	go func() {
		defer w.Stop()
		for {
			select {
			case <-m.stopWatch:
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				if err := m.Reload(); err != nil {
					logger.Warn("config reload failed", "path", ev.Path, "error", err)
					continue
				}
				logger.Info("config reloaded", "path", ev.Path)
			}
		}
	}()
	return nil
}

func (m *Manager) Close() error {
	m.watchOnce.Do(func() {
		close(m.stopWatch)
	})
	return nil
}
