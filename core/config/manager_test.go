package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/adalundhe/flowprompt/core/storage"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"FLOWPROMPT_LANGUAGE", "FLOWPROMPT_CACHE_SIZE", "FLOWPROMPT_JAVA_MATCH_TIMEOUT",
		"FLOWPROMPT_PYTHON_FRAMEWORK", "FLOWPROMPT_JAVA_FRAMEWORK", "FLOWPROMPT_PROVIDER",
		"FLOWPROMPT_LOG_LEVEL", "FLOWPROMPT_LOG_FORMAT",
		"ANTHROPIC_API_KEY", "OPENAI_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY",
	} {
		t.Setenv(name, "")
	}
}

func testManager(t *testing.T) (*Manager, *storage.Dirs, string) {
	t.Helper()
	clearEnv(t)
	dirs := &storage.Dirs{Config: t.TempDir(), State: t.TempDir()}
	work := t.TempDir()
	return NewManager(dirs, work), dirs, work
}

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Analysis.DefaultLanguage != "python" {
		t.Errorf("DefaultLanguage: got %s, want python", cfg.Analysis.DefaultLanguage)
	}
	if cfg.Analysis.CacheSize != 256 {
		t.Errorf("CacheSize: got %d, want 256", cfg.Analysis.CacheSize)
	}
	if cfg.Prompt.Frameworks["java"] != "junit5" {
		t.Errorf("java framework: got %s, want junit5", cfg.Prompt.Frameworks["java"])
	}
	if cfg.Prompt.MaxTests["python"] != 15 || cfg.Prompt.MaxTests["java"] != 20 {
		t.Errorf("MaxTests: got %v", cfg.Prompt.MaxTests)
	}
	if cfg.Providers.Default != "anthropic" {
		t.Errorf("Providers.Default: got %s, want anthropic", cfg.Providers.Default)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestManagerGet(t *testing.T) {
	m, _, _ := testManager(t)

	cfg := m.Get()
	if cfg == nil {
		t.Fatal("Get() returned nil")
	}
	if cfg.Server.Name != "flowprompt" {
		t.Errorf("Server.Name: got %s, want flowprompt", cfg.Server.Name)
	}
}

func TestManagerLayering(t *testing.T) {
	m, dirs, work := testManager(t)

	writeConfig(t, dirs.ConfigFile(), `
analysis:
  cache_size: 32
  java_match_timeout: 500ms
prompt:
  frameworks:
    python: unittest
providers:
  default: openai
  openai:
    model: gpt-4.1-mini
    timeout: 30s
logging:
  level: debug
`)
	writeConfig(t, filepath.Join(work, ".flowprompt.yaml"), `
analysis:
  cache_size: 64
prompt:
  max_tests:
    java: 8
`)

	if err := m.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	cfg := m.Get()

	if cfg.Analysis.CacheSize != 64 {
		t.Errorf("project file should win: CacheSize got %d, want 64", cfg.Analysis.CacheSize)
	}
	if cfg.Analysis.JavaMatchTimeout != 500*time.Millisecond {
		t.Errorf("JavaMatchTimeout: got %v, want 500ms", cfg.Analysis.JavaMatchTimeout)
	}
	if cfg.Prompt.Frameworks["python"] != "unittest" {
		t.Errorf("python framework: got %s, want unittest", cfg.Prompt.Frameworks["python"])
	}
	if cfg.Prompt.Frameworks["java"] != "junit5" {
		t.Errorf("java framework should keep default: got %s", cfg.Prompt.Frameworks["java"])
	}
	if cfg.Prompt.MaxTests["java"] != 8 || cfg.Prompt.MaxTests["python"] != 15 {
		t.Errorf("MaxTests: got %v", cfg.Prompt.MaxTests)
	}
	if cfg.Providers.OpenAI.Model != "gpt-4.1-mini" {
		t.Errorf("OpenAI.Model: got %s", cfg.Providers.OpenAI.Model)
	}
	if cfg.Providers.OpenAI.Timeout != 30*time.Second {
		t.Errorf("OpenAI.Timeout: got %v", cfg.Providers.OpenAI.Timeout)
	}
	if cfg.Providers.OpenAI.MaxTokens != 8192 {
		t.Errorf("OpenAI.MaxTokens should keep default: got %d", cfg.Providers.OpenAI.MaxTokens)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level: got %s", cfg.Logging.Level)
	}

	if got := m.Sources(); len(got) != 2 {
		t.Errorf("Sources: got %v, want 2 files", got)
	}
}

func TestManagerEnvironmentOverride(t *testing.T) {
	m, dirs, _ := testManager(t)
	writeConfig(t, dirs.ConfigFile(), "analysis:\n  default_language: python\n")

	t.Setenv("FLOWPROMPT_LANGUAGE", "Java")
	t.Setenv("FLOWPROMPT_CACHE_SIZE", "10")
	t.Setenv("FLOWPROMPT_JAVA_FRAMEWORK", "junit4")
	t.Setenv("FLOWPROMPT_PROVIDER", "gemini")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")
	t.Setenv("GOOGLE_API_KEY", "g-key")

	if err := m.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	cfg := m.Get()

	if cfg.Analysis.DefaultLanguage != "java" {
		t.Errorf("DefaultLanguage: got %s, want java", cfg.Analysis.DefaultLanguage)
	}
	if cfg.Analysis.CacheSize != 10 {
		t.Errorf("CacheSize: got %d, want 10", cfg.Analysis.CacheSize)
	}
	if cfg.Prompt.Frameworks["java"] != "junit4" {
		t.Errorf("java framework: got %s", cfg.Prompt.Frameworks["java"])
	}
	if cfg.Providers.Default != "gemini" {
		t.Errorf("Providers.Default: got %s", cfg.Providers.Default)
	}
	if cfg.Providers.Anthropic.APIKey != "sk-ant" {
		t.Errorf("Anthropic.APIKey: got %q", cfg.Providers.Anthropic.APIKey)
	}
	if cfg.Providers.Gemini.APIKey != "g-key" {
		t.Errorf("Gemini.APIKey: got %q", cfg.Providers.Gemini.APIKey)
	}
}

func TestManagerExplicitAndOverride(t *testing.T) {
	m, _, _ := testManager(t)

	explicit := filepath.Join(t.TempDir(), "ci.yaml")
	writeConfig(t, explicit, "logging:\n  format: json\nanalysis:\n  cache_size: 5\n")
	m.SetExplicit(explicit)
	m.SetOverride(&Config{Analysis: AnalysisConfig{DefaultLanguage: "java"}})

	if err := m.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	cfg := m.Get()

	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format: got %s, want json", cfg.Logging.Format)
	}
	if cfg.Analysis.DefaultLanguage != "java" {
		t.Errorf("override should win: got %s", cfg.Analysis.DefaultLanguage)
	}
	if cfg.Analysis.CacheSize != 5 {
		t.Errorf("zero override fields should not apply: CacheSize got %d", cfg.Analysis.CacheSize)
	}
}

func TestManagerExplicitMissing(t *testing.T) {
	m, _, _ := testManager(t)
	m.SetExplicit(filepath.Join(t.TempDir(), "missing.yaml"))

	if err := m.Load(); err == nil {
		t.Fatal("Load should fail when the explicit config is missing")
	}
}

func TestManagerInvalidConfigKeepsPrevious(t *testing.T) {
	m, _, work := testManager(t)

	writeConfig(t, filepath.Join(work, ".flowprompt.yaml"), `
analysis:
  default_language: cobol
logging:
  format: xml
providers:
  default: mistral
`)

	err := m.Load()
	if err == nil {
		t.Fatal("Load should reject invalid values")
	}
	for _, want := range []string{"cobol", "logging.format", "providers.default"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q should mention %q", err, want)
		}
	}
	if m.Get().Analysis.DefaultLanguage != "python" {
		t.Error("failed load should keep the previous config")
	}
}

func TestManagerMalformedYAML(t *testing.T) {
	m, _, work := testManager(t)
	writeConfig(t, filepath.Join(work, ".flowprompt.yaml"), "analysis: [unterminated\n")

	err := m.Load()
	if err == nil || !strings.Contains(err.Error(), "project config") {
		t.Fatalf("expected project config parse error, got %v", err)
	}
}

func TestManagerOnChange(t *testing.T) {
	m, _, _ := testManager(t)

	called := false
	m.OnChange(func(cfg *Config) {
		called = true
	})

	if err := m.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !called {
		t.Error("OnChange callback should have been called")
	}
}

func TestManagerReload(t *testing.T) {
	m, dirs, _ := testManager(t)

	writeConfig(t, dirs.ConfigFile(), "analysis:\n  cache_size: 3\n")
	if err := m.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if m.Get().Analysis.CacheSize != 3 {
		t.Errorf("Initial CacheSize: got %d, want 3", m.Get().Analysis.CacheSize)
	}

	writeConfig(t, dirs.ConfigFile(), "analysis:\n  cache_size: 7\n")
	if err := m.Reload(); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if m.Get().Analysis.CacheSize != 7 {
		t.Errorf("Reloaded CacheSize: got %d, want 7", m.Get().Analysis.CacheSize)
	}
}

func TestManagerWatchReloads(t *testing.T) {
	m, _, work := testManager(t)
	if err := m.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	var reloads atomic.Int32
	m.OnChange(func(cfg *Config) {
		if cfg.Analysis.CacheSize == 99 {
			reloads.Add(1)
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := m.Watch(ctx, nil); err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	defer m.Close()

	writeConfig(t, filepath.Join(work, ".flowprompt.yaml"), "analysis:\n  cache_size: 99\n")

	deadline := time.Now().Add(3 * time.Second)
	for reloads.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	if reloads.Load() == 0 {
		t.Fatal("config was not reloaded after the project file changed")
	}
	if m.Get().Analysis.CacheSize != 99 {
		t.Errorf("CacheSize: got %d, want 99", m.Get().Analysis.CacheSize)
	}
}

func TestManagerClose(t *testing.T) {
	m, _, _ := testManager(t)

	if err := m.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Errorf("Double close should not fail: %v", err)
	}
}

func TestParseLevel(t *testing.T) {
	for _, name := range []string{"debug", "INFO", "warn", "error"} {
		if _, err := ParseLevel(name); err != nil {
			t.Errorf("ParseLevel(%q): %v", name, err)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("ParseLevel should reject unknown names")
	}
}
