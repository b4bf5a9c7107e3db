// Package analyzer dispatches analysis requests to the pipeline registered
// for a language and memoizes results per source text.
package analyzer

import (
	"crypto/sha256"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/adalundhe/flowprompt/core/analysis"
	"github.com/adalundhe/flowprompt/core/analysis/java"
	"github.com/adalundhe/flowprompt/core/analysis/python"
	"github.com/adalundhe/flowprompt/core/treesitter"
)

// DefaultCacheSize is the number of results kept when Options.CacheSize is
// zero.
const DefaultCacheSize = 256

type Options struct {
	// CacheSize bounds the result cache. A negative size disables caching.
	CacheSize int

	// JavaMatchTimeout bounds the Java declaration search.
	JavaMatchTimeout time.Duration

	Logger *slog.Logger
}

type operation uint8

const (
	opStructure operation = iota
	opDependencies
	opFlow
)

type cacheKey struct {
	op       operation
	language analysis.Language
	sum      [sha256.Size]byte
}

type cacheEntry struct {
	value any
	err   error
}

// Analyzer routes each call to the pipeline for its language. Cached
// results are shared between callers and must be treated as read-only.
type Analyzer struct {
	mu        sync.RWMutex
	pipelines map[analysis.Language]analysis.Pipeline

	cache  *lru.Cache[cacheKey, cacheEntry]
	hits   atomic.Int64
	misses atomic.Int64

	parsers *treesitter.ParserPool
	logger  *slog.Logger
}

// New returns an analyzer with the Python and Java pipelines registered.
func New(opts Options) (*Analyzer, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	a := &Analyzer{
		pipelines: make(map[analysis.Language]analysis.Pipeline),
		parsers:   treesitter.NewParserPool(),
		logger:    logger,
	}

	size := opts.CacheSize
	if size == 0 {
		size = DefaultCacheSize
	}
	if size > 0 {
		cache, err := lru.New[cacheKey, cacheEntry](size)
		if err != nil {
			return nil, fmt.Errorf("create result cache: %w", err)
		}
		a.cache = cache
	}

	a.Register(python.New(a.parsers))
	a.Register(java.New(opts.JavaMatchTimeout))
	return a, nil
}

// Register installs p for its language, replacing any earlier pipeline.
func (a *Analyzer) Register(p analysis.Pipeline) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pipelines[p.Language()] = p
	if a.cache != nil {
		a.cache.Purge()
	}
}

// Pipeline returns the pipeline registered for language.
func (a *Analyzer) Pipeline(language analysis.Language) (analysis.Pipeline, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	p, ok := a.pipelines[language]
	if !ok {
		return nil, analysis.NewError(analysis.KindUnsupportedLanguage,
			fmt.Sprintf("no pipeline for language %q", language), nil)
	}
	return p, nil
}

// Languages returns the registered languages.
func (a *Analyzer) Languages() []analysis.Language {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]analysis.Language, 0, len(a.pipelines))
	for _, lang := range []analysis.Language{analysis.Python, analysis.Java} {
		if _, ok := a.pipelines[lang]; ok {
			out = append(out, lang)
		}
	}
	return out
}

func (a *Analyzer) ExtractStructure(source string, language analysis.Language) (*analysis.Signature, error) {
	v, err := a.run(opStructure, source, language, func(p analysis.Pipeline) (any, error) {
		return p.ExtractStructure(source)
	})
	if err != nil {
		return nil, err
	}
	return v.(*analysis.Signature), nil
}

// ExtractDependencies fails only for an unsupported language.
func (a *Analyzer) ExtractDependencies(source string, language analysis.Language) (analysis.DependencySet, error) {
	v, err := a.run(opDependencies, source, language, func(p analysis.Pipeline) (any, error) {
		return p.ExtractDependencies(source), nil
	})
	if err != nil {
		return analysis.DependencySet{}, err
	}
	return v.(analysis.DependencySet), nil
}

func (a *Analyzer) SummarizeFlow(source string, language analysis.Language) (*analysis.FlowAnalysis, error) {
	v, err := a.run(opFlow, source, language, func(p analysis.Pipeline) (any, error) {
		return p.SummarizeFlow(source)
	})
	if err != nil {
		return nil, err
	}
	return v.(*analysis.FlowAnalysis), nil
}

func (a *Analyzer) run(op operation, source string, language analysis.Language, fn func(analysis.Pipeline) (any, error)) (any, error) {
	p, err := a.Pipeline(language)
	if err != nil {
		return nil, err
	}

	key := cacheKey{op: op, language: language, sum: sha256.Sum256([]byte(source))}
	if a.cache != nil {
		if entry, ok := a.cache.Get(key); ok {
			a.hits.Add(1)
			return entry.value, entry.err
		}
		a.misses.Add(1)
	}

	start := time.Now()
	value, err := fn(p)
	a.logger.Debug("analysis finished",
		"language", language,
		"operation", op.String(),
		"bytes", len(source),
		"duration", time.Since(start),
		"error", err,
	)

	if a.cache != nil {
		a.cache.Add(key, cacheEntry{value: value, err: err})
	}
	return value, err
}

func (o operation) String() string {
	switch o {
	case opStructure:
		return "structure"
	case opDependencies:
		return "dependencies"
	case opFlow:
		return "flow"
	}
	return "unknown"
}

// CacheStats reports result cache usage.
type CacheStats struct {
	Entries int   `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}

func (a *Analyzer) Stats() CacheStats {
	stats := CacheStats{Hits: a.hits.Load(), Misses: a.misses.Load()}
	if a.cache != nil {
		stats.Entries = a.cache.Len()
	}
	return stats
}

// Close releases pooled parsers.
func (a *Analyzer) Close() {
	a.parsers.Close()
}
