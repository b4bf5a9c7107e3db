package cmd

import (
	"fmt"

	"github.com/adalundhe/flowprompt/core/analysis"
	"github.com/adalundhe/flowprompt/core/analyzer"
	"github.com/adalundhe/flowprompt/core/config"
	"github.com/adalundhe/flowprompt/core/prompt"
)

// newAnalyzer builds an analyzer sized from cfg.
func (r *appState) newAnalyzer() (*analyzer.Analyzer, error) {
	cfg := r.manager.Get()
	return analyzer.New(analyzer.Options{
		CacheSize:        cfg.Analysis.CacheSize,
		JavaMatchTimeout: cfg.Analysis.JavaMatchTimeout,
		Logger:           r.logger,
	})
}

// newGenerator builds a prompt generator from the prompt section of cfg.
// Language keys accept the same tags as --lang.
func newGenerator(cfg *config.Config) (*prompt.Generator, error) {
	opts := prompt.Options{
		MaxTests:   make(map[analysis.Language]int, len(cfg.Prompt.MaxTests)),
		Frameworks: make(map[analysis.Language]string, len(cfg.Prompt.Frameworks)),
	}
	for tag, n := range cfg.Prompt.MaxTests {
		lang, err := analyzer.ParseLanguage(tag)
		if err != nil {
			return nil, fmt.Errorf("prompt.max_tests: %w", err)
		}
		opts.MaxTests[lang] = n
	}
	for tag, framework := range cfg.Prompt.Frameworks {
		lang, err := analyzer.ParseLanguage(tag)
		if err != nil {
			return nil, fmt.Errorf("prompt.frameworks: %w", err)
		}
		opts.Frameworks[lang] = framework
	}
	return prompt.NewGenerator(opts)
}

// analysisResult bundles the outputs the prompt commands need.
type analysisResult struct {
	Signature *analysis.Signature
	Flow      *analysis.FlowAnalysis
}

func analyzeSource(a *analyzer.Analyzer, src *sourceFile) (*analysisResult, error) {
	sig, err := a.ExtractStructure(src.Text, src.Language)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", src.Name(), err)
	}
	flow, err := a.SummarizeFlow(src.Text, src.Language)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", src.Name(), err)
	}
	return &analysisResult{Signature: sig, Flow: flow}, nil
}
