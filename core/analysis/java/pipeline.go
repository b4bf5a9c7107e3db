// Package java analyzes Java methods with text patterns over
// comment-stripped source. It needs no parser and tolerates fragments
// that are not complete compilation units.
package java

import (
	"time"

	"github.com/dlclark/regexp2"

	"github.com/adalundhe/flowprompt/core/analysis"
)

// Pipeline implements analysis.Pipeline for Java source.
type Pipeline struct {
	method *regexp2.Regexp
}

// New returns a pipeline whose declaration search gives up after timeout.
// A zero timeout uses DefaultMatchTimeout.
func New(timeout time.Duration) *Pipeline {
	if timeout <= 0 {
		timeout = DefaultMatchTimeout
	}
	return &Pipeline{method: compileMethodPattern(timeout)}
}

func (p *Pipeline) Language() analysis.Language {
	return analysis.Java
}

func (p *Pipeline) ExtractStructure(code string) (*analysis.Signature, error) {
	return analysis.Guard(analysis.Java, func() (*analysis.Signature, error) {
		src := prepare(code)
		decl, err := locate(p.method, src)
		if err != nil {
			return nil, err
		}
		sig := extractSignature(src, decl)
		sig.Dependencies = extractDependencies(src)
		return sig, nil
	})
}

func (p *Pipeline) ExtractDependencies(code string) analysis.DependencySet {
	return analysis.GuardDependencies(func() analysis.DependencySet {
		return extractDependencies(prepare(code))
	})
}

func (p *Pipeline) SummarizeFlow(code string) (*analysis.FlowAnalysis, error) {
	return analysis.Guard(analysis.Java, func() (*analysis.FlowAnalysis, error) {
		src := prepare(code)
		decl, err := locate(p.method, src)
		if err != nil {
			return nil, err
		}
		body, ok := decl.body(src)
		if !ok {
			return nil, analysis.EmptyBody(decl.name)
		}
		return analysis.NewFlowAnalysis(analysis.Java, walkBody(body)), nil
	})
}
