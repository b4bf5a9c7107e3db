// Package python analyzes Python functions from a tree-sitter syntax tree.
package python

import (
	"strings"

	"github.com/adalundhe/flowprompt/core/analysis"
	"github.com/adalundhe/flowprompt/core/treesitter"
)

const grammar = "python"

// Pipeline implements analysis.Pipeline for Python source.
type Pipeline struct {
	parsers *treesitter.ParserPool
}

// New returns a pipeline that borrows parsers from pool. A nil pool gets a
// private one.
func New(pool *treesitter.ParserPool) *Pipeline {
	if pool == nil {
		pool = treesitter.NewParserPool()
	}
	return &Pipeline{parsers: pool}
}

func (p *Pipeline) Language() analysis.Language {
	return analysis.Python
}

func (p *Pipeline) ExtractStructure(source string) (*analysis.Signature, error) {
	return analysis.Guard(analysis.Python, func() (*analysis.Signature, error) {
		tree, fn, err := p.locate(source)
		if err != nil {
			return nil, err
		}
		defer tree.Close()

		sig := extractSignature(fn)
		sig.Dependencies = extractDependencies(tree.RootNode())
		return sig, nil
	})
}

func (p *Pipeline) ExtractDependencies(source string) analysis.DependencySet {
	return analysis.GuardDependencies(func() analysis.DependencySet {
		tree, err := p.parsers.Parse(grammar, []byte(source))
		if err != nil {
			return analysis.NewDependencySet(nil, nil)
		}
		defer tree.Close()
		return extractDependencies(tree.RootNode())
	})
}

func (p *Pipeline) SummarizeFlow(source string) (*analysis.FlowAnalysis, error) {
	return analysis.Guard(analysis.Python, func() (*analysis.FlowAnalysis, error) {
		tree, fn, err := p.locate(source)
		if err != nil {
			return nil, err
		}
		defer tree.Close()

		body := fn.ChildByFieldName("body")
		if body == nil || len(body.NamedChildren()) == 0 {
			return nil, analysis.EmptyBody(functionName(fn))
		}
		return analysis.NewFlowAnalysis(analysis.Python, walkBlock(body, 0)), nil
	})
}

// locate parses source and finds the first function definition in
// pre-order. On success the caller owns the returned tree.
func (p *Pipeline) locate(source string) (*treesitter.Tree, *treesitter.Node, error) {
	if strings.TrimSpace(source) == "" {
		return nil, nil, analysis.NoFunctionFound(analysis.Python)
	}

	tree, err := p.parsers.Parse(grammar, []byte(source))
	if err != nil {
		return nil, nil, analysis.Unparsable(analysis.Python, err)
	}

	root := tree.RootNode()
	fn := root.Find("function_definition")
	if fn == nil {
		// root points into tree; read it before the tree is freed.
		hasErr := root.HasError()
		tree.Close()
		if hasErr {
			return nil, nil, analysis.Unparsable(analysis.Python, treesitter.ErrParseFailed)
		}
		return nil, nil, analysis.NoFunctionFound(analysis.Python)
	}
	return tree, fn, nil
}

func functionName(fn *treesitter.Node) string {
	if name := fn.ChildByFieldName("name"); name != nil {
		return name.Content()
	}
	return ""
}
