// Package prompt turns a signature and flow analysis into an instruction
// prompt asking a language model for unit tests.
package prompt

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/google/uuid"

	"github.com/adalundhe/flowprompt/core/analysis"
)

type Framework string

const (
	Auto     Framework = "auto"
	Pytest   Framework = "pytest"
	Unittest Framework = "unittest"
	JUnit5   Framework = "junit5"
	JUnit4   Framework = "junit4"
)

var languageFrameworks = map[analysis.Language][]Framework{
	analysis.Python: {Pytest, Unittest},
	analysis.Java:   {JUnit5, JUnit4},
}

// DefaultFramework returns the first framework listed for language.
func DefaultFramework(language analysis.Language) Framework {
	if frameworks := languageFrameworks[language]; len(frameworks) > 0 {
		return frameworks[0]
	}
	return Pytest
}

// ResolveFramework maps a requested framework name onto one supported for
// language. "auto", the empty string and unknown names resolve to the
// language default; "junit" means JUnit 5.
func ResolveFramework(language analysis.Language, requested string) Framework {
	name := Framework(strings.ToLower(strings.TrimSpace(requested)))
	if name == "junit" {
		name = JUnit5
	}
	for _, f := range languageFrameworks[language] {
		if f == name {
			return f
		}
	}
	return DefaultFramework(language)
}

// Frameworks lists the frameworks supported for language.
func Frameworks(language analysis.Language) []Framework {
	return append([]Framework(nil), languageFrameworks[language]...)
}

type Options struct {
	// MaxTests caps the estimated test count per language. Missing
	// languages use DefaultMaxTests.
	MaxTests map[analysis.Language]int

	// Frameworks overrides the default framework per language.
	Frameworks map[analysis.Language]string

	// NewID generates request ids. Defaults to uuid.NewString.
	NewID func() string
}

type Result struct {
	Prompt   string   `json:"prompt"`
	Metadata Metadata `json:"metadata"`
}

type Metadata struct {
	RequestID      string            `json:"request_id"`
	Language       analysis.Language `json:"language"`
	Framework      Framework         `json:"framework"`
	Complexity     int               `json:"complexity_score"`
	EstimatedTests int               `json:"estimated_tests"`
}

// Generator renders prompts. It is safe for concurrent use.
type Generator struct {
	opts      Options
	documents map[analysis.Language]*template.Template
	skeletons map[Framework]*template.Template
}

type documentData struct {
	Signature    *analysis.Signature
	Flow         *analysis.FlowAnalysis
	Parameters   string
	Modifiers    string
	Exceptions   string
	Annotations  string
	Imports      string
	Scenarios    string
	Instructions []string
	Skeleton     string
}

// NewGenerator parses the prompt and skeleton templates.
func NewGenerator(opts Options) (*Generator, error) {
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}

	g := &Generator{
		opts:      opts,
		documents: make(map[analysis.Language]*template.Template),
		skeletons: make(map[Framework]*template.Template),
	}

	documents := map[analysis.Language]string{
		analysis.Python: pythonTemplate,
		analysis.Java:   javaTemplate,
	}
	for lang, text := range documents {
		t, err := template.New(string(lang)).Funcs(templateFuncs).Parse(text)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", lang, err)
		}
		g.documents[lang] = t
	}

	for framework, text := range skeletons {
		t, err := template.New(string(framework)).Parse(text)
		if err != nil {
			return nil, fmt.Errorf("parse skeleton %s: %w", framework, err)
		}
		g.skeletons[framework] = t
	}

	return g, nil
}

// Generate renders the prompt for sig and flow. framework is resolved with
// ResolveFramework after applying the configured per-language default.
func (g *Generator) Generate(sig *analysis.Signature, flow *analysis.FlowAnalysis, framework string) (*Result, error) {
	if sig == nil || flow == nil {
		return nil, fmt.Errorf("generate prompt: signature and flow analysis are required")
	}

	language := sig.Language
	document, ok := g.documents[language]
	if !ok {
		return nil, analysis.NewError(analysis.KindUnsupportedLanguage,
			fmt.Sprintf("no prompt template for language %q", language), nil)
	}

	if framework == "" || Framework(strings.ToLower(framework)) == Auto {
		framework = g.opts.Frameworks[language]
	}
	resolved := ResolveFramework(language, framework)

	skeleton, err := g.skeleton(language, resolved, sig.Name)
	if err != nil {
		return nil, err
	}

	data := documentData{
		Signature:    sig,
		Flow:         flow,
		Parameters:   FormatParameters(language, sig.Parameters),
		Modifiers:    joinOrNone(sig.Modifiers),
		Exceptions:   joinOrNone(sig.Exceptions),
		Annotations:  formatAnnotations(sig.Annotations),
		Imports:      joinOrNone(sig.Dependencies.Imports),
		Scenarios:    renderScenarios(language, flow.Flow),
		Instructions: pythonInstructions,
		Skeleton:     skeleton,
	}
	if language == analysis.Java {
		data.Instructions = javaInstructions
	}

	var buf bytes.Buffer
	if err := document.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("execute template %s: %w", language, err)
	}

	return &Result{
		Prompt: buf.String(),
		Metadata: Metadata{
			RequestID:      g.opts.NewID(),
			Language:       language,
			Framework:      resolved,
			Complexity:     flow.Complexity,
			EstimatedTests: EstimateTests(language, flow, g.opts.MaxTests[language]),
		},
	}, nil
}

func (g *Generator) skeleton(language analysis.Language, framework Framework, name string) (string, error) {
	t, ok := g.skeletons[framework]
	if !ok {
		return "", fmt.Errorf("no output skeleton for %s", framework)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, struct{ Name string }{exportedName(name)}); err != nil {
		return "", fmt.Errorf("execute skeleton %s: %w", framework, err)
	}
	return "```" + string(language) + "\n" + buf.String() + "\n```", nil
}
