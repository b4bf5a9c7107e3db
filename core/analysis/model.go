// Package analysis holds the language-neutral result model shared by the
// per-language pipelines: signatures, dependency sets, flow inventories and
// the complexity and summary rules computed over them.
package analysis

import (
	"slices"
	"strings"
)

// Language identifies a source language with a registered pipeline.
type Language string

const (
	Python Language = "python"
	Java   Language = "java"
)

func (l Language) String() string {
	return string(l)
}

// Sentinels used when no real value can be extracted.
const (
	PythonUntyped     = "Any"
	PythonNoValue     = "None"
	PythonReraise     = "Re-raise"
	PythonAnyHandler  = "Exception"
	JavaUntyped       = "Object"
	JavaVoid          = "void"
	LinearFlowSummary = "Linear"
)

type Annotation struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments,omitempty"`
}

// Parameter describes one declared parameter. Default is only meaningful
// when HasDefault is set.
type Parameter struct {
	Name        string       `json:"name"`
	Type        string       `json:"type"`
	HasDefault  bool         `json:"has_default"`
	Default     string       `json:"default_value,omitempty"`
	Variadic    bool         `json:"is_variadic"`
	Spread      string       `json:"spread,omitempty"`
	Annotations []Annotation `json:"annotations,omitempty"`
}

// Signature is the decomposed declaration of the located function.
type Signature struct {
	Language     Language      `json:"language"`
	Name         string        `json:"name"`
	Raw          string        `json:"signature"`
	Modifiers    []string      `json:"modifiers"`
	Parameters   []Parameter   `json:"parameters"`
	ReturnType   string        `json:"return_type"`
	Exceptions   []string      `json:"exceptions"`
	Annotations  []Annotation  `json:"annotations"`
	Dependencies DependencySet `json:"dependencies"`
}

// DependencySet is a deliberately overbroad hint set of imports and
// call-like names found anywhere in the input. Both lists are sorted and
// deduplicated.
type DependencySet struct {
	Imports []string `json:"imports"`
	Calls   []string `json:"calls"`
}

func NewDependencySet(imports, calls []string) DependencySet {
	return DependencySet{
		Imports: normalizeSet(imports),
		Calls:   normalizeSet(calls),
	}
}

func normalizeSet(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// ModifierSet collects modifiers in declaration order, dropping repeats.
type ModifierSet struct {
	items []string
}

func (m *ModifierSet) Add(modifier string) {
	if modifier == "" || slices.Contains(m.items, modifier) {
		return
	}
	m.items = append(m.items, modifier)
}

func (m *ModifierSet) Slice() []string {
	if m.items == nil {
		return []string{}
	}
	return slices.Clone(m.items)
}

// FlowAnalysis is the control-flow inventory of one function body.
type FlowAnalysis struct {
	Language   Language   `json:"language"`
	Flow       []FlowNode `json:"flow_map"`
	Complexity int        `json:"complexity_score"`
	Summary    string     `json:"summary"`
}

// NewFlowAnalysis scores and summarizes flow.
func NewFlowAnalysis(language Language, flow []FlowNode) *FlowAnalysis {
	if flow == nil {
		flow = []FlowNode{}
	}
	return &FlowAnalysis{
		Language:   language,
		Flow:       flow,
		Complexity: Complexity(flow),
		Summary:    Summarize(language, flow),
	}
}

// CollapseSpace replaces every run of whitespace with a single space.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
