package prompt

import (
	"fmt"
	"strings"

	"github.com/adalundhe/flowprompt/core/analysis"
)

// Estimate caps per language.
const (
	MaxPythonTests = 15
	MaxJavaTests   = 20
)

const linearScenario = "Linear flow"

// Scenarios derives test scenarios from the top-level flow. Nested nodes
// are covered by the scenarios of their enclosing construct.
func Scenarios(language analysis.Language, flow []analysis.FlowNode) []string {
	raises := "Throws"
	if language == analysis.Python {
		raises = "Raises"
	}

	var out []string
	for _, node := range flow {
		switch n := node.(type) {
		case *analysis.Conditional:
			out = append(out,
				fmt.Sprintf("Condition TRUE: %s", n.Condition),
				fmt.Sprintf("Condition FALSE: %s", n.Condition))
		case *analysis.ForLoop, *analysis.WhileLoop:
			out = append(out, "Empty loop", "Loop with multiple iterations")
		case *analysis.TryCatch:
			for _, exc := range n.Exceptions {
				out = append(out, fmt.Sprintf("Exception: %s", exc))
			}
			out = append(out, "Execution without exception")
		case *analysis.Throw:
			out = append(out, fmt.Sprintf("%s: %s", raises, n.Exception))
		}
	}
	return out
}

func renderScenarios(language analysis.Language, flow []analysis.FlowNode) string {
	scenarios := Scenarios(language, flow)
	if len(scenarios) == 0 {
		return linearScenario
	}
	return strings.Join(scenarios, "; ")
}

// EstimateTests is one happy-path test plus the complexity score plus one
// per top-level branch or loop and one per caught exception type, capped
// at limit. A non-positive limit uses the language default.
func EstimateTests(language analysis.Language, flow *analysis.FlowAnalysis, limit int) int {
	if limit <= 0 {
		limit = DefaultMaxTests(language)
	}

	count := 1 + max(flow.Complexity, 1)
	for _, node := range flow.Flow {
		switch n := node.(type) {
		case *analysis.Conditional, *analysis.ForLoop, *analysis.WhileLoop:
			count++
		case *analysis.TryCatch:
			count += len(n.Exceptions)
		}
	}
	return min(count, limit)
}

func DefaultMaxTests(language analysis.Language) int {
	if language == analysis.Java {
		return MaxJavaTests
	}
	return MaxPythonTests
}

// FormatParameters renders parameters the way each language declares them:
// "name: type = default" for Python, "@Ann type name" for Java.
func FormatParameters(language analysis.Language, params []analysis.Parameter) string {
	if len(params) == 0 {
		return "None"
	}

	parts := make([]string, 0, len(params))
	for _, p := range params {
		if language == analysis.Java {
			s := p.Type + " " + p.Name
			if len(p.Annotations) > 0 {
				names := make([]string, 0, len(p.Annotations))
				for _, a := range p.Annotations {
					names = append(names, a.Name)
				}
				s = "@" + strings.Join(names, ", ") + " " + s
			}
			parts = append(parts, s)
			continue
		}

		s := p.Spread + p.Name + ": " + p.Type
		if p.HasDefault {
			s += " = " + p.Default
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, ", ")
}

func formatAnnotations(annotations []analysis.Annotation) string {
	if len(annotations) == 0 {
		return "None"
	}
	parts := make([]string, 0, len(annotations))
	for _, a := range annotations {
		if a.Arguments != "" {
			parts = append(parts, fmt.Sprintf("@%s(%s)", a.Name, a.Arguments))
			continue
		}
		parts = append(parts, "@"+a.Name)
	}
	return strings.Join(parts, ", ")
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "None"
	}
	return strings.Join(items, ", ")
}

// exportedName turns snake_case or camelCase into PascalCase for test
// class names.
func exportedName(name string) string {
	var b strings.Builder
	upper := true
	for _, r := range name {
		if r == '_' {
			upper = true
			continue
		}
		if upper {
			b.WriteString(strings.ToUpper(string(r)))
			upper = false
			continue
		}
		b.WriteRune(r)
	}
	if b.Len() == 0 {
		return "Function"
	}
	return b.String()
}
