package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/adalundhe/flowprompt/core/analysis"
)

// ANSI color codes for terminal output.
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

// palette colors text only when writing to a terminal.
type palette struct {
	enabled bool
}

func newPalette(w io.Writer) palette {
	return palette{enabled: isTerminal(w)}
}

func (p palette) paint(color, text string) string {
	if !p.enabled {
		return text
	}
	return color + text + colorReset
}

// isTerminal returns true if the given writer is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// =============================================================================
// Signature Output
// =============================================================================

func renderSignature(w io.Writer, p palette, sig *analysis.Signature) {
	field := func(label, value string) {
		fmt.Fprintf(w, "%s %s\n", p.paint(colorGray, fmt.Sprintf("%-12s", label)), value)
	}

	fmt.Fprintf(w, "%s %s\n", p.paint(colorBold+colorCyan, sig.Name), p.paint(colorGray, "("+string(sig.Language)+")"))
	field("Signature", sig.Raw)
	field("Modifiers", joinOrDash(sig.Modifiers))
	field("Returns", sig.ReturnType)
	field("Raises", joinOrDash(sig.Exceptions))
	field("Annotations", joinOrDash(annotationNames(sig.Annotations)))

	fmt.Fprintln(w, p.paint(colorGray, "Parameters"))
	if len(sig.Parameters) == 0 {
		fmt.Fprintln(w, "  -")
	}
	for _, param := range sig.Parameters {
		fmt.Fprintf(w, "  %s\n", describeParameter(param))
	}

	field("Imports", joinOrDash(sig.Dependencies.Imports))
	field("Calls", joinOrDash(sig.Dependencies.Calls))
}

func describeParameter(param analysis.Parameter) string {
	var b strings.Builder
	if param.Spread != "..." {
		b.WriteString(param.Spread)
	}
	b.WriteString(param.Name)
	b.WriteString(": ")
	b.WriteString(param.Type)
	if param.Spread == "..." {
		b.WriteString("...")
	}
	if param.HasDefault {
		b.WriteString(" = ")
		b.WriteString(param.Default)
	}
	if names := annotationNames(param.Annotations); len(names) > 0 {
		b.WriteString(" ")
		b.WriteString(strings.Join(names, " "))
	}
	return b.String()
}

func annotationNames(annotations []analysis.Annotation) []string {
	names := make([]string, 0, len(annotations))
	for _, a := range annotations {
		if a.Arguments != "" {
			names = append(names, fmt.Sprintf("@%s(%s)", a.Name, a.Arguments))
			continue
		}
		names = append(names, "@"+a.Name)
	}
	return names
}

func joinOrDash(values []string) string {
	if len(values) == 0 {
		return "-"
	}
	return strings.Join(values, ", ")
}

// =============================================================================
// Flow Output
// =============================================================================

func renderFlow(w io.Writer, p palette, flow *analysis.FlowAnalysis) {
	fmt.Fprintf(w, "%s %s\n", p.paint(colorGray, "Summary    "), p.paint(colorBold, flow.Summary))
	fmt.Fprintf(w, "%s %s\n", p.paint(colorGray, "Complexity "), complexityColor(p, flow.Complexity))
	if len(flow.Flow) == 0 {
		return
	}
	fmt.Fprintln(w, p.paint(colorGray, "Flow"))
	renderNodes(w, p, flow.Flow, 1)
}

func renderNodes(w io.Writer, p palette, nodes []analysis.FlowNode, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, node := range nodes {
		fmt.Fprintf(w, "%s%s\n", indent, describeNode(p, node))
		renderNodes(w, p, node.Children(), depth+1)
	}
}

func describeNode(p palette, node analysis.FlowNode) string {
	switch n := node.(type) {
	case *analysis.Conditional:
		label := p.paint(colorYellow, "if") + " " + n.Condition
		if n.HasElse {
			label += " " + p.paint(colorGray, "[else]")
		}
		return label
	case *analysis.ForLoop:
		return p.paint(colorYellow, "for") + " " + n.Header
	case *analysis.WhileLoop:
		return p.paint(colorYellow, "while") + " " + n.Condition
	case *analysis.TryCatch:
		label := p.paint(colorYellow, "try") + " catch " + joinOrDash(n.Exceptions)
		if n.HasFinally {
			label += " " + p.paint(colorGray, "[finally]")
		}
		return label
	case *analysis.Throw:
		return p.paint(colorRed, "throw") + " " + n.Exception
	case *analysis.Return:
		return p.paint(colorGreen, "return") + " " + n.Value
	}
	return string(node.Kind())
}

func complexityColor(p palette, score int) string {
	text := fmt.Sprintf("%d", score)
	switch {
	case score >= 10:
		return p.paint(colorRed, text)
	case score >= 5:
		return p.paint(colorYellow, text)
	}
	return p.paint(colorGreen, text)
}
