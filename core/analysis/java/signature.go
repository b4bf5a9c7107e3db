package java

import (
	"regexp"
	"strings"

	"github.com/adalundhe/flowprompt/core/analysis"
)

var (
	annotationPattern = regexp.MustCompile(`@([\w.$]+)(?:\s*\(([^)]*)\))?`)
	modifierPattern   = regexp.MustCompile(`\b(` + modifierAlternation + `)\b`)
	leadingModifiers  = regexp.MustCompile(`^(?:(?:` + modifierAlternation + `)\s+)*`)
)

func extractSignature(src source, decl *declaration) *analysis.Signature {
	head, annotations := stripAnnotations(decl.head)

	modifiers := analysis.ModifierSet{}
	for _, m := range modifierPattern.FindAllString(head, -1) {
		modifiers.Add(m)
	}

	raw, _ := stripAnnotations(decl.text(src))

	return &analysis.Signature{
		Language:    analysis.Java,
		Name:        decl.name,
		Raw:         raw,
		Modifiers:   modifiers.Slice(),
		Parameters:  extractParameters(decl.params),
		ReturnType:  returnType(head),
		Exceptions:  splitList(decl.throws),
		Annotations: annotations,
	}
}

// stripAnnotations removes annotations from s and returns them in order.
func stripAnnotations(s string) (string, []analysis.Annotation) {
	annotations := []analysis.Annotation{}
	for _, m := range annotationPattern.FindAllStringSubmatch(s, -1) {
		annotations = append(annotations, analysis.Annotation{
			Name:      m[1],
			Arguments: strings.TrimSpace(m[2]),
		})
	}
	return analysis.CollapseSpace(annotationPattern.ReplaceAllString(s, "")), annotations
}

// returnType is the declaration head with modifiers and any leading
// generic parameter list removed. Annotations must already be gone.
func returnType(head string) string {
	rest := leadingModifiers.ReplaceAllString(head, "")
	if strings.HasPrefix(rest, "<") {
		rest = strings.TrimSpace(rest[closeAfter(rest, 0, '<', '>'):])
	}
	if rest == "" {
		return analysis.JavaVoid
	}
	return rest
}

func extractParameters(params string) []analysis.Parameter {
	out := []analysis.Parameter{}
	for _, part := range splitTopLevel(params) {
		if p, ok := parseParameter(part); ok {
			out = append(out, p)
		}
	}
	return out
}

// parseParameter reads "[annotations] [final] Type name". A lone token is
// taken as the name of an untyped parameter.
func parseParameter(text string) (analysis.Parameter, bool) {
	rest, annotations := stripAnnotations(text)
	fields := strings.Fields(rest)
	for len(fields) > 0 && fields[0] == "final" {
		fields = fields[1:]
	}
	if len(fields) == 0 {
		return analysis.Parameter{}, false
	}

	p := analysis.Parameter{
		Name:        fields[len(fields)-1],
		Type:        analysis.JavaUntyped,
		Annotations: annotations,
	}
	if len(fields) > 1 {
		p.Type = strings.Join(fields[:len(fields)-1], " ")
	}
	// "String ...args" binds the ellipsis to the type.
	if name, ok := strings.CutPrefix(p.Name, "..."); ok && name != "" {
		p.Name = name
		p.Type += "..."
	}
	if strings.Contains(p.Type, "...") {
		p.Variadic = true
		p.Spread = "..."
	}
	return p, true
}

// splitTopLevel splits s on commas outside angle brackets, parentheses and
// square brackets.
func splitTopLevel(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<', '(', '[':
			depth++
		case '>', ')', ']':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

func splitList(s string) []string {
	out := []string{}
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
