package python

import (
	"strings"

	"github.com/adalundhe/flowprompt/core/analysis"
	"github.com/adalundhe/flowprompt/core/treesitter"
)

func extractSignature(fn *treesitter.Node) *analysis.Signature {
	name := functionName(fn)

	var modifiers analysis.ModifierSet
	if first := fn.Child(0); first != nil && first.Type() == "async" {
		modifiers.Add("async")
	}

	params, rendered := extractParameters(fn.ChildByFieldName("parameters"))

	var raw strings.Builder
	raw.WriteString(name)
	raw.WriteString("(")
	raw.WriteString(strings.Join(rendered, ", "))
	raw.WriteString(")")

	returnType := analysis.PythonUntyped
	if rt := fn.ChildByFieldName("return_type"); rt != nil {
		returnType = analysis.CollapseSpace(rt.Content())
		raw.WriteString(" -> ")
		raw.WriteString(returnType)
	}

	return &analysis.Signature{
		Language:    analysis.Python,
		Name:        name,
		Raw:         raw.String(),
		Modifiers:   modifiers.Slice(),
		Parameters:  params,
		ReturnType:  returnType,
		Exceptions:  []string{},
		Annotations: extractDecorators(fn),
	}
}

// extractParameters returns the parameters and their rendered source
// forms. Bare "*" and "/" separators are rendered but are not parameters.
func extractParameters(node *treesitter.Node) ([]analysis.Parameter, []string) {
	params := []analysis.Parameter{}
	var rendered []string
	if node == nil {
		return params, rendered
	}

	for _, child := range node.NamedChildren() {
		switch child.Type() {
		case "keyword_separator", "positional_separator":
			rendered = append(rendered, child.Content())
			continue
		}

		param, declaredType := parameterFrom(child)
		if param.Name == "" {
			continue
		}
		params = append(params, param)
		rendered = append(rendered, renderParameter(param, declaredType))
	}
	return params, rendered
}

func parameterFrom(node *treesitter.Node) (analysis.Parameter, string) {
	param := analysis.Parameter{Type: analysis.PythonUntyped}
	var declaredType string

	nameNode := node
	switch node.Type() {
	case "typed_parameter":
		if children := node.NamedChildren(); len(children) > 0 {
			nameNode = children[0]
		}
	case "default_parameter", "typed_default_parameter":
		nameNode = node.ChildByFieldName("name")
		if value := node.ChildByFieldName("value"); value != nil {
			param.HasDefault = true
			param.Default = analysis.CollapseSpace(value.Content())
		}
	}

	if t := node.ChildByFieldName("type"); t != nil {
		declaredType = analysis.CollapseSpace(t.Content())
		param.Type = declaredType
	}

	if nameNode == nil {
		return param, declaredType
	}

	switch nameNode.Type() {
	case "list_splat_pattern":
		param.Variadic, param.Spread = true, "*"
	case "dictionary_splat_pattern":
		param.Variadic, param.Spread = true, "**"
	}
	param.Name = strings.TrimSpace(strings.TrimLeft(nameNode.Content(), "*"))

	return param, declaredType
}

func renderParameter(param analysis.Parameter, declaredType string) string {
	out := param.Spread + param.Name
	if declaredType != "" {
		out += ": " + declaredType
	}
	if param.HasDefault {
		out += " = " + param.Default
	}
	return out
}

// extractDecorators reads decorators from the enclosing decorated
// definition. "@app.route('/x')" yields name "app.route" with arguments
// "'/x'".
func extractDecorators(fn *treesitter.Node) []analysis.Annotation {
	annotations := []analysis.Annotation{}

	parent := fn.Parent()
	if parent == nil || parent.Type() != "decorated_definition" {
		return annotations
	}

	for _, child := range parent.NamedChildren() {
		if child.Type() != "decorator" {
			continue
		}
		exprs := child.NamedChildren()
		if len(exprs) == 0 {
			continue
		}
		expr := exprs[0]

		if expr.Type() == "call" {
			callee := expr.ChildByFieldName("function")
			args := expr.ChildByFieldName("arguments")
			if callee != nil {
				annotations = append(annotations, analysis.Annotation{
					Name:      analysis.CollapseSpace(callee.Content()),
					Arguments: unwrapArguments(args),
				})
				continue
			}
		}
		annotations = append(annotations, analysis.Annotation{
			Name: analysis.CollapseSpace(expr.Content()),
		})
	}
	return annotations
}

func unwrapArguments(args *treesitter.Node) string {
	if args == nil {
		return ""
	}
	text := strings.TrimSpace(args.Content())
	text = strings.TrimPrefix(text, "(")
	text = strings.TrimSuffix(text, ")")
	return analysis.CollapseSpace(text)
}
