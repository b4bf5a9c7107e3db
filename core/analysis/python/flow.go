package python

import (
	"github.com/adalundhe/flowprompt/core/analysis"
	"github.com/adalundhe/flowprompt/core/treesitter"
)

// Statements that can never hold a nested block.
var simpleStatements = map[string]bool{
	"expression_statement":  true,
	"pass_statement":        true,
	"break_statement":       true,
	"continue_statement":    true,
	"assert_statement":      true,
	"delete_statement":      true,
	"global_statement":      true,
	"nonlocal_statement":    true,
	"import_statement":      true,
	"import_from_statement": true,
	"print_statement":       true,
	"exec_statement":        true,
	"type_alias_statement":  true,
}

var definitions = map[string]bool{
	"function_definition":  true,
	"class_definition":     true,
	"decorated_definition": true,
	"lambda":               true,
}

// walkBlock builds the flow inventory of a function body.
func walkBlock(body *treesitter.Node, depth int) []analysis.FlowNode {
	return walkNodes([]*treesitter.Node{body}, depth)
}

// walkNodes classifies items in order. Items are blocks, statements, or
// the clauses of a compound statement. Past analysis.MaxFlowDepth the rest
// of the subtree is flattened.
func walkNodes(items []*treesitter.Node, depth int) []analysis.FlowNode {
	if depth >= analysis.MaxFlowDepth {
		return flatten(items)
	}

	out := []analysis.FlowNode{}
	for _, item := range items {
		if item.Type() == "block" {
			out = append(out, walkNodes(item.NamedChildren(), depth)...)
			continue
		}

		node, inner := classify(item)
		if node == nil {
			out = append(out, walkNodes(inner, depth+1)...)
			continue
		}
		if len(inner) > 0 {
			setBody(node, walkNodes(inner, depth+1))
		}
		out = append(out, node)
	}
	return out
}

// flatten lists every construct under items in pre-order without nesting.
func flatten(items []*treesitter.Node) []analysis.FlowNode {
	out := []analysis.FlowNode{}
	stack := make([]*treesitter.Node, 0, len(items))
	push := func(nodes []*treesitter.Node) {
		for i := len(nodes) - 1; i >= 0; i-- {
			stack = append(stack, nodes[i])
		}
	}
	push(items)

	for len(stack) > 0 {
		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if item.Type() == "block" {
			push(item.NamedChildren())
			continue
		}
		node, inner := classify(item)
		if node != nil {
			out = append(out, node)
		}
		push(inner)
	}
	return out
}

// classify maps one statement or clause to its flow node, if any, and
// returns the nodes holding its nested statements.
func classify(n *treesitter.Node) (analysis.FlowNode, []*treesitter.Node) {
	switch n.Type() {
	case "if_statement":
		alternatives := clauses(n, "elif_clause", "else_clause")
		node := &analysis.Conditional{
			Condition: fieldText(n, "condition"),
			HasElse:   len(alternatives) > 0,
		}
		inner := fields(n, "consequence")
		if len(alternatives) > 0 {
			inner = append(inner, alternatives[0])
		}
		return node, inner

	case "elif_clause":
		next := nextAlternative(n)
		node := &analysis.Conditional{
			Condition: fieldText(n, "condition"),
			HasElse:   next != nil,
		}
		inner := fields(n, "consequence")
		if next != nil {
			inner = append(inner, next)
		}
		return node, inner

	case "else_clause", "finally_clause":
		return nil, innerBlocks(n)

	case "for_statement":
		return &analysis.ForLoop{
			Header: fieldText(n, "left") + " in " + fieldText(n, "right"),
		}, fields(n, "body", "alternative")

	case "while_statement":
		return &analysis.WhileLoop{
			Condition: fieldText(n, "condition"),
		}, fields(n, "body", "alternative")

	case "try_statement":
		node := &analysis.TryCatch{Exceptions: []string{}}
		inner := fields(n, "body")
		for _, clause := range n.NamedChildren() {
			switch clause.Type() {
			case "except_clause", "except_group_clause":
				node.Exceptions = append(node.Exceptions, handlerType(clause))
			case "finally_clause":
				node.HasFinally = true
			case "else_clause":
			default:
				continue
			}
			inner = append(inner, clause)
		}
		return node, inner

	case "raise_statement":
		exception := analysis.PythonReraise
		if children := n.NamedChildren(); len(children) > 0 {
			exception = analysis.CollapseSpace(children[0].Content())
		}
		return &analysis.Throw{Exception: exception}, nil

	case "return_statement":
		value := analysis.PythonNoValue
		if children := n.NamedChildren(); len(children) > 0 {
			value = analysis.CollapseSpace(children[0].Content())
		}
		return &analysis.Return{Value: value}, nil
	}

	if definitions[n.Type()] || simpleStatements[n.Type()] {
		return nil, nil
	}
	// with, match, case and handler clauses are transparent.
	return nil, innerBlocks(n)
}

func setBody(node analysis.FlowNode, body []analysis.FlowNode) {
	for _, child := range body {
		analysis.AppendChild(node, child)
	}
}

// handlerType names the exception an except clause catches, unwrapping
// "T as e". A bare except catches Exception.
func handlerType(clause *treesitter.Node) string {
	value := clause.ChildByFieldName("value")
	if value == nil {
		for _, child := range clause.NamedChildren() {
			if child.Type() != "block" {
				value = child
			}
			break
		}
	}
	if value == nil {
		return analysis.PythonAnyHandler
	}
	if value.Type() == "as_pattern" {
		if children := value.NamedChildren(); len(children) > 0 {
			value = children[0]
		}
	}
	return analysis.CollapseSpace(value.Content())
}

// innerBlocks finds the blocks directly owned by n without entering nested
// blocks or definitions.
func innerBlocks(n *treesitter.Node) []*treesitter.Node {
	var blocks []*treesitter.Node
	first := true
	n.Walk(func(node *treesitter.Node) bool {
		if first {
			first = false
			return true
		}
		if node.Type() == "block" {
			blocks = append(blocks, node)
			return false
		}
		return !definitions[node.Type()]
	})
	return blocks
}

func clauses(n *treesitter.Node, kinds ...string) []*treesitter.Node {
	var out []*treesitter.Node
	for _, child := range n.NamedChildren() {
		for _, kind := range kinds {
			if child.Type() == kind {
				out = append(out, child)
				break
			}
		}
	}
	return out
}

func nextAlternative(n *treesitter.Node) *treesitter.Node {
	for sib := n.NextNamedSibling(); sib != nil; sib = sib.NextNamedSibling() {
		switch sib.Type() {
		case "elif_clause", "else_clause":
			return sib
		case "comment":
			continue
		}
		return nil
	}
	return nil
}

func fields(n *treesitter.Node, names ...string) []*treesitter.Node {
	var out []*treesitter.Node
	for _, name := range names {
		if child := n.ChildByFieldName(name); child != nil {
			out = append(out, child)
		}
	}
	return out
}

func fieldText(n *treesitter.Node, name string) string {
	if child := n.ChildByFieldName(name); child != nil {
		return analysis.CollapseSpace(child.Content())
	}
	return ""
}
