package analysis

import (
	"fmt"
	"strings"
)

// Complexity returns the cyclomatic complexity of a flow inventory: one
// plus one per conditional and loop, plus one per handler arm of every
// try construct, accumulated through nested bodies.
func Complexity(flow []FlowNode) int {
	score := 1
	for _, node := range flow {
		score += branchPoints(node)
		if children := node.Children(); len(children) > 0 {
			score += Complexity(children) - 1
		}
	}
	return score
}

func branchPoints(node FlowNode) int {
	switch n := node.(type) {
	case *Conditional, *ForLoop, *WhileLoop:
		return 1
	case *TryCatch:
		return len(n.Exceptions)
	}
	return 0
}

// Summarize renders the top-level flow as an arrow-joined trace. Nested
// nodes are not expanded.
func Summarize(language Language, flow []FlowNode) string {
	if len(flow) == 0 {
		return LinearFlowSummary
	}

	tryToken, throwToken := "TRY-CATCH", "THROW"
	if language == Python {
		tryToken, throwToken = "TRY-EXCEPT", "RAISE"
	}

	parts := make([]string, 0, len(flow))
	for _, node := range flow {
		switch n := node.(type) {
		case *Conditional:
			parts = append(parts, fmt.Sprintf("IF(%s)", n.Condition))
		case *ForLoop:
			parts = append(parts, fmt.Sprintf("FOR(%s)", n.Header))
		case *WhileLoop:
			parts = append(parts, fmt.Sprintf("WHILE(%s)", n.Condition))
		case *TryCatch:
			parts = append(parts, fmt.Sprintf("%s(%s)", tryToken, strings.Join(n.Exceptions, ", ")))
		case *Throw:
			parts = append(parts, fmt.Sprintf("%s(%s)", throwToken, n.Exception))
		case *Return:
			parts = append(parts, fmt.Sprintf("RETURN(%s)", n.Value))
		}
	}
	return strings.Join(parts, " -> ")
}

// Walk visits every node of flow in pre-order.
func Walk(flow []FlowNode, fn func(node FlowNode, depth int)) {
	type frame struct {
		node  FlowNode
		depth int
	}
	stack := make([]frame, 0, len(flow))
	for i := len(flow) - 1; i >= 0; i-- {
		stack = append(stack, frame{flow[i], 0})
	}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		fn(top.node, top.depth)
		children := top.node.Children()
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, frame{children[i], top.depth + 1})
		}
	}
}
