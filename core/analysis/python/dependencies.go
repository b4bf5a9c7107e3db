package python

import (
	"strings"

	"github.com/adalundhe/flowprompt/core/analysis"
	"github.com/adalundhe/flowprompt/core/treesitter"
)

// extractDependencies collects imports and call targets from the whole
// module, including code outside the located function.
func extractDependencies(root *treesitter.Node) analysis.DependencySet {
	var imports, calls []string

	root.Walk(func(n *treesitter.Node) bool {
		switch n.Type() {
		case "import_statement":
			imports = append(imports, plainImports(n)...)
			return false
		case "import_from_statement":
			imports = append(imports, fromImports(n)...)
			return false
		case "future_import_statement":
			for _, child := range n.NamedChildren() {
				if name := importedName(child); name != "" {
					imports = append(imports, "__future__."+name)
				}
			}
			return false
		case "call":
			if callee := n.ChildByFieldName("function"); callee != nil {
				switch callee.Type() {
				case "identifier", "attribute":
					calls = append(calls, strings.Join(strings.Fields(callee.Content()), ""))
				}
			}
		}
		return true
	})

	return analysis.NewDependencySet(imports, calls)
}

// "import a.b as c" records "a.b".
func plainImports(n *treesitter.Node) []string {
	var out []string
	for _, child := range n.NamedChildren() {
		out = append(out, importedName(child))
	}
	return out
}

// "from m import x" records "m.x"; relative prefixes are dropped, so
// "from . import x" records ".x".
func fromImports(n *treesitter.Node) []string {
	module := n.ChildByFieldName("module_name")
	prefix := ""
	if module != nil {
		prefix = strings.TrimLeft(module.Content(), ".")
	}

	var out []string
	for _, child := range n.NamedChildren() {
		if child.Same(module) {
			continue
		}
		if child.Type() == "wildcard_import" {
			out = append(out, prefix+".*")
			continue
		}
		if name := importedName(child); name != "" {
			out = append(out, prefix+"."+name)
		}
	}
	return out
}

func importedName(n *treesitter.Node) string {
	switch n.Type() {
	case "dotted_name":
		return n.Content()
	case "aliased_import":
		if name := n.ChildByFieldName("name"); name != nil {
			return name.Content()
		}
	}
	return ""
}
