package java

import (
	"regexp"

	"github.com/adalundhe/flowprompt/core/analysis"
)

var (
	importPattern = regexp.MustCompile(`\bimport\s+(?:static\s+)?([\w.$]+(?:\.\*)?)\s*;`)
	callPattern   = regexp.MustCompile(`([\w$]+(?:\s*\.\s*[\w$]+)*)\s*\(`)
)

// Java keywords that precede a parenthesis but are not calls.
var notCalls = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "catch": true,
	"synchronized": true, "return": true, "throw": true, "try": true,
	"new": true, "super": true, "this": true, "assert": true,
}

// extractDependencies scans the whole input. Declarations match the call
// pattern too; the set is a hint, not a call graph.
func extractDependencies(src source) analysis.DependencySet {
	var imports, calls []string
	for _, m := range importPattern.FindAllStringSubmatch(src.mask, -1) {
		imports = append(imports, m[1])
	}
	for _, m := range callPattern.FindAllStringSubmatch(src.mask, -1) {
		name := removeSpaces(m[1])
		if notCalls[name] {
			continue
		}
		calls = append(calls, name)
	}
	return analysis.NewDependencySet(imports, calls)
}

func removeSpaces(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != ' ' {
			out = append(out, s[i])
		}
	}
	return string(out)
}
