package java

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/dlclark/regexp2"

	"github.com/adalundhe/flowprompt/core/analysis"
)

// DefaultMatchTimeout bounds a single declaration search.
const DefaultMatchTimeout = 2 * time.Second

const modifierAlternation = `public|private|protected|static|final|abstract|synchronized|native|strictfp|default`

// A method declaration: annotations, modifiers, an optional generic
// parameter list, a return type, the name and an opening parenthesis.
// Group 1 is the return type, group 2 the name. The lookahead keeps
// keywords and modifiers out of the type slot; the lookbehind rejects
// matches that start inside an identifier or member access.
const methodExpr = `(?<![\w$.@])` +
	`(?:@[\w.$]+(?:\s*\([^)]*\))?\s*)*` +
	`(?:(?:` + modifierAlternation + `)\s+)*` +
	`(?:<(?:[^<>]|<(?:[^<>]|<[^<>]*>)*>)*>\s*)?` +
	`(?!(?:class|interface|enum|record|return|new|throw|else|case|` + modifierAlternation + `)\b)` +
	`([\w$]+(?:\.[\w$]+)*(?:\s*<(?:[^<>]|<(?:[^<>]|<[^<>]*>)*>)*>)?(?:\s*\[\s*\])*(?:\.\.\.)?)` +
	`\s+([\w$]+)\s*\(`

var throwsClause = regexp.MustCompile(`^\s*throws\s+([^{;]+)`)

func compileMethodPattern(timeout time.Duration) *regexp2.Regexp {
	re := regexp2.MustCompile(methodExpr, regexp2.None)
	if timeout > 0 {
		re.MatchTimeout = timeout
	}
	return re
}

// declaration is a located method. Offsets index source.text.
type declaration struct {
	start  int
	head   string // annotations, modifiers and return type
	name   string
	params string
	throws string
	end    int // just past the parameter list or throws clause
}

func (d *declaration) text(src source) string {
	return strings.TrimSpace(src.text[d.start:d.end])
}

// body returns the method body without its braces. ok is false when the
// declaration is not followed by '{'. An unterminated body runs to the
// end of input.
func (d *declaration) body(src source) (source, bool) {
	open := skipSpace(src.mask, d.end)
	if open >= len(src.mask) || src.mask[open] != '{' {
		return source{}, false
	}
	if close := matchClose(src.mask, open, '{', '}'); close >= 0 {
		return src.slice(open+1, close), true
	}
	return src.slice(open+1, len(src.mask)), true
}

// locate finds the first method declaration in src.
func locate(re *regexp2.Regexp, src source) (*declaration, error) {
	if src.text == "" {
		return nil, analysis.NoFunctionFound(analysis.Java)
	}

	m, err := re.FindStringMatch(src.mask)
	if err != nil {
		return nil, analysis.Unparsable(analysis.Java, fmt.Errorf("declaration search: %w", err))
	}
	if m == nil {
		return nil, analysis.NoFunctionFound(analysis.Java)
	}

	group := m.GroupByNumber(2)
	start := byteOffset(src.mask, m.Index)
	nameStart := byteOffset(src.mask, group.Index)
	nameEnd := nameStart + len(group.String())

	open := strings.IndexByte(src.mask[nameEnd:], '(') + nameEnd
	params, after := src.inside(open, '(', ')')

	decl := &declaration{
		start:  start,
		head:   strings.TrimSpace(src.text[start:nameStart]),
		name:   src.text[nameStart:nameEnd],
		params: params,
		end:    after,
	}
	if loc := throwsClause.FindStringSubmatchIndex(src.mask[after:]); loc != nil {
		decl.throws = strings.TrimSpace(src.text[after+loc[2] : after+loc[3]])
		decl.end = after + loc[3]
	}
	return decl, nil
}

// byteOffset converts a rune index into s to a byte offset.
func byteOffset(s string, runeIndex int) int {
	n := 0
	for i := range s {
		if n == runeIndex {
			return i
		}
		n++
	}
	return len(s)
}
