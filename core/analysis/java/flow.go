package java

import (
	"regexp"
	"strings"

	"github.com/adalundhe/flowprompt/core/analysis"
)

// ElseWindow is how far past an if keyword the else lookahead reaches. An
// unrelated later else inside the window still counts.
const ElseWindow = 200

const anyException = "Exception"

var (
	flowKeyword  = regexp.MustCompile(`\b(if|for|while|do|try|throw|return)\b`)
	newException = regexp.MustCompile(`^new\s+([\w.$]+)`)
)

// span is a classified construct and the body bytes it covers.
type span struct {
	node       analysis.FlowNode
	start, end int
}

// walker scans one method body. Statement ends are memoized so nested
// constructs are measured once.
type walker struct {
	src  source
	ends map[int]int
	// trailing "while" keywords of do-while loops, already consumed.
	consumed map[int]bool
}

func walkBody(body source) []analysis.FlowNode {
	w := &walker{src: body, ends: map[int]int{}, consumed: map[int]bool{}}
	return nest(w.spans())
}

func (w *walker) spans() []span {
	var out []span
	mask, text := w.src.mask, w.src.text

	for _, loc := range flowKeyword.FindAllStringSubmatchIndex(mask, -1) {
		pos, after := loc[0], loc[1]
		if pos > 0 && (mask[pos-1] == '.' || mask[pos-1] == '$' || mask[pos-1] == '@') {
			continue
		}
		if after < len(mask) && mask[after] == '$' {
			continue
		}

		switch mask[pos:after] {
		case "if":
			open := skipSpace(mask, after)
			if open >= len(mask) || mask[open] != '(' {
				continue
			}
			cond, _ := w.src.inside(open, '(', ')')
			out = append(out, span{
				node: &analysis.Conditional{
					Condition: cond,
					HasElse:   strings.Contains(text[pos:min(pos+ElseWindow, len(text))], "else"),
				},
				start: pos,
				end:   w.stmtEnd(pos),
			})

		case "for":
			open := skipSpace(mask, after)
			if open >= len(mask) || mask[open] != '(' {
				continue
			}
			header, _ := w.src.inside(open, '(', ')')
			out = append(out, span{node: &analysis.ForLoop{Header: header}, start: pos, end: w.stmtEnd(pos)})

		case "while":
			if w.consumed[pos] {
				continue
			}
			open := skipSpace(mask, after)
			if open >= len(mask) || mask[open] != '(' {
				continue
			}
			cond, _ := w.src.inside(open, '(', ')')
			out = append(out, span{node: &analysis.WhileLoop{Condition: cond}, start: pos, end: w.stmtEnd(pos)})

		case "do":
			end := w.stmtEnd(pos)
			loop := &analysis.WhileLoop{}
			if tail := skipSpace(mask, w.stmtEnd(after)); wordAt(mask, tail) == "while" {
				w.consumed[tail] = true
				if open := skipSpace(mask, tail+len("while")); open < len(mask) && mask[open] == '(' {
					loop.Condition, _ = w.src.inside(open, '(', ')')
				}
			}
			out = append(out, span{node: loop, start: pos, end: end})

		case "try":
			out = append(out, span{node: w.tryCatch(pos), start: pos, end: w.stmtEnd(pos)})

		case "throw":
			end := semicolonEnd(mask, after)
			out = append(out, span{
				node:  &analysis.Throw{Exception: thrownName(statementText(text, after, end))},
				start: pos,
				end:   end,
			})

		case "return":
			end := semicolonEnd(mask, after)
			value := statementText(text, after, end)
			if value == "" {
				value = analysis.JavaVoid
			}
			out = append(out, span{node: &analysis.Return{Value: value}, start: pos, end: end})
		}
	}
	return out
}

// nest attaches each span to the innermost open container that covers it.
// Past analysis.MaxFlowDepth containers stop opening, so deeper constructs
// attach flat to the deepest one. Spans inside a return or throw
// expression, such as lambda bodies, belong to that statement and are
// dropped.
func nest(spans []span) []analysis.FlowNode {
	roots := []analysis.FlowNode{}
	var open []span
	leafEnd := -1

	for _, s := range spans {
		if s.start < leafEnd {
			continue
		}
		for len(open) > 0 && s.start >= open[len(open)-1].end {
			open = open[:len(open)-1]
		}
		if len(open) == 0 {
			roots = append(roots, s.node)
		} else {
			analysis.AppendChild(open[len(open)-1].node, s.node)
		}
		if !analysis.IsContainer(s.node) {
			leafEnd = s.end
		} else if len(open) < analysis.MaxFlowDepth {
			open = append(open, s)
		}
	}
	return roots
}

// tryCatch reads the catch arms and finally clause of the try at pos.
func (w *walker) tryCatch(pos int) *analysis.TryCatch {
	mask := w.src.mask
	node := &analysis.TryCatch{Exceptions: []string{}}

	p := skipSpace(mask, pos+len("try"))
	if p < len(mask) && mask[p] == '(' {
		p = closeAfter(mask, p, '(', ')')
	}
	p = w.stmtEnd(p)

	for {
		q := skipSpace(mask, p)
		switch wordAt(mask, q) {
		case "catch":
			open := skipSpace(mask, q+len("catch"))
			if open >= len(mask) || mask[open] != '(' {
				return node
			}
			param, after := w.src.inside(open, '(', ')')
			node.Exceptions = append(node.Exceptions, caughtType(param))
			p = w.stmtEnd(after)
		case "finally":
			node.HasFinally = true
			return node
		default:
			return node
		}
	}
}

// stmtEnd returns the index just past the statement starting at or after
// pos, including else branches and catch or finally clauses.
func (w *walker) stmtEnd(pos int) int {
	mask := w.src.mask
	pos = skipSpace(mask, pos)
	if pos >= len(mask) {
		return len(mask)
	}
	if end, ok := w.ends[pos]; ok {
		return end
	}
	// Provisional entry bounds recursion on malformed input.
	w.ends[pos] = len(mask)

	var end int
	switch word := wordAt(mask, pos); {
	case mask[pos] == '{':
		end = closeAfter(mask, pos, '{', '}')
	case mask[pos] == ';':
		end = pos + 1
	case word == "if":
		end = w.stmtEnd(w.afterParens(pos + len(word)))
		if next := skipSpace(mask, end); wordAt(mask, next) == "else" {
			end = w.stmtEnd(next + len("else"))
		}
	case word == "for" || word == "while" || word == "switch" || word == "synchronized":
		end = w.stmtEnd(w.afterParens(pos + len(word)))
	case word == "do":
		end = w.stmtEnd(pos + len(word))
		if next := skipSpace(mask, end); wordAt(mask, next) == "while" {
			end = semicolonEnd(mask, w.afterParens(next+len("while")))
		}
	case word == "try":
		p := w.afterParens(pos + len(word))
		end = w.stmtEnd(p)
		for {
			next := skipSpace(mask, end)
			switch wordAt(mask, next) {
			case "catch":
				end = w.stmtEnd(w.afterParens(next + len("catch")))
				continue
			case "finally":
				end = w.stmtEnd(next + len("finally"))
			}
			break
		}
	default:
		end = semicolonEnd(mask, pos)
	}

	w.ends[pos] = end
	return end
}

// afterParens skips a parenthesized group at pos, if there is one.
func (w *walker) afterParens(pos int) int {
	mask := w.src.mask
	pos = skipSpace(mask, pos)
	if pos < len(mask) && mask[pos] == '(' {
		return closeAfter(mask, pos, '(', ')')
	}
	return pos
}

func statementText(text string, start, end int) string {
	s := strings.TrimSpace(text[start:end])
	return strings.TrimSpace(strings.TrimSuffix(s, ";"))
}

// thrownName reduces "new T(...)" to T; any other expression is kept.
func thrownName(expr string) string {
	if m := newException.FindStringSubmatch(expr); m != nil {
		return m[1]
	}
	return expr
}

// caughtType drops modifiers, annotations and the variable name from a
// catch parameter. Multi-catch text is kept whole.
func caughtType(param string) string {
	rest, _ := stripAnnotations(param)
	fields := strings.Fields(rest)
	for len(fields) > 0 && fields[0] == "final" {
		fields = fields[1:]
	}
	switch len(fields) {
	case 0:
		return anyException
	case 1:
		return fields[0]
	}
	return strings.Join(fields[:len(fields)-1], " ")
}
