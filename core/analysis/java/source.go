package java

import (
	"strings"

	"github.com/adalundhe/flowprompt/core/analysis"
)

// source is comment-free, whitespace-collapsed Java text plus a mask of
// the same byte length in which string and char literal contents are
// blanked. Structural scans run on mask; extracted text comes from text.
type source struct {
	text string
	mask string
}

func prepare(code string) source {
	text := analysis.CollapseSpace(stripComments(code))
	return source{text: text, mask: maskLiterals(text)}
}

func (s source) slice(start, end int) source {
	return source{text: s.text[start:end], mask: s.mask[start:end]}
}

// stripComments removes line and block comments outside literals. A block
// comment becomes a single space so adjacent tokens stay separated.
func stripComments(code string) string {
	out := make([]byte, 0, len(code))
	var quote byte

	for i := 0; i < len(code); i++ {
		c := code[i]

		if quote != 0 {
			out = append(out, c)
			switch c {
			case '\\':
				if i+1 < len(code) {
					i++
					out = append(out, code[i])
				}
			case quote, '\n':
				quote = 0
			}
			continue
		}

		switch {
		case c == '"' || c == '\'':
			quote = c
			out = append(out, c)
		case c == '/' && i+1 < len(code) && code[i+1] == '/':
			for i < len(code) && code[i] != '\n' {
				i++
			}
			if i < len(code) {
				out = append(out, '\n')
			}
		case c == '/' && i+1 < len(code) && code[i+1] == '*':
			i += 2
			for i < len(code) && !(code[i] == '*' && i+1 < len(code) && code[i+1] == '/') {
				i++
			}
			i++
			out = append(out, ' ')
		default:
			out = append(out, c)
		}
	}
	return string(out)
}

func maskLiterals(text string) string {
	out := []byte(text)
	var quote byte

	for i := 0; i < len(out); i++ {
		c := out[i]
		if quote == 0 {
			if c == '"' || c == '\'' {
				quote = c
			}
			continue
		}
		switch c {
		case quote:
			quote = 0
		case '\\':
			out[i] = ' '
			if i+1 < len(out) {
				i++
				out[i] = ' '
			}
		default:
			out[i] = ' '
		}
	}
	return string(out)
}

func skipSpace(s string, pos int) int {
	for pos < len(s) && s[pos] == ' ' {
		pos++
	}
	return pos
}

func isWordByte(c byte) bool {
	return c == '_' || c == '$' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

// wordAt returns the identifier starting at pos.
func wordAt(s string, pos int) string {
	end := pos
	for end < len(s) && isWordByte(s[end]) {
		end++
	}
	return s[pos:end]
}

// matchClose returns the index of the delimiter closing the one at open,
// or -1 when s ends first.
func matchClose(s string, open int, o, c byte) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case o:
			depth++
		case c:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// closeAfter returns the index just past the delimiter closing the one at
// open. Unbalanced input runs to the end of s.
func closeAfter(s string, open int, o, c byte) int {
	if i := matchClose(s, open, o, c); i >= 0 {
		return i + 1
	}
	return len(s)
}

// inside returns the trimmed text between the delimiter at open and its
// match, and the index just past the match.
func (s source) inside(open int, o, c byte) (string, int) {
	i := matchClose(s.mask, open, o, c)
	if i < 0 {
		return strings.TrimSpace(s.text[open+1:]), len(s.text)
	}
	return strings.TrimSpace(s.text[open+1 : i]), i + 1
}

// semicolonEnd returns the index just past the statement ending at the
// first top-level ';' from pos. A closing brace of the enclosing block
// also ends the statement.
func semicolonEnd(s string, pos int) int {
	depth := 0
	for i := pos; i < len(s); i++ {
		switch s[i] {
		case '(', '[', '{':
			depth++
		case ')', ']':
			depth--
		case '}':
			if depth == 0 {
				return i
			}
			depth--
		case ';':
			if depth <= 0 {
				return i + 1
			}
		}
	}
	return len(s)
}
