package analyzer

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/adalundhe/flowprompt/core/analysis"
)

var languageTags = map[string]analysis.Language{
	"python": analysis.Python,
	"py":     analysis.Python,
	".py":    analysis.Python,
	".pyi":   analysis.Python,
	"java":   analysis.Java,
	".java":  analysis.Java,
}

// ParseLanguage resolves a language name, short tag or file extension.
// Matching ignores case and surrounding space.
func ParseLanguage(tag string) (analysis.Language, error) {
	if lang, ok := languageTags[strings.ToLower(strings.TrimSpace(tag))]; ok {
		return lang, nil
	}
	return "", analysis.NewError(analysis.KindUnsupportedLanguage,
		fmt.Sprintf("unsupported language %q", tag), nil)
}

// DetectLanguage infers the language of path from its extension.
func DetectLanguage(path string) (analysis.Language, bool) {
	ext := filepath.Ext(path)
	if ext == "" {
		return "", false
	}
	lang, err := ParseLanguage(ext)
	return lang, err == nil
}
