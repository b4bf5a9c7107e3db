package treesitter

import (
	"path/filepath"
	"strings"
	"unsafe"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
)

// Grammars are compiled in; there is no runtime download or dlopen step.
var grammars = map[string]func() unsafe.Pointer{
	"python": tree_sitter_python.Language,
}

var extensions = map[string]string{
	".py":  "python",
	".pyi": "python",
}

// LoadLanguage returns the grammar registered under name.
func LoadLanguage(name string) (*sitter.Language, error) {
	load, ok := grammars[name]
	if !ok {
		return nil, ErrGrammarNotFound
	}
	return sitter.NewLanguage(load()), nil
}

// SupportedLanguages lists the names accepted by LoadLanguage.
func SupportedLanguages() []string {
	names := make([]string, 0, len(grammars))
	for name := range grammars {
		names = append(names, name)
	}
	return names
}

func DetectLanguageForFile(path string) (string, bool) {
	name, ok := extensions[strings.ToLower(filepath.Ext(path))]
	return name, ok
}
