package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/adalundhe/flowprompt/core/analysis"
	"github.com/adalundhe/flowprompt/core/analyzer"
)

// stdinPath selects standard input as the source.
const stdinPath = "-"

type sourceFile struct {
	Path     string
	Text     string
	Language analysis.Language
}

func (s *sourceFile) Name() string {
	if s.Path == stdinPath {
		return "<stdin>"
	}
	return s.Path
}

// readSource loads path, or stdin for "-", and resolves its language.
func readSource(cmd *cobra.Command, path string) (*sourceFile, error) {
	var (
		data []byte
		err  error
	)
	if path == stdinPath {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}

	lang, err := resolveLanguage(path, rootLanguage, app.manager.Get().Analysis.DefaultLanguage)
	if err != nil {
		return nil, err
	}
	return &sourceFile{Path: path, Text: string(data), Language: lang}, nil
}

// resolveLanguage prefers an explicit tag, then the file extension, then
// the configured default.
func resolveLanguage(path, explicit, fallback string) (analysis.Language, error) {
	if explicit != "" {
		return analyzer.ParseLanguage(explicit)
	}
	if lang, ok := analyzer.DetectLanguage(path); ok {
		return lang, nil
	}
	return analyzer.ParseLanguage(fallback)
}
