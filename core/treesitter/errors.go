package treesitter

import "errors"

var (
	ErrParseFailed       = errors.New("parse failed")
	ErrLanguageNotLoaded = errors.New("language grammar not loaded")
	ErrGrammarNotFound   = errors.New("grammar not found")
)
