package treesitter

import (
	"sync"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Parser is a tree-sitter parser bound to one compiled grammar. A Parser
// is not safe for concurrent use; share a ParserPool instead.
type Parser struct {
	inner    *sitter.Parser
	language string
}

func NewParser() *Parser {
	return &Parser{inner: sitter.NewParser()}
}

func (p *Parser) SetLanguageByName(name string) error {
	lang, err := LoadLanguage(name)
	if err != nil {
		return err
	}
	if err := p.inner.SetLanguage(lang); err != nil {
		return ErrLanguageNotLoaded
	}
	p.language = name
	return nil
}

func (p *Parser) Language() string {
	return p.language
}

// Parse builds a syntax tree for content. Syntax errors do not fail the
// parse; they surface as error nodes in the tree.
func (p *Parser) Parse(content []byte) (*Tree, error) {
	if p.language == "" {
		return nil, ErrLanguageNotLoaded
	}
	tree := p.inner.Parse(content, nil)
	if tree == nil {
		return nil, ErrParseFailed
	}
	return &Tree{inner: tree, source: content}, nil
}

func (p *Parser) ParseString(content string) (*Tree, error) {
	return p.Parse([]byte(content))
}

func (p *Parser) Reset() {
	p.inner.Reset()
}

func (p *Parser) Close() {
	p.inner.Close()
}

// ParserPool hands out parsers per language and keeps a bounded number of
// idle ones for reuse.
type ParserPool struct {
	parsers map[string]*parserPoolEntry
	maxIdle int
	mu      sync.Mutex
}

type parserPoolEntry struct {
	idle   []*Parser
	active int
}

type ParserPoolConfig struct {
	MaxIdleParsersPerLanguage int
}

func NewParserPool() *ParserPool {
	return NewParserPoolWithConfig(ParserPoolConfig{
		MaxIdleParsersPerLanguage: 4,
	})
}

func NewParserPoolWithConfig(cfg ParserPoolConfig) *ParserPool {
	return &ParserPool{
		parsers: make(map[string]*parserPoolEntry),
		maxIdle: cfg.MaxIdleParsersPerLanguage,
	}
}

func (p *ParserPool) Get(languageName string) (*Parser, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	entry, ok := p.parsers[languageName]
	if !ok {
		entry = &parserPoolEntry{idle: make([]*Parser, 0, p.maxIdle)}
		p.parsers[languageName] = entry
	}

	if n := len(entry.idle); n > 0 {
		parser := entry.idle[n-1]
		entry.idle = entry.idle[:n-1]
		entry.active++
		return parser, nil
	}

	parser := NewParser()
	if err := parser.SetLanguageByName(languageName); err != nil {
		parser.Close()
		return nil, err
	}
	entry.active++
	return parser, nil
}

func (p *ParserPool) Put(parser *Parser) {
	if parser == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	entry := p.parsers[parser.Language()]
	if entry == nil {
		parser.Close()
		return
	}

	entry.active--
	if len(entry.idle) >= p.maxIdle {
		parser.Close()
		return
	}

	parser.Reset()
	entry.idle = append(entry.idle, parser)
}

// Parse borrows a parser for languageName, parses content and returns the
// parser to the pool.
func (p *ParserPool) Parse(languageName string, content []byte) (*Tree, error) {
	parser, err := p.Get(languageName)
	if err != nil {
		return nil, err
	}
	defer p.Put(parser)
	return parser.Parse(content)
}

func (p *ParserPool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, entry := range p.parsers {
		for _, parser := range entry.idle {
			parser.Close()
		}
		entry.idle = nil
	}
	p.parsers = make(map[string]*parserPoolEntry)
	return nil
}

func (p *ParserPool) Stats() map[string]ParserPoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	stats := make(map[string]ParserPoolStats)
	for name, entry := range p.parsers {
		stats[name] = ParserPoolStats{
			Idle:   len(entry.idle),
			Active: entry.active,
		}
	}
	return stats
}

type ParserPoolStats struct {
	Idle   int `json:"idle"`
	Active int `json:"active"`
}
