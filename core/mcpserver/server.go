// Package mcpserver exposes the analyzers and the prompt generator as Model
// Context Protocol tools.
package mcpserver

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/adalundhe/flowprompt/core/analysis"
	"github.com/adalundhe/flowprompt/core/analyzer"
	"github.com/adalundhe/flowprompt/core/prompt"
)

const instructions = `Analyze a single Python or Java function and build a prompt asking a
language model for its unit tests. Pass the function source as "code". Use
analyze_and_generate_complete for everything in one call.`

type Options struct {
	Name    string
	Version string

	Analyzer  *analyzer.Analyzer
	Generator *prompt.Generator

	// DefaultLanguage applies when a call omits language. Defaults to python.
	DefaultLanguage analysis.Language

	// NewID generates request ids for log correlation. Defaults to uuid.NewString.
	NewID func() string

	Logger *slog.Logger
}

// Server owns the MCP server and the components its tools call.
type Server struct {
	mcp       *mcp.Server
	analyzer  *analyzer.Analyzer
	generator atomic.Pointer[prompt.Generator]
	language  analysis.Language
	newID     func() string
	logger    *slog.Logger
}

func New(opts Options) (*Server, error) {
	if opts.Analyzer == nil {
		return nil, errors.New("mcpserver: analyzer is required")
	}
	if opts.Generator == nil {
		return nil, errors.New("mcpserver: prompt generator is required")
	}
	if opts.Name == "" {
		opts.Name = "flowprompt"
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}
	if opts.DefaultLanguage == "" {
		opts.DefaultLanguage = analysis.Python
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	s := &Server{
		analyzer: opts.Analyzer,
		language: opts.DefaultLanguage,
		newID:    opts.NewID,
		logger:   opts.Logger.With("component", "mcpserver"),
	}
	s.generator.Store(opts.Generator)

	s.mcp = mcp.NewServer(&mcp.Implementation{
		Name:    opts.Name,
		Title:   "Function flow and test prompt tools",
		Version: opts.Version,
	}, &mcp.ServerOptions{Instructions: instructions})
	s.registerTools()

	return s, nil
}

// MCP returns the underlying server, for callers that bring their own
// transport.
func (s *Server) MCP() *mcp.Server {
	return s.mcp
}

// SetGenerator swaps the prompt generator used by later calls.
func (s *Server) SetGenerator(g *prompt.Generator) {
	if g != nil {
		s.generator.Store(g)
	}
}

// Run serves over stdin and stdout until the client disconnects or ctx is
// done.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("serving over stdio", "languages", s.analyzer.Languages())
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}
