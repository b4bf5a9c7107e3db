package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/adalundhe/flowprompt/core/analysis"
	"github.com/adalundhe/flowprompt/core/analyzer"
	"github.com/adalundhe/flowprompt/core/prompt"
)

const (
	ToolAnalyzeStatic   = "analyze_function_static"
	ToolSummarizeFlow   = "summarize_function_flow"
	ToolGeneratePrompt  = "generate_test_prompt"
	ToolAnalyzeComplete = "analyze_and_generate_complete"
)

type CodeInput struct {
	Code     string `json:"code" jsonschema:"source text containing one Python or Java function"`
	Language string `json:"language,omitempty" jsonschema:"python or java, defaults to python"`
}

type PromptInput struct {
	Code          string `json:"code" jsonschema:"source text containing one Python or Java function"`
	Language      string `json:"language,omitempty" jsonschema:"python or java, defaults to python"`
	TestFramework string `json:"test_framework,omitempty" jsonschema:"pytest, unittest, junit5, junit4 or auto"`
}

// CompleteResult is the combined output of analyze_and_generate_complete.
type CompleteResult struct {
	StaticAnalysis   *analysis.Signature    `json:"static_analysis"`
	FlowAnalysis     *analysis.FlowAnalysis `json:"flow_analysis"`
	PromptGeneration *prompt.Result         `json:"prompt_generation,omitempty"`
	Summary          *CompleteSummary       `json:"summary,omitempty"`
	Error            string                 `json:"error,omitempty"`
}

type CompleteSummary struct {
	FunctionSignature string `json:"function_signature"`
	ComplexityScore   int    `json:"complexity_score"`
	EstimatedTests    int    `json:"estimated_tests"`
	ReadyForLLM       bool   `json:"ready_for_llm"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        ToolAnalyzeStatic,
		Description: "Extract the signature, parameters, return type, exceptions, annotations and dependencies of a function.",
	}, s.handleAnalyzeStatic)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        ToolSummarizeFlow,
		Description: "Inventory the control flow of a function body and score its complexity.",
	}, s.handleSummarizeFlow)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        ToolGeneratePrompt,
		Description: "Build a unit test generation prompt for a function.",
	}, s.handleGeneratePrompt)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        ToolAnalyzeComplete,
		Description: "Run static analysis, flow analysis and prompt generation in one call.",
	}, s.handleAnalyzeComplete)
}

func (s *Server) handleAnalyzeStatic(ctx context.Context, _ *mcp.CallToolRequest, in CodeInput) (*mcp.CallToolResult, any, error) {
	call := s.begin(ToolAnalyzeStatic, in.Language, in.Code)

	lang, err := s.resolveLanguage(in.Language)
	if err != nil {
		return nil, nil, call.done(err)
	}
	sig, err := s.analyzer.ExtractStructure(in.Code, lang)
	if err != nil {
		return nil, nil, call.done(err)
	}
	call.done(nil)
	return nil, sig, nil
}

func (s *Server) handleSummarizeFlow(ctx context.Context, _ *mcp.CallToolRequest, in CodeInput) (*mcp.CallToolResult, any, error) {
	call := s.begin(ToolSummarizeFlow, in.Language, in.Code)

	lang, err := s.resolveLanguage(in.Language)
	if err != nil {
		return nil, nil, call.done(err)
	}
	flow, err := s.analyzer.SummarizeFlow(in.Code, lang)
	if err != nil {
		return nil, nil, call.done(err)
	}
	call.done(nil)
	return nil, flow, nil
}

func (s *Server) handleGeneratePrompt(ctx context.Context, _ *mcp.CallToolRequest, in PromptInput) (*mcp.CallToolResult, any, error) {
	call := s.begin(ToolGeneratePrompt, in.Language, in.Code)

	lang, err := s.resolveLanguage(in.Language)
	if err != nil {
		return nil, nil, call.done(err)
	}
	sig, err := s.analyzer.ExtractStructure(in.Code, lang)
	if err != nil {
		return nil, nil, call.done(err)
	}
	flow, err := s.analyzer.SummarizeFlow(in.Code, lang)
	if err != nil {
		return nil, nil, call.done(err)
	}
	result, err := s.generator.Load().Generate(sig, flow, in.TestFramework)
	if err != nil {
		return nil, nil, call.done(err)
	}
	call.done(nil)
	return nil, result, nil
}

// handleAnalyzeComplete keeps whatever analyses succeeded when a later
// stage fails, and reports the failure in the same payload.
func (s *Server) handleAnalyzeComplete(ctx context.Context, _ *mcp.CallToolRequest, in PromptInput) (*mcp.CallToolResult, any, error) {
	call := s.begin(ToolAnalyzeComplete, in.Language, in.Code)

	lang, err := s.resolveLanguage(in.Language)
	if err != nil {
		return nil, nil, call.done(err)
	}

	var out CompleteResult
	var errs []error

	sig, err := s.analyzer.ExtractStructure(in.Code, lang)
	if err != nil {
		errs = append(errs, fmt.Errorf("static analysis: %w", err))
	}
	out.StaticAnalysis = sig

	flow, err := s.analyzer.SummarizeFlow(in.Code, lang)
	if err != nil {
		errs = append(errs, fmt.Errorf("flow analysis: %w", err))
	}
	out.FlowAnalysis = flow

	if len(errs) == 0 {
		result, err := s.generator.Load().Generate(sig, flow, in.TestFramework)
		if err != nil {
			errs = append(errs, fmt.Errorf("prompt generation: %w", err))
		} else {
			out.PromptGeneration = result
			out.Summary = &CompleteSummary{
				FunctionSignature: sig.Raw,
				ComplexityScore:   flow.Complexity,
				EstimatedTests:    result.Metadata.EstimatedTests,
				ReadyForLLM:       true,
			}
		}
	}

	if len(errs) > 0 {
		err := errors.Join(errs...)
		call.done(err)
		out.Error = err.Error()
		return partialResult(out), nil, nil
	}
	call.done(nil)
	return nil, out, nil
}

func partialResult(out CompleteResult) *mcp.CallToolResult {
	data, err := json.Marshal(out)
	if err != nil {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{&mcp.TextContent{Text: out.Error}},
		}
	}
	return &mcp.CallToolResult{
		IsError:           true,
		Content:           []mcp.Content{&mcp.TextContent{Text: string(data)}},
		StructuredContent: json.RawMessage(data),
	}
}

func (s *Server) resolveLanguage(tag string) (analysis.Language, error) {
	if strings.TrimSpace(tag) == "" {
		return s.language, nil
	}
	return analyzer.ParseLanguage(tag)
}

type toolCall struct {
	s     *Server
	id    string
	tool  string
	lang  string
	size  int
	start time.Time
}

func (s *Server) begin(tool, language, code string) *toolCall {
	return &toolCall{
		s:     s,
		id:    s.newID(),
		tool:  tool,
		lang:  language,
		size:  len(code),
		start: time.Now(),
	}
}

// done logs the call outcome and returns err unchanged.
func (c *toolCall) done(err error) error {
	attrs := []any{
		"request_id", c.id,
		"tool", c.tool,
		"language", c.lang,
		"bytes", c.size,
		"duration", time.Since(c.start),
	}
	if err != nil {
		c.s.logger.Warn("tool call failed", append(attrs, "error", err)...)
		return err
	}
	c.s.logger.Info("tool call", attrs...)
	return nil
}
