// Package providers delivers generated prompts to hosted language models.
package providers

import (
	"context"
)

// Provider is a text-generation backend.
type Provider interface {
	Name() string
	Generate(ctx context.Context, req *Request) (*Response, error)
	DefaultModel() string
	ValidateConfig() error
	Close() error
}

type Request struct {
	Messages     []Message      `json:"messages"`
	Model        string         `json:"model,omitempty"`
	MaxTokens    int            `json:"max_tokens,omitempty"`
	Temperature  *float64       `json:"temperature,omitempty"`
	SystemPrompt string         `json:"system_prompt,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// NewPromptRequest wraps a single user prompt.
func NewPromptRequest(prompt string) *Request {
	return &Request{Messages: []Message{{Role: RoleUser, Content: prompt}}}
}

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

type Response struct {
	Content          string         `json:"content"`
	Model            string         `json:"model"`
	StopReason       StopReason     `json:"stop_reason"`
	Usage            Usage          `json:"usage"`
	ProviderMetadata map[string]any `json:"provider_metadata,omitempty"`
}

type StopReason string

const (
	StopReasonEndTurn      StopReason = "end_turn"
	StopReasonMaxTokens    StopReason = "max_tokens"
	StopReasonStopSequence StopReason = "stop_sequence"
	StopReasonError        StopReason = "error"
)

type Usage struct {
	InputTokens     int `json:"input_tokens"`
	OutputTokens    int `json:"output_tokens"`
	TotalTokens     int `json:"total_tokens"`
	CacheReadTokens int `json:"cache_read_tokens,omitempty"`
}

// systemPrompt picks the request's system prompt, then the first system
// message, then the configured fallback.
func systemPrompt(req *Request, fallback string) string {
	if req.SystemPrompt != "" {
		return req.SystemPrompt
	}
	for _, msg := range req.Messages {
		if msg.Role == RoleSystem {
			return msg.Content
		}
	}
	return fallback
}

// responseMetadata records the provider's response id and echoes the
// caller's request_id, tying a generation back to the prompt it answered.
func responseMetadata(req *Request, id string) map[string]any {
	meta := map[string]any{}
	if id != "" {
		meta["id"] = id
	}
	if requestID, ok := req.Metadata["request_id"]; ok {
		meta["request_id"] = requestID
	}
	if len(meta) == 0 {
		return nil
	}
	return meta
}

func resolveModel(req *Request, fallback string) string {
	if req.Model != "" {
		return req.Model
	}
	return fallback
}

func resolveMaxTokens(req *Request, fallback int) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	return fallback
}
