package providers

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiProvider implements Provider over the Gemini API
type GeminiProvider struct {
	client *genai.Client
	config GeminiConfig
}

func NewGeminiProvider(ctx context.Context, config GeminiConfig) (*GeminiProvider, error) {
	defaults := DefaultGeminiConfig()
	if config.Model == "" {
		config.Model = defaults.Model
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = defaults.MaxTokens
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	cc := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		cc.HTTPOptions.BaseURL = config.BaseURL
	}
	if config.Timeout > 0 {
		timeout := config.Timeout
		cc.HTTPOptions.Timeout = &timeout
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}

	return &GeminiProvider{
		client: client,
		config: config,
	}, nil
}

func (p *GeminiProvider) Name() string {
	return string(ProviderTypeGemini)
}

// Generate performs a non-streaming completion request
func (p *GeminiProvider) Generate(ctx context.Context, req *Request) (*Response, error) {
	model := resolveModel(req, p.config.Model)

	resp, err := p.client.Models.GenerateContent(ctx, model, p.convertContents(req.Messages), p.buildConfig(req))
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}
	return p.convertResponse(req, resp, model), nil
}

func (p *GeminiProvider) ValidateConfig() error {
	return p.config.Validate()
}

func (p *GeminiProvider) DefaultModel() string {
	return p.config.Model
}

func (p *GeminiProvider) Close() error {
	return nil
}

func (p *GeminiProvider) buildConfig(req *Request) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(resolveMaxTokens(req, p.config.MaxTokens)),
	}

	if system := systemPrompt(req, p.config.SystemPrompt); system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	if req.Temperature != nil {
		cfg.Temperature = genai.Ptr(float32(*req.Temperature))
	} else if p.config.Temperature > 0 {
		cfg.Temperature = genai.Ptr(float32(p.config.Temperature))
	}

	if p.config.TopK != nil {
		cfg.TopK = genai.Ptr(float32(*p.config.TopK))
	}

	return cfg
}

func (p *GeminiProvider) convertContents(messages []Message) []*genai.Content {
	result := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case RoleUser:
			result = append(result, genai.NewContentFromText(msg.Content, genai.RoleUser))
		case RoleAssistant:
			result = append(result, genai.NewContentFromText(msg.Content, genai.RoleModel))
		}
	}
	return result
}

func (p *GeminiProvider) convertResponse(req *Request, resp *genai.GenerateContentResponse, model string) *Response {
	out := &Response{
		Content:    resp.Text(),
		Model:      model,
		StopReason: StopReasonEndTurn,
	}
	if resp.ModelVersion != "" {
		out.Model = resp.ModelVersion
	}

	if len(resp.Candidates) > 0 {
		out.StopReason = p.convertFinishReason(resp.Candidates[0].FinishReason)
	} else {
		out.StopReason = StopReasonError
	}

	if u := resp.UsageMetadata; u != nil {
		out.Usage = Usage{
			InputTokens:     int(u.PromptTokenCount),
			OutputTokens:    int(u.CandidatesTokenCount),
			TotalTokens:     int(u.TotalTokenCount),
			CacheReadTokens: int(u.CachedContentTokenCount),
		}
	}

	out.ProviderMetadata = responseMetadata(req, resp.ResponseID)

	return out
}

func (p *GeminiProvider) convertFinishReason(reason genai.FinishReason) StopReason {
	switch reason {
	case genai.FinishReasonStop, genai.FinishReasonUnspecified, "":
		return StopReasonEndTurn
	case genai.FinishReasonMaxTokens:
		return StopReasonMaxTokens
	default:
		return StopReasonError
	}
}
