package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/adalundhe/flowprompt/core/prompt"
	"github.com/adalundhe/flowprompt/core/providers"
)

// =============================================================================
// Generate Command
// =============================================================================

var (
	generateProvider  string
	generateModel     string
	generateFramework string
	generateMaxTokens int
	generateJSON      bool
)

var generateCmd = &cobra.Command{
	Use:   "generate <file|->",
	Short: "Generate unit tests for a function with an LLM provider",
	Long: `Build the unit test prompt for a function and send it to a language model.
The generated tests are printed to stdout.

Providers with an API key in the config or environment are available:
ANTHROPIC_API_KEY, OPENAI_API_KEY, GEMINI_API_KEY.

Examples:
  flowprompt generate billing.py > test_billing.py
  flowprompt generate --provider openai --model gpt-4.1-mini billing.py
  flowprompt generate --framework junit4 --json Account.java`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringVarP(&generateProvider, "provider", "p", "", "Provider (anthropic, openai, gemini); defaults to providers.default")
	generateCmd.Flags().StringVarP(&generateModel, "model", "m", "", "Model override")
	generateCmd.Flags().StringVarP(&generateFramework, "framework", "f", "auto", "Test framework (pytest, unittest, junit5, junit4, auto)")
	generateCmd.Flags().IntVar(&generateMaxTokens, "max-tokens", 0, "Output token limit override")
	generateCmd.Flags().BoolVar(&generateJSON, "json", false, "Output the prompt metadata and provider response as JSON")
}

// generateOutput is the JSON output structure.
type generateOutput struct {
	Provider string              `json:"provider"`
	Metadata prompt.Metadata     `json:"metadata"`
	Response *providers.Response `json:"response"`
}

func runGenerate(cmd *cobra.Command, args []string) error {
	src, err := readSource(cmd, args[0])
	if err != nil {
		return err
	}
	a, err := app.newAnalyzer()
	if err != nil {
		return err
	}
	defer a.Close()

	cfg := app.manager.Get()
	g, err := newGenerator(cfg)
	if err != nil {
		return err
	}
	result, err := buildPrompt(a, g, src, generateFramework)
	if err != nil {
		return err
	}

	registry, err := cfg.Providers.Registry(cmd.Context())
	if err != nil {
		return err
	}
	defer registry.Close()

	provider, err := registry.Resolve(generateProvider)
	if err != nil {
		return err
	}

	req := providers.NewPromptRequest(result.Prompt)
	req.Model = generateModel
	req.MaxTokens = generateMaxTokens
	req.Metadata = map[string]any{"request_id": result.Metadata.RequestID}

	app.logger.Info("generating tests",
		"request_id", result.Metadata.RequestID,
		"provider", provider.Name(),
		"language", result.Metadata.Language,
		"framework", result.Metadata.Framework,
	)
	resp, err := provider.Generate(cmd.Context(), req)
	if err != nil {
		return err
	}
	app.logger.Debug("generation finished",
		"request_id", result.Metadata.RequestID,
		"model", resp.Model,
		"stop_reason", resp.StopReason,
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens,
	)
	if resp.StopReason == providers.StopReasonMaxTokens {
		app.logger.Warn("response truncated at the token limit", "request_id", result.Metadata.RequestID)
	}

	out := cmd.OutOrStdout()
	if generateJSON {
		return writeJSON(out, generateOutput{
			Provider: provider.Name(),
			Metadata: result.Metadata,
			Response: resp,
		})
	}
	_, err = io.WriteString(out, resp.Content)
	if err == nil && len(resp.Content) > 0 && resp.Content[len(resp.Content)-1] != '\n' {
		_, err = io.WriteString(out, "\n")
	}
	return err
}
