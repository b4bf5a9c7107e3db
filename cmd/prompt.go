package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/adalundhe/flowprompt/core/analyzer"
	"github.com/adalundhe/flowprompt/core/prompt"
)

// =============================================================================
// Prompt Command
// =============================================================================

var (
	promptFramework string
	promptOutput    string
	promptJSON      bool
)

var promptCmd = &cobra.Command{
	Use:   "prompt <file|->",
	Short: "Build a unit test generation prompt for a function",
	Long: `Analyze a function and render the prompt that asks a language model for its
unit tests: the function signature, its flow summary and complexity, the
test scenarios derived from its branches and the required output layout.

Examples:
  flowprompt prompt billing.py
  flowprompt prompt --framework unittest billing.py
  flowprompt prompt --framework junit4 -o prompt.txt Account.java
  flowprompt prompt --json Account.java | jq .metadata`,
	Args: cobra.ExactArgs(1),
	RunE: runPrompt,
}

func init() {
	rootCmd.AddCommand(promptCmd)

	promptCmd.Flags().StringVarP(&promptFramework, "framework", "f", "auto", "Test framework (pytest, unittest, junit5, junit4, auto)")
	promptCmd.Flags().StringVarP(&promptOutput, "output", "o", "", "Write the prompt to a file instead of stdout")
	promptCmd.Flags().BoolVar(&promptJSON, "json", false, "Output the prompt and its metadata as JSON")
}

func runPrompt(cmd *cobra.Command, args []string) error {
	src, err := readSource(cmd, args[0])
	if err != nil {
		return err
	}
	a, err := app.newAnalyzer()
	if err != nil {
		return err
	}
	defer a.Close()

	g, err := newGenerator(app.manager.Get())
	if err != nil {
		return err
	}

	result, err := buildPrompt(a, g, src, promptFramework)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if promptOutput != "" {
		f, err := os.Create(promptOutput)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		out = f
	}
	return writePrompt(out, result, promptJSON)
}

func buildPrompt(a *analyzer.Analyzer, g *prompt.Generator, src *sourceFile, framework string) (*prompt.Result, error) {
	res, err := analyzeSource(a, src)
	if err != nil {
		return nil, err
	}
	return g.Generate(res.Signature, res.Flow, framework)
}

func writePrompt(w io.Writer, result *prompt.Result, asJSON bool) error {
	if asJSON {
		return writeJSON(w, result)
	}
	_, err := io.WriteString(w, result.Prompt)
	return err
}
