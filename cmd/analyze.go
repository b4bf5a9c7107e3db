package cmd

import (
	"github.com/spf13/cobra"
)

// =============================================================================
// Analyze and Flow Commands
// =============================================================================

var (
	analyzeJSON bool
	flowJSON    bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file|->",
	Short: "Extract the signature and dependencies of a function",
	Long: `Extract the signature, parameters, return type, exceptions, annotations and
dependency hints of the first function in a Python or Java source file.

Examples:
  flowprompt analyze billing.py
  flowprompt analyze --json Account.java
  cat snippet.txt | flowprompt analyze --lang java -`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

var flowCmd = &cobra.Command{
	Use:   "flow <file|->",
	Short: "Summarize the control flow of a function",
	Long: `Inventory the conditionals, loops, exception handlers, throws and returns of a
function body, score its complexity and print the one-line flow summary.

Examples:
  flowprompt flow billing.py
  flowprompt flow --json Account.java | jq .complexity_score`,
	Args: cobra.ExactArgs(1),
	RunE: runFlow,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(flowCmd)

	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Output the signature as JSON")
	flowCmd.Flags().BoolVar(&flowJSON, "json", false, "Output the flow analysis as JSON")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	src, err := readSource(cmd, args[0])
	if err != nil {
		return err
	}
	a, err := app.newAnalyzer()
	if err != nil {
		return err
	}
	defer a.Close()

	sig, err := a.ExtractStructure(src.Text, src.Language)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if analyzeJSON {
		return writeJSON(out, sig)
	}
	renderSignature(out, newPalette(out), sig)
	return nil
}

func runFlow(cmd *cobra.Command, args []string) error {
	src, err := readSource(cmd, args[0])
	if err != nil {
		return err
	}
	a, err := app.newAnalyzer()
	if err != nil {
		return err
	}
	defer a.Close()

	flow, err := a.SummarizeFlow(src.Text, src.Language)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if flowJSON {
		return writeJSON(out, flow)
	}
	renderFlow(out, newPalette(out), flow)
	return nil
}
