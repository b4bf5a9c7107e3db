package cmd

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/gobwas/glob"
	"github.com/spf13/cobra"

	"github.com/adalundhe/flowprompt/core/analysis"
	"github.com/adalundhe/flowprompt/core/analyzer"
	"github.com/adalundhe/flowprompt/core/prompt"
)

// =============================================================================
// Constants
// =============================================================================

const (
	BatchModeFlow    = "flow"
	BatchModePrompt  = "prompt"
	BatchModeAnalyze = "analyze"
)

// batchSkipDirs are never descended into.
var batchSkipDirs = map[string]bool{
	".git":         true,
	".hg":          true,
	".venv":        true,
	"venv":         true,
	"node_modules": true,
	"__pycache__":  true,
	"target":       true,
	"build":        true,
}

// =============================================================================
// Batch Command Flags
// =============================================================================

var (
	batchRoot      string
	batchMode      string
	batchFramework string
	batchJobs      int
	batchJSON      bool
)

var batchCmd = &cobra.Command{
	Use:   "batch <pattern>...",
	Short: "Analyze every source file matching glob patterns",
	Long: `Walk a directory tree and run one analysis per Python or Java file whose
path, relative to --root, matches any of the glob patterns. Patterns use
'/' as the separator and support ** for any number of directories.

Each file is treated as a single function. Files that fail to analyze are
reported and the batch continues.

Examples:
  flowprompt batch 'src/**/*.py'
  flowprompt batch --mode prompt --framework junit5 '**/*Service.java'
  flowprompt batch --json --root snippets '*.py' '*.java'`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringVarP(&batchRoot, "root", "r", ".", "Directory to walk")
	batchCmd.Flags().StringVar(&batchMode, "mode", BatchModeFlow, "What to produce per file (flow, prompt, analyze)")
	batchCmd.Flags().StringVarP(&batchFramework, "framework", "f", "auto", "Test framework for --mode prompt")
	batchCmd.Flags().IntVarP(&batchJobs, "jobs", "j", runtime.NumCPU(), "Files analyzed concurrently")
	batchCmd.Flags().BoolVar(&batchJSON, "json", false, "Output results as a JSON array")
}

// batchResult is the outcome for one file.
type batchResult struct {
	Path     string            `json:"path"`
	Language analysis.Language `json:"language"`
	Result   any               `json:"result,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// =============================================================================
// Batch Execution
// =============================================================================

func runBatch(cmd *cobra.Command, args []string) error {
	switch batchMode {
	case BatchModeFlow, BatchModePrompt, BatchModeAnalyze:
	default:
		return fmt.Errorf("unknown mode %q: must be flow, prompt or analyze", batchMode)
	}

	patterns, err := compileGlobs(args)
	if err != nil {
		return err
	}
	files, err := collectFiles(batchRoot, patterns)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no Python or Java files under %s match %s", batchRoot, strings.Join(args, " "))
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

	results := processFiles(a, g, files, batchJobs)

	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
			app.logger.Warn("batch file failed", "path", r.Path, "error", r.Error)
		}
	}
	app.logger.Info("batch finished", "files", len(results), "failed", failed)

	out := cmd.OutOrStdout()
	if batchJSON {
		if err := writeJSON(out, results); err != nil {
			return err
		}
	} else {
		renderBatch(out, newPalette(out), results)
	}

	if failed == len(results) {
		return fmt.Errorf("all %d files failed", failed)
	}
	return nil
}

func compileGlobs(patterns []string) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(filepath.ToSlash(pattern), '/')
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		out = append(out, g)
	}
	return out, nil
}

// collectFiles returns the supported source files under root whose slash
// separated relative path matches any pattern, in lexical order.
func collectFiles(root string, patterns []glob.Glob) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && batchSkipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if _, ok := analyzer.DetectLanguage(path); !ok {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		for _, g := range patterns {
			if g.Match(rel) {
				files = append(files, path)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}

func processFiles(a *analyzer.Analyzer, g *prompt.Generator, files []string, jobs int) []batchResult {
	if jobs < 1 {
		jobs = 1
	}
	results := make([]batchResult, len(files))
	sem := make(chan struct{}, jobs)
	var wg sync.WaitGroup

	for i, path := range files {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, path string) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = processFile(a, g, path)
		}(i, path)
	}
	wg.Wait()
	return results
}

func processFile(a *analyzer.Analyzer, g *prompt.Generator, path string) batchResult {
	result := batchResult{Path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	lang, _ := analyzer.DetectLanguage(path)
	result.Language = lang
	src := &sourceFile{Path: path, Text: string(data), Language: lang}

	var value any
	switch batchMode {
	case BatchModeAnalyze:
		value, err = a.ExtractStructure(src.Text, src.Language)
	case BatchModeFlow:
		value, err = a.SummarizeFlow(src.Text, src.Language)
	case BatchModePrompt:
		value, err = buildPrompt(a, g, src, batchFramework)
	}
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.Result = value
	return result
}

func renderBatch(w io.Writer, p palette, results []batchResult) {
	for i, r := range results {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s %s\n", p.paint(colorBold+colorCyan, "==> "+r.Path), p.paint(colorGray, "("+string(r.Language)+")"))
		if r.Error != "" {
			fmt.Fprintf(w, "%s %s\n", p.paint(colorRed, "error:"), r.Error)
			continue
		}
		switch v := r.Result.(type) {
		case *analysis.Signature:
			renderSignature(w, p, v)
		case *analysis.FlowAnalysis:
			renderFlow(w, p, v)
		case *prompt.Result:
			fmt.Fprint(w, v.Prompt)
		}
	}
}
