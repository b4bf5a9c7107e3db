package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/adalundhe/flowprompt/core/analyzer"
	"github.com/adalundhe/flowprompt/core/prompt"
	"github.com/adalundhe/flowprompt/core/watcher"
)

// =============================================================================
// Watch Command
// =============================================================================

var (
	watchMode      string
	watchFramework string
	watchDebounce  time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch <file>",
	Short: "Re-render a function's prompt or flow whenever the file changes",
	Long: `Watch a source file and print a fresh prompt (or flow summary) every time it
is saved. Stops on Ctrl-C.

Examples:
  flowprompt watch billing.py
  flowprompt watch --mode flow Account.java`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVar(&watchMode, "mode", BatchModePrompt, "What to render on change (prompt, flow, analyze)")
	watchCmd.Flags().StringVarP(&watchFramework, "framework", "f", "auto", "Test framework for --mode prompt")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watcher.DefaultDebounce, "Quiet period before re-rendering")
}

func runWatch(cmd *cobra.Command, args []string) error {
	switch watchMode {
	case BatchModeFlow, BatchModePrompt, BatchModeAnalyze:
	default:
		return fmt.Errorf("unknown mode %q: must be prompt, flow or analyze", watchMode)
	}
	path := args[0]
	if path == stdinPath {
		return fmt.Errorf("watch needs a file path")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.newAnalyzer()
	if err != nil {
		return err
	}
	defer a.Close()

	g, err := newGenerator(app.manager.Get())
	if err != nil {
		return err
	}

	w, err := watcher.New(watcher.Config{Paths: []string{path}, Debounce: watchDebounce})
	if err != nil {
		return err
	}
	events, err := w.Start(ctx)
	if err != nil {
		return err
	}
	defer w.Stop()

	return watchLoop(ctx, cmd, a, g, path, events)
}

// watchLoop renders once, then again after every change, until ctx is done
// or the event channel closes.
func watchLoop(ctx context.Context, cmd *cobra.Command, a *analyzer.Analyzer, g *prompt.Generator, path string, events <-chan watcher.Event) error {
	out := cmd.OutOrStdout()
	p := newPalette(out)

	render := func() {
		src, err := readSource(cmd, path)
		if err == nil {
			err = renderWatched(out, p, a, g, src)
		}
		if err != nil {
			fmt.Fprintf(out, "%s %v\n", p.paint(colorRed, "error:"), err)
			app.logger.Debug("render failed", "path", path, "error", err)
		}
	}

	render()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if ev.Removed() {
				fmt.Fprintf(out, "%s %s %s\n", p.paint(colorYellow, "waiting:"), path, ev.Operation)
				continue
			}
			fmt.Fprintf(out, "\n%s %s %s\n", p.paint(colorGray, ev.Time.Format(time.TimeOnly)), path, ev.Operation)
			render()
		}
	}
}

func renderWatched(w io.Writer, p palette, a *analyzer.Analyzer, g *prompt.Generator, src *sourceFile) error {
	switch watchMode {
	case BatchModeAnalyze:
		sig, err := a.ExtractStructure(src.Text, src.Language)
		if err != nil {
			return err
		}
		renderSignature(w, p, sig)
	case BatchModeFlow:
		flow, err := a.SummarizeFlow(src.Text, src.Language)
		if err != nil {
			return err
		}
		renderFlow(w, p, flow)
	default:
		result, err := buildPrompt(a, g, src, watchFramework)
		if err != nil {
			return err
		}
		return writePrompt(w, result, false)
	}
	return nil
}
