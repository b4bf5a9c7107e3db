package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/adalundhe/flowprompt/core/analyzer"
	"github.com/adalundhe/flowprompt/core/config"
	"github.com/adalundhe/flowprompt/core/mcpserver"
)

// =============================================================================
// Serve Command
// =============================================================================

var serveWatchConfig bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analysis tools over MCP on stdio",
	Long: `Run a Model Context Protocol server on stdin and stdout exposing:

  analyze_function_static        signature and dependencies
  summarize_function_flow        flow inventory, complexity and summary
  generate_test_prompt           unit test generation prompt
  analyze_and_generate_complete  all of the above in one call

Logs go to stderr or logging.file. With --watch-config, prompt settings are
reloaded when a config file changes.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&serveWatchConfig, "watch-config", true, "Reload prompt settings when a config file changes")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server, closeServer, err := newMCPServer()
	if err != nil {
		return err
	}
	defer closeServer()

	if serveWatchConfig {
		app.manager.OnChange(func(cfg *config.Config) {
			g, err := newGenerator(cfg)
			if err != nil {
				app.logger.Warn("prompt settings not reloaded", "error", err)
				return
			}
			server.SetGenerator(g)
		})
		if err := app.manager.Watch(ctx, app.logger); err != nil {
			app.logger.Warn("config watch disabled", "error", err)
		}
	}

	if err := server.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// newMCPServer wires the analyzer and prompt generator described by the
// current config into an MCP server.
func newMCPServer() (*mcpserver.Server, func(), error) {
	cfg := app.manager.Get()

	a, err := app.newAnalyzer()
	if err != nil {
		return nil, nil, err
	}
	g, err := newGenerator(cfg)
	if err != nil {
		a.Close()
		return nil, nil, err
	}
	lang, err := analyzer.ParseLanguage(cfg.Analysis.DefaultLanguage)
	if err != nil {
		a.Close()
		return nil, nil, fmt.Errorf("analysis.default_language: %w", err)
	}

	server, err := mcpserver.New(mcpserver.Options{
		Name:            cfg.Server.Name,
		Version:         cfg.Server.Version,
		Analyzer:        a,
		Generator:       g,
		DefaultLanguage: lang,
		Logger:          app.logger,
	})
	if err != nil {
		a.Close()
		return nil, nil, err
	}
	return server, a.Close, nil
}
