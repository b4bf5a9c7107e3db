// Package cmd provides the flowprompt command line.
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/adalundhe/flowprompt/core/config"
	"github.com/adalundhe/flowprompt/core/storage"
)

// =============================================================================
// Root Command Flags
// =============================================================================

var (
	rootConfigPath string
	rootVerbose    bool
	rootLanguage   string
)

// appState holds what PersistentPreRunE prepared for the running command.
type appState struct {
	manager *config.Manager
	logger  *slog.Logger
	logFile io.Closer
}

var app *appState

var rootCmd = &cobra.Command{
	Use:   "flowprompt",
	Short: "Function flow analysis and unit test prompt generation",
	Long: `flowprompt extracts the structure and control flow of a single Python or
Java function and turns it into a prompt asking a language model for unit
tests.

Configuration is read from the user config file, ./.flowprompt.yaml and
FLOWPROMPT_* environment variables, in that order.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setupRuntime,
	PersistentPostRunE: teardownRuntime,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&rootConfigPath, "config", "c", "", "Config file applied over the user and project config")
	rootCmd.PersistentFlags().BoolVarP(&rootVerbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&rootLanguage, "lang", "L", "", "Source language (python, java); detected from the file extension by default")
}

func Execute() error {
	return rootCmd.Execute()
}

// =============================================================================
// Runtime Setup
// =============================================================================

func setupRuntime(cmd *cobra.Command, _ []string) error {
	workDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("working directory: %w", err)
	}

	manager := config.NewManager(storage.ResolveDirs(), workDir)
	if rootConfigPath != "" {
		manager.SetExplicit(rootConfigPath)
	}
	if rootVerbose {
		manager.SetOverride(&config.Config{Logging: config.LoggingConfig{Level: "debug"}})
	}
	if err := manager.Load(); err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, logFile, err := newLogger(cmd.ErrOrStderr(), manager.Dirs(), manager.Get().Logging)
	if err != nil {
		return err
	}
	logger.Debug("config loaded", "sources", manager.Sources())

	app = &appState{manager: manager, logger: logger, logFile: logFile}
	return nil
}

func teardownRuntime(_ *cobra.Command, _ []string) error {
	if app == nil {
		return nil
	}
	_ = app.manager.Close()
	var err error
	if app.logFile != nil {
		err = app.logFile.Close()
	}
	app = nil
	return err
}

// newLogger builds the slog handler named by cfg. Logs go to stderr unless
// a file is configured; stdout is reserved for command output and the MCP
// stdio transport.
func newLogger(stderr io.Writer, dirs *storage.Dirs, cfg config.LoggingConfig) (*slog.Logger, io.Closer, error) {
	level, err := config.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("logging.level: %w", err)
	}

	w := stderr
	var closer io.Closer
	if cfg.File != "" {
		path := dirs.LogPath(cfg.File)
		if err := storage.EnsureDir(filepath.Dir(path), 0); err != nil {
			return nil, nil, fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w, closer = f, f
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler), closer, nil
}
