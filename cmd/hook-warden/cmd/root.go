// Package cmd provides the CLI commands for hook-warden.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/hookwarden/hookwarden/internal/config"
)

var (
	globalConfigPath  string
	projectConfigPath string
)

var rootCmd = &cobra.Command{
	Use:   "hook-warden",
	Short: "hook-warden - command safety gate for coding agents",
	Long: `hook-warden mediates shell commands and file edits issued by a coding
agent, deciding per operation whether to allow it, ask the user first, or
block it outright.

It ships as a PreToolUse hook: the agent host pipes each pending tool call
to "hook-warden hook" on stdin and reads the decision from stdout. For
hosts that prefer a resident process, "hook-warden serve" exposes the same
evaluator over local HTTP.

Configuration:
  Defaults are merged with ~/.hook-warden/hook-warden.yaml (global) and
  .hook-warden.yaml in the working directory (project). Environment
  variables override both with the HOOK_WARDEN_ prefix.

Commands:
  hook        Evaluate one PreToolUse event from stdin (hook entry point)
  serve       Run the resident evaluator over local HTTP
  config      Inspect and scaffold configuration files
  bump        Bump a plugin version in a marketplace manifest
  version     Print version information`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&globalConfigPath, "global-config", "", "global config file (default: ~/.hook-warden/hook-warden.yaml)")
	rootCmd.PersistentFlags().StringVar(&projectConfigPath, "config", "", "project config file (default: ./.hook-warden.yaml)")
}

// configProvider resolves the config layers, honoring the path flags. The
// project file defaults to dir when no flag overrides it.
func configProvider(dir string, logger *slog.Logger) *config.FileProvider {
	p := config.NewFileProvider(dir, logger)
	if globalConfigPath != "" {
		p.GlobalPath = globalConfigPath
	}
	if projectConfigPath != "" {
		p.ProjectPath = projectConfigPath
	}
	return p
}

// newLogger builds the process logger on stderr. Stdout carries decision
// JSON only.
func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}
