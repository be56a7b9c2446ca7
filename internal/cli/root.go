// Package cli wires the command surface: it opens the repository,
// assembles engine, watcher and consumer, and owns their lifecycle.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func Execute() error {
	root := &cobra.Command{
		Use:   "gitscope",
		Short: "Interactive terminal view over a git repository",
		Long:  "Gitscope: status, diffs, log, blame and more in a TUI that stays responsive on large repositories.",
	}

	root.PersistentFlags().StringP("repo", "r", ".", "Path to repository (default: current dir)")
	root.PersistentFlags().String("debug-log", "", "Write debug logs to this file")

	root.AddCommand(newWatchCmd())
	root.AddCommand(newStatusCmd())

	if err := root.Execute(); err != nil {
		return fmt.Errorf("execute: %w", err)
	}
	return nil
}

func mustGetStringFlag(cmd *cobra.Command, name string) string {
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		fmt.Fprintln(os.Stderr, "flag error:", err)
		os.Exit(2)
	}
	return v
}

// newLogger builds the process logger. The TUI owns stdout, so debug
// logs go to a file or nowhere.
func newLogger(cmd *cobra.Command) (*slog.Logger, func(), error) {
	path := mustGetStringFlag(cmd.Root(), "debug-log")
	if path == "" {
		return slog.New(slog.DiscardHandler), func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open debug log: %w", err)
	}
	var w io.Writer = f
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return logger, func() { f.Close() }, nil
}
