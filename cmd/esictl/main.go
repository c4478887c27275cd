// Package main provides esictl, an operator CLI that inspects the ESI specs
// the bot resolves requests against.
//
// # Basic Usage
//
//	esictl versions
//	esictl refresh --china
//	esictl resolve universe/types/34/
//
// esictl reads the same ESIBOT_* environment as the server (no Slack tokens
// needed) and shares its snapshot database, so a refresh here warms the
// server's next start.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/esi/esi-bot/internal/buildinfo"
)

func main() {
	if err := buildRootCmd().Execute(); err != nil {
		slog.Error("command execution failed", "error", err)
		os.Exit(1)
	}
}

// buildRootCmd creates the root command with all subcommands attached.
func buildRootCmd() *cobra.Command {
	var china bool
	rootCmd := &cobra.Command{
		Use:   "esictl",
		Short: "Inspect the ESI swagger specs used by esi-bot",
		Long: `esictl fetches and caches the ESI swagger specs the way esi-bot does,
and checks paths against them.

Documentation: https://github.com/esi/esi-bot`,
		Version:      fmt.Sprintf("%s (%s)", buildinfo.DisplayVersion(), buildinfo.UserAgent()),
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().BoolVar(&china, "china", false, "Use the Serenity (China) ESI host")

	rootCmd.AddCommand(
		buildVersionsCmd(&china),
		buildRefreshCmd(&china),
		buildResolveCmd(&china),
	)
	return rootCmd
}
