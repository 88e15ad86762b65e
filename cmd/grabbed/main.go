/*
Package main is the entry point for grabbed CLI.

grabbed replays per-frame object detections of a video, assigns identities to
detected objects and infers which object has been grabbed (picked up and moved)
by ranking trajectory lengths. The manipulating agent class ("hand" by default)
is never considered as grabbed item.

Usage:

	grabbed [command]

Available Commands:

	replay      Replay detections from labels file and infer grabbed item
	version     Show version information
	help        Help about any command
*/
package main

import (
	"fmt"
	"os"

	"github.com/LdDl/grabbed-go/internal/cli"
	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.Version, cli.Commit, cli.Date = version, commit, date

	rootCmd := &cobra.Command{
		Use:     "grabbed",
		Short:   "Infer grabbed item from tracked object trajectories",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	}
	rootCmd.AddCommand(cli.NewReplayCmd())
	rootCmd.AddCommand(cli.NewVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
