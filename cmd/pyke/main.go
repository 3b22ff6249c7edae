// Command pyke is the build-orchestrator entrypoint: a cobra root command
// with flag parsing disabled, since the grammar cli.Run implements (glued
// short flags, push/pop overrides, bare action words run in order) is not
// expressible as a standard flag set.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pyke-go/pyke/internal/cli"
	"github.com/pyke-go/pyke/internal/pykeconfig"
	"github.com/pyke-go/pyke/internal/report"
)

var verbosity int

var rootCmd = &cobra.Command{
	Use:                "pyke [flags] [action ...]",
	Short:              "Runs build actions on a phase graph defined by a make-module plugin",
	DisableFlagParsing: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(args)
	},
}

func run(args []string) error {
	workDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}

	cfg, err := pykeconfig.Load("", "")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.ExitUsageError)
	}

	level := report.LevelNormal
	rest := make([]string, 0, len(args))
	for _, a := range args {
		switch a {
		case "-q", "--quiet":
			level = report.LevelQuiet
		case "-vv", "--verbose":
			level = report.LevelVerbose
		default:
			rest = append(rest, a)
		}
	}
	rep := report.New(level, os.Stdout, os.Stderr)

	result := cli.Run(context.Background(), rest, cfg, rep, workDir)
	os.Exit(result.ExitCode)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.ExitUsageError)
	}
}
