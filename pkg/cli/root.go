/*
Copyright © 2026 Hivelab
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"

	"github.com/hivelab/hivectl/pkg/config"
	"github.com/hivelab/hivectl/pkg/logging"
)

// Build-time variables, set via -ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Exit codes. Remote command mirroring (control cmd, compute cmd) may
// produce any code the remote command produced.
const (
	exitOK          = 0
	exitError       = 1
	exitInterrupted = 2
)

// Flags shared between commands.
var (
	outputFlag = &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Output file path (default: stdout)",
	}

	formatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"t"},
		Value:   "yaml",
		Usage:   "Output format: yaml, json, table",
	}

	nodesFlag = &cli.StringSliceFlag{
		Name:  "nodes",
		Usage: "Select compute nodes by name, '*' wildcards allowed (default: all nodes)",
	}
)

// New assembles the hivectl command tree around a single configuration
// value built from defaults and environment, with flag overrides
// layered on before any command action runs.
func New() *cli.Command {
	cfg := config.DefaultConfig()

	return &cli.Command{
		Name:                  "hivectl",
		Usage:                 "Operate a stateless network-booted compute cluster",
		Version:               version,
		EnableShellCompletion: true,
		ShellComplete:         commandLister,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
			&cli.BoolFlag{
				Name:  "log-json",
				Usage: "Output logs in JSON format",
			},
			&cli.BoolFlag{
				Name:  "log-journal",
				Usage: "Send logs to the systemd journal when available",
			},
			&cli.StringFlag{
				Name:  "profiles-dir",
				Usage: "Directory holding the hardware profile documents",
			},
			&cli.StringFlag{
				Name:  "selection-file",
				Usage: "File persisting the active profile version",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			level := logging.ParseLevel(cfg.LogLevel)
			if cmd.Bool("debug") {
				level = slog.LevelDebug
			}
			logging.Setup("hivectl", version, logging.Options{
				Level:   level,
				JSON:    cmd.Bool("log-json") || os.Getenv("LOG_JSON") != "",
				Journal: cmd.Bool("log-journal") || os.Getenv("LOG_JOURNAL") != "",
			})

			if dir := cmd.String("profiles-dir"); dir != "" {
				cfg.ProfilesDir = dir
			}
			if file := cmd.String("selection-file"); file != "" {
				cfg.SelectionFile = file
			}
			return ctx, nil
		},
		After: func(ctx context.Context, cmd *cli.Command) error {
			if cfg.MetricsFile != "" {
				if err := prometheus.WriteToTextfile(cfg.MetricsFile, prometheus.DefaultGatherer); err != nil {
					slog.Warn("failed to write metrics file", "path", cfg.MetricsFile, "error", err)
				}
			}
			return nil
		},
		Commands: []*cli.Command{
			hardwareCmd(cfg),
			controlCmd(cfg),
			computeCmd(cfg),
			imageCmd(cfg),
			clusterCmd(cfg),
			versionCmd(),
		},
	}
}

// Run executes the command tree and maps the outcome to a process exit
// code: 0 success, 1 error, 2 interrupted. Remote-mirroring commands
// return the remote exit code through an ExitCoder.
func Run(ctx context.Context, args []string) int {
	return exitCode(New().Run(ctx, args))
}

// exitCode maps a command error to the process exit code, printing the
// error for the operator on the way out.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}

	var coder cli.ExitCoder
	if errors.As(err, &coder) {
		if msg := coder.Error(); msg != "" {
			fmt.Fprintln(os.Stderr, "Error:", msg)
		}
		return coder.ExitCode()
	}

	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "interrupted")
		return exitInterrupted
	}

	fmt.Fprintln(os.Stderr, "Error:", err)
	return exitError
}

// commandLister prints the visible command names, used for shell
// completion of the bare binary name.
func commandLister(_ context.Context, cmd *cli.Command) {
	if cmd == nil {
		return
	}
	for _, c := range cmd.Commands {
		if c.Hidden {
			continue
		}
		fmt.Println(c.Name)
	}
}
