/*
Copyright © 2026 Hivelab
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/hivelab/hivectl/pkg/config"
	"github.com/hivelab/hivectl/pkg/playbook"
	"github.com/hivelab/hivectl/pkg/remote"
)

func controlCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "control",
		Usage: "Operate the control host of the active profile",
		Description: `The control host serves the netboot chain and runs the provisioning
plays. Commands here resolve it from the active hardware profile; host
and credential resolution stays with the operator's own ssh
configuration.

# Examples

Run a command in the mirrored working tree:
  hivectl control cmd -- ./scripts/seed.sh --verbose

Provision the control host:
  hivectl control configure`,
		Commands: []*cli.Command{
			controlCmdCmd(cfg),
			controlSSHCmd(cfg),
			controlConfigureCmd(cfg),
			controlTestCmd(cfg),
		},
	}
}

func controlCmdCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:                  "cmd",
		EnableShellCompletion: true,
		Usage:                 "Run a command in the mirrored working tree on the control host",
		ArgsUsage:             "-- <command> [args...]",
		Description: `Syncs the local working tree to the control host, then executes the
command inside the mirror with output streamed live. The process exit
code mirrors the remote command's exit code.`,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			command := strings.Join(cmd.Args().Slice(), " ")
			if command == "" {
				return fmt.Errorf("no command given; usage: hivectl control cmd -- <command>")
			}

			p, err := openStore(cfg).LoadActive()
			if err != nil {
				return err
			}

			code, err := newSession(cfg, p).Run(ctx, command)
			if err != nil {
				return err
			}
			return exitWithCode(code)
		},
	}
}

func controlSSHCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:                  "ssh",
		EnableShellCompletion: true,
		Usage:                 "Open an interactive shell on the control host",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			p, err := openStore(cfg).LoadActive()
			if err != nil {
				return err
			}

			transport := remote.NewTransport(remote.WithTransportSSHBinary(cfg.SSHBin))
			code, err := transport.Interactive(ctx, p.ControlHost, "")
			if err != nil {
				return err
			}
			return exitWithCode(code)
		},
	}
}

func controlConfigureCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:                  "configure",
		EnableShellCompletion: true,
		Usage:                 "Provision the control host for the active profile",
		Description: `Regenerates the runner inventory from the active profile and runs the
control provisioning play on the control host: netboot services, the
export tree, and everything compute nodes boot against.`,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runPlay(ctx, cfg, playbook.PlayControlConfigure, playbook.WithBecome())
		},
	}
}

func controlTestCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:                  "test",
		EnableShellCompletion: true,
		Usage:                 "Run the control host test suite",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runPlay(ctx, cfg, playbook.PlayControlTest)
		},
	}
}
