/*
Copyright © 2026 Hivelab
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/hivelab/hivectl/pkg/config"
	hiveerrors "github.com/hivelab/hivectl/pkg/errors"
	"github.com/hivelab/hivectl/pkg/inventory"
	"github.com/hivelab/hivectl/pkg/playbook"
	"github.com/hivelab/hivectl/pkg/power"
	"github.com/hivelab/hivectl/pkg/remote"
)

func computeCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "compute",
		Usage: "Power, provision and inspect the compute nodes",
		Description: `Compute nodes are stateless and boot over the network; power commands
drive them with wake-on-LAN packets and ssh probes, provisioning runs
the compute play from the control host. All commands act on the node
list of the active hardware profile, narrowed by --nodes where the
flag is accepted.

# Examples

Wake every node and wait until the cluster answers:
  hivectl compute up

Reboot a slice of the cluster:
  hivectl compute restart --nodes 'node0*'

Reachability as JSON for scripting:
  hivectl compute status -t json`,
		Commands: []*cli.Command{
			computeUpCmd(cfg),
			computeDownCmd(cfg),
			computeRestartCmd(cfg),
			computeStatusCmd(cfg),
			computeConfigureCmd(cfg),
			computeTestCmd(cfg),
			computeSSHCmd(cfg),
			computeCmdCmd(cfg),
		},
	}
}

func computeUpCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:                  "up",
		EnableShellCompletion: true,
		Usage:                 "Wake the compute nodes and wait until all are reachable",
		Description: `Sends a wake-on-LAN packet to every selected node, then polls ssh
reachability once per interval until all nodes answer. Interrupting
the wait emits the partial report and exits with code 2.`,
		Flags: []cli.Flag{nodesFlag, outputFlag, formatFlag},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runPowerCommand(ctx, cfg, cmd,
				func(ctx context.Context, c *power.Controller, nodes []inventory.Node) (*power.Report, error) {
					return c.Up(ctx, nodes)
				})
		},
	}
}

func computeDownCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:                  "down",
		EnableShellCompletion: true,
		Usage:                 "Shut the compute nodes down",
		Description: `Issues a shutdown over ssh on every selected node concurrently. Nodes
that are already unreachable are reported as skipped, not failed.`,
		Flags: []cli.Flag{nodesFlag, outputFlag, formatFlag},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runPowerCommand(ctx, cfg, cmd,
				func(ctx context.Context, c *power.Controller, nodes []inventory.Node) (*power.Report, error) {
					return c.Down(ctx, nodes)
				})
		},
	}
}

func computeRestartCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:                  "restart",
		EnableShellCompletion: true,
		Usage:                 "Reboot the compute nodes",
		Flags:                 []cli.Flag{nodesFlag, outputFlag, formatFlag},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runPowerCommand(ctx, cfg, cmd,
				func(ctx context.Context, c *power.Controller, nodes []inventory.Node) (*power.Report, error) {
					return c.Restart(ctx, nodes)
				})
		},
	}
}

func computeStatusCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:                  "status",
		EnableShellCompletion: true,
		Usage:                 "Probe the compute nodes and report reachability",
		Description: `Probes every selected node concurrently and reports its state. The
command fails when any node is unreachable, with the failing nodes
listed in the error.`,
		Flags: []cli.Flag{nodesFlag, outputFlag, formatFlag},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runPowerCommand(ctx, cfg, cmd,
				func(ctx context.Context, c *power.Controller, nodes []inventory.Node) (*power.Report, error) {
					return c.Status(ctx, nodes)
				})
		},
	}
}

func computeConfigureCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:                  "configure",
		EnableShellCompletion: true,
		Usage:                 "Provision the compute nodes with the compute play",
		Description: `Probes every compute node and aborts before any remote change unless
all of them answer; the error names the nodes that did not. Then
regenerates the inventory and runs the compute provisioning play from
the control host.`,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			p, err := openStore(cfg).LoadActive()
			if err != nil {
				return err
			}
			if _, err := newController(cfg).Status(ctx, inventory.BuildNodeList(p)); err != nil {
				return err
			}
			return runPlay(ctx, cfg, playbook.PlayComputeConfigure, playbook.WithBecome())
		},
	}
}

func computeTestCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:                  "test",
		EnableShellCompletion: true,
		Usage:                 "Run the compute node test suite",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runPlay(ctx, cfg, playbook.PlayComputeTest)
		},
	}
}

func computeSSHCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:                  "ssh",
		EnableShellCompletion: true,
		Usage:                 "Open an interactive shell on one compute node",
		ArgsUsage:             "<node>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return fmt.Errorf("expected exactly one argument: the node name")
			}

			node, err := resolveNamedNode(cfg, cmd.Args().First())
			if err != nil {
				return err
			}

			transport := remote.NewTransport(remote.WithTransportSSHBinary(cfg.SSHBin))
			code, err := transport.Interactive(ctx, cfg.ComputeUser+"@"+node.IP, "")
			if err != nil {
				return err
			}
			return exitWithCode(code)
		},
	}
}

func computeCmdCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:                  "cmd",
		EnableShellCompletion: true,
		Usage:                 "Run a command on one compute node",
		ArgsUsage:             "<node> -- <command> [args...]",
		Description: `Executes the command on the named node over ssh with output streamed
live. The process exit code mirrors the remote command's exit code.`,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			args := cmd.Args().Slice()
			if len(args) == 0 {
				return fmt.Errorf("expected a node name; usage: hivectl compute cmd <node> -- <command>")
			}
			command := strings.Join(args[1:], " ")
			if command == "" {
				return fmt.Errorf("no command given; usage: hivectl compute cmd <node> -- <command>")
			}

			node, err := resolveNamedNode(cfg, args[0])
			if err != nil {
				return err
			}

			transport := remote.NewTransport(remote.WithTransportSSHBinary(cfg.SSHBin))
			code, err := transport.Interactive(ctx, cfg.ComputeUser+"@"+node.IP, command)
			if err != nil {
				return err
			}
			return exitWithCode(code)
		},
	}
}

// runPowerCommand resolves the node selection, applies one power
// operation, and writes the report. A failed or interrupted operation
// still emits its partial report before the error decides the exit
// code.
func runPowerCommand(ctx context.Context, cfg *config.Config, cmd *cli.Command,
	op func(context.Context, *power.Controller, []inventory.Node) (*power.Report, error),
) error {
	_, nodes, err := resolveNodes(cfg, cmd)
	if err != nil {
		return err
	}

	report, opErr := op(ctx, newController(cfg), nodes)
	if report != nil {
		if werr := writeResult(ctx, cmd, report); werr != nil {
			if opErr == nil {
				return werr
			}
			slog.Warn("failed to write report", "error", werr)
		}
	}
	return opErr
}

// resolveNamedNode looks a single compute node up by name in the
// active profile.
func resolveNamedNode(cfg *config.Config, name string) (inventory.Node, error) {
	p, err := openStore(cfg).LoadActive()
	if err != nil {
		return inventory.Node{}, err
	}

	nodes := inventory.BuildNodeList(p)
	node, ok := inventory.ByName(nodes, name)
	if !ok {
		return inventory.Node{}, hiveerrors.Newf(hiveerrors.ErrCodeInvalidInput,
			"unknown compute node %q", name).
			WithDetail("known", inventory.Names(nodes))
	}
	return node, nil
}
