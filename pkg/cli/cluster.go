/*
Copyright © 2026 Hivelab
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/hivelab/hivectl/pkg/config"
	hiveerrors "github.com/hivelab/hivectl/pkg/errors"
	"github.com/hivelab/hivectl/pkg/image"
	"github.com/hivelab/hivectl/pkg/inventory"
	"github.com/hivelab/hivectl/pkg/playbook"
	"github.com/hivelab/hivectl/pkg/power"
	"github.com/hivelab/hivectl/pkg/probe"
	"github.com/hivelab/hivectl/pkg/remote"
)

func clusterCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "cluster",
		Usage: "Whole-cluster pipelines and status",
		Description: `Cluster commands span the control host and every compute node of the
active hardware profile.

# Examples

Rebuild and reprovision the whole cluster:
  hivectl cluster configure

One page of cluster health:
  hivectl cluster status`,
		Commands: []*cli.Command{
			clusterConfigureCmd(cfg),
			clusterStatusCmd(cfg),
		},
	}
}

// clusterStatus is the combined health document for one cluster.
type clusterStatus struct {
	Profile          string        `json:"profile" yaml:"profile"`
	ControlHost      string        `json:"controlHost" yaml:"controlHost"`
	ControlReachable bool          `json:"controlReachable" yaml:"controlReachable"`
	Compute          *power.Report `json:"compute" yaml:"compute"`
}

func clusterConfigureCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:                  "configure",
		EnableShellCompletion: true,
		Usage:                 "Rebuild the image and reprovision the whole cluster",
		Description: `Runs the full bring-up pipeline for the active profile: shut down any
compute nodes that are up, build the golden image, provision the
control host, wake the compute nodes, and provision them once all are
reachable. Each stage aborts the pipeline on failure.`,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			p, err := openStore(cfg).LoadActive()
			if err != nil {
				return err
			}
			nodes := inventory.BuildNodeList(p)
			controller := newController(cfg)

			slog.Info("probing compute nodes", "profile", p.Version, "nodes", len(nodes))
			status, err := controller.Status(ctx, nodes)
			if err != nil && !hiveerrors.HasCode(err, hiveerrors.ErrCodeNodeUnreachable) {
				return err
			}

			if up := status.ReachableNodes(); len(up) > 0 {
				slog.Info("shutting compute nodes down for reconfiguration", "nodes", len(up))
				if _, err := controller.Down(ctx, nodes); err != nil {
					return err
				}
			}

			if err := writeInventory(cfg, p); err != nil {
				return err
			}
			session := newSession(cfg, p)
			runner := newPlaybookRunner(cfg, session)
			manager := image.NewManager(session, runner,
				image.WithImageRoot(cfg.ImageRoot),
				image.WithExportPath(cfg.ExportPath),
			)
			vars := playbook.VarsFromProfile(p)

			slog.Info("building golden image", "imageRoot", cfg.ImageRoot)
			if err := manager.Build(ctx, vars); err != nil {
				return err
			}

			slog.Info("provisioning control host", "controlHost", p.ControlHost)
			if err := runner.Run(ctx, playbook.PlayControlConfigure, vars, playbook.WithBecome()); err != nil {
				return err
			}

			slog.Info("waking compute nodes", "nodes", len(nodes))
			if _, err := controller.Up(ctx, nodes); err != nil {
				return err
			}

			slog.Info("provisioning compute nodes", "nodes", len(nodes))
			if err := runner.Run(ctx, playbook.PlayComputeConfigure, vars, playbook.WithBecome()); err != nil {
				return err
			}

			fmt.Printf("Cluster configured: profile %s, %d compute nodes\n", p.Version, len(nodes))
			return nil
		},
	}
}

func clusterStatusCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:                  "status",
		EnableShellCompletion: true,
		Usage:                 "Report control host and compute node reachability",
		Description: `Probes the control host and every compute node and writes one combined
health document. The command fails when any host is unreachable, with
the unreachable hosts listed in the error.`,
		Flags: []cli.Flag{outputFlag, formatFlag},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			p, err := openStore(cfg).LoadActive()
			if err != nil {
				return err
			}
			nodes := inventory.BuildNodeList(p)

			transport := remote.NewTransport(remote.WithTransportSSHBinary(cfg.SSHBin))
			checker := probe.NewChecker(transport, probe.WithTimeout(cfg.ProbeTimeout))
			controlUp, err := checker.Check(ctx, p.ControlHost)
			if err != nil {
				return err
			}

			report, statusErr := newController(cfg).Status(ctx, nodes)
			if statusErr != nil && !hiveerrors.HasCode(statusErr, hiveerrors.ErrCodeNodeUnreachable) {
				return statusErr
			}

			doc := clusterStatus{
				Profile:          p.Version,
				ControlHost:      p.ControlHost,
				ControlReachable: controlUp,
				Compute:          report,
			}
			if err := writeResult(ctx, cmd, doc); err != nil {
				return err
			}

			unreachable := report.FailedNodes()
			if !controlUp {
				unreachable = append([]string{p.ControlHost}, unreachable...)
			}
			if len(unreachable) > 0 {
				return hiveerrors.Newf(hiveerrors.ErrCodeNodeUnreachable,
					"%d of %d hosts unreachable", len(unreachable), len(nodes)+1).
					WithDetail("hosts", unreachable)
			}
			return nil
		},
	}
}
