/*
Copyright © 2026 Hivelab
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/hivelab/hivectl/pkg/config"
	"github.com/hivelab/hivectl/pkg/image"
	"github.com/hivelab/hivectl/pkg/playbook"
)

func imageCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "image",
		Usage: "Manage the golden image compute nodes boot from",
		Description: `The golden image is built in a chroot on the control host and served
to compute nodes over NFS. Build and clean own the resources around
the plays: bind mounts under the image root and the NFS export, set up
in order and torn down in strict reverse order.

# Examples

Build the image for the active profile:
  hivectl image build

Publish the built image to the export tree:
  hivectl image copy`,
		Commands: []*cli.Command{
			imageBuildCmd(cfg),
			imageCopyCmd(cfg),
			imageCleanCmd(cfg),
		},
	}
}

func imageBuildCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:                  "build",
		EnableShellCompletion: true,
		Usage:                 "Build the golden image in the chroot on the control host",
		Description: `Establishes the chroot bind mounts and the NFS export, runs the build
play under a root shell, and releases the resources again. A setup
failure rolls back whatever was already established.`,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runImageOp(ctx, cfg, func(ctx context.Context, m *image.Manager, vars playbook.Vars) error {
				if err := m.Build(ctx, vars); err != nil {
					return err
				}
				fmt.Printf("Image built under %s\n", cfg.ImageRoot)
				return nil
			})
		},
	}
}

func imageCopyCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:                  "copy",
		EnableShellCompletion: true,
		Usage:                 "Mirror the built image into the export tree",
		Description: `Runs the copy play to mirror the built root into the export path, then
refreshes the NFS export so compute nodes boot the new image on their
next start.`,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runImageOp(ctx, cfg, func(ctx context.Context, m *image.Manager, vars playbook.Vars) error {
				if err := m.Copy(ctx, vars); err != nil {
					return err
				}
				fmt.Printf("Image exported to %s\n", cfg.ExportPath)
				return nil
			})
		},
	}
}

func imageCleanCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:                  "clean",
		EnableShellCompletion: true,
		Usage:                 "Remove image build state and release its resources",
		Description: `Runs the clean play, then tears the export and bind mounts down in
strict reverse creation order. Teardown continues past failures and
reports every step that did not release.`,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runImageOp(ctx, cfg, func(ctx context.Context, m *image.Manager, vars playbook.Vars) error {
				if err := m.Clean(ctx, vars); err != nil {
					return err
				}
				fmt.Println("Image build state cleaned")
				return nil
			})
		},
	}
}

// runImageOp resolves the active profile, refreshes the inventory, and
// applies one image operation through the control host.
func runImageOp(ctx context.Context, cfg *config.Config,
	op func(context.Context, *image.Manager, playbook.Vars) error,
) error {
	p, err := openStore(cfg).LoadActive()
	if err != nil {
		return err
	}
	if err := writeInventory(cfg, p); err != nil {
		return err
	}

	session := newSession(cfg, p)
	manager := image.NewManager(session, newPlaybookRunner(cfg, session),
		image.WithImageRoot(cfg.ImageRoot),
		image.WithExportPath(cfg.ExportPath),
	)
	return op(ctx, manager, playbook.VarsFromProfile(p))
}
