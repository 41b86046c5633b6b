/*
Copyright © 2026 Hivelab
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/hivelab/hivectl/pkg/config"
	hiveerrors "github.com/hivelab/hivectl/pkg/errors"
	"github.com/hivelab/hivectl/pkg/oci"
)

// profileInfo is one row of hardware list output.
type profileInfo struct {
	Version string `json:"version" yaml:"version"`
	Active  bool   `json:"active" yaml:"active"`
}

func hardwareCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "hardware",
		Usage: "Select and inspect hardware profiles",
		Description: `Hardware profiles describe one physical cluster generation: the control
host, its cluster-facing interface, and the compute node inventory. One
profile is active at a time; every cluster operation resolves it first.

# Examples

Select the profile for the current hardware generation:
  hivectl hardware set 0.2

Show what the cluster operations will run against:
  hivectl hardware show --format table

Share the profile set with another operator machine:
  hivectl hardware publish --to oci://registry.hivelab.io:5000/hive/profiles:v3
  hivectl hardware pull --from oci://registry.hivelab.io:5000/hive/profiles:v3`,
		Commands: []*cli.Command{
			hardwareSetCmd(cfg),
			hardwareGetCmd(cfg),
			hardwareListCmd(cfg),
			hardwareShowCmd(cfg),
			hardwarePublishCmd(cfg),
			hardwarePullCmd(cfg),
		},
	}
}

func hardwareSetCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:                  "set",
		EnableShellCompletion: true,
		Usage:                 "Select the active hardware profile",
		ArgsUsage:             "<version>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return fmt.Errorf("expected exactly one argument: the profile version")
			}
			version := cmd.Args().First()

			if err := openStore(cfg).SetActive(version); err != nil {
				return err
			}
			slog.Info("active profile selected", "version", version)
			fmt.Printf("Active hardware profile: %s\n", version)
			return nil
		},
	}
}

func hardwareGetCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:                  "get",
		EnableShellCompletion: true,
		Usage:                 "Print the active hardware profile version",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			version, err := openStore(cfg).Active()
			if err != nil {
				return err
			}
			fmt.Println(version)
			return nil
		},
	}
}

func hardwareListCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:                  "list",
		EnableShellCompletion: true,
		Usage:                 "List available hardware profile versions",
		Flags:                 []cli.Flag{outputFlag, formatFlag},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			store := openStore(cfg)
			versions, err := store.List()
			if err != nil {
				return err
			}

			active, err := store.Active()
			if err != nil && !hiveerrors.HasCode(err, hiveerrors.ErrCodeNoActiveProfile) {
				return err
			}

			infos := make([]profileInfo, 0, len(versions))
			for _, v := range versions {
				infos = append(infos, profileInfo{Version: v, Active: v == active})
			}
			return writeResult(ctx, cmd, infos)
		},
	}
}

func hardwareShowCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:                  "show",
		EnableShellCompletion: true,
		Usage:                 "Render a hardware profile document",
		ArgsUsage:             "[version]",
		Flags:                 []cli.Flag{outputFlag, formatFlag},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			store := openStore(cfg)

			version := cmd.Args().First()
			if version == "" {
				var err error
				if version, err = store.Active(); err != nil {
					return err
				}
			}

			p, err := store.Load(version)
			if err != nil {
				return err
			}
			return writeResult(ctx, cmd, p)
		},
	}
}

func hardwarePublishCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:                  "publish",
		EnableShellCompletion: true,
		Usage:                 "Publish the profile set to an OCI registry",
		Description: `Packages every profile document as a single OCI artifact and pushes it,
so other operator machines can pull the identical profile set instead of
copying files by hand.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "to",
				Required: true,
				Usage:    "Artifact target, oci://registry/repository[:tag]",
			},
			&cli.BoolFlag{
				Name:  "plain-http",
				Usage: "Use HTTP instead of HTTPS for the registry (for local development)",
			},
			&cli.BoolFlag{
				Name:  "insecure-tls",
				Usage: "Skip TLS certificate verification for the registry",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			registry, repository, tag, err := parseRegistryTarget(cmd.String("to"))
			if err != nil {
				return err
			}

			staging, err := os.MkdirTemp("", "hivectl-profiles-*")
			if err != nil {
				return fmt.Errorf("failed to create staging directory: %w", err)
			}
			defer os.RemoveAll(staging)

			slog.Info("packaging profiles",
				slog.String("source", cfg.ProfilesDir),
				slog.String("registry", registry),
				slog.String("repository", repository),
				slog.String("tag", tag),
			)
			packaged, err := oci.Package(ctx, oci.PackageOptions{
				SourceDir:  cfg.ProfilesDir,
				OutputDir:  staging,
				Registry:   registry,
				Repository: repository,
				Tag:        tag,
			})
			if err != nil {
				return fmt.Errorf("failed to package profiles: %w", err)
			}
			slog.Info("profiles packaged locally",
				"reference", packaged.Reference,
				"digest", packaged.Digest,
				"documents", len(packaged.Files),
			)

			pushed, err := oci.PushFromStore(ctx, packaged.StorePath, oci.PushOptions{
				Registry:    registry,
				Repository:  repository,
				Tag:         tag,
				PlainHTTP:   cmd.Bool("plain-http"),
				InsecureTLS: cmd.Bool("insecure-tls"),
			})
			if err != nil {
				return fmt.Errorf("failed to push profiles: %w", err)
			}

			fmt.Printf("Published %d profile documents\n", len(packaged.Files))
			fmt.Printf("  %s\n", pushed.Reference)
			fmt.Printf("  %s\n", pushed.Digest)
			return nil
		},
	}
}

func hardwarePullCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:                  "pull",
		EnableShellCompletion: true,
		Usage:                 "Pull a published profile set from an OCI registry",
		Description: `Fetches a published profile artifact and extracts its documents into the
profiles directory. Documents with the same names are overwritten; the
active selection is left untouched.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "from",
				Required: true,
				Usage:    "Artifact source, oci://registry/repository[:tag]",
			},
			&cli.BoolFlag{
				Name:  "plain-http",
				Usage: "Use HTTP instead of HTTPS for the registry (for local development)",
			},
			&cli.BoolFlag{
				Name:  "insecure-tls",
				Usage: "Skip TLS certificate verification for the registry",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			registry, repository, tag, err := parseRegistryTarget(cmd.String("from"))
			if err != nil {
				return err
			}

			slog.Info("pulling profiles",
				slog.String("registry", registry),
				slog.String("repository", repository),
				slog.String("tag", tag),
				slog.String("dest", cfg.ProfilesDir),
			)
			pulled, err := oci.Pull(ctx, oci.PullOptions{
				Registry:    registry,
				Repository:  repository,
				Tag:         tag,
				DestDir:     cfg.ProfilesDir,
				PlainHTTP:   cmd.Bool("plain-http"),
				InsecureTLS: cmd.Bool("insecure-tls"),
			})
			if err != nil {
				return fmt.Errorf("failed to pull profiles: %w", err)
			}

			fmt.Printf("Pulled %s\n", pulled.Reference)
			for _, f := range pulled.Files {
				fmt.Printf("  %s\n", f)
			}
			return nil
		},
	}
}
