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
	"github.com/hivelab/hivectl/pkg/oci"
	"github.com/hivelab/hivectl/pkg/playbook"
	"github.com/hivelab/hivectl/pkg/power"
	"github.com/hivelab/hivectl/pkg/probe"
	"github.com/hivelab/hivectl/pkg/profile"
	"github.com/hivelab/hivectl/pkg/remote"
	"github.com/hivelab/hivectl/pkg/serializer"
	"github.com/hivelab/hivectl/pkg/wol"
)

// parseOutputFormat extracts and validates the output format from CLI flags.
// Returns the validated format or an error if the format is unknown.
func parseOutputFormat(cmd *cli.Command) (serializer.Format, error) {
	outFormat := serializer.Format(cmd.String("format"))
	if outFormat.IsUnknown() {
		return "", fmt.Errorf("unknown output format: %q, valid formats are: %s",
			outFormat, strings.Join(serializer.SupportedFormats(), ", "))
	}
	return outFormat, nil
}

// writeResult serializes data according to the command's --format and
// --output flags.
func writeResult(ctx context.Context, cmd *cli.Command, data any) error {
	outFormat, err := parseOutputFormat(cmd)
	if err != nil {
		return err
	}

	ser, err := serializer.NewFileWriterOrStdout(outFormat, cmd.String("output"))
	if err != nil {
		return err
	}
	defer func() {
		if closer, ok := ser.(serializer.Closer); ok {
			if err := closer.Close(); err != nil {
				slog.Warn("failed to close serializer", "error", err)
			}
		}
	}()

	return ser.Serialize(ctx, data)
}

// openStore returns the profile store for the configured locations.
func openStore(cfg *config.Config) *profile.Store {
	return profile.NewStore(cfg.ProfilesDir, cfg.SelectionFile)
}

// resolveNodes loads the active profile and selects the compute nodes
// the command operates on, honoring the --nodes patterns when given.
func resolveNodes(cfg *config.Config, cmd *cli.Command) (*profile.HardwareProfile, []inventory.Node, error) {
	p, err := openStore(cfg).LoadActive()
	if err != nil {
		return nil, nil, err
	}

	nodes := inventory.BuildNodeList(p)
	patterns := cmd.StringSlice("nodes")
	if len(patterns) > 0 {
		nodes = inventory.Filter(nodes, patterns)
		if len(nodes) == 0 {
			return nil, nil, hiveerrors.Newf(hiveerrors.ErrCodeInvalidInput,
				"no compute nodes match %v", patterns).
				WithDetail("patterns", patterns)
		}
	}
	return p, nodes, nil
}

// newController assembles the power controller from the configuration.
func newController(cfg *config.Config) *power.Controller {
	transport := remote.NewTransport(remote.WithTransportSSHBinary(cfg.SSHBin))
	return power.New(
		wol.NewBroadcaster(cfg.WOLBroadcast),
		probe.NewChecker(transport, probe.WithTimeout(cfg.ProbeTimeout)),
		transport,
		power.WithComputeUser(cfg.ComputeUser),
		power.WithPollInterval(cfg.PollInterval),
		power.WithCommandTimeout(cfg.CommandTimeout),
	)
}

// newSession opens a remote session against the profile's control host.
func newSession(cfg *config.Config, p *profile.HardwareProfile) *remote.Session {
	return remote.NewSession(p.ControlHost,
		remote.WithRemoteDir(cfg.RemoteDir),
		remote.WithSSHBinary(cfg.SSHBin),
		remote.WithRsyncBinary(cfg.RsyncBin),
	)
}

// newPlaybookRunner wires the playbook runner through a control-host
// session.
func newPlaybookRunner(cfg *config.Config, session *remote.Session) *playbook.Runner {
	return playbook.NewRunner(session,
		playbook.WithBinary(cfg.PlaybookBin),
		playbook.WithInventory(cfg.InventoryFile),
		playbook.WithPlaybookDir(cfg.PlaybookDir),
		playbook.WithProfilesDir(cfg.ProfilesDir),
	)
}

// writeInventory regenerates the playbook-runner inventory from the
// profile so the next sync mirrors it to the control host.
func writeInventory(cfg *config.Config, p *profile.HardwareProfile) error {
	return inventory.Write(cfg.InventoryFile, p, inventory.RenderOptions{
		ComputeUser: cfg.ComputeUser,
	})
}

// runPlay resolves the active profile, refreshes the inventory, and
// dispatches one play through the control host. Plays always execute
// on the control host, whichever inventory group they target.
func runPlay(ctx context.Context, cfg *config.Config, play string, opts ...playbook.PlayOption) error {
	p, err := openStore(cfg).LoadActive()
	if err != nil {
		return err
	}
	if err := writeInventory(cfg, p); err != nil {
		return err
	}

	session := newSession(cfg, p)
	runner := newPlaybookRunner(cfg, session)

	slog.Info("running play", "play", play, "controlHost", p.ControlHost, "profile", p.Version)
	if err := runner.Run(ctx, play, playbook.VarsFromProfile(p), opts...); err != nil {
		return err
	}
	slog.Info("play finished", "play", play)
	return nil
}

// parseRegistryTarget parses an oci://registry/repository[:tag] target
// for profile distribution. The tag defaults to latest.
func parseRegistryTarget(target string) (registry, repository, tag string, err error) {
	const scheme = "oci://"
	if !strings.HasPrefix(target, scheme) {
		return "", "", "", fmt.Errorf("invalid registry target %q: must start with %s", target, scheme)
	}

	rest := strings.TrimPrefix(target, scheme)
	tag = "latest"
	if i := strings.LastIndex(rest, ":"); i > strings.LastIndex(rest, "/") {
		tag = rest[i+1:]
		rest = rest[:i]
	}
	if tag == "" {
		return "", "", "", fmt.Errorf("invalid registry target %q: empty tag", target)
	}

	registry, repository, found := strings.Cut(rest, "/")
	if !found || registry == "" || repository == "" {
		return "", "", "", fmt.Errorf("invalid registry target %q: want oci://registry/repository[:tag]", target)
	}
	if err := oci.ValidateRegistryReference(registry, repository); err != nil {
		return "", "", "", err
	}
	return registry, repository, tag, nil
}

// exitWithCode mirrors a remote exit status as the process exit status
// without printing anything further; output was already streamed.
func exitWithCode(code int) error {
	if code == 0 {
		return nil
	}
	return cli.Exit("", code)
}
