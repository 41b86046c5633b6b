/*
Copyright © 2026 Hivelab
SPDX-License-Identifier: Apache-2.0
*/

// Package image owns the golden-image resource lifecycle on the
// control host: the chroot bind mounts the build runs inside and the
// NFS export compute nodes boot from. The provisioning itself is
// delegated to plays; this package guarantees the resources around
// them are established in order and released in strict reverse order,
// continuing past individual release failures.
package image

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"

	"github.com/hivelab/hivectl/pkg/defaults"
	hiveerrors "github.com/hivelab/hivectl/pkg/errors"
	"github.com/hivelab/hivectl/pkg/playbook"
)

// ownershipFix restores the operator's ownership of the ansible state
// directory after a play ran under sudo -E.
const ownershipFix = "sudo chown -R $USER:$USER $HOME/.ansible"

// Step pairs one resource acquisition with its guaranteed-release
// command. Both run on the control host; teardown commands are guarded
// so releasing an already-absent resource is a no-op success.
type Step struct {
	Name     string
	Setup    string
	Teardown string
}

// Executor runs a command in the mirrored working tree and returns its
// literal exit code. *remote.Session implements it.
type Executor interface {
	Run(ctx context.Context, command string) (int, error)
}

// PlayRunner dispatches provisioning plays. *playbook.Runner
// implements it.
type PlayRunner interface {
	Run(ctx context.Context, play string, vars playbook.Vars, opts ...playbook.PlayOption) error
}

// Manager drives image build, copy and clean around an ordered
// resource plan.
type Manager struct {
	exec   Executor
	plays  PlayRunner
	root   string
	export string
	plan   []Step
}

// Option is a functional option for configuring Manager instances.
type Option func(*Manager)

// WithImageRoot sets the chroot root of the image under construction.
func WithImageRoot(root string) Option {
	return func(m *Manager) {
		m.root = root
	}
}

// WithExportPath sets the NFS-exported directory compute nodes boot
// from.
func WithExportPath(dir string) Option {
	return func(m *Manager) {
		m.export = dir
	}
}

// NewManager creates a Manager with the provided options.
func NewManager(exec Executor, plays PlayRunner, opts ...Option) *Manager {
	m := &Manager{
		exec:   exec,
		plays:  plays,
		root:   defaults.ImageRoot,
		export: defaults.ExportPath,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.plan = resourcePlan(m.root, m.export)
	return m
}

// resourcePlan is the creation-ordered resource list: chroot binds
// first, the export last. Teardown walks it backwards.
func resourcePlan(root, export string) []Step {
	steps := make([]Step, 0, 4)
	for _, src := range []string{"/dev", "/proc", "/sys"} {
		target := path.Join(root, src)
		steps = append(steps, Step{
			Name:     "bind " + src,
			Setup:    fmt.Sprintf("sudo mkdir -p %s && sudo mount --bind %s %s", target, src, target),
			Teardown: fmt.Sprintf("! mountpoint -q %s || sudo umount %s", target, target),
		})
	}
	steps = append(steps, Step{
		Name:     "nfs export",
		Setup:    fmt.Sprintf("sudo mkdir -p %s && sudo exportfs -o ro,no_subtree_check '*:%s'", export, export),
		Teardown: fmt.Sprintf("! sudo exportfs | grep -q %s || sudo exportfs -u '*:%s'", export, export),
	})
	return steps
}

// Build establishes the chroot resources, runs the build play under a
// root shell, and releases the resources again. A setup failure rolls
// back whatever was already established; release failures after a
// successful play surface as a teardown error.
func (m *Manager) Build(ctx context.Context, vars playbook.Vars) error {
	acquired, err := m.establish(ctx)
	if err != nil {
		if terr := m.release(ctx, acquired); terr != nil {
			slog.Warn("rollback after failed setup reported errors", "error", terr)
		}
		return err
	}

	playErr := m.plays.Run(ctx, playbook.PlayBuildImage, vars,
		playbook.WithBecome(), playbook.WithRootShell())
	if playErr == nil {
		if code, err := m.exec.Run(ctx, ownershipFix); err != nil || code != 0 {
			slog.Warn("failed to restore ansible directory ownership", "exitCode", code, "error", err)
		}
	}

	terr := m.release(ctx, acquired)
	if playErr != nil {
		return playErr
	}
	return terr
}

// Copy mirrors the built root into the export path and refreshes the
// NFS export table.
func (m *Manager) Copy(ctx context.Context, vars playbook.Vars) error {
	if err := m.plays.Run(ctx, playbook.PlayCopyImage, vars, playbook.WithBecome()); err != nil {
		return err
	}

	code, err := m.exec.Run(ctx, "sudo exportfs -ra")
	if err != nil {
		return err
	}
	if code != 0 {
		return fmt.Errorf("failed to refresh nfs exports: exit %d", code)
	}
	return nil
}

// Clean runs the clean play and then releases every resource in the
// plan in strict reverse creation order. Release failures do not stop
// later releases; they are collected and reported together.
func (m *Manager) Clean(ctx context.Context, vars playbook.Vars) error {
	playErr := m.plays.Run(ctx, playbook.PlayCleanImage, vars)
	terr := m.release(ctx, m.plan)
	return errors.Join(playErr, terr)
}

// establish acquires the plan's resources in order, returning the
// acquired prefix alongside the first failure.
func (m *Manager) establish(ctx context.Context) ([]Step, error) {
	var acquired []Step
	for _, step := range m.plan {
		code, err := m.exec.Run(ctx, step.Setup)
		if err != nil {
			return acquired, err
		}
		if code != 0 {
			return acquired, fmt.Errorf("failed to establish %s: exit %d", step.Name, code)
		}
		slog.Debug("resource established", "step", step.Name)
		acquired = append(acquired, step)
	}
	return acquired, nil
}

// release walks steps backwards, attempting every teardown even after
// failures, and aggregates whatever failed.
func (m *Manager) release(ctx context.Context, steps []Step) error {
	var failures []string
	for i := len(steps) - 1; i >= 0; i-- {
		step := steps[i]
		code, err := m.exec.Run(ctx, step.Teardown)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.Error("teardown step failed", "step", step.Name, "error", err)
			failures = append(failures, fmt.Sprintf("%s: %v", step.Name, err))
		case code != 0:
			slog.Error("teardown step failed", "step", step.Name, "exitCode", code)
			failures = append(failures, fmt.Sprintf("%s: exit %d", step.Name, code))
		default:
			slog.Debug("resource released", "step", step.Name)
		}
	}
	if len(failures) > 0 {
		return hiveerrors.Newf(hiveerrors.ErrCodeTeardownStep,
			"%d of %d teardown steps failed", len(failures), len(steps)).
			WithDetail("steps", failures)
	}
	return nil
}
