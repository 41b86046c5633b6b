// Package playbook builds and dispatches the external provisioning
// playbook invocations. The orchestrator stays hardware-agnostic: it
// forwards the profile document's facts as play variables and treats
// playbook failures as opaque.
package playbook

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/hivelab/hivectl/pkg/defaults"
	hiveerrors "github.com/hivelab/hivectl/pkg/errors"
	"github.com/hivelab/hivectl/pkg/profile"
)

// Names of the provisioning plays, resolved relative to the playbook
// directory.
const (
	PlayControlConfigure = "control_configure"
	PlayComputeConfigure = "compute_configure"
	PlayControlTest      = "control_test"
	PlayComputeTest      = "compute_test"
	PlayBuildImage       = "build_image"
	PlayCopyImage        = "copy_image"
	PlayCleanImage       = "clean_image"
)

// Vars are the facts every play receives from the active hardware
// profile. The capability field is how profile data selects hardware
// specific roles without the orchestrator branching on it.
type Vars struct {
	HardwareVersion  string `json:"hardware_version"`
	Capability       string `json:"hardware_capability,omitempty"`
	ComputeInterface string `json:"compute_interface,omitempty"`
}

// VarsFromProfile projects a profile document onto play variables.
func VarsFromProfile(p *profile.HardwareProfile) Vars {
	return Vars{
		HardwareVersion:  p.Version,
		Capability:       p.Capability,
		ComputeInterface: p.ComputeInterface,
	}
}

// Executor runs a command in the mirrored working tree and returns its
// literal exit code. *remote.Session implements it.
type Executor interface {
	Run(ctx context.Context, command string) (int, error)
}

// Runner dispatches plays through an Executor.
type Runner struct {
	exec        Executor
	binary      string
	inventory   string
	dir         string
	profilesDir string
}

// Option is a functional option for configuring Runner instances.
type Option func(*Runner)

// WithBinary overrides the playbook binary.
func WithBinary(bin string) Option {
	return func(r *Runner) {
		r.binary = bin
	}
}

// WithInventory sets the inventory file passed to every play.
func WithInventory(path string) Option {
	return func(r *Runner) {
		r.inventory = path
	}
}

// WithPlaybookDir sets the directory play names are resolved in.
func WithPlaybookDir(dir string) Option {
	return func(r *Runner) {
		r.dir = dir
	}
}

// WithProfilesDir sets the directory the mirrored profile documents
// live in on the control host.
func WithProfilesDir(dir string) Option {
	return func(r *Runner) {
		r.profilesDir = dir
	}
}

// NewRunner creates a Runner on top of exec.
func NewRunner(exec Executor, opts ...Option) *Runner {
	r := &Runner{
		exec:        exec,
		binary:      defaults.PlaybookBin,
		inventory:   defaults.InventoryFile,
		dir:         defaults.PlaybookDir,
		profilesDir: defaults.ProfilesDir,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// PlayOption adjusts a single play invocation.
type PlayOption func(*playSettings)

type playSettings struct {
	become    bool
	rootShell bool
}

// WithBecome runs the play with privilege escalation on the target
// hosts.
func WithBecome() PlayOption {
	return func(s *playSettings) {
		s.become = true
	}
}

// WithRootShell runs the playbook binary itself under sudo -E. Plays
// that enter a chroot need the controlling process to be root, not
// just the tasks.
func WithRootShell() PlayOption {
	return func(s *playSettings) {
		s.rootShell = true
	}
}

// Command renders the shell command for one play without running it.
func (r *Runner) Command(play string, vars Vars, opts ...PlayOption) (string, error) {
	settings := &playSettings{}
	for _, opt := range opts {
		opt(settings)
	}

	extraVars, err := json.Marshal(vars)
	if err != nil {
		return "", fmt.Errorf("failed to encode play variables: %w", err)
	}

	var parts []string
	if settings.rootShell {
		parts = append(parts, "sudo", "-E")
	}
	parts = append(parts,
		r.binary,
		"-i", r.inventory,
		path.Join(r.dir, play+".yml"),
	)
	// The full profile document first, then the projected facts, so
	// the facts win on key collisions.
	if vars.HardwareVersion != "" {
		doc := path.Join(r.profilesDir, vars.HardwareVersion+".yaml")
		parts = append(parts, "--extra-vars", "@"+doc)
	}
	parts = append(parts, "--extra-vars", fmt.Sprintf("'%s'", extraVars))
	if settings.become {
		parts = append(parts, "--become")
	}
	return strings.Join(parts, " "), nil
}

// Run dispatches one play and maps a non-zero exit to a playbook
// failure. Transport and sync errors from the executor pass through
// unchanged.
func (r *Runner) Run(ctx context.Context, play string, vars Vars, opts ...PlayOption) error {
	command, err := r.Command(play, vars, opts...)
	if err != nil {
		return err
	}

	slog.Info("running playbook", "play", play, "hardwareVersion", vars.HardwareVersion)

	code, err := r.exec.Run(ctx, command)
	if err != nil {
		return err
	}
	if code != 0 {
		return hiveerrors.Newf(hiveerrors.ErrCodePlaybookFailed,
			"playbook %s failed with exit code %d", play, code).
			WithDetail("play", play).
			WithDetail("exitCode", code)
	}

	slog.Info("playbook complete", "play", play)
	return nil
}
