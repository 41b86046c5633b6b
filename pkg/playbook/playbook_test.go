package playbook

import (
	"context"
	"errors"
	"strings"
	"testing"

	hiveerrors "github.com/hivelab/hivectl/pkg/errors"
	"github.com/hivelab/hivectl/pkg/profile"
)

type fakeExecutor struct {
	commands []string
	exitCode int
	err      error
}

func (f *fakeExecutor) Run(ctx context.Context, command string) (int, error) {
	f.commands = append(f.commands, command)
	return f.exitCode, f.err
}

func TestCommandShapes(t *testing.T) {
	tests := []struct {
		name string
		play string
		vars Vars
		opts []PlayOption
		want string
	}{
		{
			name: "configure play with become",
			play: PlayControlConfigure,
			vars: Vars{HardwareVersion: "0.2"},
			opts: []PlayOption{WithBecome()},
			want: `ansible-playbook -i ansible/inventory.dyn ansible/control_configure.yml --extra-vars @profiles/0.2.yaml --extra-vars '{"hardware_version":"0.2"}' --become`,
		},
		{
			name: "chroot play escalates the controlling shell",
			play: PlayBuildImage,
			vars: Vars{HardwareVersion: "0.2"},
			opts: []PlayOption{WithBecome(), WithRootShell()},
			want: `sudo -E ansible-playbook -i ansible/inventory.dyn ansible/build_image.yml --extra-vars @profiles/0.2.yaml --extra-vars '{"hardware_version":"0.2"}' --become`,
		},
		{
			name: "clean play runs unprivileged",
			play: PlayCleanImage,
			vars: Vars{HardwareVersion: "0.1"},
			want: `ansible-playbook -i ansible/inventory.dyn ansible/clean_image.yml --extra-vars @profiles/0.1.yaml --extra-vars '{"hardware_version":"0.1"}'`,
		},
		{
			name: "capability and interface forwarded when set",
			play: PlayComputeConfigure,
			vars: Vars{HardwareVersion: "0.3", Capability: "gpu", ComputeInterface: "enp9s0"},
			opts: []PlayOption{WithBecome()},
			want: `ansible-playbook -i ansible/inventory.dyn ansible/compute_configure.yml --extra-vars @profiles/0.3.yaml --extra-vars '{"hardware_version":"0.3","hardware_capability":"gpu","compute_interface":"enp9s0"}' --become`,
		},
	}

	r := NewRunner(&fakeExecutor{})
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := r.Command(tc.play, tc.vars, tc.opts...)
			if err != nil {
				t.Fatalf("Command returned error: %v", err)
			}
			if got != tc.want {
				t.Errorf("command = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestRunDispatchesThroughExecutor(t *testing.T) {
	exec := &fakeExecutor{}
	r := NewRunner(exec, WithInventory("ansible/hosts.ini"), WithPlaybookDir("plays"))

	err := r.Run(context.Background(), PlayComputeTest, Vars{HardwareVersion: "0.2"}, WithBecome())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(exec.commands) != 1 {
		t.Fatalf("executor ran %d commands, want 1", len(exec.commands))
	}
	if !strings.Contains(exec.commands[0], "-i ansible/hosts.ini plays/compute_test.yml") {
		t.Errorf("command = %q, options not honored", exec.commands[0])
	}
}

func TestRunMapsNonZeroExitToPlaybookFailure(t *testing.T) {
	r := NewRunner(&fakeExecutor{exitCode: 2})

	err := r.Run(context.Background(), PlayComputeConfigure, Vars{HardwareVersion: "0.2"})
	if err == nil {
		t.Fatal("expected error for failing play")
	}
	if !hiveerrors.HasCode(err, hiveerrors.ErrCodePlaybookFailed) {
		t.Errorf("error code = %s, want %s", hiveerrors.Code(err), hiveerrors.ErrCodePlaybookFailed)
	}

	var structured *hiveerrors.StructuredError
	if !errors.As(err, &structured) {
		t.Fatalf("expected structured error, got %T", err)
	}
	if structured.Details["exitCode"] != 2 {
		t.Errorf("exitCode detail = %v, want 2", structured.Details["exitCode"])
	}
}

func TestRunPassesTransportErrorsThrough(t *testing.T) {
	transportErr := hiveerrors.New(hiveerrors.ErrCodeSyncFailed, "failed to sync working tree")
	r := NewRunner(&fakeExecutor{err: transportErr})

	err := r.Run(context.Background(), PlayControlConfigure, Vars{HardwareVersion: "0.2"})
	if !hiveerrors.HasCode(err, hiveerrors.ErrCodeSyncFailed) {
		t.Errorf("error code = %s, want sync failure passed through", hiveerrors.Code(err))
	}
}

func TestVarsFromProfile(t *testing.T) {
	p := &profile.HardwareProfile{
		Version:          "0.2",
		ControlHost:      "control",
		ComputeInterface: "enp9s0",
		Capability:       "gpu",
	}

	vars := VarsFromProfile(p)
	if vars.HardwareVersion != "0.2" || vars.Capability != "gpu" || vars.ComputeInterface != "enp9s0" {
		t.Errorf("VarsFromProfile = %+v", vars)
	}
}
