package image

import (
	"context"
	"strings"
	"testing"

	hiveerrors "github.com/hivelab/hivectl/pkg/errors"
	"github.com/hivelab/hivectl/pkg/playbook"
)

// fakeExec and fakePlays append to a shared sequence log so tests can
// assert ordering across commands and plays.
type fakeExec struct {
	log      *[]string
	failures map[string]int // command substring -> exit code
}

func (f *fakeExec) Run(ctx context.Context, command string) (int, error) {
	*f.log = append(*f.log, command)
	for substr, code := range f.failures {
		if strings.Contains(command, substr) {
			return code, nil
		}
	}
	return 0, nil
}

type fakePlays struct {
	log *[]string
	err error
}

func (f *fakePlays) Run(ctx context.Context, play string, vars playbook.Vars, opts ...playbook.PlayOption) error {
	*f.log = append(*f.log, "play:"+play)
	return f.err
}

func newTestManager(log *[]string, failures map[string]int, playErr error) *Manager {
	return NewManager(
		&fakeExec{log: log, failures: failures},
		&fakePlays{log: log, err: playErr},
	)
}

func indexOf(log []string, substr string) int {
	for i, entry := range log {
		if strings.Contains(entry, substr) {
			return i
		}
	}
	return -1
}

func TestBuildEstablishesAndReleasesInReverseOrder(t *testing.T) {
	var log []string
	m := newTestManager(&log, nil, nil)

	if err := m.Build(context.Background(), playbook.Vars{HardwareVersion: "0.2"}); err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	want := []string{
		"sudo mkdir -p /srv/hive/image/dev && sudo mount --bind /dev /srv/hive/image/dev",
		"sudo mkdir -p /srv/hive/image/proc && sudo mount --bind /proc /srv/hive/image/proc",
		"sudo mkdir -p /srv/hive/image/sys && sudo mount --bind /sys /srv/hive/image/sys",
		"sudo mkdir -p /srv/hive/export && sudo exportfs -o ro,no_subtree_check '*:/srv/hive/export'",
		"play:build_image",
		"sudo chown -R $USER:$USER $HOME/.ansible",
		"! sudo exportfs | grep -q /srv/hive/export || sudo exportfs -u '*:/srv/hive/export'",
		"! mountpoint -q /srv/hive/image/sys || sudo umount /srv/hive/image/sys",
		"! mountpoint -q /srv/hive/image/proc || sudo umount /srv/hive/image/proc",
		"! mountpoint -q /srv/hive/image/dev || sudo umount /srv/hive/image/dev",
	}
	if len(log) != len(want) {
		t.Fatalf("executed %d commands, want %d:\n%s", len(log), len(want), strings.Join(log, "\n"))
	}
	for i := range want {
		if log[i] != want[i] {
			t.Errorf("command[%d] = %q, want %q", i, log[i], want[i])
		}
	}
}

func TestBuildRollsBackAcquiredStepsOnSetupFailure(t *testing.T) {
	var log []string
	failures := map[string]int{"mount --bind /proc": 32}
	m := newTestManager(&log, failures, nil)

	err := m.Build(context.Background(), playbook.Vars{HardwareVersion: "0.2"})
	if err == nil {
		t.Fatal("expected error for failing setup step")
	}
	if !strings.Contains(err.Error(), "bind /proc") {
		t.Errorf("error = %v, want the failing step named", err)
	}

	if idx := indexOf(log, "play:"); idx != -1 {
		t.Errorf("play ran despite setup failure: %v", log[idx])
	}
	if idx := indexOf(log, "umount /srv/hive/image/dev"); idx == -1 {
		t.Error("acquired bind /dev was not rolled back")
	}
	if idx := indexOf(log, "umount /srv/hive/image/sys"); idx != -1 {
		t.Error("rollback touched a step that was never established")
	}
}

func TestBuildReleasesResourcesWhenPlayFails(t *testing.T) {
	var log []string
	playErr := hiveerrors.New(hiveerrors.ErrCodePlaybookFailed, "playbook build_image failed with exit code 2")
	m := newTestManager(&log, nil, playErr)

	err := m.Build(context.Background(), playbook.Vars{HardwareVersion: "0.2"})
	if !hiveerrors.HasCode(err, hiveerrors.ErrCodePlaybookFailed) {
		t.Fatalf("Build error = %v, want the play failure", err)
	}

	for _, substr := range []string{
		"umount /srv/hive/image/dev",
		"umount /srv/hive/image/proc",
		"umount /srv/hive/image/sys",
		"exportfs -u",
	} {
		if indexOf(log, substr) == -1 {
			t.Errorf("teardown %q skipped after play failure", substr)
		}
	}
	if indexOf(log, "chown") != -1 {
		t.Error("ownership fix ran despite play failure")
	}
}

func TestCleanContinuesPastTeardownFailures(t *testing.T) {
	var log []string
	failures := map[string]int{
		"umount /srv/hive/image/sys": 1,
		"umount /srv/hive/image/dev": 1,
	}
	m := newTestManager(&log, failures, nil)

	err := m.Clean(context.Background(), playbook.Vars{HardwareVersion: "0.2"})
	if err == nil {
		t.Fatal("expected aggregate error for failing teardown steps")
	}
	if !hiveerrors.HasCode(err, hiveerrors.ErrCodeTeardownStep) {
		t.Errorf("error code = %s, want %s", hiveerrors.Code(err), hiveerrors.ErrCodeTeardownStep)
	}
	if !strings.Contains(err.Error(), "2 of 4") {
		t.Errorf("error = %v, want both failed steps counted", err)
	}

	// Strict reverse order, every step attempted despite failures.
	wantOrder := []string{
		"play:clean_image",
		"exportfs -u",
		"umount /srv/hive/image/sys",
		"umount /srv/hive/image/proc",
		"umount /srv/hive/image/dev",
	}
	prev := -1
	for _, substr := range wantOrder {
		idx := indexOf(log, substr)
		if idx == -1 {
			t.Fatalf("step %q never attempted: %v", substr, log)
		}
		if idx < prev {
			t.Errorf("step %q ran out of order", substr)
		}
		prev = idx
	}
}

func TestCleanReportsPlayAndTeardownFailuresTogether(t *testing.T) {
	var log []string
	playErr := hiveerrors.New(hiveerrors.ErrCodePlaybookFailed, "playbook clean_image failed with exit code 2")
	failures := map[string]int{"umount /srv/hive/image/dev": 1}
	m := newTestManager(&log, failures, playErr)

	err := m.Clean(context.Background(), playbook.Vars{HardwareVersion: "0.2"})
	if !hiveerrors.HasCode(err, hiveerrors.ErrCodePlaybookFailed) {
		t.Errorf("aggregate error lost the play failure: %v", err)
	}
	if !hiveerrors.HasCode(err, hiveerrors.ErrCodeTeardownStep) {
		t.Errorf("aggregate error lost the teardown failure: %v", err)
	}
}

func TestCopyRefreshesExports(t *testing.T) {
	var log []string
	m := newTestManager(&log, nil, nil)

	if err := m.Copy(context.Background(), playbook.Vars{HardwareVersion: "0.2"}); err != nil {
		t.Fatalf("Copy returned error: %v", err)
	}

	playIdx := indexOf(log, "play:copy_image")
	refreshIdx := indexOf(log, "sudo exportfs -ra")
	if playIdx == -1 || refreshIdx == -1 {
		t.Fatalf("log = %v, want copy play and export refresh", log)
	}
	if refreshIdx < playIdx {
		t.Error("export refreshed before the image was copied")
	}
}
