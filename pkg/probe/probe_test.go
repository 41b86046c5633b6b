package probe

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hivelab/hivectl/pkg/remote"
)

type fakeRunner struct {
	exitCode int
	err      error

	gotHost    string
	gotCommand string
	gotTimeout time.Duration
}

func (f *fakeRunner) Output(ctx context.Context, host, command string, timeout time.Duration) (*remote.Result, error) {
	f.gotHost = host
	f.gotCommand = command
	f.gotTimeout = timeout
	if f.err != nil {
		return &remote.Result{Host: host, Command: command}, f.err
	}
	return &remote.Result{Host: host, Command: command, ExitCode: f.exitCode}, nil
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name          string
		exitCode      int
		err           error
		wantReachable bool
		wantErr       bool
	}{
		{
			name:          "clean session",
			exitCode:      0,
			wantReachable: true,
		},
		{
			name:          "session accepted with failing command",
			exitCode:      1,
			wantReachable: true,
		},
		{
			name:          "transport failure",
			exitCode:      255,
			wantReachable: false,
		},
		{
			name:          "probe timeout",
			err:           context.DeadlineExceeded,
			wantReachable: false,
		},
		{
			name:    "local spawn failure",
			err:     errors.New("exec: \"ssh\": executable file not found"),
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			runner := &fakeRunner{exitCode: tc.exitCode, err: tc.err}
			checker := NewChecker(runner)

			reachable, err := checker.Check(context.Background(), "node1")
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Check returned error: %v", err)
			}
			if reachable != tc.wantReachable {
				t.Errorf("Check = %v, want %v", reachable, tc.wantReachable)
			}
		})
	}
}

func TestCheckForwardsTimeout(t *testing.T) {
	runner := &fakeRunner{}
	checker := NewChecker(runner, WithTimeout(2*time.Second))

	if _, err := checker.Check(context.Background(), "node3"); err != nil {
		t.Fatalf("Check returned error: %v", err)
	}
	if runner.gotHost != "node3" {
		t.Errorf("probed host = %q, want node3", runner.gotHost)
	}
	if runner.gotCommand != "true" {
		t.Errorf("probe command = %q, want true", runner.gotCommand)
	}
	if runner.gotTimeout != 2*time.Second {
		t.Errorf("probe timeout = %v, want 2s", runner.gotTimeout)
	}
}

func TestCheckCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := &fakeRunner{err: context.Canceled}
	checker := NewChecker(runner)

	if _, err := checker.Check(ctx, "node1"); !errors.Is(err, context.Canceled) {
		t.Errorf("Check error = %v, want context.Canceled", err)
	}
}
