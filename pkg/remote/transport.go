package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/hivelab/hivectl/pkg/defaults"
	hiveerrors "github.com/hivelab/hivectl/pkg/errors"
)

// Result holds the outcome of a one-shot remote command.
type Result struct {
	Host     string        `json:"host" yaml:"host"`
	Command  string        `json:"command" yaml:"command"`
	ExitCode int           `json:"exitCode" yaml:"exitCode"`
	Stdout   string        `json:"stdout,omitempty" yaml:"stdout,omitempty"`
	Stderr   string        `json:"stderr,omitempty" yaml:"stderr,omitempty"`
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// Transport executes one-shot SSH commands against arbitrary hosts. It
// does not touch the working-tree mirror; use Session for commands that
// depend on synchronized project files.
type Transport struct {
	sshBin string
}

// TransportOption configures a Transport.
type TransportOption func(*Transport)

// WithTransportSSHBinary overrides the ssh client binary.
func WithTransportSSHBinary(bin string) TransportOption {
	return func(t *Transport) {
		t.sshBin = bin
	}
}

// NewTransport creates a transport with the default ssh client.
func NewTransport(opts ...TransportOption) *Transport {
	t := &Transport{
		sshBin: defaults.SSHBin,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Output runs command on host in batch mode with captured output. The
// result carries the literal exit code, including 255 when the ssh
// client itself failed to reach the host; interpreting 255 is the
// caller's job. The error return covers spawn failures and expiry of
// the surrounding context only.
//
// A positive timeout bounds the whole attempt and is also passed to the
// ssh client as its connection timeout, so a dead host fails the probe
// instead of hanging in TCP retransmission.
func (t *Transport) Output(ctx context.Context, host, command string, timeout time.Duration) (*Result, error) {
	args := []string{"-o", "BatchMode=yes"}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()

		secs := int(timeout.Round(time.Second) / time.Second)
		if secs < 1 {
			secs = 1
		}
		args = append(args, "-o", fmt.Sprintf("ConnectTimeout=%d", secs))
	}
	args = append(args, host, command)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, t.sshBin, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	res := &Result{
		Host:     host,
		Command:  command,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if err != nil {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return res, hiveerrors.Wrap(hiveerrors.ErrCodeRemoteExec, err,
			fmt.Sprintf("failed to start ssh to %q", host)).
			WithDetail("host", host)
	}
	return res, nil
}

// Interactive hands the terminal over to an ssh process targeting
// host. An empty command opens a login shell. The returned int is the
// ssh exit code, which for interactive use doubles as the remote
// shell's exit status.
func (t *Transport) Interactive(ctx context.Context, host, command string) (int, error) {
	args := []string{host}
	if command != "" {
		args = append(args, command)
	}

	slog.Debug("opening interactive session", "host", host)

	cmd := exec.CommandContext(ctx, t.sshBin, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	if ctx.Err() != nil {
		return 0, ctx.Err()
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return 0, hiveerrors.Wrap(hiveerrors.ErrCodeRemoteExec, err,
		fmt.Sprintf("failed to start ssh to %q", host)).
		WithDetail("host", host)
}
