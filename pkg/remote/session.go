// Package remote mirrors the local working tree to a host reachable
// through an SSH alias and executes commands inside that mirror. It
// also provides the one-shot SSH primitives the reachability and power
// layers build on.
package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/hivelab/hivectl/pkg/defaults"
	hiveerrors "github.com/hivelab/hivectl/pkg/errors"
)

// TransportExitCode is the exit code the ssh client reserves for its
// own failures (connection refused, host key rejection, auth errors).
// Remote commands normally never produce it, so it marks a transport
// problem rather than a command result.
const TransportExitCode = 255

var (
	aliasLocksMu sync.Mutex
	aliasLocks   = make(map[string]*sync.Mutex)
)

// lockFor returns the process-wide mutex guarding mirror operations
// against a single alias, creating it on first use.
func lockFor(alias string) *sync.Mutex {
	aliasLocksMu.Lock()
	defer aliasLocksMu.Unlock()

	lock, ok := aliasLocks[alias]
	if !ok {
		lock = &sync.Mutex{}
		aliasLocks[alias] = lock
	}
	return lock
}

// Session runs commands on one SSH alias inside a synchronized mirror
// of the local working tree. Sync and Run against the same alias are
// serialized within the process so concurrent sessions cannot corrupt
// the mirror mid-transfer.
type Session struct {
	alias     string
	localDir  string
	remoteDir string
	sshBin    string
	rsyncBin  string
	excludes  []string
	stdout    io.Writer
	stderr    io.Writer

	synced bool
}

// Option configures a Session.
type Option func(*Session)

// WithLocalDir sets the local directory that is mirrored to the remote
// host. Defaults to the current working directory.
func WithLocalDir(dir string) Option {
	return func(s *Session) {
		s.localDir = dir
	}
}

// WithRemoteDir sets the mirror path on the remote host, relative to
// the remote user's home directory.
func WithRemoteDir(dir string) Option {
	return func(s *Session) {
		s.remoteDir = dir
	}
}

// WithSSHBinary overrides the ssh client binary.
func WithSSHBinary(bin string) Option {
	return func(s *Session) {
		s.sshBin = bin
	}
}

// WithRsyncBinary overrides the rsync binary.
func WithRsyncBinary(bin string) Option {
	return func(s *Session) {
		s.rsyncBin = bin
	}
}

// WithExcludes replaces the sync exclusion patterns.
func WithExcludes(patterns ...string) Option {
	return func(s *Session) {
		s.excludes = patterns
	}
}

// WithStdout redirects streamed command output. Defaults to os.Stdout.
func WithStdout(w io.Writer) Option {
	return func(s *Session) {
		s.stdout = w
	}
}

// WithStderr redirects streamed command diagnostics. Defaults to
// os.Stderr.
func WithStderr(w io.Writer) Option {
	return func(s *Session) {
		s.stderr = w
	}
}

// NewSession creates a session for the given SSH alias.
func NewSession(alias string, opts ...Option) *Session {
	s := &Session{
		alias:     alias,
		localDir:  ".",
		remoteDir: defaults.RemoteDir,
		sshBin:    defaults.SSHBin,
		rsyncBin:  defaults.RsyncBin,
		excludes:  []string{".git", ".venv"},
		stdout:    os.Stdout,
		stderr:    os.Stderr,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Alias returns the SSH alias the session is bound to.
func (s *Session) Alias() string {
	return s.alias
}

// Sync mirrors the local working tree to the remote directory,
// deleting remote files that no longer exist locally. The exclusion
// patterns are never transferred or deleted.
func (s *Session) Sync(ctx context.Context) error {
	lock := lockFor(s.alias)
	lock.Lock()
	defer lock.Unlock()

	return s.syncLocked(ctx)
}

func (s *Session) syncLocked(ctx context.Context) error {
	if err := s.ensureRemoteDir(ctx); err != nil {
		return err
	}

	args := []string{"-az", "--delete"}
	for _, pattern := range s.excludes {
		args = append(args, "--exclude="+pattern)
	}
	args = append(args,
		strings.TrimSuffix(s.localDir, "/")+"/",
		fmt.Sprintf("%s:%s/", s.alias, s.remoteDir),
	)

	slog.Debug("syncing working tree", "alias", s.alias, "dest", s.remoteDir)

	var output bytes.Buffer
	cmd := exec.CommandContext(ctx, s.rsyncBin, args...)
	cmd.Stdout = &output
	cmd.Stderr = &output

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return hiveerrors.Wrap(hiveerrors.ErrCodeSyncFailed, err,
			fmt.Sprintf("failed to sync working tree to %q", s.alias)).
			WithDetail("alias", s.alias).
			WithDetail("output", strings.TrimSpace(output.String()))
	}

	s.synced = true
	return nil
}

// ensureRemoteDir creates the mirror directory on the remote host.
// Existing directories are fine; only the attempt has to succeed often
// enough for the following rsync to have a target.
func (s *Session) ensureRemoteDir(ctx context.Context) error {
	dir := s.remoteDir
	if dir == "" || dir == "." || dir == "/" {
		return nil
	}

	cmd := exec.CommandContext(ctx, s.sshBin, s.alias, "mkdir -p "+dir)
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard
	// Best effort: rsync reports the fatal case if the directory is
	// really missing.
	if err := cmd.Run(); err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return nil
}

// Run synchronizes the working tree if this session has not done so
// yet, then executes command inside the remote mirror with output
// streamed live. The returned int is the remote command's literal exit
// code; a non-zero code is not an error. The error return is reserved
// for transport failures, sync failures and cancellation.
func (s *Session) Run(ctx context.Context, command string) (int, error) {
	lock := lockFor(s.alias)
	lock.Lock()
	defer lock.Unlock()

	if !s.synced {
		if err := s.syncLocked(ctx); err != nil {
			return 0, err
		}
	}

	slog.Info("running remote command", "host", s.alias, "command", command)

	remote := fmt.Sprintf("cd %s && %s", s.remoteDir, command)
	cmd := exec.CommandContext(ctx, s.sshBin, s.alias, remote)
	cmd.Stdout = s.stdout
	cmd.Stderr = s.stderr

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	if ctx.Err() != nil {
		return 0, ctx.Err()
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		if code == TransportExitCode {
			return code, hiveerrors.Wrap(hiveerrors.ErrCodeRemoteExec, err,
				fmt.Sprintf("ssh transport to %q failed", s.alias)).
				WithDetail("alias", s.alias).
				WithDetail("command", command)
		}
		return code, nil
	}

	return 0, hiveerrors.Wrap(hiveerrors.ErrCodeRemoteExec, err,
		fmt.Sprintf("failed to start ssh to %q", s.alias)).
		WithDetail("alias", s.alias)
}
