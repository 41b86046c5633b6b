// Package probe answers one question: does a host currently accept SSH
// sessions. Power operations poll it while waking nodes and consult it
// before shutting them down.
package probe

import (
	"context"
	"errors"
	"time"

	"github.com/hivelab/hivectl/pkg/defaults"
	"github.com/hivelab/hivectl/pkg/remote"
)

// probeCommand is the trivial remote command whose completion proves a
// working SSH session. Its exit code is irrelevant as long as it is not
// the ssh client's own failure code.
const probeCommand = "true"

// Runner executes one-shot remote commands. *remote.Transport
// implements it.
type Runner interface {
	Output(ctx context.Context, host, command string, timeout time.Duration) (*remote.Result, error)
}

// Checker probes hosts for SSH reachability.
type Checker struct {
	runner  Runner
	timeout time.Duration
}

// Option configures a Checker.
type Option func(*Checker)

// WithTimeout bounds a single probe attempt. Defaults to
// defaults.ProbeTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Checker) {
		c.timeout = d
	}
}

// NewChecker creates a reachability checker on top of runner.
func NewChecker(runner Runner, opts ...Option) *Checker {
	c := &Checker{
		runner:  runner,
		timeout: defaults.ProbeTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check reports whether host accepts an SSH session right now. An
// unreachable host is a result, not an error: probes that time out or
// are refused return (false, nil). The error return is reserved for
// cancellation of ctx and for local problems such as a missing ssh
// client.
func (c *Checker) Check(ctx context.Context, host string) (bool, error) {
	res, err := c.runner.Output(ctx, host, probeCommand, c.timeout)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return false, nil
		}
		return false, err
	}
	return res.ExitCode != remote.TransportExitCode, nil
}
