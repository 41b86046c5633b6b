/*
Copyright © 2026 Hivelab
SPDX-License-Identifier: Apache-2.0
*/

// Package power drives the cluster power state machine: waking compute
// nodes over Wake-on-LAN, converging them down again, and observing
// their reachability. Node states are observed, never stored; every
// operation returns a report covering each selected node exactly once,
// including after cancellation.
package power

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/hivelab/hivectl/pkg/defaults"
	hiveerrors "github.com/hivelab/hivectl/pkg/errors"
	"github.com/hivelab/hivectl/pkg/inventory"
	"github.com/hivelab/hivectl/pkg/remote"
)

const (
	shutdownCommand = "sudo shutdown now"
	restartCommand  = "sudo shutdown -r now"
)

// Waker sends Wake-on-LAN magic packets. *wol.Broadcaster implements
// it.
type Waker interface {
	Wake(ctx context.Context, mac string) error
}

// Prober answers whether a host accepts SSH sessions. *probe.Checker
// implements it.
type Prober interface {
	Check(ctx context.Context, host string) (bool, error)
}

// Runner executes one-shot remote commands. *remote.Transport
// implements it.
type Runner interface {
	Output(ctx context.Context, host, command string, timeout time.Duration) (*remote.Result, error)
}

// Controller executes power operations against a set of compute nodes.
type Controller struct {
	waker      Waker
	prober     Prober
	runner     Runner
	user       string
	interval   time.Duration
	cmdTimeout time.Duration
}

// Option is a functional option for configuring Controller instances.
type Option func(*Controller)

// WithComputeUser sets the SSH user for node-level commands and
// probes. An empty user targets nodes by address alone.
func WithComputeUser(user string) Option {
	return func(c *Controller) {
		c.user = user
	}
}

// WithPollInterval sets the pacing of the wake poll loop.
func WithPollInterval(d time.Duration) Option {
	return func(c *Controller) {
		c.interval = d
	}
}

// WithCommandTimeout bounds each per-node shutdown or restart command.
func WithCommandTimeout(d time.Duration) Option {
	return func(c *Controller) {
		c.cmdTimeout = d
	}
}

// New creates a Controller with the provided options.
func New(waker Waker, prober Prober, runner Runner, opts ...Option) *Controller {
	c := &Controller{
		waker:      waker,
		prober:     prober,
		runner:     runner,
		user:       defaults.ComputeUser,
		interval:   defaults.PollInterval,
		cmdTimeout: defaults.CommandTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// target is the SSH destination for a node. Probes and shutdown
// commands go to the node address directly, not through the control
// host.
func (c *Controller) target(node inventory.Node) string {
	if c.user != "" {
		return c.user + "@" + node.IP
	}
	return node.IP
}

// Up sends one magic packet per node and then polls until every node
// accepts an SSH session. The loop has no iteration cap: network boot
// latency is open-ended, so it runs until success or until ctx is
// cancelled, in which case the report partitions the nodes into the
// reachable and unreachable sets observed so far.
func (c *Controller) Up(ctx context.Context, nodes []inventory.Node) (*Report, error) {
	start := time.Now()
	report := NewReport(OperationUp)
	if len(nodes) == 0 {
		report.Summary.Duration = time.Since(start)
		return report, nil
	}

	succeeded := false
	defer func() { observeOperation(OperationUp, time.Since(start).Seconds(), succeeded) }()

	slog.Info("waking compute nodes", "nodes", len(nodes))
	reachable := make([]bool, len(nodes))
	for _, node := range nodes {
		if err := c.waker.Wake(ctx, node.MAC); err != nil {
			if ctx.Err() != nil {
				c.finishUp(report, nodes, reachable, 0, start)
				return report, ctx.Err()
			}
			// A failed send is not fatal: the node may already be
			// powered, and the poll loop decides the outcome.
			slog.Warn("failed to send wake packet", "node", node.Name, "error", err)
			continue
		}
		wakePacketsTotal.Inc()
		slog.Debug("wake packet sent", "node", node.Name, "mac", node.MAC)
	}

	limiter := rate.NewLimiter(rate.Every(c.interval), 1)
	ticks := 0
	for {
		// The first Wait consumes the initial burst token, so the
		// first probe round starts immediately. Wait is also the
		// cancellation point between rounds.
		if err := limiter.Wait(ctx); err != nil {
			c.finishUp(report, nodes, reachable, ticks, start)
			if cerr := ctx.Err(); cerr != nil {
				return report, cerr
			}
			return report, err
		}
		ticks++

		g, gctx := errgroup.WithContext(ctx)
		for i, node := range nodes {
			if reachable[i] {
				continue
			}
			g.Go(func() error {
				up, err := c.prober.Check(gctx, c.target(node))
				if err != nil {
					return err
				}
				observeProbe(up)
				if up {
					reachable[i] = true
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			c.finishUp(report, nodes, reachable, ticks, start)
			return report, err
		}

		var waiting []string
		for i, node := range nodes {
			if !reachable[i] {
				waiting = append(waiting, node.Name)
			}
		}
		if len(waiting) == 0 {
			break
		}
		slog.Info("waiting for compute nodes",
			"attempt", ticks,
			"reachable", len(nodes)-len(waiting),
			"total", len(nodes),
			"waiting", strings.Join(waiting, ", "))
	}

	c.finishUp(report, nodes, reachable, ticks, start)
	slog.Info("all compute nodes reachable", "nodes", len(nodes), "attempts", ticks)
	succeeded = true
	return report, nil
}

// finishUp fills the report with the observed reachable/unreachable
// partition of the node set.
func (c *Controller) finishUp(report *Report, nodes []inventory.Node, reachable []bool, ticks int, start time.Time) {
	for i, node := range nodes {
		state := StateUnreachable
		if reachable[i] {
			state = StateReachable
		}
		report.Add(NodeResult{Node: node.Name, State: state})
	}
	report.Summary.Ticks = ticks
	report.Summary.Duration = time.Since(start)
}

// Down shuts every node down concurrently. A node that is already
// unreachable is a no-op success: shutdown converges toward "off", it
// does not assert that the node was up.
func (c *Controller) Down(ctx context.Context, nodes []inventory.Node) (*Report, error) {
	return c.signal(ctx, OperationDown, shutdownCommand, nodes)
}

// Restart reboots every node concurrently, with the same per-node
// aggregation rule as Down.
func (c *Controller) Restart(ctx context.Context, nodes []inventory.Node) (*Report, error) {
	return c.signal(ctx, OperationRestart, restartCommand, nodes)
}

func (c *Controller) signal(ctx context.Context, op Operation, command string, nodes []inventory.Node) (*Report, error) {
	start := time.Now()
	report := NewReport(op)
	if len(nodes) == 0 {
		report.Summary.Duration = time.Since(start)
		return report, nil
	}

	succeeded := false
	defer func() { observeOperation(op, time.Since(start).Seconds(), succeeded) }()

	slog.Info("signalling compute nodes", "operation", op, "nodes", len(nodes))

	results := make([]NodeResult, len(nodes))
	g, gctx := errgroup.WithContext(ctx)
	for i, node := range nodes {
		g.Go(func() error {
			res, err := c.signalNode(gctx, node, command)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	waitErr := g.Wait()

	for i, node := range nodes {
		if results[i].State == "" {
			results[i] = NodeResult{Node: node.Name, State: StateSkipped, Detail: "operation cancelled"}
		}
		report.Add(results[i])
	}
	report.Summary.Duration = time.Since(start)

	if waitErr != nil {
		return report, waitErr
	}
	if !report.OK() {
		return report, hiveerrors.New(hiveerrors.ErrCodeRemoteExec,
			fmt.Sprintf("%s failed on %d of %d nodes", op, report.Summary.Failed, report.Summary.Total)).
			WithDetail("nodes", report.FailedNodes())
	}
	succeeded = true
	return report, nil
}

// signalNode probes one node and, if it is up, issues the shutdown or
// restart command. Per-node failures are results, not errors; the
// error return is reserved for cancellation.
func (c *Controller) signalNode(ctx context.Context, node inventory.Node, command string) (NodeResult, error) {
	up, err := c.prober.Check(ctx, c.target(node))
	if err != nil {
		if ctx.Err() != nil {
			return NodeResult{}, ctx.Err()
		}
		return NodeResult{Node: node.Name, State: StateFailed, Detail: err.Error()}, nil
	}
	observeProbe(up)
	if !up {
		slog.Debug("node already unreachable, nothing to do", "node", node.Name)
		return NodeResult{Node: node.Name, State: StateSkipped, Detail: "already unreachable"}, nil
	}

	res, err := c.runner.Output(ctx, c.target(node), command, c.cmdTimeout)
	if err != nil {
		if ctx.Err() != nil {
			return NodeResult{}, ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return NodeResult{Node: node.Name, State: StateFailed, Detail: "command timed out"}, nil
		}
		return NodeResult{Node: node.Name, State: StateFailed, Detail: err.Error()}, nil
	}

	switch res.ExitCode {
	case 0:
		return NodeResult{Node: node.Name, State: StateAcked}, nil
	case remote.TransportExitCode:
		// The session dropping right after a positive probe is the
		// shutdown taking effect, not a transport fault.
		return NodeResult{Node: node.Name, State: StateAcked, Detail: "connection dropped"}, nil
	default:
		detail := fmt.Sprintf("exit %d", res.ExitCode)
		if msg := strings.TrimSpace(res.Stderr); msg != "" {
			detail = fmt.Sprintf("%s: %s", detail, msg)
		}
		return NodeResult{Node: node.Name, State: StateFailed, Detail: detail}, nil
	}
}

// Status probes every node once, concurrently. Success requires every
// node to be reachable; the report enumerates each unreachable node
// individually.
func (c *Controller) Status(ctx context.Context, nodes []inventory.Node) (*Report, error) {
	start := time.Now()
	report := NewReport(OperationStatus)
	if len(nodes) == 0 {
		report.Summary.Duration = time.Since(start)
		return report, nil
	}

	succeeded := false
	defer func() { observeOperation(OperationStatus, time.Since(start).Seconds(), succeeded) }()

	results := make([]NodeResult, len(nodes))
	g, gctx := errgroup.WithContext(ctx)
	for i, node := range nodes {
		g.Go(func() error {
			up, err := c.prober.Check(gctx, c.target(node))
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				results[i] = NodeResult{Node: node.Name, State: StateFailed, Detail: err.Error()}
				return nil
			}
			observeProbe(up)
			state := StateUnreachable
			if up {
				state = StateReachable
			}
			results[i] = NodeResult{Node: node.Name, State: state}
			return nil
		})
	}
	waitErr := g.Wait()

	for i, node := range nodes {
		if results[i].State == "" {
			results[i] = NodeResult{Node: node.Name, State: StateSkipped, Detail: "operation cancelled"}
		}
		report.Add(results[i])
	}
	report.Summary.Duration = time.Since(start)

	if waitErr != nil {
		return report, waitErr
	}
	if !report.OK() {
		return report, hiveerrors.New(hiveerrors.ErrCodeNodeUnreachable,
			fmt.Sprintf("%d of %d nodes unreachable", report.Summary.Failed, report.Summary.Total)).
			WithDetail("nodes", report.FailedNodes())
	}
	succeeded = true
	return report, nil
}
