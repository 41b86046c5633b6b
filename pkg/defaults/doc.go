/*
Copyright © 2026 Hivelab
SPDX-License-Identifier: Apache-2.0
*/

// Package defaults provides centralized configuration constants for hivectl.
//
// This package defines filesystem locations, remote paths, and timeout values
// used across the codebase. Centralizing these values ensures consistency
// and makes tuning easier.
//
// # Timeout Categories
//
// Timeouts are organized by component:
//
//   - Probe timeout: the bound on a single node liveness check
//   - Command timeout: the bound on a per-node remote command (shutdown, restart)
//   - Poll interval: the pacing of the power-up reachability loop
//
// # Usage
//
// Import and use constants directly:
//
//	import "github.com/hivelab/hivectl/pkg/defaults"
//
//	ctx, cancel := context.WithTimeout(ctx, defaults.ProbeTimeout)
//	defer cancel()
//
// # Timeout Guidelines
//
// When choosing timeout values:
//
//   - Probes: 5s default; a netbooting node that answers slower than this
//     is treated as not yet up and retried on the next tick
//   - Per-node commands: 30s; shutdown acknowledgment is fast or never
//   - Poll interval: 1s; power-on latency is dominated by POST and netboot,
//     not by probe frequency
package defaults
