// Copyright (c) 2026, Hivelab.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cli implements the command-line interface for the hivectl tool.
//
// # Overview
//
// The hivectl CLI operates a small heterogeneous cluster of stateless,
// network-booted compute nodes from an operator workstation. A hardware
// profile document describes the cluster; the active profile selects which
// one the commands act on. Remote work runs over plain ssh: power control
// probes and signals the nodes directly, provisioning is dispatched as
// ansible plays on the control host.
//
// # Commands
//
// hardware - Select and distribute hardware profiles:
//
//	hivectl hardware set v2
//	hivectl hardware list [--format yaml|json|table]
//	hivectl hardware show [version]
//	hivectl hardware publish --to oci://registry.example.com/lab/profiles:v2
//	hivectl hardware pull --from oci://registry.example.com/lab/profiles
//
// Profiles live as YAML documents in the profiles directory; set records the
// active version, publish and pull move the whole set through an OCI registry.
//
// control - Operate the control host:
//
//	hivectl control cmd -- ./scripts/seed.sh --verbose
//	hivectl control ssh
//	hivectl control configure
//	hivectl control test
//
// The control host serves the netboot chain. cmd mirrors the local working
// tree to the host and runs a command inside the mirror, with the remote exit
// code becoming the process exit code.
//
// compute - Power and provision the compute nodes:
//
//	hivectl compute up [--nodes 'node0*']
//	hivectl compute down
//	hivectl compute restart
//	hivectl compute status [--format json]
//	hivectl compute configure
//	hivectl compute test
//	hivectl compute ssh node03
//	hivectl compute cmd node03 -- uptime
//
// Power commands emit a per-node report. up waits until every selected node
// answers; interrupting the wait still emits the partial report. configure
// refuses to run unless every node is reachable.
//
// image - Manage the golden image:
//
//	hivectl image build
//	hivectl image copy
//	hivectl image clean
//
// The image is built in a chroot on the control host and exported over NFS.
// build and clean own the bind mounts and the export around the plays.
//
// cluster - Whole-cluster pipelines:
//
//	hivectl cluster configure
//	hivectl cluster status
//
// configure runs the full bring-up: down, image build, control provisioning,
// compute wake, compute provisioning. status combines control host and
// compute reachability in one document.
//
// # Global Flags
//
//	--output, -o      Output file path (default: stdout)
//	--format, -t      Output format: yaml, json, table (default: yaml)
//	--nodes           Select compute nodes by name, '*' wildcards allowed
//	--profiles-dir    Hardware profile directory
//	--selection-file  Active profile selection file
//	--debug           Enable debug logging
//	--log-json        Output logs in JSON format
//	--log-journal     Send logs to the systemd journal
//	--help, -h        Show command help
//	--version, -v     Show version information
//
// # Output Formats
//
// YAML (default):
//   - Human-readable, preserves structure
//   - Suitable for version control
//
// JSON:
//   - Machine-parseable, compact
//   - Suitable for programmatic consumption
//
// Table:
//   - Flattened FIELD/VALUE representation
//   - Suitable for terminal viewing
//
// # Usage Examples
//
// Bring a freshly racked cluster up:
//
//	hivectl hardware set v2
//	hivectl cluster configure
//
// Rebuild the image and reboot into it:
//
//	hivectl image build
//	hivectl image copy
//	hivectl compute restart
//
// Check cluster health from a script:
//
//	hivectl cluster status --format json --output health.json
//
// # Environment Variables
//
//	LOG_LEVEL               Set logging verbosity (debug, info, warn, error)
//	LOG_JSON                Output logs in JSON format
//	LOG_JOURNAL             Send logs to the systemd journal
//	HIVECTL_PROFILES_DIR    Hardware profile directory
//	HIVECTL_SELECTION_FILE  Active profile selection file
//	HIVECTL_REMOTE_DIR      Mirror directory on the control host
//	HIVECTL_WOL_BROADCAST   Wake-on-LAN broadcast address
//	HIVECTL_POLL_INTERVAL   Reachability poll interval
//	HIVECTL_METRICS_FILE    Prometheus textfile to write after each run
//
// # Exit Codes
//
//	0  Success
//	1  General error (invalid arguments, execution failure)
//	2  Interrupted; power reports cover the nodes reached so far
//
// control cmd, compute cmd and the ssh commands exit with the remote
// command's exit code instead.
//
// # Architecture
//
// The CLI uses the urfave/cli/v3 framework and delegates to specialized packages:
//   - pkg/profile - Hardware profile store and validation
//   - pkg/power - Wake-on-LAN, probing and per-node reports
//   - pkg/remote - ssh transport and the mirrored working tree
//   - pkg/playbook - ansible-playbook command construction
//   - pkg/image - Golden image resource lifecycle
//   - pkg/oci - Profile distribution through OCI registries
//   - pkg/serializer - Output formatting
//   - pkg/logging - Structured logging
//
// Version information is embedded at build time using ldflags:
//
//	go build -ldflags="-X 'github.com/hivelab/hivectl/pkg/cli.version=1.0.0'"
package cli
