package profile

import (
	"fmt"
	"net"

	hiveerrors "github.com/hivelab/hivectl/pkg/errors"
)

// HardwareProfile identifies one physical cluster generation: its control
// host, the cluster-facing interface on that host, and the compute node
// inventory. Documents are human-authored, one per version, and never
// written by the orchestrator.
type HardwareProfile struct {
	// Version is the unique lookup key, matching the document filename stem.
	Version string `json:"version" yaml:"version"`

	// ControlHost is an alias resolved against the operator's ssh
	// configuration; no addresses or credentials are stored here.
	ControlHost string `json:"controlHost" yaml:"controlHost"`

	// ComputeInterface names the control-host NIC carrying cluster
	// traffic. Opaque to the orchestrator; forwarded to the playbook
	// runner.
	ComputeInterface string `json:"computeInterface" yaml:"computeInterface"`

	// Capability selects hardware-specific provisioning behavior (for
	// example which driver role the runner applies). Data only; the
	// orchestrator never branches on it.
	Capability string `json:"capability,omitempty" yaml:"capability,omitempty"`

	// ComputeNodes is ordered as authored. Order matters only for
	// deterministic display.
	ComputeNodes []ComputeNode `json:"computeNodes" yaml:"computeNodes"`
}

// ComputeNode is one cluster worker, defined statically by the operator.
type ComputeNode struct {
	Name string `json:"name" yaml:"name"`
	MAC  string `json:"mac" yaml:"mac"`
	IP   string `json:"ip" yaml:"ip"`
}

// Validate checks the profile invariants: non-empty node list, well-formed
// MAC and IP per node, unique node names, and the control-host fields
// present. The returned error names the exact offending field.
func (p *HardwareProfile) Validate() error {
	if p.Version == "" {
		return invalidField("version", "must not be empty")
	}
	if p.ControlHost == "" {
		return invalidField("controlHost", "must not be empty")
	}
	if p.ComputeInterface == "" {
		return invalidField("computeInterface", "must not be empty")
	}
	if len(p.ComputeNodes) == 0 {
		return invalidField("computeNodes", "must list at least one node")
	}

	seen := make(map[string]int, len(p.ComputeNodes))
	for i, node := range p.ComputeNodes {
		if node.Name == "" {
			return invalidField(fmt.Sprintf("computeNodes[%d].name", i), "must not be empty")
		}
		if prev, ok := seen[node.Name]; ok {
			return invalidField(fmt.Sprintf("computeNodes[%d].name", i),
				fmt.Sprintf("duplicates computeNodes[%d].name %q", prev, node.Name))
		}
		seen[node.Name] = i

		if _, err := net.ParseMAC(node.MAC); err != nil {
			return invalidField(fmt.Sprintf("computeNodes[%d].mac", i),
				fmt.Sprintf("malformed hardware address %q", node.MAC))
		}
		if net.ParseIP(node.IP) == nil {
			return invalidField(fmt.Sprintf("computeNodes[%d].ip", i),
				fmt.Sprintf("malformed address %q", node.IP))
		}
	}

	return nil
}

func invalidField(field, reason string) error {
	return hiveerrors.Newf(hiveerrors.ErrCodeProfileInvalid,
		"invalid profile field %s: %s", field, reason).WithDetail("field", field)
}
