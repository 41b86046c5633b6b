// Package inventory turns a hardware profile into the concrete node list
// the power and provisioning paths operate on, and renders the host
// inventory consumed by the external playbook runner.
package inventory

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hivelab/hivectl/pkg/profile"
)

// Node is one addressable compute node.
type Node struct {
	Name string `json:"name" yaml:"name"`
	MAC  string `json:"mac" yaml:"mac"`
	IP   string `json:"ip" yaml:"ip"`
}

// BuildNodeList returns a stable, ordered copy of the profile's compute
// nodes. Pure: no I/O, and the profile is never mutated.
func BuildNodeList(p *profile.HardwareProfile) []Node {
	nodes := make([]Node, 0, len(p.ComputeNodes))
	for _, n := range p.ComputeNodes {
		nodes = append(nodes, Node{Name: n.Name, MAC: n.MAC, IP: n.IP})
	}
	return nodes
}

// Names returns the node names in list order.
func Names(nodes []Node) []string {
	names := make([]string, len(nodes))
	for i, n := range nodes {
		names[i] = n.Name
	}
	return names
}

// ByName resolves a single node by its label.
func ByName(nodes []Node, name string) (Node, bool) {
	for _, n := range nodes {
		if n.Name == name {
			return n, true
		}
	}
	return Node{}, false
}

// RenderOptions controls inventory rendering.
type RenderOptions struct {
	// ComputeUser is the login user the runner uses on compute nodes.
	ComputeUser string
}

// Render produces the playbook-runner inventory for the profile: the
// control host under [control] and one ansible_host line per compute node
// under [compute], in list order.
func Render(p *profile.HardwareProfile, opts RenderOptions) []byte {
	var b strings.Builder

	b.WriteString("[control]\n")
	b.WriteString(p.ControlHost + "\n")
	b.WriteString("\n[compute]\n")
	for _, n := range p.ComputeNodes {
		fmt.Fprintf(&b, "%s ansible_host=%s\n", n.Name, n.IP)
	}
	if opts.ComputeUser != "" {
		fmt.Fprintf(&b, "\n[compute:vars]\nansible_user=%s\n", opts.ComputeUser)
	}

	return []byte(b.String())
}

// Write renders the inventory to path inside the working tree, creating
// parent directories as needed, so a following sync mirrors it to the
// control host.
func Write(path string, p *profile.HardwareProfile, opts RenderOptions) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create inventory directory: %w", err)
	}
	if err := os.WriteFile(path, Render(p, opts), 0o644); err != nil {
		return fmt.Errorf("failed to write inventory %s: %w", path, err)
	}
	return nil
}
