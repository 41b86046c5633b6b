package inventory

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hivelab/hivectl/pkg/profile"
)

func testProfile() *profile.HardwareProfile {
	return &profile.HardwareProfile{
		Version:          "0.1",
		ControlHost:      "hive-ctl",
		ComputeInterface: "enp6s0",
		ComputeNodes: []profile.ComputeNode{
			{Name: "node0", MAC: "aa:bb:cc:dd:ee:00", IP: "192.168.1.100"},
			{Name: "node1", MAC: "aa:bb:cc:dd:ee:01", IP: "192.168.1.101"},
			{Name: "node2", MAC: "aa:bb:cc:dd:ee:02", IP: "192.168.1.102"},
		},
	}
}

func TestBuildNodeList(t *testing.T) {
	p := testProfile()

	nodes := BuildNodeList(p)

	if len(nodes) != len(p.ComputeNodes) {
		t.Fatalf("expected %d nodes, got %d", len(p.ComputeNodes), len(nodes))
	}
	for i, n := range nodes {
		if n.Name != p.ComputeNodes[i].Name {
			t.Errorf("node %d out of order: %q", i, n.Name)
		}
		if n.MAC != p.ComputeNodes[i].MAC || n.IP != p.ComputeNodes[i].IP {
			t.Errorf("node %d fields not copied: %+v", i, n)
		}
	}

	// Mutating the returned list must not touch the profile.
	nodes[0].Name = "mutated"
	nodes[0].IP = "10.0.0.1"
	if p.ComputeNodes[0].Name != "node0" || p.ComputeNodes[0].IP != "192.168.1.100" {
		t.Error("BuildNodeList leaked a reference into the profile")
	}
}

func TestBuildNodeListEmpty(t *testing.T) {
	p := testProfile()
	p.ComputeNodes = nil

	nodes := BuildNodeList(p)
	if len(nodes) != 0 {
		t.Errorf("expected empty list, got %v", nodes)
	}
}

func TestNamesAndByName(t *testing.T) {
	nodes := BuildNodeList(testProfile())

	names := Names(nodes)
	want := []string{"node0", "node1", "node2"}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, names[i], want[i])
		}
	}

	n, ok := ByName(nodes, "node1")
	if !ok || n.IP != "192.168.1.101" {
		t.Errorf("ByName(node1) = %+v, %v", n, ok)
	}
	if _, ok := ByName(nodes, "node9"); ok {
		t.Error("ByName should miss unknown names")
	}
}

func TestRender(t *testing.T) {
	got := string(Render(testProfile(), RenderOptions{ComputeUser: "compute"}))

	want := `[control]
hive-ctl

[compute]
node0 ansible_host=192.168.1.100
node1 ansible_host=192.168.1.101
node2 ansible_host=192.168.1.102

[compute:vars]
ansible_user=compute
`
	if got != want {
		t.Errorf("Render() mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestRenderWithoutComputeUser(t *testing.T) {
	got := string(Render(testProfile(), RenderOptions{}))

	if want := "node2 ansible_host=192.168.1.102\n"; got[len(got)-len(want):] != want {
		t.Errorf("inventory without compute user should end with the last host line, got:\n%s", got)
	}
}

func TestWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ansible", "inventory.dyn")

	if err := Write(path, testProfile(), RenderOptions{ComputeUser: "compute"}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading written inventory: %v", err)
	}
	if string(data) != string(Render(testProfile(), RenderOptions{ComputeUser: "compute"})) {
		t.Error("written inventory differs from rendered inventory")
	}
}
