package defaults

import "time"

// Filesystem layout relative to the cluster working tree.
const (
	// ProfilesDir holds one hardware profile document per version.
	ProfilesDir = "profiles"

	// SelectionFile persists the active profile version. Kept out of
	// version control; written only by "hardware set".
	SelectionFile = ".hivectl-profile"

	// InventoryFile is where the generated playbook-runner inventory is
	// written before a sync mirrors it to the control host.
	InventoryFile = "ansible/inventory.dyn"

	// PlaybookDir holds the provisioning playbooks consumed by the
	// external runner.
	PlaybookDir = "ansible"
)

// Remote execution.
const (
	// RemoteDir is the mirror of the working tree on the control host,
	// relative to the login user's home directory.
	RemoteDir = "remote/hive"

	// ComputeUser is the login user on compute nodes, used both for the
	// generated inventory and for direct per-node commands.
	ComputeUser = "compute"

	// SSHBin, RsyncBin and PlaybookBin name the external binaries; host
	// and credential resolution stays with the operator's own ssh setup.
	SSHBin      = "ssh"
	RsyncBin    = "rsync"
	PlaybookBin = "ansible-playbook"
)

// Golden image locations on the control host.
const (
	// ImageRoot is the chroot in which the golden image is built.
	ImageRoot = "/srv/hive/image"

	// ExportPath is the NFS-exported copy the boot chain serves to nodes.
	ExportPath = "/srv/hive/export"
)

// Power lifecycle.
const (
	// WOLBroadcast is the default destination for Wake-on-LAN magic
	// packets.
	WOLBroadcast = "255.255.255.255:9"

	// PollInterval paces the power-up reachability loop.
	PollInterval = 1 * time.Second

	// ProbeTimeout bounds a single node liveness check.
	ProbeTimeout = 5 * time.Second

	// CommandTimeout bounds a per-node shutdown or restart command.
	CommandTimeout = 30 * time.Second
)
