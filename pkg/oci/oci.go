// Package oci packages the hardware profile set as an OCI artifact and
// distributes it through a container registry, so every operator
// machine can pull the same profile documents instead of copying them
// by hand.
package oci

const (
	// ArtifactType identifies a packaged hardware profile set.
	ArtifactType = "application/vnd.hivelab.hivectl.profiles.v1"

	// profilesLayerMediaType is the single compressed layer carrying
	// the profile documents.
	profilesLayerMediaType = "application/vnd.hivelab.hivectl.profiles.v1.tar+gzip"

	// defaultTag is used when no tag is given.
	defaultTag = "latest"
)

// PackageOptions configures packaging a profiles directory into a
// local OCI layout store.
type PackageOptions struct {
	// SourceDir is the directory holding the profile documents.
	SourceDir string

	// OutputDir is where the layout store is created.
	OutputDir string

	// Registry, Repository and Tag form the artifact reference the
	// package is tagged for.
	Registry   string
	Repository string
	Tag        string
}

// PackageResult describes a locally packaged artifact.
type PackageResult struct {
	// Reference is the full registry reference the store is tagged
	// for.
	Reference string

	// Digest is the manifest digest.
	Digest string

	// StorePath is the local OCI layout directory, ready for
	// PushFromStore.
	StorePath string

	// Files are the packaged profile document names.
	Files []string
}

// PushOptions configures pushing a packaged artifact to a registry.
type PushOptions struct {
	Registry   string
	Repository string
	Tag        string

	// PlainHTTP talks to the registry without TLS (local
	// development registries).
	PlainHTTP bool

	// InsecureTLS skips TLS certificate verification.
	InsecureTLS bool
}

// PushResult describes a pushed artifact.
type PushResult struct {
	Reference string
	Digest    string
}

// PullOptions configures fetching a profile artifact into a local
// directory.
type PullOptions struct {
	Registry   string
	Repository string
	Tag        string

	// DestDir receives the extracted profile documents.
	DestDir string

	PlainHTTP   bool
	InsecureTLS bool
}

// PullResult describes a pulled artifact.
type PullResult struct {
	Reference string
	Digest    string

	// Files are the extracted profile document names.
	Files []string
}
