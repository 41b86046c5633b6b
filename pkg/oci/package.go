package oci

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content"
	ocistore "oras.land/oras-go/v2/content/oci"
)

// Package archives the profile documents in SourceDir into an OCI
// layout store under OutputDir and tags the manifest for the given
// reference. The store can then be pushed with PushFromStore.
func Package(ctx context.Context, opts PackageOptions) (*PackageResult, error) {
	if opts.Tag == "" {
		opts.Tag = defaultTag
	}
	if err := ValidateRegistryReference(opts.Registry, opts.Repository); err != nil {
		return nil, err
	}

	layerData, files, err := packDir(opts.SourceDir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no profile documents found in %s", opts.SourceDir)
	}

	storePath := filepath.Join(opts.OutputDir, "oci-layout")
	store, err := ocistore.New(storePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create layout store: %w", err)
	}

	layerDesc := content.NewDescriptorFromBytes(profilesLayerMediaType, layerData)
	layerDesc.Annotations = map[string]string{
		ocispec.AnnotationTitle: "profiles",
	}
	if err := store.Push(ctx, layerDesc, bytes.NewReader(layerData)); err != nil {
		return nil, fmt.Errorf("failed to store profiles layer: %w", err)
	}

	manifestDesc, err := oras.PackManifest(ctx, store, oras.PackManifestVersion1_1, ArtifactType,
		oras.PackManifestOptions{
			Layers: []ocispec.Descriptor{layerDesc},
			ManifestAnnotations: map[string]string{
				ocispec.AnnotationDescription: "hivectl hardware profiles",
			},
		})
	if err != nil {
		return nil, fmt.Errorf("failed to pack manifest: %w", err)
	}
	if err := store.Tag(ctx, manifestDesc, opts.Tag); err != nil {
		return nil, fmt.Errorf("failed to tag manifest: %w", err)
	}

	return &PackageResult{
		Reference: fmt.Sprintf("%s/%s:%s", opts.Registry, opts.Repository, opts.Tag),
		Digest:    manifestDesc.Digest.String(),
		StorePath: storePath,
		Files:     files,
	}, nil
}
