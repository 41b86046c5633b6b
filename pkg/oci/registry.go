package oci

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/distribution/reference"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content"
	"oras.land/oras-go/v2/content/memory"
	ocistore "oras.land/oras-go/v2/content/oci"
	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"
	"oras.land/oras-go/v2/registry/remote/credentials"
	"oras.land/oras-go/v2/registry/remote/retry"
)

// ValidateRegistryReference checks that registry host and repository
// path form a well-formed reference before any network work starts.
func ValidateRegistryReference(registry, repository string) error {
	if registry == "" {
		return fmt.Errorf("registry host cannot be empty")
	}
	if repository == "" {
		return fmt.Errorf("repository path cannot be empty")
	}
	ref := registry + "/" + repository
	if _, err := reference.ParseNamed(ref); err != nil {
		return fmt.Errorf("invalid registry reference %q: %w", ref, err)
	}
	return nil
}

// newRepository builds an authenticated registry client. Credentials
// come from the operator's docker credential store.
func newRepository(registry, repo string, plainHTTP, insecureTLS bool) (*remote.Repository, error) {
	r, err := remote.NewRepository(registry + "/" + repo)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve repository: %w", err)
	}
	r.PlainHTTP = plainHTTP

	client := retry.DefaultClient
	if insecureTLS {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		client = &http.Client{Transport: retry.NewTransport(transport)}
	}

	credStore, err := credentials.NewStoreFromDocker(credentials.StoreOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to open docker credential store: %w", err)
	}

	r.Client = &auth.Client{
		Client:     client,
		Cache:      auth.NewCache(),
		Credential: credentials.Credential(credStore),
	}
	return r, nil
}

// PushFromStore pushes a previously packaged layout store to the
// registry.
func PushFromStore(ctx context.Context, storePath string, opts PushOptions) (*PushResult, error) {
	if opts.Tag == "" {
		opts.Tag = defaultTag
	}
	if err := ValidateRegistryReference(opts.Registry, opts.Repository); err != nil {
		return nil, err
	}

	store, err := ocistore.New(storePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open layout store: %w", err)
	}
	repo, err := newRepository(opts.Registry, opts.Repository, opts.PlainHTTP, opts.InsecureTLS)
	if err != nil {
		return nil, err
	}

	desc, err := oras.Copy(ctx, store, opts.Tag, repo, opts.Tag, oras.DefaultCopyOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to push artifact: %w", err)
	}

	return &PushResult{
		Reference: fmt.Sprintf("%s/%s:%s", opts.Registry, opts.Repository, opts.Tag),
		Digest:    desc.Digest.String(),
	}, nil
}

// Pull fetches a profile artifact and extracts its documents into
// DestDir. Existing documents with the same names are overwritten.
func Pull(ctx context.Context, opts PullOptions) (*PullResult, error) {
	if opts.Tag == "" {
		opts.Tag = defaultTag
	}
	if err := ValidateRegistryReference(opts.Registry, opts.Repository); err != nil {
		return nil, err
	}

	repo, err := newRepository(opts.Registry, opts.Repository, opts.PlainHTTP, opts.InsecureTLS)
	if err != nil {
		return nil, err
	}

	staging := memory.New()
	desc, err := oras.Copy(ctx, repo, opts.Tag, staging, opts.Tag, oras.DefaultCopyOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to pull artifact: %w", err)
	}

	manifestData, err := content.FetchAll(ctx, staging, desc)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch manifest: %w", err)
	}
	var manifest ocispec.Manifest
	if err := json.Unmarshal(manifestData, &manifest); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}
	if manifest.ArtifactType != ArtifactType {
		return nil, fmt.Errorf("artifact %q is not a hardware profile set (artifact type %q)",
			desc.Digest, manifest.ArtifactType)
	}

	if err := os.MkdirAll(opts.DestDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create destination directory: %w", err)
	}

	var files []string
	for _, layer := range manifest.Layers {
		if layer.MediaType != profilesLayerMediaType {
			slog.Debug("skipping foreign layer", "mediaType", layer.MediaType)
			continue
		}
		layerData, err := content.FetchAll(ctx, staging, layer)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch profiles layer: %w", err)
		}
		extracted, err := unpackDir(layerData, opts.DestDir)
		if err != nil {
			return nil, err
		}
		files = append(files, extracted...)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("artifact %q contained no profile documents", desc.Digest)
	}

	return &PullResult{
		Reference: fmt.Sprintf("%s/%s:%s", opts.Registry, opts.Repository, opts.Tag),
		Digest:    desc.Digest.String(),
		Files:     files,
	}, nil
}
