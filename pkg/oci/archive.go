package oci

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

func isProfileDocument(name string) bool {
	ext := filepath.Ext(name)
	return ext == ".yaml" || ext == ".yml"
}

// packDir archives the profile documents in dir into a gzipped tar.
// Entries carry no timestamps or ownership, so the same documents
// always produce the same bytes and therefore the same digest.
func packDir(dir string) ([]byte, []string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read profiles directory: %w", err)
	}

	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !isProfileDocument(entry.Name()) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read profile document: %w", err)
		}
		hdr := &tar.Header{
			Name: entry.Name(),
			Mode: 0o644,
			Size: int64(len(data)),
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return nil, nil, fmt.Errorf("failed to archive %s: %w", entry.Name(), err)
		}
		if _, err := tw.Write(data); err != nil {
			return nil, nil, fmt.Errorf("failed to archive %s: %w", entry.Name(), err)
		}
		files = append(files, entry.Name())
	}

	if err := tw.Close(); err != nil {
		return nil, nil, err
	}
	if err := gw.Close(); err != nil {
		return nil, nil, err
	}
	return buf.Bytes(), files, nil
}

// unpackDir extracts the profile documents from a layer into dir.
// Entry names are flattened to their base name, so a crafted archive
// cannot write outside dir.
func unpackDir(data []byte, dir string) ([]string, error) {
	gr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decompress profiles layer: %w", err)
	}
	defer gr.Close()

	tr := tar.NewReader(gr)
	var files []string
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read profiles layer: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		name := filepath.Base(hdr.Name)
		if !isProfileDocument(name) {
			continue
		}
		content, err := io.ReadAll(tr)
		if err != nil {
			return nil, fmt.Errorf("failed to extract %s: %w", name, err)
		}
		if err := os.WriteFile(filepath.Join(dir, name), content, 0o644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", name, err)
		}
		files = append(files, name)
	}
	return files, nil
}
