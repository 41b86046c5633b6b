package oci

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"
)

func writeProfileDocs(t *testing.T, dir string, docs map[string]string) {
	t.Helper()
	for name, body := range docs {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
}

func TestPackDirRoundTrip(t *testing.T) {
	src := t.TempDir()
	writeProfileDocs(t, src, map[string]string{
		"v100.yaml": "hardware_version: v100\n",
		"v200.yaml": "hardware_version: v200\n",
		"notes.txt": "not a profile\n",
		"extra.yml": "hardware_version: v300\n",
		"README.md": "docs\n",
	})

	data, files, err := packDir(src)
	if err != nil {
		t.Fatalf("packDir failed: %v", err)
	}
	want := []string{"extra.yml", "v100.yaml", "v200.yaml"}
	if len(files) != len(want) {
		t.Fatalf("packed %v, want %v", files, want)
	}
	for i, name := range want {
		if files[i] != name {
			t.Fatalf("packed %v, want %v", files, want)
		}
	}

	dest := t.TempDir()
	extracted, err := unpackDir(data, dest)
	if err != nil {
		t.Fatalf("unpackDir failed: %v", err)
	}
	if len(extracted) != len(want) {
		t.Fatalf("extracted %v, want %v", extracted, want)
	}
	body, err := os.ReadFile(filepath.Join(dest, "v100.yaml"))
	if err != nil {
		t.Fatalf("extracted document missing: %v", err)
	}
	if string(body) != "hardware_version: v100\n" {
		t.Fatalf("unexpected document body %q", body)
	}
	if _, err := os.Stat(filepath.Join(dest, "notes.txt")); !os.IsNotExist(err) {
		t.Fatal("non-profile file should not be packed")
	}
}

func TestPackDirIsDeterministic(t *testing.T) {
	src := t.TempDir()
	writeProfileDocs(t, src, map[string]string{
		"b.yaml": "hardware_version: b\n",
		"a.yaml": "hardware_version: a\n",
	})

	first, _, err := packDir(src)
	if err != nil {
		t.Fatalf("packDir failed: %v", err)
	}
	second, _, err := packDir(src)
	if err != nil {
		t.Fatalf("packDir failed: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatal("archiving the same documents twice produced different bytes")
	}
}

func TestUnpackDirFlattensEntryPaths(t *testing.T) {
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)
	body := []byte("hardware_version: evil\n")
	if err := tw.WriteHeader(&tar.Header{
		Name: "../../escape.yaml",
		Mode: 0o644,
		Size: int64(len(body)),
	}); err != nil {
		t.Fatalf("failed to build archive: %v", err)
	}
	if _, err := tw.Write(body); err != nil {
		t.Fatalf("failed to build archive: %v", err)
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("failed to build archive: %v", err)
	}
	if err := gw.Close(); err != nil {
		t.Fatalf("failed to build archive: %v", err)
	}

	parent := t.TempDir()
	dest := filepath.Join(parent, "profiles")
	if err := os.Mkdir(dest, 0o755); err != nil {
		t.Fatalf("failed to create dest: %v", err)
	}

	files, err := unpackDir(buf.Bytes(), dest)
	if err != nil {
		t.Fatalf("unpackDir failed: %v", err)
	}
	if len(files) != 1 || files[0] != "escape.yaml" {
		t.Fatalf("extracted %v, want [escape.yaml]", files)
	}
	if _, err := os.Stat(filepath.Join(dest, "escape.yaml")); err != nil {
		t.Fatalf("flattened document missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(parent, "escape.yaml")); !os.IsNotExist(err) {
		t.Fatal("archive entry escaped the destination directory")
	}
}
