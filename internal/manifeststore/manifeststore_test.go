package manifeststore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spkenv/spfs/internal/blobstore"
	"github.com/spkenv/spfs/internal/manifest"
)

func buildSampleManifest(t *testing.T) *manifest.Manifest {
	t.Helper()
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "a.txt"), []byte("a"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(root, "dir"), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "dir", "b.txt"), []byte("b"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	store, err := blobstore.Open(t.TempDir())
	if err != nil {
		t.Fatalf("blobstore.Open: %v", err)
	}
	m, err := manifest.ComputeManifest(root, store)
	if err != nil {
		t.Fatalf("ComputeManifest: %v", err)
	}
	return m
}

func TestWriteReadRoundTrip(t *testing.T) {
	m := buildSampleManifest(t)
	pkgRoot := t.TempDir()

	if err := Write(pkgRoot, m); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Read(pkgRoot)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.Digest() != m.Digest() {
		t.Fatalf("round trip digest mismatch: %s != %s", got.Digest(), m.Digest())
	}

	var paths []string
	got.Walk(func(path string, e manifest.Entry) bool {
		if path != "" {
			paths = append(paths, path)
		}
		return true
	})
	want := []string{"a.txt", "dir", "dir/b.txt"}
	if len(paths) != len(want) {
		t.Fatalf("got paths %v, want %v", paths, want)
	}
}

func TestReadDetectsCorruption(t *testing.T) {
	m := buildSampleManifest(t)
	pkgRoot := t.TempDir()
	if err := Write(pkgRoot, m); err != nil {
		t.Fatalf("Write: %v", err)
	}

	path := filepath.Join(pkgRoot, metaRelPath)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	tampered := append(data, []byte("blob\t644\tdeadbeef\t1\tghost.txt\n")...)
	if err := os.WriteFile(path, tampered, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := Read(pkgRoot); err == nil {
		t.Fatalf("expected Read to detect the tampered manifest")
	}
}

func TestReadUnknownPackage(t *testing.T) {
	if _, err := Read(t.TempDir()); err == nil {
		t.Fatalf("expected an error reading a package with no manifest")
	}
}
